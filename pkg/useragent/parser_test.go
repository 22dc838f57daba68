package useragent

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestParser_Parse(t *testing.T) {
	p, err := NewParser("", zap.NewNop())
	require.NoError(t, err)

	tests := []struct {
		name string
		ua   string
		kind string
	}{
		{
			name: "desktop chrome",
			ua:   "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
			kind: KindDesktop,
		},
		{
			name: "iphone",
			ua:   "Mozilla/5.0 (iPhone; CPU iPhone OS 17_0 like Mac OS X) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.0 Mobile/15E148 Safari/604.1",
			kind: KindMobile,
		},
		{
			name: "ipad",
			ua:   "Mozilla/5.0 (iPad; CPU OS 17_0 like Mac OS X) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.0 Mobile/15E148 Safari/604.1",
			kind: KindTablet,
		},
		{
			name: "crawler",
			ua:   "Mozilla/5.0 (compatible; Googlebot/2.1; +http://www.google.com/bot.html)",
			kind: KindBot,
		},
		{
			name: "empty",
			ua:   "",
			kind: KindUnknown,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.kind, p.Parse(tt.ua).Kind)
		})
	}
}

func TestParser_MissingRegexFileFallsBack(t *testing.T) {
	p, err := NewParser("does/not/exist.yaml", zap.NewNop())
	require.NoError(t, err)

	c := p.Parse("Mozilla/5.0 (X11; Linux x86_64; rv:121.0) Gecko/20100101 Firefox/121.0")
	assert.Equal(t, "Firefox", c.Browser)
	assert.Equal(t, KindDesktop, c.Kind)
	assert.Len(t, c.Fields(), 3)
}

func TestParser_NilParser(t *testing.T) {
	var p *Parser
	c := p.Parse("Mozilla/5.0 (iPhone; CPU iPhone OS 17_0 like Mac OS X)")
	assert.Equal(t, KindUnknown, c.Kind)
	assert.Equal(t, KindUnknown, c.Browser)
	assert.Equal(t, KindUnknown, c.OS)
}
