package moderation

import (
	"MapHub-Backend/internal/config"
	"MapHub-Backend/internal/domain"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func testConfig(url string) config.Moderation {
	return config.Moderation{
		PerspectiveURL:   url + "/perspective",
		PerspectiveKey:   "pk",
		VisionURL:        url + "/vision",
		VisionKey:        "vk",
		Timeout:          time.Second,
		RequestsPerSec:   1000,
		Burst:            100,
		BreakerFailures:  3,
		BreakerOpenDelay: time.Minute,
	}
}

func TestClient_ScoreToxicity(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "pk", r.URL.Query().Get("key"))
		var req perspectiveRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))

		score := 0.02
		if strings.Contains(req.Comment.Text, "idiot") {
			score = 0.9
		}
		_, _ = fmt.Fprintf(w, `{"attributeScores":{"TOXICITY":{"summaryScore":{"value":%g}}}}`, score)
	}))
	defer srv.Close()

	c := NewClient(testConfig(srv.URL), zap.NewNop())
	ctx := context.Background()

	score, err := c.ScoreToxicity(ctx, "idiot")
	require.NoError(t, err)
	assert.InDelta(t, 0.9, score, 1e-9)

	score, err = c.ScoreToxicity(ctx, "Castles of Silesia")
	require.NoError(t, err)
	assert.Less(t, score, 0.10)

	// Blank text never reaches the API
	score, err = c.ScoreToxicity(ctx, "   ")
	require.NoError(t, err)
	assert.Zero(t, score)
}

func TestClient_ScoreToxicityRetriesWithLanguage(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		var req perspectiveRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		if len(req.Languages) == 0 {
			w.WriteHeader(http.StatusBadRequest)
			_, _ = io.WriteString(w, `{"error":{"message":"Attribute TOXICITY does not support request languages: und"}}`)
			return
		}
		_, _ = io.WriteString(w, `{"attributeScores":{"TOXICITY":{"summaryScore":{"value":0.05}}}}`)
	}))
	defer srv.Close()

	c := NewClient(testConfig(srv.URL), zap.NewNop())
	score, err := c.ScoreToxicity(context.Background(), "zzz")
	require.NoError(t, err)
	assert.InDelta(t, 0.05, score, 1e-9)
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

func TestClient_CheckImage(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		wantErr error
	}{
		{
			name: "safe",
			body: `{"responses":[{"safeSearchAnnotation":{"adult":"VERY_UNLIKELY","violence":"UNLIKELY","racy":"POSSIBLE"}}]}`,
		},
		{
			name:    "racy",
			body:    `{"responses":[{"safeSearchAnnotation":{"adult":"UNLIKELY","violence":"UNLIKELY","racy":"LIKELY"}}]}`,
			wantErr: ErrUnsafeImage,
		},
		{
			name:    "api error",
			body:    `{"responses":[{"error":{"message":"bad image"}}]}`,
			wantErr: domain.ErrDependency,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, "/vision", r.URL.Path)
				_, _ = io.WriteString(w, tt.body)
			}))
			defer srv.Close()

			c := NewClient(testConfig(srv.URL), zap.NewNop())
			err := c.CheckImage(context.Background(), domain.Upload{Filename: "a.png", Content: []byte{1, 2, 3}})
			if tt.wantErr == nil {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, tt.wantErr)
			}
		})
	}
}

func TestClient_BreakerOpensAfterFailures(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := NewClient(testConfig(srv.URL), zap.NewNop())
	for i := 0; i < 5; i++ {
		_, err := c.ScoreToxicity(context.Background(), "text")
		assert.ErrorIs(t, err, domain.ErrDependency)
	}
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
}

func TestNew_DisabledWithoutKeys(t *testing.T) {
	m := New(config.Moderation{}, zap.NewNop())
	_, ok := m.(Disabled)
	assert.True(t, ok)
}
