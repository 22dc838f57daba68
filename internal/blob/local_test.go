package blob

import (
	"MapHub-Backend/internal/domain"
	"context"
	"net/url"
	"os"
	"path"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestLocalStore_RoundTrip(t *testing.T) {
	ctx := context.Background()
	s, err := NewLocalStore(t.TempDir(), "http://localhost:8080/media/", "secret", zap.NewNop())
	require.NoError(t, err)

	ref, err := s.Upload(ctx, domain.Upload{Filename: "Thumb.PNG", Content: []byte("png")})
	require.NoError(t, err)
	assert.Regexp(t, `\.png$`, ref)

	signed, err := s.SignedURL(ctx, ref, time.Minute)
	require.NoError(t, err)

	u, err := url.Parse(signed)
	require.NoError(t, err)
	assert.Equal(t, "/media/"+ref, u.Path)

	p, err := s.Open(path.Base(u.Path), u.Query().Get("token"))
	require.NoError(t, err)
	data, err := os.ReadFile(p)
	require.NoError(t, err)
	assert.Equal(t, []byte("png"), data)

	require.NoError(t, s.Delete(ctx, ref))
	_, err = os.Stat(p)
	assert.True(t, os.IsNotExist(err))

	// Deleting twice is fine
	assert.NoError(t, s.Delete(ctx, ref))
}

func TestLocalStore_RejectsBadTokens(t *testing.T) {
	ctx := context.Background()
	s, err := NewLocalStore(t.TempDir(), "http://localhost/media", "secret", zap.NewNop())
	require.NoError(t, err)

	ref, err := s.Upload(ctx, domain.Upload{Filename: "a.jpg", Content: []byte("x")})
	require.NoError(t, err)
	other, err := s.Upload(ctx, domain.Upload{Filename: "b.jpg", Content: []byte("y")})
	require.NoError(t, err)

	signed, err := s.SignedURL(ctx, other, time.Minute)
	require.NoError(t, err)
	u, _ := url.Parse(signed)
	token := u.Query().Get("token")

	// Token for another reference
	_, err = s.Open(ref, token)
	assert.ErrorIs(t, err, ErrInvalidSignature)

	// Expired token
	s.now = func() time.Time { return time.Now().Add(-time.Hour) }
	signed, err = s.SignedURL(ctx, ref, time.Minute)
	require.NoError(t, err)
	s.now = time.Now
	u, _ = url.Parse(signed)
	_, err = s.Open(ref, u.Query().Get("token"))
	assert.ErrorIs(t, err, ErrInvalidSignature)

	// Path traversal
	_, err = s.Open("../etc/passwd", token)
	assert.ErrorIs(t, err, domain.ErrValidation)
	assert.ErrorIs(t, s.Delete(ctx, "../x"), domain.ErrValidation)
}
