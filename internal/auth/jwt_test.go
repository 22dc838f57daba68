package auth

import (
	"MapHub-Backend/internal/config"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestJWT(clock *fakeClock) *JWTService {
	s := NewJWTService(&config.JWT{Secret: "test-secret", AccessDuration: time.Hour, RefreshDuration: 30 * 24 * time.Hour, Issuer: "maphub"})
	s.now = clock.Now
	return s
}

func TestJWTService(t *testing.T) {
	clock := &fakeClock{now: time.Date(2026, time.March, 10, 12, 0, 0, 0, time.UTC)}
	s := newTestJWT(clock)

	token, err := s.GenerateAccessToken(42, "anna@example.com")
	require.NoError(t, err)

	// Test a fresh token round-trips its claims
	t.Run("valid", func(t *testing.T) {
		claims, err := s.ValidateToken(token)
		require.NoError(t, err)
		assert.Equal(t, int64(42), claims.UserID)
		assert.Equal(t, "anna@example.com", claims.Email)
		assert.Equal(t, strconv.Itoa(42), claims.Subject)
		assert.Equal(t, "maphub", claims.Issuer)
	})

	t.Run("wrong secret", func(t *testing.T) {
		other := NewJWTService(&config.JWT{Secret: "other", AccessDuration: time.Hour, Issuer: "maphub"})
		other.now = clock.Now
		_, err := other.ValidateToken(token)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("wrong issuer", func(t *testing.T) {
		other := NewJWTService(&config.JWT{Secret: "test-secret", AccessDuration: time.Hour, Issuer: "someone"})
		other.now = clock.Now
		_, err := other.ValidateToken(token)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("garbage", func(t *testing.T) {
		_, err := s.ValidateToken("not.a.token")
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("expired", func(t *testing.T) {
		later := &fakeClock{now: clock.Now().Add(2 * time.Hour)}
		_, err := newTestJWT(later).ValidateToken(token)
		assert.ErrorIs(t, err, ErrExpiredToken)
	})
}

func TestJWTService_RefreshToken(t *testing.T) {
	clock := &fakeClock{now: time.Date(2026, time.March, 10, 12, 0, 0, 0, time.UTC)}
	s := newTestJWT(clock)

	first, err := s.GenerateRefreshToken(42, "anna@example.com")
	require.NoError(t, err)
	second, err := s.GenerateRefreshToken(42, "anna@example.com")
	require.NoError(t, err)

	// Tokens issued in the same second still differ
	assert.NotEqual(t, first.ID, second.ID)
	assert.NotEqual(t, first.Token, second.Token)
	assert.Equal(t, clock.Now().Add(30*24*time.Hour), first.ExpiresAt)

	claims, err := s.ValidateRefreshToken(first.Token)
	require.NoError(t, err)
	assert.Equal(t, int64(42), claims.UserID)
	assert.Equal(t, first.ID, claims.ID)

	// The token types are not interchangeable
	_, err = s.ValidateToken(first.Token)
	assert.ErrorIs(t, err, ErrInvalidToken)
	access, err := s.GenerateAccessToken(42, "anna@example.com")
	require.NoError(t, err)
	_, err = s.ValidateRefreshToken(access)
	assert.ErrorIs(t, err, ErrInvalidToken)

	later := &fakeClock{now: clock.Now().Add(31 * 24 * time.Hour)}
	_, err = newTestJWT(later).ValidateRefreshToken(first.Token)
	assert.ErrorIs(t, err, ErrExpiredToken)
}

func TestExtractTokenFromBearer(t *testing.T) {
	tests := []struct {
		header string
		want   string
	}{
		{"Bearer abc", "abc"},
		{"Bearer ", ""},
		{"bearer abc", ""},
		{"abc", ""},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.header, func(t *testing.T) {
			assert.Equal(t, tt.want, ExtractTokenFromBearer(tt.header))
		})
	}
}
