package auth

import (
	"MapHub-Backend/internal/domain"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestPasswordService(t *testing.T) {
	s := NewPasswordServiceWithCost(bcrypt.MinCost)

	hash, err := s.HashPassword("secret1")
	require.NoError(t, err)
	assert.NotEqual(t, "secret1", hash)

	assert.NoError(t, s.VerifyPassword(hash, "secret1"))
	assert.Error(t, s.VerifyPassword(hash, "secret2"))
}

func TestPasswordService_RejectUnknown(t *testing.T) {
	s := NewPasswordServiceWithCost(bcrypt.MinCost + 1)

	// The dummy hash costs as much as a real one
	cost, err := bcrypt.Cost(s.dummy)
	require.NoError(t, err)
	assert.Equal(t, bcrypt.MinCost+1, cost)

	assert.ErrorIs(t, s.RejectUnknown("maphub-no-such-account"), bcrypt.ErrMismatchedHashAndPassword)
	assert.ErrorIs(t, s.RejectUnknown(""), bcrypt.ErrMismatchedHashAndPassword)
}

func TestIsValidPassword(t *testing.T) {
	tests := []struct {
		name     string
		password string
		wantErr  bool
	}{
		{"too short", "12345", true},
		{"minimum", "123456", false},
		{"maximum", strings.Repeat("a", 72), false},
		{"too long", strings.Repeat("a", 73), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := IsValidPassword(tt.password)
			if tt.wantErr {
				assert.ErrorIs(t, err, domain.ErrValidation)
				assert.Equal(t, "password", domain.FieldOf(err))
				return
			}
			assert.NoError(t, err)
		})
	}
}
