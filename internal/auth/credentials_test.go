package auth

import (
	"MapHub-Backend/internal/domain"
	"MapHub-Backend/internal/mail"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestAccountService_PasswordReset(t *testing.T) {
	ctx := context.Background()

	t.Run("success", func(t *testing.T) {
		f := newAccountFixture(t)
		u := f.verified(t, "anna", "anna@example.com", "secret1")
		session, err := f.accounts.Login(ctx, LoginInput{Email: "anna@example.com", Password: "secret1", Origin: "1.2.3.4"})
		require.NoError(t, err)

		f.mailer.On("Send", mock.Anything, "anna@example.com", mail.ResetPasswordSubject,
			mock.MatchedBy(func(body string) bool { return strings.Contains(body, "/resetPassword?token=") })).
			Return(nil).Once()
		require.NoError(t, f.accounts.RequestPasswordReset(ctx, " Anna@Example.com "))

		stored, err := f.store.GetUserByID(ctx, u.ID)
		require.NoError(t, err)
		require.NotNil(t, stored.ResetPasswordToken)

		require.NoError(t, f.accounts.ConfirmPasswordReset(ctx, *stored.ResetPasswordToken, "newsecret"))

		_, err = f.accounts.Login(ctx, LoginInput{Email: "anna@example.com", Password: "secret1", Origin: "1.2.3.4"})
		assert.ErrorIs(t, err, domain.ErrUnauthorized)
		_, err = f.accounts.Login(ctx, LoginInput{Email: "anna@example.com", Password: "newsecret", Origin: "1.2.3.4"})
		assert.NoError(t, err)

		// The reset ends earlier sessions and the token is single use
		_, err = f.accounts.Refresh(ctx, session.RefreshToken, "1.2.3.4", "")
		assert.ErrorIs(t, err, domain.ErrUnauthorized)
		err = f.accounts.ConfirmPasswordReset(ctx, *stored.ResetPasswordToken, "another1")
		assert.ErrorIs(t, err, domain.ErrValidation)
		assert.Equal(t, "token", domain.FieldOf(err))
	})

	// Test unknown emails look the same as known ones and send nothing
	t.Run("unknown email", func(t *testing.T) {
		f := newAccountFixture(t)
		assert.NoError(t, f.accounts.RequestPasswordReset(ctx, "ghost@example.com"))
		f.mailer.AssertNotCalled(t, "Send", mock.Anything, mock.Anything, mock.Anything, mock.Anything)

		err := f.accounts.RequestPasswordReset(ctx, "not-an-email")
		assert.ErrorIs(t, err, domain.ErrValidation)
	})

	t.Run("expired token", func(t *testing.T) {
		f := newAccountFixture(t)
		u := f.verified(t, "anna", "anna@example.com", "secret1")
		f.mailer.On("Send", mock.Anything, "anna@example.com", mail.ResetPasswordSubject, mock.Anything).Return(nil).Once()
		require.NoError(t, f.accounts.RequestPasswordReset(ctx, "anna@example.com"))

		stored, err := f.store.GetUserByID(ctx, u.ID)
		require.NoError(t, err)

		f.clock.Advance(25 * time.Hour)
		err = f.accounts.ConfirmPasswordReset(ctx, *stored.ResetPasswordToken, "newsecret")
		assert.ErrorIs(t, err, domain.ErrValidation)
		assert.Equal(t, "token", domain.FieldOf(err))

		err = f.accounts.ConfirmPasswordReset(ctx, "", "newsecret")
		assert.ErrorIs(t, err, domain.ErrValidation)
	})
}

func TestAccountService_ChangePassword(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name      string
		input     ChangePasswordInput
		wantField string
	}{
		{
			name:      "mismatch",
			input:     ChangePasswordInput{Current: "secret1", New: "newsecret", Confirm: "other"},
			wantField: "confirm_password",
		},
		{
			name:      "wrong current password",
			input:     ChangePasswordInput{Current: "wrong", New: "newsecret", Confirm: "newsecret"},
			wantField: "current_password",
		},
		{
			name:      "too short",
			input:     ChangePasswordInput{Current: "secret1", New: "abc", Confirm: "abc"},
			wantField: "password",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newAccountFixture(t)
			u := f.verified(t, "anna", "anna@example.com", "secret1")

			err := f.accounts.ChangePassword(ctx, u.ID, tt.input)
			assert.ErrorIs(t, err, domain.ErrValidation)
			assert.Equal(t, tt.wantField, domain.FieldOf(err))
		})
	}

	t.Run("success", func(t *testing.T) {
		f := newAccountFixture(t)
		u := f.verified(t, "anna", "anna@example.com", "secret1")
		session, err := f.accounts.Login(ctx, LoginInput{Email: "anna@example.com", Password: "secret1", Origin: "1.2.3.4"})
		require.NoError(t, err)

		err = f.accounts.ChangePassword(ctx, u.ID, ChangePasswordInput{Current: "secret1", New: "newsecret", Confirm: "newsecret"})
		require.NoError(t, err)

		_, err = f.accounts.Login(ctx, LoginInput{Email: "anna@example.com", Password: "newsecret", Origin: "1.2.3.4"})
		assert.NoError(t, err)
		_, err = f.accounts.Refresh(ctx, session.RefreshToken, "1.2.3.4", "")
		assert.ErrorIs(t, err, domain.ErrUnauthorized)
	})
}
