package auth

import (
	"MapHub-Backend/internal/domain"
	"MapHub-Backend/internal/mail"
	"MapHub-Backend/internal/repository"
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ChangePasswordInput carries a password change of a signed in user.
type ChangePasswordInput struct {
	Current string
	New     string
	Confirm string
}

// RequestPasswordReset mails a reset link to the account holding email.
// An unknown email is not reported to the caller.
func (s *AccountService) RequestPasswordReset(ctx context.Context, email string) error {
	email = normalizeEmail(email)
	if err := validate.Var(email, "required,email"); err != nil {
		return domain.Validation("email", "invalid email address")
	}

	user, err := s.Storage.GetUserByEmail(ctx, email)
	if errors.Is(err, domain.ErrNotFound) {
		s.Log.Info("password reset requested for unknown email", zap.String("email", email))
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to find user: %w", err)
	}

	token := uuid.NewString()
	expires := s.Now().Add(s.Limits.ResetTTL)

	body := mail.ResetPasswordBody(s.SiteURL, user.Name, token)
	if err := s.Mailer.Send(ctx, user.Email, mail.ResetPasswordSubject, body); err != nil {
		return fmt.Errorf("failed to send reset email: %w", err)
	}

	user.ResetPasswordToken = &token
	user.ResetPasswordExpiresAt = &expires
	if err := s.Storage.UpdateUser(ctx, user); err != nil {
		return fmt.Errorf("failed to store reset token: %w", err)
	}

	s.Log.Info("password reset requested", zap.Int64("user_id", user.ID))
	return nil
}

// ConfirmPasswordReset sets a new password for the account holding token and
// ends all of its sessions.
func (s *AccountService) ConfirmPasswordReset(ctx context.Context, token, password string) error {
	if token == "" {
		return domain.Validation("token", "reset token is required")
	}

	user, err := s.Storage.GetUserByResetToken(ctx, token)
	if errors.Is(err, domain.ErrNotFound) {
		return domain.Validation("token", "invalid reset token")
	}
	if err != nil {
		return fmt.Errorf("failed to find reset token: %w", err)
	}
	if user.ResetExpired(s.Now()) {
		return domain.Validation("token", "reset token expired, request a new link")
	}

	hash, err := s.Passwords.HashPassword(password)
	if err != nil {
		return err
	}

	user.PasswordHash = hash
	user.ResetPasswordToken = nil
	user.ResetPasswordExpiresAt = nil
	if err := s.setPassword(ctx, user); err != nil {
		return err
	}

	s.Log.Info("password reset", zap.Int64("user_id", user.ID))
	return nil
}

// ChangePassword replaces the password of a signed in user after checking
// the current one.
func (s *AccountService) ChangePassword(ctx context.Context, userID int64, in ChangePasswordInput) error {
	if in.New != in.Confirm {
		return domain.Validation("confirm_password", "passwords do not match")
	}

	user, err := s.Storage.GetUserByID(ctx, userID)
	if err != nil {
		return err
	}
	if err := s.Passwords.VerifyPassword(user.PasswordHash, in.Current); err != nil {
		return domain.Validation("current_password", "current password is incorrect")
	}

	hash, err := s.Passwords.HashPassword(in.New)
	if err != nil {
		return err
	}
	user.PasswordHash = hash
	if err := s.setPassword(ctx, user); err != nil {
		return err
	}

	s.Log.Info("password changed", zap.Int64("user_id", userID))
	return nil
}

// setPassword persists user and revokes its refresh tokens in one transaction.
func (s *AccountService) setPassword(ctx context.Context, user *domain.User) error {
	return s.Storage.WithinTx(ctx, func(tx repository.Storage) error {
		if err := tx.UpdateUser(ctx, user); err != nil {
			return fmt.Errorf("failed to update password: %w", err)
		}
		if err := tx.RevokeUserRefreshTokens(ctx, user.ID); err != nil {
			return fmt.Errorf("failed to revoke sessions: %w", err)
		}
		return nil
	})
}
