package auth

import (
	"MapHub-Backend/internal/domain"
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"
)

// issueSession creates an access and refresh token pair for user and stores
// the refresh token with the client it was issued to.
func (s *AccountService) issueSession(ctx context.Context, user *domain.User, origin, userAgent string) (*LoginResult, error) {
	access, err := s.Tokens.GenerateAccessToken(user.ID, user.Email)
	if err != nil {
		return nil, fmt.Errorf("failed to generate access token: %w", err)
	}
	refresh, err := s.Tokens.GenerateRefreshToken(user.ID, user.Email)
	if err != nil {
		return nil, fmt.Errorf("failed to generate refresh token: %w", err)
	}

	row := &domain.RefreshToken{
		UserID:    user.ID,
		Token:     refresh.ID,
		ExpiresAt: refresh.ExpiresAt,
		UserAgent: optionalString(userAgent),
		IPAddress: optionalString(origin),
	}
	if err := s.Storage.CreateRefreshToken(ctx, row); err != nil {
		return nil, fmt.Errorf("failed to store refresh token: %w", err)
	}

	return &LoginResult{AccessToken: access, RefreshToken: refresh.Token, User: user}, nil
}

// Refresh rotates a refresh token: the presented one is revoked and a new
// pair is issued. Presenting an already revoked token revokes every session
// of its user.
func (s *AccountService) Refresh(ctx context.Context, token, origin, userAgent string) (*LoginResult, error) {
	claims, err := s.Tokens.ValidateRefreshToken(token)
	if err != nil {
		return nil, domain.Unauthorized("invalid or expired refresh token")
	}

	stored, err := s.Storage.GetRefreshToken(ctx, claims.ID)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, domain.Unauthorized("invalid or expired refresh token")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find refresh token: %w", err)
	}

	now := s.Now()
	if stored.IsRevoked {
		s.Log.Warn("revoked refresh token reused, revoking all sessions",
			zap.Int64("user_id", stored.UserID), zap.String("origin", origin))
		if err := s.Storage.RevokeUserRefreshTokens(ctx, stored.UserID); err != nil {
			return nil, fmt.Errorf("failed to revoke sessions: %w", err)
		}
		return nil, domain.Unauthorized("refresh token was already used")
	}
	if stored.IsExpired(now) {
		return nil, domain.Unauthorized("invalid or expired refresh token")
	}

	user, err := s.Storage.GetUserByID(ctx, stored.UserID)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, domain.Unauthorized("account no longer exists")
	}
	if err != nil {
		return nil, err
	}

	if err := s.Storage.RevokeRefreshToken(ctx, stored.Token, now); err != nil {
		return nil, fmt.Errorf("failed to revoke refresh token: %w", err)
	}
	return s.issueSession(ctx, user, strings.TrimSpace(origin), userAgent)
}

// Logout revokes the session of a refresh token. Unknown or invalid tokens
// are ignored.
func (s *AccountService) Logout(ctx context.Context, token string) error {
	claims, err := s.Tokens.ValidateRefreshToken(token)
	if err != nil {
		return nil
	}
	err = s.Storage.RevokeRefreshToken(ctx, claims.ID, s.Now())
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		return fmt.Errorf("failed to revoke refresh token: %w", err)
	}

	s.Log.Info("user logged out", zap.Int64("user_id", claims.UserID))
	return nil
}

func optionalString(v string) *string {
	v = strings.TrimSpace(v)
	if v == "" {
		return nil
	}
	return &v
}
