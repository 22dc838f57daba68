package auth

import (
	"MapHub-Backend/internal/domain"
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"
)

// ChangeUserName renames a user after screening the new name.
func (s *AccountService) ChangeUserName(ctx context.Context, userID int64, name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return domain.Validation("name", "user name is required")
	}

	user, err := s.Storage.GetUserByID(ctx, userID)
	if err != nil {
		return err
	}
	if user.Name == name {
		return nil
	}

	score, err := s.Moderator.ScoreToxicity(ctx, name)
	if err != nil {
		return err
	}
	if score >= s.ToxicityThreshold {
		return domain.ModerationRejected("name", "user name cannot be offensive")
	}

	if other, err := s.Storage.GetUserByName(ctx, name); err == nil && other.ID != userID {
		return domain.Conflict("account with this name already exists")
	} else if err != nil && !errors.Is(err, domain.ErrNotFound) {
		return fmt.Errorf("failed to check name: %w", err)
	}

	user.Name = name
	if err := s.Storage.UpdateUser(ctx, user); err != nil {
		return fmt.Errorf("failed to rename user: %w", err)
	}

	s.Log.Info("user renamed", zap.Int64("user_id", userID))
	return nil
}

// Profile returns the public data of a user.
func (s *AccountService) Profile(ctx context.Context, userID int64) (*domain.Profile, error) {
	user, err := s.Storage.GetUserByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	profile := &domain.Profile{
		ID:          user.ID,
		Name:        user.Name,
		CreatedDate: user.CreatedDate,
	}
	if user.ProfilePicture != nil {
		url, err := s.Blobs.SignedURL(ctx, *user.ProfilePicture, s.URLTTL)
		if err != nil {
			s.Log.Warn("failed to sign profile picture", zap.Int64("user_id", userID), zap.Error(err))
		} else {
			profile.ProfilePicture = url
		}
	}
	return profile, nil
}
