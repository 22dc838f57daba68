// Package moderation scores user text for toxicity and screens uploaded images.
package moderation

import (
	"MapHub-Backend/internal/domain"
	"context"
	"errors"
)

// ErrUnsafeImage is returned by CheckImage for adult, violent or racy images.
var ErrUnsafeImage = errors.New("image contains potentially inappropriate content")

// Moderator is the content moderation contract.
type Moderator interface {
	// ScoreToxicity returns a score in [0,1]. Blank text scores 0.
	ScoreToxicity(ctx context.Context, text string) (float64, error)
	// CheckImage returns ErrUnsafeImage when the image is rejected.
	CheckImage(ctx context.Context, file domain.Upload) error
}

// Disabled accepts everything. It is used when no API keys are configured.
type Disabled struct{}

func (Disabled) ScoreToxicity(context.Context, string) (float64, error) { return 0, nil }

func (Disabled) CheckImage(context.Context, domain.Upload) error { return nil }
