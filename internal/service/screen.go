package service

import (
	"MapHub-Backend/internal/domain"
	"MapHub-Backend/internal/moderation"
	"context"
	"errors"

	"go.uber.org/zap"
)

// screen runs user content through the moderator before anything is stored.
type screen struct {
	moderator moderation.Moderator
	threshold float64
	log       *zap.Logger
}

func (s screen) text(ctx context.Context, field, text string) error {
	score, err := s.moderator.ScoreToxicity(ctx, text)
	if err != nil {
		return err
	}
	if score >= s.threshold {
		s.log.Info("content rejected by moderation", zap.String("field", field), zap.Float64("score", score))
		return domain.ModerationRejected(field, field+" is too toxic and cannot be saved")
	}
	return nil
}

func (s screen) image(ctx context.Context, field string, file *domain.Upload) error {
	if file == nil {
		return nil
	}
	err := s.moderator.CheckImage(ctx, *file)
	if errors.Is(err, moderation.ErrUnsafeImage) {
		s.log.Info("image rejected by moderation", zap.String("field", field), zap.String("filename", file.Filename))
		return domain.ModerationRejected(field, "image contains potentially inappropriate content")
	}
	return err
}
