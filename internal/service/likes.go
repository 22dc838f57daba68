package service

import (
	"MapHub-Backend/internal/domain"
	"MapHub-Backend/internal/metrics"
	"MapHub-Backend/internal/repository"
	"context"
	"fmt"

	"go.uber.org/zap"
)

// LikeLedger owns the user/map like relation and the map's like counter.
// The row and the counter always change in the same transaction.
type LikeLedger struct {
	storage repository.Storage
	log     *zap.Logger
}

func NewLikeLedger(storage repository.Storage, log *zap.Logger) *LikeLedger {
	return &LikeLedger{storage: storage, log: log}
}

// Like records a like and returns the new counter value.
func (l *LikeLedger) Like(ctx context.Context, mapID, userID int64) (count domain.RefCount, err error) {
	defer func() { metrics.MapOperationsTotal.WithLabelValues("like", metrics.Outcome(err)).Inc() }()

	err = l.storage.WithinTx(ctx, func(tx repository.Storage) error {
		if _, err := tx.GetMap(ctx, mapID); err != nil {
			return err
		}

		exists, err := tx.HasLike(ctx, userID, mapID)
		if err != nil {
			return fmt.Errorf("failed to check like: %w", err)
		}
		if exists {
			return domain.Conflict("map is already liked")
		}

		if err := tx.CreateLike(ctx, userID, mapID); err != nil {
			return fmt.Errorf("failed to create like: %w", err)
		}
		count, err = tx.IncrementMapLikes(ctx, mapID)
		if err != nil {
			return fmt.Errorf("failed to increment likes: %w", err)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	l.log.Debug("map liked", zap.Int64("map_id", mapID), zap.Int64("user_id", userID))
	return count, nil
}

// Unlike removes a like and returns the new counter value.
func (l *LikeLedger) Unlike(ctx context.Context, mapID, userID int64) (count domain.RefCount, err error) {
	defer func() { metrics.MapOperationsTotal.WithLabelValues("unlike", metrics.Outcome(err)).Inc() }()

	err = l.storage.WithinTx(ctx, func(tx repository.Storage) error {
		exists, err := tx.HasLike(ctx, userID, mapID)
		if err != nil {
			return fmt.Errorf("failed to check like: %w", err)
		}
		if !exists {
			return domain.NotFound("like not found")
		}

		if err := tx.DeleteLike(ctx, userID, mapID); err != nil {
			return fmt.Errorf("failed to delete like: %w", err)
		}
		count, err = tx.DecrementMapLikes(ctx, mapID)
		if err != nil {
			return fmt.Errorf("failed to decrement likes: %w", err)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	l.log.Debug("map unliked", zap.Int64("map_id", mapID), zap.Int64("user_id", userID))
	return count, nil
}

func (l *LikeLedger) HasLiked(ctx context.Context, mapID, userID int64) (bool, error) {
	liked, err := l.storage.HasLike(ctx, userID, mapID)
	if err != nil {
		return false, fmt.Errorf("failed to check like: %w", err)
	}
	return liked, nil
}

// UnlikeAll removes every like the user has given.
func (l *LikeLedger) UnlikeAll(ctx context.Context, userID int64) error {
	ids, err := l.storage.ListLikedMapIDs(ctx, userID)
	if err != nil {
		return fmt.Errorf("failed to list liked maps: %w", err)
	}
	for _, mapID := range ids {
		if _, err := l.Unlike(ctx, mapID, userID); err != nil {
			return err
		}
	}
	return nil
}
