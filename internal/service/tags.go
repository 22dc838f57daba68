package service

import (
	"MapHub-Backend/internal/domain"
	"MapHub-Backend/internal/repository"
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
)

// TagLedger keeps Tag.Quantity equal to the number of maps linked to each tag.
type TagLedger struct {
	storage repository.Storage
	log     *zap.Logger
}

func NewTagLedger(storage repository.Storage, log *zap.Logger) *TagLedger {
	return &TagLedger{storage: storage, log: log}
}

// Reconcile moves the map's tag links from oldNames to newNames inside tx.
// Removals run first. Names present in both lists are left untouched.
func (l *TagLedger) Reconcile(ctx context.Context, tx repository.Storage, mapID int64, oldNames, newNames []string) error {
	keep := make(map[string]struct{}, len(newNames))
	for _, name := range newNames {
		keep[name] = struct{}{}
	}

	for _, name := range oldNames {
		if _, ok := keep[name]; ok {
			continue
		}
		if err := l.detach(ctx, tx, mapID, name); err != nil {
			return err
		}
	}

	seen := make(map[string]struct{}, len(newNames))
	for _, name := range newNames {
		if name == "" {
			continue
		}
		if _, dup := seen[name]; dup {
			continue
		}
		seen[name] = struct{}{}

		if err := l.attach(ctx, tx, mapID, name); err != nil {
			return err
		}
	}

	return nil
}

// DetachAll unlinks every tag of the map, deleting tags nobody references anymore.
func (l *TagLedger) DetachAll(ctx context.Context, tx repository.Storage, mapID int64) error {
	tags, err := tx.ListMapTags(ctx, mapID)
	if err != nil {
		return fmt.Errorf("failed to list map tags: %w", err)
	}
	for _, tag := range tags {
		if err := l.release(ctx, tx, tag, mapID); err != nil {
			return err
		}
	}
	return nil
}

// Popular returns up to limit tag names ordered by usage.
func (l *TagLedger) Popular(ctx context.Context, limit int) ([]string, error) {
	tags, err := l.storage.PopularTags(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get popular tags: %w", err)
	}
	names := make([]string, 0, len(tags))
	for _, t := range tags {
		names = append(names, t.Name)
	}
	return names, nil
}

func (l *TagLedger) attach(ctx context.Context, tx repository.Storage, mapID int64, name string) error {
	tag, err := tx.GetTagByName(ctx, name)
	if errors.Is(err, domain.ErrNotFound) {
		if _, err := tx.CreateTag(ctx, name, mapID); err != nil {
			return fmt.Errorf("failed to create tag %q: %w", name, err)
		}
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to get tag %q: %w", name, err)
	}

	linked, err := tx.IsTagLinked(ctx, tag.ID, mapID)
	if err != nil {
		return fmt.Errorf("failed to check tag link: %w", err)
	}
	if linked {
		return nil
	}

	if _, err := tx.AttachTag(ctx, tag.ID, mapID); err != nil {
		return fmt.Errorf("failed to attach tag %q: %w", name, err)
	}
	return nil
}

func (l *TagLedger) detach(ctx context.Context, tx repository.Storage, mapID int64, name string) error {
	tag, err := tx.GetTagByName(ctx, name)
	if errors.Is(err, domain.ErrNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to get tag %q: %w", name, err)
	}

	linked, err := tx.IsTagLinked(ctx, tag.ID, mapID)
	if err != nil {
		return fmt.Errorf("failed to check tag link: %w", err)
	}
	if !linked {
		return nil
	}

	return l.release(ctx, tx, *tag, mapID)
}

func (l *TagLedger) release(ctx context.Context, tx repository.Storage, tag domain.Tag, mapID int64) error {
	left, err := tx.DetachTag(ctx, tag.ID, mapID)
	if err != nil {
		return fmt.Errorf("failed to detach tag %q: %w", tag.Name, err)
	}
	if !left.Released() {
		return nil
	}

	if err := tx.DeleteTag(ctx, tag.ID); err != nil {
		return fmt.Errorf("failed to delete tag %q: %w", tag.Name, err)
	}
	l.log.Debug("tag released", zap.String("tag", tag.Name), zap.Int64("map_id", mapID))
	return nil
}
