package service

import (
	"MapHub-Backend/internal/domain"
	"MapHub-Backend/internal/repository"
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"
)

// CountryLedger keeps MapCountry.ConnectionCount equal to the number of
// attributions of a country on a map.
type CountryLedger struct {
	storage repository.Storage
	log     *zap.Logger
}

func NewCountryLedger(storage repository.Storage, log *zap.Logger) *CountryLedger {
	return &CountryLedger{storage: storage, log: log}
}

// AddMapCountry attributes a country to a map explicitly.
func (l *CountryLedger) AddMapCountry(ctx context.Context, mapID int64, name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return domain.Validation("country", "country is required")
	}

	return l.storage.WithinTx(ctx, func(tx repository.Storage) error {
		if _, err := tx.GetMap(ctx, mapID); err != nil {
			return err
		}
		return l.Attach(ctx, tx, mapID, name)
	})
}

// Attach creates the country if needed and bumps the map's attribution count.
func (l *CountryLedger) Attach(ctx context.Context, tx repository.Storage, mapID int64, name string) error {
	country, err := tx.GetCountryByName(ctx, name)
	if errors.Is(err, domain.ErrNotFound) {
		country, err = tx.CreateCountry(ctx, name)
	}
	if err != nil {
		return fmt.Errorf("failed to resolve country %q: %w", name, err)
	}

	_, err = tx.GetMapCountry(ctx, mapID, country.ID)
	switch {
	case errors.Is(err, domain.ErrNotFound):
		if err := tx.CreateMapCountry(ctx, mapID, country.ID); err != nil {
			return fmt.Errorf("failed to link country %q: %w", name, err)
		}
	case err != nil:
		return fmt.Errorf("failed to get map country: %w", err)
	default:
		if _, err := tx.AttachMapCountry(ctx, mapID, country.ID); err != nil {
			return fmt.Errorf("failed to attach country %q: %w", name, err)
		}
	}

	return nil
}

// Detach drops one attribution of the country, removing the join at zero.
// A missing country or join is not an error.
func (l *CountryLedger) Detach(ctx context.Context, tx repository.Storage, mapID int64, name string) error {
	country, err := tx.GetCountryByName(ctx, name)
	if errors.Is(err, domain.ErrNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to get country %q: %w", name, err)
	}

	left, err := tx.DetachMapCountry(ctx, mapID, country.ID)
	if errors.Is(err, domain.ErrNotFound) {
		l.log.Warn("country join missing on detach", zap.Int64("map_id", mapID), zap.String("country", name))
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to detach country %q: %w", name, err)
	}
	if !left.Released() {
		return nil
	}

	if err := tx.DeleteMapCountry(ctx, mapID, country.ID); err != nil {
		return fmt.Errorf("failed to delete map country: %w", err)
	}
	return nil
}

// DetachAll removes every country join of the map regardless of its count.
func (l *CountryLedger) DetachAll(ctx context.Context, tx repository.Storage, mapID int64) error {
	if err := tx.DeleteMapCountries(ctx, mapID); err != nil {
		return fmt.Errorf("failed to delete map countries: %w", err)
	}
	return nil
}

// Countries lists every known country name.
func (l *CountryLedger) Countries(ctx context.Context) ([]string, error) {
	names, err := l.storage.ListCountryNames(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list countries: %w", err)
	}
	return names, nil
}
