package service

import (
	"MapHub-Backend/internal/config"
	"MapHub-Backend/internal/domain"
	"MapHub-Backend/internal/repository"
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"
)

// AddPlaceInput describes a new marker or circle.
type AddPlaceInput struct {
	MapID       int64
	Type        string
	X, Y        float64
	Radius      float64
	Name        string
	Description string
	Color       string
	// Country attributes the place to a country when set.
	Country string
}

// UpdatePlaceInput replaces the descriptive fields of a place.
type UpdatePlaceInput struct {
	PlaceID     int64
	Name        string
	Description string
	Photo       *domain.Upload
	RemovePhoto bool
}

// PlaceService manages places and keeps the map's place and country counters in step.
type PlaceService struct {
	deps      Deps
	countries *CountryLedger
	screen    screen
}

func NewPlaceService(deps Deps, countries *CountryLedger, cfg *config.Maps) *PlaceService {
	return &PlaceService{
		deps:      deps,
		countries: countries,
		screen:    screen{moderator: deps.Moderator, threshold: cfg.ToxicityThreshold, log: deps.Log},
	}
}

// AddPlace creates a place on the map and returns its id.
func (s *PlaceService) AddPlace(ctx context.Context, in AddPlaceInput) (int64, error) {
	switch in.Type {
	case domain.PlaceTypeMarker:
	case domain.PlaceTypeCircle:
		if in.Radius <= 0 {
			return 0, domain.Validation("radius", "circle radius must be positive")
		}
	default:
		return 0, domain.Validation("type", "place type must be marker or circle")
	}

	if err := s.screen.text(ctx, "name", in.Name); err != nil {
		return 0, err
	}
	if err := s.screen.text(ctx, "description", in.Description); err != nil {
		return 0, err
	}

	place := &domain.Place{
		MapID:       in.MapID,
		Type:        in.Type,
		X:           in.X,
		Y:           in.Y,
		Radius:      in.Radius,
		Name:        optional(in.Name),
		Description: optional(in.Description),
		Color:       optional(in.Color),
		Country:     optional(in.Country),
	}

	err := s.deps.Storage.WithinTx(ctx, func(tx repository.Storage) error {
		if _, err := tx.GetMap(ctx, in.MapID); err != nil {
			return err
		}
		if place.Country != nil {
			if err := s.countries.Attach(ctx, tx, in.MapID, *place.Country); err != nil {
				return err
			}
		}
		if err := tx.CreatePlace(ctx, place); err != nil {
			return fmt.Errorf("failed to create place: %w", err)
		}
		if err := tx.AdjustMapPlaces(ctx, in.MapID, 1); err != nil {
			return fmt.Errorf("failed to update places quantity: %w", err)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	s.deps.Log.Debug("place added", zap.Int64("place_id", place.ID), zap.Int64("map_id", in.MapID), zap.String("type", in.Type))
	return place.ID, nil
}

// UpdateInfo stores a moderated name and description and optionally
// replaces or removes the photo. The old photo is released after commit.
func (s *PlaceService) UpdateInfo(ctx context.Context, in UpdatePlaceInput) error {
	name := strings.TrimSpace(in.Name)
	description := strings.TrimSpace(in.Description)
	if name == "" {
		return domain.Validation("name", "place name is required")
	}
	if description == "" {
		return domain.Validation("description", "place description is required")
	}

	if err := s.screen.text(ctx, "name", name); err != nil {
		return err
	}
	if err := s.screen.text(ctx, "description", description); err != nil {
		return err
	}
	if err := s.screen.image(ctx, "photo", in.Photo); err != nil {
		return err
	}

	if _, err := s.deps.Storage.GetPlace(ctx, in.PlaceID); err != nil {
		return err
	}

	newPhoto, err := s.deps.upload(ctx, in.Photo)
	if err != nil {
		return fmt.Errorf("failed to upload photo: %w", err)
	}

	var oldPhoto *string
	err = s.deps.Storage.WithinTx(ctx, func(tx repository.Storage) error {
		p, err := tx.GetPlace(ctx, in.PlaceID)
		if err != nil {
			return err
		}
		p.Name = &name
		p.Description = &description
		if newPhoto != nil || in.RemovePhoto {
			oldPhoto = p.Photo
			p.Photo = newPhoto
		}
		if err := tx.UpdatePlace(ctx, p); err != nil {
			return fmt.Errorf("failed to update place: %w", err)
		}
		return nil
	})
	if err != nil {
		s.deps.release(ctx, "place_update_rollback", newPhoto)
		return err
	}

	s.deps.release(ctx, "place_photo", oldPhoto)
	return nil
}

// Remove deletes the place, drops its country attribution and releases its photo.
func (s *PlaceService) Remove(ctx context.Context, placeID int64) (domain.CleanupReport, error) {
	var photo *string
	err := s.deps.Storage.WithinTx(ctx, func(tx repository.Storage) error {
		p, err := tx.GetPlace(ctx, placeID)
		if err != nil {
			return err
		}
		photo = p.Photo

		if p.Country != nil {
			if err := s.countries.Detach(ctx, tx, p.MapID, *p.Country); err != nil {
				return err
			}
		}
		if err := tx.DeletePlace(ctx, placeID); err != nil {
			return fmt.Errorf("failed to delete place: %w", err)
		}
		if err := tx.AdjustMapPlaces(ctx, p.MapID, -1); err != nil {
			return fmt.Errorf("failed to update places quantity: %w", err)
		}
		return nil
	})
	if err != nil {
		return domain.CleanupReport{}, err
	}

	return s.deps.release(ctx, fmt.Sprintf("place:%d", placeID), photo), nil
}

// MapIDOf returns the map a place belongs to.
func (s *PlaceService) MapIDOf(ctx context.Context, placeID int64) (int64, error) {
	p, err := s.deps.Storage.GetPlace(ctx, placeID)
	if err != nil {
		return 0, err
	}
	return p.MapID, nil
}

func (s *PlaceService) Markers(ctx context.Context, mapID int64) ([]domain.Marker, error) {
	places, err := s.list(ctx, mapID)
	if err != nil {
		return nil, err
	}

	markers := make([]domain.Marker, 0, len(places))
	for i := range places {
		p := &places[i]
		if p.Type != domain.PlaceTypeMarker {
			continue
		}
		markers = append(markers, domain.Marker{
			ID:          p.ID,
			X:           p.X,
			Y:           p.Y,
			Name:        deref(p.Name),
			Description: deref(p.Description),
			Color:       deref(p.Color),
			Country:     deref(p.Country),
			PhotoURL:    s.deps.sign(ctx, p.Photo),
		})
	}
	return markers, nil
}

func (s *PlaceService) Circles(ctx context.Context, mapID int64) ([]domain.Circle, error) {
	places, err := s.list(ctx, mapID)
	if err != nil {
		return nil, err
	}

	circles := make([]domain.Circle, 0, len(places))
	for _, p := range places {
		if p.Type != domain.PlaceTypeCircle {
			continue
		}
		circles = append(circles, domain.Circle{
			ID:          p.ID,
			X:           p.X,
			Y:           p.Y,
			Radius:      p.Radius,
			Name:        deref(p.Name),
			Description: deref(p.Description),
			Color:       deref(p.Color),
		})
	}
	return circles, nil
}

func (s *PlaceService) list(ctx context.Context, mapID int64) ([]domain.Place, error) {
	if _, err := s.deps.Storage.GetMap(ctx, mapID); err != nil {
		return nil, err
	}
	places, err := s.deps.Storage.ListPlaces(ctx, mapID)
	if err != nil {
		return nil, fmt.Errorf("failed to list places: %w", err)
	}
	return places, nil
}

func optional(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}
