package service

import (
	"MapHub-Backend/internal/config"
	"MapHub-Backend/internal/domain"
	"MapHub-Backend/internal/metrics"
	"MapHub-Backend/internal/repository"
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"
)

// SaveMapInput is the full editable state of a map.
type SaveMapInput struct {
	MapID       int64
	Name        string
	Description string
	Tags        []string
	Published   bool
	// Thumbnail replaces the stored one when set.
	Thumbnail *domain.Upload
}

// MapService manages the map lifecycle: creation quota, moderated saves,
// publishing and cascading deletion.
type MapService struct {
	deps      Deps
	tags      *TagLedger
	countries *CountryLedger
	screen    screen
	cfg       *config.Maps
}

func NewMapService(deps Deps, tags *TagLedger, countries *CountryLedger, cfg *config.Maps) *MapService {
	return &MapService{
		deps:      deps,
		tags:      tags,
		countries: countries,
		screen:    screen{moderator: deps.Moderator, threshold: cfg.ToxicityThreshold, log: deps.Log},
		cfg:       cfg,
	}
}

// Create inserts an empty map for ownerID unless the owner already created
// DailyQuota maps today. The count runs under the owner's row lock.
func (s *MapService) Create(ctx context.Context, ownerID int64) (id int64, err error) {
	defer func() { metrics.MapOperationsTotal.WithLabelValues("create", metrics.Outcome(err)).Inc() }()

	today := s.deps.today()
	err = s.deps.Storage.WithinTx(ctx, func(tx repository.Storage) error {
		if err := tx.LockUser(ctx, ownerID); err != nil {
			return err
		}

		n, err := tx.CountMapsCreatedOn(ctx, ownerID, today)
		if err != nil {
			return fmt.Errorf("failed to count maps: %w", err)
		}
		if n >= int64(s.cfg.DailyQuota) {
			return domain.Conflict(fmt.Sprintf("you can create at most %d maps per day", s.cfg.DailyQuota))
		}

		m := &domain.Map{CreatorID: ownerID, CreationDate: today}
		if err := tx.CreateMap(ctx, m); err != nil {
			return fmt.Errorf("failed to create map: %w", err)
		}
		id = m.ID
		return nil
	})
	if err != nil {
		return 0, err
	}

	s.deps.Log.Info("map created", zap.Int64("map_id", id), zap.Int64("owner_id", ownerID))
	return id, nil
}

// Save moderates and stores the map's editable fields. A rejected or
// invalid save leaves the map unchanged.
func (s *MapService) Save(ctx context.Context, in SaveMapInput) (err error) {
	defer func() { metrics.MapOperationsTotal.WithLabelValues("save", metrics.Outcome(err)).Inc() }()

	tags := normalizeTags(in.Tags)

	if err := s.screen.text(ctx, "name", in.Name); err != nil {
		return err
	}
	if err := s.screen.text(ctx, "description", in.Description); err != nil {
		return err
	}
	for _, tag := range tags {
		if err := s.screen.text(ctx, "tags", tag); err != nil {
			return err
		}
	}
	if err := s.screen.image(ctx, "thumbnail", in.Thumbnail); err != nil {
		return err
	}

	name := strings.TrimSpace(in.Name)
	description := strings.TrimSpace(in.Description)
	if name == "" {
		return domain.Validation("name", "map name is required")
	}
	if description == "" {
		return domain.Validation("description", "map description is required")
	}

	current, err := s.deps.Storage.GetMap(ctx, in.MapID)
	if err != nil {
		return err
	}

	// Re-sending the stored picture keeps the existing blob.
	thumbnail := in.Thumbnail
	var digest string
	if thumbnail != nil {
		digest = thumbnail.Digest()
		if current.Thumbnail != nil && current.ThumbnailDigest != nil && *current.ThumbnailDigest == digest {
			thumbnail = nil
		}
	}

	newThumb, err := s.deps.upload(ctx, thumbnail)
	if err != nil {
		return fmt.Errorf("failed to upload thumbnail: %w", err)
	}

	var oldThumb *string
	err = s.deps.Storage.WithinTx(ctx, func(tx repository.Storage) error {
		m, err := tx.GetMap(ctx, in.MapID)
		if err != nil {
			return err
		}

		if err := s.tags.Reconcile(ctx, tx, m.ID, m.TagNames(), tags); err != nil {
			return err
		}

		if in.Published && !m.Uploaded {
			today := s.deps.today()
			m.PublicationDate = &today
		}
		m.Name = &name
		m.Description = &description
		m.Uploaded = in.Published
		if newThumb != nil {
			oldThumb = m.Thumbnail
			m.Thumbnail = newThumb
			m.ThumbnailDigest = &digest
		}

		if err := tx.UpdateMap(ctx, m); err != nil {
			return fmt.Errorf("failed to update map: %w", err)
		}
		return nil
	})
	if err != nil {
		s.deps.release(ctx, "map_save_rollback", newThumb)
		return err
	}

	s.deps.release(ctx, "map_thumbnail", oldThumb)
	s.deps.Log.Info("map saved", zap.Int64("map_id", in.MapID), zap.Bool("published", in.Published), zap.Int("tags", len(tags)))
	return nil
}

func (s *MapService) Publish(ctx context.Context, mapID int64) (err error) {
	defer func() { metrics.MapOperationsTotal.WithLabelValues("publish", metrics.Outcome(err)).Inc() }()
	return s.deps.Storage.SetMapUploaded(ctx, mapID, true)
}

func (s *MapService) MoveToDraft(ctx context.Context, mapID int64) (err error) {
	defer func() { metrics.MapOperationsTotal.WithLabelValues("draft", metrics.Outcome(err)).Inc() }()
	return s.deps.Storage.SetMapUploaded(ctx, mapID, false)
}

// Delete removes the map and every dependent row in one transaction, then
// releases its blobs. Release failures are reported, never rolled back.
func (s *MapService) Delete(ctx context.Context, mapID int64) (report domain.CleanupReport, err error) {
	defer func() { metrics.MapOperationsTotal.WithLabelValues("delete", metrics.Outcome(err)).Inc() }()

	var refs []*string
	err = s.deps.Storage.WithinTx(ctx, func(tx repository.Storage) error {
		var err error
		refs, err = s.deleteRows(ctx, tx, mapID)
		return err
	})
	if err != nil {
		return report, err
	}

	report = s.deps.release(ctx, fmt.Sprintf("map:%d", mapID), refs...)
	s.deps.Log.Info("map deleted",
		zap.Int64("map_id", mapID),
		zap.Int("blobs", len(refs)),
		zap.Int("release_failures", len(report.Failures)),
	)
	return report, nil
}

func (s *MapService) deleteRows(ctx context.Context, tx repository.Storage, mapID int64) ([]*string, error) {
	m, err := tx.GetMapWithDetails(ctx, mapID)
	if err != nil {
		return nil, err
	}

	refs := []*string{m.Thumbnail}
	for i := range m.Places {
		refs = append(refs, m.Places[i].Photo)
	}

	if err := tx.DeletePlacesByMap(ctx, mapID); err != nil {
		return nil, fmt.Errorf("failed to delete places: %w", err)
	}
	if err := s.tags.DetachAll(ctx, tx, mapID); err != nil {
		return nil, err
	}
	if err := s.countries.DetachAll(ctx, tx, mapID); err != nil {
		return nil, err
	}
	if err := tx.DeleteLikesByMap(ctx, mapID); err != nil {
		return nil, fmt.Errorf("failed to delete likes: %w", err)
	}
	if err := tx.DetachMapFromCreator(ctx, m.CreatorID, mapID); err != nil {
		return nil, fmt.Errorf("failed to detach map from creator: %w", err)
	}
	if err := tx.DeleteMap(ctx, mapID); err != nil {
		return nil, fmt.Errorf("failed to delete map: %w", err)
	}

	return refs, nil
}

// DeleteOwnedBy deletes every map of the user and merges the cleanup reports.
func (s *MapService) DeleteOwnedBy(ctx context.Context, userID int64) (domain.CleanupReport, error) {
	var report domain.CleanupReport

	ids, err := s.deps.Storage.ListUserMapIDs(ctx, userID)
	if err != nil {
		return report, fmt.Errorf("failed to list user maps: %w", err)
	}
	for _, id := range ids {
		r, err := s.Delete(ctx, id)
		if err != nil {
			return report, err
		}
		report.Failures = append(report.Failures, r.Failures...)
	}
	return report, nil
}

// EnsureOwner fails with a forbidden error unless userID created the map.
func (s *MapService) EnsureOwner(ctx context.Context, mapID, userID int64) error {
	m, err := s.deps.Storage.GetMap(ctx, mapID)
	if err != nil {
		return err
	}
	if m.CreatorID != userID {
		return domain.Forbidden("map belongs to another user")
	}
	return nil
}

// GetDetails returns the full read model of a map.
func (s *MapService) GetDetails(ctx context.Context, mapID int64) (*domain.MapDetails, error) {
	m, err := s.deps.Storage.GetMap(ctx, mapID)
	if err != nil {
		return nil, err
	}
	creator, err := s.deps.Storage.GetUserByID(ctx, m.CreatorID)
	if err != nil {
		return nil, fmt.Errorf("failed to get map creator: %w", err)
	}

	return &domain.MapDetails{
		ID:              m.ID,
		Name:            deref(m.Name),
		Description:     deref(m.Description),
		Uploaded:        m.Uploaded,
		Tags:            m.TagNames(),
		Countries:       m.CountryNames(),
		PublicationDate: deref(m.PublicationDate),
		Likes:           int(m.Likes),
		PlacesQuantity:  m.PlacesQuantity,
		ThumbnailURL:    s.deps.sign(ctx, m.Thumbnail),
		CreatorID:       creator.ID,
		CreatorName:     creator.Name,
		CreatorPicture:  s.deps.sign(ctx, creator.ProfilePicture),
	}, nil
}

// Search lists published maps matching the filter.
func (s *MapService) Search(ctx context.Context, filter domain.MapFilter, pageNumber int) ([]domain.MapCard, error) {
	maps, err := s.deps.Storage.ListPublishedMaps(ctx, filter, s.page(pageNumber, s.cfg.SearchPageSize))
	if err != nil {
		return nil, fmt.Errorf("failed to search maps: %w", err)
	}

	cards := make([]domain.MapCard, 0, len(maps))
	for i := range maps {
		m := &maps[i]
		card := domain.MapCard{
			ID:           m.ID,
			Name:         deref(m.Name),
			Description:  deref(m.Description),
			Likes:        int(m.Likes),
			Tags:         m.TagNames(),
			ThumbnailURL: s.deps.sign(ctx, m.Thumbnail),
			CreatorID:    m.CreatorID,
		}
		if m.Creator != nil {
			card.CreatorName = m.Creator.Name
			card.CreatorPicture = s.deps.sign(ctx, m.Creator.ProfilePicture)
		}
		cards = append(cards, card)
	}
	return cards, nil
}

// UserMaps lists the user's published or draft maps.
func (s *MapService) UserMaps(ctx context.Context, userID int64, published bool, pageNumber int) ([]domain.MapSummary, error) {
	maps, err := s.deps.Storage.ListUserMaps(ctx, userID, published, s.page(pageNumber, s.cfg.ListPageSize))
	if err != nil {
		return nil, fmt.Errorf("failed to list user maps: %w", err)
	}
	return s.summaries(ctx, maps), nil
}

// PublishedBy lists another user's published maps. Drafts are never shown.
func (s *MapService) PublishedBy(ctx context.Context, userID int64, pageNumber int) ([]domain.MapSummary, error) {
	if _, err := s.deps.Storage.GetUserByID(ctx, userID); err != nil {
		return nil, err
	}
	return s.UserMaps(ctx, userID, true, pageNumber)
}

// LikedMaps lists published maps the user liked.
func (s *MapService) LikedMaps(ctx context.Context, userID int64, pageNumber int) ([]domain.MapSummary, error) {
	maps, err := s.deps.Storage.ListLikedMaps(ctx, userID, s.page(pageNumber, s.cfg.ListPageSize))
	if err != nil {
		return nil, fmt.Errorf("failed to list liked maps: %w", err)
	}
	return s.summaries(ctx, maps), nil
}

func (s *MapService) PopularTags(ctx context.Context) ([]string, error) {
	return s.tags.Popular(ctx, s.cfg.PopularTags)
}

func (s *MapService) Countries(ctx context.Context) ([]string, error) {
	return s.countries.Countries(ctx)
}

func (s *MapService) AddCountry(ctx context.Context, mapID int64, name string) error {
	return s.countries.AddMapCountry(ctx, mapID, name)
}

func (s *MapService) summaries(ctx context.Context, maps []domain.Map) []domain.MapSummary {
	out := make([]domain.MapSummary, 0, len(maps))
	for i := range maps {
		m := &maps[i]
		out = append(out, domain.MapSummary{
			ID:             m.ID,
			Name:           deref(m.Name),
			Description:    deref(m.Description),
			Uploaded:       m.Uploaded,
			Likes:          int(m.Likes),
			PlacesQuantity: m.PlacesQuantity,
			ThumbnailURL:   s.deps.sign(ctx, m.Thumbnail),
		})
	}
	return out
}

func (s *MapService) page(number, size int) domain.Page {
	if number < 1 {
		number = 1
	}
	return domain.Page{Number: number, Size: size}
}

// normalizeTags trims names and drops blanks and repeats, keeping order.
func normalizeTags(names []string) []string {
	out := make([]string, 0, len(names))
	seen := make(map[string]struct{}, len(names))
	for _, name := range names {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		if _, ok := seen[name]; ok {
			continue
		}
		seen[name] = struct{}{}
		out = append(out, name)
	}
	return out
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
