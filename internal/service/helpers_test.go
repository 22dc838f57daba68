package service

import (
	"MapHub-Backend/internal/cleanup"
	"MapHub-Backend/internal/config"
	"MapHub-Backend/internal/domain"
	"MapHub-Backend/internal/moderation"
	"MapHub-Backend/internal/repository/memory"
	"context"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// MockBlobs is a mock implementation of blob.Store
type MockBlobs struct {
	mock.Mock
}

func (m *MockBlobs) Upload(ctx context.Context, file domain.Upload) (string, error) {
	args := m.Called(ctx, file)
	return args.String(0), args.Error(1)
}

func (m *MockBlobs) Delete(ctx context.Context, ref string) error {
	args := m.Called(ctx, ref)
	return args.Error(0)
}

func (m *MockBlobs) SignedURL(ctx context.Context, ref string, ttl time.Duration) (string, error) {
	args := m.Called(ctx, ref, ttl)
	return args.String(0), args.Error(1)
}

// MockReleases is a mock implementation of ReleaseQueue
type MockReleases struct {
	mock.Mock
}

func (m *MockReleases) Submit(job cleanup.Job) error {
	args := m.Called(job)
	return args.Error(0)
}

// stubModerator scores listed texts and rejects listed image names.
type stubModerator struct {
	scores map[string]float64
	unsafe map[string]bool
}

func (s *stubModerator) ScoreToxicity(_ context.Context, text string) (float64, error) {
	return s.scores[text], nil
}

func (s *stubModerator) CheckImage(_ context.Context, file domain.Upload) error {
	if s.unsafe[file.Filename] {
		return moderation.ErrUnsafeImage
	}
	return nil
}

var testNow = time.Date(2026, time.March, 10, 12, 0, 0, 0, time.UTC)

type fixture struct {
	store     *memory.MemStorage
	blobs     *MockBlobs
	releases  *MockReleases
	moderator *stubModerator
	tags      *TagLedger
	countries *CountryLedger
	likes     *LikeLedger
	maps      *MapService
	places    *PlaceService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	f := &fixture{
		store:     memory.New(),
		blobs:     &MockBlobs{},
		releases:  &MockReleases{},
		moderator: &stubModerator{scores: map[string]float64{}, unsafe: map[string]bool{}},
	}
	t.Cleanup(func() {
		f.blobs.AssertExpectations(t)
		f.releases.AssertExpectations(t)
	})

	log := zap.NewNop()
	cfg := &config.Maps{
		DailyQuota:        5,
		ToxicityThreshold: 0.10,
		SearchPageSize:    10,
		ListPageSize:      20,
		PopularTags:       50,
	}
	deps := Deps{
		Storage:   f.store,
		Blobs:     f.blobs,
		Moderator: f.moderator,
		Releases:  f.releases,
		Log:       log,
		Now:       func() time.Time { return testNow },
		URLTTL:    time.Hour,
	}

	f.tags = NewTagLedger(f.store, log)
	f.countries = NewCountryLedger(f.store, log)
	f.likes = NewLikeLedger(f.store, log)
	f.maps = NewMapService(deps, f.tags, f.countries, cfg)
	f.places = NewPlaceService(deps, f.countries, cfg)
	return f
}

func (f *fixture) user(t *testing.T, name string) *domain.User {
	t.Helper()
	u := &domain.User{Name: name, Email: name + "@example.com", CreatedDate: domain.FormatDate(testNow)}
	require.NoError(t, f.store.CreateUser(context.Background(), u))
	return u
}

// savedMap creates a map for owner and saves it with the given tags.
func (f *fixture) savedMap(t *testing.T, owner *domain.User, name string, tags ...string) int64 {
	t.Helper()
	ctx := context.Background()

	id, err := f.maps.Create(ctx, owner.ID)
	require.NoError(t, err)
	require.NoError(t, f.maps.Save(ctx, SaveMapInput{
		MapID:       id,
		Name:        name,
		Description: name + " description",
		Tags:        tags,
		Published:   true,
	}))
	return id
}

func (f *fixture) tagQuantity(t *testing.T, name string) (domain.RefCount, bool) {
	t.Helper()
	tag, err := f.store.GetTagByName(context.Background(), name)
	if err != nil {
		require.ErrorIs(t, err, domain.ErrNotFound)
		return 0, false
	}
	return tag.Quantity, true
}

func itoa(id int64) string {
	return strconv.FormatInt(id, 10)
}
