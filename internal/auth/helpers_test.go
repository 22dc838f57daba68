package auth

import (
	"MapHub-Backend/internal/cache"
	"MapHub-Backend/internal/config"
	"MapHub-Backend/internal/domain"
	"MapHub-Backend/internal/moderation"
	"MapHub-Backend/internal/repository/memory"
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// MockMailer is a mock implementation of mail.Sender
type MockMailer struct {
	mock.Mock
}

func (m *MockMailer) Send(ctx context.Context, to, subject, body string) error {
	args := m.Called(ctx, to, subject, body)
	return args.Error(0)
}

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

// MockMaps is a mock implementation of MapRemover
type MockMaps struct {
	mock.Mock
}

func (m *MockMaps) DeleteOwnedBy(ctx context.Context, userID int64) (domain.CleanupReport, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).(domain.CleanupReport), args.Error(1)
}

// MockLikes is a mock implementation of LikeRemover
type MockLikes struct {
	mock.Mock
}

func (m *MockLikes) UnlikeAll(ctx context.Context, userID int64) error {
	args := m.Called(ctx, userID)
	return args.Error(0)
}

type stubModerator struct {
	scores map[string]float64
}

func (s stubModerator) ScoreToxicity(_ context.Context, text string) (float64, error) {
	return s.scores[text], nil
}

func (s stubModerator) CheckImage(_ context.Context, file domain.Upload) error {
	if file.Filename == "unsafe.png" {
		return moderation.ErrUnsafeImage
	}
	return nil
}

func testLoginConfig() *config.Login {
	return &config.Login{
		MaxAttempts:     5,
		AttemptWindow:   time.Minute,
		BlockDuration:   time.Minute,
		ResendCooldown:  5 * time.Minute,
		VerificationTTL: 24 * time.Hour,
		ResetTTL:        24 * time.Hour,
	}
}

type accountFixture struct {
	clock    *fakeClock
	store    *memory.MemStorage
	cache    *cache.Memory
	mailer   *MockMailer
	blobs    *MockBlobs
	maps     *MockMaps
	likes    *MockLikes
	tokens   *JWTService
	accounts *AccountService
}

func newAccountFixture(t *testing.T) *accountFixture {
	t.Helper()

	clock := &fakeClock{now: time.Date(2026, time.March, 10, 12, 0, 0, 0, time.UTC)}
	log := zap.NewNop()
	f := &accountFixture{
		clock:  clock,
		store:  memory.New(),
		cache:  cache.NewMemory(clock.Now),
		mailer: &MockMailer{},
		blobs:  &MockBlobs{},
		maps:   &MockMaps{},
		likes:  &MockLikes{},
		tokens: newTestJWT(clock),
	}
	t.Cleanup(func() {
		f.mailer.AssertExpectations(t)
		f.blobs.AssertExpectations(t)
		f.maps.AssertExpectations(t)
		f.likes.AssertExpectations(t)
	})

	loginCfg := testLoginConfig()
	f.accounts = NewAccountService(AccountDeps{
		Storage:           f.store,
		Passwords:         NewPasswordServiceWithCost(bcrypt.MinCost),
		Tokens:            f.tokens,
		Throttle:          NewThrottle(f.cache, loginCfg, log),
		Cache:             f.cache,
		Mailer:            f.mailer,
		Moderator:         stubModerator{scores: map[string]float64{"idiot": 0.8}},
		Blobs:             f.blobs,
		Maps:              f.maps,
		Likes:             f.likes,
		Limits:            loginCfg,
		URLTTL:            time.Hour,
		ToxicityThreshold: 0.10,
		SiteURL:           "http://localhost:3000",
		Log:               log,
		Now:               clock.Now,
	})
	return f
}

// register creates an account and returns it as stored.
func (f *accountFixture) register(t *testing.T, name, email, password string) *domain.User {
	t.Helper()
	ctx := context.Background()

	f.mailer.On("Send", mock.Anything, email, mock.Anything, mock.Anything).Return(nil).Once()
	u, err := f.accounts.Register(ctx, RegisterInput{Name: name, Email: email, Password: password})
	if err != nil {
		t.Fatalf("register %s: %v", email, err)
	}
	stored, err := f.store.GetUserByID(ctx, u.ID)
	if err != nil {
		t.Fatalf("load %s: %v", email, err)
	}
	return stored
}

// verified registers and verifies an account.
func (f *accountFixture) verified(t *testing.T, name, email, password string) *domain.User {
	t.Helper()
	u := f.register(t, name, email, password)
	if err := f.accounts.Verify(context.Background(), *u.VerificationToken); err != nil {
		t.Fatalf("verify %s: %v", email, err)
	}
	return u
}
