package http

import (
	"MapHub-Backend/internal/auth"
	"MapHub-Backend/internal/blob"
	"MapHub-Backend/internal/cache"
	"MapHub-Backend/internal/config"
	"MapHub-Backend/internal/handler/response"
	"MapHub-Backend/internal/mail"
	"MapHub-Backend/internal/moderation"
	"MapHub-Backend/internal/repository/memory"
	"MapHub-Backend/internal/service"
	"bytes"
	"context"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

type testServer struct {
	store   *memory.MemStorage
	handler http.Handler
}

func newTestServer(t *testing.T, ping Pinger) *testServer {
	t.Helper()

	log := zap.NewNop()
	store := memory.New()
	blobs, err := blob.NewLocalStore(t.TempDir(), "http://example.com/media", "blob-secret", log)
	require.NoError(t, err)

	mapsCfg := &config.Maps{DailyQuota: 5, ToxicityThreshold: 0.10, SearchPageSize: 10, ListPageSize: 20, PopularTags: 50}
	loginCfg := &config.Login{
		MaxAttempts:     5,
		AttemptWindow:   time.Minute,
		BlockDuration:   time.Minute,
		ResendCooldown:  5 * time.Minute,
		VerificationTTL: 24 * time.Hour,
		ResetTTL:        24 * time.Hour,
	}
	httpCfg := &config.HTTPServer{AllowedOrigins: []string{"http://localhost:3000"}, MaxUploadBytes: 1 << 20}

	deps := service.Deps{Storage: store, Blobs: blobs, Moderator: moderation.Disabled{}, Log: log, URLTTL: time.Hour}
	tags := service.NewTagLedger(store, log)
	countries := service.NewCountryLedger(store, log)
	likes := service.NewLikeLedger(store, log)
	maps := service.NewMapService(deps, tags, countries, mapsCfg)
	places := service.NewPlaceService(deps, countries, mapsCfg)

	tokens := auth.NewJWTService(&config.JWT{Secret: "test-secret", AccessDuration: time.Hour, RefreshDuration: 24 * time.Hour, Issuer: "maphub"})
	memCache := cache.NewMemory(time.Now)
	accounts := auth.NewAccountService(auth.AccountDeps{
		Storage:           store,
		Passwords:         auth.NewPasswordServiceWithCost(bcrypt.MinCost),
		Tokens:            tokens,
		Throttle:          auth.NewThrottle(memCache, loginCfg, log),
		Cache:             memCache,
		Mailer:            mail.NewLogSender(log),
		Moderator:         moderation.Disabled{},
		Blobs:             blobs,
		Maps:              maps,
		Likes:             likes,
		Limits:            loginCfg,
		URLTTL:            time.Hour,
		ToxicityThreshold: 0.10,
		SiteURL:           "http://localhost:3000",
		Log:               log,
	})

	srv := NewServer(ServerDeps{
		Accounts: accounts,
		Tokens:   tokens,
		Maps:     maps,
		Places:   places,
		Likes:    likes,
		Media:    blobs,
		Ping:     ping,
		Version:  "test",
		Config:   httpCfg,
		Log:      log,
	})
	return &testServer{store: store, handler: srv.SetupRoutes()}
}

type envelope struct {
	Success bool                `json:"success"`
	Data    json.RawMessage     `json:"data"`
	Error   *response.ErrorBody `json:"error"`
}

func (s *testServer) do(t *testing.T, method, target, token string, body io.Reader, contentType string) (int, envelope) {
	t.Helper()

	req := httptest.NewRequest(method, target, body)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)

	var env envelope
	if strings.HasPrefix(rec.Header().Get("Content-Type"), "application/json") {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	}
	return rec.Code, env
}

func (s *testServer) doJSON(t *testing.T, method, target, token string, payload interface{}) (int, envelope) {
	t.Helper()
	var body io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		require.NoError(t, err)
		body = bytes.NewReader(raw)
	}
	return s.do(t, method, target, token, body, "application/json")
}

func multipartBody(t *testing.T, fields map[string]string, fileField, fileName string, content []byte) (io.Reader, string) {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(t, w.WriteField(k, v))
	}
	if fileField != "" {
		part, err := w.CreateFormFile(fileField, fileName)
		require.NoError(t, err)
		_, err = part.Write(content)
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())
	return &buf, w.FormDataContentType()
}

// signup registers, verifies and logs in a user, returning the access token.
func (s *testServer) signup(t *testing.T, name, email string) string {
	t.Helper()
	ctx := context.Background()

	code, _ := s.doJSON(t, http.MethodPost, "/api/auth/register", "", map[string]string{
		"name": name, "email": email, "password": "secret1",
	})
	require.Equal(t, http.StatusCreated, code)

	user, err := s.store.GetUserByEmail(ctx, email)
	require.NoError(t, err)
	code, _ = s.do(t, http.MethodGet, "/api/auth/verify?token="+url.QueryEscape(*user.VerificationToken), "", nil, "")
	require.Equal(t, http.StatusOK, code)

	return s.login(t, email, "secret1").AccessToken
}

func (s *testServer) login(t *testing.T, email, password string) auth.AuthResponse {
	t.Helper()
	code, env := s.doJSON(t, http.MethodPost, "/api/auth/login", "", map[string]string{"email": email, "password": password})
	require.Equal(t, http.StatusOK, code, "%+v", env.Error)
	var res auth.AuthResponse
	require.NoError(t, json.Unmarshal(env.Data, &res))
	return res
}

func TestServer_AuthFlow(t *testing.T) {
	s := newTestServer(t, nil)

	code, _ := s.doJSON(t, http.MethodPost, "/api/auth/register", "", map[string]string{
		"name": "anna", "email": "anna@example.com", "password": "secret1",
	})
	require.Equal(t, http.StatusCreated, code)

	// Test an unverified login is refused with a stable kind
	code, env := s.doJSON(t, http.MethodPost, "/api/auth/login", "", map[string]string{"email": "anna@example.com", "password": "secret1"})
	assert.Equal(t, http.StatusForbidden, code)
	require.NotNil(t, env.Error)
	assert.Equal(t, "needs_verification", string(env.Error.Kind))

	// Test validation errors name the field
	code, env = s.doJSON(t, http.MethodPost, "/api/auth/register", "", map[string]string{
		"name": "bob", "email": "not-an-email", "password": "secret1",
	})
	assert.Equal(t, http.StatusBadRequest, code)
	require.NotNil(t, env.Error)
	assert.Equal(t, "email", env.Error.Field)

	code, _ = s.do(t, http.MethodGet, "/api/auth/verify?token=nope", "", nil, "")
	assert.Equal(t, http.StatusBadRequest, code)

	// Test repeated failures end in a lockout
	for i := 0; i < 4; i++ {
		code, _ = s.doJSON(t, http.MethodPost, "/api/auth/login", "", map[string]string{"email": "x@example.com", "password": "wrong1"})
		require.Equal(t, http.StatusUnauthorized, code)
	}
	code, env = s.doJSON(t, http.MethodPost, "/api/auth/login", "", map[string]string{"email": "x@example.com", "password": "wrong1"})
	assert.Equal(t, http.StatusTooManyRequests, code)
	require.NotNil(t, env.Error)
	assert.Equal(t, "locked_out", string(env.Error.Kind))
}

func TestServer_AccountRoutes(t *testing.T) {
	s := newTestServer(t, nil)
	ctx := context.Background()
	s.signup(t, "anna", "anna@example.com")
	s.signup(t, "bob", "bob@example.com")
	session := s.login(t, "anna@example.com", "secret1")
	require.NotEmpty(t, session.RefreshToken)

	// Test refresh rotates the pair and the old token stops working
	code, env := s.doJSON(t, http.MethodPost, "/api/auth/refresh", "", map[string]string{"refresh_token": session.RefreshToken})
	require.Equal(t, http.StatusOK, code, "%+v", env.Error)
	var rotated auth.AuthResponse
	require.NoError(t, json.Unmarshal(env.Data, &rotated))
	assert.NotEqual(t, session.RefreshToken, rotated.RefreshToken)
	code, _ = s.doJSON(t, http.MethodPost, "/api/auth/refresh", "", map[string]string{"refresh_token": session.RefreshToken})
	assert.Equal(t, http.StatusUnauthorized, code)

	session = s.login(t, "anna@example.com", "secret1")
	code, _ = s.doJSON(t, http.MethodPost, "/api/auth/logout", "", map[string]string{"refresh_token": session.RefreshToken})
	assert.Equal(t, http.StatusOK, code)
	code, _ = s.doJSON(t, http.MethodPost, "/api/auth/refresh", "", map[string]string{"refresh_token": session.RefreshToken})
	assert.Equal(t, http.StatusUnauthorized, code)

	// Test account changes need authentication
	code, _ = s.doJSON(t, http.MethodPut, "/api/account/name", "", map[string]string{"name": "annie"})
	assert.Equal(t, http.StatusUnauthorized, code)

	code, env = s.doJSON(t, http.MethodPut, "/api/account/name", session.AccessToken, map[string]string{"name": "bob"})
	assert.Equal(t, http.StatusConflict, code)
	code, env = s.doJSON(t, http.MethodPut, "/api/account/name", session.AccessToken, map[string]string{"name": "annie"})
	require.Equal(t, http.StatusOK, code, "%+v", env.Error)

	code, env = s.doJSON(t, http.MethodPut, "/api/account/password", session.AccessToken, map[string]string{
		"current_password": "wrong1", "new_password": "newsecret", "confirm_password": "newsecret",
	})
	assert.Equal(t, http.StatusBadRequest, code)
	require.NotNil(t, env.Error)
	assert.Equal(t, "current_password", env.Error.Field)
	code, env = s.doJSON(t, http.MethodPut, "/api/account/password", session.AccessToken, map[string]string{
		"current_password": "secret1", "new_password": "newsecret", "confirm_password": "newsecret",
	})
	require.Equal(t, http.StatusOK, code, "%+v", env.Error)
	s.login(t, "anna@example.com", "newsecret")

	// Test the reset flow through the emailed token
	code, _ = s.doJSON(t, http.MethodPost, "/api/auth/password/reset", "", map[string]string{"email": "ghost@example.com"})
	assert.Equal(t, http.StatusAccepted, code)
	code, _ = s.doJSON(t, http.MethodPost, "/api/auth/password/reset", "", map[string]string{"email": "anna@example.com"})
	require.Equal(t, http.StatusAccepted, code)
	anna, err := s.store.GetUserByEmail(ctx, "anna@example.com")
	require.NoError(t, err)
	require.NotNil(t, anna.ResetPasswordToken)

	code, _ = s.doJSON(t, http.MethodPost, "/api/auth/password/confirm", "", map[string]string{"token": "nope", "password": "another1"})
	assert.Equal(t, http.StatusBadRequest, code)
	code, env = s.doJSON(t, http.MethodPost, "/api/auth/password/confirm", "", map[string]string{
		"token": *anna.ResetPasswordToken, "password": "another1",
	})
	require.Equal(t, http.StatusOK, code, "%+v", env.Error)
	s.login(t, "anna@example.com", "another1")

	// Test the public profile hides private fields
	code, env = s.do(t, http.MethodGet, "/api/users/"+strconv.FormatInt(anna.ID, 10), "", nil, "")
	require.Equal(t, http.StatusOK, code)
	var profile map[string]interface{}
	require.NoError(t, json.Unmarshal(env.Data, &profile))
	assert.Equal(t, "annie", profile["name"])
	assert.NotContains(t, profile, "email")

	code, _ = s.do(t, http.MethodGet, "/api/users/999", "", nil, "")
	assert.Equal(t, http.StatusNotFound, code)
	code, _ = s.do(t, http.MethodGet, "/api/users/abc", "", nil, "")
	assert.Equal(t, http.StatusBadRequest, code)
}

func TestServer_MapLifecycle(t *testing.T) {
	s := newTestServer(t, nil)
	owner := s.signup(t, "anna", "anna@example.com")
	other := s.signup(t, "bob", "bob@example.com")

	// Test unauthenticated writes are rejected
	code, _ := s.do(t, http.MethodPost, "/api/maps", "", nil, "")
	assert.Equal(t, http.StatusUnauthorized, code)

	code, env := s.do(t, http.MethodPost, "/api/maps", owner, nil, "")
	require.Equal(t, http.StatusCreated, code)
	var created CreateMapResponse
	require.NoError(t, json.Unmarshal(env.Data, &created))
	mapPath := "/api/maps/" + strconv.FormatInt(created.ID, 10)

	// Drafts are hidden from everyone but the owner
	code, _ = s.do(t, http.MethodGet, mapPath, other, nil, "")
	assert.Equal(t, http.StatusNotFound, code)
	code, _ = s.do(t, http.MethodGet, mapPath, owner, nil, "")
	assert.Equal(t, http.StatusOK, code)

	body, ct := multipartBody(t, map[string]string{
		"name":        "Krakow walk",
		"description": "Old town",
		"tags":        "city, walk",
		"published":   "true",
	}, "thumbnail", "thumb.png", []byte("png-bytes"))
	code, _ = s.do(t, http.MethodPut, mapPath, other, body, ct)
	assert.Equal(t, http.StatusForbidden, code)

	body, ct = multipartBody(t, map[string]string{
		"name":        "Krakow walk",
		"description": "Old town",
		"tags":        "city, walk",
		"published":   "true",
	}, "thumbnail", "thumb.png", []byte("png-bytes"))
	code, env = s.do(t, http.MethodPut, mapPath, owner, body, ct)
	require.Equal(t, http.StatusOK, code, "%+v", env.Error)

	code, env = s.do(t, http.MethodGet, "/api/maps?q=Krakow", "", nil, "")
	require.Equal(t, http.StatusOK, code)
	var cards []struct {
		ID           int64    `json:"id"`
		Tags         []string `json:"tags"`
		ThumbnailURL string   `json:"thumbnail_url"`
		CreatorName  string   `json:"creator_name"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &cards))
	require.Len(t, cards, 1)
	assert.Equal(t, created.ID, cards[0].ID)
	assert.ElementsMatch(t, []string{"city", "walk"}, cards[0].Tags)
	assert.Equal(t, "anna", cards[0].CreatorName)

	// Test published maps are listed on the owner's public page
	anna, err := s.store.GetUserByEmail(context.Background(), "anna@example.com")
	require.NoError(t, err)
	code, env = s.do(t, http.MethodGet, "/api/users/"+strconv.FormatInt(anna.ID, 10)+"/maps", "", nil, "")
	require.Equal(t, http.StatusOK, code)
	var public []struct {
		ID int64 `json:"id"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &public))
	require.Len(t, public, 1)
	assert.Equal(t, created.ID, public[0].ID)
	code, _ = s.do(t, http.MethodGet, "/api/users/999/maps", "", nil, "")
	assert.Equal(t, http.StatusNotFound, code)

	// Test the signed thumbnail URL is served through the media route
	u, err := url.Parse(cards[0].ThumbnailURL)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodGet, u.RequestURI(), nil)
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "png-bytes", rec.Body.String())

	req = httptest.NewRequest(http.MethodGet, u.Path+"?token=forged", nil)
	rec = httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	code, env = s.doJSON(t, http.MethodPost, mapPath+"/places", owner, map[string]interface{}{
		"type": "marker", "x": 1.5, "y": 2.5, "name": "Wawel", "country": "Poland",
	})
	require.Equal(t, http.StatusCreated, code, "%+v", env.Error)

	code, env = s.doJSON(t, http.MethodPost, mapPath+"/places", owner, map[string]interface{}{"type": "square"})
	assert.Equal(t, http.StatusBadRequest, code)
	require.NotNil(t, env.Error)
	assert.Equal(t, "type", env.Error.Field)

	code, env = s.do(t, http.MethodGet, mapPath+"/markers", "", nil, "")
	require.Equal(t, http.StatusOK, code)
	var markers []struct {
		Name    string `json:"name"`
		Country string `json:"country"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &markers))
	require.Len(t, markers, 1)
	assert.Equal(t, "Wawel", markers[0].Name)

	code, env = s.do(t, http.MethodGet, "/api/countries", "", nil, "")
	require.Equal(t, http.StatusOK, code)
	assert.JSONEq(t, `["Poland"]`, string(env.Data))

	// Test likes from another user
	code, env = s.do(t, http.MethodPost, mapPath+"/like", other, nil, "")
	require.Equal(t, http.StatusOK, code)
	assert.JSONEq(t, `{"likes":1,"liked":true}`, string(env.Data))
	code, _ = s.do(t, http.MethodPost, mapPath+"/like", other, nil, "")
	assert.Equal(t, http.StatusConflict, code)

	code, env = s.do(t, http.MethodGet, "/api/account/likes", other, nil, "")
	require.Equal(t, http.StatusOK, code)
	var liked []struct {
		ID int64 `json:"id"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &liked))
	require.Len(t, liked, 1)

	code, _ = s.do(t, http.MethodDelete, mapPath, other, nil, "")
	assert.Equal(t, http.StatusForbidden, code)

	code, env = s.do(t, http.MethodDelete, mapPath, owner, nil, "")
	require.Equal(t, http.StatusOK, code)
	assert.JSONEq(t, `{}`, string(env.Data))

	code, _ = s.do(t, http.MethodGet, mapPath, owner, nil, "")
	assert.Equal(t, http.StatusNotFound, code)

	code, env = s.do(t, http.MethodGet, "/api/tags/popular", "", nil, "")
	require.Equal(t, http.StatusOK, code)
	assert.JSONEq(t, `[]`, string(env.Data))
}

func TestServer_Health(t *testing.T) {
	t.Run("healthy", func(t *testing.T) {
		s := newTestServer(t, func(context.Context) error { return nil })
		code, env := s.do(t, http.MethodGet, "/health", "", nil, "")
		assert.Equal(t, http.StatusOK, code)
		assert.Contains(t, string(env.Data), `"database_status":"healthy"`)
	})

	t.Run("database down", func(t *testing.T) {
		s := newTestServer(t, func(context.Context) error { return errors.New("connection refused") })
		code, env := s.do(t, http.MethodGet, "/health", "", nil, "")
		assert.Equal(t, http.StatusServiceUnavailable, code)
		assert.Contains(t, string(env.Data), `"database_status":"unhealthy"`)
	})
}

func TestServer_CORS(t *testing.T) {
	s := newTestServer(t, nil)

	req := httptest.NewRequest(http.MethodOptions, "/api/maps", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)

	assert.Equal(t, "http://localhost:3000", rec.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodOptions, "/api/maps", nil)
	req.Header.Set("Origin", "http://evil.example")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rec = httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)

	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}
