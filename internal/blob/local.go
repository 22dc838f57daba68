package blob

import (
	"MapHub-Backend/internal/domain"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ErrInvalidSignature is returned when a media URL token does not match its reference.
var ErrInvalidSignature = errors.New("invalid media signature")

var refPattern = regexp.MustCompile(`^[0-9a-f-]{36}(\.[a-z0-9]{1,8})?$`)

// LocalStore keeps blobs on the local filesystem and signs URLs with HS256 tokens.
type LocalStore struct {
	dir     string
	baseURL string
	secret  []byte
	log     *zap.Logger
	now     func() time.Time
}

// NewLocalStore creates dir if needed.
func NewLocalStore(dir, baseURL, secret string, log *zap.Logger) (*LocalStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create blob dir: %w", err)
	}
	return &LocalStore{
		dir:     dir,
		baseURL: strings.TrimRight(baseURL, "/"),
		secret:  []byte(secret),
		log:     log,
		now:     time.Now,
	}, nil
}

type mediaClaims struct {
	jwt.RegisteredClaims
}

func (s *LocalStore) Upload(_ context.Context, file domain.Upload) (string, error) {
	ext := strings.ToLower(filepath.Ext(file.Filename))
	if !refPattern.MatchString("00000000-0000-0000-0000-000000000000" + ext) {
		ext = ""
	}
	ref := uuid.NewString() + ext

	if err := os.WriteFile(filepath.Join(s.dir, ref), file.Content, 0o644); err != nil {
		s.log.Error("failed to write blob", zap.String("ref", ref), zap.Error(err))
		return "", domain.Dependency("failed to upload file", err)
	}

	s.log.Debug("blob uploaded", zap.String("ref", ref), zap.Int("bytes", len(file.Content)))
	return ref, nil
}

func (s *LocalStore) Delete(_ context.Context, ref string) error {
	path, err := s.path(ref)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return domain.Dependency("failed to delete file", err)
	}
	return nil
}

func (s *LocalStore) SignedURL(_ context.Context, ref string, ttl time.Duration) (string, error) {
	if _, err := s.path(ref); err != nil {
		return "", err
	}

	now := s.now()
	claims := mediaClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   ref,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", domain.Dependency("failed to sign url", err)
	}

	return s.baseURL + "/" + url.PathEscape(ref) + "?token=" + url.QueryEscape(token), nil
}

// Open verifies token for ref and returns the blob path.
func (s *LocalStore) Open(ref, token string) (string, error) {
	path, err := s.path(ref)
	if err != nil {
		return "", err
	}

	var claims mediaClaims
	parsed, err := jwt.ParseWithClaims(token, &claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return s.secret, nil
	}, jwt.WithTimeFunc(s.now))
	if err != nil || !parsed.Valid || claims.Subject != ref {
		return "", ErrInvalidSignature
	}
	return path, nil
}

func (s *LocalStore) path(ref string) (string, error) {
	if !refPattern.MatchString(ref) {
		return "", domain.Validation("ref", "invalid blob reference")
	}
	return filepath.Join(s.dir, ref), nil
}
