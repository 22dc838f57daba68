package auth

import (
	"MapHub-Backend/internal/config"
	"errors"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrExpiredToken = errors.New("token expired")
)

// Token types carried in the typ claim.
const (
	tokenTypeAccess  = "access"
	tokenTypeRefresh = "refresh"
)

// Claims JWT claims структура
type Claims struct {
	UserID int64  `json:"user_id"`
	Email  string `json:"email"`
	Type   string `json:"typ"`
	jwt.RegisteredClaims
}

// IssuedRefreshToken выданный refresh токен вместе с его ID и сроком действия
type IssuedRefreshToken struct {
	Token     string
	ID        string
	ExpiresAt time.Time
}

// JWTService сервис для работы с JWT токенами
type JWTService struct {
	secret          []byte
	duration        time.Duration
	refreshDuration time.Duration
	issuer          string
	now             func() time.Time
}

// NewJWTService создает новый JWT сервис
func NewJWTService(cfg *config.JWT) *JWTService {
	return &JWTService{
		secret:          []byte(cfg.Secret),
		duration:        cfg.AccessDuration,
		refreshDuration: cfg.RefreshDuration,
		issuer:          cfg.Issuer,
		now:             time.Now,
	}
}

// GenerateAccessToken создает access токен
func (s *JWTService) GenerateAccessToken(userID int64, email string) (string, error) {
	now := s.now()
	return s.sign(userID, email, tokenTypeAccess, "", now, now.Add(s.duration))
}

// GenerateRefreshToken создает refresh токен с уникальным ID
func (s *JWTService) GenerateRefreshToken(userID int64, email string) (*IssuedRefreshToken, error) {
	now := s.now()
	id := uuid.NewString()
	expires := now.Add(s.refreshDuration)

	token, err := s.sign(userID, email, tokenTypeRefresh, id, now, expires)
	if err != nil {
		return nil, err
	}
	return &IssuedRefreshToken{Token: token, ID: id, ExpiresAt: expires}, nil
}

func (s *JWTService) sign(userID int64, email, typ, id string, now, expires time.Time) (string, error) {
	claims := Claims{
		UserID: userID,
		Email:  email,
		Type:   typ,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        id,
			Issuer:    s.issuer,
			Subject:   strconv.FormatInt(userID, 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expires),
			NotBefore: jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.secret)
}

// ValidateToken проверяет и парсит access токен
func (s *JWTService) ValidateToken(tokenString string) (*Claims, error) {
	return s.parse(tokenString, tokenTypeAccess)
}

// ValidateRefreshToken проверяет и парсит refresh токен
func (s *JWTService) ValidateRefreshToken(tokenString string) (*Claims, error) {
	claims, err := s.parse(tokenString, tokenTypeRefresh)
	if err != nil {
		return nil, err
	}
	if claims.ID == "" {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

func (s *JWTService) parse(tokenString, typ string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return s.secret, nil
	}, jwt.WithIssuer(s.issuer), jwt.WithTimeFunc(s.now))

	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredToken
		}
		return nil, ErrInvalidToken
	}

	if claims, ok := token.Claims.(*Claims); ok && token.Valid && claims.Type == typ {
		return claims, nil
	}

	return nil, ErrInvalidToken
}

// ExtractTokenFromBearer извлекает токен из Bearer заголовка
func ExtractTokenFromBearer(authHeader string) string {
	const bearerPrefix = "Bearer "
	if len(authHeader) > len(bearerPrefix) && authHeader[:len(bearerPrefix)] == bearerPrefix {
		return authHeader[len(bearerPrefix):]
	}
	return ""
}
