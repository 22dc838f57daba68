package auth

import (
	"MapHub-Backend/internal/domain"
	"MapHub-Backend/internal/handler/response"
	"context"
	"net/http"

	"go.uber.org/zap"
)

// ContextKey тип для ключей контекста
type ContextKey string

const (
	// UserIDKey ключ для получения ID пользователя из контекста
	UserIDKey ContextKey = "user_id"
	// UserEmailKey ключ для получения email пользователя из контекста
	UserEmailKey ContextKey = "user_email"
)

// Middleware JWT middleware для HTTP обработчиков
type Middleware struct {
	jwtService *JWTService
	log        *zap.Logger
}

// NewMiddleware создает новый JWT middleware
func NewMiddleware(jwtService *JWTService, log *zap.Logger) *Middleware {
	return &Middleware{
		jwtService: jwtService,
		log:        log,
	}
}

// RequireAuth middleware для проверки JWT токена
func (m *Middleware) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			m.log.Debug("missing authorization header")
			response.Error(w, m.log, domain.Unauthorized("authorization required"))
			return
		}

		tokenString := ExtractTokenFromBearer(authHeader)
		if tokenString == "" {
			m.log.Debug("invalid authorization header format")
			response.Error(w, m.log, domain.Unauthorized("invalid authorization header"))
			return
		}

		claims, err := m.jwtService.ValidateToken(tokenString)
		if err != nil {
			m.log.Debug("invalid token", zap.Error(err))
			if err == ErrExpiredToken {
				response.Error(w, m.log, domain.Unauthorized("token expired"))
			} else {
				response.Error(w, m.log, domain.Unauthorized("invalid token"))
			}
			return
		}

		m.log.Debug("authenticated user",
			zap.Int64("user_id", claims.UserID),
			zap.String("email", claims.Email))

		next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), claims.UserID, claims.Email)))
	})
}

// OptionalAuth middleware для опциональной проверки JWT токена
func (m *Middleware) OptionalAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tokenString := ExtractTokenFromBearer(r.Header.Get("Authorization"))
		if tokenString == "" {
			next.ServeHTTP(w, r)
			return
		}

		claims, err := m.jwtService.ValidateToken(tokenString)
		if err != nil {
			// Неверный токен, но для опционального middleware это не критично
			m.log.Debug("optional auth: invalid token", zap.Error(err))
			next.ServeHTTP(w, r)
			return
		}

		next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), claims.UserID, claims.Email)))
	})
}

// WithUser кладет пользователя в контекст
func WithUser(ctx context.Context, userID int64, email string) context.Context {
	ctx = context.WithValue(ctx, UserIDKey, userID)
	return context.WithValue(ctx, UserEmailKey, email)
}

// GetUserIDFromContext извлекает ID пользователя из контекста
func GetUserIDFromContext(ctx context.Context) (int64, bool) {
	userID, ok := ctx.Value(UserIDKey).(int64)
	return userID, ok
}

// GetUserEmailFromContext извлекает email пользователя из контекста
func GetUserEmailFromContext(ctx context.Context) (string, bool) {
	email, ok := ctx.Value(UserEmailKey).(string)
	return email, ok
}
