package http

import (
	"MapHub-Backend/internal/auth"
	"MapHub-Backend/internal/config"
	"MapHub-Backend/internal/service"
	"MapHub-Backend/pkg/useragent"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	httpSwagger "github.com/swaggo/http-swagger"
	"go.uber.org/zap"
)

// ServerDeps собирает зависимости HTTP сервера
type ServerDeps struct {
	Accounts *auth.AccountService
	Tokens   *auth.JWTService
	Agents   *useragent.Parser
	Maps     *service.MapService
	Places   *service.PlaceService
	Likes    *service.LikeLedger
	// Media serves signed blob URLs; nil disables the /media route.
	Media   MediaOpener
	Ping    Pinger
	Version string
	Config  *config.HTTPServer
	Log     *zap.Logger
}

// Server HTTP сервер с обработчиками
type Server struct {
	authHandlers   *auth.AuthHandlers
	mapsHandler    *MapsHandler
	placesHandler  *PlacesHandler
	mediaHandler   *MediaHandler
	healthHandler  *HealthHandler
	authMiddleware *auth.Middleware
	allowedOrigins []string
	log            *zap.Logger
}

// NewServer создает новый HTTP сервер
func NewServer(deps ServerDeps) *Server {
	maxUpload := deps.Config.MaxUploadBytes

	s := &Server{
		authHandlers:   auth.NewAuthHandlers(deps.Accounts, deps.Agents, maxUpload, deps.Log),
		mapsHandler:    NewMapsHandler(deps.Maps, deps.Likes, maxUpload, deps.Log),
		placesHandler:  NewPlacesHandler(deps.Places, deps.Maps, maxUpload, deps.Log),
		healthHandler:  NewHealthHandler(deps.Ping, deps.Version, deps.Log),
		authMiddleware: auth.NewMiddleware(deps.Tokens, deps.Log),
		allowedOrigins: deps.Config.AllowedOrigins,
		log:            deps.Log,
	}
	if deps.Media != nil {
		s.mediaHandler = NewMediaHandler(deps.Media, deps.Log)
	}
	return s
}

// SetupRoutes настраивает маршруты
func (s *Server) SetupRoutes() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.requestLogger)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   s.allowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Health checks (без аутентификации)
	r.Get("/health", s.healthHandler.Health)
	r.Get("/ready", s.healthHandler.Ready)
	r.Handle("/metrics", promhttp.Handler())

	// Swagger документация
	r.Get("/swagger/*", httpSwagger.WrapHandler)

	if s.mediaHandler != nil {
		r.Get("/media/{ref}", s.mediaHandler.Serve)
	}

	r.Route("/api", func(r chi.Router) {
		// Auth endpoints (без аутентификации)
		r.Post("/auth/register", s.authHandlers.Register)
		r.Post("/auth/login", s.authHandlers.Login)
		r.Get("/auth/verify", s.authHandlers.Verify)
		r.Post("/auth/resend-verification", s.authHandlers.ResendVerification)
		r.Post("/auth/refresh", s.authHandlers.Refresh)
		r.Post("/auth/logout", s.authHandlers.Logout)
		r.Post("/auth/password/reset", s.authHandlers.RequestPasswordReset)
		r.Post("/auth/password/confirm", s.authHandlers.ConfirmPasswordReset)

		// Public read endpoints
		r.Get("/tags/popular", s.mapsHandler.PopularTags)
		r.Get("/countries", s.mapsHandler.Countries)
		r.Get("/maps", s.mapsHandler.Search)
		r.Get("/maps/{mapID}/markers", s.placesHandler.Markers)
		r.Get("/maps/{mapID}/circles", s.placesHandler.Circles)
		r.With(s.authMiddleware.OptionalAuth).Get("/maps/{mapID}", s.mapsHandler.Details)
		r.Get("/users/{userID}", s.authHandlers.Profile)
		r.Get("/users/{userID}/maps", s.mapsHandler.PublishedBy)

		// API endpoints (с аутентификацией)
		r.Group(func(r chi.Router) {
			r.Use(s.authMiddleware.RequireAuth)

			r.Put("/account/picture", s.authHandlers.UploadPicture)
			r.Put("/account/password", s.authHandlers.ChangePassword)
			r.Put("/account/name", s.authHandlers.ChangeName)
			r.Delete("/account", s.authHandlers.DeleteAccount)
			r.Get("/account/maps", s.mapsHandler.UserMaps)
			r.Get("/account/likes", s.mapsHandler.LikedMaps)

			r.Post("/maps", s.mapsHandler.Create)
			r.Put("/maps/{mapID}", s.mapsHandler.Save)
			r.Delete("/maps/{mapID}", s.mapsHandler.Delete)
			r.Post("/maps/{mapID}/publish", s.mapsHandler.Publish)
			r.Post("/maps/{mapID}/draft", s.mapsHandler.MoveToDraft)
			r.Post("/maps/{mapID}/countries", s.mapsHandler.AddCountry)
			r.Post("/maps/{mapID}/places", s.placesHandler.Add)

			r.Get("/maps/{mapID}/like", s.mapsHandler.HasLiked)
			r.Post("/maps/{mapID}/like", s.mapsHandler.Like)
			r.Delete("/maps/{mapID}/like", s.mapsHandler.Unlike)

			r.Put("/places/{placeID}", s.placesHandler.Update)
			r.Delete("/places/{placeID}", s.placesHandler.Remove)
		})
	})

	return r
}

// requestLogger пишет каждый запрос в debug-лог
func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)

		s.log.Debug("http request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Duration("duration", time.Since(start)),
			zap.String("request_id", middleware.GetReqID(r.Context())))
	})
}
