// Package main provides the entry point for the MapHub backend.
//
//	@title			MapHub API
//	@version		1.0.0
//	@description	Map sharing platform: maps, places, tags, countries and likes.
//
//	@host		localhost:8080
//	@BasePath	/
//
//	@securityDefinitions.apikey	BearerAuth
//	@in							header
//	@name						Authorization
//	@description				JWT Authorization header. Format: "Bearer {token}"
package main

import (
	"MapHub-Backend/internal/auth"
	"MapHub-Backend/internal/blob"
	"MapHub-Backend/internal/cache"
	"MapHub-Backend/internal/cleanup"
	"MapHub-Backend/internal/config"
	"MapHub-Backend/internal/database"
	httpHandler "MapHub-Backend/internal/handler/http"
	"MapHub-Backend/internal/mail"
	"MapHub-Backend/internal/moderation"
	"MapHub-Backend/internal/repository"
	"MapHub-Backend/internal/repository/memory"
	"MapHub-Backend/internal/repository/postgres"
	"MapHub-Backend/internal/service"
	"MapHub-Backend/pkg/logger"
	"MapHub-Backend/pkg/useragent"
	"context"
	lg "log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	_ "MapHub-Backend/docs" // Import swagger docs
)

const version = "1.0.0"

func main() {
	cfg := config.MustLoad()
	log := logger.New(cfg.Env)
	defer func() {
		if err := log.Sync(); err != nil {
			lg.Printf("ERROR: failed to sync zap logger: %v\n", err)
		}
	}()

	log.Info("starting MapHub backend", zap.String("env", cfg.Env), zap.String("version", version))

	storage, ping, closeStorage := openStorage(cfg, log)
	defer closeStorage()

	ttlCache, err := cache.OpenBadger(cfg.Cache.Dir, log)
	if err != nil {
		log.Fatal("failed to open cache", zap.Error(err))
	}
	defer func() {
		if err := ttlCache.Close(); err != nil {
			log.Error("failed to close cache", zap.Error(err))
		}
	}()

	blobs, err := blob.NewLocalStore(cfg.Blob.Dir, cfg.Blob.PublicBaseURL, cfg.Blob.SigningSecret, log)
	if err != nil {
		log.Fatal("failed to open blob store", zap.Error(err))
	}

	// Failed blob releases are retried in the background
	cleanupCfg := cleanup.DefaultConfig()
	cleanupCfg.WorkerCount = cfg.Cleanup.Workers
	cleanupCfg.BufferSize = cfg.Cleanup.BufferSize
	cleanupCfg.RetryAttempts = cfg.Cleanup.MaxRetries
	cleanupCfg.RetryDelay = cfg.Cleanup.RetryDelay
	releases := cleanup.NewProcessor(blobs, log, cleanupCfg)
	if err := releases.Start(); err != nil {
		log.Fatal("failed to start cleanup processor", zap.Error(err))
	}
	defer func() {
		if err := releases.Stop(); err != nil {
			log.Error("failed to stop cleanup processor", zap.Error(err))
		}
	}()

	agents, err := useragent.NewParser(os.Getenv("UA_REGEXES_PATH"), log)
	if err != nil {
		log.Warn("failed to initialize User-Agent parser, client details will not be logged", zap.Error(err))
	}

	moderator := moderation.New(cfg.Moderation, log)

	deps := service.Deps{
		Storage:   storage,
		Blobs:     blobs,
		Moderator: moderator,
		Releases:  releases,
		Log:       log,
		URLTTL:    cfg.Blob.URLTTL,
	}
	tags := service.NewTagLedger(storage, log)
	countries := service.NewCountryLedger(storage, log)
	likes := service.NewLikeLedger(storage, log)
	maps := service.NewMapService(deps, tags, countries, &cfg.Maps)
	places := service.NewPlaceService(deps, countries, &cfg.Maps)

	tokens := auth.NewJWTService(&cfg.JWT)
	accounts := auth.NewAccountService(auth.AccountDeps{
		Storage:           storage,
		Passwords:         auth.NewPasswordService(),
		Tokens:            tokens,
		Throttle:          auth.NewThrottle(ttlCache, &cfg.Login, log),
		Cache:             ttlCache,
		Mailer:            mail.New(cfg.SMTP, log),
		Moderator:         moderator,
		Blobs:             blobs,
		Maps:              maps,
		Likes:             likes,
		Limits:            &cfg.Login,
		URLTTL:            cfg.Blob.URLTTL,
		ToxicityThreshold: cfg.Maps.ToxicityThreshold,
		SiteURL:           cfg.SiteURL,
		Log:               log,
	})

	server := httpHandler.NewServer(httpHandler.ServerDeps{
		Accounts: accounts,
		Tokens:   tokens,
		Agents:   agents,
		Maps:     maps,
		Places:   places,
		Likes:    likes,
		Media:    blobs,
		Ping:     ping,
		Version:  version,
		Config:   &cfg.HTTPServer,
		Log:      log,
	})

	httpServer := &http.Server{
		Addr:         cfg.HTTPServer.Address,
		Handler:      server.SetupRoutes(),
		ReadTimeout:  cfg.HTTPServer.ReadTimeout,
		WriteTimeout: cfg.HTTPServer.WriteTimeout,
		IdleTimeout:  cfg.HTTPServer.IdleTimeout,
	}

	log.Info("starting HTTP server", zap.String("address", cfg.HTTPServer.Address))

	go func() {
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("HTTP server failed", zap.Error(err))
		}
	}()

	// Wait for shutdown signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("shutting down MapHub backend...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Error("failed to shutdown HTTP server", zap.Error(err))
	} else {
		log.Info("HTTP server stopped")
	}
}

// openStorage connects to PostgreSQL, or keeps everything in process when
// the database is configured in-memory.
func openStorage(cfg *config.Config, log *zap.Logger) (repository.Storage, httpHandler.Pinger, func()) {
	if cfg.Database.InMemory {
		log.Warn("using in-memory storage, data will be lost on restart")
		return memory.New(), nil, func() {}
	}

	db, err := database.NewConnection(&cfg.Database, log)
	if err != nil {
		log.Fatal("failed to connect to database", zap.Error(err))
	}

	if cfg.Database.AutoMigrate {
		log.Info("running database migrations (auto_migrate: true)")
		if err := database.AutoMigrate(db, log); err != nil {
			log.Fatal("failed to run database migrations", zap.Error(err))
		}
	} else {
		log.Info("skipping database migrations (auto_migrate: false)")
	}

	if cfg.Database.SeedData {
		log.Info("seeding database with initial data (seed_data: true)")
		if err := database.SeedData(db, log); err != nil {
			log.Fatal("failed to seed database", zap.Error(err))
		}
	}

	ping := func(ctx context.Context) error {
		return database.HealthCheck(ctx, db)
	}
	closeDB := func() {
		if err := database.Close(db, log); err != nil {
			log.Error("failed to close database connection", zap.Error(err))
		}
	}
	return postgres.New(db, log), ping, closeDB
}
