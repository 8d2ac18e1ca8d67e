package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"media-server/internal/cache"
	"media-server/internal/config"
	domain "media-server/internal/domain/media"
	rediscache "media-server/internal/infrastructure/cache"
	"media-server/internal/infrastructure/database"
	"media-server/internal/infrastructure/logger"
	"media-server/internal/infrastructure/observability"
	repo "media-server/internal/infrastructure/repository/media"
	"media-server/internal/infrastructure/storage"
	"media-server/internal/infrastructure/transform"
	"media-server/internal/interfaces/httpserver"
)

type Application struct {
	httpServer *httpserver.HttpServer
	log        zerolog.Logger
}

func NewApplication(httpServer *httpserver.HttpServer, log zerolog.Logger) *Application {
	return &Application{
		httpServer: httpServer,
		log:        log,
	}
}

func (a *Application) Start(ctx context.Context) error {
	return a.httpServer.Run(ctx)
}

func main() {
	loadEnvFiles()

	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	log := logger.New(cfg)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTelemetry, err := observability.Setup(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("initialize observability")
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		if err := shutdownTelemetry(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("shutdown telemetry")
		}
	}()

	db, err := database.Connect(database.NewConfig(cfg))
	if err != nil {
		log.Fatal().Err(err).Msg("connect database")
	}

	if err := database.AutoMigrate(ctx, db, log); err != nil {
		log.Fatal().Err(err).Msg("migrate database")
	}

	redisCache, err := rediscache.NewRedisCache(cfg.RedisURL)
	if err != nil {
		log.Fatal().Err(err).Msg("connect redis")
	}
	defer func() {
		if err := redisCache.Close(); err != nil {
			log.Error().Err(err).Msg("close redis client")
		}
	}()
	log.Info().Msg("connected to Redis cache")

	engine := newCacheEngine(cfg, redisCache, log)

	storageBackend, err := provideStorage(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("initialize storage")
	}

	thumbnailer := transform.NewThumbnailer(cfg.ThumbnailSize, log)
	mediaRepository := repo.NewRepository(db)
	mediaService := domain.NewService(cfg, mediaRepository, storageBackend, thumbnailer, engine, log)

	httpServer := httpserver.New(cfg, log, mediaService)
	app := NewApplication(httpServer, log)

	if err := app.Start(ctx); err != nil {
		log.Fatal().Err(err).Msg("application stopped with error")
	}

	log.Info().Msg("application exited cleanly")
}

func newCacheEngine(cfg *config.Config, store cache.Store, log zerolog.Logger) *cache.Engine {
	var opts []cache.Option
	if cfg.CacheStrictInvalidation {
		opts = append(opts, cache.WithStrictInvalidation())
	}
	return cache.NewEngine(store, log, opts...)
}

// provideStorage creates the appropriate storage backend based on configuration.
func provideStorage(ctx context.Context, cfg *config.Config, log zerolog.Logger) (domain.Storage, error) {
	if cfg.IsLocalStorage() {
		localStorage, err := storage.NewLocalStorage(cfg, log)
		if err != nil {
			return nil, err
		}
		return localStorage, nil
	}

	// Default to S3 storage
	s3Storage, err := storage.NewS3Storage(ctx, cfg, log)
	if err != nil {
		return nil, err
	}
	return s3Storage, nil
}

func loadEnvFiles() {
	paths := []string{".env", "../.env"}
	for _, path := range paths {
		if _, err := os.Stat(path); err == nil {
			if err := godotenv.Overload(path); err != nil {
				fmt.Fprintf(os.Stderr, "warning: failed to load %s: %v\n", path, err)
			}
		}
	}
}
