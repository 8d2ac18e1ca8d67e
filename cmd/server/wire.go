//go:build wireinject

package main

import (
	"context"

	"github.com/google/wire"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"media-server/internal/cache"
	"media-server/internal/config"
	domain "media-server/internal/domain/media"
	rediscache "media-server/internal/infrastructure/cache"
	"media-server/internal/infrastructure/database"
	"media-server/internal/infrastructure/logger"
	repo "media-server/internal/infrastructure/repository/media"
	"media-server/internal/infrastructure/transform"
	"media-server/internal/interfaces/httpserver"
)

var mediaSet = wire.NewSet(
	repo.NewRepository,
	wire.Bind(new(domain.Repository), new(*repo.Repository)),
	provideStorage,
	provideThumbnailer,
	wire.Bind(new(domain.Transformer), new(*transform.Thumbnailer)),
	provideRedisCache,
	wire.Bind(new(cache.Store), new(*rediscache.RedisCache)),
	newCacheEngine,
	domain.NewService,
)

// BuildApplication assembles the media server with Wire.
func BuildApplication(ctx context.Context) (*Application, error) {
	wire.Build(
		config.Load,
		logger.New,
		database.NewConfig,
		newGormDB,
		mediaSet,
		httpserver.New,
		NewApplication,
	)
	return nil, nil
}

func newGormDB(ctx context.Context, cfg database.Config, log zerolog.Logger) (*gorm.DB, error) {
	db, err := database.Connect(cfg)
	if err != nil {
		return nil, err
	}
	if err := database.AutoMigrate(ctx, db, log); err != nil {
		return nil, err
	}
	return db, nil
}

func provideRedisCache(cfg *config.Config) (*rediscache.RedisCache, error) {
	return rediscache.NewRedisCache(cfg.RedisURL)
}

func provideThumbnailer(cfg *config.Config, log zerolog.Logger) *transform.Thumbnailer {
	return transform.NewThumbnailer(cfg.ThumbnailSize, log)
}
