package media

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/attribute"

	"media-server/internal/cache"
	"media-server/internal/config"
	"media-server/internal/infrastructure/metrics"
	"media-server/internal/infrastructure/observability"
	"media-server/internal/utils/platformerrors"
	"media-server/utils/mediaid"
)

// Repository defines persistence operations needed by the service.
type Repository interface {
	Insert(ctx context.Context, record *MediaRecord) (*MediaRecord, error)
	FindByID(ctx context.Context, id string) (*MediaRecord, error)
	FindAll(ctx context.Context) ([]MediaRecord, error)
}

// Storage uploads a blob under a key and returns its durable retrieval URL.
type Storage interface {
	Upload(ctx context.Context, key string, body io.Reader, size int64, contentType string) (string, error)
}

// Transformer probes image dimensions and derives thumbnails.
type Transformer interface {
	Dimensions(data []byte) (width, height int, err error)
	Thumbnail(data []byte, mimeType string) ([]byte, error)
}

// Service orchestrates media ingestion and cache-aside retrieval.
type Service struct {
	cfg       *config.Config
	repo      Repository
	storage   Storage
	transform Transformer
	cache     *cache.Engine
	log       zerolog.Logger
}

func NewService(cfg *config.Config, repo Repository, storage Storage, transform Transformer, engine *cache.Engine, log zerolog.Logger) *Service {
	return &Service{
		cfg:       cfg,
		repo:      repo,
		storage:   storage,
		transform: transform,
		cache:     engine,
		log:       log.With().Str("component", "media-service").Logger(),
	}
}

// CreateMedia runs the ingestion pipeline: upload the original, probe
// dimensions, derive and upload a thumbnail, insert the metadata record,
// then invalidate the collection cache key. Any failure before the insert
// aborts with no record persisted; blobs already uploaded are not retracted
// (accepted orphan risk, storage is cheap relative to compensation logic).
func (s *Service) CreateMedia(ctx context.Context, upload Upload) (record *MediaRecord, err error) {
	ctx, span := observability.StartSpan(ctx, "media.create",
		attribute.String("media.mime_type", upload.MimeType),
		attribute.Int("media.bytes", len(upload.Data)))
	defer func() { observability.EndSpan(span, err) }()

	if len(upload.Data) == 0 {
		return nil, platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeValidation,
			"No file uploaded.", nil, "b1f4c9d2-0a3e-4d5b-8c6f-7e2a9d4b1c08")
	}

	// The blob key carries its own fresh ULID; the record id is assigned
	// later by the repository and the two are independent.
	uniqueID := mediaid.New()
	originalKey := fmt.Sprintf("uploads/%s-%s", uniqueID, upload.Filename)

	originalURL, err := s.storage.Upload(ctx, originalKey, bytes.NewReader(upload.Data), int64(len(upload.Data)), upload.MimeType)
	if err != nil {
		metrics.RecordUpload(upload.MimeType, "error", 0)
		return nil, platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeInternal,
			"failed to store original image", err, "3e7d1a5c-9b2f-4e8a-b6d0-4c1f8a2e5d93")
	}

	var width, height *int
	if w, h, dimErr := s.transform.Dimensions(upload.Data); dimErr != nil {
		// Undeterminable dimensions are not fatal; the record carries
		// absent values.
		s.log.Warn().Err(dimErr).Str("filename", upload.Filename).Msg("could not determine image dimensions")
	} else {
		width, height = &w, &h
	}

	thumbData, err := s.transform.Thumbnail(upload.Data, upload.MimeType)
	if err != nil {
		metrics.RecordUpload(upload.MimeType, "error", 0)
		return nil, platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeInternal,
			"failed to derive thumbnail", err, "a2c8e4f6-1d3b-4a7e-9c5d-8b0f2e6a4d17")
	}

	thumbnailKey := fmt.Sprintf("uploads/thumbnails/%s-thumbnail-%s", uniqueID, upload.Filename)
	thumbnailURL, err := s.storage.Upload(ctx, thumbnailKey, bytes.NewReader(thumbData), int64(len(thumbData)), upload.MimeType)
	if err != nil {
		metrics.RecordUpload(upload.MimeType, "error", 0)
		return nil, platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeInternal,
			"failed to store thumbnail", err, "5d9b3f1e-7a4c-4b8d-a0e2-6c8f1d3b5a79")
	}

	stored, err := s.repo.Insert(ctx, &MediaRecord{
		OriginalFilename: upload.Filename,
		MimeType:         upload.MimeType,
		Width:            width,
		Height:           height,
		OriginalURL:      originalURL,
		ThumbnailURL:     thumbnailURL,
	})
	if err != nil {
		metrics.RecordUpload(upload.MimeType, "error", 0)
		return nil, platformerrors.AsError(ctx, platformerrors.LayerDomain, err, "failed to persist media record")
	}

	// The insert has durably committed; the collection snapshot is now
	// stale and must be invalidated. In the default (lenient) mode a
	// failed delete is logged inside the engine and the write still
	// succeeds; strict mode surfaces it.
	if err := s.cache.Invalidate(ctx, cache.CollectionKey); err != nil {
		return nil, platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeInternal,
			"failed to invalidate collection cache", err, "8f2a6d4b-3c1e-4f9a-b7d5-0e4c2a8f6d31")
	}

	metrics.RecordUpload(upload.MimeType, "success", int64(len(upload.Data)))
	return stored, nil
}

// ListMedia returns all media records through the collection cache entry.
func (s *Service) ListMedia(ctx context.Context) (records []MediaRecord, err error) {
	ctx, span := observability.StartSpan(ctx, "media.list")
	defer func() { observability.EndSpan(span, err) }()

	return cache.ReadThrough(ctx, s.cache, cache.CollectionKey, s.cfg.CacheCollectionTTL,
		func(ctx context.Context) ([]MediaRecord, error) {
			return s.repo.FindAll(ctx)
		})
}

// GetMediaByID returns one media record through its per-record cache entry.
func (s *Service) GetMediaByID(ctx context.Context, id string) (record *MediaRecord, err error) {
	ctx, span := observability.StartSpan(ctx, "media.get",
		attribute.String("media.id", id))
	defer func() { observability.EndSpan(span, err) }()

	return cache.ReadThrough(ctx, s.cache, cache.RecordKey(id), s.cfg.CacheRecordTTL,
		func(ctx context.Context) (*MediaRecord, error) {
			return s.repo.FindByID(ctx, id)
		})
}

// GetOriginalURL returns the retrieval URL of the original image. URL reads
// bypass the cache: they are served with a redirect and the repository
// lookup is the cheapest part of that round trip.
func (s *Service) GetOriginalURL(ctx context.Context, id string) (url string, err error) {
	ctx, span := observability.StartSpan(ctx, "media.original_url",
		attribute.String("media.id", id))
	defer func() { observability.EndSpan(span, err) }()

	record, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return "", err
	}
	return record.OriginalURL, nil
}

// GetThumbnailURL returns the retrieval URL of the derived thumbnail.
func (s *Service) GetThumbnailURL(ctx context.Context, id string) (url string, err error) {
	ctx, span := observability.StartSpan(ctx, "media.thumbnail_url",
		attribute.String("media.id", id))
	defer func() { observability.EndSpan(span, err) }()

	record, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return "", err
	}
	return record.ThumbnailURL, nil
}
