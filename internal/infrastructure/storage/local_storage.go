package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"media-server/internal/config"
	"media-server/internal/infrastructure/metrics"
)

var errLocalStorageDisabled = errors.New("local storage is not configured; set MEDIA_LOCAL_STORAGE_PATH to enable")

// LocalStorage stores blobs on the local filesystem. Intended for
// development; retrieval URLs are built from a configured base URL.
type LocalStorage struct {
	basePath string
	baseURL  string
	log      zerolog.Logger
	disabled bool
}

// NewLocalStorage creates a new local filesystem storage backend.
func NewLocalStorage(cfg *config.Config, log zerolog.Logger) (*LocalStorage, error) {
	logger := log.With().Str("component", "local-storage").Logger()

	basePath := strings.TrimSpace(cfg.LocalStoragePath)
	if basePath == "" {
		logger.Warn().Msg("MEDIA_LOCAL_STORAGE_PATH is not set; local storage will be disabled")
		return &LocalStorage{
			log:      logger,
			disabled: true,
		}, nil
	}

	if err := os.MkdirAll(basePath, 0755); err != nil {
		return nil, fmt.Errorf("failed to create local storage directory: %w", err)
	}

	storage := &LocalStorage{
		basePath: basePath,
		baseURL:  strings.TrimSpace(cfg.LocalStorageBaseURL),
		log:      logger,
	}

	logger.Info().
		Str("path", basePath).
		Str("base_url", storage.baseURL).
		Msg("local storage initialized")

	return storage, nil
}

func (l *LocalStorage) ensureEnabled() error {
	if l.disabled {
		return errLocalStorageDisabled
	}
	return nil
}

// Upload stores a blob on the local filesystem and returns its URL.
func (l *LocalStorage) Upload(ctx context.Context, key string, body io.Reader, size int64, contentType string) (string, error) {
	if err := l.ensureEnabled(); err != nil {
		return "", err
	}

	start := time.Now()
	fullPath := filepath.Join(l.basePath, filepath.FromSlash(key))
	if err := os.MkdirAll(filepath.Dir(fullPath), 0755); err != nil {
		metrics.RecordStorageOperation("write_file", "error", time.Since(start).Seconds())
		return "", fmt.Errorf("failed to create directory: %w", err)
	}

	file, err := os.Create(fullPath)
	if err != nil {
		metrics.RecordStorageOperation("write_file", "error", time.Since(start).Seconds())
		return "", fmt.Errorf("failed to create file: %w", err)
	}
	defer file.Close()

	written, err := io.Copy(file, body)
	if err != nil {
		metrics.RecordStorageOperation("write_file", "error", time.Since(start).Seconds())
		return "", fmt.Errorf("failed to write file: %w", err)
	}
	metrics.RecordStorageOperation("write_file", "success", time.Since(start).Seconds())

	l.log.Debug().
		Str("key", key).
		Int64("bytes", written).
		Msg("file uploaded to local storage")

	return l.publicURL(key), nil
}

func (l *LocalStorage) publicURL(key string) string {
	urlKey := filepath.ToSlash(key)
	if l.baseURL == "" {
		return urlKey
	}
	return fmt.Sprintf("%s/%s", strings.TrimSuffix(l.baseURL, "/"), urlKey)
}
