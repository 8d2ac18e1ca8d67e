// Package cache implements the cache-aside discipline around the metadata
// repository: time-boxed read-through caching and write-time invalidation.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"media-server/internal/infrastructure/metrics"
)

// ErrCacheMiss is returned by Store.Get when the key is absent. A miss is a
// normal condition in the cache-aside pattern, not a failure.
var ErrCacheMiss = errors.New("cache: key not found")

// Store is the backing key-value store. Implementations must provide atomic
// per-key get/set/delete; nothing more is assumed.
type Store interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value string, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

// Engine wraps repository reads behind a time-boxed cache and performs
// write-time invalidation. Entries are trusted until their TTL expires; the
// TTL is a documented staleness bound, not a freshness guarantee.
type Engine struct {
	store              Store
	log                zerolog.Logger
	strictInvalidation bool
}

// Option configures an Engine.
type Option func(*Engine)

// WithStrictInvalidation makes Invalidate surface store errors instead of
// logging and swallowing them.
func WithStrictInvalidation() Option {
	return func(e *Engine) {
		e.strictInvalidation = true
	}
}

func NewEngine(store Store, log zerolog.Logger, opts ...Option) *Engine {
	engine := &Engine{
		store: store,
		log:   log.With().Str("component", "cache-engine").Logger(),
	}
	for _, opt := range opts {
		opt(engine)
	}
	return engine
}

// ReadThrough looks up key in the cache. On a hit the cached JSON snapshot is
// decoded and returned without invoking loader. On a miss, loader is invoked,
// its result stored under key with the given TTL, and returned.
//
// The cache is never a hard dependency for correctness: a failing store
// degrades to a direct loader call, and a failed populate is logged and
// swallowed. Concurrent misses on the same key may each invoke loader and
// each write the cache (last-write-wins); the loaded values are equivalent
// reads of the same data, so no per-key coalescing is attempted.
func ReadThrough[T any](ctx context.Context, e *Engine, key string, ttl time.Duration, loader func(context.Context) (T, error)) (T, error) {
	var zero T

	populate := true
	raw, err := e.store.Get(ctx, key)
	switch {
	case err == nil:
		var cached T
		if unmarshalErr := json.Unmarshal([]byte(raw), &cached); unmarshalErr == nil {
			metrics.RecordCacheRead("hit")
			return cached, nil
		}
		// A snapshot that no longer decodes is treated as a miss; drop it so
		// the repopulated entry replaces it.
		e.log.Warn().Str("key", key).Msg("dropping undecodable cache entry")
		if delErr := e.store.Delete(ctx, key); delErr != nil {
			e.log.Warn().Err(delErr).Str("key", key).Msg("failed to drop undecodable cache entry")
		}
		metrics.RecordCacheRead("miss")
	case errors.Is(err, ErrCacheMiss):
		metrics.RecordCacheRead("miss")
	default:
		// Backend unreachable: serve the read directly from the loader and
		// skip repopulation, the store is presumed down.
		e.log.Warn().Err(err).Str("key", key).Msg("cache read failed, degrading to direct load")
		metrics.RecordCacheRead("error")
		populate = false
	}

	value, err := loader(ctx)
	if err != nil {
		return zero, err
	}

	if populate {
		if data, marshalErr := json.Marshal(value); marshalErr != nil {
			e.log.Warn().Err(marshalErr).Str("key", key).Msg("failed to encode value for cache")
		} else if setErr := e.store.Set(ctx, key, string(data), ttl); setErr != nil {
			e.log.Warn().Err(setErr).Str("key", key).Msg("failed to populate cache")
		}
	}

	return value, nil
}

// Invalidate unconditionally deletes key from the cache. Deleting an absent
// key is a no-op. Store errors are logged and swallowed unless the engine
// was built with WithStrictInvalidation.
func (e *Engine) Invalidate(ctx context.Context, key string) error {
	if err := e.store.Delete(ctx, key); err != nil {
		metrics.RecordCacheInvalidation("error")
		if e.strictInvalidation {
			return err
		}
		e.log.Error().Err(err).Str("key", key).Msg("cache invalidation failed; readers may see a stale entry until TTL expiry")
		return nil
	}
	metrics.RecordCacheInvalidation("ok")
	return nil
}
