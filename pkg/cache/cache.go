// Package cache provides the per-run memoization store shared by all
// collectors and enrichers.
//
// The package has two layers:
//
//   - [Cache] is a byte-level backend interface with [Memory] (the default,
//     process-scoped) and [NullCache] (disabled) implementations.
//   - [Run] sits on top and memoizes typed JSON values under a
//     (namespace, key) pair, including negative results: a lookup that ended
//     in [ErrNotFound] is stored and replayed without re-fetching.
//
// Everything a Run stores is discarded when the process exits; there is no
// cross-run state.
package cache

import (
	"context"
	"errors"
	"time"
)

// Sentinel errors for caching and fetch operations.
var (
	// ErrNotFound is returned when a requested item does not exist upstream.
	// Run memoizes this outcome so the lookup is not repeated within a run.
	ErrNotFound = errors.New("not found")

	// ErrCacheMiss is returned when an item is not found in cache.
	ErrCacheMiss = errors.New("cache miss")
)

// Cache is a byte-level cache backend.
//
// Implementations must be safe for concurrent use. The ttl parameter may be
// ignored by backends that never expire entries (the in-memory backend lives
// only as long as the run anyway).
type Cache interface {
	// Get retrieves a value. The second return value reports whether the
	// key was present.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores a value under key.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error

	// Delete removes a value. Deleting an absent key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases backend resources.
	Close() error
}
