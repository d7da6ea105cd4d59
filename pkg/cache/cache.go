// Package cache provides the advisory response cache used by the relay.
//
// The cache stores raw upstream response bodies keyed by the exact upstream
// URL. It is best-effort only: a miss (or any backend failure) triggers a live
// upstream fetch, never an error to the caller. Races between concurrent
// requests populating the same key are acceptable; last write wins and both
// writes contain equivalent data.
package cache

import (
	"context"
	"time"
)

// Cache is the injectable key-value store for raw upstream bodies.
// Implementations must be safe for concurrent use.
type Cache interface {
	// Get returns the cached body for key, or (nil, false) when the key is
	// absent or expired.
	Get(ctx context.Context, key string) ([]byte, bool)

	// Set stores a body under key with the given freshness window.
	// Failures are swallowed; the cache is advisory.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration)

	// Len returns the current number of entries (including not-yet-swept
	// expired ones for backends that sweep lazily).
	Len() int

	// Close releases backend resources. The cache must not be used after.
	Close() error
}

// Prunable is implemented by backends that support explicit removal of
// expired entries, for use with the cron Pruner.
type Prunable interface {
	// Prune removes entries that expired before now and reports how many
	// were deleted.
	Prune(ctx context.Context, now time.Time) (int, error)
}
