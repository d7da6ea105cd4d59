// Package handlers implements the relay's HTTP endpoints: health, the cached
// message proxy, and the registration lookup.
package handlers

import (
	"context"
	"time"
)

// MessageFetcher fetches raw channel messages from the upstream API.
// *upstream.Client satisfies this; tests substitute fakes.
type MessageFetcher interface {
	// MessagesURL builds the upstream URL for a fetch. The exact string is
	// used as the cache key, so equal parameters must yield equal strings.
	MessagesURL(channelID string, limit int) string

	// FetchMessages returns the raw upstream response body.
	FetchMessages(ctx context.Context, channelID string, limit int) ([]byte, error)

	// Configured reports whether the upstream credential is available.
	Configured() bool
}

// ByteCache is the advisory cache consulted by the message proxy. Failures
// and races only cost an extra upstream fetch, never correctness.
type ByteCache interface {
	Get(ctx context.Context, key string) ([]byte, bool)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration)
}
