// Package middleware contains the HTTP middleware chain for the relay:
// request IDs, structured request logging, panic recovery, permissive CORS,
// and request metrics.
package middleware

// contextKey is a custom type for context keys to avoid collisions.
type contextKey string

// Context keys for storing values in request context.
const (
	// RequestIDKey stores the unique request ID.
	RequestIDKey contextKey = "request_id"

	// StartTimeKey stores the request start time for latency calculation.
	StartTimeKey contextKey = "start_time"
)
