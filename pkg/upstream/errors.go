package upstream

import (
	"errors"
	"fmt"
	"time"
)

// ErrNoToken indicates the bot credential is not configured.
// Handlers translate this into a "server misconfigured" response.
var ErrNoToken = errors.New("upstream token not configured")

// APIError represents a non-success response from the upstream API.
// The status code and body are propagated verbatim to the caller.
type APIError struct {
	// StatusCode is the HTTP status code returned by upstream
	StatusCode int

	// Body is the raw response body text (diagnostic, untrusted)
	Body string
}

// Error implements the error interface.
func (e *APIError) Error() string {
	return fmt.Sprintf("upstream error (status %d): %s", e.StatusCode, e.Body)
}

// TimeoutError represents an upstream request that exceeded the configured
// timeout or was cancelled.
type TimeoutError struct {
	// Timeout is the configured request timeout
	Timeout time.Duration
}

// Error implements the error interface.
func (e *TimeoutError) Error() string {
	return fmt.Sprintf("upstream request timeout after %s", e.Timeout)
}

// TransportError represents a network-level failure before any upstream
// response was received.
type TransportError struct {
	// Cause is the underlying transport error
	Cause error
}

// Error implements the error interface.
func (e *TransportError) Error() string {
	return fmt.Sprintf("upstream request failed: %v", e.Cause)
}

// Unwrap returns the underlying error for error chain support.
func (e *TransportError) Unwrap() error {
	return e.Cause
}
