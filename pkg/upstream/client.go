// Package upstream implements the read-only client for the chat platform's
// message-retrieval REST API.
//
// The client performs exactly one attempt per call: failures are surfaced
// immediately to the caller, which reports them on the same request. There is
// no retry, backoff, or circuit breaking.
package upstream

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"relaywire/courier/pkg/secrets"
)

// Config contains the upstream client configuration.
type Config struct {
	// BaseURL is the API base, e.g. "https://discord.com/api/v10".
	BaseURL string

	// Timeout is the per-request timeout.
	Timeout time.Duration

	// MaxIdleConns caps idle connections across all hosts.
	MaxIdleConns int

	// MaxIdleConnsPerHost caps idle connections per host.
	MaxIdleConnsPerHost int

	// IdleConnTimeout is how long idle connections are kept open.
	IdleConnTimeout time.Duration
}

// Client fetches channel messages from the upstream API.
type Client struct {
	config Config
	client *http.Client
	tokens secrets.TokenSource
}

// New creates a new upstream client with connection pooling.
func New(cfg Config, tokens secrets.TokenSource) *Client {
	transport := &http.Transport{
		MaxIdleConns:        cfg.MaxIdleConns,
		MaxIdleConnsPerHost: cfg.MaxIdleConnsPerHost,
		IdleConnTimeout:     cfg.IdleConnTimeout,
		ForceAttemptHTTP2:   true,
	}

	return &Client{
		config: cfg,
		client: &http.Client{
			Transport: transport,
			Timeout:   cfg.Timeout,
		},
		tokens: tokens,
	}
}

// Configured reports whether the bot credential is available.
func (c *Client) Configured() bool {
	return c.tokens.Token() != ""
}

// MessagesURL builds the upstream URL for a channel's messages. The exact
// string doubles as the cache key for /messages responses.
func (c *Client) MessagesURL(channelID string, limit int) string {
	return fmt.Sprintf("%s/channels/%s/messages?limit=%d",
		strings.TrimRight(c.config.BaseURL, "/"),
		url.PathEscape(channelID),
		limit,
	)
}

// FetchMessages performs an authenticated GET for up to limit messages from
// the channel and returns the raw response body. The body is returned
// unparsed so it can be cached verbatim.
//
// Non-success upstream responses are returned as *APIError carrying the
// upstream status code and body text.
func (c *Client) FetchMessages(ctx context.Context, channelID string, limit int) ([]byte, error) {
	token := c.tokens.Token()
	if token == "" {
		return nil, ErrNoToken
	}

	reqURL := c.MessagesURL(channelID, limit)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bot "+token)
	req.Header.Set("Accept", "application/json")

	slog.Debug("fetching upstream messages",
		"channel_id", channelID,
		"limit", limit,
	)

	start := time.Now()
	resp, err := c.client.Do(req)
	if err != nil {
		// The client's own deadline surfaces as a timeout-flagged url.Error
		// with the caller context still live.
		var urlErr *url.Error
		if ctx.Err() != nil || (errors.As(err, &urlErr) && urlErr.Timeout()) {
			return nil, &TimeoutError{Timeout: c.config.Timeout}
		}
		return nil, &TransportError{Cause: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &TransportError{Cause: fmt.Errorf("failed to read response: %w", err)}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		slog.Warn("upstream returned error status",
			"status", resp.StatusCode,
			"channel_id", channelID,
			"latency_ms", time.Since(start).Milliseconds(),
		)
		return nil, &APIError{
			StatusCode: resp.StatusCode,
			Body:       string(body),
		}
	}

	slog.Debug("upstream fetch completed",
		"status", resp.StatusCode,
		"bytes", len(body),
		"latency_ms", time.Since(start).Milliseconds(),
	)

	return body, nil
}

// Close releases idle connections.
func (c *Client) Close() error {
	c.client.CloseIdleConnections()
	return nil
}
