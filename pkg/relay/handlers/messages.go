package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"relaywire/courier/pkg/relay"
	"relaywire/courier/pkg/telemetry/metrics"
	"relaywire/courier/pkg/upstream"
)

const (
	// defaultMessageLimit is used when limit is absent or unusable.
	defaultMessageLimit = 50

	// maxMessageLimit caps the per-request fetch size.
	maxMessageLimit = 100

	// messagesCacheName labels cache metrics for this endpoint.
	messagesCacheName = "messages"
)

// MessagesHandler serves GET /messages: fetch recent channel messages through
// the advisory cache and return them normalized.
type MessagesHandler struct {
	// Upstream fetches raw message payloads.
	Upstream MessageFetcher

	// Cache stores raw upstream bodies keyed by upstream URL. May be nil.
	Cache ByteCache

	// TTL is the freshness window for cached bodies.
	TTL time.Duration

	// Metrics records cache and request outcomes. May be nil.
	Metrics *metrics.Collector

	// Now is the clock used for timestamp defaulting. Defaults to time.Now.
	Now func() time.Time
}

// NewMessagesHandler creates the /messages handler.
func NewMessagesHandler(up MessageFetcher, cache ByteCache, ttl time.Duration, collector *metrics.Collector) *MessagesHandler {
	return &MessagesHandler{
		Upstream: up,
		Cache:    cache,
		TTL:      ttl,
		Metrics:  collector,
		Now:      time.Now,
	}
}

// ServeHTTP handles the request.
//
// Responses:
//   - 400 {"error":"missing channel_id"} when channel_id is absent
//   - 500 {"error":"server misconfigured"} when no credential is configured
//   - upstream status {"error":"discord_error","status":N,"text":...} on
//     upstream failure
//   - 200 with the normalized message array otherwise
func (h *MessagesHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeMethodNotFound(w)
		return
	}

	channelID := r.URL.Query().Get("channel_id")
	if channelID == "" {
		_ = relay.WriteError(w, http.StatusBadRequest, relay.ErrorBody{
			Error: relay.CodeMissingChannelID,
		})
		return
	}

	limit := parseLimit(r.URL.Query().Get("limit"))

	if !h.Upstream.Configured() {
		slog.Error("rejecting request, upstream token not configured",
			"channel_id", channelID,
		)
		_ = relay.WriteError(w, http.StatusInternalServerError, relay.ErrorBody{
			Error: relay.CodeMisconfigured,
		})
		return
	}

	key := h.Upstream.MessagesURL(channelID, limit)

	if raw, ok := h.cachedBody(r, key); ok {
		normalized, err := relay.NormalizeRaw(raw, h.now())
		if err == nil {
			h.Metrics.RecordCacheHit(messagesCacheName)
			_ = relay.WriteJSON(w, http.StatusOK, normalized)
			return
		}
		// A stale or corrupt cached body is advisory only. Fall through to a
		// live fetch rather than failing the request.
		slog.Warn("cached body failed to parse, refetching",
			"key", key,
			"error", err,
		)
	}
	h.Metrics.RecordCacheMiss(messagesCacheName)

	fetchStart := time.Now()
	raw, err := h.Upstream.FetchMessages(r.Context(), channelID, limit)
	h.Metrics.RecordUpstreamCall(upstreamStatus(err), time.Since(fetchStart).Seconds())
	if err != nil {
		writeUpstreamError(w, err, true)
		return
	}

	normalized, err := relay.NormalizeRaw(raw, h.now())
	if err != nil {
		slog.Error("upstream body failed to parse",
			"channel_id", channelID,
			"error", err,
		)
		_ = relay.WriteError(w, http.StatusInternalServerError, relay.ErrorBody{
			Error:  relay.CodeServerError,
			Detail: err.Error(),
		})
		return
	}

	if h.Cache != nil {
		h.Cache.Set(r.Context(), key, raw, h.TTL)
	}

	_ = relay.WriteJSON(w, http.StatusOK, normalized)
}

// cachedBody returns the cached raw body for key, if present and fresh.
func (h *MessagesHandler) cachedBody(r *http.Request, key string) ([]byte, bool) {
	if h.Cache == nil {
		return nil, false
	}
	return h.Cache.Get(r.Context(), key)
}

// now returns the handler clock, defaulting to time.Now.
func (h *MessagesHandler) now() func() time.Time {
	if h.Now != nil {
		return h.Now
	}
	return time.Now
}

// parseLimit interprets the limit query parameter. Absent, non-numeric, or
// non-positive values degrade to the default; values above the cap clamp to
// it. Limit problems never fail the request.
func parseLimit(raw string) int {
	if raw == "" {
		return defaultMessageLimit
	}

	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return defaultMessageLimit
	}
	if n > maxMessageLimit {
		return maxMessageLimit
	}
	return n
}

// writeMethodNotFound rejects a request whose method is not in the routing
// table. The surface is GET-only (OPTIONS is answered by the CORS middleware
// before routing), and anything else gets the same envelope as an unknown
// path.
func writeMethodNotFound(w http.ResponseWriter) {
	_ = relay.WriteError(w, http.StatusNotFound, relay.ErrorBody{
		Error: relay.CodeNotFound,
	})
}

// upstreamStatus derives the metric status label for an upstream outcome:
// the HTTP status on success or *APIError, 0 when no response was received.
func upstreamStatus(err error) int {
	if err == nil {
		return http.StatusOK
	}
	var apiErr *upstream.APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode
	}
	return 0
}

// writeUpstreamError maps upstream client errors to JSON responses.
// includeText controls whether the upstream body is echoed in the "text"
// field; the lookup endpoint omits it.
func writeUpstreamError(w http.ResponseWriter, err error, includeText bool) {
	if errors.Is(err, upstream.ErrNoToken) {
		_ = relay.WriteError(w, http.StatusInternalServerError, relay.ErrorBody{
			Error: relay.CodeMisconfigured,
		})
		return
	}

	var apiErr *upstream.APIError
	if errors.As(err, &apiErr) {
		body := relay.ErrorBody{
			Error:  relay.CodeUpstreamError,
			Status: apiErr.StatusCode,
		}
		if includeText {
			body.Text = apiErr.Body
		}
		_ = relay.WriteError(w, apiErr.StatusCode, body)
		return
	}

	slog.Error("upstream fetch failed", "error", err)
	_ = relay.WriteError(w, http.StatusInternalServerError, relay.ErrorBody{
		Error:  relay.CodeServerError,
		Detail: err.Error(),
	})
}
