package handlers

import (
	"log/slog"
	"net/http"
	"time"

	"relaywire/courier/pkg/relay"
	"relaywire/courier/pkg/telemetry/metrics"
)

// lookupFetchLimit is the number of recent messages scanned per lookup.
// Deeper history is invisible to this endpoint.
const lookupFetchLimit = 200

// lookupResponse is the registration lookup body. The miss shape is just
// {"found":false}; the remaining fields only appear on a hit.
type lookupResponse struct {
	Found     bool   `json:"found"`
	MessageID string `json:"messageId,omitempty"`
	ChannelID string `json:"channelId,omitempty"`
	Raw       string `json:"raw,omitempty"`
	TS        string `json:"ts,omitempty"`
}

// LookupHandler serves GET /lookup: scan a channel's recent messages for a
// registration record matching a username. Lookups always fetch live; the
// advisory cache is bypassed so a registration posted seconds ago is found.
type LookupHandler struct {
	// Upstream fetches raw message payloads.
	Upstream MessageFetcher

	// Metrics records request outcomes. May be nil.
	Metrics *metrics.Collector

	// Now is the clock used for timestamp defaulting. Defaults to time.Now.
	Now func() time.Time
}

// NewLookupHandler creates the /lookup handler.
func NewLookupHandler(up MessageFetcher, collector *metrics.Collector) *LookupHandler {
	return &LookupHandler{
		Upstream: up,
		Metrics:  collector,
		Now:      time.Now,
	}
}

// ServeHTTP handles the request.
//
// Responses:
//   - 400 {"error":"missing channel_id or username"} when either is absent
//   - 500 {"error":"server misconfigured"} when no credential is configured
//   - upstream status {"error":"discord_error","status":N} on upstream failure
//   - 200 {"found":true,...} or {"found":false}; a clean miss is not an error
func (h *LookupHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeMethodNotFound(w)
		return
	}

	channelID := r.URL.Query().Get("channel_id")
	username := r.URL.Query().Get("username")
	if channelID == "" || username == "" {
		_ = relay.WriteError(w, http.StatusBadRequest, relay.ErrorBody{
			Error: relay.CodeMissingLookupParams,
		})
		return
	}

	if !h.Upstream.Configured() {
		slog.Error("rejecting lookup, upstream token not configured",
			"channel_id", channelID,
		)
		_ = relay.WriteError(w, http.StatusInternalServerError, relay.ErrorBody{
			Error: relay.CodeMisconfigured,
		})
		return
	}

	fetchStart := time.Now()
	raw, err := h.Upstream.FetchMessages(r.Context(), channelID, lookupFetchLimit)
	h.Metrics.RecordUpstreamCall(upstreamStatus(err), time.Since(fetchStart).Seconds())
	if err != nil {
		writeUpstreamError(w, err, false)
		return
	}

	msgs, err := relay.ParseMessages(raw)
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

	reg, found := relay.FindRegistration(msgs, username, h.now())
	if !found {
		_ = relay.WriteJSON(w, http.StatusOK, lookupResponse{Found: false})
		return
	}

	channel := reg.ChannelID
	if channel == "" {
		channel = channelID
	}

	_ = relay.WriteJSON(w, http.StatusOK, lookupResponse{
		Found:     true,
		MessageID: reg.MessageID,
		ChannelID: channel,
		Raw:       reg.Raw,
		TS:        reg.Timestamp,
	})
}

// now returns the handler clock, defaulting to time.Now.
func (h *LookupHandler) now() func() time.Time {
	if h.Now != nil {
		return h.Now
	}
	return time.Now
}
