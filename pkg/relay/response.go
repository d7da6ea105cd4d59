package relay

import (
	"encoding/json"
	"fmt"
	"net/http"
)

// Machine-readable error codes returned in the "error" field.
const (
	CodeNotFound            = "not_found"
	CodeMissingChannelID    = "missing channel_id"
	CodeMissingLookupParams = "missing channel_id or username"
	CodeMisconfigured       = "server misconfigured"
	CodeUpstreamError       = "discord_error"
	CodeServerError         = "server_error"
)

// ErrorBody is the JSON error envelope shared by all error responses.
type ErrorBody struct {
	// Error is the machine-readable error code.
	Error string `json:"error"`

	// Status is the upstream status code for discord_error responses.
	Status int `json:"status,omitempty"`

	// Text is the upstream diagnostic body for discord_error responses.
	Text string `json:"text,omitempty"`

	// Detail is the stringified cause for server_error responses.
	Detail string `json:"detail,omitempty"`
}

// WriteJSON writes a JSON response with the given status code.
// CORS headers are applied by middleware, not here.
func WriteJSON(w http.ResponseWriter, statusCode int, data interface{}) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		return fmt.Errorf("failed to encode JSON response: %w", err)
	}

	return nil
}

// WriteError writes a JSON error envelope with the given status code.
func WriteError(w http.ResponseWriter, statusCode int, body ErrorBody) error {
	return WriteJSON(w, statusCode, body)
}
