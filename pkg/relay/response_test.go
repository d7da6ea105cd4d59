package relay

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestWriteJSON(t *testing.T) {
	w := httptest.NewRecorder()

	if err := WriteJSON(w, http.StatusOK, map[string]bool{"ok": true}); err != nil {
		t.Fatalf("WriteJSON() error = %v", err)
	}

	if w.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %q, want application/json", ct)
	}

	var body map[string]bool
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("response is not valid JSON: %v", err)
	}
	if !body["ok"] {
		t.Error("body should round-trip")
	}
}

func TestWriteError(t *testing.T) {
	t.Run("plain error code", func(t *testing.T) {
		w := httptest.NewRecorder()

		_ = WriteError(w, http.StatusBadRequest, ErrorBody{Error: CodeMissingChannelID})

		if w.Code != http.StatusBadRequest {
			t.Errorf("status = %d, want 400", w.Code)
		}

		var body map[string]interface{}
		_ = json.Unmarshal(w.Body.Bytes(), &body)

		if body["error"] != "missing channel_id" {
			t.Errorf("error = %v, want missing channel_id", body["error"])
		}
		// Optional fields must be omitted when unset.
		for _, field := range []string{"status", "text", "detail"} {
			if _, ok := body[field]; ok {
				t.Errorf("field %q should be omitted", field)
			}
		}
	})

	t.Run("upstream error carries status and text", func(t *testing.T) {
		w := httptest.NewRecorder()

		_ = WriteError(w, http.StatusForbidden, ErrorBody{
			Error:  CodeUpstreamError,
			Status: 403,
			Text:   "Missing Access",
		})

		var body map[string]interface{}
		_ = json.Unmarshal(w.Body.Bytes(), &body)

		if body["error"] != "discord_error" {
			t.Errorf("error = %v", body["error"])
		}
		if body["status"] != float64(403) {
			t.Errorf("status = %v, want 403", body["status"])
		}
		if body["text"] != "Missing Access" {
			t.Errorf("text = %v", body["text"])
		}
	})
}
