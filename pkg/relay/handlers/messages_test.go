package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"relaywire/courier/pkg/upstream"
)

const sampleBody = `[
	{"id":"2","channel_id":"c1","content":"newer","timestamp":"2025-05-02T00:00:00Z",
	 "author":{"username":"alice","discriminator":"1234"}},
	{"id":"1","channel_id":"c1","content":"older","timestamp":"2025-05-01T00:00:00Z"}
]`

func newMessagesHandler(f *fakeFetcher, c *fakeCache) *MessagesHandler {
	h := NewMessagesHandler(f, nil, 10*time.Second, nil)
	if c != nil {
		h.Cache = c
	}
	h.Now = testNow
	return h
}

func doMessages(t *testing.T, h *MessagesHandler, target string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, target, nil)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func TestMessagesHandler(t *testing.T) {
	t.Run("returns normalized messages", func(t *testing.T) {
		f := newFakeFetcher(sampleBody)
		w := doMessages(t, newMessagesHandler(f, nil), "/messages?channel_id=c1")

		if w.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200, body %s", w.Code, w.Body.String())
		}

		var msgs []map[string]interface{}
		if err := json.Unmarshal(w.Body.Bytes(), &msgs); err != nil {
			t.Fatalf("invalid JSON: %v", err)
		}
		if len(msgs) != 2 {
			t.Fatalf("len = %d, want 2", len(msgs))
		}
		if msgs[0]["id"] != "2" {
			t.Errorf("first id = %v, want upstream order preserved", msgs[0]["id"])
		}
		if msgs[0]["author_name"] != "alice#1234" {
			t.Errorf("author_name = %v", msgs[0]["author_name"])
		}
		if msgs[1]["author_name"] != "Unknown" {
			t.Errorf("authorless message = %v, want Unknown", msgs[1]["author_name"])
		}
	})

	t.Run("non-GET method is a JSON 404", func(t *testing.T) {
		f := newFakeFetcher(sampleBody)
		h := newMessagesHandler(f, nil)

		for _, method := range []string{http.MethodPost, http.MethodPut, http.MethodDelete} {
			req := httptest.NewRequest(method, "/messages?channel_id=c1", nil)
			w := httptest.NewRecorder()
			h.ServeHTTP(w, req)

			if w.Code != http.StatusNotFound {
				t.Errorf("%s status = %d, want 404", method, w.Code)
			}
			var body map[string]interface{}
			_ = json.Unmarshal(w.Body.Bytes(), &body)
			if body["error"] != "not_found" {
				t.Errorf("%s error = %v, want not_found", method, body["error"])
			}
		}
		if f.callCount() != 0 {
			t.Errorf("upstream calls = %d, want 0 for rejected methods", f.callCount())
		}
	})

	t.Run("missing channel_id", func(t *testing.T) {
		f := newFakeFetcher(sampleBody)
		w := doMessages(t, newMessagesHandler(f, nil), "/messages")

		if w.Code != http.StatusBadRequest {
			t.Errorf("status = %d, want 400", w.Code)
		}
		var body map[string]interface{}
		_ = json.Unmarshal(w.Body.Bytes(), &body)
		if body["error"] != "missing channel_id" {
			t.Errorf("error = %v", body["error"])
		}
		if f.callCount() != 0 {
			t.Error("should not fetch upstream on validation failure")
		}
	})

	t.Run("no token configured", func(t *testing.T) {
		f := newFakeFetcher(sampleBody)
		f.configured = false
		w := doMessages(t, newMessagesHandler(f, nil), "/messages?channel_id=c1")

		if w.Code != http.StatusInternalServerError {
			t.Errorf("status = %d, want 500", w.Code)
		}
		var body map[string]interface{}
		_ = json.Unmarshal(w.Body.Bytes(), &body)
		if body["error"] != "server misconfigured" {
			t.Errorf("error = %v", body["error"])
		}
	})

	t.Run("limit defaulting and clamping", func(t *testing.T) {
		tests := []struct {
			name  string
			query string
			want  int
		}{
			{"absent", "", 50},
			{"explicit", "&limit=25", 25},
			{"above cap", "&limit=500", 100},
			{"at cap", "&limit=100", 100},
			{"zero", "&limit=0", 50},
			{"negative", "&limit=-3", 50},
			{"non-numeric", "&limit=abc", 50},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				f := newFakeFetcher(`[]`)
				w := doMessages(t, newMessagesHandler(f, nil), "/messages?channel_id=c1"+tt.query)

				if w.Code != http.StatusOK {
					t.Fatalf("status = %d, want 200", w.Code)
				}
				if f.limitSeen() != tt.want {
					t.Errorf("limit = %d, want %d", f.limitSeen(), tt.want)
				}
			})
		}
	})

	t.Run("second request within TTL is served from cache", func(t *testing.T) {
		f := newFakeFetcher(sampleBody)
		c := newFakeCache()
		h := newMessagesHandler(f, c)

		first := doMessages(t, h, "/messages?channel_id=c1")
		second := doMessages(t, h, "/messages?channel_id=c1")

		if f.callCount() != 1 {
			t.Errorf("upstream calls = %d, want 1", f.callCount())
		}
		if first.Body.String() != second.Body.String() {
			t.Error("cached response should match the original")
		}
	})

	t.Run("different limit is a different cache entry", func(t *testing.T) {
		f := newFakeFetcher(`[]`)
		h := newMessagesHandler(f, newFakeCache())

		doMessages(t, h, "/messages?channel_id=c1&limit=10")
		doMessages(t, h, "/messages?channel_id=c1&limit=20")

		if f.callCount() != 2 {
			t.Errorf("upstream calls = %d, want 2", f.callCount())
		}
	})

	t.Run("corrupt cached body falls through to live fetch", func(t *testing.T) {
		f := newFakeFetcher(`[]`)
		c := newFakeCache()
		h := newMessagesHandler(f, c)
		c.entries[f.MessagesURL("c1", 50)] = []byte(`{not json`)

		w := doMessages(t, h, "/messages?channel_id=c1")

		if w.Code != http.StatusOK {
			t.Errorf("status = %d, want 200", w.Code)
		}
		if f.callCount() != 1 {
			t.Errorf("upstream calls = %d, want 1", f.callCount())
		}
	})

	t.Run("upstream error is passed through", func(t *testing.T) {
		f := newFakeFetcher("")
		f.err = &upstream.APIError{StatusCode: 403, Body: `{"message": "Missing Access", "code": 50001}`}
		w := doMessages(t, newMessagesHandler(f, nil), "/messages?channel_id=c1")

		if w.Code != http.StatusForbidden {
			t.Errorf("status = %d, want 403", w.Code)
		}
		var body map[string]interface{}
		_ = json.Unmarshal(w.Body.Bytes(), &body)
		if body["error"] != "discord_error" {
			t.Errorf("error = %v", body["error"])
		}
		if body["status"] != float64(403) {
			t.Errorf("status field = %v, want 403", body["status"])
		}
		if body["text"] != `{"message": "Missing Access", "code": 50001}` {
			t.Errorf("text = %v, want upstream body", body["text"])
		}
	})

	t.Run("upstream error is not cached", func(t *testing.T) {
		f := newFakeFetcher("")
		f.err = &upstream.APIError{StatusCode: 500, Body: "boom"}
		c := newFakeCache()
		h := newMessagesHandler(f, c)

		doMessages(t, h, "/messages?channel_id=c1")
		doMessages(t, h, "/messages?channel_id=c1")

		if f.callCount() != 2 {
			t.Errorf("upstream calls = %d, want 2 (errors must not be cached)", f.callCount())
		}
		if c.sets != 0 {
			t.Errorf("cache sets = %d, want 0", c.sets)
		}
	})

	t.Run("transport failure yields server_error", func(t *testing.T) {
		f := newFakeFetcher("")
		f.err = &upstream.TransportError{Cause: errDial}
		w := doMessages(t, newMessagesHandler(f, nil), "/messages?channel_id=c1")

		if w.Code != http.StatusInternalServerError {
			t.Errorf("status = %d, want 500", w.Code)
		}
		var body map[string]interface{}
		_ = json.Unmarshal(w.Body.Bytes(), &body)
		if body["error"] != "server_error" {
			t.Errorf("error = %v", body["error"])
		}
		if body["detail"] == nil {
			t.Error("detail should carry the cause")
		}
	})

	t.Run("unparseable upstream success body yields server_error", func(t *testing.T) {
		f := newFakeFetcher(`not json at all`)
		w := doMessages(t, newMessagesHandler(f, nil), "/messages?channel_id=c1")

		if w.Code != http.StatusInternalServerError {
			t.Errorf("status = %d, want 500", w.Code)
		}
	})
}
