package middleware

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

// captureLogs redirects the default slog output for the duration of the test.
func captureLogs(t *testing.T) *bytes.Buffer {
	t.Helper()

	var buf bytes.Buffer
	old := slog.Default()
	slog.SetDefault(slog.New(slog.NewJSONHandler(&buf, nil)))
	t.Cleanup(func() { slog.SetDefault(old) })
	return &buf
}

// logLines decodes each JSON log line written during the test.
func logLines(t *testing.T, buf *bytes.Buffer) []map[string]interface{} {
	t.Helper()

	var lines []map[string]interface{}
	for _, raw := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if raw == "" {
			continue
		}
		var line map[string]interface{}
		if err := json.Unmarshal([]byte(raw), &line); err != nil {
			t.Fatalf("log line is not JSON: %q", raw)
		}
		lines = append(lines, line)
	}
	return lines
}

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"ok":true}`))
	})
}

func TestCORS(t *testing.T) {
	t.Run("headers on every response", func(t *testing.T) {
		handler := CORS("")(okHandler())

		req := httptest.NewRequest(http.MethodGet, "/messages", nil)
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)

		if got := w.Header().Get("Access-Control-Allow-Origin"); got != "*" {
			t.Errorf("Allow-Origin = %q, want *", got)
		}
		if got := w.Header().Get("Access-Control-Allow-Methods"); got != "GET,OPTIONS" {
			t.Errorf("Allow-Methods = %q", got)
		}
		if got := w.Header().Get("Access-Control-Allow-Headers"); got != "Content-Type" {
			t.Errorf("Allow-Headers = %q", got)
		}
	})

	t.Run("echoes the request origin when unconfigured", func(t *testing.T) {
		handler := CORS("")(okHandler())

		req := httptest.NewRequest(http.MethodGet, "/messages", nil)
		req.Header.Set("Origin", "https://app.example")
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)

		if got := w.Header().Get("Access-Control-Allow-Origin"); got != "https://app.example" {
			t.Errorf("Allow-Origin = %q, want echoed origin", got)
		}
	})

	t.Run("configured origin wins over request origin", func(t *testing.T) {
		handler := CORS("https://pinned.example")(okHandler())

		req := httptest.NewRequest(http.MethodGet, "/messages", nil)
		req.Header.Set("Origin", "https://other.example")
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)

		if got := w.Header().Get("Access-Control-Allow-Origin"); got != "https://pinned.example" {
			t.Errorf("Allow-Origin = %q, want configured origin", got)
		}
	})

	t.Run("preflight gets 204 on any path", func(t *testing.T) {
		called := false
		handler := CORS("")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			called = true
		}))

		for _, path := range []string{"/messages", "/lookup", "/nope"} {
			req := httptest.NewRequest(http.MethodOptions, path, nil)
			w := httptest.NewRecorder()
			handler.ServeHTTP(w, req)

			if w.Code != http.StatusNoContent {
				t.Errorf("OPTIONS %s status = %d, want 204", path, w.Code)
			}
			if w.Body.Len() != 0 {
				t.Errorf("OPTIONS %s should have no body", path)
			}
			if w.Header().Get("Access-Control-Allow-Origin") == "" {
				t.Errorf("OPTIONS %s missing CORS headers", path)
			}
		}
		if called {
			t.Error("preflight should not reach the next handler")
		}
	})
}

func TestRecovery(t *testing.T) {
	handler := Recovery(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))

	req := httptest.NewRequest(http.MethodGet, "/messages", nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	if w.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", w.Code)
	}

	var body map[string]interface{}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if body["error"] != "server_error" {
		t.Errorf("error = %v, want server_error", body["error"])
	}
	if body["detail"] != "boom" {
		t.Errorf("detail = %v, want panic value", body["detail"])
	}
}

func TestRequestID(t *testing.T) {
	t.Run("generates an ID", func(t *testing.T) {
		var seen string
		handler := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			seen = GetRequestID(r.Context())
		}))

		req := httptest.NewRequest(http.MethodGet, "/health", nil)
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)

		if seen == "" {
			t.Error("request ID should be set in context")
		}
		if got := w.Header().Get(RequestIDHeader); got != seen {
			t.Errorf("header = %q, context = %q; want equal", got, seen)
		}
	})

	t.Run("honors a client-provided ID", func(t *testing.T) {
		handler := RequestID(okHandler())

		req := httptest.NewRequest(http.MethodGet, "/health", nil)
		req.Header.Set(RequestIDHeader, "client-id-42")
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)

		if got := w.Header().Get(RequestIDHeader); got != "client-id-42" {
			t.Errorf("header = %q, want client-id-42", got)
		}
	})
}

func TestChainOrdering(t *testing.T) {
	t.Run("completion log carries the request ID", func(t *testing.T) {
		buf := captureLogs(t)

		// Same nesting the server uses: RequestID outside Logging.
		handler := RequestID(Logging(okHandler()))

		req := httptest.NewRequest(http.MethodGet, "/health", nil)
		req.Header.Set(RequestIDHeader, "corr-7")
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)

		var found bool
		for _, line := range logLines(t, buf) {
			if line["msg"] == "request completed" {
				found = true
				if line["request_id"] != "corr-7" {
					t.Errorf("request_id = %v, want corr-7", line["request_id"])
				}
			}
		}
		if !found {
			t.Fatal("no completion log line written")
		}
	})

	t.Run("panic log falls back to the response header ID", func(t *testing.T) {
		buf := captureLogs(t)

		handler := Recovery(RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			panic("boom")
		})))

		req := httptest.NewRequest(http.MethodGet, "/messages", nil)
		req.Header.Set(RequestIDHeader, "corr-9")
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)

		var found bool
		for _, line := range logLines(t, buf) {
			if line["msg"] == "panic in handler" {
				found = true
				if line["request_id"] != "corr-9" {
					t.Errorf("request_id = %v, want corr-9", line["request_id"])
				}
			}
		}
		if !found {
			t.Fatal("no panic log line written")
		}
	})
}

func TestLogging(t *testing.T) {
	t.Run("captures status through the wrapper", func(t *testing.T) {
		handler := Logging(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if GetStartTime(r.Context()).IsZero() {
				t.Error("start time should be set in context")
			}
			w.WriteHeader(http.StatusTeapot)
		}))

		req := httptest.NewRequest(http.MethodGet, "/health", nil)
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)

		if w.Code != http.StatusTeapot {
			t.Errorf("status = %d, want passthrough", w.Code)
		}
	})

	t.Run("implicit 200 on bare write", func(t *testing.T) {
		handler := Logging(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte("hi"))
		}))

		req := httptest.NewRequest(http.MethodGet, "/health", nil)
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)

		if w.Code != http.StatusOK {
			t.Errorf("status = %d, want 200", w.Code)
		}
	})
}
