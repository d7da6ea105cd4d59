package middleware

import (
	"fmt"
	"log/slog"
	"net/http"
	"runtime/debug"

	"relaywire/courier/pkg/relay"
)

// Recovery recovers from panics in HTTP handlers and returns a 500 with the
// server_error envelope. The panic value is echoed in the detail field and
// logged with a stack trace; the stack itself is never sent to the client.
func Recovery(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if err := recover(); err != nil {
				// Recovery sits outside RequestID, so the ID is not in this
				// request's context; the inner middleware has already echoed
				// it into the response header.
				requestID := GetRequestID(r.Context())
				if requestID == "" {
					requestID = w.Header().Get(RequestIDHeader)
				}

				slog.ErrorContext(r.Context(), "panic in handler",
					"error", err,
					"request_id", requestID,
					"method", r.Method,
					"path", r.URL.Path,
					"stack", string(debug.Stack()),
				)

				_ = relay.WriteError(w, http.StatusInternalServerError, relay.ErrorBody{
					Error:  relay.CodeServerError,
					Detail: fmt.Sprint(err),
				})
			}
		}()

		next.ServeHTTP(w, r)
	})
}
