package middleware

import "net/http"

// CORS applies permissive cross-origin headers to every response, including
// errors, so browser consumers can always read the JSON body. The surface is
// read-only, so only GET and OPTIONS are advertised.
//
// The allowed origin is the configured value when set; otherwise the inbound
// Origin header is echoed, falling back to "*". OPTIONS requests to any path
// are answered directly with 204 and no body.
func CORS(allowedOrigin string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := allowedOrigin
			if origin == "" {
				origin = r.Header.Get("Origin")
			}
			if origin == "" {
				origin = "*"
			}

			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Methods", "GET,OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusNoContent)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
