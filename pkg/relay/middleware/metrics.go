package middleware

import (
	"net/http"
	"time"

	"relaywire/courier/pkg/telemetry/metrics"
)

// Metrics records per-request Prometheus metrics. The route label is the
// request path, which is bounded by the fixed routing table; unknown paths
// are all served by the fallback handler and labeled "other" to keep
// cardinality flat.
func Metrics(collector *metrics.Collector, knownRoutes ...string) func(http.Handler) http.Handler {
	known := make(map[string]struct{}, len(knownRoutes))
	for _, route := range knownRoutes {
		known[route] = struct{}{}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rw := newResponseWriter(w)

			next.ServeHTTP(rw, r)

			route := r.URL.Path
			if _, ok := known[route]; !ok {
				route = "other"
			}
			collector.RecordRequest(route, r.Method, rw.statusCode, time.Since(start).Seconds())
		})
	}
}
