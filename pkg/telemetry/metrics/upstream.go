package metrics

import (
	"strconv"

	"relaywire/courier/pkg/config"

	"github.com/prometheus/client_golang/prometheus"
)

// UpstreamMetrics tracks calls to the chat platform API.
//
// Metrics:
//   - courier_upstream_requests_total: upstream calls by status code
//     ("0" means no response was received)
//   - courier_upstream_duration_seconds: upstream call latency histogram
type UpstreamMetrics struct {
	requestsTotal *prometheus.CounterVec
	duration      prometheus.Histogram
}

// NewUpstreamMetrics creates and registers upstream metrics with the registry.
func NewUpstreamMetrics(cfg *config.MetricsConfig, registry *prometheus.Registry) *UpstreamMetrics {
	um := &UpstreamMetrics{
		requestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "upstream_requests_total",
				Help:      "Total number of upstream API calls by status",
			},
			[]string{"status"},
		),

		duration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "upstream_duration_seconds",
				Help:      "Duration of upstream API calls in seconds",
				Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0, 10.0, 25.0},
			},
		),
	}

	registry.MustRegister(
		um.requestsTotal,
		um.duration,
	)

	return um
}

// Record records an upstream call outcome.
func (um *UpstreamMetrics) Record(status int, seconds float64) {
	um.requestsTotal.WithLabelValues(strconv.Itoa(status)).Inc()
	um.duration.Observe(seconds)
}
