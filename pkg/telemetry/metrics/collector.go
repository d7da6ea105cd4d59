// Package metrics provides Prometheus instrumentation for the relay:
// request counts and latencies, cache hit rates, and upstream call outcomes.
package metrics

import (
	"relaywire/courier/pkg/config"

	"github.com/prometheus/client_golang/prometheus"
)

// Collector owns the Prometheus registry and all metric subsystems. A nil
// *Collector is valid and records nothing, so callers never need to branch
// on whether metrics are enabled.
type Collector struct {
	config   *config.MetricsConfig
	registry *prometheus.Registry

	requestMetrics  *RequestMetrics
	cacheMetrics    *CacheMetrics
	upstreamMetrics *UpstreamMetrics
}

// NewCollector creates a collector with the given configuration and registry.
// If registry is nil a fresh private registry is used, which keeps the
// exposition free of default Go runtime collectors registered elsewhere.
func NewCollector(cfg *config.MetricsConfig, registry *prometheus.Registry) *Collector {
	if registry == nil {
		registry = prometheus.NewRegistry()
	}

	if cfg.Namespace == "" {
		cfg.Namespace = "courier"
	}

	c := &Collector{
		config:   cfg,
		registry: registry,
	}

	c.requestMetrics = NewRequestMetrics(cfg, registry)
	c.cacheMetrics = NewCacheMetrics(cfg, registry)
	c.upstreamMetrics = NewUpstreamMetrics(cfg, registry)

	return c
}

// RecordRequest records a completed inbound request.
func (c *Collector) RecordRequest(route, method string, status int, seconds float64) {
	if c == nil || !c.config.Enabled {
		return
	}
	c.requestMetrics.Record(route, method, status, seconds)
}

// RecordCacheHit records a cache hit for the named cache.
func (c *Collector) RecordCacheHit(cacheName string) {
	if c == nil || !c.config.Enabled {
		return
	}
	c.cacheMetrics.RecordHit(cacheName)
}

// RecordCacheMiss records a cache miss for the named cache.
func (c *Collector) RecordCacheMiss(cacheName string) {
	if c == nil || !c.config.Enabled {
		return
	}
	c.cacheMetrics.RecordMiss(cacheName)
}

// UpdateCacheSize updates the entry-count gauge for the named cache.
func (c *Collector) UpdateCacheSize(cacheName string, size int) {
	if c == nil || !c.config.Enabled {
		return
	}
	c.cacheMetrics.UpdateSize(cacheName, size)
}

// RecordUpstreamCall records an upstream fetch outcome. status is the
// upstream HTTP status, or 0 when no response was received.
func (c *Collector) RecordUpstreamCall(status int, seconds float64) {
	if c == nil || !c.config.Enabled {
		return
	}
	c.upstreamMetrics.Record(status, seconds)
}

// Registry returns the Prometheus registry backing this collector.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}
