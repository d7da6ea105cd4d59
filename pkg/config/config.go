// Package config provides configuration loading, defaulting, and validation
// for the Courier relay. Configuration is read from a YAML file and may be
// overridden by COURIER_* environment variables.
package config

import "time"

// Config is the root configuration for the relay.
type Config struct {
	// Proxy contains the inbound HTTP server settings.
	Proxy ProxyConfig `yaml:"proxy"`

	// Upstream contains the chat platform API client settings.
	Upstream UpstreamConfig `yaml:"upstream"`

	// Cache contains the advisory response cache settings.
	Cache CacheConfig `yaml:"cache"`

	// Telemetry contains logging and metrics settings.
	Telemetry TelemetryConfig `yaml:"telemetry"`
}

// ProxyConfig contains settings for the inbound HTTP server.
type ProxyConfig struct {
	// ListenAddress is the address the server binds to (e.g., ":8787").
	ListenAddress string `yaml:"listen_address"`

	// ReadTimeout is the maximum duration for reading the request.
	ReadTimeout time.Duration `yaml:"read_timeout"`

	// WriteTimeout is the maximum duration for writing the response.
	WriteTimeout time.Duration `yaml:"write_timeout"`

	// IdleTimeout is the maximum duration to wait for the next request.
	IdleTimeout time.Duration `yaml:"idle_timeout"`

	// MaxHeaderBytes limits the size of request headers.
	MaxHeaderBytes int `yaml:"max_header_bytes"`

	// ShutdownTimeout is the grace period for in-flight requests on shutdown.
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`

	// CORS contains cross-origin settings for the JSON surface.
	CORS CORSConfig `yaml:"cors"`
}

// CORSConfig contains cross-origin settings.
//
// Every JSON response carries Access-Control-Allow-Origin. When AllowedOrigin
// is empty the inbound request's Origin header is echoed, falling back to "*".
type CORSConfig struct {
	// AllowedOrigin is the fixed origin to allow. Empty means echo/wildcard.
	AllowedOrigin string `yaml:"allowed_origin"`
}

// UpstreamConfig contains settings for the chat platform REST client.
type UpstreamConfig struct {
	// BaseURL is the upstream API base (e.g., "https://discord.com/api/v10").
	BaseURL string `yaml:"base_url"`

	// Token is the bot credential sent as "Authorization: Bot <token>".
	// Leave empty to load from TokenFile or the COURIER_UPSTREAM_TOKEN
	// environment variable. A missing token is not a startup error; requests
	// that need it fail with "server misconfigured".
	Token string `yaml:"token"`

	// TokenFile is a path to a file containing the token. When set it takes
	// precedence over Token and is watched for changes.
	TokenFile string `yaml:"token_file"`

	// Timeout is the per-request timeout for upstream calls.
	Timeout time.Duration `yaml:"timeout"`

	// MaxIdleConns caps idle connections across all hosts.
	MaxIdleConns int `yaml:"max_idle_conns"`

	// MaxIdleConnsPerHost caps idle connections per host.
	MaxIdleConnsPerHost int `yaml:"max_idle_conns_per_host"`

	// IdleConnTimeout is how long idle connections are kept open.
	IdleConnTimeout time.Duration `yaml:"idle_conn_timeout"`
}

// CacheConfig contains settings for the advisory response cache.
type CacheConfig struct {
	// Backend selects the cache implementation: "memory" or "sqlite".
	Backend string `yaml:"backend"`

	// TTL is the freshness window for cached upstream bodies.
	TTL time.Duration `yaml:"ttl"`

	// MaxEntries caps the in-memory cache size (0 = unlimited).
	MaxEntries int `yaml:"max_entries"`

	// SQLite configures the sqlite backend. Ignored for the memory backend.
	SQLite SQLiteCacheConfig `yaml:"sqlite"`
}

// SQLiteCacheConfig configures the sqlite cache backend.
type SQLiteCacheConfig struct {
	// Path is the database file path.
	Path string `yaml:"path"`

	// BusyTimeout is how long to wait for locks before failing.
	BusyTimeout time.Duration `yaml:"busy_timeout"`

	// PruneSchedule is a cron expression for sweeping expired rows
	// (e.g., "*/5 * * * *"). Empty disables scheduled pruning.
	PruneSchedule string `yaml:"prune_schedule"`
}

// TelemetryConfig contains logging and metrics settings.
type TelemetryConfig struct {
	Logging LoggingConfig `yaml:"logging"`
	Metrics MetricsConfig `yaml:"metrics"`
}

// LoggingConfig contains structured logging settings.
type LoggingConfig struct {
	// Level is the minimum log level: "debug", "info", "warn", "error".
	Level string `yaml:"level"`

	// Format is the log output format: "json" or "text".
	Format string `yaml:"format"`
}

// MetricsConfig contains Prometheus metrics settings.
type MetricsConfig struct {
	// Enabled controls whether the metrics endpoint is exposed.
	Enabled bool `yaml:"enabled"`

	// Path is the metrics endpoint path (typically "/metrics").
	Path string `yaml:"path"`

	// Namespace is the metric name prefix.
	Namespace string `yaml:"namespace"`

	// Subsystem is the optional metric subsystem.
	Subsystem string `yaml:"subsystem"`
}
