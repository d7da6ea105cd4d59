package config

import (
	"fmt"
	"net/url"
)

// Validate checks the configuration for invalid or inconsistent values.
//
// A missing upstream token is deliberately not a validation error: the relay
// starts without one and answers credentialed routes with "server
// misconfigured" until a token is provided.
func Validate(cfg *Config) error {
	if cfg.Proxy.ListenAddress == "" {
		return fmt.Errorf("proxy.listen_address must not be empty")
	}
	if cfg.Proxy.ReadTimeout < 0 || cfg.Proxy.WriteTimeout < 0 || cfg.Proxy.IdleTimeout < 0 {
		return fmt.Errorf("proxy timeouts must not be negative")
	}
	if cfg.Proxy.MaxHeaderBytes < 0 {
		return fmt.Errorf("proxy.max_header_bytes must not be negative")
	}

	if cfg.Upstream.BaseURL == "" {
		return fmt.Errorf("upstream.base_url must not be empty")
	}
	u, err := url.Parse(cfg.Upstream.BaseURL)
	if err != nil {
		return fmt.Errorf("upstream.base_url is not a valid URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("upstream.base_url must use http or https, got %q", u.Scheme)
	}
	if cfg.Upstream.Timeout <= 0 {
		return fmt.Errorf("upstream.timeout must be positive")
	}

	switch cfg.Cache.Backend {
	case "memory":
		// No further requirements.
	case "sqlite":
		if cfg.Cache.SQLite.Path == "" {
			return fmt.Errorf("cache.sqlite.path is required for the sqlite backend")
		}
	default:
		return fmt.Errorf("cache.backend must be \"memory\" or \"sqlite\", got %q", cfg.Cache.Backend)
	}
	if cfg.Cache.TTL <= 0 {
		return fmt.Errorf("cache.ttl must be positive")
	}
	if cfg.Cache.MaxEntries < 0 {
		return fmt.Errorf("cache.max_entries must not be negative")
	}

	switch cfg.Telemetry.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("telemetry.logging.level must be one of debug, info, warn, error; got %q",
			cfg.Telemetry.Logging.Level)
	}
	switch cfg.Telemetry.Logging.Format {
	case "json", "text":
	default:
		return fmt.Errorf("telemetry.logging.format must be \"json\" or \"text\", got %q",
			cfg.Telemetry.Logging.Format)
	}

	if cfg.Telemetry.Metrics.Enabled && cfg.Telemetry.Metrics.Path == "" {
		return fmt.Errorf("telemetry.metrics.path must not be empty when metrics are enabled")
	}

	return nil
}
