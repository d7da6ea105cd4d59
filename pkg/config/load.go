package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// LoadConfig loads configuration from a YAML file at the specified path.
// It applies default values and validates the result. Environment variables
// are not consulted; use LoadConfigWithEnvOverrides for that.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read configuration file %q: %w", path, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse configuration file %q: %w", path, err)
	}

	ApplyDefaults(&cfg)

	if err := Validate(&cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return &cfg, nil
}

// LoadConfigWithEnvOverrides loads configuration from a YAML file and applies
// environment variable overrides. Variables follow the naming convention
// COURIER_SECTION_FIELD (e.g., COURIER_PROXY_LISTEN_ADDRESS) and always take
// precedence over file-based values.
//
// If the file does not exist, defaults are used as the base so the relay can
// run from environment variables alone.
func LoadConfigWithEnvOverrides(path string) (*Config, error) {
	var cfg *Config

	if _, err := os.Stat(path); os.IsNotExist(err) {
		cfg = NewDefaultConfig()
	} else {
		cfg, err = LoadConfig(path)
		if err != nil {
			return nil, err
		}
	}

	applyEnvOverrides(cfg)

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed after environment overrides: %w", err)
	}

	return cfg, nil
}

// applyEnvOverrides applies COURIER_* environment variable overrides.
func applyEnvOverrides(cfg *Config) {
	// Proxy overrides
	if val := os.Getenv("COURIER_PROXY_LISTEN_ADDRESS"); val != "" {
		cfg.Proxy.ListenAddress = val
	}
	if val := os.Getenv("COURIER_PROXY_READ_TIMEOUT"); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			cfg.Proxy.ReadTimeout = d
		}
	}
	if val := os.Getenv("COURIER_PROXY_WRITE_TIMEOUT"); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			cfg.Proxy.WriteTimeout = d
		}
	}
	if val := os.Getenv("COURIER_PROXY_SHUTDOWN_TIMEOUT"); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			cfg.Proxy.ShutdownTimeout = d
		}
	}
	if val := os.Getenv("COURIER_CORS_ALLOWED_ORIGIN"); val != "" {
		cfg.Proxy.CORS.AllowedOrigin = val
	}

	// Upstream overrides
	if val := os.Getenv("COURIER_UPSTREAM_BASE_URL"); val != "" {
		cfg.Upstream.BaseURL = val
	}
	if val := os.Getenv("COURIER_UPSTREAM_TOKEN"); val != "" {
		cfg.Upstream.Token = val
	}
	if val := os.Getenv("COURIER_UPSTREAM_TOKEN_FILE"); val != "" {
		cfg.Upstream.TokenFile = val
	}
	if val := os.Getenv("COURIER_UPSTREAM_TIMEOUT"); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			cfg.Upstream.Timeout = d
		}
	}

	// Cache overrides
	if val := os.Getenv("COURIER_CACHE_BACKEND"); val != "" {
		cfg.Cache.Backend = val
	}
	if val := os.Getenv("COURIER_CACHE_TTL"); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			cfg.Cache.TTL = d
		}
	}
	if val := os.Getenv("COURIER_CACHE_MAX_ENTRIES"); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			cfg.Cache.MaxEntries = i
		}
	}
	if val := os.Getenv("COURIER_CACHE_SQLITE_PATH"); val != "" {
		cfg.Cache.SQLite.Path = val
	}
	if val := os.Getenv("COURIER_CACHE_PRUNE_SCHEDULE"); val != "" {
		cfg.Cache.SQLite.PruneSchedule = val
	}

	// Telemetry overrides
	if val := os.Getenv("COURIER_LOGGING_LEVEL"); val != "" {
		cfg.Telemetry.Logging.Level = val
	}
	if val := os.Getenv("COURIER_LOGGING_FORMAT"); val != "" {
		cfg.Telemetry.Logging.Format = val
	}
	if val := os.Getenv("COURIER_METRICS_ENABLED"); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			cfg.Telemetry.Metrics.Enabled = b
		}
	}
	if val := os.Getenv("COURIER_METRICS_PATH"); val != "" {
		cfg.Telemetry.Metrics.Path = val
	}
}
