package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"relaywire/courier/pkg/cache"
	"relaywire/courier/pkg/config"
	"relaywire/courier/pkg/relay/handlers"
	"relaywire/courier/pkg/secrets"
	"relaywire/courier/pkg/server"
	"relaywire/courier/pkg/telemetry/metrics"
	"relaywire/courier/pkg/upstream"
)

var runFlags struct {
	listenAddress string
	logLevel      string
	dryRun        bool
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Start the relay server",
	Long: `Start the relay server with the specified configuration.

The server holds the bot credential, forwards read requests to the upstream
chat API, normalizes responses, and serves them to browser clients with
permissive CORS.

Examples:
  # Start with default config
  courier run

  # Start with custom config
  courier run --config /etc/courier/config.yaml

  # Override listen address
  courier run --listen 0.0.0.0:8080

  # Validate config without starting the server
  courier run --dry-run`,
	RunE: runServer,
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringVarP(&runFlags.listenAddress, "listen", "l", "", "override listen address")
	runCmd.Flags().StringVar(&runFlags.logLevel, "log-level", "", "override log level (debug, info, warn, error)")
	runCmd.Flags().BoolVar(&runFlags.dryRun, "dry-run", false, "validate config without starting the server")
}

func runServer(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadConfigWithEnvOverrides(cfgFile)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if runFlags.listenAddress != "" {
		cfg.Proxy.ListenAddress = runFlags.listenAddress
	}
	if runFlags.logLevel != "" {
		cfg.Telemetry.Logging.Level = runFlags.logLevel
	}
	if verbose {
		cfg.Telemetry.Logging.Level = "debug"
	}

	setupLogging(cfg)

	if runFlags.dryRun {
		fmt.Println("✓ Configuration valid")
		return nil
	}

	fmt.Printf("Courier v%s\n", Version)
	fmt.Printf("Loading configuration from: %s\n", cfgFile)
	fmt.Println("✓ Configuration loaded")

	// Token source: static value or watched file.
	tokens, err := secrets.NewFromConfig(cfg.Upstream)
	if err != nil {
		return fmt.Errorf("failed to initialize token source: %w", err)
	}
	defer tokens.Close()

	if tokens.Token() == "" {
		slog.Warn("no bot token configured; /messages and /lookup will be rejected")
	}

	client := upstream.New(upstream.Config{
		BaseURL:             cfg.Upstream.BaseURL,
		Timeout:             cfg.Upstream.Timeout,
		MaxIdleConns:        cfg.Upstream.MaxIdleConns,
		MaxIdleConnsPerHost: cfg.Upstream.MaxIdleConnsPerHost,
		IdleConnTimeout:     cfg.Upstream.IdleConnTimeout,
	}, tokens)
	defer client.Close()

	// Response cache backend.
	responseCache, pruner, err := buildCache(cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize cache: %w", err)
	}
	defer responseCache.Close()

	if pruner != nil {
		if err := pruner.Start(context.Background()); err != nil {
			slog.Warn("failed to start cache pruner", "error", err)
		} else {
			defer pruner.Stop()
		}
	}
	fmt.Printf("✓ Cache initialized (%s, ttl %s)\n", cfg.Cache.Backend, cfg.Cache.TTL)

	var collector *metrics.Collector
	if cfg.Telemetry.Metrics.Enabled {
		collector = metrics.NewCollector(&cfg.Telemetry.Metrics, nil)
	}

	srv := server.NewServer(cfg, client, byteCache(responseCache), collector)

	fmt.Printf("✓ Server listening on %s\n", cfg.Proxy.ListenAddress)
	fmt.Printf("✓ Health endpoint: http://%s/health\n", cfg.Proxy.ListenAddress)
	if cfg.Telemetry.Metrics.Enabled {
		fmt.Printf("✓ Metrics endpoint: http://%s%s\n", cfg.Proxy.ListenAddress, cfg.Telemetry.Metrics.Path)
	}
	fmt.Println("\nPress Ctrl+C to stop")

	return srv.Start(cmd.Context())
}

// setupLogging configures the process-wide slog default from the config.
func setupLogging(cfg *config.Config) {
	var level slog.Level
	switch cfg.Telemetry.Logging.Level {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	if cfg.Telemetry.Logging.Format == "text" {
		handler = slog.NewTextHandler(os.Stdout, opts)
	} else {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	}
	slog.SetDefault(slog.New(handler))
}

// buildCache constructs the configured cache backend and, for the sqlite
// backend with a prune schedule, its scheduled pruner.
func buildCache(cfg *config.Config) (cache.Cache, *cache.Pruner, error) {
	switch cfg.Cache.Backend {
	case "sqlite":
		sc, err := cache.NewSQLiteCache(cache.SQLiteConfig{
			Path:        cfg.Cache.SQLite.Path,
			BusyTimeout: cfg.Cache.SQLite.BusyTimeout,
		})
		if err != nil {
			return nil, nil, err
		}

		var pruner *cache.Pruner
		if cfg.Cache.SQLite.PruneSchedule != "" {
			pruner = cache.NewPruner(sc, cfg.Cache.SQLite.PruneSchedule)
		}
		return sc, pruner, nil

	default:
		return cache.NewMemoryCache(cfg.Cache.MaxEntries), nil, nil
	}
}

// byteCache adapts the cache backend to the handler-facing interface.
// A nil backend stays nil so the handler skips caching entirely.
func byteCache(c cache.Cache) handlers.ByteCache {
	if c == nil {
		return nil
	}
	return c
}
