// Package server provides the HTTP server for the relay surface.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"relaywire/courier/pkg/config"
	"relaywire/courier/pkg/relay"
	"relaywire/courier/pkg/relay/handlers"
	"relaywire/courier/pkg/relay/middleware"
	"relaywire/courier/pkg/telemetry/metrics"
)

// Server is the relay's HTTP server. It owns the routing table and the
// middleware chain; the handler dependencies are injected.
type Server struct {
	config       *config.Config
	upstream     handlers.MessageFetcher
	cache        handlers.ByteCache
	collector    *metrics.Collector
	httpServer   *http.Server
	shutdownChan chan struct{}
	stopOnce     sync.Once
	shutdownOnce sync.Once
	mu           sync.RWMutex
	isRunning    bool
}

// NewServer creates a new relay server.
func NewServer(cfg *config.Config, up handlers.MessageFetcher, cache handlers.ByteCache, collector *metrics.Collector) *Server {
	return &Server{
		config:       cfg,
		upstream:     up,
		cache:        cache,
		collector:    collector,
		shutdownChan: make(chan struct{}),
	}
}

// Start starts the HTTP server and blocks until shutdown.
func (s *Server) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.isRunning {
		s.mu.Unlock()
		return fmt.Errorf("server is already running")
	}
	s.isRunning = true
	s.mu.Unlock()

	handler := s.setupRoutes()

	s.httpServer = &http.Server{
		Addr:           s.config.Proxy.ListenAddress,
		Handler:        handler,
		ReadTimeout:    s.config.Proxy.ReadTimeout,
		WriteTimeout:   s.config.Proxy.WriteTimeout,
		IdleTimeout:    s.config.Proxy.IdleTimeout,
		MaxHeaderBytes: s.config.Proxy.MaxHeaderBytes,
	}

	errChan := make(chan error, 1)
	go func() {
		slog.Info("starting relay server",
			"address", s.config.Proxy.ListenAddress,
			"cache_backend", s.config.Cache.Backend,
			"cache_ttl", s.config.Cache.TTL.String(),
		)

		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errChan <- fmt.Errorf("server error: %w", err)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	select {
	case <-ctx.Done():
		slog.Info("context cancelled, initiating shutdown")
		return s.Shutdown(context.Background())
	case sig := <-sigChan:
		slog.Info("received shutdown signal", "signal", sig.String())
		return s.Shutdown(context.Background())
	case err := <-errChan:
		return err
	case <-s.shutdownChan:
		slog.Info("shutdown requested")
		return s.Shutdown(context.Background())
	}
}

// Shutdown gracefully shuts down the server, waiting up to the configured
// grace period for in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error

	s.shutdownOnce.Do(func() {
		s.mu.Lock()
		if !s.isRunning {
			s.mu.Unlock()
			return
		}
		s.mu.Unlock()

		slog.Info("initiating graceful shutdown", "timeout", s.config.Proxy.ShutdownTimeout.String())

		shutdownCtx, cancel := context.WithTimeout(ctx, s.config.Proxy.ShutdownTimeout)
		defer cancel()

		if s.httpServer != nil {
			if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
				slog.Error("error during server shutdown", "error", err)
				shutdownErr = fmt.Errorf("server shutdown error: %w", err)
			}
		}

		s.mu.Lock()
		s.isRunning = false
		s.mu.Unlock()

		slog.Info("relay server stopped")
	})

	return shutdownErr
}

// setupRoutes configures the routing table and middleware chain.
//
// The route set is fixed: /health, /messages, /lookup, the metrics path when
// enabled, and a JSON 404 for everything else. OPTIONS to any path is
// answered by the CORS middleware before routing.
func (s *Server) setupRoutes() http.Handler {
	mux := http.NewServeMux()

	messagesHandler := handlers.NewMessagesHandler(s.upstream, s.cache, s.config.Cache.TTL, s.collector)
	lookupHandler := handlers.NewLookupHandler(s.upstream, s.collector)

	mux.Handle("/health", handlers.Health())
	mux.Handle("/messages", messagesHandler)
	mux.Handle("/lookup", lookupHandler)

	knownRoutes := []string{"/health", "/messages", "/lookup"}

	if s.config.Telemetry.Metrics.Enabled && s.collector != nil {
		mux.Handle(s.config.Telemetry.Metrics.Path, s.collector.Handler())
		knownRoutes = append(knownRoutes, s.config.Telemetry.Metrics.Path)
	}

	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		_ = relay.WriteError(w, http.StatusNotFound, relay.ErrorBody{
			Error: relay.CodeNotFound,
		})
	})

	var handler http.Handler = mux

	handler = middleware.CORS(s.config.Proxy.CORS.AllowedOrigin)(handler)
	if s.collector != nil {
		handler = middleware.Metrics(s.collector, knownRoutes...)(handler)
	}
	// RequestID must wrap Logging so completion logs carry the ID.
	handler = middleware.Logging(handler)
	handler = middleware.RequestID(handler)
	handler = middleware.Recovery(handler)

	return handler
}

// Handler returns the configured HTTP handler. Used by tests to exercise the
// full chain without binding a socket.
func (s *Server) Handler() http.Handler {
	return s.setupRoutes()
}

// IsRunning returns true if the server is accepting requests.
func (s *Server) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isRunning
}

// Stop requests a graceful shutdown from another goroutine.
func (s *Server) Stop() {
	s.stopOnce.Do(func() {
		close(s.shutdownChan)
	})
}

// WaitUntilStopped blocks until the server reports not running, or the
// timeout elapses. Used by tests.
func (s *Server) WaitUntilStopped(timeout time.Duration) bool {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if !s.IsRunning() {
			return true
		}
		time.Sleep(10 * time.Millisecond)
	}
	return !s.IsRunning()
}
