// Package server assembles and runs the Gatekeeper HTTP service: the
// policy middleware chain in front of the upstream application, the
// password-reset endpoints, health probes, and the metrics endpoint.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httputil"
	"net/url"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"lexhub/gatekeeper/pkg/adminconfig"
	"lexhub/gatekeeper/pkg/config"
	"lexhub/gatekeeper/pkg/policy"
	"lexhub/gatekeeper/pkg/proxy/middleware"
	"lexhub/gatekeeper/pkg/reset"
	"lexhub/gatekeeper/pkg/telemetry/health"
	"lexhub/gatekeeper/pkg/telemetry/metrics"
)

// BuildInfo identifies the running binary on the /version endpoint.
type BuildInfo struct {
	Version   string
	Commit    string
	BuildTime string
}

// Server is the Gatekeeper HTTP service.
type Server struct {
	cfg    *config.Config
	logger *slog.Logger
	build  BuildInfo

	cache     *adminconfig.Cache
	watcher   *adminconfig.Watcher
	evaluator *policy.Evaluator

	store        reset.Store
	sweeper      *reset.Sweeper
	resetHandler *reset.Handler

	collector *metrics.Collector
	checker   *health.Checker

	httpServer   *http.Server
	shutdownChan chan struct{}
	shutdownOnce sync.Once
}

// New assembles a server from configuration. It wires the admin config
// source and cache, the token store and sweeper, the evaluator, and
// telemetry, but does not start listening.
func New(cfg *config.Config, logger *slog.Logger, build BuildInfo) (*Server, error) {
	if logger == nil {
		logger = slog.Default()
	}

	s := &Server{
		cfg:          cfg,
		logger:       logger,
		build:        build,
		evaluator:    policy.NewEvaluator(logger),
		checker:      health.New(0),
		shutdownChan: make(chan struct{}),
	}

	if cfg.Telemetry.Metrics.Enabled {
		s.collector = metrics.NewCollector(&cfg.Telemetry.Metrics)
	}

	if err := s.setupAdminConfig(); err != nil {
		return nil, err
	}
	if err := s.setupReset(); err != nil {
		return nil, err
	}

	s.checker.RegisterCheck("config", func(ctx context.Context) error {
		stats := s.cache.Stats()
		// An unconfigured source is the documented local/dev state, not a
		// failing dependency.
		if stats.UsingDefault && stats.LastError != nil &&
			!errors.Is(stats.LastError, adminconfig.ErrNotConfigured) {
			return fmt.Errorf("serving built-in default config: %v", stats.LastError)
		}
		return nil
	})

	return s, nil
}

// setupAdminConfig wires the policy config source, cache, and optional
// file watcher.
func (s *Server) setupAdminConfig() error {
	var source adminconfig.Source
	switch s.cfg.Admin.Source {
	case "file":
		source = adminconfig.NewFileSource(s.cfg.Admin.FilePath)
	default:
		source = adminconfig.NewRemoteSource(
			s.cfg.Admin.Endpoint,
			s.cfg.Admin.Token,
			s.cfg.Admin.FetchTimeout,
		)
	}

	var opts []adminconfig.CacheOption
	if s.collector != nil {
		opts = append(opts, adminconfig.WithFetchObserver(func(r adminconfig.FetchResult) {
			s.collector.RecordConfigFetch(string(r))
		}))
	}
	s.cache = adminconfig.NewCache(source, s.cfg.Admin.CacheTTL, s.logger, opts...)

	if s.cfg.Admin.Source == "file" && s.cfg.Admin.Watch {
		watcher, err := adminconfig.NewWatcher(s.cfg.Admin.FilePath, s.cache, s.logger)
		if err != nil {
			return fmt.Errorf("failed to create config watcher: %w", err)
		}
		s.watcher = watcher
	}

	return nil
}

// setupReset wires the token store, service, sweeper, and HTTP handler.
func (s *Server) setupReset() error {
	switch s.cfg.Reset.Backend {
	case "sqlite":
		store, err := reset.NewSQLiteStore(s.cfg.Reset.SQLitePath)
		if err != nil {
			return fmt.Errorf("failed to open token store: %w", err)
		}
		s.store = store
	default:
		s.store = reset.NewMemoryStore()
	}

	service := reset.NewService(s.store, s.cfg.Reset.TokenTTL, s.logger)
	s.sweeper = reset.NewSweeper(s.store, s.cfg.Reset.SweepSchedule, s.logger)

	var updater reset.PasswordUpdater
	if s.cfg.Reset.UpdateEndpoint != "" {
		updater = reset.NewHTTPUpdater(s.cfg.Reset.UpdateEndpoint, s.cfg.Upstream.Timeout)
	} else {
		updater = reset.NewLogUpdater(s.logger)
	}

	s.resetHandler = reset.NewHandler(service, reset.NewLogMailer(s.logger), updater, s.logger)
	return nil
}

// Start starts the HTTP server and blocks until shutdown.
func (s *Server) Start(ctx context.Context) error {
	handler, err := s.setupRoutes()
	if err != nil {
		return err
	}

	s.httpServer = &http.Server{
		Addr:           s.cfg.Server.ListenAddress,
		Handler:        handler,
		ReadTimeout:    s.cfg.Server.ReadTimeout,
		WriteTimeout:   s.cfg.Server.WriteTimeout,
		IdleTimeout:    s.cfg.Server.IdleTimeout,
		MaxHeaderBytes: s.cfg.Server.MaxHeaderBytes,
	}

	if err := s.sweeper.Start(ctx); err != nil {
		return fmt.Errorf("failed to start token sweeper: %w", err)
	}

	if s.watcher != nil {
		go func() {
			if err := s.watcher.Watch(ctx); err != nil {
				s.logger.Error("config watcher exited", "error", err)
			}
		}()
	}

	errChan := make(chan error, 1)
	go func() {
		s.logger.Info("starting gateway",
			"address", s.cfg.Server.ListenAddress,
			"admin_source", s.cfg.Admin.Source,
			"upstream", s.cfg.Upstream.URL,
		)
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errChan <- fmt.Errorf("server error: %w", err)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	select {
	case <-ctx.Done():
		s.logger.Info("context cancelled, initiating shutdown")
		return s.Shutdown(context.Background())
	case sig := <-sigChan:
		s.logger.Info("received shutdown signal", "signal", sig.String())
		return s.Shutdown(context.Background())
	case err := <-errChan:
		return err
	case <-s.shutdownChan:
		return nil
	}
}

// Shutdown gracefully stops the server, the sweeper, and the token store.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		defer close(s.shutdownChan)

		shutdownCtx, cancel := context.WithTimeout(ctx, s.cfg.Server.ShutdownTimeout)
		defer cancel()

		if s.httpServer != nil {
			if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
				shutdownErr = fmt.Errorf("server shutdown failed: %w", err)
			}
		}

		s.sweeper.Stop()

		if err := s.store.Close(); err != nil {
			s.logger.Error("failed to close token store", "error", err)
		}

		s.logger.Info("gateway stopped")
	})
	return shutdownErr
}

// setupRoutes builds the route table and middleware chain. Health probes,
// metrics, and the reset endpoints bypass the policy pipeline; all other
// traffic goes through it on its way upstream.
func (s *Server) setupRoutes() (http.Handler, error) {
	mux := http.NewServeMux()

	mux.HandleFunc("/healthz", s.checker.LivenessHandler())
	mux.HandleFunc("/readyz", s.checker.ReadinessHandler())
	mux.HandleFunc("/version", health.VersionHandler(s.build.Version, s.build.Commit, s.build.BuildTime))

	if s.collector != nil {
		mux.Handle(s.cfg.Telemetry.Metrics.Path, s.collector.Handler())
	}

	s.resetHandler.Register(mux)

	upstream, err := s.upstreamHandler()
	if err != nil {
		return nil, err
	}

	var onDecision func(policy.Outcome)
	if s.collector != nil {
		onDecision = func(o policy.Outcome) { s.collector.RecordDecision(string(o)) }
	}

	var handler http.Handler = upstream
	handler = middleware.PolicyMiddleware(s.cache, s.evaluator, onDecision)(handler)
	if s.collector != nil {
		handler = s.collector.Middleware(handler)
	}
	handler = middleware.LoggingMiddleware(s.logger)(handler)
	handler = middleware.RequestIDMiddleware(handler)
	handler = middleware.RecoveryMiddleware(handler)

	mux.Handle("/", handler)
	return mux, nil
}

// upstreamHandler proxies surviving traffic to the configured upstream
// application. Without an upstream, pass-through requests are answered
// with 204 so the gateway can run (and be tested) standalone.
func (s *Server) upstreamHandler() (http.Handler, error) {
	if s.cfg.Upstream.URL == "" {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNoContent)
		}), nil
	}

	target, err := url.Parse(s.cfg.Upstream.URL)
	if err != nil {
		return nil, fmt.Errorf("invalid upstream URL %q: %w", s.cfg.Upstream.URL, err)
	}

	proxy := httputil.NewSingleHostReverseProxy(target)
	proxy.Transport = &http.Transport{
		ResponseHeaderTimeout: s.cfg.Upstream.Timeout,
		IdleConnTimeout:       90 * time.Second,
	}
	proxy.ErrorHandler = func(w http.ResponseWriter, r *http.Request, err error) {
		s.logger.Error("upstream request failed",
			"path", r.URL.Path,
			"request_id", middleware.GetRequestID(r.Context()),
			"error", err,
		)
		http.Error(w, "Bad Gateway", http.StatusBadGateway)
	}
	return proxy, nil
}
