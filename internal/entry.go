// Package internal provides the main application initialization and runtime logic.
package internal

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/sync/errgroup"

	"github.com/starford/clovern/internal/api"
	"github.com/starford/clovern/internal/importer"
	"github.com/starford/clovern/internal/metrics"
	"github.com/starford/clovern/internal/sse"
	"github.com/starford/clovern/internal/watch"
)

// Run starts the HTTP server with the given options.
func Run(ctx context.Context, opts ...Option) error {
	app, err := newApplication(os.Stdout, opts)
	if err != nil {
		return err
	}
	cfg, logger := app.config, app.logger

	logger.Info("Configuration loaded",
		slog.String("http_address", cfg.App.HTTP.Address()),
		slog.String("data_path", cfg.Data.Path),
		slog.Bool("history", cfg.History.Enabled),
		slog.Bool("watch", cfg.Watch.Enabled),
		slog.String("log_level", cfg.App.LogLevel.String()))

	env, err := openEnvironment(ctx, app)
	if err != nil {
		return err
	}
	defer env.Close()

	// SSE broker.
	broker := sse.NewBroker(cfg.Events.StatsThrottle)
	defer broker.Close()
	env.store.AddObserver(broker.Observe)

	imports := importer.NewManager(env.store, cfg.Import.SessionTTL, logger)
	handler := newHandler(app, env, broker, imports)

	httpServer := &http.Server{
		Addr:              cfg.App.HTTP.Address(),
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	logger.Info("Server starting...", slog.String("http_address", cfg.App.HTTP.Address()))

	ctx, stop := context.WithCancel(ctx)
	defer stop()
	g, gCtx := errgroup.WithContext(ctx)

	// Reload the document after external edits.
	if cfg.Watch.Enabled {
		g.Go(func() error {
			if err := watch.Watch(gCtx, env.file, env.store, cfg.Watch.Debounce, logger, nil); err != nil {
				logger.Warn("watcher stopped", slog.String("error", err.Error()))
			}
			return nil
		})
	}

	// Start HTTP server.
	g.Go(func() error {
		logger.Info("Starting HTTP server", slog.String("address", cfg.App.HTTP.Address()))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("HTTP server error: %w", err)
		}
		return nil
	})

	// Handle shutdown signals.
	g.Go(func() error {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		defer signal.Stop(quit)

		select {
		case sig := <-quit:
			logger.Info("Received shutdown signal", slog.String("signal", sig.String()))
		case <-gCtx.Done():
			logger.Info("Context cancelled, initiating shutdown")
		}

		logger.Info("Shutting down server...")
		stop()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("HTTP server shutdown error", slog.String("error", err.Error()))
		}

		// Last chance to persist state left dirty by a failed save.
		if err := env.store.Flush(shutdownCtx); err != nil {
			logger.Error("final save failed", slog.String("error", err.Error()))
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		logger.Error("Application error", slog.String("error", err.Error()))
		return err
	}

	logger.Info("Server stopped successfully")
	return nil
}

// newHandler assembles the HTTP surface: health checks, metrics, and the API
// under /api.
func newHandler(app *application, env *environment, broker *sse.Broker, imports *importer.Manager) http.Handler {
	cfg := app.config
	routerOpts := api.RouterOptions{
		Auth:   cfg.Auth.Verifier(),
		Events: broker,
	}
	if cfg.App.HTTP.RateLimit > 0 {
		routerOpts.Limiter = api.NewRateLimiter(cfg.App.HTTP.RateLimit, cfg.App.HTTP.Burst)
	}
	apiRouter := api.NewRouter(env.store, imports, routerOpts)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	// Forwarding headers pick the rate limit bucket, so they are only
	// honoured behind a proxy that sets them.
	if cfg.App.HTTP.TrustProxy {
		r.Use(middleware.RealIP)
	}
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	if cfg.Metrics.Enabled {
		m := metrics.New()
		m.SetDocument(env.store.Snapshot())
		m.TrackSubscribers(broker.ClientCount)
		env.store.AddObserver(m.Observe)
		r.Use(m.Middleware)
		r.Method(http.MethodGet, cfg.Metrics.Path, m.Handler())
	}

	// Health check endpoints (unauthenticated).
	r.Get("/health/live", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	r.Get("/health/ready", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if _, err := os.Stat(filepath.Dir(env.file.Path())); err != nil && !errors.Is(err, os.ErrNotExist) {
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte(`{"status":"data directory unavailable"}`))
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	r.Mount("/api", apiRouter)
	return r
}
