// Package internal provides the main application initialization and runtime logic.
package internal

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	prom "github.com/prometheus/client_golang/prometheus"
	"golang.org/x/sync/errgroup"

	"github.com/starford/vellum/internal/api"
	"github.com/starford/vellum/internal/index"
	"github.com/starford/vellum/internal/mcpserver"
	"github.com/starford/vellum/internal/metrics"
	"github.com/starford/vellum/internal/render"
	"github.com/starford/vellum/internal/site"
	"github.com/starford/vellum/internal/sse"
	"github.com/starford/vellum/internal/storage"
)

// setup validates options, installs the JSON logger and opens the site
// stores. It does not load the site.
func setup(opts []Option) (*application, *slog.Logger, error) {
	app := &application{logOutput: os.Stdout}
	for _, opt := range opts {
		opt(app)
	}
	if app.config == nil {
		return nil, nil, fmt.Errorf("config is required")
	}
	cfg := app.config

	// Initialize structured JSON logger.
	logger := slog.New(slog.NewJSONHandler(app.logOutput, &slog.HandlerOptions{
		Level: cfg.App.LogLevel,
	}))
	slog.SetDefault(logger)

	logger.Info("Configuration loaded",
		slog.String("http_address", cfg.App.HTTP.Address()),
		slog.String("content_path", cfg.Site.Content),
		slog.String("templates_path", cfg.Site.Templates),
		slog.String("sqlite_path", cfg.SQLite.Path),
		slog.Bool("production", cfg.App.Production),
		slog.String("log_level", cfg.App.LogLevel.String()))
	return app, logger, nil
}

// newSiteService opens the content and template directories.
func newSiteService(cfg *Config, logger *slog.Logger, rec metrics.Recorder) (*site.Service, error) {
	content, err := storage.NewFS(cfg.Site.Content)
	if err != nil {
		return nil, fmt.Errorf("init content storage: %w", err)
	}
	tpl, err := storage.NewFS(cfg.Site.Templates)
	if err != nil {
		return nil, fmt.Errorf("init template storage: %w", err)
	}
	return site.NewService(content, tpl, siteConfig(cfg, logger, rec)), nil
}

func siteConfig(cfg *Config, logger *slog.Logger, rec metrics.Recorder) site.Config {
	return site.Config{
		Render:   cfg.RenderOptions(),
		Vars:     cfg.Site.Vars,
		Workers:  cfg.Site.ScanWorkers,
		Logger:   logger,
		Recorder: rec,
	}
}

// Run starts the HTTP server with live reload until ctx is cancelled or a
// shutdown signal arrives.
func Run(ctx context.Context, opts ...Option) error {
	app, logger, err := setup(opts)
	if err != nil {
		return err
	}
	cfg := app.config

	// Metrics.
	reg := prom.NewRegistry()
	rec := metrics.NewPrometheusRecorder(reg)

	svc, err := newSiteService(cfg, logger, rec)
	if err != nil {
		return err
	}

	// Initialize SQLite index.
	db, err := index.Open(cfg.SQLite.Path)
	if err != nil {
		return fmt.Errorf("init index: %w", err)
	}
	defer db.Close()

	// SSE broker.
	broker := sse.NewBroker(2 * time.Second)
	defer broker.Close()

	// Keep the index and connected clients in step with every reload.
	var prev *site.Snapshot
	svc.OnReload(func(snap *site.Snapshot) {
		if _, err := index.Sync(ctx, db, snap, logger); err != nil {
			logger.Warn("index sync failed", slog.String("error", err.Error()))
		}
		for _, c := range site.Diff(prev, snap) {
			broker.PublishPageEvent(c.Kind, c.Href)
		}
		broker.Publish(sse.Event{Type: "site.reloaded", Data: map[string]any{
			"pages":     len(snap.Pages),
			"loaded_at": snap.LoadedAt,
		}})
		prev = snap
	})

	// Initial load; a broken site is fatal at startup.
	if _, err := svc.Reload(ctx); err != nil {
		return fmt.Errorf("load site: %w", err)
	}

	// Build API router.
	apiRouter := api.NewRouter(svc, db, cfg.Auth.AuthEnabled(), cfg.Auth.Token, broker)

	// Build chi router.
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	// Health check endpoints (unauthenticated).
	r.Get("/health/live", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	r.Get("/health/ready", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if svc.Snapshot() == nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte(`{"status":"loading"}`))
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	r.Handle("/metrics", metrics.HTTPHandler(reg))

	// Mount API routes under /api.
	r.Mount("/api", apiRouter)

	// Rendered site.
	r.Handle("/*", api.SiteHandler(svc))

	httpServer := &http.Server{
		Addr:              cfg.App.HTTP.Address(),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	logger.Info("Server starting...", slog.String("http_address", cfg.App.HTTP.Address()))

	g, gCtx := errgroup.WithContext(ctx)

	// Reload the site when sources or templates change.
	g.Go(func() error {
		if err := svc.Watch(gCtx); err != nil {
			logger.Error("watcher stopped", slog.String("error", err.Error()))
		}
		return nil
	})

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

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("HTTP server shutdown error", slog.String("error", err.Error()))
		}

		return errShutdown
	})

	if err := g.Wait(); err != nil && !errors.Is(err, errShutdown) {
		logger.Error("Application error", slog.String("error", err.Error()))
		return err
	}

	logger.Info("Server stopped successfully")
	return nil
}

// errShutdown cancels the errgroup context so the watcher stops with the
// HTTP server.
var errShutdown = errors.New("shutdown")

// Build renders every page of the site into the configured output
// directory.
func Build(ctx context.Context, opts ...Option) error {
	app, logger, err := setup(opts)
	if err != nil {
		return err
	}
	cfg := app.config

	svc, err := newSiteService(cfg, logger, nil)
	if err != nil {
		return err
	}
	snap, err := svc.Reload(ctx)
	if err != nil {
		return fmt.Errorf("load site: %w", err)
	}
	out, err := storage.EnsureFS(cfg.Site.Output)
	if err != nil {
		return fmt.Errorf("init output storage: %w", err)
	}
	n, err := snap.Build(ctx, out, siteConfig(cfg, logger, nil))
	if err != nil {
		return err
	}
	logger.Info("Build finished", slog.Int("pages", n), slog.String("output", out.Root()))
	return nil
}

// Inventory writes the site's image inventory to w as JSON, URLs sorted.
func Inventory(ctx context.Context, w io.Writer, opts ...Option) error {
	app, logger, err := setup(opts)
	if err != nil {
		return err
	}
	svc, err := newSiteService(app.config, logger, nil)
	if err != nil {
		return err
	}
	snap, err := svc.Reload(ctx)
	if err != nil {
		return fmt.Errorf("load site: %w", err)
	}
	inv, err := snap.Generator.Inventory(ctx)
	if err != nil {
		return err
	}
	return writeInventory(w, inv)
}

func writeInventory(w io.Writer, inv render.Inventory) error {
	type entry struct {
		URL   string   `json:"url"`
		Pages []string `json:"pages"`
	}
	out := make([]entry, 0, len(inv))
	for _, u := range inv.URLs() {
		out = append(out, entry{URL: u, Pages: inv[u]})
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}

// ServeMCP loads the site, syncs the index and serves MCP on stdio. Logs
// must not go to stdout; pass WithLogOutput(os.Stderr).
func ServeMCP(ctx context.Context, opts ...Option) error {
	app, logger, err := setup(opts)
	if err != nil {
		return err
	}
	cfg := app.config

	svc, err := newSiteService(cfg, logger, nil)
	if err != nil {
		return err
	}
	db, err := index.Open(cfg.SQLite.Path)
	if err != nil {
		return fmt.Errorf("init index: %w", err)
	}
	defer db.Close()

	svc.OnReload(func(snap *site.Snapshot) {
		if _, err := index.Sync(ctx, db, snap, logger); err != nil {
			logger.Warn("index sync failed", slog.String("error", err.Error()))
		}
	})
	if _, err := svc.Reload(ctx); err != nil {
		return fmt.Errorf("load site: %w", err)
	}

	watchCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	go func() {
		if err := svc.Watch(watchCtx); err != nil {
			logger.Error("watcher stopped", slog.String("error", err.Error()))
		}
	}()

	logger.Info("MCP server starting on stdio")
	return mcpserver.New(svc, db).ServeStdio()
}
