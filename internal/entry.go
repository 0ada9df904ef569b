// Package internal provides the application entrypoints behind the
// sowilo command tree: the gallery server, the MCP server, and the
// one-shot pipeline passes.
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

	"github.com/starford/sowilo/internal/artifact"
	"github.com/starford/sowilo/internal/gallery"
	"github.com/starford/sowilo/internal/index"
	"github.com/starford/sowilo/internal/logging"
	"github.com/starford/sowilo/internal/mcpserver"
	"github.com/starford/sowilo/internal/runner"
	"github.com/starford/sowilo/internal/sse"
)

func newApplication(opts []Option) (*application, error) {
	app := &application{}
	for _, opt := range opts {
		opt(app)
	}
	if app.config == nil {
		return nil, fmt.Errorf("config is required")
	}
	return app, nil
}

// initLogging installs the process logger. The configured format wins;
// defaultFormat covers the common case where the config leaves it empty.
func initLogging(cfg *Config, defaultFormat string) {
	format := cfg.App.LogFormat
	if format == "" {
		format = defaultFormat
	}
	logging.Init(cfg.App.LogLevel, format)
}

// newSubprocessRunner builds a runner whose units capture in a child
// process, so a crashing script cannot take the parent down.
func newSubprocessRunner(app *application, tree *artifact.Tree, labRoot string, ropts runner.Options, notify runner.EventFunc) (*runner.Runner, error) {
	bin, err := os.Executable()
	if err != nil {
		return nil, fmt.Errorf("resolve own binary: %w", err)
	}
	inv := runner.ExecInvoker{
		Bin:        bin,
		ConfigPath: app.configPath,
		OutDir:     tree.Root(),
		LabRoot:    labRoot,
	}
	return runner.New(labRoot, tree, inv, ropts, notify), nil
}

// Serve starts the gallery server: HTTP API and SSE stream over the
// outputs tree, with the fsnotify watcher keeping the artifact ledger
// in sync.
func Serve(ctx context.Context, opts ...Option) error {
	app, err := newApplication(opts)
	if err != nil {
		return err
	}
	cfg := app.config
	initLogging(cfg, "json")
	logger := logging.New("serve")

	logger.Info("configuration loaded",
		slog.String("http_address", cfg.App.HTTP.Address()),
		slog.String("lab_path", cfg.Lab.Path),
		slog.String("outputs_path", cfg.Outputs.Path),
		slog.String("sqlite_path", cfg.SQLite.Path))

	labRoot, err := filepath.Abs(cfg.Lab.Path)
	if err != nil {
		return fmt.Errorf("resolve lab root: %w", err)
	}
	tree, err := artifact.NewTree(cfg.Outputs.Path)
	if err != nil {
		return fmt.Errorf("init outputs tree: %w", err)
	}

	db, err := index.Open(cfg.SQLite.Path)
	if err != nil {
		return fmt.Errorf("init index: %w", err)
	}
	defer db.Close()

	if err := index.Sync(db, tree, logger); err != nil {
		logger.Warn("initial sync failed", slog.String("error", err.Error()))
	}

	broker := sse.NewBroker(2 * time.Second)

	run, err := newSubprocessRunner(app, tree, labRoot, cfg.RunnerOptions(), func(ev runner.Event) {
		broker.Publish(sse.Event{Type: ev.Kind, Data: ev})
	})
	if err != nil {
		return err
	}

	svc := gallery.NewService(tree, db, run)
	apiRouter := gallery.NewRouter(svc, cfg.Auth.AuthEnabled(), cfg.Auth.Token, broker)

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
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	// Mount API routes under /api.
	r.Mount("/api", apiRouter)

	httpServer := &http.Server{
		Addr:    cfg.App.HTTP.Address(),
		Handler: r,
	}

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, gCtx := errgroup.WithContext(ctx)

	// Keep the ledger following the outputs tree; artifact events feed SSE.
	g.Go(func() error {
		if err := index.Watch(gCtx, db, tree, tree.Root(), logger, func(kind, path string) {
			broker.PublishArtifactEvent(kind, path)
		}); err != nil {
			logger.Warn("outputs watcher stopped", slog.String("error", err.Error()))
		}
		return nil
	})

	g.Go(func() error {
		logger.Info("starting HTTP server", slog.String("address", cfg.App.HTTP.Address()))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("HTTP server error: %w", err)
		}
		return nil
	})

	// Shut the HTTP server down once a signal lands or another goroutine
	// fails; gCtx also releases the watcher.
	g.Go(func() error {
		<-gCtx.Done()
		logger.Info("shutting down server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("HTTP server shutdown error", slog.String("error", err.Error()))
		}

		return nil
	})

	if err := g.Wait(); err != nil {
		logger.Error("application error", slog.String("error", err.Error()))
		return err
	}

	broker.Close()
	logger.Info("server stopped")
	return nil
}

// ServeMCP starts the MCP stdio server. Logs go to stderr so stdout
// stays clean for the protocol.
func ServeMCP(_ context.Context, opts ...Option) error {
	app, err := newApplication(opts)
	if err != nil {
		return err
	}
	cfg := app.config
	initLogging(cfg, "text")
	logger := logging.New("mcp")

	labRoot, err := filepath.Abs(cfg.Lab.Path)
	if err != nil {
		return fmt.Errorf("resolve lab root: %w", err)
	}
	tree, err := artifact.NewTree(cfg.Outputs.Path)
	if err != nil {
		return fmt.Errorf("init outputs tree: %w", err)
	}
	db, err := index.Open(cfg.SQLite.Path)
	if err != nil {
		return fmt.Errorf("init index: %w", err)
	}
	defer db.Close()

	if err := index.Sync(db, tree, logger); err != nil {
		logger.Warn("initial sync failed", slog.String("error", err.Error()))
	}

	run, err := newSubprocessRunner(app, tree, labRoot, cfg.RunnerOptions(), nil)
	if err != nil {
		return err
	}

	srv := mcpserver.New(gallery.NewService(tree, db, run))
	logger.Info("MCP server starting on stdio")
	return srv.ServeStdio()
}
