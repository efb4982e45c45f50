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
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/sync/errgroup"

	"github.com/starford/knt/internal/api"
	"github.com/starford/knt/internal/index"
	"github.com/starford/knt/internal/mcpserver"
	"github.com/starford/knt/internal/notefile"
	"github.com/starford/knt/internal/noteservice"
	"github.com/starford/knt/internal/sse"
	"github.com/starford/knt/internal/storage"
)

// library bundles the components shared by every long-running mode.
type library struct {
	logger *slog.Logger
	store  *storage.FS
	db     *index.DB
	loader index.Loader
	svc    *noteservice.Service
}

func (l *library) Close() error {
	return l.db.Close()
}

// noteOptions returns the decoding options for library files.
func (a *application) noteOptions(logger *slog.Logger) []notefile.Option {
	opts := []notefile.Option{notefile.WithLogger(logger)}
	switch {
	case a.passphrase != nil:
		opts = append(opts, notefile.WithPassphraseProvider(a.passphrase))
	case a.config.Library.Passphrase != "":
		opts = append(opts, notefile.WithPassphrase(a.config.Library.Passphrase))
	}
	return opts
}

// openLibrary prepares storage and the catalog and runs the initial sync.
func (a *application) openLibrary() (*library, error) {
	if a.config == nil {
		return nil, fmt.Errorf("config is required")
	}
	cfg := a.config

	logger := slog.New(slog.NewJSONHandler(a.logOutput, &slog.HandlerOptions{
		Level: cfg.App.LogLevel,
	}))
	slog.SetDefault(logger)

	logger.Info("Configuration loaded",
		slog.String("http_address", cfg.App.HTTP.Address()),
		slog.String("library_path", cfg.Library.Path),
		slog.String("sqlite_path", cfg.SQLite.Path),
		slog.Bool("watch", cfg.Library.Watch),
		slog.String("log_level", cfg.App.LogLevel.String()))

	if err := os.MkdirAll(cfg.Library.Path, 0o755); err != nil {
		return nil, fmt.Errorf("create library dir: %w", err)
	}

	store, err := storage.NewFS(cfg.Library.Path)
	if err != nil {
		return nil, fmt.Errorf("init storage: %w", err)
	}

	db, err := index.Open(cfg.SQLite.Path)
	if err != nil {
		return nil, fmt.Errorf("init index: %w", err)
	}

	opts := a.noteOptions(logger)
	loader := index.NewLoader(opts...)
	if err := index.Sync(db, store, loader, logger); err != nil {
		logger.Warn("initial sync failed", slog.String("error", err.Error()))
	}

	return &library{
		logger: logger,
		store:  store,
		db:     db,
		loader: loader,
		svc:    noteservice.NewService(store, db, opts...),
	}, nil
}

func (l *library) watch(ctx context.Context, cb index.EventCallback) error {
	if err := index.Watch(ctx, l.db, l.store, l.store.Root(), l.loader, l.logger, cb); err != nil {
		l.logger.Error("watcher failed", slog.String("error", err.Error()))
	}
	return nil
}

// Run starts the HTTP server with the given options.
func Run(ctx context.Context, opts ...Option) error {
	app := newApplication(opts)

	lib, err := app.openLibrary()
	if err != nil {
		return err
	}
	defer lib.Close()

	cfg := app.config
	logger := lib.logger

	broker := sse.NewBroker(cfg.App.SSEThrottle)
	defer broker.Close()

	apiRouter := api.NewRouter(lib.svc, lib.store, cfg.Auth.AuthEnabled(), cfg.Auth.Token, broker)

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
		if _, err := lib.db.ListFiles(); err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte(`{"status":"unavailable"}`))
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	r.Mount("/api", apiRouter)

	httpServer := &http.Server{
		Addr:              cfg.App.HTTP.Address(),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gCtx := errgroup.WithContext(ctx)

	if cfg.Library.Watch {
		g.Go(func() error {
			return lib.watch(gCtx, broker.PublishFileEvent)
		})
	}

	g.Go(func() error {
		logger.Info("Starting HTTP server", slog.String("address", cfg.App.HTTP.Address()))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("HTTP server error: %w", err)
		}
		return nil
	})

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

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("HTTP server shutdown error", slog.String("error", err.Error()))
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

// RunMCP serves the library over MCP on stdio. Logs go to stderr unless
// WithLogOutput says otherwise.
func RunMCP(ctx context.Context, opts ...Option) error {
	app := newApplication(append([]Option{WithLogOutput(os.Stderr)}, opts...))

	lib, err := app.openLibrary()
	if err != nil {
		return err
	}
	defer lib.Close()

	srv := mcpserver.New(lib.svc, lib.store, app.version)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	g, gCtx := errgroup.WithContext(ctx)
	if app.config.Library.Watch {
		g.Go(func() error {
			return lib.watch(gCtx, nil)
		})
	}
	g.Go(func() error {
		defer cancel()
		lib.logger.Info("Starting MCP server on stdio", slog.String("version", app.version))
		if err := srv.ServeStdio(); err != nil {
			return fmt.Errorf("MCP server error: %w", err)
		}
		return nil
	})

	return g.Wait()
}

// OpenService builds the note service over the configured library for
// one-shot commands. The returned close function releases the catalog.
func OpenService(opts ...Option) (*noteservice.Service, func() error, error) {
	app := newApplication(opts)
	lib, err := app.openLibrary()
	if err != nil {
		return nil, nil, err
	}
	return lib.svc, lib.Close, nil
}
