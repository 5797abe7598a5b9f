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

	"github.com/starford/promptdesk/internal/api"
	"github.com/starford/promptdesk/internal/editor"
	"github.com/starford/promptdesk/internal/index"
	"github.com/starford/promptdesk/internal/mcpserver"
	"github.com/starford/promptdesk/internal/snapshot"
	"github.com/starford/promptdesk/internal/sse"
	"github.com/starford/promptdesk/internal/storage"
)

// runtime holds the components shared by the HTTP and MCP entry points.
type runtime struct {
	cfg    *Config
	logger *slog.Logger
	store  storage.Provider
	codec  snapshot.Codec
	db     *index.DB
}

func setup(opts []Option) (*runtime, error) {
	app := &application{logOutput: os.Stdout}

	for _, opt := range opts {
		opt(app)
	}

	if app.config == nil {
		return nil, fmt.Errorf("config is required")
	}

	cfg := app.config

	// Initialize structured JSON logger.
	logger := slog.New(slog.NewJSONHandler(app.logOutput, &slog.HandlerOptions{
		Level: cfg.App.LogLevel,
	}))
	slog.SetDefault(logger)

	logger.Info("Configuration loaded",
		slog.String("http_address", cfg.App.HTTP.Address()),
		slog.String("storage_dir", cfg.Storage.Dir),
		slog.String("storage_format", cfg.Storage.Format),
		slog.String("sqlite_path", cfg.SQLite.Path),
		slog.Duration("hover_delay", cfg.Workspace.HoverDelay),
		slog.String("log_level", cfg.App.LogLevel.String()))

	// Ensure snapshot directory exists.
	if err := os.MkdirAll(cfg.Storage.Dir, 0o755); err != nil {
		return nil, fmt.Errorf("create storage dir: %w", err)
	}

	store, err := storage.NewFS(cfg.Storage.Dir)
	if err != nil {
		return nil, fmt.Errorf("init storage: %w", err)
	}

	codec, err := snapshot.NewCodec(cfg.Storage.Format)
	if err != nil {
		return nil, fmt.Errorf("init codec: %w", err)
	}

	db, err := index.Open(cfg.SQLite.Path)
	if err != nil {
		return nil, fmt.Errorf("init index: %w", err)
	}

	// Run initial sync.
	if err := index.Sync(db, store, codec, logger); err != nil {
		logger.Warn("initial sync failed", slog.String("error", err.Error()))
	}

	return &runtime{cfg: cfg, logger: logger, store: store, codec: codec, db: db}, nil
}

func (rt *runtime) service(pub editor.Publisher) *editor.Service {
	return editor.NewService(rt.store, rt.db, rt.codec,
		editor.WithPublisher(pub),
		editor.WithLogger(rt.logger),
		editor.WithHoverDelay(rt.cfg.Workspace.HoverDelay),
	)
}

// Run starts the HTTP server with the given options.
func Run(ctx context.Context, opts ...Option) error {
	// A shutdown signal cancels the whole group, the watcher included.
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	rt, err := setup(opts)
	if err != nil {
		return err
	}
	defer rt.db.Close()

	cfg, logger := rt.cfg, rt.logger

	// SSE broker.
	broker := sse.NewBroker(cfg.Workspace.IndexThrottle)
	defer broker.Close()

	svc := rt.service(broker)
	defer svc.Close()

	apiRouter := api.NewRouter(svc, cfg.Auth.AuthEnabled(), cfg.Auth.Token, broker)

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
		if err := rt.db.Ping(); err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte(`{"status":"unavailable"}`))
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	// Mount API routes under /api.
	r.Mount("/api", apiRouter)

	httpServer := &http.Server{
		Addr:    cfg.App.HTTP.Address(),
		Handler: r,
	}

	logger.Info("Server starting...", slog.String("http_address", cfg.App.HTTP.Address()))

	g, gCtx := errgroup.WithContext(ctx)

	// Snapshot changes made outside the service reload clean sessions.
	g.Go(func() error {
		if err := index.Watch(gCtx, rt.db, rt.store, rt.codec, logger, svc.ExternalChange); err != nil {
			logger.Warn("watcher stopped", slog.String("error", err.Error()))
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

	// Shut the server down once a signal arrives or another goroutine fails.
	g.Go(func() error {
		<-gCtx.Done()
		if ctx.Err() != nil {
			logger.Info("Shutdown requested")
		} else {
			logger.Info("Component failed, initiating shutdown")
		}

		logger.Info("Shutting down server...")

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

// RunMCP serves the document tools over stdio until the client disconnects.
func RunMCP(_ context.Context, opts ...Option) error {
	opts = append([]Option{WithLogOutput(os.Stderr)}, opts...)
	rt, err := setup(opts)
	if err != nil {
		return err
	}
	defer rt.db.Close()

	svc := rt.service(nil)
	defer svc.Close()

	rt.logger.Info("MCP server starting on stdio")
	if err := mcpserver.New(svc).ServeStdio(); err != nil {
		return fmt.Errorf("mcp server: %w", err)
	}
	return nil
}
