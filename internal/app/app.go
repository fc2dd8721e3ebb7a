package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"

	"github.com/MrEthical07/aura"
	"github.com/MrEthical07/aura/console"
)

// App owns the Engine, its storage backend and the console HTTP server.
type App struct {
	cfg     Config
	log     *slog.Logger
	engine  *aura.Engine
	console *console.Server
	closeKV func() error

	stopTelemetry func(context.Context) error
}

// New opens storage and builds the Engine and console. The session is not
// restored until Run.
func New(ctx context.Context, cfg Config, log *slog.Logger) (*App, error) {
	if log == nil {
		log = NewLogger(cfg.LogLevel)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	kv, closeKV, err := openStorage(ctx, cfg, log)
	if err != nil {
		return nil, fmt.Errorf("open storage: %w", err)
	}

	builder := aura.New().
		WithConfig(cfg.EngineConfig()).
		WithStorage(kv).
		WithLogger(log.With(slog.String("component", "session")))
	if cfg.AuditEnabled {
		builder = builder.WithAuditSink(aura.NewSlogSink(log.With(slog.String("component", "audit"))))
	}
	engine, err := builder.Build()
	if err != nil {
		_ = closeKV()
		return nil, fmt.Errorf("build engine: %w", err)
	}

	var stopTelemetry func(context.Context) error
	if cfg.OTelEnabled {
		stopTelemetry, err = startTelemetry(engine, cfg.OTelInterval, log.With(slog.String("component", "otel")))
		if err != nil {
			engine.Close()
			_ = closeKV()
			return nil, fmt.Errorf("start telemetry: %w", err)
		}
	}

	srv := console.New(engine, console.Options{
		BasePath:         cfg.BasePath,
		Logger:           log.With(slog.String("component", "console")),
		RedirectSignedIn: cfg.RedirectSignedIn,
		AllowedOrigins:   cfg.AllowedOrigins,
	})

	return &App{
		cfg:     cfg,
		log:     log,
		engine:  engine,
		console: srv,
		closeKV: closeKV,

		stopTelemetry: stopTelemetry,
	}, nil
}

// Engine returns the session store.
func (a *App) Engine() *aura.Engine {
	return a.engine
}

// Handler returns the full middleware chain around the console.
func (a *App) Handler() http.Handler {
	return WithRequestID(WithRequestLogging(a.console, a.log))
}

// Run restores the session in the background, serves until ctx is done, then
// shuts down and releases storage.
func (a *App) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", a.cfg.HTTPAddr)
	if err != nil {
		a.Close()
		return fmt.Errorf("listen %s: %w", a.cfg.HTTPAddr, err)
	}
	return a.Serve(ctx, ln)
}

// Serve is Run on an existing listener.
func (a *App) Serve(ctx context.Context, ln net.Listener) error {
	defer a.Close()

	srv := &http.Server{
		Handler:           a.Handler(),
		ReadHeaderTimeout: a.cfg.ReadHeaderTimeout,
		ReadTimeout:       a.cfg.ReadTimeout,
		IdleTimeout:       a.cfg.IdleTimeout,
		MaxHeaderBytes:    1 << 20,
	}

	go a.engine.Initialize(ctx)

	a.log.Info("server.start",
		slog.String("addr", ln.Addr().String()),
		slog.String("storage", a.cfg.Storage),
		slog.String("base_path", a.cfg.BasePath),
	)

	errCh := make(chan error, 1)
	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		a.log.Info("server.stop", slog.String("reason", "context_done"))
	case err := <-errCh:
		a.log.Error("server.fail", slog.String("error", err.Error()))
		return err
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.ShutdownTimeout)
	defer cancel()

	// Ends open session feeds.
	a.engine.Close()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		a.log.Error("server.shutdown.fail", slog.String("error", err.Error()))
		return err
	}

	a.log.Info("server.stopped")
	return nil
}

// Close stops the Engine, flushes telemetry and releases the storage backend.
// It is safe to call more than once.
func (a *App) Close() {
	a.engine.Close()
	if a.stopTelemetry != nil {
		ctx, cancel := context.WithTimeout(context.Background(), a.cfg.ShutdownTimeout)
		if err := a.stopTelemetry(ctx); err != nil {
			a.log.Error("otel.shutdown.fail", slog.String("error", err.Error()))
		}
		cancel()
		a.stopTelemetry = nil
	}
	if a.closeKV != nil {
		if err := a.closeKV(); err != nil {
			a.log.Error("storage.close.fail", slog.String("error", err.Error()))
		}
		a.closeKV = nil
	}
}
