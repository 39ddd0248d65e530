package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/PratikDhanave/metadata-change-listener/internal/config"
	"github.com/PratikDhanave/metadata-change-listener/internal/httpserver"
	"github.com/PratikDhanave/metadata-change-listener/internal/pkg/logger"
	"github.com/PratikDhanave/metadata-change-listener/internal/store"
	"github.com/PratikDhanave/metadata-change-listener/internal/tracing"
)

// main boots the listener: config → logger → tracing → DB → schema → HTTP server.
func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	if err := logger.Init(cfg.Log.Level, cfg.Log.Format); err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := tracing.Init(ctx, cfg.Tracing)
	if err != nil {
		return fmt.Errorf("init tracing: %w", err)
	}
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		if err := shutdownTracing(sctx); err != nil {
			logger.Warn("Tracing shutdown failed", zap.Error(err))
		}
	}()

	db, err := store.NewPostgresStore(ctx, cfg.Database)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer db.Close()

	// Tables must exist before the first webhook is accepted.
	if err := db.EnsureSchema(ctx); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}
	logger.Info("Database schema ready", zap.String("database", cfg.Database.Name))

	if !cfg.Webhook.AuthEnabled() {
		logger.Warn("WEBHOOK_SECRET is empty, /webhook accepts unauthenticated requests")
	}

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      httpserver.NewRouter(cfg, db),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	logger.Info("Listener started",
		zap.String("addr", srv.Addr),
		zap.Bool("auth_enabled", cfg.Webhook.AuthEnabled()),
		zap.String("log_level", cfg.Log.Level),
	)

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
	case <-ctx.Done():
		logger.Info("Shutting down")
	}

	sctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(sctx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	logger.Info("Listener stopped")
	return nil
}
