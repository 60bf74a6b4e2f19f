package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"allie-backend/internal/bootstrap"
	"allie-backend/internal/shared/config"
	"allie-backend/internal/shared/server"
	"allie-backend/internal/shared/storage/db"
	"allie-backend/internal/shared/telemetry"
)

const shutdownTimeout = 15 * time.Second

func main() {
	cfg := config.Load()
	app, err := bootstrap.Build(cfg)
	if err != nil {
		log.Fatalf("bootstrap build: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := db.RunMigrations(ctx, app.DB); err != nil {
		log.Fatalf("run migrations: %v", err)
	}

	// With REMINDER_DISPATCH_INTERVAL unset, dispatch runs elsewhere
	// (reminderctl on a cron, or a separate API replica).
	if cfg.DispatchInterval > 0 {
		go func() {
			telemetry.Info("dispatcher.started", map[string]any{"interval": cfg.DispatchInterval.String()})
			if err := app.Dispatcher.Run(ctx, cfg.DispatchInterval); err != nil && !errors.Is(err, context.Canceled) {
				telemetry.Error("dispatcher.stopped", map[string]any{"error": err})
			}
		}()
	}

	srv := &http.Server{
		Addr:              server.Addr(cfg.Port),
		Handler:           app.Router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			telemetry.Error("server.shutdown_failed", map[string]any{"error": err})
		}
	}()

	telemetry.Info("server.started", map[string]any{"addr": srv.Addr, "env": cfg.Env})
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatalf("server error: %v", err)
	}
	telemetry.Info("server.stopped", nil)
}
