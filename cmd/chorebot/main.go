package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/znicholasbrown/chorebot/internal/app"
	"github.com/znicholasbrown/chorebot/internal/config"
	"github.com/znicholasbrown/chorebot/internal/logging"
	"github.com/znicholasbrown/chorebot/internal/scheduler"
	"github.com/znicholasbrown/chorebot/internal/server"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("invalid configuration", "error", err)
		os.Exit(1)
	}
	logger := logging.Setup(cfg.Log.Level, cfg.Log.Format)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := app.New(ctx, cfg, logger)
	if err != nil {
		slog.Error("failed to start", "error", err)
		os.Exit(1)
	}
	defer a.Close()

	srv := server.New(a, server.Config{
		SlackSigningSecret: cfg.Slack.SigningSecret,
	}, logger)

	sched := scheduler.New(a.Engine, a.Cycles, scheduler.Config{
		Hour:     cfg.Rotation.CycleHour,
		Location: cfg.Rotation.Location,
	}, logger)
	sched.Start(ctx)

	go srv.RateLimiter().RunCleanup(ctx, 10*time.Minute)

	httpServer := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           srv.Router(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	go func() {
		slog.Info("chorebot starting",
			"addr", httpServer.Addr,
			"slack", cfg.Slack.Enabled(),
			"calendar", cfg.Calendar.ID != "",
			"cycle_hour", cfg.Rotation.CycleHour,
			"timezone", cfg.Rotation.Location.String(),
		)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server error", "error", err)
			stop()
		}
	}()

	<-ctx.Done()

	slog.Info("shutting down")
	sched.Stop()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		slog.Error("shutdown error", "error", err)
	}
	srv.Wait()
}
