package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"briefdesk/internal/config"
	"briefdesk/internal/db"
	"briefdesk/internal/dispatch"
	"briefdesk/internal/email"
	"briefdesk/internal/jobs"
	"briefdesk/internal/lifecycle"
	"briefdesk/internal/metrics"
	"briefdesk/internal/server"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfg := config.Load()

	database, err := db.New(ctx, cfg.DatabaseURL)
	if err != nil {
		slog.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer database.Close()

	if err := database.RunMigrations(cfg.DatabaseURL); err != nil {
		slog.Error("failed to run migrations", "error", err)
		os.Exit(1)
	}
	slog.Info("migrations completed")

	gen, err := config.LoadGenerationConfig(cfg.GenerationConfigFile)
	if err != nil {
		slog.Error("failed to load generation config", "file", cfg.GenerationConfigFile, "error", err)
		os.Exit(1)
	}

	metrics.Init(database)

	notifier := email.NewNotifier(cfg, database)
	dispatcher := dispatch.NewClient(cfg)
	controller := lifecycle.New(database, dispatcher, cfg, gen, notifier)

	var probe *jobs.DispatcherProbe
	if cfg.IsDispatchConfigured() {
		probe = jobs.NewDispatcherProbe(dispatcher, cfg.ProbeInterval)
		go probe.Start(ctx)
	} else {
		slog.Warn("dispatcher not configured, generation dispatch disabled",
			"hint", "set DISPATCHER_URL and PLUGIN_SECRET_TOKEN")
	}

	srv := server.New(cfg)
	if err := srv.RegisterRoutes(ctx, database, controller, gen, probe); err != nil {
		slog.Error("failed to register routes", "error", err)
		os.Exit(1)
	}

	go func() {
		if err := srv.Start(); err != nil {
			slog.Error("server error", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down")
	cancel()
	if err := srv.Shutdown(); err != nil {
		slog.Error("forced shutdown", "error", err)
		os.Exit(1)
	}
	slog.Info("server exited")
}
