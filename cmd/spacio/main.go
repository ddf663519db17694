package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"spacio/internal/infra/config"
	ginserver "spacio/internal/infra/http/gin"
	"spacio/internal/infra/obs"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger := obs.NewLogger(getenv("APP_ENV", "dev"))

	cfg, err := config.Load()
	if err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(1)
	}
	logger = obs.NewLogger(cfg.Env)

	be, err := openBackends(ctx, cfg, logger)
	if err != nil {
		logger.Error("backends unavailable", "error", err)
		os.Exit(1)
	}
	defer be.close(logger)

	app, err := buildApplication(cfg, logger, be)
	if err != nil {
		logger.Error("application wiring failed", "error", err)
		os.Exit(1)
	}

	if err := loadListingFixtures(ctx, be.listings, app.policies, cfg, logger); err != nil {
		logger.Warn("listing fixtures load failed", "error", err, "path", cfg.ListingsFixtures)
	}

	go func() {
		if err := app.worker.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("outbox worker stopped", "error", err)
		}
	}()
	if err := app.scheduleJobs(ctx, cfg); err != nil {
		logger.Error("scheduler setup failed", "error", err)
		os.Exit(1)
	}
	defer func() {
		if err := app.scheduler.Shutdown(); err != nil {
			logger.Warn("scheduler shutdown failed", "error", err)
		}
	}()

	server := ginserver.NewServer(cfg, obs.Middleware{Logger: logger}, obs.HealthHandlers{Checks: be.checks}, app.handlers)
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("http shutdown failed", "error", err)
		}
	}()

	logger.Info("HTTP server starting", "addr", cfg.HTTPAddr, "storage", be.kind)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("http server failed", "error", err)
		os.Exit(1)
	}
	logger.Info("HTTP server stopped")
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
