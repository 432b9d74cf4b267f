package main

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

	"fieldnotify/internal/app"
	"fieldnotify/internal/config"
	"fieldnotify/internal/domain/notification"
	"fieldnotify/internal/infra/queue"
	"fieldnotify/internal/router"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	// Initialize structured logger
	app.SetupLogger(cfg.Log)

	slog.Info("configuration loaded",
		"port", cfg.Server.Port,
		"mode", cfg.Server.Mode,
		"dispatch_mode", cfg.Dispatch.Mode,
	)

	// ==========================================
	// Dependency Injection (Manual Wiring)
	// ==========================================

	startCtx, startCancel := context.WithTimeout(context.Background(), 15*time.Second)
	pipeline, err := app.NewPipeline(startCtx, cfg)
	startCancel()
	if err != nil {
		slog.Error("failed to initialize delivery pipeline", "error", err)
		os.Exit(1)
	}
	defer pipeline.Close()

	// Queue mode hands events to the worker; inline mode dispatches here.
	var enqueuer notification.Enqueuer
	if cfg.Dispatch.Mode == "queue" {
		asynqClient := queue.NewClient(cfg.Redis.Address, cfg.Redis.Password, cfg.Redis.DB)
		defer asynqClient.Close()
		enqueuer = queue.NewDispatcher(asynqClient)
		slog.Info("asynq client initialized", "redis", cfg.Redis.Address)
	}

	intake := notification.NewIntake(pipeline.Dispatcher, enqueuer, cfg.Dispatch.Timeout())

	// Service
	notificationService := notification.NewService(
		pipeline.Notifications,
		pipeline.Logs,
		pipeline.Rules,
		pipeline.Preferences,
		intake,
		pipeline.Resolver,
	)

	// Handler
	notificationHandler := notification.NewHandler(notificationService)

	// Router
	r := router.New(cfg, notificationHandler)

	// ==========================================
	// HTTP Server with Graceful Shutdown
	// ==========================================

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		slog.Info("server starting", "address", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down server...")

	// Give outstanding requests 10 seconds to complete
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		slog.Error("server forced to shutdown", "error", err)
	}

	// Let inline dispatches already in flight finish writing their logs
	intake.Wait()

	slog.Info("server exited gracefully")
}
