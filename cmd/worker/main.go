package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"fieldnotify/internal/app"
	"fieldnotify/internal/config"
	"fieldnotify/internal/domain/notification"
	"fieldnotify/internal/infra/queue"

	"github.com/hibiken/asynq"
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

	slog.Info("worker configuration loaded")

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

	// ==========================================
	// Asynq Server (task processing)
	// ==========================================

	asynqServer := queue.NewServer(
		cfg.Redis.Address,
		cfg.Redis.Password,
		cfg.Redis.DB,
		cfg.Queue.Concurrency,
	)

	dispatchTimeout := cfg.Dispatch.Timeout()

	// Register task handlers
	mux := asynq.NewServeMux()
	mux.HandleFunc(notification.TaskTypeDispatchEvent, func(ctx context.Context, task *asynq.Task) error {
		event, err := notification.ParseDispatchEventPayload(task.Payload())
		if err != nil {
			return fmt.Errorf("%w: %v", asynq.SkipRetry, err)
		}

		if dispatchTimeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, dispatchTimeout)
			defer cancel()
		}

		pipeline.Dispatcher.Dispatch(ctx, event)
		return nil
	})

	// Start the asynq worker in a goroutine
	go func() {
		slog.Info("worker starting",
			"concurrency", cfg.Queue.Concurrency,
			"redis", cfg.Redis.Address,
		)
		if err := asynqServer.Run(mux); err != nil {
			slog.Error("worker failed to start", "error", err)
			os.Exit(1)
		}
	}()

	// ==========================================
	// Graceful Shutdown
	// ==========================================

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down worker...")
	asynqServer.Shutdown()
	slog.Info("worker exited gracefully")
}
