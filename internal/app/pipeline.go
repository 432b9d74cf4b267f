// Package app wires the delivery pipeline shared by the server and worker
// binaries.
package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"fieldnotify/internal/config"
	"fieldnotify/internal/domain/notification"
	"fieldnotify/internal/infra/cache"
	"fieldnotify/internal/infra/directory"
	"fieldnotify/internal/infra/email"
	"fieldnotify/internal/infra/ratelimit"
	"fieldnotify/internal/infra/store"
	"fieldnotify/internal/infra/template"

	"github.com/redis/go-redis/v9"
)

// SetupLogger installs the JSON slog handler as the default logger.
func SetupLogger(cfg config.LogConfig) {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: cfg.SlogLevel(),
	}))
	slog.SetDefault(logger)
}

// Pipeline holds the wired stores and the dispatcher.
type Pipeline struct {
	Notifications *store.NotificationStore
	Logs          *store.DeliveryLogStore
	Rules         *store.RuleStore
	Preferences   notification.PreferenceStore
	Resolver      *notification.Resolver
	Dispatcher    *notification.Dispatcher

	db    *sql.DB
	redis *redis.Client
}

// NewPipeline connects to Supabase, the directory database and Redis and
// builds the dispatcher.
func NewPipeline(ctx context.Context, cfg *config.Config) (*Pipeline, error) {
	// Supabase stores
	supaClient, err := store.NewClient(cfg.Supabase.URL, cfg.Supabase.ServiceKey)
	if err != nil {
		return nil, err
	}
	p := &Pipeline{
		Notifications: store.NewNotificationStore(supaClient),
		Logs:          store.NewDeliveryLogStore(supaClient),
		Rules:         store.NewRuleStore(supaClient),
	}
	slog.Info("supabase stores initialized")

	// Directory
	if cfg.Database.DSN == "" {
		return nil, errors.New("database.dsn is required for recipient resolution")
	}
	p.db, err = directory.Open(ctx, cfg.Database.DSN, cfg.Database.MaxOpenConns)
	if err != nil {
		return nil, err
	}
	dir := directory.NewPostgresDirectory(p.db)
	slog.Info("directory database connected")

	// Redis: preference cache and per-recipient email limit
	p.redis = redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Address,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})

	var prefs notification.PreferenceStore = store.NewPreferenceStore(supaClient)
	if ttl := cfg.PreferenceCache.TTL(); ttl > 0 {
		prefs = cache.NewPreferenceCache(prefs, p.redis, ttl)
		slog.Info("preference cache enabled", "ttl", ttl)
	}
	p.Preferences = prefs

	limiter := ratelimit.NewEmailLimiter(p.redis, cfg.RecipientRateLimit.MaxEmailsPerHour)
	slog.Info("recipient email limiter initialized", "max_per_hour", cfg.RecipientRateLimit.MaxEmailsPerHour)

	// Email
	sender := email.NewResendSender(
		cfg.Email.APIKey,
		cfg.Email.FromAddress,
		cfg.Email.FromName,
		cfg.Email.Timeout(),
	)
	if !sender.Configured() {
		slog.Warn("email provider not configured, email deliveries will be logged as skipped")
	}

	renderer, err := template.NewEngine(cfg.Dispatch.AppBaseURL)
	if err != nil {
		return nil, fmt.Errorf("initializing email templates: %w", err)
	}

	p.Resolver = notification.NewResolver(dir, cfg.Roles)

	p.Dispatcher = notification.NewDispatcher(notification.DispatcherDeps{
		Rules:         p.Rules,
		Resolver:      p.Resolver,
		Composer:      notification.NewComposer(),
		Gate:          notification.NewPreferenceGate(p.Preferences),
		Notifications: p.Notifications,
		Logs:          p.Logs,
		Email:         sender,
		Renderer:      renderer,
		RateLimiter:   limiter,
	}, notification.DispatcherConfig{
		EmailWorkers:  cfg.Dispatch.EmailWorkers,
		EmailInterval: cfg.Dispatch.EmailInterval(),
		SendTimeout:   cfg.Email.Timeout(),
	})

	return p, nil
}

// Close releases the database and Redis connections.
func (p *Pipeline) Close() error {
	var errs []error
	if p.redis != nil {
		errs = append(errs, p.redis.Close())
	}
	if p.db != nil {
		errs = append(errs, p.db.Close())
	}
	return errors.Join(errs...)
}
