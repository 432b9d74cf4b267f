package config

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	Server             ServerConfig             `mapstructure:"server"`
	Auth               AuthConfig               `mapstructure:"auth"`
	Log                LogConfig                `mapstructure:"log"`
	Email              EmailConfig              `mapstructure:"email"`
	CORS               CORSConfig               `mapstructure:"cors"`
	RateLimit          RateLimitConfig          `mapstructure:"rate_limit"`
	Redis              RedisConfig              `mapstructure:"redis"`
	Supabase           SupabaseConfig           `mapstructure:"supabase"`
	Database           DatabaseConfig           `mapstructure:"database"`
	Queue              QueueConfig              `mapstructure:"queue"`
	Dispatch           DispatchConfig           `mapstructure:"dispatch"`
	RecipientRateLimit RecipientRateLimitConfig `mapstructure:"recipient_rate_limit"`
	PreferenceCache    PreferenceCacheConfig    `mapstructure:"preference_cache"`

	// Roles overrides the directory role names used by the recipient
	// resolver, keyed by role token (manager, executive, supervisor).
	Roles map[string]string `mapstructure:"roles"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port int    `mapstructure:"port"`
	Mode string `mapstructure:"mode"`
}

// AuthConfig holds API key authentication settings.
type AuthConfig struct {
	APIKeys []string `mapstructure:"api_keys"`
}

// LogConfig holds structured logging settings.
type LogConfig struct {
	Level string `mapstructure:"level"`
}

// EmailConfig holds email provider settings.
type EmailConfig struct {
	Provider    string `mapstructure:"provider"`
	APIKey      string `mapstructure:"api_key"`
	FromAddress string `mapstructure:"from_address"`
	FromName    string `mapstructure:"from_name"`
	TimeoutSec  int    `mapstructure:"timeout_sec"`
}

// CORSConfig holds CORS policy settings.
type CORSConfig struct {
	AllowedOrigins []string `mapstructure:"allowed_origins"`
	AllowedMethods []string `mapstructure:"allowed_methods"`
	AllowedHeaders []string `mapstructure:"allowed_headers"`
}

// RateLimitConfig holds rate limiting settings.
type RateLimitConfig struct {
	RequestsPerSecond float64 `mapstructure:"requests_per_second"`
	Burst             int     `mapstructure:"burst"`
}

// RedisConfig holds Redis connection settings.
type RedisConfig struct {
	Address  string `mapstructure:"address"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// SupabaseConfig holds Supabase project settings.
type SupabaseConfig struct {
	URL        string `mapstructure:"url"`
	ServiceKey string `mapstructure:"service_key"`
}

// DatabaseConfig holds the connection to the business directory database.
type DatabaseConfig struct {
	DSN          string `mapstructure:"dsn"`
	MaxOpenConns int    `mapstructure:"max_open_conns"`
}

// QueueConfig holds async queue settings.
type QueueConfig struct {
	Concurrency int `mapstructure:"concurrency"`
}

// DispatchConfig holds delivery pipeline settings.
type DispatchConfig struct {
	// Mode is "queue" to hand events to the worker or "inline" to dispatch
	// on a detached goroutine inside the server.
	Mode            string `mapstructure:"mode"`
	TimeoutSec      int    `mapstructure:"timeout_sec"`
	EmailWorkers    int    `mapstructure:"email_workers"`
	EmailIntervalMS int    `mapstructure:"email_interval_ms"`
	AppBaseURL      string `mapstructure:"app_base_url"`
}

// RecipientRateLimitConfig holds per-recipient email limiting settings.
type RecipientRateLimitConfig struct {
	MaxEmailsPerHour int `mapstructure:"max_emails_per_hour"`
}

// PreferenceCacheConfig holds the Redis preference cache settings.
// A zero TTL disables the cache.
type PreferenceCacheConfig struct {
	TTLSec int `mapstructure:"ttl_sec"`
}

// Timeout returns the bound on one detached dispatch.
func (d DispatchConfig) Timeout() time.Duration {
	return time.Duration(d.TimeoutSec) * time.Second
}

// EmailInterval returns the minimum spacing between email sends.
func (d DispatchConfig) EmailInterval() time.Duration {
	return time.Duration(d.EmailIntervalMS) * time.Millisecond
}

// Timeout returns the per-request provider timeout.
func (e EmailConfig) Timeout() time.Duration {
	return time.Duration(e.TimeoutSec) * time.Second
}

// TTL returns the preference cache entry lifetime.
func (p PreferenceCacheConfig) TTL() time.Duration {
	return time.Duration(p.TTLSec) * time.Second
}

// SlogLevel maps the configured level name to a slog level. Unknown names
// fall back to info.
func (l LogConfig) SlogLevel() slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(l.Level)); err != nil {
		return slog.LevelInfo
	}
	return level
}

// Load reads configuration from config.yaml and environment variables.
// Environment variables use the FIELDNOTIFY_ prefix and underscore separators.
// Example: FIELDNOTIFY_SERVER_PORT overrides server.port in config.yaml.
func Load() (*Config, error) {
	v := viper.New()

	// Config file settings
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")

	// Load .env file if it exists
	_ = godotenv.Load()

	// Environment variable settings
	v.SetEnvPrefix("FIELDNOTIFY")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	// Read config file (optional, env vars can provide everything)
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
	}

	return decode(v)
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8081)
	v.SetDefault("server.mode", "debug")
	v.SetDefault("log.level", "info")
	v.SetDefault("email.provider", "resend")
	v.SetDefault("email.timeout_sec", 5)
	v.SetDefault("cors.allowed_origins", []string{"*"})
	v.SetDefault("cors.allowed_methods", []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"})
	v.SetDefault("cors.allowed_headers", []string{"Origin", "Content-Type", "X-API-Key", "X-User-ID", "X-Request-ID"})
	v.SetDefault("rate_limit.requests_per_second", 10)
	v.SetDefault("rate_limit.burst", 20)
	v.SetDefault("redis.address", "localhost:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("database.max_open_conns", 10)
	v.SetDefault("queue.concurrency", 10)
	v.SetDefault("dispatch.mode", "queue")
	v.SetDefault("dispatch.timeout_sec", 120)
	v.SetDefault("dispatch.email_workers", 4)
	v.SetDefault("dispatch.email_interval_ms", 0)
	v.SetDefault("recipient_rate_limit.max_emails_per_hour", 20)
	v.SetDefault("preference_cache.ttl_sec", 60)
}

func decode(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	// Handle comma-separated API keys from env var
	if apiKeysStr := v.GetString("auth.api_keys"); apiKeysStr != "" && len(cfg.Auth.APIKeys) <= 1 {
		cfg.Auth.APIKeys = splitList(apiKeysStr)
	}

	switch cfg.Dispatch.Mode {
	case "queue", "inline":
	default:
		return nil, fmt.Errorf("invalid dispatch.mode %q: want queue or inline", cfg.Dispatch.Mode)
	}

	return &cfg, nil
}

func splitList(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
