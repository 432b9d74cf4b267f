package config

import (
	"log/slog"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecode_Defaults(t *testing.T) {
	v := viper.New()
	setDefaults(v)

	cfg, err := decode(v)
	require.NoError(t, err)

	assert.Equal(t, 8081, cfg.Server.Port)
	assert.Equal(t, "queue", cfg.Dispatch.Mode)
	assert.Equal(t, 2*time.Minute, cfg.Dispatch.Timeout())
	assert.Equal(t, 4, cfg.Dispatch.EmailWorkers)
	assert.Zero(t, cfg.Dispatch.EmailInterval())
	assert.Equal(t, 5*time.Second, cfg.Email.Timeout())
	assert.Equal(t, 20, cfg.RecipientRateLimit.MaxEmailsPerHour)
	assert.Equal(t, time.Minute, cfg.PreferenceCache.TTL())
	assert.Contains(t, cfg.CORS.AllowedHeaders, "X-User-ID")
	assert.Empty(t, cfg.Auth.APIKeys)
}

func TestDecode_Overrides(t *testing.T) {
	v := viper.New()
	setDefaults(v)
	v.Set("auth.api_keys", "k1,k2")
	v.Set("dispatch.mode", "inline")
	v.Set("dispatch.email_interval_ms", 250)
	v.Set("roles", map[string]any{"manager": "Operations Manager"})

	cfg, err := decode(v)
	require.NoError(t, err)

	assert.Equal(t, []string{"k1", "k2"}, cfg.Auth.APIKeys)
	assert.Equal(t, "inline", cfg.Dispatch.Mode)
	assert.Equal(t, 250*time.Millisecond, cfg.Dispatch.EmailInterval())
	assert.Equal(t, "Operations Manager", cfg.Roles["manager"])
}

func TestDecode_InvalidMode(t *testing.T) {
	v := viper.New()
	setDefaults(v)
	v.Set("dispatch.mode", "carrier-pigeon")

	_, err := decode(v)
	assert.ErrorContains(t, err, "dispatch.mode")
}

func TestLoad_Environment(t *testing.T) {
	t.Setenv("FIELDNOTIFY_SERVER_PORT", "9090")
	t.Setenv("FIELDNOTIFY_AUTH_API_KEYS", "alpha, beta")
	t.Setenv("FIELDNOTIFY_DISPATCH_MODE", "inline")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, []string{"alpha", "beta"}, cfg.Auth.APIKeys)
	assert.Equal(t, "inline", cfg.Dispatch.Mode)
}

func TestLogConfig_SlogLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, LogConfig{Level: "debug"}.SlogLevel())
	assert.Equal(t, slog.LevelWarn, LogConfig{Level: "WARN"}.SlogLevel())
	assert.Equal(t, slog.LevelInfo, LogConfig{Level: "chatty"}.SlogLevel())
	assert.Equal(t, slog.LevelInfo, LogConfig{}.SlogLevel())
}
