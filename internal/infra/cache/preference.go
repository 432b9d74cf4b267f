package cache

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"fieldnotify/internal/domain/notification"

	"github.com/redis/go-redis/v9"
)

var _ notification.PreferenceStore = (*PreferenceCache)(nil)

const prefKeyPrefix = "fieldnotify:pref:"

// Cached values. An explicit "unset" entry caches the absence of a row,
// which is the common case.
const (
	valEnabled  = "1"
	valDisabled = "0"
	valUnset    = "-"
)

// PreferenceCache is a read-through Redis cache in front of a PreferenceStore.
// Writes go to the store and invalidate the cached entry. Redis failures
// fall back to the store.
type PreferenceCache struct {
	next   notification.PreferenceStore
	client redis.Cmdable
	ttl    time.Duration
}

// NewPreferenceCache wraps next with a cache whose entries live for ttl.
func NewPreferenceCache(next notification.PreferenceStore, client redis.Cmdable, ttl time.Duration) *PreferenceCache {
	return &PreferenceCache{next: next, client: client, ttl: ttl}
}

func prefKey(userID, category string, channel notification.Channel) string {
	return prefKeyPrefix + userID + ":" + category + ":" + string(channel)
}

// GetPreference returns the cached decision, loading it from the store on a miss.
func (c *PreferenceCache) GetPreference(ctx context.Context, userID, category string, channel notification.Channel) (*bool, error) {
	key := prefKey(userID, category, channel)

	val, err := c.client.Get(ctx, key).Result()
	switch {
	case err == nil:
		switch val {
		case valEnabled:
			return boolPtr(true), nil
		case valDisabled:
			return boolPtr(false), nil
		case valUnset:
			return nil, nil
		}
	case !errors.Is(err, redis.Nil):
		slog.Debug("preference cache read failed", "key", key, "error", err)
	}

	enabled, err := c.next.GetPreference(ctx, userID, category, channel)
	if err != nil {
		return nil, err
	}

	stored := valUnset
	if enabled != nil {
		stored = valDisabled
		if *enabled {
			stored = valEnabled
		}
	}
	if err := c.client.Set(ctx, key, stored, c.ttl).Err(); err != nil {
		slog.Debug("preference cache write failed", "key", key, "error", err)
	}

	return enabled, nil
}

// ListPreferences is not cached.
func (c *PreferenceCache) ListPreferences(ctx context.Context, userID string) ([]*notification.Preference, error) {
	return c.next.ListPreferences(ctx, userID)
}

// UpsertPreference writes through and drops the cached entry.
func (c *PreferenceCache) UpsertPreference(ctx context.Context, pref *notification.Preference) error {
	if err := c.next.UpsertPreference(ctx, pref); err != nil {
		return err
	}

	key := prefKey(pref.UserID, pref.Category, pref.Channel)
	if err := c.client.Del(ctx, key).Err(); err != nil {
		slog.Warn("preference cache invalidation failed", "key", key, "error", err)
	}
	return nil
}

func boolPtr(b bool) *bool { return &b }
