package notification

import (
	"context"
	"log/slog"
)

// PreferenceGate decides whether a user accepts a category on a channel.
// Users are opted in unless they explicitly opted out.
type PreferenceGate struct {
	store PreferenceStore
}

// NewPreferenceGate creates a gate over a preference store. A nil store
// allows everything.
func NewPreferenceGate(store PreferenceStore) *PreferenceGate {
	return &PreferenceGate{store: store}
}

// Allowed reports whether delivery is permitted. Missing rows and store
// errors both allow delivery.
func (g *PreferenceGate) Allowed(ctx context.Context, userID, category string, channel Channel) bool {
	if g == nil || g.store == nil {
		return true
	}

	enabled, err := g.store.GetPreference(ctx, userID, category, channel)
	if err != nil {
		slog.Warn("preference lookup failed, allowing delivery",
			"user_id", userID,
			"category", category,
			"channel", channel,
			"error", err,
		)
		return true
	}
	if enabled == nil {
		return true
	}
	return *enabled
}
