package store

import (
	"context"
	"fmt"

	"fieldnotify/internal/domain/notification"

	supa "github.com/supabase-community/supabase-go"
)

var _ notification.PreferenceStore = (*PreferenceStore)(nil)

// PreferenceStore implements notification.PreferenceStore on Supabase.
// (user_id, category, channel) is unique.
type PreferenceStore struct {
	client *supa.Client
}

// NewPreferenceStore creates a Supabase-backed preference store.
func NewPreferenceStore(client *supa.Client) *PreferenceStore {
	return &PreferenceStore{client: client}
}

type preferenceRow struct {
	UserID    string `json:"user_id"`
	Category  string `json:"category"`
	Channel   string `json:"channel"`
	Enabled   bool   `json:"enabled"`
	UpdatedAt string `json:"updated_at,omitempty"`
}

// GetPreference returns the stored flag, or nil when the pair was never set.
func (s *PreferenceStore) GetPreference(ctx context.Context, userID, category string, channel notification.Channel) (*bool, error) {
	data, _, err := s.client.From(tablePreferences).
		Select("enabled", "", false).
		Eq("user_id", userID).
		Eq("category", category).
		Eq("channel", string(channel)).
		Execute()
	if err != nil {
		return nil, fmt.Errorf("fetching preference: %w", err)
	}

	rows, err := decodeRows[struct {
		Enabled bool `json:"enabled"`
	}](data, "preference")
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	enabled := rows[0].Enabled
	return &enabled, nil
}

// ListPreferences returns every explicit preference of a user.
func (s *PreferenceStore) ListPreferences(ctx context.Context, userID string) ([]*notification.Preference, error) {
	data, _, err := s.client.From(tablePreferences).
		Select("*", "", false).
		Eq("user_id", userID).
		Execute()
	if err != nil {
		return nil, fmt.Errorf("listing preferences: %w", err)
	}

	rows, err := decodeRows[preferenceRow](data, "preferences")
	if err != nil {
		return nil, err
	}

	prefs := make([]*notification.Preference, len(rows))
	for i, r := range rows {
		prefs[i] = &notification.Preference{
			UserID:   r.UserID,
			Category: r.Category,
			Channel:  notification.Channel(r.Channel),
			Enabled:  r.Enabled,
		}
	}
	return prefs, nil
}

// UpsertPreference inserts or overwrites a preference.
func (s *PreferenceStore) UpsertPreference(ctx context.Context, pref *notification.Preference) error {
	row := preferenceRow{
		UserID:    pref.UserID,
		Category:  pref.Category,
		Channel:   string(pref.Channel),
		Enabled:   pref.Enabled,
		UpdatedAt: nowString(),
	}

	_, _, err := s.client.From(tablePreferences).
		Insert(row, true, "user_id,category,channel", "minimal", "").
		Execute()
	if err != nil {
		return fmt.Errorf("upserting preference: %w", err)
	}
	return nil
}
