package store

import (
	"encoding/json"
	"fmt"
	"time"

	supa "github.com/supabase-community/supabase-go"
)

// Table names.
const (
	tableNotifications = "notifications"
	tableDeliveryLogs  = "notification_delivery_logs"
	tableRules         = "notification_rules"
	tablePreferences   = "notification_preferences"
)

// NewClient creates the Supabase client shared by all stores.
func NewClient(supabaseURL, serviceKey string) (*supa.Client, error) {
	client, err := supa.NewClient(supabaseURL, serviceKey, nil)
	if err != nil {
		return nil, fmt.Errorf("creating supabase client: %w", err)
	}
	return client, nil
}

// decodeRows unmarshals a PostgREST array response.
func decodeRows[T any](data []byte, what string) ([]T, error) {
	var rows []T
	if len(data) == 0 {
		return rows, nil
	}
	if err := json.Unmarshal(data, &rows); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", what, err)
	}
	return rows, nil
}

func parseTime(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}
	}
	return t
}

func parseTimePtr(s *string) *time.Time {
	if s == nil || *s == "" {
		return nil
	}
	t := parseTime(*s)
	if t.IsZero() {
		return nil
	}
	return &t
}

func nowString() string {
	return time.Now().UTC().Format(time.RFC3339Nano)
}

func offsetRange(page, pageSize int) (from, to int) {
	from = (page - 1) * pageSize
	return from, from + pageSize - 1
}
