package store

import (
	"context"
	"fmt"

	"fieldnotify/internal/domain/notification"

	"github.com/supabase-community/postgrest-go"
	supa "github.com/supabase-community/supabase-go"
)

var _ notification.NotificationStore = (*NotificationStore)(nil)

// NotificationStore implements notification.NotificationStore on Supabase.
type NotificationStore struct {
	client *supa.Client
}

// NewNotificationStore creates a Supabase-backed notification store.
func NewNotificationStore(client *supa.Client) *NotificationStore {
	return &NotificationStore{client: client}
}

type notificationRow struct {
	ID                string  `json:"id,omitempty"`
	UserID            string  `json:"user_id"`
	Category          string  `json:"category"`
	Type              string  `json:"type"`
	Title             string  `json:"title"`
	Message           string  `json:"message"`
	ShortMessage      string  `json:"short_message"`
	Priority          string  `json:"priority"`
	Read              bool    `json:"read"`
	RelatedEntityType *string `json:"related_entity_type,omitempty"`
	RelatedEntityID   *string `json:"related_entity_id,omitempty"`
	RelatedEntityName *string `json:"related_entity_name,omitempty"`
	ActionURL         *string `json:"action_url,omitempty"`
	CreatedAt         string  `json:"created_at,omitempty"`
	ReadAt            *string `json:"read_at,omitempty"`
	DeletedAt         *string `json:"deleted_at,omitempty"`
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// Insert stores a new notification.
func (s *NotificationStore) Insert(ctx context.Context, n *notification.Notification) error {
	row := notificationRow{
		UserID:            n.UserID,
		Category:          n.Category,
		Type:              n.Type,
		Title:             n.Title,
		Message:           n.Message,
		ShortMessage:      n.ShortMessage,
		Priority:          string(n.Priority),
		RelatedEntityType: optional(n.RelatedEntityType),
		RelatedEntityID:   optional(n.RelatedEntityID),
		RelatedEntityName: optional(n.RelatedEntityName),
		ActionURL:         optional(n.ActionURL),
	}

	data, _, err := s.client.From(tableNotifications).Insert(row, false, "", "representation", "").Execute()
	if err != nil {
		return fmt.Errorf("inserting notification: %w", err)
	}

	rows, err := decodeRows[notificationRow](data, "insert response")
	if err != nil {
		return err
	}
	if len(rows) > 0 {
		n.ID = rows[0].ID
		n.CreatedAt = parseTime(rows[0].CreatedAt)
	}
	return nil
}

// List retrieves a page of the user's notifications, newest first.
func (s *NotificationStore) List(ctx context.Context, userID string, filter notification.ListFilter) ([]*notification.Notification, int, error) {
	query := s.client.From(tableNotifications).
		Select("*", "exact", false).
		Eq("user_id", userID).
		Is("deleted_at", "null")

	if filter.UnreadOnly {
		query = query.Eq("read", "false")
	}
	if filter.Category != "" {
		query = query.Eq("category", filter.Category)
	}
	if filter.Type != "" {
		query = query.Eq("type", filter.Type)
	}

	from, to := offsetRange(filter.Page, filter.PageSize)
	query = query.Order("created_at", &postgrest.OrderOpts{Ascending: false})
	query = query.Range(from, to, "")

	data, count, err := query.Execute()
	if err != nil {
		return nil, 0, fmt.Errorf("listing notifications: %w", err)
	}

	rows, err := decodeRows[notificationRow](data, "notification list")
	if err != nil {
		return nil, 0, err
	}

	out := make([]*notification.Notification, len(rows))
	for i := range rows {
		out[i] = rowToNotification(&rows[i])
	}
	return out, int(count), nil
}

// UnreadCount counts unread, non-deleted notifications without fetching rows.
func (s *NotificationStore) UnreadCount(ctx context.Context, userID string) (int, error) {
	_, count, err := s.client.From(tableNotifications).
		Select("id", "exact", true).
		Eq("user_id", userID).
		Eq("read", "false").
		Is("deleted_at", "null").
		Execute()
	if err != nil {
		return 0, fmt.Errorf("counting unread notifications: %w", err)
	}
	return int(count), nil
}

// MarkRead sets read and read_at on one of the user's notifications.
func (s *NotificationStore) MarkRead(ctx context.Context, userID, id string) (bool, error) {
	update := map[string]any{
		"read":    true,
		"read_at": nowString(),
	}

	data, _, err := s.client.From(tableNotifications).
		Update(update, "representation", "").
		Eq("id", id).
		Eq("user_id", userID).
		Is("deleted_at", "null").
		Execute()
	if err != nil {
		return false, fmt.Errorf("marking notification read: %w", err)
	}

	rows, err := decodeRows[notificationRow](data, "update response")
	if err != nil {
		return false, err
	}
	return len(rows) > 0, nil
}

// MarkAllRead marks every unread notification of the user read.
func (s *NotificationStore) MarkAllRead(ctx context.Context, userID string) (int, error) {
	update := map[string]any{
		"read":    true,
		"read_at": nowString(),
	}

	_, count, err := s.client.From(tableNotifications).
		Update(update, "minimal", "exact").
		Eq("user_id", userID).
		Eq("read", "false").
		Is("deleted_at", "null").
		Execute()
	if err != nil {
		return 0, fmt.Errorf("marking all notifications read: %w", err)
	}
	return int(count), nil
}

// SoftDelete stamps deleted_at so the row drops out of every listing.
func (s *NotificationStore) SoftDelete(ctx context.Context, userID, id string) (bool, error) {
	data, _, err := s.client.From(tableNotifications).
		Update(map[string]any{"deleted_at": nowString()}, "representation", "").
		Eq("id", id).
		Eq("user_id", userID).
		Is("deleted_at", "null").
		Execute()
	if err != nil {
		return false, fmt.Errorf("deleting notification: %w", err)
	}

	rows, err := decodeRows[notificationRow](data, "delete response")
	if err != nil {
		return false, err
	}
	return len(rows) > 0, nil
}

// Stats aggregates the user's notifications by read state and category.
func (s *NotificationStore) Stats(ctx context.Context, userID string) (*notification.Stats, error) {
	data, _, err := s.client.From(tableNotifications).
		Select("category,read", "", false).
		Eq("user_id", userID).
		Is("deleted_at", "null").
		Execute()
	if err != nil {
		return nil, fmt.Errorf("loading notification stats: %w", err)
	}

	rows, err := decodeRows[struct {
		Category string `json:"category"`
		Read     bool   `json:"read"`
	}](data, "notification stats")
	if err != nil {
		return nil, err
	}

	stats := &notification.Stats{ByCategory: make(map[string]int)}
	for _, r := range rows {
		stats.Total++
		if !r.Read {
			stats.Unread++
		}
		stats.ByCategory[r.Category]++
	}
	return stats, nil
}

func rowToNotification(row *notificationRow) *notification.Notification {
	return &notification.Notification{
		ID:                row.ID,
		UserID:            row.UserID,
		Category:          row.Category,
		Type:              row.Type,
		Title:             row.Title,
		Message:           row.Message,
		ShortMessage:      row.ShortMessage,
		Priority:          notification.Priority(row.Priority),
		Read:              row.Read,
		CreatedAt:         parseTime(row.CreatedAt),
		ReadAt:            parseTimePtr(row.ReadAt),
		RelatedEntityType: deref(row.RelatedEntityType),
		RelatedEntityID:   deref(row.RelatedEntityID),
		RelatedEntityName: deref(row.RelatedEntityName),
		ActionURL:         deref(row.ActionURL),
		DeletedAt:         parseTimePtr(row.DeletedAt),
	}
}
