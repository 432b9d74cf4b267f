package store

import (
	"context"
	"fmt"

	"fieldnotify/internal/domain/notification"

	"github.com/supabase-community/postgrest-go"
	supa "github.com/supabase-community/supabase-go"
)

var _ notification.DeliveryLogStore = (*DeliveryLogStore)(nil)

// DeliveryLogStore implements notification.DeliveryLogStore on Supabase.
// Rows are only ever inserted.
type DeliveryLogStore struct {
	client *supa.Client
}

// NewDeliveryLogStore creates a Supabase-backed delivery log store.
func NewDeliveryLogStore(client *supa.Client) *DeliveryLogStore {
	return &DeliveryLogStore{client: client}
}

type deliveryLogRow struct {
	ID                string  `json:"id,omitempty"`
	DispatchID        string  `json:"dispatch_id"`
	NotificationID    *string `json:"notification_id,omitempty"`
	EventType         string  `json:"event_type"`
	RecipientID       string  `json:"recipient_id"`
	Channel           string  `json:"channel"`
	Status            string  `json:"status"`
	Error             *string `json:"error,omitempty"`
	ProviderMessageID *string `json:"provider_message_id,omitempty"`
	CreatedAt         string  `json:"created_at,omitempty"`
}

// Insert appends a delivery log row.
func (s *DeliveryLogStore) Insert(ctx context.Context, log *notification.DeliveryLog) error {
	row := deliveryLogRow{
		DispatchID:        log.DispatchID,
		NotificationID:    optional(log.NotificationID),
		EventType:         log.EventType,
		RecipientID:       log.RecipientID,
		Channel:           string(log.Channel),
		Status:            string(log.Status),
		Error:             optional(log.Error),
		ProviderMessageID: optional(log.ProviderMessageID),
	}

	data, _, err := s.client.From(tableDeliveryLogs).Insert(row, false, "", "representation", "").Execute()
	if err != nil {
		return fmt.Errorf("inserting delivery log: %w", err)
	}

	rows, err := decodeRows[deliveryLogRow](data, "insert response")
	if err != nil {
		return err
	}
	if len(rows) > 0 {
		log.ID = rows[0].ID
		log.CreatedAt = parseTime(rows[0].CreatedAt)
	}
	return nil
}

// List retrieves delivery logs with pagination and filtering, newest first.
func (s *DeliveryLogStore) List(ctx context.Context, filter notification.DeliveryLogFilter) ([]*notification.DeliveryLog, int, error) {
	query := s.client.From(tableDeliveryLogs).Select("*", "exact", false)

	if filter.RecipientID != "" {
		query = query.Eq("recipient_id", filter.RecipientID)
	}
	if filter.Channel != "" {
		query = query.Eq("channel", filter.Channel)
	}
	if filter.Status != "" {
		query = query.Eq("status", filter.Status)
	}
	if filter.EventType != "" {
		query = query.Eq("event_type", filter.EventType)
	}
	if filter.DispatchID != "" {
		query = query.Eq("dispatch_id", filter.DispatchID)
	}

	from, to := offsetRange(filter.Page, filter.PageSize)
	query = query.Order("created_at", &postgrest.OrderOpts{Ascending: false})
	query = query.Range(from, to, "")

	data, count, err := query.Execute()
	if err != nil {
		return nil, 0, fmt.Errorf("listing delivery logs: %w", err)
	}

	rows, err := decodeRows[deliveryLogRow](data, "delivery log list")
	if err != nil {
		return nil, 0, err
	}

	out := make([]*notification.DeliveryLog, len(rows))
	for i, row := range rows {
		out[i] = &notification.DeliveryLog{
			ID:                row.ID,
			DispatchID:        row.DispatchID,
			NotificationID:    deref(row.NotificationID),
			EventType:         row.EventType,
			RecipientID:       row.RecipientID,
			Channel:           notification.Channel(row.Channel),
			Status:            notification.DeliveryStatus(row.Status),
			Error:             deref(row.Error),
			ProviderMessageID: deref(row.ProviderMessageID),
			CreatedAt:         parseTime(row.CreatedAt),
		}
	}
	return out, int(count), nil
}
