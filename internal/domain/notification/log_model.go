package notification

import "time"

// DeliveryStatus is the outcome of one (recipient, channel) attempt.
type DeliveryStatus string

const (
	DeliverySuccess DeliveryStatus = "success"
	DeliveryFailure DeliveryStatus = "failure"
	DeliverySkipped DeliveryStatus = "skipped"
)

// Reasons recorded on skipped delivery log rows.
const (
	SkipEmailNotConfigured = "email provider not configured"
	SkipNoEmailAddress     = "no email address"
	SkipPreference         = "disabled by preference"
	SkipRateLimited        = "recipient rate limit exceeded"
)

// Notification is a persisted in-app notification owned by one user.
type Notification struct {
	ID                string     `json:"id"`
	UserID            string     `json:"user_id"`
	Category          string     `json:"category"`
	Type              string     `json:"type"`
	Title             string     `json:"title"`
	Message           string     `json:"message"`
	ShortMessage      string     `json:"short_message"`
	Priority          Priority   `json:"priority"`
	Read              bool       `json:"read"`
	CreatedAt         time.Time  `json:"created_at"`
	ReadAt            *time.Time `json:"read_at,omitempty"`
	RelatedEntityType string     `json:"related_entity_type,omitempty"`
	RelatedEntityID   string     `json:"related_entity_id,omitempty"`
	RelatedEntityName string     `json:"related_entity_name,omitempty"`
	ActionURL         string     `json:"action_url,omitempty"`
	DeletedAt         *time.Time `json:"-"`
}

// DeliveryLog is an append-only record of one delivery attempt.
type DeliveryLog struct {
	ID                string         `json:"id"`
	DispatchID        string         `json:"dispatch_id"`
	NotificationID    string         `json:"notification_id,omitempty"`
	EventType         string         `json:"event_type"`
	RecipientID       string         `json:"recipient_id"`
	Channel           Channel        `json:"channel"`
	Status            DeliveryStatus `json:"status"`
	Error             string         `json:"error,omitempty"`
	ProviderMessageID string         `json:"provider_message_id,omitempty"`
	CreatedAt         time.Time      `json:"created_at"`
}

// Preference is a per-user, per-category, per-channel opt-out flag.
type Preference struct {
	UserID   string  `json:"user_id"`
	Category string  `json:"category" binding:"required"`
	Channel  Channel `json:"channel" binding:"required,oneof=in_app email"`
	Enabled  bool    `json:"enabled"`
}

// ListFilter defines pagination and filtering options for a user's notifications.
type ListFilter struct {
	Page       int    `form:"page"`
	PageSize   int    `form:"page_size"`
	UnreadOnly bool   `form:"unread"`
	Category   string `form:"category"`
	Type       string `form:"type"`
}

// normalize applies pagination defaults.
func (f *ListFilter) normalize() {
	if f.Page < 1 {
		f.Page = 1
	}
	if f.PageSize < 1 || f.PageSize > 100 {
		f.PageSize = 20
	}
}

// ListResponse wraps a paginated list of notifications.
type ListResponse struct {
	Notifications []*Notification `json:"notifications"`
	Total         int             `json:"total"`
	Page          int             `json:"page"`
	PageSize      int             `json:"page_size"`
}

// Stats summarises a user's notifications.
type Stats struct {
	Total      int            `json:"total"`
	Unread     int            `json:"unread"`
	ByCategory map[string]int `json:"by_category"`
}

// DeliveryLogFilter defines pagination and filtering for the admin log listing.
type DeliveryLogFilter struct {
	Page        int    `form:"page"`
	PageSize    int    `form:"page_size"`
	RecipientID string `form:"recipient_id"`
	Channel     string `form:"channel"`
	Status      string `form:"status"`
	EventType   string `form:"event_type"`
	DispatchID  string `form:"dispatch_id"`
}

func (f *DeliveryLogFilter) normalize() {
	if f.Page < 1 {
		f.Page = 1
	}
	if f.PageSize < 1 || f.PageSize > 100 {
		f.PageSize = 50
	}
}

// DeliveryLogResponse wraps a paginated list of delivery logs.
type DeliveryLogResponse struct {
	Logs     []*DeliveryLog `json:"logs"`
	Total    int            `json:"total"`
	Page     int            `json:"page"`
	PageSize int            `json:"page_size"`
}
