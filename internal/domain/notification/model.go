package notification

// Channel represents a notification delivery channel.
type Channel string

const (
	ChannelInApp Channel = "in_app"
	ChannelEmail Channel = "email"
)

// Priority is the display priority of an in-app notification.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityNormal Priority = "normal"
	PriorityHigh   Priority = "high"
	PriorityUrgent Priority = "urgent"
)

var validPriorities = map[Priority]bool{
	PriorityLow:    true,
	PriorityNormal: true,
	PriorityHigh:   true,
	PriorityUrgent: true,
}

// Notification categories. Preferences are keyed by category.
const (
	CategoryJobs       = "jobs"
	CategoryBids       = "bids"
	CategoryInvoices   = "invoices"
	CategoryFleet      = "fleet"
	CategoryTimesheets = "timesheets"
	CategoryPayroll    = "payroll"
	CategoryInventory  = "inventory"
	CategoryProperties = "properties"
	CategoryClients    = "clients"
	CategoryAccount    = "account"
	CategorySystem     = "system"
)

// Event is a business occurrence handed to the dispatcher. It only lives for
// the duration of a dispatch.
type Event struct {
	Type string         `json:"type" binding:"required"`
	Data map[string]any `json:"data"`
}

// Recipient is a resolved, addressable user.
type Recipient struct {
	ID       string `json:"id"`
	Email    string `json:"email,omitempty"`
	Phone    string `json:"phone,omitempty"`
	FullName string `json:"full_name,omitempty"`
	Role     string `json:"role,omitempty"`
}

// Content is the rendered message for one event. It is identical for every
// recipient of that event.
type Content struct {
	Title             string
	Message           string
	ShortMessage      string
	ActionURL         string
	Category          string
	Priority          Priority
	RelatedEntityType string
	RelatedEntityID   string
	RelatedEntityName string
}

// EmitResponse is returned by the event intake endpoint.
type EmitResponse struct {
	EventType string `json:"event_type"`
	Mode      string `json:"mode"`
	Status    string `json:"status"`
}
