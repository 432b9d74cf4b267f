package notification

import "context"

// NotificationStore persists in-app notifications.
// Implementations live in infra/store/ (e.g., Supabase).
type NotificationStore interface {
	// Insert stores a new notification and fills in its ID and CreatedAt.
	Insert(ctx context.Context, n *Notification) error

	// List returns a page of the user's non-deleted notifications, newest first,
	// together with the total count matching the filter.
	List(ctx context.Context, userID string, filter ListFilter) ([]*Notification, int, error)

	// UnreadCount returns the number of unread, non-deleted notifications.
	UnreadCount(ctx context.Context, userID string) (int, error)

	// MarkRead marks one notification read. Returns false if the user owns no
	// such notification.
	MarkRead(ctx context.Context, userID, id string) (bool, error)

	// MarkAllRead marks every unread notification of the user read and
	// returns how many changed.
	MarkAllRead(ctx context.Context, userID string) (int, error)

	// SoftDelete hides a notification. Returns false if the user owns no such
	// notification.
	SoftDelete(ctx context.Context, userID, id string) (bool, error)

	// Stats aggregates the user's non-deleted notifications.
	Stats(ctx context.Context, userID string) (*Stats, error)
}

// DeliveryLogStore is the append-only delivery audit trail.
type DeliveryLogStore interface {
	Insert(ctx context.Context, log *DeliveryLog) error
	List(ctx context.Context, filter DeliveryLogFilter) ([]*DeliveryLog, int, error)
}

// RuleStore holds notification rules.
type RuleStore interface {
	// ListEnabled returns the enabled rules for an event type.
	ListEnabled(ctx context.Context, eventType string) ([]*Rule, error)

	List(ctx context.Context, eventType string) ([]*Rule, error)

	// Get returns nil, nil when the rule does not exist.
	Get(ctx context.Context, id string) (*Rule, error)
	Create(ctx context.Context, rule *Rule) error

	// Update replaces a rule. Returns false when the rule does not exist.
	Update(ctx context.Context, rule *Rule) (bool, error)

	// Delete returns false when the rule does not exist.
	Delete(ctx context.Context, id string) (bool, error)
}

// PreferenceStore holds user notification preferences.
type PreferenceStore interface {
	// GetPreference returns nil, nil when the user never configured the
	// category/channel pair.
	GetPreference(ctx context.Context, userID, category string, channel Channel) (*bool, error)

	ListPreferences(ctx context.Context, userID string) ([]*Preference, error)
	UpsertPreference(ctx context.Context, pref *Preference) error
}

// Employee is the slice of an employee record needed for resolution.
type Employee struct {
	ID        string
	UserID    string
	ReportsTo string
}

// Directory is the read-only view of users, roles and the org hierarchy.
// Implementations live in infra/directory/.
type Directory interface {
	// ListActiveUsersByRole returns active users holding the stored role name.
	ListActiveUsersByRole(ctx context.Context, roleName string) ([]Recipient, error)

	// GetEmployeeByID returns nil, nil when the employee does not exist.
	GetEmployeeByID(ctx context.Context, id string) (*Employee, error)

	// GetDirectSupervisor returns the user id of the direct superior of the
	// employee linked to userID, or "" when there is none.
	GetDirectSupervisor(ctx context.Context, userID string) (string, error)

	// ListActiveEmployees returns employees without a termination date.
	ListActiveEmployees(ctx context.Context) ([]Employee, error)

	// GetClientUserID returns the portal user linked to a client, or "".
	GetClientUserID(ctx context.Context, clientID string) (string, error)

	// GetDepartmentManager returns the user id managing a department, or "".
	GetDepartmentManager(ctx context.Context, departmentID string) (string, error)

	// GetUsersByIDs hydrates contact info for many users in one lookup.
	GetUsersByIDs(ctx context.Context, ids []string) ([]Recipient, error)
}
