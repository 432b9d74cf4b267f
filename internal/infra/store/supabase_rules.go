package store

import (
	"context"
	"fmt"

	"fieldnotify/internal/domain/notification"

	"github.com/supabase-community/postgrest-go"
	supa "github.com/supabase-community/supabase-go"
)

var _ notification.RuleStore = (*RuleStore)(nil)

// RuleStore implements notification.RuleStore on Supabase. Conditions and
// channels are stored as jsonb.
type RuleStore struct {
	client *supa.Client
}

// NewRuleStore creates a Supabase-backed rule store.
func NewRuleStore(client *supa.Client) *RuleStore {
	return &RuleStore{client: client}
}

type ruleRow struct {
	ID             string                       `json:"id,omitempty"`
	Name           string                       `json:"name"`
	EventType      string                       `json:"event_type"`
	RecipientRoles []string                     `json:"recipient_roles"`
	Conditions     *notification.RuleConditions `json:"conditions"`
	Enabled        bool                         `json:"enabled"`
	Channels       notification.RuleChannels    `json:"channels"`
	CreatedAt      string                       `json:"created_at,omitempty"`
	UpdatedAt      string                       `json:"updated_at,omitempty"`
}

func ruleToRow(r *notification.Rule) ruleRow {
	roles := r.RecipientRoles
	if roles == nil {
		roles = []string{}
	}
	return ruleRow{
		Name:           r.Name,
		EventType:      r.EventType,
		RecipientRoles: roles,
		Conditions:     r.Conditions,
		Enabled:        r.Enabled,
		Channels:       r.Channels,
	}
}

func rowToRule(row *ruleRow) *notification.Rule {
	return &notification.Rule{
		ID:             row.ID,
		Name:           row.Name,
		EventType:      row.EventType,
		RecipientRoles: row.RecipientRoles,
		Conditions:     row.Conditions,
		Enabled:        row.Enabled,
		Channels:       row.Channels,
		CreatedAt:      parseTime(row.CreatedAt),
		UpdatedAt:      parseTime(row.UpdatedAt),
	}
}

func (s *RuleStore) query(what string, q *postgrest.FilterBuilder) ([]*notification.Rule, error) {
	data, _, err := q.Order("created_at", &postgrest.OrderOpts{Ascending: true}).Execute()
	if err != nil {
		return nil, fmt.Errorf("listing %s: %w", what, err)
	}

	rows, err := decodeRows[ruleRow](data, what)
	if err != nil {
		return nil, err
	}

	rules := make([]*notification.Rule, len(rows))
	for i := range rows {
		rules[i] = rowToRule(&rows[i])
	}
	return rules, nil
}

// ListEnabled returns enabled rules for an event type, oldest first.
func (s *RuleStore) ListEnabled(ctx context.Context, eventType string) ([]*notification.Rule, error) {
	q := s.client.From(tableRules).
		Select("*", "", false).
		Eq("event_type", eventType).
		Eq("enabled", "true")
	return s.query("enabled rules", q)
}

// List returns all rules, optionally filtered by event type.
func (s *RuleStore) List(ctx context.Context, eventType string) ([]*notification.Rule, error) {
	q := s.client.From(tableRules).Select("*", "", false)
	if eventType != "" {
		q = q.Eq("event_type", eventType)
	}
	return s.query("rules", q)
}

// Get returns a rule by ID, or nil when it does not exist.
func (s *RuleStore) Get(ctx context.Context, id string) (*notification.Rule, error) {
	data, _, err := s.client.From(tableRules).Select("*", "", false).Eq("id", id).Execute()
	if err != nil {
		return nil, fmt.Errorf("fetching rule: %w", err)
	}

	rows, err := decodeRows[ruleRow](data, "rule")
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return rowToRule(&rows[0]), nil
}

// Create inserts a rule and fills in its ID and timestamps.
func (s *RuleStore) Create(ctx context.Context, rule *notification.Rule) error {
	data, _, err := s.client.From(tableRules).Insert(ruleToRow(rule), false, "", "representation", "").Execute()
	if err != nil {
		return fmt.Errorf("inserting rule: %w", err)
	}

	rows, err := decodeRows[ruleRow](data, "insert response")
	if err != nil {
		return err
	}
	if len(rows) > 0 {
		rule.ID = rows[0].ID
		rule.CreatedAt = parseTime(rows[0].CreatedAt)
		rule.UpdatedAt = parseTime(rows[0].UpdatedAt)
	}
	return nil
}

// Update replaces every mutable field of a rule.
func (s *RuleStore) Update(ctx context.Context, rule *notification.Rule) (bool, error) {
	row := ruleToRow(rule)
	row.UpdatedAt = nowString()

	data, _, err := s.client.From(tableRules).
		Update(row, "representation", "").
		Eq("id", rule.ID).
		Execute()
	if err != nil {
		return false, fmt.Errorf("updating rule: %w", err)
	}

	rows, err := decodeRows[ruleRow](data, "update response")
	if err != nil {
		return false, err
	}
	if len(rows) == 0 {
		return false, nil
	}
	rule.CreatedAt = parseTime(rows[0].CreatedAt)
	rule.UpdatedAt = parseTime(rows[0].UpdatedAt)
	return true, nil
}

// Delete removes a rule.
func (s *RuleStore) Delete(ctx context.Context, id string) (bool, error) {
	data, _, err := s.client.From(tableRules).Delete("representation", "").Eq("id", id).Execute()
	if err != nil {
		return false, fmt.Errorf("deleting rule: %w", err)
	}

	rows, err := decodeRows[ruleRow](data, "delete response")
	if err != nil {
		return false, err
	}
	return len(rows) > 0, nil
}
