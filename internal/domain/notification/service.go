package notification

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"fieldnotify/internal/common"
)

// Service exposes event intake, the user-facing read API and the admin
// surface over rules and delivery logs.
type Service struct {
	notifications NotificationStore
	logs          DeliveryLogStore
	rules         RuleStore
	preferences   PreferenceStore
	intake        *Intake
	resolver      *Resolver
}

// NewService creates a new notification service. resolver is used to
// validate role tokens on rule writes and may be nil.
func NewService(
	notifications NotificationStore,
	logs DeliveryLogStore,
	rules RuleStore,
	preferences PreferenceStore,
	intake *Intake,
	resolver *Resolver,
) *Service {
	return &Service{
		notifications: notifications,
		logs:          logs,
		rules:         rules,
		preferences:   preferences,
		intake:        intake,
		resolver:      resolver,
	}
}

// Emit accepts an event for detached dispatch.
func (s *Service) Emit(ctx context.Context, event *Event) (*EmitResponse, error) {
	eventType := strings.TrimSpace(event.Type)
	if eventType == "" {
		return nil, common.NewValidationError("event type is required")
	}

	mode := s.intake.Emit(ctx, eventType, event.Data)

	slog.Info("event accepted", "event_type", eventType, "mode", mode)

	return &EmitResponse{EventType: eventType, Mode: mode, Status: "accepted"}, nil
}

// ListNotifications retrieves a user's notifications with pagination and filtering.
func (s *Service) ListNotifications(ctx context.Context, userID string, filter ListFilter) (*ListResponse, error) {
	filter.normalize()

	items, total, err := s.notifications.List(ctx, userID, filter)
	if err != nil {
		return nil, fmt.Errorf("listing notifications: %w", err)
	}

	return &ListResponse{
		Notifications: items,
		Total:         total,
		Page:          filter.Page,
		PageSize:      filter.PageSize,
	}, nil
}

// UnreadCount returns the number of unread notifications.
func (s *Service) UnreadCount(ctx context.Context, userID string) (int, error) {
	count, err := s.notifications.UnreadCount(ctx, userID)
	if err != nil {
		return 0, fmt.Errorf("counting unread notifications: %w", err)
	}
	return count, nil
}

// MarkRead marks one of the user's notifications read.
func (s *Service) MarkRead(ctx context.Context, userID, id string) error {
	found, err := s.notifications.MarkRead(ctx, userID, id)
	if err != nil {
		return fmt.Errorf("marking notification read: %w", err)
	}
	if !found {
		return common.NewNotFoundError("notification", id)
	}
	return nil
}

// MarkAllRead marks every unread notification of the user read.
func (s *Service) MarkAllRead(ctx context.Context, userID string) (int, error) {
	updated, err := s.notifications.MarkAllRead(ctx, userID)
	if err != nil {
		return 0, fmt.Errorf("marking all notifications read: %w", err)
	}
	return updated, nil
}

// DeleteNotification soft-deletes one of the user's notifications.
func (s *Service) DeleteNotification(ctx context.Context, userID, id string) error {
	found, err := s.notifications.SoftDelete(ctx, userID, id)
	if err != nil {
		return fmt.Errorf("deleting notification: %w", err)
	}
	if !found {
		return common.NewNotFoundError("notification", id)
	}
	return nil
}

// Stats summarises the user's notifications.
func (s *Service) Stats(ctx context.Context, userID string) (*Stats, error) {
	stats, err := s.notifications.Stats(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("computing notification stats: %w", err)
	}
	return stats, nil
}

// ListPreferences returns the explicit preferences of a user. Pairs that are
// not listed are enabled.
func (s *Service) ListPreferences(ctx context.Context, userID string) ([]*Preference, error) {
	prefs, err := s.preferences.ListPreferences(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("listing preferences: %w", err)
	}
	return prefs, nil
}

// UpdatePreferences upserts preferences for a user.
func (s *Service) UpdatePreferences(ctx context.Context, userID string, prefs []*Preference) error {
	for _, p := range prefs {
		if p.Category == "" {
			return common.NewValidationError("preference category is required")
		}
		if p.Channel != ChannelInApp && p.Channel != ChannelEmail {
			return common.NewValidationError(fmt.Sprintf("unsupported channel: %s", p.Channel))
		}
	}

	for _, p := range prefs {
		p.UserID = userID
		if err := s.preferences.UpsertPreference(ctx, p); err != nil {
			return fmt.Errorf("saving preference %s/%s: %w", p.Category, p.Channel, err)
		}
	}
	return nil
}

// ListRules returns all rules, optionally for one event type.
func (s *Service) ListRules(ctx context.Context, eventType string) ([]*Rule, error) {
	rules, err := s.rules.List(ctx, eventType)
	if err != nil {
		return nil, fmt.Errorf("listing rules: %w", err)
	}
	return rules, nil
}

// GetRule retrieves a rule by ID.
func (s *Service) GetRule(ctx context.Context, id string) (*Rule, error) {
	rule, err := s.rules.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("fetching rule: %w", err)
	}
	if rule == nil {
		return nil, common.NewNotFoundError("rule", id)
	}
	return rule, nil
}

// CreateRule validates and stores a new rule.
func (s *Service) CreateRule(ctx context.Context, req *RuleRequest) (*Rule, error) {
	if err := s.validateRule(req); err != nil {
		return nil, err
	}

	rule := req.toRule()
	if err := s.rules.Create(ctx, rule); err != nil {
		return nil, fmt.Errorf("creating rule: %w", err)
	}

	slog.Info("rule created", "rule_id", rule.ID, "event_type", rule.EventType, "enabled", rule.Enabled)
	return rule, nil
}

// UpdateRule replaces an existing rule.
func (s *Service) UpdateRule(ctx context.Context, id string, req *RuleRequest) (*Rule, error) {
	if err := s.validateRule(req); err != nil {
		return nil, err
	}

	rule := req.toRule()
	rule.ID = id

	found, err := s.rules.Update(ctx, rule)
	if err != nil {
		return nil, fmt.Errorf("updating rule: %w", err)
	}
	if !found {
		return nil, common.NewNotFoundError("rule", id)
	}

	slog.Info("rule updated", "rule_id", id, "event_type", rule.EventType, "enabled", rule.Enabled)
	return rule, nil
}

// DeleteRule removes a rule.
func (s *Service) DeleteRule(ctx context.Context, id string) error {
	found, err := s.rules.Delete(ctx, id)
	if err != nil {
		return fmt.Errorf("deleting rule: %w", err)
	}
	if !found {
		return common.NewNotFoundError("rule", id)
	}

	slog.Info("rule deleted", "rule_id", id)
	return nil
}

// ListDeliveryLogs retrieves delivery logs with pagination and filtering.
func (s *Service) ListDeliveryLogs(ctx context.Context, filter DeliveryLogFilter) (*DeliveryLogResponse, error) {
	filter.normalize()

	logs, total, err := s.logs.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("listing delivery logs: %w", err)
	}

	return &DeliveryLogResponse{
		Logs:     logs,
		Total:    total,
		Page:     filter.Page,
		PageSize: filter.PageSize,
	}, nil
}

func (s *Service) validateRule(req *RuleRequest) error {
	if strings.TrimSpace(req.EventType) == "" {
		return common.NewValidationError("event_type is required")
	}
	if len(req.RecipientRoles) == 0 {
		return common.NewValidationError("at least one recipient role is required")
	}
	if s.resolver != nil {
		for _, role := range req.RecipientRoles {
			if !s.resolver.Known(role) {
				return common.NewValidationError(fmt.Sprintf("unknown recipient role: %s", role))
			}
		}
	}
	return nil
}
