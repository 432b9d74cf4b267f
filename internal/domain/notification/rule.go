package notification

import "time"

// Rule binds an event type to recipient roles, optional conditions and the
// channels it delivers on. Rules are managed by administrators.
type Rule struct {
	ID             string          `json:"id"`
	Name           string          `json:"name"`
	EventType      string          `json:"event_type"`
	RecipientRoles []string        `json:"recipient_roles"`
	Conditions     *RuleConditions `json:"conditions,omitempty"`
	Enabled        bool            `json:"enabled"`
	Channels       RuleChannels    `json:"channels"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
}

// RuleChannels selects which channels a rule delivers on.
type RuleChannels struct {
	InApp bool `json:"in_app"`
	Email bool `json:"email"`
}

// Active returns the enabled channels in delivery order.
func (c RuleChannels) Active() []Channel {
	var out []Channel
	if c.InApp {
		out = append(out, ChannelInApp)
	}
	if c.Email {
		out = append(out, ChannelEmail)
	}
	return out
}

// RuleConditions is a flat set of optional thresholds. RequiresAll selects
// AND over the applicable thresholds, otherwise OR.
type RuleConditions struct {
	AmountThreshold     *float64 `json:"amount_threshold,omitempty"`
	DaysBeforeThreshold *float64 `json:"days_before_threshold,omitempty"`
	DaysAfterThreshold  *float64 `json:"days_after_threshold,omitempty"`
	StockLevelThreshold *float64 `json:"stock_level_threshold,omitempty"`
	PercentageThreshold *float64 `json:"percentage_threshold,omitempty"`
	RequiresAll         bool     `json:"requires_all"`
}

// RuleRequest is the admin payload for creating or replacing a rule.
type RuleRequest struct {
	Name           string          `json:"name" binding:"required"`
	EventType      string          `json:"event_type" binding:"required"`
	RecipientRoles []string        `json:"recipient_roles" binding:"required,min=1"`
	Conditions     *RuleConditions `json:"conditions"`
	Enabled        *bool           `json:"enabled"`
	Channels       *RuleChannels   `json:"channels"`
}

// toRule converts the request into a rule. Enabled defaults to true and
// channels default to in-app only.
func (r *RuleRequest) toRule() *Rule {
	rule := &Rule{
		Name:           r.Name,
		EventType:      r.EventType,
		RecipientRoles: r.RecipientRoles,
		Conditions:     r.Conditions,
		Enabled:        true,
		Channels:       RuleChannels{InApp: true},
	}
	if r.Enabled != nil {
		rule.Enabled = *r.Enabled
	}
	if r.Channels != nil {
		rule.Channels = *r.Channels
	}
	return rule
}
