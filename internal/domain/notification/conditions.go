package notification

import (
	"fmt"
	"log/slog"
)

// threshold ties one RuleConditions field to the payload keys it reads and
// the comparison it applies.
type threshold struct {
	name  string
	keys  []string
	limit func(c *RuleConditions) *float64
	pass  func(value, limit float64) bool
}

func atLeast(value, limit float64) bool { return value >= limit }
func atMost(value, limit float64) bool { return value <= limit }

var thresholds = []threshold{
	{
		name:  "amount",
		keys:  []string{"amount"},
		limit: func(c *RuleConditions) *float64 { return c.AmountThreshold },
		pass:  atLeast,
	},
	{
		name:  "days_before",
		keys:  []string{"daysBefore", "daysUntilDue"},
		limit: func(c *RuleConditions) *float64 { return c.DaysBeforeThreshold },
		pass:  atMost,
	},
	{
		name:  "days_after",
		keys:  []string{"daysAfter", "daysOverdue"},
		limit: func(c *RuleConditions) *float64 { return c.DaysAfterThreshold },
		pass:  atLeast,
	},
	{
		name:  "stock_level",
		keys:  []string{"stockLevel", "quantity"},
		limit: func(c *RuleConditions) *float64 { return c.StockLevelThreshold },
		pass:  atMost,
	},
	{
		name:  "percentage",
		keys:  []string{"percentage"},
		limit: func(c *RuleConditions) *float64 { return c.PercentageThreshold },
		pass:  atLeast,
	},
}

// EvaluateConditions reports whether the event payload satisfies a rule's
// conditions. Thresholds whose payload field is absent are ignored; when none
// apply the rule matches. Malformed values fail closed.
func EvaluateConditions(data map[string]any, conditions *RuleConditions) (matched bool) {
	if conditions == nil {
		return true
	}

	defer func() {
		if r := recover(); r != nil {
			slog.Error("condition evaluation panicked", "panic", fmt.Sprint(r))
			matched = false
		}
	}()

	results, err := evaluateThresholds(data, conditions)
	if err != nil {
		slog.Warn("condition evaluation failed, treating rule as non-matching", "error", err)
		return false
	}

	if len(results) == 0 {
		return true
	}

	if conditions.RequiresAll {
		for _, ok := range results {
			if !ok {
				return false
			}
		}
		return true
	}

	for _, ok := range results {
		if ok {
			return true
		}
	}
	return false
}

func evaluateThresholds(data map[string]any, conditions *RuleConditions) ([]bool, error) {
	var results []bool
	for _, t := range thresholds {
		limit := t.limit(conditions)
		if limit == nil {
			continue
		}

		value, present, err := numberField(data, t.keys...)
		if err != nil {
			return nil, fmt.Errorf("%s threshold: %w", t.name, err)
		}
		if !present {
			continue
		}

		results = append(results, t.pass(value, *limit))
	}
	return results, nil
}
