package notification

import (
	"context"
	"fmt"
	"log/slog"
	"maps"
)

// Resolver turns a rule's recipient role tokens into addressable users.
type Resolver struct {
	directory  Directory
	roleNames  map[string]string
	strategies map[string]RoleResolver
}

// NewResolver creates a resolver with the built-in role table. roleNames
// overrides entries of DefaultRoleNames.
func NewResolver(directory Directory, roleNames map[string]string) *Resolver {
	names := maps.Clone(DefaultRoleNames)
	for k, v := range roleNames {
		if v != "" {
			names[k] = v
		}
	}

	r := &Resolver{
		directory:  directory,
		roleNames:  names,
		strategies: make(map[string]RoleResolver),
	}
	r.registerDefaults()
	return r
}

// Register adds or replaces the resolver for a role token.
func (r *Resolver) Register(token string, fn RoleResolver) {
	r.strategies[token] = fn
}

// Known reports whether a role token has a registered resolver.
func (r *Resolver) Known(token string) bool {
	_, ok := r.strategies[token]
	return ok
}

// Resolve returns the deduplicated recipients a rule targets for an event.
// Failing role branches are logged and skipped; a failure of the final
// contact lookup yields no recipients. A nil rule resolves nobody.
func (r *Resolver) Resolve(ctx context.Context, event Event, rule *Rule) (recipients []Recipient) {
	if r == nil || rule == nil {
		return nil
	}

	defer func() {
		if rec := recover(); rec != nil {
			slog.Error("recipient resolution panicked",
				"event_type", event.Type,
				"rule_id", rule.ID,
				"panic", fmt.Sprint(rec),
			)
			recipients = nil
		}
	}()

	var order []string
	roleOf := make(map[string]string)

	for _, token := range rule.RecipientRoles {
		res := r.resolveBranch(ctx, token, event.Data)
		if res.Err != nil {
			slog.Warn("recipient role branch failed",
				"event_type", event.Type,
				"rule_id", rule.ID,
				"role", token,
				"error", res.Err,
			)
		}
		for _, id := range res.IDs {
			if id == "" {
				continue
			}
			if _, seen := roleOf[id]; seen {
				continue
			}
			roleOf[id] = token
			order = append(order, id)
		}
	}

	if len(order) == 0 {
		return nil
	}

	users, err := r.directory.GetUsersByIDs(ctx, order)
	if err != nil {
		slog.Error("recipient contact lookup failed",
			"event_type", event.Type,
			"rule_id", rule.ID,
			"count", len(order),
			"error", err,
		)
		return nil
	}

	byID := make(map[string]Recipient, len(users))
	for _, u := range users {
		byID[u.ID] = u
	}

	recipients = make([]Recipient, 0, len(order))
	for _, id := range order {
		u, ok := byID[id]
		if !ok {
			slog.Debug("recipient not found in directory", "user_id", id)
			continue
		}
		u.Role = roleOf[id]
		recipients = append(recipients, u)
	}
	return recipients
}

// resolveBranch runs one role strategy, converting unknown tokens and panics
// into a BranchResult.
func (r *Resolver) resolveBranch(ctx context.Context, token string, data map[string]any) (res BranchResult) {
	res.Role = token

	fn, ok := r.strategies[token]
	if !ok {
		slog.Warn("unknown recipient role, skipping", "role", token)
		return res
	}

	defer func() {
		if rec := recover(); rec != nil {
			res.IDs = nil
			res.Err = fmt.Errorf("role %s panicked: %v", token, rec)
		}
	}()

	res.IDs, res.Err = fn(ctx, data)
	return res
}
