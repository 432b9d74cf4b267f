package notification

import "context"

// RecipientRateLimiter caps how many emails one user receives per window.
// Implementations live in infra/ratelimit/.
type RecipientRateLimiter interface {
	// Allow reports whether another email may go to the given user id.
	Allow(ctx context.Context, userID string) (bool, error)
}
