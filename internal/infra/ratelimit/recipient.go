package ratelimit

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"time"

	"fieldnotify/internal/domain/notification"

	"github.com/redis/go-redis/v9"
)

var _ notification.RecipientRateLimiter = (*EmailLimiter)(nil)

const keyPrefix = "fieldnotify:email_limit:"

// EmailLimiter caps emails per user over a sliding window using a Redis
// sorted set: each send is a member scored by its timestamp in milliseconds.
type EmailLimiter struct {
	client redis.Cmdable
	max    int
	window time.Duration
	now    func() time.Time
}

// NewEmailLimiter creates a limiter allowing maxPerHour emails per user.
// A non-positive maxPerHour disables limiting.
func NewEmailLimiter(client redis.Cmdable, maxPerHour int) *EmailLimiter {
	return &EmailLimiter{
		client: client,
		max:    maxPerHour,
		window: time.Hour,
		now:    time.Now,
	}
}

// allowScript trims the window, checks the count and records the send in
// one step so concurrent dispatches cannot overshoot the cap.
//
// KEYS[1] set key; ARGV: window start ms, now ms, max, member, ttl ms.
var allowScript = redis.NewScript(`
redis.call('ZREMRANGEBYSCORE', KEYS[1], '-inf', ARGV[1])
if redis.call('ZCARD', KEYS[1]) >= tonumber(ARGV[3]) then
	return 0
end
redis.call('ZADD', KEYS[1], ARGV[2], ARGV[4])
redis.call('PEXPIRE', KEYS[1], ARGV[5])
return 1
`)

// Allow reports whether another email may go to userID and, if so, records it.
func (l *EmailLimiter) Allow(ctx context.Context, userID string) (bool, error) {
	if l.max <= 0 {
		return true, nil
	}

	now := l.now()

	// Random suffix keeps concurrent sends in the same instant distinct
	suffix := make([]byte, 4)
	_, _ = rand.Read(suffix)
	member := fmt.Sprintf("%d:%s", now.UnixNano(), hex.EncodeToString(suffix))

	allowed, err := allowScript.Run(ctx, l.client, []string{keyPrefix + userID},
		now.Add(-l.window).UnixMilli(),
		now.UnixMilli(),
		l.max,
		member,
		(l.window + time.Minute).Milliseconds(),
	).Int()
	if err != nil {
		return false, fmt.Errorf("checking email limit: %w", err)
	}
	return allowed == 1, nil
}
