package redis

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

const defaultLockout = 15 * time.Minute

// AttemptLimiter counts failed logins per identifier in Redis.
// Key format: login_attempts:<lowercased login>
// The counter expires lockout after the first failure in a window.
type AttemptLimiter struct {
	client  *redis.Client
	max     int
	lockout time.Duration
}

// NewAttemptLimiter blocks an identifier after max failures within lockout.
func NewAttemptLimiter(client *redis.Client, max int, lockout time.Duration) *AttemptLimiter {
	if lockout <= 0 {
		lockout = defaultLockout
	}
	return &AttemptLimiter{client: client, max: max, lockout: lockout}
}

// Blocked reports whether login has exhausted its attempts. A non-positive max
// disables throttling.
func (l *AttemptLimiter) Blocked(ctx context.Context, login string) (bool, error) {
	if l.max <= 0 {
		return false, nil
	}
	n, err := l.client.Get(ctx, l.key(login)).Int()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("attempts check: %w", err)
	}
	return n >= l.max, nil
}

// RecordFailure increments the counter, starting the lockout window on the
// first failure.
func (l *AttemptLimiter) RecordFailure(ctx context.Context, login string) error {
	key := l.key(login)
	n, err := l.client.Incr(ctx, key).Result()
	if err != nil {
		return fmt.Errorf("attempts record: %w", err)
	}
	if n == 1 {
		if err := l.client.Expire(ctx, key, l.lockout).Err(); err != nil {
			return fmt.Errorf("attempts expire: %w", err)
		}
	}
	return nil
}

// Reset forgets every failure recorded for login.
func (l *AttemptLimiter) Reset(ctx context.Context, login string) error {
	return l.client.Del(ctx, l.key(login)).Err()
}

func (l *AttemptLimiter) key(login string) string {
	return "login_attempts:" + strings.ToLower(strings.TrimSpace(login))
}
