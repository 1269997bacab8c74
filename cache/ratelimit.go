// Package cache holds the Redis-backed request guards: the per-citizen
// issue quota and the logout token denylist.
package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RateLimiter counts events per key inside a fixed window.
type RateLimiter struct {
	rdb    *redis.Client
	prefix string
	limit  int64
	window time.Duration
}

func NewRateLimiter(rdb *redis.Client, prefix string, limit int, window time.Duration) *RateLimiter {
	return &RateLimiter{rdb: rdb, prefix: prefix, limit: int64(limit), window: window}
}

// Allow records one event for key. When the key is over its limit it
// returns false and the time until the window resets.
func (l *RateLimiter) Allow(ctx context.Context, key string) (bool, time.Duration, error) {
	userKey := l.prefix + ":" + key

	count, err := l.rdb.Incr(ctx, userKey).Result()
	if err != nil {
		return false, 0, fmt.Errorf("redis incr %s: %w", userKey, err)
	}

	// Set TTL only on the first increment of a window.
	if count == 1 {
		if err := l.rdb.Expire(ctx, userKey, l.window).Err(); err != nil {
			return false, 0, fmt.Errorf("redis expire %s: %w", userKey, err)
		}
	}

	if count > l.limit {
		retryAfter, err := l.rdb.TTL(ctx, userKey).Result()
		if err != nil {
			return false, 0, fmt.Errorf("redis ttl %s: %w", userKey, err)
		}
		return false, retryAfter, nil
	}
	return true, 0, nil
}
