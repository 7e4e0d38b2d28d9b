package ratelimit

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/daybreakhq/daybreak/internal/observability"
)

const redisKeyPrefix = "daybreak:ratelimit:"

// RedisLimiter is a fixed-window limiter backed by a shared Redis instance, for
// deployments where multiple replicas must agree on a client's window. The
// semantics match MemoryLimiter in the common path; under concurrent increments
// the count can briefly overshoot the limit, which is accepted best-effort
// behavior. Store failures degrade to allowing the request.
type RedisLimiter struct {
	client *redis.Client
	limit  int
	window time.Duration

	// Clock overrides the time source. Nil means time.Now().UTC.
	Clock func() time.Time
}

// NewRedisLimiter creates a Redis-backed limiter allowing limit requests per
// window. The caller retains ownership of the client.
func NewRedisLimiter(client *redis.Client, limit int, window time.Duration) *RedisLimiter {
	return &RedisLimiter{
		client: client,
		limit:  limit,
		window: window,
	}
}

// Check applies the fixed-window algorithm for key.
func (r *RedisLimiter) Check(ctx context.Context, key string) Result {
	redisKey := redisKeyPrefix + key
	now := r.now()

	// Pipeline the read side to save a round trip.
	pipe := r.client.Pipeline()
	getCmd := pipe.Get(ctx, redisKey)
	ttlCmd := pipe.TTL(ctx, redisKey)
	if _, err := pipe.Exec(ctx); err != nil && !errors.Is(err, redis.Nil) {
		return r.failOpen(now, err)
	}

	ttl, ttlErr := ttlCmd.Result()
	hasTTL := ttlErr == nil && ttl > 0

	count, getErr := getCmd.Int()
	if getErr != nil && !errors.Is(getErr, redis.Nil) {
		return r.failOpen(now, getErr)
	}

	if getErr == nil && count >= r.limit {
		resetAt := now.Add(r.window)
		if hasTTL {
			resetAt = now.Add(ttl)
		}
		return Result{
			Allowed:    false,
			Limit:      r.limit,
			Remaining:  0,
			ResetAt:    resetAt,
			RetryAfter: resetAt.Sub(now),
		}
	}

	newCount, err := r.client.Incr(ctx, redisKey).Result()
	if err != nil {
		return r.failOpen(now, err)
	}

	// INCR creates the key without a TTL, so attach the window expiry whenever
	// one is missing. This also heals keys orphaned by a crash between INCR and
	// EXPIRE.
	if !hasTTL {
		if err := r.client.Expire(ctx, redisKey, r.window).Err(); err != nil {
			r.warn("Failed to set rate limit window expiry", err)
		}
		ttl = r.window
	}

	resetAt := now.Add(ttl)

	if newCount > int64(r.limit) {
		// Lost an increment race; deny without decrementing.
		return Result{
			Allowed:    false,
			Limit:      r.limit,
			Remaining:  0,
			ResetAt:    resetAt,
			RetryAfter: resetAt.Sub(now),
		}
	}

	return Result{
		Allowed:   true,
		Limit:     r.limit,
		Remaining: r.limit - int(newCount),
		ResetAt:   resetAt,
	}
}

// Close is a no-op; the Redis client is owned by the composition root.
func (r *RedisLimiter) Close() {}

func (r *RedisLimiter) failOpen(now time.Time, err error) Result {
	r.warn("Rate limit store unavailable, allowing request", err)
	return Result{
		Allowed:   true,
		Limit:     r.limit,
		Remaining: r.limit - 1,
		ResetAt:   now.Add(r.window),
	}
}

func (r *RedisLimiter) warn(msg string, err error) {
	if observability.ServerLogger != nil {
		observability.ServerLogger.Warn(msg, zap.Error(err))
	}
}

func (r *RedisLimiter) now() time.Time {
	if r.Clock != nil {
		return r.Clock()
	}
	return time.Now().UTC()
}
