package opener

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/daybreakhq/daybreak/internal/observability"
)

const redisKeyPrefix = "daybreak:openers:"

// RedisStore keeps recency lists in a shared Redis instance so opener
// diversity holds across replicas. Histories are plain lists with a TTL set on
// first write; LTRIM keeps them at the configured cap. Store failures degrade
// to an empty history.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisStore creates a Redis-backed history store whose entries expire ttl
// after their first write. The caller retains ownership of the client.
func NewRedisStore(client *redis.Client, ttl time.Duration) *RedisStore {
	return &RedisStore{
		client: client,
		ttl:    ttl,
	}
}

// Recent returns the live history for key, most-recent-first. Expiry is
// delegated to Redis, so now is unused here.
func (s *RedisStore) Recent(ctx context.Context, key string, _ time.Time) []string {
	items, err := s.client.LRange(ctx, redisKeyPrefix+key, 0, -1).Result()
	if err != nil {
		s.warn("Failed to read opener history", err)
		return nil
	}
	return items
}

// Remember prepends item to the history for key.
func (s *RedisStore) Remember(ctx context.Context, key, item string, cap int, _ time.Time) {
	if cap <= 0 {
		return
	}

	redisKey := redisKeyPrefix + key

	pipe := s.client.Pipeline()
	pipe.LPush(ctx, redisKey, item)
	pipe.LTrim(ctx, redisKey, 0, int64(cap-1))
	// NX keeps the original deadline: histories expire relative to their first
	// write, not their last.
	pipe.ExpireNX(ctx, redisKey, s.ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		s.warn("Failed to write opener history", err)
	}
}

// Close is a no-op; the Redis client is owned by the composition root.
func (s *RedisStore) Close() {}

func (s *RedisStore) warn(msg string, err error) {
	if observability.ServerLogger != nil {
		observability.ServerLogger.Warn(msg, zap.Error(err))
	}
}
