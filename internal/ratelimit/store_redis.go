package ratelimit

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// RedisStore implements the sliding window with a sorted set per key, scored
// by hit time, so the limit holds across instances.
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore wraps an existing Redis client.
func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

func (s *RedisStore) Hit(ctx context.Context, scope, identifier string, limit int, window time.Duration) (Decision, error) {
	key := "ratelimit:" + scope + ":" + identifier
	now := time.Now()
	cutoff := now.Add(-window)

	// Trim, record, and count in a single round trip. The hit is added
	// before counting, so concurrent callers can only over-count and be
	// rejected, never slip under the limit together.
	member := uuid.NewString()
	pipe := s.client.TxPipeline()
	pipe.ZRemRangeByScore(ctx, key, "0", strconv.FormatInt(cutoff.UnixMilli(), 10))
	pipe.ZAdd(ctx, key, redis.Z{
		Score:  float64(now.UnixMilli()),
		Member: member,
	})
	countCmd := pipe.ZCard(ctx, key)
	pipe.Expire(ctx, key, window+time.Minute)
	if _, err := pipe.Exec(ctx); err != nil {
		return Decision{}, fmt.Errorf("ratelimit record hit: %w", err)
	}

	if countCmd.Val() > int64(limit) {
		// Drop the rejected hit so denied retries do not extend the block.
		if err := s.client.ZRem(ctx, key, member).Err(); err != nil {
			return Decision{}, fmt.Errorf("ratelimit rollback: %w", err)
		}
		oldest, err := s.client.ZRangeWithScores(ctx, key, 0, 0).Result()
		retry := window
		if err == nil && len(oldest) > 0 {
			oldestAt := time.UnixMilli(int64(oldest[0].Score))
			retry = oldestAt.Add(window).Sub(now)
			if retry < 0 {
				retry = 0
			}
		}
		return Decision{Allowed: false, RetryAfter: retry}, nil
	}
	return Decision{Allowed: true}, nil
}
