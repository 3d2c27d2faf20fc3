package window

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const redisKeyPrefix = "bc:ratelimit:"

// Redis is a redis-backed window store for multi-instance deployments.
// INCR is atomic server-side; the key's TTL is the window, set only on the
// increment that creates the key so the window start is fixed by the first
// request in it.
type Redis struct {
	client *redis.Client
}

// NewRedis constructs a redis-backed window store.
func NewRedis(client *redis.Client) *Redis {
	return &Redis{client: client}
}

func (s *Redis) Incr(ctx context.Context, key string, window time.Duration) (int, time.Time, error) {
	redisKey := redisKeyPrefix + key

	pipe := s.client.TxPipeline()
	incr := pipe.Incr(ctx, redisKey)
	pipe.Do(ctx, "pexpire", redisKey, window.Milliseconds(), "NX")
	ttl := pipe.PTTL(ctx, redisKey)
	if _, err := pipe.Exec(ctx); err != nil {
		return 0, time.Time{}, fmt.Errorf("rate window incr: %w", err)
	}

	count := int(incr.Val())
	// Reconstruct the window start from the remaining TTL.
	windowStart := time.Now().Add(ttl.Val() - window)
	return count, windowStart, nil
}

func (s *Redis) Reset(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, redisKeyPrefix+key).Err(); err != nil {
		return fmt.Errorf("rate window reset: %w", err)
	}
	return nil
}
