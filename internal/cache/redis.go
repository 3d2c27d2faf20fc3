package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"backcheck/pkg/platform/sentinel"
)

const (
	redisKeyPrefix     = "bc:cache:"
	redisGenerationKey = "bc:cache:generation"
)

// Redis is a redis-backed cache for multi-instance deployments. Expiry is
// delegated to redis TTLs. InvalidateAll bumps a generation counter that is
// baked into every key, which drops the whole namespace with a single INCR
// instead of a pattern scan; stale generations age out via their TTLs.
type Redis struct {
	client *redis.Client
}

// NewRedis constructs a redis-backed cache.
func NewRedis(client *redis.Client) *Redis {
	return &Redis{client: client}
}

func (c *Redis) Get(ctx context.Context, key string) ([]byte, error) {
	namespaced, err := c.namespacedKey(ctx, key)
	if err != nil {
		return nil, err
	}

	value, err := c.client.Get(ctx, namespaced).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("cache get: %w", err)
	}
	return value, nil
}

func (c *Redis) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	namespaced, err := c.namespacedKey(ctx, key)
	if err != nil {
		return err
	}

	if err := c.client.Set(ctx, namespaced, value, ttl).Err(); err != nil {
		return fmt.Errorf("cache set: %w", err)
	}
	return nil
}

func (c *Redis) InvalidateAll(ctx context.Context) error {
	if err := c.client.Incr(ctx, redisGenerationKey).Err(); err != nil {
		return fmt.Errorf("cache invalidate: %w", err)
	}
	return nil
}

func (c *Redis) namespacedKey(ctx context.Context, key string) (string, error) {
	gen, err := c.client.Get(ctx, redisGenerationKey).Result()
	if errors.Is(err, redis.Nil) {
		gen = "0"
	} else if err != nil {
		return "", fmt.Errorf("cache generation: %w", err)
	}
	return redisKeyPrefix + gen + ":" + key, nil
}
