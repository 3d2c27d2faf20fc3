// Package cache provides the TTL result cache fronting the query paths.
//
// The cache stores opaque payloads keyed by the exact query parameter tuple.
// Because the underlying stores offer no per-key pattern deletion, any write
// that could affect cached query results triggers InvalidateAll - correctness
// over cache-hit efficiency. The in-memory implementation is process-local;
// multi-instance deployments should use the Redis implementation or tolerate
// staleness bounded by the TTL.
package cache

import (
	"context"
	"time"
)

// Cache is the result cache contract. Get returns sentinel.ErrNotFound for
// absent or expired keys; an expired entry is never returned.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	InvalidateAll(ctx context.Context) error
}
