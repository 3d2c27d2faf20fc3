package cache

import (
	"context"
	"sync"
	"time"

	"backcheck/pkg/platform/sentinel"
)

type entry struct {
	value     []byte
	expiresAt time.Time
}

// Memory is a mutex-guarded in-process cache with lazy eviction: expired
// entries are discarded on the read that observes them. Entries are replaced
// atomically, never mutated in place, so one lock around the map suffices.
type Memory struct {
	mu      sync.Mutex
	entries map[string]entry
	now     func() time.Time
}

// NewMemory constructs an empty in-process cache.
func NewMemory() *Memory {
	return &Memory{
		entries: make(map[string]entry),
		now:     time.Now,
	}
}

func (c *Memory) Get(ctx context.Context, key string) ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	if c.now().After(e.expiresAt) {
		delete(c.entries, key)
		return nil, sentinel.ErrNotFound
	}
	return e.value, nil
}

func (c *Memory) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[key] = entry{value: value, expiresAt: c.now().Add(ttl)}
	return nil
}

func (c *Memory) InvalidateAll(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	clear(c.entries)
	return nil
}

// Len reports the number of live entries, counting expired-but-unevicted
// ones. Exposed for tests and metrics.
func (c *Memory) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
