// Package window provides fixed-window counter stores for the admission
// controller.
package window

import (
	"context"
	"sync"
	"time"
)

type fixedWindow struct {
	start time.Time
	count int
}

// Memory is the in-process window store. One mutex guards the whole map;
// increments hold it for the full check-and-bump so two concurrent requests
// can never both pass the boundary.
type Memory struct {
	mu      sync.Mutex
	windows map[string]*fixedWindow
	now     func() time.Time
}

// NewMemory constructs an empty in-process window store.
func NewMemory() *Memory {
	return &Memory{
		windows: make(map[string]*fixedWindow),
		now:     time.Now,
	}
}

// SetNow replaces the clock. Tests use this to make window arithmetic
// deterministic.
func (s *Memory) SetNow(now func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = now
}

func (s *Memory) Incr(ctx context.Context, key string, window time.Duration) (int, time.Time, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	w := s.windows[key]
	if w == nil || !now.Before(w.start.Add(window)) {
		// Rollover: counter resets to zero, windowStart advances to now.
		w = &fixedWindow{start: now}
		s.windows[key] = w
	}
	w.count++
	return w.count, w.start, nil
}

func (s *Memory) Reset(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.windows, key)
	return nil
}
