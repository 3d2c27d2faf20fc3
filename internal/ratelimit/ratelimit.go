// Package ratelimit implements the fixed-window admission controller
// guarding the check intake path.
//
// A window of length W permits at most N requests per client key; the
// (N+1)-th request inside the window is rejected and told when the window
// resets. When the window elapses the counter starts over - no carryover,
// no sliding average. The up-to-2x burst a fixed window allows at a
// boundary is an accepted, documented property of this design.
package ratelimit

import (
	"context"
	"time"
)

// WindowStore holds one live fixed window per client key. Incr must be
// atomic increment-and-compare: two concurrent requests must never both
// observe the same count.
type WindowStore interface {
	// Incr bumps the counter for key, rolling the window over first if it
	// has elapsed, and returns the post-increment count and window start.
	Incr(ctx context.Context, key string, window time.Duration) (count int, windowStart time.Time, err error)

	// Reset clears the window for a key.
	Reset(ctx context.Context, key string) error
}

// Result is the outcome of one admission check.
type Result struct {
	Allowed    bool          `json:"allowed"`
	Limit      int           `json:"limit"`
	Remaining  int           `json:"remaining"`
	ResetAt    time.Time     `json:"reset_at"`
	RetryAfter time.Duration `json:"retry_after"`
}
