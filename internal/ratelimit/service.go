package ratelimit

import (
	"context"
	"errors"
	"log/slog"
	"time"

	dErrors "backcheck/pkg/domain-errors"
)

// Service applies the configured limit and window to a window store.
type Service struct {
	store  WindowStore
	limit  int
	window time.Duration
	logger *slog.Logger
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func New(store WindowStore, limit int, window time.Duration, opts ...Option) (*Service, error) {
	if store == nil {
		return nil, errors.New("window store is required")
	}
	if limit <= 0 {
		return nil, errors.New("limit must be positive")
	}
	if window <= 0 {
		return nil, errors.New("window must be positive")
	}

	svc := &Service{
		store:  store,
		limit:  limit,
		window: window,
	}

	for _, opt := range opts {
		opt(svc)
	}

	return svc, nil
}

// Allow admits or rejects one request for the client key. Rejected requests
// still consume a counter slot; the window's reset time is reported either
// way so callers can surface Retry-After.
func (s *Service) Allow(ctx context.Context, clientKey string) (*Result, error) {
	count, windowStart, err := s.store.Incr(ctx, clientKey, s.window)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to check rate limit")
	}

	resetAt := windowStart.Add(s.window)
	result := &Result{
		Allowed: count <= s.limit,
		Limit:   s.limit,
		ResetAt: resetAt,
	}

	if result.Allowed {
		result.Remaining = s.limit - count
		return result, nil
	}

	result.RetryAfter = time.Until(resetAt)
	if result.RetryAfter < 0 {
		result.RetryAfter = 0
	}

	if s.logger != nil {
		s.logger.InfoContext(ctx, "rate limit exceeded",
			"client_key", clientKey,
			"limit", s.limit,
			"window_seconds", int(s.window.Seconds()),
		)
	}

	return result, nil
}
