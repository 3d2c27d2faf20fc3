// Package middleware wraps the check intake path with admission control.
// Query paths are deliberately not wrapped.
package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"backcheck/internal/ratelimit"
	dErrors "backcheck/pkg/domain-errors"
	"backcheck/pkg/platform/httputil"
	"backcheck/pkg/requestcontext"
)

var rejectionsTotal = promauto.NewCounter(prometheus.CounterOpts{
	Name: "backcheck_rate_limit_rejections_total",
	Help: "Total number of intake requests rejected by the rate limiter",
})

// Limiter is the admission decision the middleware depends on.
type Limiter interface {
	Allow(ctx context.Context, clientKey string) (*ratelimit.Result, error)
}

// Middleware guards HTTP endpoints with a Limiter.
type Middleware struct {
	limiter Limiter
	logger  *slog.Logger
}

func New(limiter Limiter, logger *slog.Logger) *Middleware {
	return &Middleware{limiter: limiter, logger: logger}
}

// Limit applies admission control keyed by the authenticated owner,
// falling back to client IP for unauthenticated probes.
func (m *Middleware) Limit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		clientKey := requestcontext.OwnerID(ctx)
		if clientKey == "" {
			clientKey = requestcontext.ClientIP(ctx)
		}

		result, err := m.limiter.Allow(ctx, clientKey)
		if err != nil {
			// Fail open: admission control protects capacity, it is not
			// a correctness gate.
			m.logger.ErrorContext(ctx, "rate limit check failed",
				"error", err,
				"request_id", requestcontext.RequestID(ctx),
			)
			next.ServeHTTP(w, r)
			return
		}

		w.Header().Set("X-RateLimit-Limit", strconv.Itoa(result.Limit))
		w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(result.Remaining))
		w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(result.ResetAt.Unix(), 10))

		if !result.Allowed {
			rejectionsTotal.Inc()
			retryAfter := int(result.RetryAfter.Seconds()) + 1
			w.Header().Set("Retry-After", strconv.Itoa(retryAfter))
			httputil.WriteError(w, dErrors.New(dErrors.CodeRateLimited, "rate limit exceeded, retry later"))
			return
		}

		next.ServeHTTP(w, r)
	})
}
