// Package httptransport assembles the public HTTP surface: the check API
// under /api behind authentication, plus unauthenticated health and metrics
// endpoints.
package httptransport

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"backcheck/internal/check/handler"
	platformmw "backcheck/internal/platform/middleware"
	"backcheck/pkg/platform/httputil"
)

// HealthCheck probes one dependency for the health endpoint.
type HealthCheck struct {
	Name  string
	Check func(ctx context.Context) error
}

// Deps carries everything the router mounts.
type Deps struct {
	Logger *slog.Logger
	Checks *handler.Handler

	// Auth guards everything under /api.
	Auth platformmw.TokenValidator

	// SubmitLimit throttles check submission only. Optional.
	SubmitLimit func(http.Handler) http.Handler

	// HealthChecks are probed by GET /healthz. Optional.
	HealthChecks []HealthCheck
}

// NewRouter builds the service router.
func NewRouter(deps Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.Recoverer)
	r.Use(platformmw.RequestMetadata)

	r.Get("/healthz", healthHandler(deps.Logger, deps.HealthChecks))
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Use(platformmw.RequireAuth(deps.Auth, deps.Logger))
		deps.Checks.Register(r, deps.SubmitLimit)
	})

	return r
}

// healthHandler reports per-dependency status. Any failing probe turns the
// overall response into a 503 so load balancers stop routing here.
func healthHandler(logger *slog.Logger, checks []HealthCheck) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		status := http.StatusOK
		body := map[string]string{"status": "ok"}
		for _, check := range checks {
			if err := check.Check(ctx); err != nil {
				logger.WarnContext(ctx, "health check failed",
					"dependency", check.Name,
					"error", err,
				)
				status = http.StatusServiceUnavailable
				body["status"] = "degraded"
				body[check.Name] = "unavailable"
				continue
			}
			body[check.Name] = "ok"
		}
		httputil.WriteJSON(w, status, body)
	}
}
