package middleware

import (
	"log/slog"
	"net/http"
	"strings"

	"backcheck/pkg/requestcontext"
)

// TokenValidator resolves an opaque caller token to a stable owner
// identifier. The concrete implementation lives in internal/identity; this
// boundary keeps the middleware testable with a fake.
type TokenValidator interface {
	ValidateToken(tokenString string) (ownerID string, err error)
}

// RequireAuth rejects requests without a valid bearer token and injects the
// resolved owner ID into the request context.
func RequireAuth(validator TokenValidator, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			authHeader := r.Header.Get("Authorization")
			token, ok := strings.CutPrefix(authHeader, "Bearer ")
			if !ok || token == "" {
				writeUnauthorized(w)
				return
			}

			ownerID, err := validator.ValidateToken(token)
			if err != nil {
				logger.WarnContext(ctx, "unauthorized access - invalid token",
					"error", err,
					"request_id", requestcontext.RequestID(ctx),
				)
				writeUnauthorized(w)
				return
			}

			ctx = requestcontext.WithOwnerID(ctx, ownerID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func writeUnauthorized(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_, _ = w.Write([]byte(`{"error":"unauthorized","error_description":"Invalid or expired token"}`))
}
