package middleware

import (
	"net"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/mssola/useragent"

	"backcheck/pkg/requestcontext"
)

// RequestMetadata assigns each request an ID and captures client IP and a
// normalized User-Agent for downstream logging. It runs before auth so even
// rejected requests are traceable.
func RequestMetadata(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		requestID := r.Header.Get("X-Request-Id")
		if requestID == "" {
			requestID = uuid.NewString()
		}
		ctx = requestcontext.WithRequestID(ctx, requestID)
		w.Header().Set("X-Request-Id", requestID)

		ctx = requestcontext.WithClientMetadata(ctx, clientIP(r), normalizeUserAgent(r.UserAgent()))

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// clientIP prefers X-Forwarded-For (first hop) since the service is expected
// to run behind a reverse proxy.
func clientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		first, _, _ := strings.Cut(fwd, ",")
		return strings.TrimSpace(first)
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// normalizeUserAgent reduces the raw header to "browser/version (os)" so
// logs stay bounded regardless of what the client sends.
func normalizeUserAgent(raw string) string {
	if raw == "" {
		return ""
	}
	ua := useragent.New(raw)
	name, version := ua.Browser()
	if name == "" {
		return raw
	}
	return name + "/" + version + " (" + ua.OS() + ")"
}
