// Package middleware provides the HTTP middleware chain: trace-ID
// propagation, webhook credential checks, and rate limiting.
package middleware

import (
	"log/slog"
	"net/http"

	"github.com/maplab/geoexport-api/internal/api/shared"
)

// TraceMiddleware adds a trace ID to the request context. Apply early in the
// chain so all subsequent handlers have access to it.
func TraceMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := shared.SetTraceID(r.Context())

		slog.Debug("request started",
			slog.String("trace_id", shared.GetTraceID(ctx)),
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.String("remote_addr", r.RemoteAddr))

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
