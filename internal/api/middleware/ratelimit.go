package middleware

import (
	"net/http"

	"golang.org/x/time/rate"

	"github.com/maplab/geoexport-api/internal/api/shared"
)

// RateLimit returns middleware enforcing a token-bucket limit across all
// requests passing through it. The webhook route uses a stricter limiter
// than general API traffic since its caller is queue infrastructure, not
// end users.
func RateLimit(rps float64, burst int) func(http.Handler) http.Handler {
	limiter := rate.NewLimiter(rate.Limit(rps), burst)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !limiter.Allow() {
				shared.RespondWithError(w, r, http.StatusTooManyRequests, "Rate limit exceeded")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
