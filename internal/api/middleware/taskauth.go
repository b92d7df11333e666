package middleware

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/maplab/geoexport-api/internal/api/shared"
	"github.com/maplab/geoexport-api/internal/redact"
	"github.com/maplab/geoexport-api/internal/service/tasktoken"
)

// TaskAuthMiddleware authenticates webhook invocations from the task queue.
// The queue presents the credential embedded at dispatch time in the
// Authorization header.
type TaskAuthMiddleware struct {
	tokens tasktoken.Service
}

// NewTaskAuthMiddleware creates a TaskAuthMiddleware.
func NewTaskAuthMiddleware(tokens tasktoken.Service) *TaskAuthMiddleware {
	return &TaskAuthMiddleware{tokens: tokens}
}

// Authenticate validates the bearer credential before the webhook handler
// runs.
func (m *TaskAuthMiddleware) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			shared.RespondWithError(w, r, http.StatusUnauthorized, "Authorization header required")
			return
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			shared.RespondWithError(w, r, http.StatusUnauthorized, "Invalid authorization format")
			return
		}

		if err := m.tokens.Validate(r.Context(), parts[1]); err != nil {
			switch {
			case errors.Is(err, tasktoken.ErrExpiredToken):
				shared.RespondWithError(w, r, http.StatusUnauthorized, "Token expired")
			case errors.Is(err, tasktoken.ErrInvalidToken):
				shared.RespondWithError(w, r, http.StatusUnauthorized, "Invalid token")
			default:
				slog.Error("failed to validate task token", "error", redact.Error(err))
				shared.RespondWithError(w, r, http.StatusInternalServerError, "Authentication error")
			}
			return
		}

		next.ServeHTTP(w, r)
	})
}
