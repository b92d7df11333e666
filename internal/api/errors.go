package api

import (
	"errors"
	"net/http"

	"github.com/maplab/geoexport-api/internal/domain"
	"github.com/maplab/geoexport-api/internal/export"
)

// MapErrorToStatusCode maps internal errors to HTTP status codes without
// leaking internal error types to clients.
func MapErrorToStatusCode(err error) int {
	switch {
	case errors.Is(err, domain.ErrValidation),
		errors.Is(err, domain.ErrInvalidFormat),
		errors.Is(err, domain.ErrMissingTaskID),
		errors.Is(err, domain.ErrEmptyBatch),
		errors.Is(err, domain.ErrBatchRejected),
		errors.Is(err, export.ErrUnsafeFilename):
		return http.StatusBadRequest

	default:
		return http.StatusInternalServerError
	}
}

// GetSafeErrorMessage returns a sanitized, user-facing message for the
// error. Validation messages are already built from field names and tags,
// so they pass through; everything else collapses to a generic message.
func GetSafeErrorMessage(err error) string {
	if err == nil {
		return "An unexpected error occurred"
	}

	switch {
	case errors.Is(err, domain.ErrValidation):
		return err.Error()
	case errors.Is(err, domain.ErrInvalidFormat):
		return "Invalid request format"
	case errors.Is(err, domain.ErrMissingTaskID):
		return "taskId is required"
	case errors.Is(err, domain.ErrEmptyBatch):
		return "Batch contains no rows"
	case errors.Is(err, domain.ErrBatchRejected):
		return "All batch rows failed validation"
	case errors.Is(err, export.ErrUnsafeFilename):
		return "Invalid filename"
	default:
		return "An unexpected error occurred"
	}
}
