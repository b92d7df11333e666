// Package domain defines the core business entities and errors.
package domain

import "errors"

// Common domain errors used across the application.
var (
	// ErrValidation is returned when an export request fails validation.
	// This is often wrapped with a more specific error message.
	ErrValidation = errors.New("validation failed")

	// ErrInvalidFormat is returned when data is not in the expected format.
	ErrInvalidFormat = errors.New("invalid format")

	// ErrMissingTaskID is returned when a webhook payload omits the task id.
	ErrMissingTaskID = errors.New("taskId is required")

	// ErrEmptyBatch is returned when a batch request contains no rows.
	ErrEmptyBatch = errors.New("batch contains no rows")

	// ErrBatchRejected is returned when every row of a batch fails validation.
	ErrBatchRejected = errors.New("all batch rows failed validation")
)
