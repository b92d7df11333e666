// Package tasktoken issues and validates the identity credential embedded
// in queue tasks at dispatch time and presented back by the queue when it
// invokes the webhook endpoint.
package tasktoken

import (
	"context"
	"errors"
)

// Token validation errors.
var (
	// ErrInvalidToken is returned when a token fails signature or claim checks.
	ErrInvalidToken = errors.New("invalid task token")

	// ErrExpiredToken is returned when a token's lifetime has elapsed.
	ErrExpiredToken = errors.New("task token expired")
)

// Service issues and validates webhook identity credentials.
type Service interface {
	// Generate returns a signed credential for one dispatched task.
	Generate(ctx context.Context) (string, error)

	// Validate checks a presented credential. Returns ErrExpiredToken or
	// ErrInvalidToken on failure.
	Validate(ctx context.Context, token string) error
}
