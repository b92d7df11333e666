package tasktoken

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Audience restricts issued tokens to the webhook endpoint.
const Audience = "tasks/process"

const issuer = "geoexport-api"

// hmacService is an implementation of Service using HMAC-SHA signing.
type hmacService struct {
	signingKey []byte
	lifetime   time.Duration
	timeFunc   func() time.Time // Injectable for testing
	clockSkew  time.Duration    // Allowed drift between dispatcher and queue clocks
}

// Ensure hmacService implements the Service interface
var _ Service = (*hmacService)(nil)

// NewService creates a token service using HMAC-SHA256 signing.
// The secret must be at least 32 characters.
func NewService(secret string, lifetime time.Duration) (Service, error) {
	if len(secret) < 32 {
		return nil, fmt.Errorf("task token secret must be at least 32 characters")
	}
	if lifetime <= 0 {
		lifetime = time.Hour
	}

	return &hmacService{
		signingKey: []byte(secret),
		lifetime:   lifetime,
		timeFunc:   time.Now,
		clockSkew:  2 * time.Minute,
	}, nil
}

// Generate implements Service.Generate.
func (s *hmacService) Generate(ctx context.Context) (string, error) {
	now := s.timeFunc()

	claims := jwt.RegisteredClaims{
		Issuer:    issuer,
		Audience:  jwt.ClaimStrings{Audience},
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(s.lifetime)),
		ID:        uuid.NewString(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.signingKey)
	if err != nil {
		slog.Error("failed to sign task token", "error", err)
		return "", fmt.Errorf("failed to sign task token: %w", err)
	}

	return signed, nil
}

// Validate implements Service.Validate.
func (s *hmacService) Validate(ctx context.Context, tokenString string) error {
	now := s.timeFunc()

	parserOpts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Name}),
		jwt.WithAudience(Audience),
		jwt.WithIssuer(issuer),
		jwt.WithLeeway(s.clockSkew),
		jwt.WithTimeFunc(func() time.Time { return now }),
	}

	token, err := jwt.ParseWithClaims(
		tokenString,
		&jwt.RegisteredClaims{},
		func(token *jwt.Token) (interface{}, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
			}
			return s.signingKey, nil
		},
		parserOpts...)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return ErrExpiredToken
		}
		return ErrInvalidToken
	}

	if !token.Valid {
		return ErrInvalidToken
	}
	return nil
}
