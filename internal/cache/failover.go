package cache

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/sony/gobreaker/v2"
)

// Failover is a Store decorator that routes every operation through a
// circuit breaker around the primary (persistent) store and transparently
// retries the same operation against the in-memory fallback when the
// primary fails or the breaker is open. Cache unavailability therefore
// never fails a request; it degrades to a miss or a memory-only write.
type Failover struct {
	primary  Store
	fallback Store
	breaker  *gobreaker.CircuitBreaker[string]
	logger   *slog.Logger
}

// Ensure Failover implements the Store interface
var _ Store = (*Failover)(nil)

// NewFailover wraps the primary store with breaker-guarded fallback to the
// given in-memory store. If logger is nil, a default logger is used.
func NewFailover(primary, fallback Store, logger *slog.Logger) *Failover {
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With(slog.String("component", "cache_failover"))

	settings := gobreaker.Settings{
		Name:        "artifact-cache-primary",
		MaxRequests: 1,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 3
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("cache circuit breaker state change",
				slog.String("breaker", name),
				slog.String("from", from.String()),
				slog.String("to", to.String()))
		},
	}

	return &Failover{
		primary:  primary,
		fallback: fallback,
		breaker:  gobreaker.NewCircuitBreaker[string](settings),
		logger:   logger,
	}
}

// Get implements Store.Get. A primary miss stays a miss; only primary
// unavailability consults the fallback copy.
func (f *Failover) Get(ctx context.Context, key string) (string, error) {
	name, err := f.breaker.Execute(func() (string, error) {
		name, err := f.primary.Get(ctx, key)
		if errors.Is(err, ErrNotFound) {
			// A miss is a healthy answer, not a backend failure; artifact
			// names are never empty so the empty string encodes it.
			return "", nil
		}
		return name, err
	})
	if err != nil {
		f.logDegraded("get", key, err)
		return f.fallback.Get(ctx, key)
	}
	if name == "" {
		return "", ErrNotFound
	}
	return name, nil
}

// Set implements Store.Set.
func (f *Failover) Set(ctx context.Context, key, artifactName string, ttl time.Duration) error {
	_, err := f.breaker.Execute(func() (string, error) {
		return "", f.primary.Set(ctx, key, artifactName, ttl)
	})
	if err != nil {
		f.logDegraded("set", key, err)
		return f.fallback.Set(ctx, key, artifactName, ttl)
	}
	return nil
}

// Delete implements Store.Delete. The fallback copy is always removed as
// well so a stale memory entry cannot resurface after a degradation window.
func (f *Failover) Delete(ctx context.Context, key string) error {
	_, err := f.breaker.Execute(func() (string, error) {
		return "", f.primary.Delete(ctx, key)
	})
	if err != nil {
		f.logDegraded("delete", key, err)
	}
	return f.fallback.Delete(ctx, key)
}

func (f *Failover) logDegraded(op, key string, err error) {
	f.logger.Warn("primary cache store unavailable, using in-memory fallback",
		slog.String("operation", op),
		slog.String("cache_key", key),
		slog.String("error", err.Error()))
}
