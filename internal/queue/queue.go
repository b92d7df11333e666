// Package queue defines the boundary to the external managed task queue and
// the tagged error surface the dispatcher branches on.
package queue

import (
	"context"
	"errors"
	"fmt"
)

// Message is one unit of deferred work handed to the external queue. The
// queue later POSTs Payload to CallbackURL presenting AuthToken as a bearer
// credential.
type Message struct {
	Payload     []byte
	CallbackURL string
	AuthToken   string
}

// TaskQueue is the capability interface for enqueuing deferred work.
// Enqueue returns an opaque task handle assigned by the provider.
type TaskQueue interface {
	Enqueue(ctx context.Context, msg Message) (string, error)
}

// ErrorKind tags a queue provider failure so the dispatcher can branch
// exhaustively instead of matching error strings.
type ErrorKind int

// Provider error kinds.
const (
	// KindUnknown covers anything not positively classified.
	KindUnknown ErrorKind = iota

	// KindProvisioning means the queue or project does not exist.
	KindProvisioning

	// KindPermissionDenied means the caller is not allowed to use the queue.
	KindPermissionDenied

	// KindTransient covers throttling and provider-side failures that a
	// retry could resolve.
	KindTransient
)

// String returns a stable label for the kind.
func (k ErrorKind) String() string {
	switch k {
	case KindProvisioning:
		return "provisioning"
	case KindPermissionDenied:
		return "permission_denied"
	case KindTransient:
		return "transient"
	default:
		return "unknown"
	}
}

// Error is a classified queue provider failure.
type Error struct {
	Kind ErrorKind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("queue %s: %s: %v", e.Op, e.Kind, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// TriggersFallback reports whether the error belongs to the closed set of
// provisioning failures that switch the dispatcher to synchronous
// execution: queue/resource not found and permission denied. Transient and
// unknown errors never trigger the fallback.
func TriggersFallback(err error) bool {
	var qerr *Error
	if !errors.As(err, &qerr) {
		return false
	}
	return qerr.Kind == KindProvisioning || qerr.Kind == KindPermissionDenied
}
