package queue

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"google.golang.org/api/googleapi"
)

func TestClassify(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  error
		want ErrorKind
	}{
		{"404 is provisioning", &googleapi.Error{Code: 404, Message: "queue not found"}, KindProvisioning},
		{"403 is permission denied", &googleapi.Error{Code: 403, Message: "forbidden"}, KindPermissionDenied},
		{"401 is permission denied", &googleapi.Error{Code: 401, Message: "unauthenticated"}, KindPermissionDenied},
		{"429 is transient", &googleapi.Error{Code: 429, Message: "rate limited"}, KindTransient},
		{"500 is transient", &googleapi.Error{Code: 500, Message: "internal"}, KindTransient},
		{"503 is transient", &googleapi.Error{Code: 503, Message: "unavailable"}, KindTransient},
		{"400 is unknown", &googleapi.Error{Code: 400, Message: "bad request"}, KindUnknown},
		{"non-api error is unknown", errors.New("connection refused"), KindUnknown},
		{"wrapped api error is classified", fmt.Errorf("call failed: %w", &googleapi.Error{Code: 404}), KindProvisioning},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			classified := Classify("enqueue", tc.err)
			assert.Equal(t, tc.want, classified.Kind)
			assert.ErrorIs(t, classified, tc.err, "original error must stay unwrappable")
		})
	}
}

func TestTriggersFallback(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"provisioning triggers fallback", &Error{Kind: KindProvisioning, Op: "enqueue", Err: errors.New("x")}, true},
		{"permission denied triggers fallback", &Error{Kind: KindPermissionDenied, Op: "enqueue", Err: errors.New("x")}, true},
		{"transient does not", &Error{Kind: KindTransient, Op: "enqueue", Err: errors.New("x")}, false},
		{"unknown does not", &Error{Kind: KindUnknown, Op: "enqueue", Err: errors.New("x")}, false},
		{"plain error does not", errors.New("boom"), false},
		{"wrapped queue error is detected", fmt.Errorf("dispatch: %w", &Error{Kind: KindProvisioning, Op: "enqueue", Err: errors.New("x")}), true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tc.want, TriggersFallback(tc.err))
		})
	}
}

func TestErrorKindString(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "provisioning", KindProvisioning.String())
	assert.Equal(t, "permission_denied", KindPermissionDenied.String())
	assert.Equal(t, "transient", KindTransient.String())
	assert.Equal(t, "unknown", KindUnknown.String())
}
