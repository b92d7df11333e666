package queue

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	cloudtasks "google.golang.org/api/cloudtasks/v2"
	"google.golang.org/api/googleapi"
)

// CloudTasksQueue is the Cloud Tasks implementation of TaskQueue. Each
// enqueued task targets the service's webhook endpoint over HTTP with the
// identity credential in the Authorization header.
type CloudTasksQueue struct {
	svc      *cloudtasks.Service
	project  string
	location string
	queueID  string
	logger   *slog.Logger
}

// Ensure CloudTasksQueue implements the TaskQueue interface
var _ TaskQueue = (*CloudTasksQueue)(nil)

// NewCloudTasksQueue creates a Cloud Tasks client for the given queue
// coordinates. Credentials are resolved from the environment the usual way.
func NewCloudTasksQueue(
	ctx context.Context,
	project, location, queueID string,
	logger *slog.Logger,
) (*CloudTasksQueue, error) {
	if project == "" || location == "" || queueID == "" {
		return nil, fmt.Errorf("cloud tasks queue requires project, location and queue id")
	}
	if logger == nil {
		logger = slog.Default()
	}

	svc, err := cloudtasks.NewService(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create cloud tasks client: %w", err)
	}

	return &CloudTasksQueue{
		svc:      svc,
		project:  project,
		location: location,
		queueID:  queueID,
		logger:   logger.With(slog.String("component", "cloud_tasks_queue")),
	}, nil
}

// Enqueue implements TaskQueue.Enqueue. Failures are classified into the
// package's tagged error kinds from the provider's HTTP status codes.
func (q *CloudTasksQueue) Enqueue(ctx context.Context, msg Message) (string, error) {
	parent := fmt.Sprintf("projects/%s/locations/%s/queues/%s",
		q.project, q.location, q.queueID)

	task := &cloudtasks.Task{
		HttpRequest: &cloudtasks.HttpRequest{
			Url:        msg.CallbackURL,
			HttpMethod: "POST",
			Headers: map[string]string{
				"Content-Type":  "application/json",
				"Authorization": "Bearer " + msg.AuthToken,
			},
			Body: base64.StdEncoding.EncodeToString(msg.Payload),
		},
	}

	created, err := q.svc.Projects.Locations.Queues.Tasks.
		Create(parent, &cloudtasks.CreateTaskRequest{Task: task}).
		Context(ctx).
		Do()
	if err != nil {
		classified := Classify("enqueue", err)
		q.logger.Warn("task enqueue failed",
			slog.String("queue", parent),
			slog.String("error", classified.Error()))
		return "", classified
	}

	q.logger.Info("task enqueued",
		slog.String("queue", parent),
		slog.String("task_name", created.Name))
	return created.Name, nil
}

// Classify maps a provider error onto the tagged error surface. HTTP 404 is
// a provisioning failure (queue or project absent), 401/403 are permission
// failures, 429 and 5xx are transient; everything else stays unknown.
func Classify(op string, err error) *Error {
	kind := KindUnknown

	var gerr *googleapi.Error
	if errors.As(err, &gerr) {
		switch {
		case gerr.Code == http.StatusNotFound:
			kind = KindProvisioning
		case gerr.Code == http.StatusForbidden || gerr.Code == http.StatusUnauthorized:
			kind = KindPermissionDenied
		case gerr.Code == http.StatusTooManyRequests || gerr.Code >= 500:
			kind = KindTransient
		}
	}

	return &Error{Kind: kind, Op: op, Err: err}
}
