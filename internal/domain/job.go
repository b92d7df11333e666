package domain

import (
	"time"
)

// JobStatus represents the lifecycle state of an export job.
type JobStatus string

// Possible job status values. Queued is the only initial state;
// completed and failed are terminal.
const (
	JobStatusQueued     JobStatus = "queued"
	JobStatusProcessing JobStatus = "processing"
	JobStatusCompleted  JobStatus = "completed"
	JobStatusFailed     JobStatus = "failed"
)

// JobResult holds the outcome of a successfully completed job.
type JobResult struct {
	URL      string `json:"url"`
	Filename string `json:"filename"`
}

// Job tracks the lifecycle of one asynchronous export attempt.
// It is mutated only through the job store's transition operations.
type Job struct {
	ID        string     `json:"id"`
	Status    JobStatus  `json:"status"`
	Progress  int        `json:"progress"`
	Result    *JobResult `json:"result,omitempty"`
	Error     string     `json:"error,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// NewJob creates a Job in the queued state with zero progress.
func NewJob(id string) *Job {
	now := time.Now().UTC()
	return &Job{
		ID:        id,
		Status:    JobStatusQueued,
		Progress:  0,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// IsTerminal reports whether the job has reached a final state.
func (j *Job) IsTerminal() bool {
	return j.Status == JobStatusCompleted || j.Status == JobStatusFailed
}

// IsValidJobStatus checks if the given status is a known JobStatus.
func IsValidJobStatus(status JobStatus) bool {
	switch status {
	case JobStatusQueued, JobStatusProcessing, JobStatusCompleted, JobStatusFailed:
		return true
	default:
		return false
	}
}
