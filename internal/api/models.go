package api

import (
	"github.com/maplab/geoexport-api/internal/domain"
	"github.com/maplab/geoexport-api/internal/service"
)

// ExportResponse is the body for POST /exports. Status is "success" with a
// URL when the artifact is immediately available, or "queued" with a JobID
// to poll.
type ExportResponse struct {
	Status string `json:"status"`
	URL    string `json:"url,omitempty"`
	JobID  string `json:"jobId,omitempty"`
}

// BatchRequest is the body for POST /exports/batch: one row per desired
// artifact.
type BatchRequest struct {
	Rows []domain.ExportRequest `json:"rows"`
}

// BatchRowResponse reports one resolved batch row. Status is "cached",
// "completed" or "queued".
type BatchRowResponse struct {
	Status string `json:"status"`
	URL    string `json:"url,omitempty"`
	JobID  string `json:"jobId,omitempty"`
}

// BatchResponse aggregates per-row outcomes and per-row errors.
type BatchResponse struct {
	Results []BatchRowResponse      `json:"results"`
	Errors  []service.BatchRowError `json:"errors"`
}

// JobResponse is the body for GET /jobs/{id}.
type JobResponse struct {
	ID       string            `json:"id"`
	Status   string            `json:"status"`
	Progress int               `json:"progress"`
	Result   *domain.JobResult `json:"result,omitempty"`
	Error    string            `json:"error,omitempty"`
}

// TaskResponse is the body returned to the task queue from POST
// /tasks/process.
type TaskResponse struct {
	Status   string `json:"status"`
	TaskID   string `json:"taskId"`
	URL      string `json:"url,omitempty"`
	Filename string `json:"filename,omitempty"`
	Error    string `json:"error,omitempty"`
}

func outcomeToExportResponse(out service.Outcome) ExportResponse {
	if out.Cached || out.AlreadyCompleted {
		return ExportResponse{Status: "success", URL: out.URL}
	}
	return ExportResponse{Status: "queued", JobID: out.JobID}
}

func outcomeToBatchRow(out service.Outcome) BatchRowResponse {
	switch {
	case out.Cached:
		return BatchRowResponse{Status: "cached", URL: out.URL}
	case out.AlreadyCompleted:
		return BatchRowResponse{Status: "completed", URL: out.URL}
	default:
		return BatchRowResponse{Status: "queued", JobID: out.JobID}
	}
}

func jobToResponse(job domain.Job) JobResponse {
	return JobResponse{
		ID:       job.ID,
		Status:   string(job.Status),
		Progress: job.Progress,
		Result:   job.Result,
		Error:    job.Error,
	}
}
