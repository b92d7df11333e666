package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/maplab/geoexport-api/internal/api/shared"
	"github.com/maplab/geoexport-api/internal/jobs"
)

// JobHandler serves job polling requests.
type JobHandler struct {
	jobs *jobs.Store
}

// NewJobHandler creates a JobHandler.
func NewJobHandler(jobStore *jobs.Store) *JobHandler {
	return &JobHandler{jobs: jobStore}
}

// GetJob handles GET /jobs/{id}. Unknown ids yield 404, never an empty job.
func (h *JobHandler) GetJob(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Job id required")
		return
	}

	job, ok := h.jobs.Get(id)
	if !ok {
		shared.RespondWithError(w, r, http.StatusNotFound, "Job not found")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, jobToResponse(job))
}
