package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/maplab/geoexport-api/internal/api/shared"
	"github.com/maplab/geoexport-api/internal/domain"
	"github.com/maplab/geoexport-api/internal/service"
)

// ExportOrchestrator resolves export requests. Implemented by
// service.ExportService.
type ExportOrchestrator interface {
	Process(ctx context.Context, req domain.ExportRequest) (service.Outcome, error)
	ProcessBatch(ctx context.Context, rows []domain.ExportRequest) (service.BatchResult, error)
}

// ExportHandler handles the single and batch export endpoints.
type ExportHandler struct {
	exports ExportOrchestrator
	logger  *slog.Logger
}

// NewExportHandler creates an ExportHandler. If logger is nil, a default
// logger is used.
func NewExportHandler(exports ExportOrchestrator, logger *slog.Logger) *ExportHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &ExportHandler{
		exports: exports,
		logger:  logger.With(slog.String("component", "export_handler")),
	}
}

// CreateExport handles POST /exports. Responds 200 with a URL when the
// artifact is immediately available (cache hit or synchronous fallback),
// 202 with a job id to poll otherwise.
func (h *ExportHandler) CreateExport(w http.ResponseWriter, r *http.Request) {
	var req domain.ExportRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}

	out, err := h.exports.Process(r.Context(), req)
	if err != nil {
		shared.RespondWithErrorAndLog(w, r,
			MapErrorToStatusCode(err), GetSafeErrorMessage(err), err)
		return
	}

	status := http.StatusAccepted
	if out.Cached || out.AlreadyCompleted {
		status = http.StatusOK
	}
	shared.RespondWithJSON(w, r, status, outcomeToExportResponse(out))
}

// CreateBatch handles POST /exports/batch. Partial success returns 200 with
// both the per-row results and per-row errors; a batch where no row succeeds
// is rejected with 400.
func (h *ExportHandler) CreateBatch(w http.ResponseWriter, r *http.Request) {
	var req BatchRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}

	batch, err := h.exports.ProcessBatch(r.Context(), req.Rows)
	if err != nil {
		if errors.Is(err, domain.ErrBatchRejected) {
			// Surface the per-row errors so the caller can fix each row.
			shared.RespondWithJSON(w, r, http.StatusBadRequest, BatchResponse{
				Results: []BatchRowResponse{},
				Errors:  batch.Errors,
			})
			return
		}
		shared.RespondWithErrorAndLog(w, r,
			MapErrorToStatusCode(err), GetSafeErrorMessage(err), err)
		return
	}

	results := make([]BatchRowResponse, 0, len(batch.Results))
	for _, out := range batch.Results {
		results = append(results, outcomeToBatchRow(out))
	}
	shared.RespondWithJSON(w, r, http.StatusOK, BatchResponse{
		Results: results,
		Errors:  batch.Errors,
	})
}
