package api

import (
	"net/http"
	"os"
	"path/filepath"

	"github.com/go-chi/chi/v5"

	"github.com/maplab/geoexport-api/internal/api/shared"
	"github.com/maplab/geoexport-api/internal/export"
)

// DownloadHandler serves generated artifacts from the flat export directory.
type DownloadHandler struct {
	exportDir string
}

// NewDownloadHandler creates a DownloadHandler serving files from exportDir.
func NewDownloadHandler(exportDir string) *DownloadHandler {
	return &DownloadHandler{exportDir: exportDir}
}

// GetArtifact handles GET /downloads/{filename}. The filename is validated
// against path traversal before touching the filesystem.
func (h *DownloadHandler) GetArtifact(w http.ResponseWriter, r *http.Request) {
	name, err := export.SafeFilename(chi.URLParam(r, "filename"))
	if err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, GetSafeErrorMessage(err))
		return
	}

	path := filepath.Join(h.exportDir, name)
	if _, err := os.Stat(path); err != nil {
		shared.RespondWithError(w, r, http.StatusNotFound, "Artifact not found")
		return
	}

	w.Header().Set("Content-Disposition", "attachment; filename="+name)
	http.ServeFile(w, r, path)
}
