package handlers

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strconv"

	"github.com/sagecor-solutions/resumeintel/internal/api"
	"github.com/sagecor-solutions/resumeintel/internal/service"
)

type IngestService interface {
	IngestDocument(ctx context.Context, input service.IngestInput) (*service.IngestResult, error)
	IngestDirectory(ctx context.Context, dir string, force bool) (*service.DirectoryResult, error)
}

type ResumeHandler struct {
	svc IngestService
}

func NewResumeHandler(svc IngestService) *ResumeHandler {
	return &ResumeHandler{svc: svc}
}

type IngestResponse struct {
	DocumentID    string `json:"document_id"`
	CanonicalName string `json:"canonical_name"`
	ChunksWritten int    `json:"chunks_written"`
	Skipped       bool   `json:"skipped"`
	Degraded      bool   `json:"degraded"`
}

type IngestDirectoryRequest struct {
	Dir   string `json:"dir"`
	Force bool   `json:"force"`
}

type FileErrorResponse struct {
	Path  string `json:"path"`
	Error string `json:"error"`
}

type IngestDirectoryResponse struct {
	FilesProcessed int                 `json:"files_processed"`
	FilesSkipped   int                 `json:"files_skipped"`
	ChunksWritten  int                 `json:"chunks_written"`
	Errors         []FileErrorResponse `json:"errors,omitempty"`
}

// Upload ingests one resume sent as a multipart form. The part name is
// "file"; its filename becomes the declared name for identity resolution.
func (h *ResumeHandler) Upload(w http.ResponseWriter, r *http.Request) {
	file, header, err := r.FormFile("file")
	if err != nil {
		api.Error(w, http.StatusBadRequest, "multipart field 'file' is required")
		return
	}
	defer file.Close()

	if header.Filename == "" {
		api.Error(w, http.StatusBadRequest, "uploaded file must have a name")
		return
	}

	tmp, err := os.CreateTemp("", "resume-upload-*"+filepath.Ext(header.Filename))
	if err != nil {
		api.Error(w, http.StatusInternalServerError, "failed to spool upload")
		return
	}
	defer os.Remove(tmp.Name())

	if _, err := io.Copy(tmp, file); err != nil {
		tmp.Close()
		api.Error(w, http.StatusInternalServerError, "failed to spool upload")
		return
	}
	if err := tmp.Close(); err != nil {
		api.Error(w, http.StatusInternalServerError, "failed to spool upload")
		return
	}

	force, _ := strconv.ParseBool(r.FormValue("force"))

	result, err := h.svc.IngestDocument(r.Context(), service.IngestInput{
		Path:         tmp.Name(),
		DeclaredName: header.Filename,
		Force:        force,
	})
	if err != nil {
		api.HandleError(w, err)
		return
	}

	status := http.StatusCreated
	if result.Skipped {
		status = http.StatusOK
	}
	api.Success(w, status, ingestToResponse(result))
}

// IngestDirectory ingests every supported file under a server-side directory.
func (h *ResumeHandler) IngestDirectory(w http.ResponseWriter, r *http.Request) {
	var req IngestDirectoryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Dir == "" {
		api.Error(w, http.StatusBadRequest, "dir is required")
		return
	}

	result, err := h.svc.IngestDirectory(r.Context(), req.Dir, req.Force)
	if err != nil {
		api.HandleError(w, err)
		return
	}

	resp := IngestDirectoryResponse{
		FilesProcessed: result.FilesProcessed,
		FilesSkipped:   result.FilesSkipped,
		ChunksWritten:  result.ChunksWritten,
	}
	for _, fe := range result.Errors {
		resp.Errors = append(resp.Errors, FileErrorResponse{Path: fe.Path, Error: fe.Err.Error()})
	}
	api.Success(w, http.StatusOK, resp)
}

func ingestToResponse(result *service.IngestResult) IngestResponse {
	return IngestResponse{
		DocumentID:    result.DocumentID,
		CanonicalName: result.CanonicalName,
		ChunksWritten: result.ChunksWritten,
		Skipped:       result.Skipped,
		Degraded:      result.Degraded,
	}
}
