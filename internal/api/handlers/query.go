package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/sagecor-solutions/resumeintel/internal/api"
	"github.com/sagecor-solutions/resumeintel/internal/domain"
	"github.com/sagecor-solutions/resumeintel/internal/service"
)

type QueryService interface {
	Query(ctx context.Context, question, documentID string) (*service.QueryResult, error)
	ListDocuments(ctx context.Context) ([]domain.DocumentSummary, error)
	GetDocument(ctx context.Context, documentID string) (*domain.DocumentSummary, error)
	DeleteDocument(ctx context.Context, documentID string) error
	Stats(ctx context.Context) (*service.StoreStats, error)
}

type QueryHandler struct {
	svc QueryService
}

func NewQueryHandler(svc QueryService) *QueryHandler {
	return &QueryHandler{svc: svc}
}

type QueryRequest struct {
	Question   string `json:"question"`
	DocumentID string `json:"document_id"`
}

type SourceResponse struct {
	DocumentID   string  `json:"document_id"`
	DocumentName string  `json:"document_name"`
	SectionLabel string  `json:"section_label,omitempty"`
	Preview      string  `json:"preview"`
	Distance     float64 `json:"distance"`
}

type QueryResponse struct {
	Answer  string           `json:"answer"`
	Sources []SourceResponse `json:"sources,omitempty"`
}

type DocumentResponse struct {
	DocumentID  string `json:"document_id"`
	Name        string `json:"name"`
	Format      string `json:"format"`
	ChunkCount  int    `json:"chunk_count"`
	LastUpdated string `json:"last_updated"`
}

type StatsResponse struct {
	TotalDocuments int            `json:"total_documents"`
	TotalChunks    int            `json:"total_chunks"`
	Formats        map[string]int `json:"formats"`
	Location       string         `json:"location"`
}

func (h *QueryHandler) Query(w http.ResponseWriter, r *http.Request) {
	var req QueryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	result, err := h.svc.Query(r.Context(), req.Question, req.DocumentID)
	if err != nil {
		api.HandleError(w, err)
		return
	}

	resp := QueryResponse{Answer: result.Answer}
	for _, src := range result.Sources {
		resp.Sources = append(resp.Sources, SourceResponse{
			DocumentID:   src.Chunk.DocumentID,
			DocumentName: src.Chunk.DocumentName,
			SectionLabel: src.Chunk.SectionLabel,
			Preview:      src.Chunk.Preview,
			Distance:     src.Distance,
		})
	}
	api.Success(w, http.StatusOK, resp)
}

func (h *QueryHandler) ListDocuments(w http.ResponseWriter, r *http.Request) {
	summaries, err := h.svc.ListDocuments(r.Context())
	if err != nil {
		api.HandleError(w, err)
		return
	}

	resp := make([]DocumentResponse, 0, len(summaries))
	for _, d := range summaries {
		resp = append(resp, DocumentResponse{
			DocumentID:  d.DocumentID,
			Name:        d.Name,
			Format:      d.Format,
			ChunkCount:  d.ChunkCount,
			LastUpdated: d.LastUpdated.UTC().Format(time.RFC3339),
		})
	}
	api.Success(w, http.StatusOK, resp)
}

func (h *QueryHandler) GetDocument(w http.ResponseWriter, r *http.Request) {
	documentID := chi.URLParam(r, "id")
	summary, err := h.svc.GetDocument(r.Context(), documentID)
	if err != nil {
		api.HandleError(w, err)
		return
	}

	api.Success(w, http.StatusOK, DocumentResponse{
		DocumentID:  summary.DocumentID,
		Name:        summary.Name,
		Format:      summary.Format,
		ChunkCount:  summary.ChunkCount,
		LastUpdated: summary.LastUpdated.UTC().Format(time.RFC3339),
	})
}

func (h *QueryHandler) DeleteDocument(w http.ResponseWriter, r *http.Request) {
	documentID := chi.URLParam(r, "id")
	if err := h.svc.DeleteDocument(r.Context(), documentID); err != nil {
		api.HandleError(w, err)
		return
	}
	api.Success(w, http.StatusOK, map[string]string{"document_id": documentID, "status": "deleted"})
}

func (h *QueryHandler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.svc.Stats(r.Context())
	if err != nil {
		api.HandleError(w, err)
		return
	}

	api.Success(w, http.StatusOK, StatsResponse{
		TotalDocuments: stats.TotalDocuments,
		TotalChunks:    stats.TotalChunks,
		Formats:        stats.Formats,
		Location:       stats.Location,
	})
}
