package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/sagecor-solutions/resumeintel/internal/api"
	"github.com/sagecor-solutions/resumeintel/internal/api/handlers"
	"github.com/sagecor-solutions/resumeintel/internal/api/middleware"
)

type RouterConfig struct {
	ResumeHandler  *handlers.ResumeHandler
	QueryHandler   *handlers.QueryHandler
	RankingHandler *handlers.RankingHandler
}

func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	const maxBodyBytes int64 = 5 * 1024 * 1024

	r.Use(middleware.RequestID)
	r.Use(middleware.SentryMiddleware)
	r.Use(middleware.AccessLog)
	r.Use(middleware.MaxBodyBytes(maxBodyBytes))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		api.Success(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/resumes", func(r chi.Router) {
		r.Post("/", cfg.ResumeHandler.Upload)
		r.Post("/batch", cfg.ResumeHandler.IngestDirectory)
		r.Get("/", cfg.QueryHandler.ListDocuments)
		r.Get("/{id}", cfg.QueryHandler.GetDocument)
		r.Delete("/{id}", cfg.QueryHandler.DeleteDocument)
	})

	r.Post("/query", cfg.QueryHandler.Query)
	r.Post("/rank", cfg.RankingHandler.Rank)
	r.Get("/stats", cfg.QueryHandler.Stats)

	return r
}
