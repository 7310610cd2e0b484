package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/sagecor-solutions/resumeintel/internal/domain"
)

const retrievalLimit = 4

const answerSystemPrompt = "You are a recruiting assistant. Answer questions about candidates strictly from the resume excerpts provided. If the excerpts do not contain the answer, say so."

// QueryService answers natural-language questions over indexed resumes with
// plain retrieval-augmented generation, no ranking.
type QueryService struct {
	embedder Embedder
	llm      Completer
	stores   HandleProvider

	location   string
	collection string
}

// NewQueryService creates a query service bound to one store location and
// collection.
func NewQueryService(embedder Embedder, llm Completer, stores HandleProvider, location, collection string) *QueryService {
	return &QueryService{
		embedder:   embedder,
		llm:        llm,
		stores:     stores,
		location:   location,
		collection: collection,
	}
}

// QueryResult is a generated answer with the chunks it was grounded on.
type QueryResult struct {
	Answer  string
	Sources []domain.ScoredChunk
}

// Query retrieves the closest chunks for the question and generates an answer
// from them. A non-empty documentID narrows retrieval to that one document.
func (s *QueryService) Query(ctx context.Context, question, documentID string) (*QueryResult, error) {
	if strings.TrimSpace(question) == "" {
		return nil, domain.ErrEmptyQuery
	}

	handle, err := s.stores.Acquire(ctx, s.location, s.collection, false)
	if err != nil {
		return nil, err
	}

	embedding, err := s.embedder.GenerateEmbedding(ctx, question)
	if err != nil {
		return nil, fmt.Errorf("embedding query: %w", err)
	}

	sources, err := handle.Search(ctx, embedding, retrievalLimit, documentID)
	if err != nil {
		return nil, fmt.Errorf("searching chunks: %w", err)
	}
	if len(sources) == 0 {
		return &QueryResult{Answer: "No matching resume content was found."}, nil
	}

	var b strings.Builder
	for i, src := range sources {
		fmt.Fprintf(&b, "Excerpt %d (from %s):\n%s\n\n", i+1, src.Chunk.DocumentName, src.Chunk.Text)
	}
	prompt := fmt.Sprintf("Resume excerpts:\n\n%sQuestion: %s", b.String(), question)

	answer, err := s.llm.Complete(ctx, answerSystemPrompt, prompt)
	if err != nil {
		return nil, fmt.Errorf("generating answer: %w", err)
	}

	return &QueryResult{Answer: strings.TrimSpace(answer), Sources: sources}, nil
}

// ListDocuments returns the indexed documents.
func (s *QueryService) ListDocuments(ctx context.Context) ([]domain.DocumentSummary, error) {
	handle, err := s.stores.Acquire(ctx, s.location, s.collection, false)
	if err != nil {
		return nil, err
	}
	return handle.ListDocuments(ctx)
}

// StoreStats is a summary view of the index.
type StoreStats struct {
	TotalDocuments int
	TotalChunks    int
	Formats        map[string]int
	Location       string
}

// Stats aggregates document and chunk counts per format.
func (s *QueryService) Stats(ctx context.Context) (*StoreStats, error) {
	summaries, err := s.ListDocuments(ctx)
	if err != nil {
		return nil, err
	}

	stats := &StoreStats{
		TotalDocuments: len(summaries),
		Formats:        make(map[string]int),
		Location:       s.location,
	}
	for _, d := range summaries {
		stats.TotalChunks += d.ChunkCount
		stats.Formats[d.Format]++
	}
	return stats, nil
}

// GetDocument returns the summary of one indexed document, or
// domain.ErrDocumentNotFound when no document carries the ID.
func (s *QueryService) GetDocument(ctx context.Context, documentID string) (*domain.DocumentSummary, error) {
	if strings.TrimSpace(documentID) == "" {
		return nil, domain.NewDomainError(domain.ErrCodeValidation, "document id must not be empty")
	}

	summaries, err := s.ListDocuments(ctx)
	if err != nil {
		return nil, err
	}
	for i := range summaries {
		if summaries[i].DocumentID == documentID {
			return &summaries[i], nil
		}
	}
	return nil, domain.ErrDocumentNotFound
}

// DeleteDocument removes every chunk of one document from the store.
func (s *QueryService) DeleteDocument(ctx context.Context, documentID string) error {
	if strings.TrimSpace(documentID) == "" {
		return domain.NewDomainError(domain.ErrCodeValidation, "document id must not be empty")
	}

	handle, err := s.stores.Acquire(ctx, s.location, s.collection, false)
	if err != nil {
		return err
	}
	return handle.DeleteDocument(ctx, documentID)
}
