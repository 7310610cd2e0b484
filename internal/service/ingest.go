package service

import (
	"context"
	"fmt"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/sagecor-solutions/resumeintel/internal/domain"
	"github.com/sagecor-solutions/resumeintel/internal/identity"
	"github.com/sagecor-solutions/resumeintel/internal/store"
	"github.com/sagecor-solutions/resumeintel/internal/telemetry"
)

const chunkPreviewChars = 100

// HandleProvider hands out ready store handles. Implemented by store.Manager.
type HandleProvider interface {
	Acquire(ctx context.Context, location, collection string, forceNew bool) (store.Store, error)
}

// TextExtractor turns a file into plain text. Implemented by extract.Registry.
type TextExtractor interface {
	ExtractText(path string) (string, error)
	Supports(path string) bool
	SupportedExtensions() []string
}

// ProfileExtractor produces a candidate profile from resume text.
type ProfileExtractor interface {
	Extract(ctx context.Context, text string) domain.CandidateProfile
}

// TextChunker splits resume text into retrieval units.
type TextChunker interface {
	Chunk(ctx context.Context, text string) []Piece
}

// ResumeArchiver persists the original resume bytes alongside the index.
type ResumeArchiver interface {
	Archive(ctx context.Context, documentID, name string, data []byte) error
}

// UUIDGenerator defines interface for UUID generation (for testing)
type UUIDGenerator interface {
	NewString() string
}

// DefaultUUIDGenerator is the default UUID generator using google/uuid
type DefaultUUIDGenerator struct{}

// NewString generates a new UUID string
func (g *DefaultUUIDGenerator) NewString() string {
	return uuid.NewString()
}

// IngestService runs the ingestion pipeline: identity resolution, text
// extraction, enrichment, chunking, embedding and the store write.
type IngestService struct {
	extractor TextExtractor
	enricher  ProfileExtractor
	chunker   TextChunker
	embedder  Embedder
	stores    HandleProvider
	archiver  ResumeArchiver

	location   string
	collection string
	llmParsing bool

	uuidGen UUIDGenerator
	now     func() time.Time
}

// IngestOptions carries the optional collaborators and switches.
type IngestOptions struct {
	// Archiver is optional; when nil the original bytes are not retained.
	Archiver ResumeArchiver

	// LLMParsing tags ingested chunks with the parsing method that
	// produced their metadata.
	LLMParsing bool
}

// NewIngestService creates the pipeline bound to one store location and
// collection.
func NewIngestService(
	extractor TextExtractor,
	enricher ProfileExtractor,
	chunker TextChunker,
	embedder Embedder,
	stores HandleProvider,
	location, collection string,
	opts IngestOptions,
) *IngestService {
	return &IngestService{
		extractor:  extractor,
		enricher:   enricher,
		chunker:    chunker,
		embedder:   embedder,
		stores:     stores,
		archiver:   opts.Archiver,
		location:   location,
		collection: collection,
		llmParsing: opts.LLMParsing,
		uuidGen:    &DefaultUUIDGenerator{},
		now:        time.Now,
	}
}

// IngestInput describes one document to ingest. DeclaredName carries the
// user-facing filename when the bytes were read from a transient path, such
// as an upload spooled to a temp file.
type IngestInput struct {
	Path         string
	DeclaredName string
	Force        bool
}

// IngestResult reports the outcome of one document ingest.
type IngestResult struct {
	DocumentID    string
	CanonicalName string
	ChunksWritten int
	Skipped       bool
	Degraded      bool
}

// IngestDocument adds one resume to the store. Re-ingesting a known document
// without Force is an idempotent no-op, not an error.
func (s *IngestService) IngestDocument(ctx context.Context, input IngestInput) (*IngestResult, error) {
	if _, err := os.Stat(input.Path); err != nil {
		return nil, domain.NewDomainErrorWithCause(domain.ErrCodeNotFound, "resume file not found", err)
	}
	if !s.extractor.Supports(firstNonEmpty(input.DeclaredName, input.Path)) {
		return nil, fmt.Errorf("%s: %w", input.Path, domain.ErrUnsupportedFormat)
	}

	res := identity.Resolve(input.Path, input.DeclaredName)
	ctx, span := telemetry.StartSpan(ctx, "ingest.document", telemetry.SpanAttributes{
		DocumentID: res.DocumentID,
		Collection: s.collection,
		Operation:  "ingest",
	})
	defer span.End()

	if res.Degraded {
		log.Printf("ingest: no clean source name for %s, using synthesized name %s", input.Path, res.CanonicalName)
	}

	handle, err := s.stores.Acquire(ctx, s.location, s.collection, false)
	if err != nil {
		return nil, err
	}

	known, err := handle.KnownDocumentIDs(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading known documents: %w", err)
	}
	if _, exists := known[res.DocumentID]; exists && !input.Force {
		log.Printf("ingest: %s already indexed, skipping", res.DocumentID)
		return &IngestResult{
			DocumentID:    res.DocumentID,
			CanonicalName: res.CanonicalName,
			Skipped:       true,
			Degraded:      res.Degraded,
		}, nil
	}

	text, err := s.extractor.ExtractText(input.Path)
	if err != nil {
		return nil, err
	}
	if len(text) == 0 {
		return nil, fmt.Errorf("%s: %w", input.Path, domain.ErrEmptyDocument)
	}

	profile := s.enricher.Extract(ctx, text)
	if profile.Enriched() {
		log.Printf("ingest: extracted %s, %d skills, %d years experience",
			profile.Name, len(profile.Skills), profile.ExperienceYears)
	}

	pieces := s.chunker.Chunk(ctx, text)
	chunks, err := s.buildChunks(ctx, res, pieces, profile)
	if err != nil {
		return nil, err
	}
	if err := handle.AddChunks(ctx, chunks); err != nil {
		return nil, fmt.Errorf("writing chunks: %w", err)
	}

	if s.archiver != nil {
		if data, err := os.ReadFile(input.Path); err == nil {
			if err := s.archiver.Archive(ctx, res.DocumentID, res.CanonicalName, data); err != nil {
				log.Printf("ingest: archiving original for %s failed: %v", res.DocumentID, err)
			}
		}
	}

	log.Printf("ingest: wrote %d chunks for %s", len(chunks), res.DocumentID)
	return &IngestResult{
		DocumentID:    res.DocumentID,
		CanonicalName: res.CanonicalName,
		ChunksWritten: len(chunks),
		Degraded:      res.Degraded,
	}, nil
}

func (s *IngestService) buildChunks(ctx context.Context, res identity.Resolution, pieces []Piece, profile domain.CandidateProfile) ([]domain.Chunk, error) {
	parsing := domain.ParsingBasic
	if s.llmParsing {
		parsing = domain.ParsingLLMAssisted
	}

	now := s.now().UTC()
	chunks := make([]domain.Chunk, 0, len(pieces))
	for i, p := range pieces {
		embedding, err := s.embedder.GenerateEmbedding(ctx, p.Text)
		if err != nil {
			return nil, fmt.Errorf("embedding chunk %d: %w", i, err)
		}
		chunks = append(chunks, domain.Chunk{
			ID:           s.uuidGen.NewString(),
			DocumentID:   res.DocumentID,
			DocumentName: res.CanonicalName,
			Ordinal:      i,
			TotalChunks:  len(pieces),
			Text:         p.Text,
			Preview:      truncateOnRune(p.Text, chunkPreviewChars),
			Kind:         p.Kind,
			SectionLabel: p.SectionLabel,
			ByteStart:    p.Start,
			ByteEnd:      p.End,
			Profile:      profile,
			Parsing:      parsing,
			Embedding:    embedding,
			CreatedAt:    now,
			UpdatedAt:    now,
		})
	}
	return chunks, nil
}

// FileError pairs a path in a directory batch with the error it produced.
type FileError struct {
	Path string
	Err  error
}

// DirectoryResult accumulates the outcome of a directory ingest.
type DirectoryResult struct {
	FilesProcessed int
	FilesSkipped   int
	ChunksWritten  int
	Errors         []FileError
}

// IngestDirectory walks dir and ingests every supported file. A failing file
// is recorded and the batch continues.
func (s *IngestService) IngestDirectory(ctx context.Context, dir string, force bool) (*DirectoryResult, error) {
	if info, err := os.Stat(dir); err != nil || !info.IsDir() {
		return nil, domain.NewDomainError(domain.ErrCodeNotFound, fmt.Sprintf("directory not found: %s", dir))
	}

	result := &DirectoryResult{}
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			result.Errors = append(result.Errors, FileError{Path: path, Err: err})
			return nil
		}
		if d.IsDir() || !s.extractor.Supports(path) {
			return nil
		}

		res, ingErr := s.IngestDocument(ctx, IngestInput{Path: path, Force: force})
		if ingErr != nil {
			log.Printf("ingest: %s failed: %v", path, ingErr)
			result.Errors = append(result.Errors, FileError{Path: path, Err: ingErr})
			return nil
		}
		if res.Skipped {
			result.FilesSkipped++
			return nil
		}
		result.FilesProcessed++
		result.ChunksWritten += res.ChunksWritten
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walking %s: %w", dir, err)
	}
	return result, nil
}

func firstNonEmpty(a, b string) string {
	if a != "" {
		return a
	}
	return b
}
