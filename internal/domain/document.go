package domain

import "time"

// SourceDocument is the stable identity of an ingested resume. Its ID is a
// pure function of the canonical name, never of the transient path the bytes
// were read from.
type SourceDocument struct {
	ID            string
	CanonicalName string
	Format        string
	IngestedAt    time.Time
	LastUpdatedAt time.Time
}

// ChunkKind distinguishes semantic sections from mechanical window splits.
type ChunkKind string

const (
	ChunkKindSemanticSection ChunkKind = "semantic-section"
	ChunkKindFixedWindow     ChunkKind = "fixed-window"
)

// ParsingMethod records how a document's metadata was produced.
type ParsingMethod string

const (
	ParsingLLMAssisted ParsingMethod = "llm_assisted"
	ParsingBasic       ParsingMethod = "basic"
)

// Chunk is a retrieval-sized slice of a document's text. Chunks are owned by
// their SourceDocument and replaced only as part of a full re-ingest.
type Chunk struct {
	ID           string
	DocumentID   string
	DocumentName string
	Ordinal      int
	TotalChunks  int
	Text         string
	Preview      string
	Kind         ChunkKind
	SectionLabel string
	ByteStart    int
	ByteEnd      int
	Profile      CandidateProfile
	Parsing      ParsingMethod
	Embedding    []float32
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// DocumentSummary is the listing view of an ingested document.
type DocumentSummary struct {
	DocumentID  string
	Name        string
	Format      string
	ChunkCount  int
	LastUpdated time.Time
}
