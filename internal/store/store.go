// Package store owns access to the persistent vector index: the Store
// interface implemented by the embedded and server backends, and the Manager
// that caches ready handles per (location, collection) key.
package store

import (
	"context"

	"github.com/sagecor-solutions/resumeintel/internal/domain"
)

// Store is a ready-to-use handle onto one collection of the vector index.
// Handles are cached by the Manager and shared by ingestion and query.
type Store interface {
	// AddChunks replaces the document's chunks with the given set in a
	// single transaction. All chunks must share one document ID.
	AddChunks(ctx context.Context, chunks []domain.Chunk) error

	// DeleteDocument removes a document and all of its chunks.
	DeleteDocument(ctx context.Context, documentID string) error

	// Search returns the chunks closest to the query embedding, ascending
	// by distance. documentID narrows the search to one document when set.
	Search(ctx context.Context, embedding []float32, limit int, documentID string) ([]domain.ScoredChunk, error)

	// ListDocuments returns one summary per distinct document.
	ListDocuments(ctx context.Context) ([]domain.DocumentSummary, error)

	// KnownDocumentIDs returns the set of document IDs present in the
	// collection, used by ingestion for duplicate detection.
	KnownDocumentIDs(ctx context.Context) (map[string]struct{}, error)

	// Close releases the handle's resources.
	Close() error
}

// Opener constructs store handles. Open builds the full managed handle;
// OpenPrimitive builds the minimal low-level handle used as a last-resort
// fallback when full initialization keeps failing.
type Opener interface {
	Open(ctx context.Context, location, collection string) (Store, error)
	OpenPrimitive(ctx context.Context, location, collection string) (Store, error)

	// Exists reports whether a store has previously been created at the
	// location. Used to log create-vs-load, never as a failure signal.
	Exists(location string) bool
}
