package domain

// ScoredChunk is a chunk returned from similarity search together with its
// cosine distance to the query (lower is closer).
type ScoredChunk struct {
	Chunk    Chunk
	Distance float64
}
