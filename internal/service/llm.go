package service

import "context"

// Embedder produces a vector embedding for a piece of text.
type Embedder interface {
	GenerateEmbedding(ctx context.Context, text string) ([]float32, error)
}

// Completer runs a single-turn chat completion.
type Completer interface {
	Complete(ctx context.Context, system, prompt string) (string, error)
}
