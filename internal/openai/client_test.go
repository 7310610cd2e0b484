package openai

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeAPI struct {
	embedding  []float32
	embedErr   error
	completion string
	completeErr error

	lastSystem string
	lastPrompt string
}

func (f *fakeAPI) CreateEmbeddings(ctx context.Context, text string) ([]float32, error) {
	return f.embedding, f.embedErr
}

func (f *fakeAPI) Complete(ctx context.Context, system, prompt string) (string, error) {
	f.lastSystem = system
	f.lastPrompt = prompt
	return f.completion, f.completeErr
}

func TestGenerateEmbedding(t *testing.T) {
	vec := make([]float32, 8)
	client := NewClientWithAPI(&fakeAPI{embedding: vec}, 8)

	got, err := client.GenerateEmbedding(context.Background(), "some resume text")
	require.NoError(t, err)
	assert.Len(t, got, 8)
}

func TestGenerateEmbeddingRejectsEmptyText(t *testing.T) {
	client := NewClientWithAPI(&fakeAPI{}, 8)

	_, err := client.GenerateEmbedding(context.Background(), "")
	assert.ErrorIs(t, err, ErrEmptyText)
}

func TestGenerateEmbeddingChecksDimensions(t *testing.T) {
	client := NewClientWithAPI(&fakeAPI{embedding: make([]float32, 4)}, 8)

	_, err := client.GenerateEmbedding(context.Background(), "text")
	assert.ErrorIs(t, err, ErrWrongDimensions)
}

func TestGenerateEmbeddingWrapsAPIError(t *testing.T) {
	apiErr := errors.New("rate limited")
	client := NewClientWithAPI(&fakeAPI{embedErr: apiErr}, 8)

	_, err := client.GenerateEmbedding(context.Background(), "text")
	assert.ErrorIs(t, err, apiErr)
}

func TestComplete(t *testing.T) {
	api := &fakeAPI{completion: "hello"}
	client := NewClientWithAPI(api, 8)

	out, err := client.Complete(context.Background(), "be terse", "say hello")
	require.NoError(t, err)
	assert.Equal(t, "hello", out)
	assert.Equal(t, "be terse", api.lastSystem)
	assert.Equal(t, "say hello", api.lastPrompt)
}

func TestCompleteRejectsEmptyPrompt(t *testing.T) {
	client := NewClientWithAPI(&fakeAPI{}, 8)

	_, err := client.Complete(context.Background(), "", "")
	assert.ErrorIs(t, err, ErrEmptyText)
}
