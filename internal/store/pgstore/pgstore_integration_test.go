//go:build integration

package pgstore

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sagecor-solutions/resumeintel/internal/domain"
	"github.com/sagecor-solutions/resumeintel/internal/testutil"
)

func testChunk(documentID, name string, ordinal int, embedding []float32) domain.Chunk {
	now := time.Now().UTC().Truncate(time.Microsecond)
	return domain.Chunk{
		ID:           uuid.NewString(),
		DocumentID:   documentID,
		DocumentName: name,
		Ordinal:      ordinal,
		TotalChunks:  1,
		Text:         "ten years of Go experience",
		Preview:      "ten years of Go experience",
		Kind:         domain.ChunkKindFixedWindow,
		ByteStart:    0,
		ByteEnd:      26,
		Profile:      domain.DefaultProfile(),
		Parsing:      domain.ParsingBasic,
		Embedding:    embedding,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

func paddedEmbedding(lead float32) []float32 {
	v := make([]float32, 1536)
	v[0] = lead
	v[1] = 1 - lead
	return v
}

func TestPGStore_AddAndSearch(t *testing.T) {
	ctx := context.Background()
	pc := testutil.NewPostgresContainer(ctx, t)
	defer pc.Terminate(ctx)

	db, err := Open(ctx, pc.ConnectionString(), "resumes")
	require.NoError(t, err)
	defer db.Close()

	near := testChunk("Jane_Doe_abc12345", "Jane_Doe.txt", 0, paddedEmbedding(1))
	far := testChunk("John_Smith_def67890", "John_Smith.txt", 0, paddedEmbedding(0))
	require.NoError(t, db.AddChunks(ctx, []domain.Chunk{near, far}))

	results, err := db.Search(ctx, paddedEmbedding(1), 2, "")
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "Jane_Doe_abc12345", results[0].Chunk.DocumentID)
	assert.Less(t, results[0].Distance, results[1].Distance)
}

func TestPGStore_SearchDocumentFilter(t *testing.T) {
	ctx := context.Background()
	pc := testutil.NewPostgresContainer(ctx, t)
	defer pc.Terminate(ctx)

	db, err := Open(ctx, pc.ConnectionString(), "resumes")
	require.NoError(t, err)
	defer db.Close()

	require.NoError(t, db.AddChunks(ctx, []domain.Chunk{
		testChunk("Jane_Doe_abc12345", "Jane_Doe.txt", 0, paddedEmbedding(1)),
		testChunk("John_Smith_def67890", "John_Smith.txt", 0, paddedEmbedding(0)),
	}))

	results, err := db.Search(ctx, paddedEmbedding(1), 10, "John_Smith_def67890")
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "John_Smith_def67890", results[0].Chunk.DocumentID)
}

func TestPGStore_ReplaceOnReingest(t *testing.T) {
	ctx := context.Background()
	pc := testutil.NewPostgresContainer(ctx, t)
	defer pc.Terminate(ctx)

	db, err := Open(ctx, pc.ConnectionString(), "resumes")
	require.NoError(t, err)
	defer db.Close()

	first := testChunk("Jane_Doe_abc12345", "Jane_Doe.txt", 0, paddedEmbedding(1))
	require.NoError(t, db.AddChunks(ctx, []domain.Chunk{first}))

	second := testChunk("Jane_Doe_abc12345", "Jane_Doe.txt", 0, paddedEmbedding(0.5))
	third := testChunk("Jane_Doe_abc12345", "Jane_Doe.txt", 1, paddedEmbedding(0.5))
	require.NoError(t, db.AddChunks(ctx, []domain.Chunk{second, third}))

	summaries, err := db.ListDocuments(ctx)
	require.NoError(t, err)
	require.Len(t, summaries, 1)
	assert.Equal(t, 2, summaries[0].ChunkCount)
}

func TestPGStore_DeleteDocument(t *testing.T) {
	ctx := context.Background()
	pc := testutil.NewPostgresContainer(ctx, t)
	defer pc.Terminate(ctx)

	db, err := Open(ctx, pc.ConnectionString(), "resumes")
	require.NoError(t, err)
	defer db.Close()

	require.NoError(t, db.AddChunks(ctx, []domain.Chunk{
		testChunk("Jane_Doe_abc12345", "Jane_Doe.txt", 0, paddedEmbedding(1)),
	}))

	require.NoError(t, db.DeleteDocument(ctx, "Jane_Doe_abc12345"))

	err = db.DeleteDocument(ctx, "Jane_Doe_abc12345")
	assert.ErrorIs(t, err, domain.ErrDocumentNotFound)
}

func TestPGStore_KnownDocumentIDs(t *testing.T) {
	ctx := context.Background()
	pc := testutil.NewPostgresContainer(ctx, t)
	defer pc.Terminate(ctx)

	db, err := Open(ctx, pc.ConnectionString(), "resumes")
	require.NoError(t, err)
	defer db.Close()

	require.NoError(t, db.AddChunks(ctx, []domain.Chunk{
		testChunk("Jane_Doe_abc12345", "Jane_Doe.txt", 0, paddedEmbedding(1)),
	}))

	ids, err := db.KnownDocumentIDs(ctx)
	require.NoError(t, err)
	_, ok := ids["Jane_Doe_abc12345"]
	assert.True(t, ok)
}
