package service

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sagecor-solutions/resumeintel/internal/domain"
)

func rankingChunk(id, docID, docName, candidate, text string) domain.Chunk {
	profile := domain.DefaultProfile()
	profile.Name = candidate
	now := time.Now().UTC()
	return domain.Chunk{
		ID:           id,
		DocumentID:   docID,
		DocumentName: docName,
		TotalChunks:  1,
		Text:         text,
		Preview:      truncateOnRune(text, chunkPreviewChars),
		Kind:         domain.ChunkKindFixedWindow,
		Profile:      profile,
		Parsing:      domain.ParsingBasic,
		Embedding:    []float32{0.1, 0.2, 0.3},
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

func newRankingFixture(llm Completer) (*RankingService, *memStore) {
	handle := newMemStore()
	handle.chunks = []domain.Chunk{
		rankingChunk("c1", "jane.pdf_0a1b2c3d", "jane.pdf", "Jane Doe", "Security engineer with CISSP and ten years in incident response."),
		rankingChunk("c2", "jane.pdf_0a1b2c3d", "jane.pdf", "Jane Doe", "Led a SOC team of eight analysts."),
		rankingChunk("c3", "bob.pdf_11223344", "bob.pdf", "Bob Ray", "Network administrator with firewall management experience."),
		rankingChunk("c4", "eve.pdf_55667788", "eve.pdf", "Eve Lin", "Penetration tester, OSCP certified."),
	}
	handle.distances = map[string]float64{"c1": 0.10, "c2": 0.30, "c3": 0.20, "c4": 0.15}
	svc := NewRankingService(&fakeEmbedder{}, llm, &fakeProvider{handle: handle}, "/data", "resumes")
	return svc, handle
}

func modelResponse(scores map[string]float64) string {
	var b strings.Builder
	for doc, score := range scores {
		fmt.Fprintf(&b, "=== CANDIDATE START ===\nDOCUMENT: %s\nSCORE: %g\nRATIONALE: Scored by model.\nEXTRACT: relevant excerpt\n=== CANDIDATE END ===\n", doc, score)
	}
	return b.String()
}

func TestRankingService_Rank_SortedAndBounded(t *testing.T) {
	llm := &fakeCompleter{response: modelResponse(map[string]float64{
		"jane.pdf_0a1b2c3d": 9,
		"bob.pdf_11223344":  3,
		"eve.pdf_55667788":  7,
	})}
	svc, _ := newRankingFixture(llm)

	res, err := svc.Rank(context.Background(), "top security candidates", 2)
	require.NoError(t, err)

	require.Len(t, res.Results, 2)
	assert.Equal(t, 3, res.TotalCandidates)
	assert.Equal(t, "jane.pdf_0a1b2c3d", res.Results[0].DocumentID)
	assert.Equal(t, 9.0, res.Results[0].Score)
	assert.Equal(t, "eve.pdf_55667788", res.Results[1].DocumentID)
	assert.GreaterOrEqual(t, res.TotalCandidates, len(res.Results))

	for _, r := range res.Results {
		assert.Equal(t, domain.ScoreSourceModel, r.ScoreSource)
		assert.GreaterOrEqual(t, r.Score, domain.MinScore)
		assert.LessOrEqual(t, r.Score, domain.MaxScore)
	}
}

func TestRankingService_Rank_GroupsChunksPerDocument(t *testing.T) {
	llm := &fakeCompleter{response: modelResponse(map[string]float64{
		"jane.pdf_0a1b2c3d": 9,
		"bob.pdf_11223344":  3,
		"eve.pdf_55667788":  7,
	})}
	svc, handle := newRankingFixture(llm)

	res, err := svc.Rank(context.Background(), "top security candidates", 5)
	require.NoError(t, err)

	// Oversampled retrieval: 3x the requested size.
	assert.Equal(t, 15, handle.lastSearchLimit)

	byDoc := map[string]domain.RankedResult{}
	for _, r := range res.Results {
		byDoc[r.DocumentID] = r
	}
	assert.Equal(t, 2, byDoc["jane.pdf_0a1b2c3d"].MatchingChunkCount)
	assert.Equal(t, 1, byDoc["bob.pdf_11223344"].MatchingChunkCount)
	assert.Equal(t, "Jane Doe", byDoc["jane.pdf_0a1b2c3d"].CandidateName)
}

func TestRankingService_Rank_ClampsScores(t *testing.T) {
	llm := &fakeCompleter{response: modelResponse(map[string]float64{
		"jane.pdf_0a1b2c3d": 42,
		"bob.pdf_11223344":  -3,
		"eve.pdf_55667788":  5,
	})}
	svc, _ := newRankingFixture(llm)

	res, err := svc.Rank(context.Background(), "top security candidates", 5)
	require.NoError(t, err)

	for _, r := range res.Results {
		assert.GreaterOrEqual(t, r.Score, domain.MinScore)
		assert.LessOrEqual(t, r.Score, domain.MaxScore)
	}
}

func TestRankingService_Rank_FallbackOnMalformedResponse(t *testing.T) {
	llm := &fakeCompleter{response: "Jane looks best to me, then Eve, then Bob."}
	svc, _ := newRankingFixture(llm)

	res, err := svc.Rank(context.Background(), "top security candidates", 5)
	require.NoError(t, err)
	require.Len(t, res.Results, 3)

	// Placeholder scores follow retrieval order: strictly decreasing and
	// flagged so they cannot pass for model judgment.
	for i, r := range res.Results {
		assert.Equal(t, domain.ScoreSourceFallback, r.ScoreSource)
		assert.NotEmpty(t, r.Rationale)
		if i > 0 {
			assert.Less(t, r.Score, res.Results[i-1].Score)
		}
	}
	// Closest document by distance ranks first.
	assert.Equal(t, "jane.pdf_0a1b2c3d", res.Results[0].DocumentID)
}

func TestRankingService_Rank_FallbackLadderStaysDecreasingForManyCandidates(t *testing.T) {
	// With the default 0.1 step a deep ladder would bottom out at the
	// score floor and tie from position 50 on.
	handle := newMemStore()
	handle.distances = make(map[string]float64, 60)
	for i := 0; i < 60; i++ {
		id := fmt.Sprintf("c%d", i)
		docID := fmt.Sprintf("cand%02d.pdf_%08d", i, i)
		handle.chunks = append(handle.chunks, rankingChunk(
			id, docID, fmt.Sprintf("cand%02d.pdf", i), fmt.Sprintf("Candidate %02d", i),
			fmt.Sprintf("Security analyst number %02d with SIEM experience.", i)))
		handle.distances[id] = 0.01 * float64(i+1)
	}
	llm := &fakeCompleter{response: "I cannot rank these candidates."}
	svc := NewRankingService(&fakeEmbedder{}, llm, &fakeProvider{handle: handle}, "/data", "resumes")

	res, err := svc.Rank(context.Background(), "top security candidates", 60)
	require.NoError(t, err)
	require.Len(t, res.Results, 60)

	for i, r := range res.Results {
		assert.Equal(t, domain.ScoreSourceFallback, r.ScoreSource)
		assert.Greater(t, r.Score, domain.MinScore)
		assert.LessOrEqual(t, r.Score, domain.MaxScore)
		if i > 0 {
			assert.Lessf(t, r.Score, res.Results[i-1].Score,
				"scores tie at position %d", i)
		}
	}
}

func TestRankingService_Rank_FallbackOnModelError(t *testing.T) {
	llm := &fakeCompleter{err: fmt.Errorf("model unavailable")}
	svc, _ := newRankingFixture(llm)

	res, err := svc.Rank(context.Background(), "top security candidates", 5)
	require.NoError(t, err)
	require.NotEmpty(t, res.Results)
	assert.Equal(t, domain.ScoreSourceFallback, res.Results[0].ScoreSource)
}

func TestRankingService_Rank_MissingCandidateGetsPlaceholder(t *testing.T) {
	// Model scores only one of three candidates.
	llm := &fakeCompleter{response: modelResponse(map[string]float64{"jane.pdf_0a1b2c3d": 9})}
	svc, _ := newRankingFixture(llm)

	res, err := svc.Rank(context.Background(), "top security candidates", 5)
	require.NoError(t, err)
	require.Len(t, res.Results, 3)

	sources := map[domain.ScoreSource]int{}
	for _, r := range res.Results {
		sources[r.ScoreSource]++
	}
	assert.Equal(t, 1, sources[domain.ScoreSourceModel])
	assert.Equal(t, 2, sources[domain.ScoreSourceFallback])
}

func TestRankingService_Rank_DeduplicatesSameCandidate(t *testing.T) {
	handle := newMemStore()
	// The same resume indexed twice under different paths: same candidate,
	// same leading content, different document IDs.
	text := "Security engineer with CISSP and ten years in incident response."
	handle.chunks = []domain.Chunk{
		rankingChunk("c1", "jane.pdf_0a1b2c3d", "jane.pdf", "Jane Doe", text),
		rankingChunk("c2", "jane_copy.pdf_99887766", "jane_copy.pdf", "Jane Doe", text),
	}
	llm := &fakeCompleter{response: modelResponse(map[string]float64{
		"jane.pdf_0a1b2c3d":      9,
		"jane_copy.pdf_99887766": 8,
	})}
	svc := NewRankingService(&fakeEmbedder{}, llm, &fakeProvider{handle: handle}, "/data", "resumes")

	res, err := svc.Rank(context.Background(), "security candidates", 5)
	require.NoError(t, err)

	require.Len(t, res.Results, 1)
	assert.Equal(t, 2, res.TotalCandidates)
}

func TestRankingService_Rank_EmptyQuery(t *testing.T) {
	svc, _ := newRankingFixture(&fakeCompleter{})
	_, err := svc.Rank(context.Background(), "  ", 5)
	assert.ErrorIs(t, err, domain.ErrEmptyQuery)
}

func TestRankingService_Rank_EmptyStore(t *testing.T) {
	svc := NewRankingService(&fakeEmbedder{}, &fakeCompleter{}, &fakeProvider{handle: newMemStore()}, "/data", "resumes")

	res, err := svc.Rank(context.Background(), "anyone at all", 5)
	require.NoError(t, err)
	assert.Empty(t, res.Results)
	assert.Equal(t, 0, res.TotalCandidates)
}
