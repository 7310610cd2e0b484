package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const wellFormedResponse = `=== CANDIDATE START ===
DOCUMENT: jane.pdf_0a1b2c3d
SCORE: 8.5
RATIONALE: Deep Go and Kubernetes experience matching the requirement.
EXTRACT: ten years building distributed systems in Go
EXTRACT: operated Postgres clusters at scale
=== CANDIDATE END ===
=== CANDIDATE START ===
DOCUMENT: bob.pdf_11223344
SCORE: 4
RATIONALE: Some infrastructure exposure but no Go.
EXTRACT: maintained Jenkins pipelines
=== CANDIDATE END ===`

func TestParseRankingResponse_WellFormed(t *testing.T) {
	out := parseRankingResponse(wellFormedResponse)

	require.False(t, out.Malformed)
	require.Len(t, out.Rankings, 2)

	first := out.Rankings[0]
	assert.Equal(t, "jane.pdf_0a1b2c3d", first.DocumentID)
	assert.Equal(t, 8.5, first.Score)
	assert.Equal(t, "Deep Go and Kubernetes experience matching the requirement.", first.Rationale)
	assert.Equal(t, []string{
		"ten years building distributed systems in Go",
		"operated Postgres clusters at scale",
	}, first.Extracts)

	assert.Equal(t, 4.0, out.Rankings[1].Score)
}

func TestParseRankingResponse_SurroundingProse(t *testing.T) {
	out := parseRankingResponse("Here are my rankings:\n\n" + wellFormedResponse + "\n\nLet me know!")

	require.False(t, out.Malformed)
	assert.Len(t, out.Rankings, 2)
}

func TestParseRankingResponse_LowercaseKeys(t *testing.T) {
	out := parseRankingResponse(`=== CANDIDATE START ===
document: jane.pdf_0a1b2c3d
score: 7
rationale: Solid match.
=== CANDIDATE END ===`)

	require.False(t, out.Malformed)
	require.Len(t, out.Rankings, 1)
	assert.Equal(t, 7.0, out.Rankings[0].Score)
}

func TestParseRankingResponse_MissingTerminator(t *testing.T) {
	out := parseRankingResponse(`=== CANDIDATE START ===
DOCUMENT: jane.pdf_0a1b2c3d
SCORE: 6
RATIONALE: Truncated response.`)

	require.False(t, out.Malformed)
	require.Len(t, out.Rankings, 1)
	assert.Equal(t, 6.0, out.Rankings[0].Score)
}

func TestParseRankingResponse_BlockWithoutScoreDropped(t *testing.T) {
	out := parseRankingResponse(`=== CANDIDATE START ===
DOCUMENT: jane.pdf_0a1b2c3d
RATIONALE: Forgot the score.
=== CANDIDATE END ===
=== CANDIDATE START ===
DOCUMENT: bob.pdf_11223344
SCORE: 5
=== CANDIDATE END ===`)

	require.False(t, out.Malformed)
	require.Len(t, out.Rankings, 1)
	assert.Equal(t, "bob.pdf_11223344", out.Rankings[0].DocumentID)
}

func TestParseRankingResponse_NoBlocks(t *testing.T) {
	out := parseRankingResponse("The best candidate is Jane, followed by Bob.")

	assert.True(t, out.Malformed)
	assert.Empty(t, out.Rankings)
	assert.NotEmpty(t, out.Reason)
}

func TestParseRankingResponse_AllBlocksInvalid(t *testing.T) {
	out := parseRankingResponse(`=== CANDIDATE START ===
RATIONALE: No document or score here.
=== CANDIDATE END ===`)

	assert.True(t, out.Malformed)
	assert.Contains(t, out.Reason, "blocks present")
}

func TestParseRankingResponse_NonNumericScoreDropped(t *testing.T) {
	out := parseRankingResponse(`=== CANDIDATE START ===
DOCUMENT: jane.pdf_0a1b2c3d
SCORE: excellent
=== CANDIDATE END ===`)

	assert.True(t, out.Malformed)
}
