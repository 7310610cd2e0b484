package domain

// Score bounds for the canonical 0-10 relevance scale.
const (
	MinScore = 0.0
	MaxScore = 10.0
)

// ScoreSource tells a model-derived score apart from the heuristic
// placeholder assigned when the model's output could not be parsed.
type ScoreSource string

const (
	ScoreSourceModel    ScoreSource = "model"
	ScoreSourceFallback ScoreSource = "fallback"
)

// RankedResult is one entry in a ranking response. Derived per query, never
// persisted.
type RankedResult struct {
	DocumentID         string
	CandidateName      string
	DocumentName       string
	Score              float64
	ScoreSource        ScoreSource
	Rationale          string
	Extracts           []string
	MatchingChunkCount int
	Profile            CandidateProfile
}

// ClampScore forces a score into the canonical range.
func ClampScore(s float64) float64 {
	if s < MinScore {
		return MinScore
	}
	if s > MaxScore {
		return MaxScore
	}
	return s
}
