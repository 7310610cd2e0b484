package service

import (
	"context"
	"fmt"
	"log"
	"sort"
	"strings"

	"github.com/sagecor-solutions/resumeintel/internal/domain"
	"github.com/sagecor-solutions/resumeintel/internal/telemetry"
)

const (
	oversampleFactor = 3
	groupChunkLimit  = 3
	groupContentCap  = 1500
	dedupePrefixLen  = 80

	fallbackBaseScore = 5.0
	fallbackScoreStep = 0.1
)

const rankingSystemPrompt = "You are a recruiting assistant that scores candidate resumes against a requirement. Follow the output format exactly."

const rankingPromptHeader = `Score each candidate below for this requirement: %s

For every candidate output exactly one block in this format, nothing else:

=== CANDIDATE START ===
DOCUMENT: <the document id given for the candidate>
SCORE: <number 0-10>
RATIONALE: <2-3 sentences on the candidate's relevant qualifications>
EXTRACT: <one short supporting excerpt from the resume content>
=== CANDIDATE END ===

Score guidelines:
- 9-10: Exceptional qualifications and experience
- 7-8: Strong qualifications and experience
- 5-6: Good qualifications with some gaps
- 3-4: Moderate qualifications, significant gaps
- 0-2: Limited relevant qualifications

Describe only what each candidate offers, not what is being looked for.

`

// RankingService retrieves candidate chunks for a requirement, groups them by
// document and asks the model for a comparative scoring.
type RankingService struct {
	embedder Embedder
	llm      Completer
	stores   HandleProvider

	location   string
	collection string
}

// NewRankingService creates a ranking service bound to one store location and
// collection.
func NewRankingService(embedder Embedder, llm Completer, stores HandleProvider, location, collection string) *RankingService {
	return &RankingService{
		embedder:   embedder,
		llm:        llm,
		stores:     stores,
		location:   location,
		collection: collection,
	}
}

// RankingResult is the ranked response for one query. TotalCandidates counts
// distinct matching documents before truncation to the requested size.
type RankingResult struct {
	Results         []domain.RankedResult
	TotalCandidates int
}

// candidateGroup aggregates the retrieved chunks of one document.
type candidateGroup struct {
	documentID   string
	documentName string
	profile      domain.CandidateProfile
	bestDistance float64
	content      string
	topContent   string
	chunkCount   int
}

// Rank scores the documents matching the query and returns at most maxResults
// entries sorted by descending score.
func (s *RankingService) Rank(ctx context.Context, query string, maxResults int) (*RankingResult, error) {
	if strings.TrimSpace(query) == "" {
		return nil, domain.ErrEmptyQuery
	}
	if maxResults <= 0 {
		maxResults = 5
	}

	ctx, span := telemetry.StartSpan(ctx, "ranking.rank", telemetry.SpanAttributes{
		Collection: s.collection,
		Operation:  "rank",
	})
	defer span.End()

	handle, err := s.stores.Acquire(ctx, s.location, s.collection, false)
	if err != nil {
		return nil, err
	}

	embedding, err := s.embedder.GenerateEmbedding(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embedding query: %w", err)
	}

	scored, err := handle.Search(ctx, embedding, maxResults*oversampleFactor, "")
	if err != nil {
		return nil, fmt.Errorf("searching chunks: %w", err)
	}
	if len(scored) == 0 {
		return &RankingResult{}, nil
	}

	groups := groupByDocument(scored)
	results := s.scoreGroups(ctx, query, groups)

	results = dedupeResults(results, groups)
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})
	if len(results) > maxResults {
		results = results[:maxResults]
	}

	return &RankingResult{Results: results, TotalCandidates: len(groups)}, nil
}

// groupByDocument keeps the best (lowest) distance per document and bounds
// the concatenated content so the scoring prompt stays small. Groups come
// back ordered by best distance, closest first.
func groupByDocument(scored []domain.ScoredChunk) []*candidateGroup {
	byID := make(map[string]*candidateGroup)
	var order []*candidateGroup

	for _, sc := range scored {
		g, ok := byID[sc.Chunk.DocumentID]
		if !ok {
			g = &candidateGroup{
				documentID:   sc.Chunk.DocumentID,
				documentName: sc.Chunk.DocumentName,
				profile:      sc.Chunk.Profile,
				bestDistance: sc.Distance,
				topContent:   sc.Chunk.Text,
			}
			byID[sc.Chunk.DocumentID] = g
			order = append(order, g)
		}
		if sc.Distance < g.bestDistance {
			g.bestDistance = sc.Distance
		}
		g.chunkCount++
		if g.chunkCount <= groupChunkLimit && len(g.content) < groupContentCap {
			remaining := groupContentCap - len(g.content)
			g.content += truncateOnRune(sc.Chunk.Text, remaining) + "\n"
		}
	}

	sort.SliceStable(order, func(i, j int) bool {
		return order[i].bestDistance < order[j].bestDistance
	})
	return order
}

// scoreGroups issues one batched scoring request and merges the parsed blocks
// back onto the groups. A malformed response degrades to clearly flagged
// placeholder scores rather than failing the query.
func (s *RankingService) scoreGroups(ctx context.Context, query string, groups []*candidateGroup) []domain.RankedResult {
	prompt := buildRankingPrompt(query, groups)

	raw, err := s.llm.Complete(ctx, rankingSystemPrompt, prompt)
	if err != nil {
		log.Printf("ranking: scoring request failed: %v", err)
		return fallbackResults(groups, fmt.Sprintf("scoring request failed: %v", err))
	}

	outcome := parseRankingResponse(raw)
	if outcome.Malformed {
		log.Printf("ranking: unparseable scoring response (%s), using placeholder scores", outcome.Reason)
		return fallbackResults(groups, outcome.Reason)
	}

	parsed := make(map[string]parsedRanking, len(outcome.Rankings))
	for _, r := range outcome.Rankings {
		parsed[r.DocumentID] = r
	}

	results := make([]domain.RankedResult, 0, len(groups))
	for i, g := range groups {
		r, ok := parsed[g.documentID]
		if !ok {
			// The model skipped this candidate; give it a placeholder
			// so it is not silently dropped.
			results = append(results, fallbackResult(g, i, fallbackStep(len(groups)), "candidate missing from scoring response"))
			continue
		}
		results = append(results, domain.RankedResult{
			DocumentID:         g.documentID,
			CandidateName:      g.profile.Name,
			DocumentName:       g.documentName,
			Score:              domain.ClampScore(r.Score),
			ScoreSource:        domain.ScoreSourceModel,
			Rationale:          r.Rationale,
			Extracts:           r.Extracts,
			MatchingChunkCount: g.chunkCount,
			Profile:            g.profile,
		})
	}
	return results
}

func buildRankingPrompt(query string, groups []*candidateGroup) string {
	var b strings.Builder
	fmt.Fprintf(&b, rankingPromptHeader, query)
	for _, g := range groups {
		fmt.Fprintf(&b, "Candidate document id: %s\n", g.documentID)
		fmt.Fprintf(&b, "Candidate: %s\n", g.profile.Name)
		if len(g.profile.Skills) > 0 {
			fmt.Fprintf(&b, "Skills: %s\n", strings.Join(g.profile.Skills, ", "))
		}
		if g.profile.ExperienceYears > 0 {
			fmt.Fprintf(&b, "Experience: %d years\n", g.profile.ExperienceYears)
		}
		fmt.Fprintf(&b, "Resume content:\n%s\n\n", strings.TrimSpace(g.content))
	}
	return b.String()
}

// fallbackResults assigns strictly decreasing placeholder scores by retrieval
// order. The ScoreSource flag keeps them distinguishable from model judgment.
func fallbackResults(groups []*candidateGroup, reason string) []domain.RankedResult {
	step := fallbackStep(len(groups))
	results := make([]domain.RankedResult, 0, len(groups))
	for i, g := range groups {
		results = append(results, fallbackResult(g, i, step, reason))
	}
	return results
}

// fallbackStep returns the per-position score decrement. The default step
// shrinks when the ladder would otherwise hit the clamp floor and tie, so
// scores stay strictly decreasing for any group count.
func fallbackStep(n int) float64 {
	step := fallbackScoreStep
	if n > 0 {
		if max := fallbackBaseScore / float64(n); max < step {
			step = max
		}
	}
	return step
}

func fallbackResult(g *candidateGroup, position int, step float64, reason string) domain.RankedResult {
	return domain.RankedResult{
		DocumentID:         g.documentID,
		CandidateName:      g.profile.Name,
		DocumentName:       g.documentName,
		Score:              domain.ClampScore(fallbackBaseScore - step*float64(position)),
		ScoreSource:        domain.ScoreSourceFallback,
		Rationale:          fmt.Sprintf("Ranked by retrieval similarity; model scoring unavailable (%s).", reason),
		MatchingChunkCount: g.chunkCount,
		Profile:            g.profile,
	}
}

// dedupeResults collapses near-identical candidates reached via different
// retrieval paths, keyed by candidate name and the leading retrieved content.
// The same resume ingested twice under different paths produces two document
// IDs but an identical key.
func dedupeResults(results []domain.RankedResult, groups []*candidateGroup) []domain.RankedResult {
	topContent := make(map[string]string, len(groups))
	for _, g := range groups {
		topContent[g.documentID] = g.topContent
	}

	seen := make(map[string]struct{}, len(results))
	out := results[:0]
	for _, r := range results {
		key := strings.ToLower(strings.TrimSpace(r.CandidateName)) + "\x00" +
			truncateOnRune(topContent[r.DocumentID], dedupePrefixLen)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, r)
	}
	return out
}
