package service

import (
	"strconv"
	"strings"
)

// The scoring prompt demands one delimited block per candidate:
//
//	=== CANDIDATE START ===
//	DOCUMENT: <document id>
//	SCORE: <number 0-10>
//	RATIONALE: <short justification>
//	EXTRACT: <supporting excerpt>
//	=== CANDIDATE END ===
//
// EXTRACT may repeat; the other keys appear once. Unknown keys and text
// outside blocks are ignored.
const (
	rankingBlockStart = "=== CANDIDATE START ==="
	rankingBlockEnd   = "=== CANDIDATE END ==="
)

type parsedRanking struct {
	DocumentID string
	Score      float64
	Rationale  string
	Extracts   []string
}

// parseOutcome is the typed result of parsing a scoring response. Malformed
// is set when the response contains no usable blocks at all; the caller then
// substitutes placeholder scores instead of guessing.
type parseOutcome struct {
	Rankings  []parsedRanking
	Malformed bool
	Reason    string
}

func parseRankingResponse(raw string) parseOutcome {
	lines := strings.Split(raw, "\n")

	var (
		rankings []parsedRanking
		current  *parsedRanking
		hasScore bool
		sawBlock bool
	)

	flush := func() {
		if current != nil && current.DocumentID != "" && hasScore {
			rankings = append(rankings, *current)
		}
		current = nil
		hasScore = false
	}

	for _, line := range lines {
		line = strings.TrimSpace(line)
		switch {
		case line == rankingBlockStart:
			flush()
			sawBlock = true
			current = &parsedRanking{}
		case line == rankingBlockEnd:
			flush()
		case current != nil:
			key, value, ok := splitKeyValue(line)
			if !ok {
				continue
			}
			switch key {
			case "DOCUMENT":
				current.DocumentID = value
			case "SCORE":
				if f, err := strconv.ParseFloat(value, 64); err == nil {
					current.Score = f
					hasScore = true
				}
			case "RATIONALE":
				current.Rationale = value
			case "EXTRACT":
				if value != "" {
					current.Extracts = append(current.Extracts, value)
				}
			}
		}
	}
	flush()

	if len(rankings) == 0 {
		reason := "no delimited blocks in response"
		if sawBlock {
			reason = "blocks present but none had a document and score"
		}
		return parseOutcome{Malformed: true, Reason: reason}
	}
	return parseOutcome{Rankings: rankings}
}

func splitKeyValue(line string) (key, value string, ok bool) {
	idx := strings.Index(line, ":")
	if idx <= 0 {
		return "", "", false
	}
	return strings.ToUpper(strings.TrimSpace(line[:idx])), strings.TrimSpace(line[idx+1:]), true
}
