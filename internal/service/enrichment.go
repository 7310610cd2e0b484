package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/sagecor-solutions/resumeintel/internal/domain"
)

const (
	enrichmentPrefixLimit = 4000
	enrichmentTimeout     = 30 * time.Second
)

const enrichmentSystemPrompt = "You are a resume analysis assistant. Respond with valid JSON only, no explanation."

const enrichmentPromptTemplate = `Analyze the following resume content and extract key information in JSON format.

Extract the following fields:
- candidate_name: Full name of the candidate
- contact_info: Email, phone, location (as a single string)
- key_skills: List of main technical and professional skills (max 10)
- experience_years: Estimated total years of experience (as number)
- education: Highest degree and field (as single string)
- certifications: List of certifications mentioned (max 5)
- job_titles: List of most recent job titles (max 3)
- industries: List of industries/domains mentioned (max 3)

Return ONLY valid JSON without any explanation.

Resume Content:
%s`

// Enricher extracts a CandidateProfile from resume text. Extraction is
// best-effort under a hard wall-clock timeout; any failure yields the
// all-defaults profile with the reason recorded, never an error.
type Enricher struct {
	llm     Completer
	timeout time.Duration
}

// NewEnricher creates an enricher with the standard timeout.
func NewEnricher(llm Completer) *Enricher {
	return &Enricher{llm: llm, timeout: enrichmentTimeout}
}

// NewEnricherWithTimeout is used by tests to shorten the deadline.
func NewEnricherWithTimeout(llm Completer, timeout time.Duration) *Enricher {
	return &Enricher{llm: llm, timeout: timeout}
}

// Extract returns a complete profile for the text. The input is truncated to
// a bounded prefix before submission to keep cost and latency predictable.
func (e *Enricher) Extract(ctx context.Context, text string) domain.CandidateProfile {
	if e.llm == nil {
		return domain.DefaultProfile()
	}

	prefix := text
	if len(prefix) > enrichmentPrefixLimit {
		prefix = truncateOnRune(prefix, enrichmentPrefixLimit)
	}

	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	raw, err := e.llm.Complete(ctx, enrichmentSystemPrompt, fmt.Sprintf(enrichmentPromptTemplate, prefix))
	if err != nil {
		return failedProfile(fmt.Sprintf("completion failed: %v", err))
	}

	profile, err := parseProfile(raw)
	if err != nil {
		return failedProfile(fmt.Sprintf("parse failed: %v", err))
	}
	profile.Normalize()
	return profile
}

func parseProfile(raw string) (domain.CandidateProfile, error) {
	var profile domain.CandidateProfile
	if err := json.Unmarshal([]byte(raw), &profile); err == nil {
		return profile, nil
	}
	span, ok := firstBalanced(raw, '{', '}')
	if !ok {
		return domain.CandidateProfile{}, fmt.Errorf("no JSON object in response")
	}
	if err := json.Unmarshal([]byte(span), &profile); err != nil {
		return domain.CandidateProfile{}, fmt.Errorf("decoding embedded JSON: %w", err)
	}
	return profile, nil
}

func failedProfile(reason string) domain.CandidateProfile {
	log.Printf("enrichment: falling back to default profile: %s", reason)
	p := domain.DefaultProfile()
	p.FailureReason = reason
	return p
}
