package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sagecor-solutions/resumeintel/internal/domain"
)

const profileJSON = `{
	"candidate_name": "Jane Doe",
	"contact_info": "jane@example.com",
	"key_skills": ["Go", "Postgres", "Kubernetes"],
	"experience_years": 10,
	"education": "MSc Computer Science",
	"certifications": ["CKA"],
	"job_titles": ["Staff Engineer"],
	"industries": ["Fintech"]
}`

func TestEnricher_Extract_Success(t *testing.T) {
	e := NewEnricher(&fakeCompleter{response: profileJSON})
	p := e.Extract(context.Background(), sampleResume)

	assert.Equal(t, "Jane Doe", p.Name)
	assert.Equal(t, []string{"Go", "Postgres", "Kubernetes"}, p.Skills)
	assert.Equal(t, 10, p.ExperienceYears)
	assert.Equal(t, "MSc Computer Science", p.Education)
	assert.Empty(t, p.FailureReason)
	assert.True(t, p.Enriched())
}

func TestEnricher_Extract_JSONInProse(t *testing.T) {
	e := NewEnricher(&fakeCompleter{response: "Sure! Here is the extraction:\n" + profileJSON + "\nLet me know if you need more."})
	p := e.Extract(context.Background(), sampleResume)

	assert.Equal(t, "Jane Doe", p.Name)
	assert.Empty(t, p.FailureReason)
}

func TestEnricher_Extract_UnparseableResponse(t *testing.T) {
	e := NewEnricher(&fakeCompleter{response: "I could not analyze this resume."})
	p := e.Extract(context.Background(), sampleResume)

	assert.Equal(t, domain.UnknownValue, p.Name)
	assert.Empty(t, p.Skills)
	assert.NotEmpty(t, p.FailureReason)
	assert.False(t, p.Enriched())
}

func TestEnricher_Extract_CompletionError(t *testing.T) {
	e := NewEnricher(&fakeCompleter{err: errors.New("service unavailable")})
	p := e.Extract(context.Background(), sampleResume)

	assert.Equal(t, domain.UnknownValue, p.Name)
	assert.Contains(t, p.FailureReason, "service unavailable")
}

func TestEnricher_Extract_Timeout(t *testing.T) {
	slow := &fakeCompleter{fn: func(ctx context.Context, system, prompt string) (string, error) {
		select {
		case <-time.After(time.Second):
			return profileJSON, nil
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}}
	e := NewEnricherWithTimeout(slow, 10*time.Millisecond)

	p := e.Extract(context.Background(), sampleResume)
	assert.Equal(t, domain.UnknownValue, p.Name)
	assert.NotEmpty(t, p.FailureReason)
}

func TestEnricher_Extract_TruncatesLongInput(t *testing.T) {
	llm := &fakeCompleter{response: profileJSON}
	e := NewEnricher(llm)

	e.Extract(context.Background(), repeatText(20000))
	require.Len(t, llm.prompts, 1)
	assert.Less(t, len(llm.prompts[0]), 20000)
}

func TestEnricher_Extract_PartialProfileNormalized(t *testing.T) {
	e := NewEnricher(&fakeCompleter{response: `{"candidate_name": "Bob Ray"}`})
	p := e.Extract(context.Background(), sampleResume)

	assert.Equal(t, "Bob Ray", p.Name)
	assert.Equal(t, domain.UnknownValue, p.Education)
	assert.NotNil(t, p.Skills)
	assert.NotNil(t, p.Certifications)
}

func TestEnricher_Extract_NilModel(t *testing.T) {
	e := NewEnricher(nil)
	p := e.Extract(context.Background(), sampleResume)

	assert.Equal(t, domain.DefaultProfile(), p)
}

func TestFirstBalanced(t *testing.T) {
	tests := []struct {
		name  string
		in    string
		want  string
		found bool
	}{
		{"bare object", `{"a": 1}`, `{"a": 1}`, true},
		{"nested", `text {"a": {"b": 2}} tail`, `{"a": {"b": 2}}`, true},
		{"brace in string", `{"a": "}"}`, `{"a": "}"}`, true},
		{"escaped quote", `{"a": "\"}"}`, `{"a": "\"}"}`, true},
		{"unbalanced", `{"a": 1`, "", false},
		{"none", "no json here", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := firstBalanced(tt.in, '{', '}')
			assert.Equal(t, tt.found, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}
