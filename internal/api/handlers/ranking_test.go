package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/sagecor-solutions/resumeintel/internal/domain"
	"github.com/sagecor-solutions/resumeintel/internal/service"
)

type MockRankingService struct {
	mock.Mock
}

func (m *MockRankingService) Rank(ctx context.Context, query string, maxResults int) (*service.RankingResult, error) {
	args := m.Called(ctx, query, maxResults)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.RankingResult), args.Error(1)
}

func TestRankingHandler_Rank_Success(t *testing.T) {
	mockSvc := new(MockRankingService)
	handler := NewRankingHandler(mockSvc)

	mockSvc.On("Rank", mock.Anything, "senior Go engineer", 3).Return(&service.RankingResult{
		Results: []domain.RankedResult{
			{
				DocumentID:         "Jane_Doe_abc12345",
				CandidateName:      "Jane Doe",
				DocumentName:       "Jane_Doe.txt",
				Score:              8.5,
				ScoreSource:        domain.ScoreSourceModel,
				Rationale:          "Strong match on Go and distributed systems.",
				Extracts:           []string{"ten years of Go"},
				MatchingChunkCount: 2,
				Profile:            domain.CandidateProfile{Name: "Jane Doe", ExperienceYears: 10},
			},
		},
		TotalCandidates: 1,
	}, nil)

	body := `{"query":"senior Go engineer","max_results":3}`
	req := httptest.NewRequest(http.MethodPost, "/rank", bytes.NewReader([]byte(body)))
	w := httptest.NewRecorder()

	handler.Rank(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	data := resp["data"].(map[string]interface{})
	assert.Equal(t, float64(1), data["total_candidates"])
	results := data["results"].([]interface{})
	require.Len(t, results, 1)
	first := results[0].(map[string]interface{})
	assert.Equal(t, "Jane Doe", first["candidate_name"])
	assert.Equal(t, 8.5, first["score"])
	assert.Equal(t, "model", first["score_source"])
	profile := first["profile"].(map[string]interface{})
	assert.Equal(t, float64(10), profile["experience_years"])
	mockSvc.AssertExpectations(t)
}

func TestRankingHandler_Rank_DefaultsPassedThrough(t *testing.T) {
	mockSvc := new(MockRankingService)
	handler := NewRankingHandler(mockSvc)

	mockSvc.On("Rank", mock.Anything, "senior Go engineer", 0).
		Return(&service.RankingResult{Results: []domain.RankedResult{}}, nil)

	body := `{"query":"senior Go engineer"}`
	req := httptest.NewRequest(http.MethodPost, "/rank", bytes.NewReader([]byte(body)))
	w := httptest.NewRecorder()

	handler.Rank(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"results":[]`)
	mockSvc.AssertExpectations(t)
}

func TestRankingHandler_Rank_InvalidJSON(t *testing.T) {
	mockSvc := new(MockRankingService)
	handler := NewRankingHandler(mockSvc)

	req := httptest.NewRequest(http.MethodPost, "/rank", bytes.NewReader([]byte(`{invalid`)))
	w := httptest.NewRecorder()

	handler.Rank(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "invalid request body")
}

func TestRankingHandler_Rank_EmptyQuery(t *testing.T) {
	mockSvc := new(MockRankingService)
	handler := NewRankingHandler(mockSvc)

	mockSvc.On("Rank", mock.Anything, "", 0).Return(nil, domain.ErrEmptyQuery)

	req := httptest.NewRequest(http.MethodPost, "/rank", bytes.NewReader([]byte(`{}`)))
	w := httptest.NewRecorder()

	handler.Rank(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRankingHandler_Rank_StoreUnavailable(t *testing.T) {
	mockSvc := new(MockRankingService)
	handler := NewRankingHandler(mockSvc)

	mockSvc.On("Rank", mock.Anything, "senior Go engineer", 0).Return(nil, domain.ErrStoreUnavailable)

	body := `{"query":"senior Go engineer"}`
	req := httptest.NewRequest(http.MethodPost, "/rank", bytes.NewReader([]byte(body)))
	w := httptest.NewRecorder()

	handler.Rank(w, req)

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}
