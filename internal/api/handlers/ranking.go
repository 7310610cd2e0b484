package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/sagecor-solutions/resumeintel/internal/api"
	"github.com/sagecor-solutions/resumeintel/internal/domain"
	"github.com/sagecor-solutions/resumeintel/internal/service"
)

type RankingService interface {
	Rank(ctx context.Context, query string, maxResults int) (*service.RankingResult, error)
}

type RankingHandler struct {
	svc RankingService
}

func NewRankingHandler(svc RankingService) *RankingHandler {
	return &RankingHandler{svc: svc}
}

type RankRequest struct {
	Query      string `json:"query"`
	MaxResults int    `json:"max_results"`
}

type ProfileResponse struct {
	Name            string   `json:"name"`
	Contact         string   `json:"contact,omitempty"`
	Skills          []string `json:"skills,omitempty"`
	ExperienceYears int      `json:"experience_years"`
	Education       string   `json:"education,omitempty"`
	Certifications  []string `json:"certifications,omitempty"`
	RecentTitles    []string `json:"job_titles,omitempty"`
	Industries      []string `json:"industries,omitempty"`
}

type RankedResultResponse struct {
	DocumentID         string          `json:"document_id"`
	CandidateName      string          `json:"candidate_name"`
	DocumentName       string          `json:"document_name"`
	Score              float64         `json:"score"`
	ScoreSource        string          `json:"score_source"`
	Rationale          string          `json:"rationale"`
	Extracts           []string        `json:"extracts,omitempty"`
	MatchingChunkCount int             `json:"matching_chunk_count"`
	Profile            ProfileResponse `json:"profile"`
}

type RankResponse struct {
	Results         []RankedResultResponse `json:"results"`
	TotalCandidates int                    `json:"total_candidates"`
}

func (h *RankingHandler) Rank(w http.ResponseWriter, r *http.Request) {
	var req RankRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	result, err := h.svc.Rank(r.Context(), req.Query, req.MaxResults)
	if err != nil {
		api.HandleError(w, err)
		return
	}

	resp := RankResponse{
		Results:         make([]RankedResultResponse, 0, len(result.Results)),
		TotalCandidates: result.TotalCandidates,
	}
	for _, rr := range result.Results {
		resp.Results = append(resp.Results, rankedToResponse(rr))
	}
	api.Success(w, http.StatusOK, resp)
}

func rankedToResponse(rr domain.RankedResult) RankedResultResponse {
	return RankedResultResponse{
		DocumentID:         rr.DocumentID,
		CandidateName:      rr.CandidateName,
		DocumentName:       rr.DocumentName,
		Score:              rr.Score,
		ScoreSource:        string(rr.ScoreSource),
		Rationale:          rr.Rationale,
		Extracts:           rr.Extracts,
		MatchingChunkCount: rr.MatchingChunkCount,
		Profile: ProfileResponse{
			Name:            rr.Profile.Name,
			Contact:         rr.Profile.Contact,
			Skills:          rr.Profile.Skills,
			ExperienceYears: rr.Profile.ExperienceYears,
			Education:       rr.Profile.Education,
			Certifications:  rr.Profile.Certifications,
			RecentTitles:    rr.Profile.RecentTitles,
			Industries:      rr.Profile.Industries,
		},
	}
}
