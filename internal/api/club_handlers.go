package api

import (
	"context"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"

	"github.com/bookclubapp/bookclub-server/internal/service"
)

func (s *Server) registerClubRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "listMembers",
		Method:      http.MethodGet,
		Path:        "/api/v1/members",
		Summary:     "List members",
		Description: "Returns the roster in configured order",
		Tags:        []string{"Club"},
	}, s.handleListMembers)

	huma.Register(s.api, huma.Operation{
		OperationID: "listRatings",
		Method:      http.MethodGet,
		Path:        "/api/v1/ratings",
		Summary:     "List raw ratings",
		Description: "Returns the combined long-form rating records from all member exports",
		Tags:        []string{"Club"},
	}, s.handleListRatings)

	huma.Register(s.api, huma.Operation{
		OperationID: "getStats",
		Method:      http.MethodGet,
		Path:        "/api/v1/stats",
		Summary:     "Get club statistics",
		Description: "Returns aggregate statistics derived from the latest pipeline run",
		Tags:        []string{"Club"},
	}, s.handleGetStats)

	huma.Register(s.api, huma.Operation{
		OperationID: "refreshPipeline",
		Method:      http.MethodPost,
		Path:        "/api/v1/refresh",
		Summary:     "Refresh the pipeline",
		Description: "Re-reads all source files and rebuilds the unified table",
		Tags:        []string{"Club"},
		Middlewares: huma.Middlewares{s.rateLimitRefresh},
	}, s.handleRefresh)
}

// MemberResponse is one roster member in API responses.
type MemberResponse struct {
	Name        string `json:"name"`
	SourceFile  string `json:"source_file" doc:"Base name of the member's rating export CSV"`
	Active      bool   `json:"active"`
	ReviewIndex int    `json:"review_index" doc:"Position in the roster"`
}

// MemberListOutput wraps the member list for Huma.
type MemberListOutput struct {
	Body struct {
		Members []MemberResponse `json:"members"`
	}
}

func (s *Server) handleListMembers(_ context.Context, _ *struct{}) (*MemberListOutput, error) {
	out := &MemberListOutput{}
	for _, m := range s.club.Members() {
		out.Body.Members = append(out.Body.Members, MemberResponse{
			Name:        m.Name,
			SourceFile:  m.SourceFile,
			Active:      m.Active,
			ReviewIndex: m.Index,
		})
	}
	return out, nil
}

// RatingResponse is one long-form rating record in API responses.
type RatingResponse struct {
	Title                 string   `json:"title"`
	Author                string   `json:"author"`
	SourceFile            string   `json:"source_file" doc:"Export file the record came from"`
	Rating                *float64 `json:"rating,omitempty"`
	AverageExternalRating *float64 `json:"average_external_rating,omitempty"`
	PublicationYear       *int     `json:"publication_year,omitempty"`
	PageCount             *int     `json:"page_count,omitempty"`
}

// RatingListOutput wraps the raw rating list for Huma.
type RatingListOutput struct {
	Body struct {
		RunID   string           `json:"run_id"`
		Ratings []RatingResponse `json:"ratings"`
	}
}

func (s *Server) handleListRatings(_ context.Context, _ *struct{}) (*RatingListOutput, error) {
	result, err := s.club.Result()
	if err != nil {
		return nil, err
	}

	out := &RatingListOutput{}
	out.Body.RunID = result.RunID
	out.Body.Ratings = make([]RatingResponse, 0, len(result.Combined))
	for _, r := range result.Combined {
		out.Body.Ratings = append(out.Body.Ratings, RatingResponse{
			Title:                 r.Title,
			Author:                r.Author,
			SourceFile:            r.SourceFile,
			Rating:                r.Rating,
			AverageExternalRating: r.AverageExternalRating,
			PublicationYear:       r.PublicationYear,
			PageCount:             r.PageCount,
		})
	}
	return out, nil
}

// StatsOutput wraps the stats response for Huma.
type StatsOutput struct {
	Body service.Stats
}

func (s *Server) handleGetStats(_ context.Context, _ *struct{}) (*StatsOutput, error) {
	stats, err := s.club.Stats()
	if err != nil {
		return nil, err
	}
	return &StatsOutput{Body: *stats}, nil
}

// RefreshOutput wraps the refresh response for Huma.
type RefreshOutput struct {
	Body struct {
		RunID       string    `json:"run_id"`
		GeneratedAt time.Time `json:"generated_at"`
		Books       int       `json:"books"`
		Unmatched   int       `json:"unmatched"`
	}
}

func (s *Server) handleRefresh(ctx context.Context, _ *struct{}) (*RefreshOutput, error) {
	result, err := s.club.Refresh(ctx)
	if err != nil {
		return nil, err
	}

	out := &RefreshOutput{}
	out.Body.RunID = result.RunID
	out.Body.GeneratedAt = result.GeneratedAt
	out.Body.Books = len(result.Table.Entries)
	out.Body.Unmatched = len(result.Unmatched.Entries)
	return out, nil
}
