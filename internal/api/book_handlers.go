package api

import (
	"context"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"

	"github.com/bookclubapp/bookclub-server/internal/domain"
)

func (s *Server) registerBookRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "listBooks",
		Method:      http.MethodGet,
		Path:        "/api/v1/books",
		Summary:     "List books",
		Description: "Returns the unified per-book table with one rating column per member",
		Tags:        []string{"Books"},
	}, s.handleListBooks)

	huma.Register(s.api, huma.Operation{
		OperationID: "getCurrentBook",
		Method:      http.MethodGet,
		Path:        "/api/v1/books/current",
		Summary:     "Get current book",
		Description: "Returns the book for the most recent meeting that is not in the future",
		Tags:        []string{"Books"},
	}, s.handleGetCurrentBook)

	huma.Register(s.api, huma.Operation{
		OperationID: "listUnmatchedBooks",
		Method:      http.MethodGet,
		Path:        "/api/v1/books/unmatched",
		Summary:     "List unmatched books",
		Description: "Returns meeting-log entries with no matching rating export row",
		Tags:        []string{"Books"},
	}, s.handleListUnmatchedBooks)
}

const apiDateFormat = "2006-01-02"

// BookResponse is one book in API responses.
type BookResponse struct {
	MeetingIndex          int                 `json:"meeting_index" doc:"Sequence number from the meeting log"`
	Date                  string              `json:"date" doc:"Meeting date (YYYY-MM-DD)"`
	Title                 string              `json:"title"`
	Author                string              `json:"author"`
	SuggestedBy           string              `json:"suggested_by,omitempty" doc:"Member who picked the book"`
	Location              string              `json:"location,omitempty" doc:"Where the meeting took place"`
	MemberRatings         map[string]*float64 `json:"member_ratings" doc:"One rating cell per member, null when unrated"`
	AverageExternalRating *float64            `json:"average_external_rating,omitempty"`
	AverageClubRating     *float64            `json:"average_club_rating,omitempty"`
	PublicationYear       *int                `json:"publication_year,omitempty"`
	PageCount             *float64            `json:"page_count,omitempty"`
	Matched               bool                `json:"matched" doc:"Whether the meeting-log entry matched a rating export row"`
}

// BookListResponse is the unified table in API responses.
type BookListResponse struct {
	RunID       string         `json:"run_id"`
	GeneratedAt time.Time      `json:"generated_at"`
	Members     []string       `json:"members" doc:"Member rating columns in roster order"`
	Books       []BookResponse `json:"books"`
}

// BookListOutput wraps the book list response for Huma.
type BookListOutput struct {
	Body BookListResponse
}

// BookOutput wraps a single book response for Huma.
type BookOutput struct {
	Body BookResponse
}

func (s *Server) handleListBooks(_ context.Context, _ *struct{}) (*BookListOutput, error) {
	result, err := s.club.Result()
	if err != nil {
		return nil, err
	}
	return &BookListOutput{Body: bookListResponse(result.RunID, result.GeneratedAt, result.Table)}, nil
}

func (s *Server) handleGetCurrentBook(_ context.Context, _ *struct{}) (*BookOutput, error) {
	entry, err := s.club.CurrentBook()
	if err != nil {
		return nil, err
	}
	return &BookOutput{Body: bookResponse(entry)}, nil
}

func (s *Server) handleListUnmatchedBooks(_ context.Context, _ *struct{}) (*BookListOutput, error) {
	result, err := s.club.Result()
	if err != nil {
		return nil, err
	}
	return &BookListOutput{Body: bookListResponse(result.RunID, result.GeneratedAt, result.Unmatched)}, nil
}

func bookListResponse(runID string, generatedAt time.Time, table *domain.BookTable) BookListResponse {
	resp := BookListResponse{
		RunID:       runID,
		GeneratedAt: generatedAt,
		Members:     table.Members,
		Books:       make([]BookResponse, 0, len(table.Entries)),
	}
	for _, e := range table.Entries {
		resp.Books = append(resp.Books, bookResponse(e))
	}
	return resp
}

func bookResponse(e *domain.BookEntry) BookResponse {
	return BookResponse{
		MeetingIndex:          e.MeetingIndex,
		Date:                  e.MeetingDate.Format(apiDateFormat),
		Title:                 e.Title,
		Author:                e.Author,
		SuggestedBy:           e.SuggestedBy,
		Location:              e.Location,
		MemberRatings:         e.MemberRatings,
		AverageExternalRating: e.AverageExternalRating,
		AverageClubRating:     e.AverageClubRating,
		PublicationYear:       e.PublicationYear,
		PageCount:             e.PageCount,
		Matched:               e.Matched,
	}
}
