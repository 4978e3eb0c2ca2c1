// Package service holds the business services that sit between the pipeline
// and the HTTP API.
package service

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/bookclubapp/bookclub-server/internal/domain"
	"github.com/bookclubapp/bookclub-server/internal/errors"
	"github.com/bookclubapp/bookclub-server/internal/pipeline"
)

// ClubService owns the latest successful pipeline result and serves it to
// the display layer. A failed refresh leaves the previous result in place:
// consumers never observe a partial or degraded table.
type ClubService struct {
	pipeline *pipeline.Pipeline
	roster   *domain.Roster
	logger   *slog.Logger

	mu     sync.RWMutex
	result *pipeline.Result
}

// NewClubService creates the club service.
func NewClubService(p *pipeline.Pipeline, roster *domain.Roster, logger *slog.Logger) *ClubService {
	return &ClubService{
		pipeline: p,
		roster:   roster,
		logger:   logger,
	}
}

// Refresh runs the pipeline, writes the CSV artifacts, and atomically swaps
// in the new result. The swap happens only after both succeed.
func (s *ClubService) Refresh(ctx context.Context) (*pipeline.Result, error) {
	result, err := s.pipeline.Run(ctx)
	if err != nil {
		s.logger.Error("pipeline refresh failed", "error", err)
		return nil, err
	}
	if err := s.pipeline.WriteArtifacts(result); err != nil {
		s.logger.Error("writing artifacts failed", "error", err)
		return nil, err
	}

	s.mu.Lock()
	s.result = result
	s.mu.Unlock()

	return result, nil
}

// Result returns the latest successful result, or an error before the first
// successful run.
func (s *ClubService) Result() (*pipeline.Result, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.result == nil {
		return nil, errors.NotFound("no pipeline result available yet")
	}
	return s.result, nil
}

// Members returns the configured roster in order.
func (s *ClubService) Members() []domain.Member {
	return s.roster.Members
}

// CurrentBook returns the entry for the most recent meeting that is not in
// the future, i.e. the book the club is currently discussing or discussed
// last.
func (s *ClubService) CurrentBook() (*domain.BookEntry, error) {
	result, err := s.Result()
	if err != nil {
		return nil, err
	}

	now := time.Now()
	var current *domain.BookEntry
	for _, e := range result.Table.Entries {
		if e.MeetingDate.After(now) {
			continue
		}
		if current == nil || e.MeetingDate.After(current.MeetingDate) {
			current = e
		}
	}
	if current == nil {
		return nil, errors.NotFound("no current book")
	}
	return current, nil
}

// MemberStats summarizes one member's ratings across the unified table.
type MemberStats struct {
	Name          string   `json:"name"`
	Active        bool     `json:"active"`
	RatingCount   int      `json:"rating_count"`
	AverageRating *float64 `json:"average_rating,omitempty"`
}

// Stats is the aggregate view served to the dashboard.
type Stats struct {
	RunID              string        `json:"run_id"`
	GeneratedAt        time.Time     `json:"generated_at"`
	MeetingCount       int           `json:"meeting_count"`
	MatchedCount       int           `json:"matched_count"`
	UnmatchedCount     int           `json:"unmatched_count"`
	OverallClubAverage *float64      `json:"overall_club_average,omitempty"`
	Members            []MemberStats `json:"members"`
}

// Stats derives aggregate statistics from the latest result.
func (s *ClubService) Stats() (*Stats, error) {
	result, err := s.Result()
	if err != nil {
		return nil, err
	}

	table := result.Table
	stats := &Stats{
		RunID:          result.RunID,
		GeneratedAt:    result.GeneratedAt,
		MeetingCount:   len(table.Entries),
		UnmatchedCount: len(result.Unmatched.Entries),
	}

	averages := make([]*float64, 0, len(table.Entries))
	for _, e := range table.Entries {
		if e.Matched {
			stats.MatchedCount++
		}
		averages = append(averages, e.AverageClubRating)
	}
	stats.OverallClubAverage = domain.MeanFloat(averages)

	activeByName := make(map[string]bool, len(s.roster.Members))
	for _, m := range s.roster.Members {
		activeByName[m.Name] = m.Active
	}

	for _, name := range table.Members {
		ms := MemberStats{Name: name, Active: activeByName[name]}
		ratings := make([]*float64, 0, len(table.Entries))
		for _, e := range table.Entries {
			if r := e.MemberRatings[name]; r != nil {
				ms.RatingCount++
				ratings = append(ratings, r)
			}
		}
		ms.AverageRating = domain.MeanFloat(ratings)
		stats.Members = append(stats.Members, ms)
	}

	return stats, nil
}
