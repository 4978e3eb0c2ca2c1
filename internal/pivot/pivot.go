// Package pivot transforms the long-form reviewer data (one row per
// member-book pair) into the wide per-book table (one column per member).
package pivot

import (
	"fmt"
	"log/slog"
	"sort"

	"github.com/bookclubapp/bookclub-server/internal/domain"
)

// Engine pivots long-form rating records.
type Engine struct {
	logger *slog.Logger
}

// New creates a pivot engine.
func New(logger *slog.Logger) *Engine {
	return &Engine{logger: logger}
}

// group accumulates the long-form rows for one (title, author, year) triple.
type group struct {
	title    string
	author   string
	pubYear  *int
	external []*float64
	pages    []*int
	// ratings collects each member's rating rows; a member appearing twice
	// for the same book (duplicate export rows) is mean-aggregated.
	ratings map[string][]*float64
}

// Pivot produces one row per distinct (title, author, publication year)
// triple; title and author compare case-insensitively so independently
// maintained exports of the same book collapse into one row.
// Book metadata recorded slightly differently across exports
// (external rating, page count) resolves to the mean over all rows in the
// group. Member columns follow roster order; rows follow first appearance.
//
// Records from source files absent from the roster mapping are dropped; each
// orphan file is named in a warning once.
func (e *Engine) Pivot(records []domain.RatingRecord, roster *domain.Roster) *domain.PivotTable {
	mapping := roster.ReviewerMapping()

	// Member columns: roster-ordered names that have an export file.
	members := make([]string, 0, len(mapping))
	mapped := make(map[string]bool, len(mapping))
	for _, m := range roster.Members {
		if m.SourceFile != "" {
			members = append(members, m.Name)
			mapped[m.Name] = true
		}
	}

	groups := make(map[string]*group)
	var order []string
	orphans := make(map[string]bool)

	for _, rec := range records {
		member, ok := mapping[rec.SourceFile]
		if !ok {
			orphans[rec.SourceFile] = true
			continue
		}

		key := groupKey(rec)
		g, ok := groups[key]
		if !ok {
			g = &group{
				title:   rec.Title,
				author:  rec.Author,
				pubYear: rec.PublicationYear,
				ratings: make(map[string][]*float64),
			}
			groups[key] = g
			order = append(order, key)
		}
		g.external = append(g.external, rec.AverageExternalRating)
		g.pages = append(g.pages, rec.PageCount)
		g.ratings[member] = append(g.ratings[member], rec.Rating)
	}

	for _, file := range sortedKeys(orphans) {
		e.logger.Warn("export file not in roster, dropping its rows", "file", file)
	}

	table := &domain.PivotTable{
		Members: members,
		Rows:    make([]*domain.PivotRow, 0, len(order)),
	}
	for _, key := range order {
		g := groups[key]
		row := &domain.PivotRow{
			Title:                 g.title,
			Author:                g.author,
			PublicationYear:       g.pubYear,
			AverageExternalRating: domain.MeanFloat(g.external),
			PageCount:             domain.MeanInt(g.pages),
			MemberRatings:         make(map[string]*float64, len(members)),
		}
		for _, m := range members {
			row.MemberRatings[m] = domain.MeanFloat(g.ratings[m])
		}
		// Horizontal mean: members without a rating do not count toward the
		// denominator; a book nobody rated keeps a nil average, never zero.
		cells := make([]*float64, 0, len(members))
		for _, m := range members {
			cells = append(cells, row.MemberRatings[m])
		}
		row.AverageClubRating = domain.MeanFloat(cells)

		table.Rows = append(table.Rows, row)
	}

	e.logger.Info("pivoted reviewer data",
		"records", len(records),
		"books", len(table.Rows),
		"member_columns", len(members),
	)
	return table
}

// groupKey folds title and author so that independently-exported casings of
// the same book land in one group. The group keeps the first-seen casing for
// display.
func groupKey(rec domain.RatingRecord) string {
	year := ""
	if rec.PublicationYear != nil {
		year = fmt.Sprintf("%d", *rec.PublicationYear)
	}
	return domain.FoldKey(rec.Title) + "\x00" + domain.FoldKey(rec.Author) + "\x00" + year
}

func sortedKeys(set map[string]bool) []string {
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
