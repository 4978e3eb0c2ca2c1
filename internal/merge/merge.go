// Package merge folds the sparse manual-overrides table into the matched
// book table without clobbering export-derived ratings.
package merge

import (
	"log/slog"

	"github.com/bookclubapp/bookclub-server/internal/domain"
)

// Merger applies manual rating overrides.
type Merger struct {
	logger *slog.Logger
}

// New creates a merger.
func New(logger *slog.Logger) *Merger {
	return &Merger{logger: logger}
}

// Apply merges overrides into the table and returns a new table; the input is
// not mutated. Per member column:
//
//   - column already in the table: cell-wise null-coalescing that prefers the
//     existing value - a manual entry never overwrites an export-derived
//     rating, it only fills gaps;
//   - column not yet in the table: it is appended and populated from the
//     overrides alone (a member with no export file who rates by hand).
//
// Override rows match book rows by folded title; a row matching no book is
// skipped. After merging, every club average is recomputed from the current
// member cells - the pre-merge averages are never carried over.
func (m *Merger) Apply(table *domain.BookTable, overrides *domain.ManualOverrides) *domain.BookTable {
	if overrides.Empty() {
		m.logger.Info("no manual overrides to merge")
		return table
	}

	merged := table.Clone()
	for _, member := range overrides.Members {
		merged.AddMember(member)
	}

	applied := 0
	ignored := 0
	matchedRows := make(map[string]bool)

	for _, entry := range merged.Entries {
		key := domain.FoldKey(entry.Title)
		rows, ok := overrides.Rows[key]
		if !ok {
			continue
		}
		matchedRows[key] = true
		for _, row := range rows {
			for _, member := range overrides.Members {
				manual := row.Ratings[member]
				if manual == nil {
					continue
				}
				if entry.MemberRatings[member] != nil {
					// Existing value wins.
					continue
				}
				value := *manual
				entry.MemberRatings[member] = &value
				applied++
			}
		}
	}

	for key, rows := range overrides.Rows {
		if !matchedRows[key] {
			ignored += len(rows)
			m.logger.Debug("manual override matches no book", "title", rows[0].Title)
		}
	}

	// The club average is derived, never stale: recompute unconditionally
	// over the post-merge member columns.
	merged.RecomputeClubAverages()

	m.logger.Info("merged manual overrides",
		"cells_filled", applied,
		"rows_without_match", ignored,
		"member_columns", len(merged.Members),
	)
	return merged
}
