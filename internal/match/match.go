// Package match joins the meeting log against the pivoted reviewer table on
// a case-insensitively folded title key.
package match

import (
	"fmt"
	"log/slog"
	"sort"

	"github.com/bookclubapp/bookclub-server/internal/domain"
)

// Mode is a join mode.
type Mode string

// Supported join modes. The pipeline uses left (unified table) and anti
// (unmatched residue); the rest are generically supported join kinds.
const (
	ModeInner Mode = "inner"
	ModeLeft  Mode = "left"
	ModeSemi  Mode = "semi"
	ModeAnti  Mode = "anti"
	ModeFull  Mode = "full"
	ModeCross Mode = "cross"
)

// ParseMode validates a join mode string.
func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case ModeInner, ModeLeft, ModeSemi, ModeAnti, ModeFull, ModeCross:
		return Mode(s), nil
	default:
		return "", fmt.Errorf("unknown join mode %q", s)
	}
}

// Matcher joins meeting-log rows with pivot rows.
type Matcher struct {
	logger *slog.Logger
}

// New creates a matcher.
func New(logger *slog.Logger) *Matcher {
	return &Matcher{logger: logger}
}

// Join matches meetings (left side) against the pivot table (right side) on
// the lowercased title. The folded key exists only for comparison: output
// rows keep the original casing of the side they came from. Duplicate folded
// keys fan out like a relational join; the matcher warns about them but does
// not error (duplicate meeting-log titles are a data-quality question for a
// human, not a pipeline failure).
//
// Titles differing in interior whitespace after the reader's normalization
// stay unmatched: there is no fuzzy matching.
func (m *Matcher) Join(meetings []domain.Meeting, pivot *domain.PivotTable, mode Mode) *domain.BookTable {
	right := make(map[string][]*domain.PivotRow, len(pivot.Rows))
	for _, row := range pivot.Rows {
		key := domain.FoldKey(row.Title)
		right[key] = append(right[key], row)
	}
	m.warnDuplicates(meetings, right)

	table := &domain.BookTable{}
	if mode != ModeAnti && mode != ModeSemi {
		table.Members = append(table.Members, pivot.Members...)
	}

	matchedRight := make(map[string]bool)

	for i := range meetings {
		meeting := &meetings[i]
		matches := right[domain.FoldKey(meeting.Title)]

		switch mode {
		case ModeInner, ModeLeft, ModeFull:
			for _, row := range matches {
				table.Entries = append(table.Entries, matchedEntry(meeting, row))
				matchedRight[domain.FoldKey(row.Title)] = true
			}
			if len(matches) == 0 && (mode == ModeLeft || mode == ModeFull) {
				table.Entries = append(table.Entries, meetingOnlyEntry(meeting))
			}
		case ModeSemi:
			if len(matches) > 0 {
				table.Entries = append(table.Entries, meetingOnlyEntry(meeting))
			}
		case ModeAnti:
			if len(matches) == 0 {
				table.Entries = append(table.Entries, meetingOnlyEntry(meeting))
			}
		case ModeCross:
			for _, row := range pivot.Rows {
				table.Entries = append(table.Entries, matchedEntry(meeting, row))
			}
		}
	}

	if mode == ModeFull {
		// Right-only rows: title and author come from the pivot side.
		for _, row := range pivot.Rows {
			if !matchedRight[domain.FoldKey(row.Title)] {
				table.Entries = append(table.Entries, pivotOnlyEntry(row))
			}
		}
	}

	table.RecomputeClubAverages()

	m.logger.Info("joined meeting log with reviewer data",
		"mode", string(mode),
		"meetings", len(meetings),
		"pivot_rows", len(pivot.Rows),
		"result_rows", len(table.Entries),
	)
	return table
}

// matchedEntry builds a row from a meeting and its pivot match. The left
// side's casing wins for title and author.
func matchedEntry(meeting *domain.Meeting, row *domain.PivotRow) *domain.BookEntry {
	entry := &domain.BookEntry{
		MeetingIndex:          meeting.Index,
		MeetingDate:           meeting.Date,
		Title:                 meeting.Title,
		Author:                meeting.Author,
		SuggestedBy:           meeting.SuggestedBy,
		Location:              meeting.Location,
		AverageExternalRating: copyFloat(row.AverageExternalRating),
		PublicationYear:       copyInt(row.PublicationYear),
		PageCount:             copyFloat(row.PageCount),
		MemberRatings:         make(map[string]*float64, len(row.MemberRatings)),
		Matched:               true,
	}
	for member, rating := range row.MemberRatings {
		entry.MemberRatings[member] = copyFloat(rating)
	}
	return entry
}

// meetingOnlyEntry builds a row with nil reviewer-side columns.
func meetingOnlyEntry(meeting *domain.Meeting) *domain.BookEntry {
	return &domain.BookEntry{
		MeetingIndex:  meeting.Index,
		MeetingDate:   meeting.Date,
		Title:         meeting.Title,
		Author:        meeting.Author,
		SuggestedBy:   meeting.SuggestedBy,
		Location:      meeting.Location,
		MemberRatings: make(map[string]*float64),
	}
}

// pivotOnlyEntry builds a full-join row for a pivot book no meeting matched.
func pivotOnlyEntry(row *domain.PivotRow) *domain.BookEntry {
	entry := &domain.BookEntry{
		Title:                 row.Title,
		Author:                row.Author,
		AverageExternalRating: copyFloat(row.AverageExternalRating),
		PublicationYear:       copyInt(row.PublicationYear),
		PageCount:             copyFloat(row.PageCount),
		MemberRatings:         make(map[string]*float64, len(row.MemberRatings)),
	}
	for member, rating := range row.MemberRatings {
		entry.MemberRatings[member] = copyFloat(rating)
	}
	return entry
}

// warnDuplicates surfaces duplicate folded titles on either side. A repeated
// meeting-log title (the club discussed a book twice) or a repeated pivot
// title fans the join out silently, so name the keys for a human to review.
func (m *Matcher) warnDuplicates(meetings []domain.Meeting, right map[string][]*domain.PivotRow) {
	leftCount := make(map[string]int, len(meetings))
	for _, meeting := range meetings {
		leftCount[domain.FoldKey(meeting.Title)]++
	}

	var dupes []string
	for key, n := range leftCount {
		if n > 1 {
			dupes = append(dupes, key)
		}
	}
	for key, rows := range right {
		if len(rows) > 1 {
			dupes = append(dupes, key)
		}
	}
	if len(dupes) == 0 {
		return
	}
	sort.Strings(dupes)
	m.logger.Warn("duplicate titles will fan out in the join", "titles", dupes)
}

func copyFloat(v *float64) *float64 {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}

func copyInt(v *int) *int {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}
