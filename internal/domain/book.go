package domain

import (
	"sort"
	"time"
)

// BookEntry is one row of the wide per-book table: a meeting-log entry joined
// with the pivoted per-member ratings.
//
// AverageClubRating is derived: it is always the mean of the non-nil member
// ratings at the time of the last merge, recomputed via
// BookTable.RecomputeClubAverages and never edited independently.
type BookEntry struct {
	MeetingIndex int       `json:"meeting_index"`
	MeetingDate  time.Time `json:"date"`
	Title        string    `json:"title"`
	Author       string    `json:"author"`
	SuggestedBy  string    `json:"suggested_by"`
	Location     string    `json:"location"`
	// MemberRatings holds one cell per member column. A missing key and a
	// nil value both mean "no rating"; the table's Members list is the
	// authoritative column set.
	MemberRatings         map[string]*float64 `json:"member_ratings"`
	AverageExternalRating *float64            `json:"average_external_rating,omitempty"`
	AverageClubRating     *float64            `json:"average_club_rating,omitempty"`
	PublicationYear       *int                `json:"publication_year,omitempty"`
	PageCount             *float64            `json:"page_count,omitempty"`
	// Matched reports whether the meeting-log row found a pivot-side match.
	Matched bool `json:"matched"`
}

// BookTable is the wide table: an explicit ordered list of member columns
// plus one entry per book. Member columns are configuration-driven, so they
// are data here rather than struct fields.
type BookTable struct {
	Members []string     `json:"members"`
	Entries []*BookEntry `json:"entries"`
}

// HasMember reports whether name is one of the table's member columns.
func (t *BookTable) HasMember(name string) bool {
	for _, m := range t.Members {
		if m == name {
			return true
		}
	}
	return false
}

// AddMember appends a new member column. Every entry gets a nil cell.
func (t *BookTable) AddMember(name string) {
	if t.HasMember(name) {
		return
	}
	t.Members = append(t.Members, name)
	for _, e := range t.Entries {
		if e.MemberRatings == nil {
			e.MemberRatings = make(map[string]*float64, len(t.Members))
		}
		e.MemberRatings[name] = nil
	}
}

// RecomputeClubAverages sets every entry's AverageClubRating to the
// horizontal mean of its non-nil member cells (nil when no member rated the
// book). This is the single implementation of the derived-aggregate
// invariant; every stage that touches member ratings must call it before
// handing the table on.
func (t *BookTable) RecomputeClubAverages() {
	for _, e := range t.Entries {
		cells := make([]*float64, 0, len(t.Members))
		for _, m := range t.Members {
			cells = append(cells, e.MemberRatings[m])
		}
		e.AverageClubRating = MeanFloat(cells)
	}
}

// Clone returns a deep copy. Pipeline stages receive immutable inputs and
// produce new tables; mutating stages clone first.
func (t *BookTable) Clone() *BookTable {
	clone := &BookTable{
		Members: make([]string, len(t.Members)),
		Entries: make([]*BookEntry, len(t.Entries)),
	}
	copy(clone.Members, t.Members)
	for i, e := range t.Entries {
		entry := *e
		entry.MemberRatings = make(map[string]*float64, len(e.MemberRatings))
		for k, v := range e.MemberRatings {
			if v == nil {
				entry.MemberRatings[k] = nil
				continue
			}
			val := *v
			entry.MemberRatings[k] = &val
		}
		clone.Entries[i] = &entry
	}
	return clone
}

// SortByDate orders entries by meeting date ascending, preserving the input
// order of equal dates so repeated runs stay deterministic.
func (t *BookTable) SortByDate() {
	sort.SliceStable(t.Entries, func(i, j int) bool {
		return t.Entries[i].MeetingDate.Before(t.Entries[j].MeetingDate)
	})
}
