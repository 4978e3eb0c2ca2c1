package domain

// OverrideRow is one row of the manual-ratings file: a book plus sparse
// per-member ratings typed in by hand.
type OverrideRow struct {
	Title   string              `json:"title"`
	Author  string              `json:"author"`
	Ratings map[string]*float64 `json:"ratings"`
}

// ManualOverrides is the parsed manual-ratings table, indexed by folded
// (lowercased) title. Loaded once per pipeline run, merged, then discarded.
type ManualOverrides struct {
	// Members lists the member columns present in the file, in header order.
	Members []string
	// Rows maps folded titles to override rows. Duplicate titles in the file
	// keep every row; the merger applies them in file order.
	Rows map[string][]*OverrideRow
}

// Empty reports whether the table carries no override data at all.
func (o *ManualOverrides) Empty() bool {
	return o == nil || len(o.Rows) == 0 || len(o.Members) == 0
}
