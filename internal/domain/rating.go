package domain

import "strings"

// RatingRecord is one long-form row: one member's rating of one book, as read
// from their export file.
//
// A nil Rating means "not rated": the export convention uses 0 for unrated
// shelved books, and the reader normalizes 0, negative, and unparseable
// values to nil so they are excluded from averages while the book row is
// retained. A non-nil Rating is always > 0.
type RatingRecord struct {
	Title  string `json:"title"`
	Author string `json:"author"`
	// SourceFile is the base name of the export file the row came from.
	// The pivot stage maps it to a member name via the roster.
	SourceFile            string   `json:"source_file"`
	Rating                *float64 `json:"rating,omitempty"`
	AverageExternalRating *float64 `json:"average_external_rating,omitempty"`
	PublicationYear       *int     `json:"publication_year,omitempty"`
	PageCount             *int     `json:"page_count,omitempty"`
}

// FoldKey lowercases a join key for case-insensitive comparison. The folded
// form is used only to compare; displayed titles keep their original casing.
func FoldKey(s string) string {
	return strings.ToLower(s)
}

// MeanFloat returns the arithmetic mean of the non-nil values, or nil when
// every value is nil. Zero values count: only nil is "missing".
func MeanFloat(values []*float64) *float64 {
	var sum float64
	var n int
	for _, v := range values {
		if v == nil {
			continue
		}
		sum += *v
		n++
	}
	if n == 0 {
		return nil
	}
	mean := sum / float64(n)
	return &mean
}

// MeanInt returns the mean of the non-nil int values as a float, or nil when
// every value is nil.
func MeanInt(values []*int) *float64 {
	var sum float64
	var n int
	for _, v := range values {
		if v == nil {
			continue
		}
		sum += float64(*v)
		n++
	}
	if n == 0 {
		return nil
	}
	mean := sum / float64(n)
	return &mean
}

// Float returns a pointer to v. Convenience for building records and tests.
func Float(v float64) *float64 { return &v }

// Int returns a pointer to v.
func Int(v int) *int { return &v }
