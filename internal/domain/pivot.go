package domain

// PivotRow is one row of the pivoted reviewer table: one distinct
// (title, author, publication year) triple with one rating cell per member.
type PivotRow struct {
	Title                 string              `json:"title"`
	Author                string              `json:"author"`
	PublicationYear       *int                `json:"publication_year,omitempty"`
	AverageExternalRating *float64            `json:"average_external_rating,omitempty"`
	PageCount             *float64            `json:"page_count,omitempty"`
	MemberRatings         map[string]*float64 `json:"member_ratings"`
	AverageClubRating     *float64            `json:"average_club_rating,omitempty"`
}

// PivotTable is the wide reviewer table produced by the pivot stage.
type PivotTable struct {
	Members []string    `json:"members"`
	Rows    []*PivotRow `json:"rows"`
}
