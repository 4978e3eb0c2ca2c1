package domain

import "time"

// MeetingDateFormat is the date layout of the meeting log's Datum column.
const MeetingDateFormat = "01/02/2006"

// Meeting is one row of the club's meeting log: a book that was discussed,
// when, where, and who suggested it.
type Meeting struct {
	Index       int       `json:"index"`
	Date        time.Time `json:"date"`
	Title       string    `json:"title"`
	Author      string    `json:"author"`
	SuggestedBy string    `json:"suggested_by"`
	Location    string    `json:"location"`
}
