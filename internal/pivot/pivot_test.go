package pivot

import (
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bookclubapp/bookclub-server/internal/domain"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testRoster() *domain.Roster {
	return &domain.Roster{Members: []domain.Member{
		{Index: 0, Name: "Alice", SourceFile: "alice.csv", Active: true},
		{Index: 1, Name: "Bob", SourceFile: "bob.csv", Active: true},
		{Index: 2, Name: "Carol", Active: false},
	}}
}

func TestPivot_OneRowPerBook(t *testing.T) {
	records := []domain.RatingRecord{
		{Title: "Sample Book", Author: "Jane Doe", SourceFile: "alice.csv",
			Rating: domain.Float(5), AverageExternalRating: domain.Float(4.1),
			PublicationYear: domain.Int(2001), PageCount: domain.Int(250)},
		{Title: "Sample Book", Author: "Jane Doe", SourceFile: "bob.csv",
			Rating: domain.Float(4), AverageExternalRating: domain.Float(4.1),
			PublicationYear: domain.Int(2001), PageCount: domain.Int(250)},
		{Title: "Another Book", Author: "John Smith", SourceFile: "alice.csv",
			Rating: domain.Float(3), PublicationYear: domain.Int(1995)},
	}

	table := New(testLogger()).Pivot(records, testRoster())

	// Carol has no export file, so she gets no pivot column.
	assert.Equal(t, []string{"Alice", "Bob"}, table.Members)
	require.Len(t, table.Rows, 2)

	sample := table.Rows[0]
	assert.Equal(t, "Sample Book", sample.Title)
	require.NotNil(t, sample.MemberRatings["Alice"])
	assert.Equal(t, 5.0, *sample.MemberRatings["Alice"])
	require.NotNil(t, sample.MemberRatings["Bob"])
	assert.Equal(t, 4.0, *sample.MemberRatings["Bob"])
	require.NotNil(t, sample.AverageClubRating)
	assert.InDelta(t, 4.5, *sample.AverageClubRating, 1e-9)

	another := table.Rows[1]
	assert.Equal(t, "Another Book", another.Title)
	assert.Nil(t, another.MemberRatings["Bob"])
	require.NotNil(t, another.AverageClubRating)
	assert.InDelta(t, 3.0, *another.AverageClubRating, 1e-9)
}

func TestPivot_DuplicateMemberRowsAreAveraged(t *testing.T) {
	records := []domain.RatingRecord{
		{Title: "Sample Book", Author: "Jane Doe", SourceFile: "alice.csv", Rating: domain.Float(5)},
		{Title: "Sample Book", Author: "Jane Doe", SourceFile: "alice.csv", Rating: domain.Float(3)},
	}

	table := New(testLogger()).Pivot(records, testRoster())
	require.Len(t, table.Rows, 1)
	require.NotNil(t, table.Rows[0].MemberRatings["Alice"])
	assert.InDelta(t, 4.0, *table.Rows[0].MemberRatings["Alice"], 1e-9)
}

func TestPivot_CasingVariantsAreOneBook(t *testing.T) {
	// Members type titles however they like in their own exports.
	records := []domain.RatingRecord{
		{Title: "Sample Book", Author: "Jane Doe", SourceFile: "alice.csv", Rating: domain.Float(5)},
		{Title: "sample book", Author: "jane doe", SourceFile: "bob.csv", Rating: domain.Float(4)},
	}

	table := New(testLogger()).Pivot(records, testRoster())
	require.Len(t, table.Rows, 1)

	row := table.Rows[0]
	assert.Equal(t, "Sample Book", row.Title, "first-seen casing wins")
	assert.Equal(t, "Jane Doe", row.Author)
	require.NotNil(t, row.MemberRatings["Alice"])
	assert.Equal(t, 5.0, *row.MemberRatings["Alice"])
	require.NotNil(t, row.MemberRatings["Bob"])
	assert.Equal(t, 4.0, *row.MemberRatings["Bob"])
	require.NotNil(t, row.AverageClubRating)
	assert.InDelta(t, 4.5, *row.AverageClubRating, 1e-9)
}

func TestPivot_UnratedBookKeepsNilAverage(t *testing.T) {
	records := []domain.RatingRecord{
		{Title: "Shelved Book", Author: "Jane Doe", SourceFile: "alice.csv", Rating: nil},
	}

	table := New(testLogger()).Pivot(records, testRoster())
	require.Len(t, table.Rows, 1)
	assert.Nil(t, table.Rows[0].AverageClubRating, "unrated book must average to nil, not zero")
}

func TestPivot_MetadataIsMeanAggregated(t *testing.T) {
	records := []domain.RatingRecord{
		{Title: "Sample Book", Author: "Jane Doe", SourceFile: "alice.csv",
			AverageExternalRating: domain.Float(4.0), PageCount: domain.Int(240)},
		{Title: "Sample Book", Author: "Jane Doe", SourceFile: "bob.csv",
			AverageExternalRating: domain.Float(4.2), PageCount: domain.Int(260)},
	}

	table := New(testLogger()).Pivot(records, testRoster())
	require.Len(t, table.Rows, 1)
	require.NotNil(t, table.Rows[0].AverageExternalRating)
	assert.InDelta(t, 4.1, *table.Rows[0].AverageExternalRating, 1e-9)
	require.NotNil(t, table.Rows[0].PageCount)
	assert.InDelta(t, 250, *table.Rows[0].PageCount, 1e-9)
}

func TestPivot_OrphanFilesAreDropped(t *testing.T) {
	records := []domain.RatingRecord{
		{Title: "Sample Book", Author: "Jane Doe", SourceFile: "stranger.csv", Rating: domain.Float(1)},
	}

	table := New(testLogger()).Pivot(records, testRoster())
	assert.Empty(t, table.Rows)
}

func TestPivot_DistinctYearsStaySeparate(t *testing.T) {
	records := []domain.RatingRecord{
		{Title: "Sample Book", Author: "Jane Doe", SourceFile: "alice.csv",
			Rating: domain.Float(4), PublicationYear: domain.Int(2001)},
		{Title: "Sample Book", Author: "Jane Doe", SourceFile: "bob.csv",
			Rating: domain.Float(2), PublicationYear: domain.Int(2011)},
	}

	table := New(testLogger()).Pivot(records, testRoster())
	assert.Len(t, table.Rows, 2, "different publication years are different editions")
}
