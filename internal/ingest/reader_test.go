package ingest

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bookclubapp/bookclub-server/internal/domain"
	"github.com/bookclubapp/bookclub-server/internal/errors"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
}

const exportHeader = "Title,Author,My Rating,Average Rating,Original Publication Year,Number of Pages\n"

func TestExports_ReadsAllFiles(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "bob.csv"), exportHeader+
		"Sample Book,Jane Doe,4,4.10,2001,250\n")
	writeFile(t, filepath.Join(dir, "alice.csv"), exportHeader+
		"Sample Book,Jane Doe,5,4.10,2001,250\n"+
		"Another Book,John Smith,3,3.80,1995.0,412\n")

	records, err := NewReader(testLogger()).Exports(dir, false)
	require.NoError(t, err)
	require.Len(t, records, 3)

	// Files read in sorted name order, rows in file order.
	assert.Equal(t, "alice.csv", records[0].SourceFile)
	assert.Equal(t, "Sample Book", records[0].Title)
	assert.Equal(t, "Jane Doe", records[0].Author)
	require.NotNil(t, records[0].Rating)
	assert.Equal(t, 5.0, *records[0].Rating)

	assert.Equal(t, "Another Book", records[1].Title)
	require.NotNil(t, records[1].PublicationYear)
	assert.Equal(t, 1995, *records[1].PublicationYear)
	require.NotNil(t, records[1].PageCount)
	assert.Equal(t, 412, *records[1].PageCount)

	assert.Equal(t, "bob.csv", records[2].SourceFile)
}

func TestExports_ZeroRatingIsUnrated(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "alice.csv"), exportHeader+
		"Unrated Book,Jane Doe,0,4.10,2001,250\n"+
		"Oddly Rated Book,Jane Doe,-1,4.10,2001,250\n")

	records, err := NewReader(testLogger()).Exports(dir, false)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Nil(t, records[0].Rating, "zero rating must normalize to nil")
	assert.Nil(t, records[1].Rating, "negative rating must normalize to nil")
}

func TestExports_CleansWhitespace(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "alice.csv"), exportHeader+
		"  Sample   Book ,  Jane  Doe ,4,4.10,2001,250\n")

	records, err := NewReader(testLogger()).Exports(dir, false)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "Sample Book", records[0].Title)
	assert.Equal(t, "Jane Doe", records[0].Author)
}

func TestExports_MissingDirectory(t *testing.T) {
	_, err := NewReader(testLogger()).Exports(filepath.Join(t.TempDir(), "nope"), false)
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrNotFound))
}

func TestExports_EmptyDirectory(t *testing.T) {
	_, err := NewReader(testLogger()).Exports(t.TempDir(), false)
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrNotFound))
}

func TestExports_MissingColumn(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "alice.csv"),
		"Title,Author,My Rating\nSample Book,Jane Doe,4\n")

	_, err := NewReader(testLogger()).Exports(dir, false)
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrParseFailure))
}

func TestExports_ShelfFilter(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "alice.csv"),
		"Title,Author,My Rating,Average Rating,Original Publication Year,Number of Pages,Exclusive Shelf\n"+
			"Read Book,Jane Doe,4,4.10,2001,250,read\n"+
			"Wishlist Book,John Smith,0,3.90,2010,300,to-read\n")

	records, err := NewReader(testLogger()).Exports(dir, true)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "Read Book", records[0].Title)
}

func TestExports_ShelfFilterRequiresColumn(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "alice.csv"), exportHeader+
		"Sample Book,Jane Doe,4,4.10,2001,250\n")

	_, err := NewReader(testLogger()).Exports(dir, true)
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrParseFailure))
}

const meetingHeader = "Nummer,Datum,Boek,Auteur,Wie heeft gekozen?,Locatie\n"

func TestMeetingLog_Parses(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bookclub.csv")
	writeFile(t, path, meetingHeader+
		"1,03/15/2023,Sample Book,Jane Doe,Alice,Cafe Central\n"+
		"2,05/01/2023,Non-Matching Book,Someone Else,Bob,Alice's place\n")

	meetings, err := NewReader(testLogger()).MeetingLog(path)
	require.NoError(t, err)
	require.Len(t, meetings, 2)

	assert.Equal(t, 1, meetings[0].Index)
	assert.Equal(t, time.Date(2023, time.March, 15, 0, 0, 0, 0, time.UTC), meetings[0].Date)
	assert.Equal(t, "Sample Book", meetings[0].Title)
	assert.Equal(t, "Alice", meetings[0].SuggestedBy)
	assert.Equal(t, "Cafe Central", meetings[0].Location)
}

func TestMeetingLog_BadDateFailsRun(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bookclub.csv")
	writeFile(t, path, meetingHeader+
		"1,15/03/2023,Sample Book,Jane Doe,Alice,Cafe Central\n")

	_, err := NewReader(testLogger()).MeetingLog(path)
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrParseFailure))
}

func TestMeetingLog_MissingFile(t *testing.T) {
	_, err := NewReader(testLogger()).MeetingLog(filepath.Join(t.TempDir(), "nope.csv"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrNotFound))
}

func TestOverrides_AbsentIsOptional(t *testing.T) {
	r := NewReader(testLogger())

	_, err := r.Overrides("")
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrOptionalMissing))

	_, err = r.Overrides(filepath.Join(t.TempDir(), "manual.csv"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrOptionalMissing))
}

func TestOverrides_Parses(t *testing.T) {
	path := filepath.Join(t.TempDir(), "manual.csv")
	writeFile(t, path, "title,author,Alice,Carol\n"+
		"Sample Book,Jane Doe,,3\n"+
		"Another Book,John Smith,2,\n")

	overrides, err := NewReader(testLogger()).Overrides(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"Alice", "Carol"}, overrides.Members)
	require.Len(t, overrides.Rows, 2)

	rows := overrides.Rows[domain.FoldKey("Sample Book")]
	require.Len(t, rows, 1)
	assert.Nil(t, rows[0].Ratings["Alice"])
	require.NotNil(t, rows[0].Ratings["Carol"])
	assert.Equal(t, 3.0, *rows[0].Ratings["Carol"])
}

func TestOverrides_MalformedCellFailsRun(t *testing.T) {
	path := filepath.Join(t.TempDir(), "manual.csv")
	writeFile(t, path, "title,author,Alice\nSample Book,Jane Doe,great\n")

	_, err := NewReader(testLogger()).Overrides(path)
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrParseFailure))
}

func TestOverrides_MissingTitleColumn(t *testing.T) {
	path := filepath.Join(t.TempDir(), "manual.csv")
	writeFile(t, path, "book,Alice\nSample Book,4\n")

	_, err := NewReader(testLogger()).Overrides(path)
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrParseFailure))
}
