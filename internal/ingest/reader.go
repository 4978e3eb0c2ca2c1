// Package ingest reads the raw source files - per-member rating exports, the
// meeting log, the manual overrides, and the roster - into the normalized
// domain representation.
package ingest

import (
	"encoding/csv"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"

	"github.com/bookclubapp/bookclub-server/internal/domain"
	"github.com/bookclubapp/bookclub-server/internal/errors"
)

// Export file column headers (the external cataloguing service's schema).
const (
	colTitle     = "Title"
	colAuthor    = "Author"
	colMyRating  = "My Rating"
	colAvgRating = "Average Rating"
	colPubYear   = "Original Publication Year"
	colPages     = "Number of Pages"
	colShelf     = "Exclusive Shelf"
)

// Meeting log column headers (the club's spreadsheet schema).
const (
	colNummer  = "Nummer"
	colDatum   = "Datum"
	colBoek    = "Boek"
	colAuteur  = "Auteur"
	colGekozen = "Wie heeft gekozen?"
	colLocatie = "Locatie"
)

const (
	shelfRead   = "read"
	overrideKey = "title"
)

// Reader parses the raw source files.
type Reader struct {
	logger *slog.Logger
}

// NewReader creates a source reader.
func NewReader(logger *slog.Logger) *Reader {
	return &Reader{logger: logger}
}

// header maps column names to indices for one CSV file.
type header map[string]int

func readHeader(records [][]string, path string) (header, error) {
	if len(records) == 0 {
		return nil, errors.ParseFailuref("%s: empty CSV file", filepath.Base(path))
	}
	h := make(header, len(records[0]))
	for i, name := range records[0] {
		h[cleanText(name)] = i
	}
	return h, nil
}

func (h header) get(row []string, col string) string {
	idx, ok := h[col]
	if !ok || idx >= len(row) {
		return ""
	}
	return row[idx]
}

func (h header) require(path string, cols ...string) error {
	for _, col := range cols {
		if _, ok := h[col]; !ok {
			return errors.ParseFailuref("%s: missing required column %q", filepath.Base(path), col)
		}
	}
	return nil
}

func readCSVFile(path string) ([][]string, error) {
	f, err := os.Open(path) //#nosec G304 -- source paths come from configuration
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	// Export files occasionally carry ragged rows; validate per cell instead.
	r.FieldsPerRecord = -1
	records, err := r.ReadAll()
	if err != nil && err != io.EOF {
		return nil, errors.Wrapf(err, errors.CodeParseFailure, "%s: unreadable CSV", filepath.Base(path))
	}
	return records, nil
}

// Exports reads every rating export CSV in dir into long-form records.
//
// A missing directory or a directory without CSV files is a NOT_FOUND: it is
// distinct from a valid but empty result, because it almost always means a
// misconfigured path. Rating-like cells coerce leniently; a zero or negative
// "My Rating" normalizes to nil (the export convention for "not rated").
//
// When filterReadShelf is set, only rows shelved as "read" are kept, and an
// export without the shelf column is a parse failure since the filter cannot
// be applied to it.
func (r *Reader) Exports(dir string, filterReadShelf bool) ([]domain.RatingRecord, error) {
	info, err := os.Stat(dir)
	if err != nil || !info.IsDir() {
		return nil, errors.NotFoundf("exports directory %s does not exist", dir)
	}

	paths, err := filepath.Glob(filepath.Join(dir, "*.csv"))
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeInternal, "globbing exports directory")
	}
	if len(paths) == 0 {
		return nil, errors.NotFoundf("no CSV files found in %s", dir)
	}
	// Deterministic file order regardless of filesystem enumeration.
	sort.Strings(paths)

	var records []domain.RatingRecord
	for _, path := range paths {
		fileRecords, err := r.readExportFile(path, filterReadShelf)
		if err != nil {
			return nil, err
		}
		records = append(records, fileRecords...)
	}

	r.logger.Info("read rating exports",
		"files", len(paths),
		"records", len(records),
	)
	return records, nil
}

func (r *Reader) readExportFile(path string, filterReadShelf bool) ([]domain.RatingRecord, error) {
	rows, err := readCSVFile(path)
	if err != nil {
		return nil, err
	}
	h, err := readHeader(rows, path)
	if err != nil {
		return nil, err
	}
	if err := h.require(path, colTitle, colAuthor, colMyRating, colAvgRating, colPubYear, colPages); err != nil {
		return nil, err
	}
	if filterReadShelf {
		if err := h.require(path, colShelf); err != nil {
			return nil, err
		}
	}

	source := filepath.Base(path)
	records := make([]domain.RatingRecord, 0, len(rows)-1)
	for _, row := range rows[1:] {
		if filterReadShelf && cleanText(h.get(row, colShelf)) != shelfRead {
			continue
		}

		rating, _ := coerceFloat(h.get(row, colMyRating), Lenient)
		// Zero signifies "not actually rated", not a true rating of zero.
		if rating != nil && *rating <= 0 {
			rating = nil
		}
		avgRating, _ := coerceFloat(h.get(row, colAvgRating), Lenient)
		pubYear, _ := coerceInt(h.get(row, colPubYear), Lenient)
		pages, _ := coerceInt(h.get(row, colPages), Lenient)

		records = append(records, domain.RatingRecord{
			Title:                 cleanText(h.get(row, colTitle)),
			Author:                cleanText(h.get(row, colAuthor)),
			SourceFile:            source,
			Rating:                rating,
			AverageExternalRating: avgRating,
			PublicationYear:       pubYear,
			PageCount:             pages,
		})
	}
	return records, nil
}

// MeetingLog reads the club's meeting log. Dates parse strictly: a malformed
// Datum aborts the run, because date correctness drives current-book logic.
func (r *Reader) MeetingLog(path string) ([]domain.Meeting, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, errors.NotFoundf("meeting log %s does not exist", path)
	}

	rows, err := readCSVFile(path)
	if err != nil {
		return nil, err
	}
	h, err := readHeader(rows, path)
	if err != nil {
		return nil, err
	}
	if err := h.require(path, colNummer, colDatum, colBoek, colAuteur, colGekozen, colLocatie); err != nil {
		return nil, err
	}

	meetings := make([]domain.Meeting, 0, len(rows)-1)
	for i, row := range rows[1:] {
		date, err := coerceDate(h.get(row, colDatum), domain.MeetingDateFormat)
		if err != nil {
			return nil, errors.Wrapf(err, errors.CodeParseFailure,
				"meeting log row %d (%s)", i+2, cleanText(h.get(row, colBoek)))
		}
		index, err := coerceInt(h.get(row, colNummer), Strict)
		if err != nil {
			return nil, errors.Wrapf(err, errors.CodeParseFailure, "meeting log row %d", i+2)
		}
		if index == nil {
			return nil, errors.ParseFailuref("meeting log row %d: missing Nummer", i+2)
		}

		meetings = append(meetings, domain.Meeting{
			Index:       *index,
			Date:        date,
			Title:       cleanText(h.get(row, colBoek)),
			Author:      cleanText(h.get(row, colAuteur)),
			SuggestedBy: cleanText(h.get(row, colGekozen)),
			Location:    cleanText(h.get(row, colLocatie)),
		})
	}

	r.logger.Info("read meeting log", "meetings", len(meetings))
	return meetings, nil
}

// Overrides reads the optional manual-ratings file. An absent file (or an
// empty configured path) is OPTIONAL_MISSING so the caller can skip the merge
// step; a present but unreadable file is a parse failure and aborts the run.
func (r *Reader) Overrides(path string) (*domain.ManualOverrides, error) {
	if path == "" {
		return nil, errors.OptionalMissing("no manual ratings file configured")
	}
	if _, err := os.Stat(path); err != nil {
		return nil, errors.OptionalMissingf("manual ratings file %s does not exist", path)
	}

	rows, err := readCSVFile(path)
	if err != nil {
		return nil, err
	}
	h, err := readHeader(rows, path)
	if err != nil {
		return nil, err
	}
	if _, ok := h[overrideKey]; !ok {
		return nil, errors.ParseFailuref("%s: missing required column %q", filepath.Base(path), overrideKey)
	}

	// Member columns are everything in the header besides title/author, in
	// header order.
	var members []string
	memberIdx := make(map[string]int)
	for i, name := range rows[0] {
		clean := cleanText(name)
		if clean == "title" || clean == "author" || clean == "" {
			continue
		}
		members = append(members, clean)
		memberIdx[clean] = i
	}

	overrides := &domain.ManualOverrides{
		Members: members,
		Rows:    make(map[string][]*domain.OverrideRow),
	}
	for i, row := range rows[1:] {
		title := cleanText(h.get(row, "title"))
		if title == "" {
			return nil, errors.ParseFailuref("%s: row %d has no title", filepath.Base(path), i+2)
		}
		ratings := make(map[string]*float64, len(members))
		for _, m := range members {
			idx := memberIdx[m]
			var cell string
			if idx < len(row) {
				cell = row[idx]
			}
			v, err := coerceFloat(cell, Strict)
			if err != nil {
				return nil, errors.Wrapf(err, errors.CodeParseFailure,
					"%s: row %d column %q", filepath.Base(path), i+2, m)
			}
			ratings[m] = v
		}
		key := domain.FoldKey(title)
		overrides.Rows[key] = append(overrides.Rows[key], &domain.OverrideRow{
			Title:   title,
			Author:  cleanText(h.get(row, "author")),
			Ratings: ratings,
		})
	}

	r.logger.Info("read manual overrides",
		"rows", len(rows)-1,
		"member_columns", len(members),
	)
	return overrides, nil
}
