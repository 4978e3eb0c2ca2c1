package pipeline

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/bookclubapp/bookclub-server/internal/domain"
	"github.com/bookclubapp/bookclub-server/internal/errors"
)

// Artifact file names inside the output directory.
const (
	ArtifactProcessed = "processed_books.csv"
	ArtifactUnmatched = "unmatched_books.csv"
	ArtifactCombined  = "combined_ratings.csv"
)

const csvDateFormat = "2006-01-02"

// WriteArtifacts persists the three output tables as CSV files. It is called
// only after a fully successful run, and each file is written to a temp file
// and renamed into place so a crash mid-write never leaves a partial
// artifact behind.
func (p *Pipeline) WriteArtifacts(result *Result) error {
	outDir := p.cfg.Pipeline.OutputDir
	if err := os.MkdirAll(outDir, 0o750); err != nil {
		return errors.Wrapf(err, errors.CodeInternal, "creating output directory %s", outDir)
	}

	artifacts := []struct {
		name string
		rows [][]string
	}{
		{ArtifactProcessed, processedRows(result.Table)},
		{ArtifactUnmatched, unmatchedRows(result.Unmatched)},
		{ArtifactCombined, combinedRows(result.Combined)},
	}
	for _, artifact := range artifacts {
		if err := writeCSVAtomic(filepath.Join(outDir, artifact.name), artifact.rows); err != nil {
			return err
		}
	}

	p.logger.Info("wrote output artifacts", "dir", outDir, "files", len(artifacts))
	return nil
}

// processedRows renders the unified table with its stable column order:
// meeting columns, book metadata, derived aggregates, then one column per
// member in roster order.
func processedRows(table *domain.BookTable) [][]string {
	header := []string{
		"title", "author", "suggested_by", "location", "date",
		"publication_year", "page_count",
		"average_external_rating", "average_club_rating",
	}
	header = append(header, table.Members...)

	rows := [][]string{header}
	for _, e := range table.Entries {
		row := []string{
			e.Title,
			e.Author,
			e.SuggestedBy,
			e.Location,
			e.MeetingDate.Format(csvDateFormat),
			formatInt(e.PublicationYear),
			formatFloat(e.PageCount),
			formatFloat(e.AverageExternalRating),
			formatFloat(e.AverageClubRating),
		}
		for _, m := range table.Members {
			row = append(row, formatFloat(e.MemberRatings[m]))
		}
		rows = append(rows, row)
	}
	return rows
}

func unmatchedRows(table *domain.BookTable) [][]string {
	rows := [][]string{{"index", "date", "title", "author", "suggested_by", "location"}}
	for _, e := range table.Entries {
		rows = append(rows, []string{
			strconv.Itoa(e.MeetingIndex),
			e.MeetingDate.Format(csvDateFormat),
			e.Title,
			e.Author,
			e.SuggestedBy,
			e.Location,
		})
	}
	return rows
}

func combinedRows(records []domain.RatingRecord) [][]string {
	rows := [][]string{{
		"title", "author", "source_file", "rating",
		"average_external_rating", "publication_year", "page_count",
	}}
	for _, r := range records {
		rows = append(rows, []string{
			r.Title,
			r.Author,
			r.SourceFile,
			formatFloat(r.Rating),
			formatFloat(r.AverageExternalRating),
			formatInt(r.PublicationYear),
			formatInt(r.PageCount),
		})
	}
	return rows
}

// writeCSVAtomic writes rows to path via a temp file in the same directory.
func writeCSVAtomic(path string, rows [][]string) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp-*")
	if err != nil {
		return errors.Wrapf(err, errors.CodeInternal, "creating temp file in %s", dir)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath) // no-op after a successful rename

	w := csv.NewWriter(tmp)
	if err := w.WriteAll(rows); err != nil {
		tmp.Close()
		return errors.Wrapf(err, errors.CodeInternal, "writing %s", path)
	}
	w.Flush()
	if err := w.Error(); err != nil {
		tmp.Close()
		return errors.Wrapf(err, errors.CodeInternal, "writing %s", path)
	}
	if err := tmp.Close(); err != nil {
		return errors.Wrapf(err, errors.CodeInternal, "closing %s", tmpPath)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return errors.Wrapf(err, errors.CodeInternal, "renaming %s into place", path)
	}
	return nil
}

func formatFloat(v *float64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatFloat(*v, 'g', -1, 64)
}

func formatInt(v *int) string {
	if v == nil {
		return ""
	}
	return fmt.Sprintf("%d", *v)
}
