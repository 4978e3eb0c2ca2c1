package ingest

import (
	"strconv"
	"strings"
	"time"

	"github.com/bookclubapp/bookclub-server/internal/errors"
)

// Mode selects how a numeric cell coercion failure is handled. The source
// files mix fields that may degrade gracefully (an unparseable page count)
// with fields that must not (a meeting index, an override rating), so the
// mode is explicit per field instead of scattered ad hoc handling.
type Mode int

const (
	// Lenient turns an unparseable cell into nil and keeps the row.
	Lenient Mode = iota
	// Strict turns an unparseable cell into a parse failure for the run.
	Strict
)

// coerceFloat parses a numeric cell. Empty cells are nil in both modes.
func coerceFloat(raw string, mode Mode) (*float64, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return nil, nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		if mode == Lenient {
			return nil, nil
		}
		return nil, errors.ParseFailuref("invalid numeric value %q", raw)
	}
	return &v, nil
}

// coerceInt parses an integer cell. Values recorded as floats ("2020.0")
// are accepted when they are whole.
func coerceInt(raw string, mode Mode) (*int, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return nil, nil
	}
	if v, err := strconv.Atoi(s); err == nil {
		return &v, nil
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil && f == float64(int(f)) {
		v := int(f)
		return &v, nil
	}
	if mode == Lenient {
		return nil, nil
	}
	return nil, errors.ParseFailuref("invalid integer value %q", raw)
}

// coerceDate parses a date cell with the given layout. Dates are always
// strict: a bad meeting date breaks downstream current-book logic, so there
// is no lenient path that yields a zero time.
func coerceDate(raw, layout string) (time.Time, error) {
	s := strings.TrimSpace(raw)
	t, err := time.Parse(layout, s)
	if err != nil {
		return time.Time{}, errors.ParseFailuref("invalid date %q (want %s)", raw, layout)
	}
	return t, nil
}

// cleanText trims leading/trailing whitespace and collapses internal runs of
// whitespace to a single space.
func cleanText(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
