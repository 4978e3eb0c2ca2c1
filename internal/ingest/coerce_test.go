package ingest

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCoerceFloat(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		mode    Mode
		want    *float64
		wantErr bool
	}{
		{name: "plain number", raw: "4.5", mode: Strict, want: floatPtr(4.5)},
		{name: "integer", raw: "3", mode: Strict, want: floatPtr(3)},
		{name: "padded", raw: " 2.0 ", mode: Strict, want: floatPtr(2)},
		{name: "empty is nil", raw: "", mode: Strict, want: nil},
		{name: "blank is nil", raw: "   ", mode: Lenient, want: nil},
		{name: "garbage lenient", raw: "n/a", mode: Lenient, want: nil},
		{name: "garbage strict", raw: "n/a", mode: Strict, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := coerceFloat(tt.raw, tt.mode)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			if tt.want == nil {
				assert.Nil(t, got)
			} else {
				require.NotNil(t, got)
				assert.InDelta(t, *tt.want, *got, 1e-9)
			}
		})
	}
}

func TestCoerceInt(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		mode    Mode
		want    *int
		wantErr bool
	}{
		{name: "plain integer", raw: "2020", mode: Strict, want: intPtr(2020)},
		{name: "whole float", raw: "2020.0", mode: Strict, want: intPtr(2020)},
		{name: "empty is nil", raw: "", mode: Strict, want: nil},
		{name: "fractional lenient", raw: "3.7", mode: Lenient, want: nil},
		{name: "fractional strict", raw: "3.7", mode: Strict, wantErr: true},
		{name: "garbage strict", raw: "unknown", mode: Strict, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := coerceInt(tt.raw, tt.mode)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCoerceDate(t *testing.T) {
	const layout = "01/02/2006"

	got, err := coerceDate("03/15/2023", layout)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2023, time.March, 15, 0, 0, 0, 0, time.UTC), got)

	_, err = coerceDate("15/03/2023", layout)
	require.Error(t, err)

	_, err = coerceDate("", layout)
	require.Error(t, err)

	_, err = coerceDate("not a date", layout)
	require.Error(t, err)
}

func TestCleanText(t *testing.T) {
	assert.Equal(t, "The Left Hand of Darkness", cleanText("  The Left   Hand of\tDarkness "))
	assert.Equal(t, "", cleanText("   "))
	assert.Equal(t, "Dune", cleanText("Dune"))
}

func floatPtr(v float64) *float64 { return &v }

func intPtr(v int) *int { return &v }
