package ingest

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bookclubapp/bookclub-server/internal/errors"
	"github.com/bookclubapp/bookclub-server/internal/validation"
)

func TestRoster_Loads(t *testing.T) {
	path := filepath.Join(t.TempDir(), "roster.json")
	writeFile(t, path, `{
		"members": [
			{"index": 0, "name": "Alice", "source_file": "alice.csv", "active": true},
			{"index": 1, "name": "Bob", "source_file": "bob.csv", "active": true},
			{"index": 2, "name": "Carol", "active": false}
		]
	}`)

	roster, err := NewReader(testLogger()).Roster(path, validation.New())
	require.NoError(t, err)
	require.Len(t, roster.Members, 3)
	assert.Equal(t, []string{"Alice", "Bob", "Carol"}, roster.Names())

	mapping := roster.ReviewerMapping()
	assert.Equal(t, "Alice", mapping["alice.csv"])
	_, hasCarol := mapping["Carol"]
	assert.False(t, hasCarol, "members without an export file stay out of the mapping")
}

func TestRoster_MissingFile(t *testing.T) {
	_, err := NewReader(testLogger()).Roster(filepath.Join(t.TempDir(), "nope.json"), validation.New())
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrNotFound))
}

func TestRoster_InvalidJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "roster.json")
	writeFile(t, path, "{not json")

	_, err := NewReader(testLogger()).Roster(path, validation.New())
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrParseFailure))
}

func TestRoster_DuplicateName(t *testing.T) {
	path := filepath.Join(t.TempDir(), "roster.json")
	writeFile(t, path, `{
		"members": [
			{"index": 0, "name": "Alice", "source_file": "alice.csv", "active": true},
			{"index": 1, "name": "Alice", "source_file": "alice2.csv", "active": true}
		]
	}`)

	_, err := NewReader(testLogger()).Roster(path, validation.New())
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrValidation))
}

func TestRoster_EmptyMembers(t *testing.T) {
	path := filepath.Join(t.TempDir(), "roster.json")
	writeFile(t, path, `{"members": []}`)

	_, err := NewReader(testLogger()).Roster(path, validation.New())
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrValidation))
}
