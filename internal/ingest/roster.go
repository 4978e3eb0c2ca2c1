package ingest

import (
	"encoding/json"
	"os"

	"github.com/bookclubapp/bookclub-server/internal/domain"
	"github.com/bookclubapp/bookclub-server/internal/errors"
	"github.com/bookclubapp/bookclub-server/internal/validation"
)

// Roster loads and validates the member roster JSON. The roster is injected
// configuration: it decides which member columns exist and how export files
// map to member names, so a broken roster is fatal.
func (r *Reader) Roster(path string, v *validation.Validator) (*domain.Roster, error) {
	data, err := os.ReadFile(path) //#nosec G304 -- roster path comes from configuration
	if err != nil {
		return nil, errors.NotFoundf("roster file %s does not exist", path)
	}

	var roster domain.Roster
	if err := json.Unmarshal(data, &roster); err != nil {
		return nil, errors.Wrapf(err, errors.CodeParseFailure, "roster %s: invalid JSON", path)
	}
	if err := v.Validate(&roster); err != nil {
		return nil, err
	}
	if err := roster.CheckUnique(); err != nil {
		return nil, errors.Validation(err.Error())
	}

	r.logger.Info("loaded roster", "members", len(roster.Members))
	return &roster, nil
}
