// Package domain contains the core data model for the book club
// reconciliation pipeline: the member roster, long-form rating records, the
// meeting log, and the wide per-book table with its derived aggregates.
package domain

import (
	"fmt"
	"path/filepath"
)

// Member is one club member as configured in the roster.
type Member struct {
	Index int    `json:"index" validate:"gte=0"`
	Name  string `json:"name" validate:"required"`
	// SourceFile is the base name of the member's rating export CSV inside
	// the exports directory. Empty means the member has no automated export
	// and contributes ratings only through manual overrides.
	SourceFile string `json:"source_file,omitempty"`
	Active     bool   `json:"active"`
}

// Roster is the ordered list of club members. Member order drives the column
// order of every wide table the pipeline produces.
type Roster struct {
	Members []Member `json:"members" validate:"required,min=1,dive"`
}

// Names returns all member names in roster order.
func (r *Roster) Names() []string {
	names := make([]string, 0, len(r.Members))
	for _, m := range r.Members {
		names = append(names, m.Name)
	}
	return names
}

// ReviewerMapping maps export file base names to member names. Members
// without a source file are absent from the mapping.
func (r *Roster) ReviewerMapping() map[string]string {
	mapping := make(map[string]string)
	for _, m := range r.Members {
		if m.SourceFile != "" {
			mapping[filepath.Base(m.SourceFile)] = m.Name
		}
	}
	return mapping
}

// CheckUnique verifies that member names and source files are unique.
// The validator handles per-field rules; cross-member uniqueness lives here.
func (r *Roster) CheckUnique() error {
	names := make(map[string]bool, len(r.Members))
	files := make(map[string]bool, len(r.Members))
	for _, m := range r.Members {
		if names[m.Name] {
			return fmt.Errorf("duplicate member name %q in roster", m.Name)
		}
		names[m.Name] = true
		if m.SourceFile == "" {
			continue
		}
		base := filepath.Base(m.SourceFile)
		if files[base] {
			return fmt.Errorf("duplicate source file %q in roster", base)
		}
		files[base] = true
	}
	return nil
}
