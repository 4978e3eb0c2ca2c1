// Package pipeline orchestrates the reconciliation run: read sources, pivot,
// match, merge overrides, and write the CSV artifacts.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	gonanoid "github.com/matoous/go-nanoid/v2"

	"github.com/bookclubapp/bookclub-server/internal/config"
	"github.com/bookclubapp/bookclub-server/internal/domain"
	"github.com/bookclubapp/bookclub-server/internal/errors"
	"github.com/bookclubapp/bookclub-server/internal/ingest"
	"github.com/bookclubapp/bookclub-server/internal/match"
	"github.com/bookclubapp/bookclub-server/internal/merge"
	"github.com/bookclubapp/bookclub-server/internal/pivot"
)

// Result is the output of one complete pipeline run. It is immutable once
// returned; re-running with unchanged inputs yields an identical result
// (modulo RunID and GeneratedAt).
type Result struct {
	RunID       string                `json:"run_id"`
	GeneratedAt time.Time             `json:"generated_at"`
	Table       *domain.BookTable     `json:"table"`
	Unmatched   *domain.BookTable     `json:"unmatched"`
	Combined    []domain.RatingRecord `json:"combined"`
}

// Pipeline runs the sequential batch transform. Every stage consumes the
// complete output of the prior stage; no shared mutable state survives a run.
type Pipeline struct {
	cfg      *config.Config
	roster   *domain.Roster
	reader   *ingest.Reader
	engine   *pivot.Engine
	matcher  *match.Matcher
	merger   *merge.Merger
	joinMode match.Mode
	logger   *slog.Logger
}

// New creates a pipeline. The join mode comes from configuration and was
// validated at load time.
func New(cfg *config.Config, roster *domain.Roster, logger *slog.Logger) (*Pipeline, error) {
	mode, err := match.ParseMode(cfg.Pipeline.JoinMode)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeValidation, "pipeline join mode")
	}
	return &Pipeline{
		cfg:      cfg,
		roster:   roster,
		reader:   ingest.NewReader(logger),
		engine:   pivot.New(logger),
		matcher:  match.New(logger),
		merger:   merge.New(logger),
		joinMode: mode,
		logger:   logger,
	}, nil
}

// Run executes the full pipeline. On any fatal error no result is returned:
// callers must never render a partially-built table.
func (p *Pipeline) Run(ctx context.Context) (*Result, error) {
	runID := newRunID()
	log := p.logger.With("run_id", runID)
	start := time.Now()

	// Step 1: read and combine the rating exports.
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	records, err := p.reader.Exports(p.cfg.Sources.ExportsDir, p.cfg.Pipeline.FilterReadShelf)
	if err != nil {
		return nil, errors.Wrapf(err, codeOf(err), "reading rating exports from %s", p.cfg.Sources.ExportsDir)
	}

	// Step 2: pivot to one row per book, one column per member.
	pivoted := p.engine.Pivot(records, p.roster)

	// Step 3: read the meeting log.
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	meetings, err := p.reader.MeetingLog(p.cfg.Sources.MeetingLogPath)
	if err != nil {
		return nil, errors.Wrapf(err, codeOf(err), "reading meeting log %s", p.cfg.Sources.MeetingLogPath)
	}

	// Step 4: match the meeting log against the pivoted data, and derive the
	// unmatched residue with a separate anti join.
	matched := p.matcher.Join(meetings, pivoted, p.joinMode)
	unmatched := p.matcher.Join(meetings, pivoted, match.ModeAnti)

	// Step 5: merge manual overrides. A missing file skips the step; a
	// present but broken file fails the run.
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	overrides, err := p.reader.Overrides(p.cfg.Sources.ManualRatingsPath)
	switch {
	case err == nil:
		matched = p.merger.Apply(matched, overrides)
	case errors.Is(err, errors.ErrOptionalMissing):
		log.Info("manual overrides not provided, skipping merge", "reason", err.Error())
	default:
		return nil, errors.Wrapf(err, codeOf(err), "reading manual overrides %s", p.cfg.Sources.ManualRatingsPath)
	}

	// Step 6: order the unified table by meeting date.
	matched.SortByDate()

	result := &Result{
		RunID:       runID,
		GeneratedAt: time.Now().UTC(),
		Table:       matched,
		Unmatched:   unmatched,
		Combined:    records,
	}

	log.Info("pipeline run complete",
		"books", len(matched.Entries),
		"unmatched", len(unmatched.Entries),
		"raw_records", len(records),
		"duration", time.Since(start),
	)
	return result, nil
}

// newRunID generates a short unique ID for correlating one run's log lines.
func newRunID() string {
	id, err := gonanoid.New()
	if err != nil {
		// Entropy exhaustion is effectively unreachable; fall back to a
		// timestamp rather than failing the run over a log label.
		return fmt.Sprintf("run-%d", time.Now().UnixNano())
	}
	return "run-" + id
}

// codeOf preserves an existing domain error code when wrapping, defaulting
// to INTERNAL for unexpected errors.
func codeOf(err error) errors.Code {
	var domainErr *errors.Error
	if errors.As(err, &domainErr) {
		return domainErr.Code
	}
	return errors.CodeInternal
}
