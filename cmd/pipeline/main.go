// Package main runs the reconciliation pipeline once and writes the CSV
// artifacts, for cron jobs and local inspection.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/bookclubapp/bookclub-server/internal/config"
	"github.com/bookclubapp/bookclub-server/internal/ingest"
	"github.com/bookclubapp/bookclub-server/internal/logger"
	"github.com/bookclubapp/bookclub-server/internal/pipeline"
	"github.com/bookclubapp/bookclub-server/internal/validation"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(logger.Config{
		Level:       logger.ParseLevel(cfg.Logger.Level),
		AddSource:   cfg.App.Environment == "development",
		Environment: cfg.App.Environment,
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	reader := ingest.NewReader(log.Logger)
	roster, err := reader.Roster(cfg.Sources.RosterPath, validation.New())
	if err != nil {
		log.Fatal("Failed to load roster", "error", err)
	}

	p, err := pipeline.New(cfg, roster, log.Logger)
	if err != nil {
		log.Fatal("Failed to create pipeline", "error", err)
	}

	result, err := p.Run(ctx)
	if err != nil {
		log.Fatal("Pipeline run failed", "error", err)
	}
	if err := p.WriteArtifacts(result); err != nil {
		log.Fatal("Writing artifacts failed", "error", err)
	}

	log.Info("Done",
		"run_id", result.RunID,
		"books", len(result.Table.Entries),
		"unmatched", len(result.Unmatched.Entries),
		"output_dir", cfg.Pipeline.OutputDir,
	)
}
