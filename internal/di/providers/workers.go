package providers

import (
	"context"

	"github.com/samber/do/v2"

	"github.com/bookclubapp/bookclub-server/internal/config"
	"github.com/bookclubapp/bookclub-server/internal/logger"
	"github.com/bookclubapp/bookclub-server/internal/service"
	"github.com/bookclubapp/bookclub-server/internal/watcher"
)

// SourceWatcherHandle wraps the source file watcher with shutdown capability.
type SourceWatcherHandle struct {
	*watcher.Watcher
	cancel context.CancelFunc
}

// Shutdown implements do.Shutdownable.
func (h *SourceWatcherHandle) Shutdown() error {
	if h.Watcher == nil {
		return nil
	}
	h.cancel()
	return h.Watcher.Stop()
}

// ProvideSourceWatcher provides the watcher that re-runs the pipeline when a
// source file changes.
func ProvideSourceWatcher(i do.Injector) (*SourceWatcherHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)
	club := do.MustInvoke[*service.ClubService](i)

	if !cfg.Watch.Enabled {
		log.Info("Source watching disabled by configuration")
		return &SourceWatcherHandle{}, nil
	}

	w, err := watcher.New(log.Logger, cfg.Watch.Debounce, func(ctx context.Context) {
		if _, err := club.Refresh(ctx); err != nil {
			log.Warn("Refresh after source change failed, keeping previous result", "error", err)
		}
	})
	if err != nil {
		return nil, err
	}

	paths := []string{cfg.Sources.ExportsDir, cfg.Sources.MeetingLogPath, cfg.Sources.RosterPath}
	if cfg.Sources.ManualRatingsPath != "" {
		paths = append(paths, cfg.Sources.ManualRatingsPath)
	}
	for _, path := range paths {
		if err := w.Watch(path); err != nil {
			// The overrides file is allowed to not exist yet.
			log.Warn("Not watching source path", "path", path, "error", err)
			continue
		}
		log.Info("Watching source path", "path", path)
	}

	// Start in background
	ctx, cancel := context.WithCancel(context.Background())
	go w.Start(ctx)

	log.Info("Source watcher started", "debounce", cfg.Watch.Debounce)

	return &SourceWatcherHandle{Watcher: w, cancel: cancel}, nil
}
