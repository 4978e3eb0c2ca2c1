// Package watcher monitors the pipeline's source files and triggers a
// refresh when they change.
package watcher

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Watcher watches source paths with fsnotify and calls the refresh callback
// after a debounce window. Spreadsheet applications save files with bursts of
// writes and renames, so events are coalesced rather than acted on one by one.
type Watcher struct {
	watcher  *fsnotify.Watcher
	logger   *slog.Logger
	debounce time.Duration
	onChange func(context.Context)

	mu    sync.Mutex
	timer *time.Timer
}

// New creates a watcher. onChange runs at most once per debounce window.
func New(logger *slog.Logger, debounce time.Duration, onChange func(context.Context)) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create fsnotify watcher: %w", err)
	}
	if debounce <= 0 {
		debounce = 2 * time.Second
	}
	return &Watcher{
		watcher:  fsw,
		logger:   logger,
		debounce: debounce,
		onChange: onChange,
	}, nil
}

// Watch adds a path to be monitored. Files are watched through their parent
// directory so editors that replace-on-save keep being seen.
func (w *Watcher) Watch(path string) error {
	path = filepath.Clean(path)

	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("failed to stat path: %w", err)
	}

	if info.IsDir() {
		return w.watcher.Add(path)
	}
	return w.watcher.Add(filepath.Dir(path))
}

// Start processes events until the context is cancelled.
func (w *Watcher) Start(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			w.handleEvent(ctx, event)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Warn("file watcher error", "error", err)
		}
	}
}

// Stop releases the underlying watcher.
func (w *Watcher) Stop() error {
	w.mu.Lock()
	if w.timer != nil {
		w.timer.Stop()
	}
	w.mu.Unlock()
	return w.watcher.Close()
}

func (w *Watcher) handleEvent(ctx context.Context, event fsnotify.Event) {
	if !relevant(event) {
		return
	}

	w.logger.Debug("source file changed", "path", event.Name, "op", event.Op.String())

	w.mu.Lock()
	defer w.mu.Unlock()
	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.debounce, func() {
		if ctx.Err() != nil {
			return
		}
		w.logger.Info("source files changed, refreshing")
		w.onChange(ctx)
	})
}

// relevant filters events down to content changes of the file types the
// pipeline reads.
func relevant(event fsnotify.Event) bool {
	if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename|fsnotify.Remove) == 0 {
		return false
	}
	ext := strings.ToLower(filepath.Ext(event.Name))
	return ext == ".csv" || ext == ".json"
}
