package watcher

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestWatch_TriggersDebouncedCallback(t *testing.T) {
	dir := t.TempDir()
	fired := make(chan struct{}, 1)

	w, err := New(testLogger(), 50*time.Millisecond, func(context.Context) {
		select {
		case fired <- struct{}{}:
		default:
		}
	})
	require.NoError(t, err)
	defer w.Stop()
	require.NoError(t, w.Watch(dir))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go w.Start(ctx)

	// A burst of writes should collapse into one callback.
	for i := 0; i < 3; i++ {
		require.NoError(t, os.WriteFile(filepath.Join(dir, "alice.csv"), []byte("Title\n"), 0o600))
	}

	select {
	case <-fired:
	case <-time.After(5 * time.Second):
		t.Fatal("callback never fired")
	}
}

func TestWatch_IgnoresUnrelatedExtensions(t *testing.T) {
	dir := t.TempDir()
	fired := make(chan struct{}, 1)

	w, err := New(testLogger(), 20*time.Millisecond, func(context.Context) {
		fired <- struct{}{}
	})
	require.NoError(t, err)
	defer w.Stop()
	require.NoError(t, w.Watch(dir))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go w.Start(ctx)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0o600))

	select {
	case <-fired:
		t.Fatal("callback fired for a non-source file")
	case <-time.After(300 * time.Millisecond):
	}
}

func TestWatch_MissingPath(t *testing.T) {
	w, err := New(testLogger(), time.Second, func(context.Context) {})
	require.NoError(t, err)
	defer w.Stop()

	err = w.Watch(filepath.Join(t.TempDir(), "nope"))
	assert.Error(t, err)
}

func TestWatch_FileWatchesParentDir(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bookclub.csv")
	require.NoError(t, os.WriteFile(path, []byte("Nummer\n"), 0o600))

	w, err := New(testLogger(), time.Second, func(context.Context) {})
	require.NoError(t, err)
	defer w.Stop()

	assert.NoError(t, w.Watch(path))
}
