// Package watch reloads the tracker when its document is edited outside the process.
package watch

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/starford/clovern/internal/checksum"
)

// Document is the watched file.
type Document interface {
	Path() string
	// LastChecksum is the checksum of the bytes this process last wrote or read.
	LastChecksum() string
}

// Reloader replaces in-memory state from disk.
type Reloader interface {
	Reload(ctx context.Context) error
}

// Callback is called after a watcher-driven reload.
type Callback func()

// Watch watches the directory holding doc and reloads r whenever the file
// changes, until ctx is cancelled. Bursts of events are collapsed into one
// reload after debounce. Changes whose content matches the last checksum
// seen by this process, including its own saves, are ignored. A removed
// file is ignored as well; the next save recreates it.
func Watch(ctx context.Context, doc Document, r Reloader, debounce time.Duration, logger *slog.Logger, cb Callback) error {
	if debounce <= 0 {
		debounce = 200 * time.Millisecond
	}
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	path := filepath.Clean(doc.Path())
	dir := filepath.Dir(path)
	if err := w.Add(dir); err != nil {
		return err
	}

	logger.Info("watcher: started", slog.String("path", path))

	var reloadTimer *time.Timer
	var reloadCh <-chan time.Time

	scheduleReload := func() {
		if reloadTimer == nil {
			reloadTimer = time.NewTimer(debounce)
			reloadCh = reloadTimer.C
		} else {
			reloadTimer.Reset(debounce)
		}
	}

	for {
		select {
		case <-ctx.Done():
			if reloadTimer != nil {
				reloadTimer.Stop()
			}
			logger.Info("watcher: stopped")
			return nil

		case <-reloadCh:
			reload(ctx, doc, r, path, logger, cb)

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != path {
				continue
			}
			if ev.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Rename) != 0 {
				scheduleReload()
			}

		case watchErr, ok := <-w.Errors:
			if !ok {
				return nil
			}
			logger.Error("watcher: error", slog.String("error", watchErr.Error()))
		}
	}
}

func reload(ctx context.Context, doc Document, r Reloader, path string, logger *slog.Logger, cb Callback) {
	sum, err := checksum.File(path)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			logger.Warn("watcher: read failed", slog.String("path", path), slog.String("error", err.Error()))
		}
		return
	}
	if sum == doc.LastChecksum() {
		return
	}
	if err := r.Reload(ctx); err != nil {
		logger.Warn("watcher: reload failed", slog.String("path", path), slog.String("error", err.Error()))
		return
	}
	logger.Info("watcher: document reloaded", slog.String("path", path))
	if cb != nil {
		cb()
	}
}
