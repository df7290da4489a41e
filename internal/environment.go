package internal

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/starford/clovern/internal/history"
	"github.com/starford/clovern/internal/storage"
	"github.com/starford/clovern/internal/tracker"
)

// environment is the opened document plus its optional snapshot log.
type environment struct {
	file    *storage.JSONFile
	store   *tracker.Store
	history *history.DB // nil when history is disabled
}

// openEnvironment loads the tracker document and, when enabled, wires the
// history recorder as a store observer.
func openEnvironment(ctx context.Context, app *application) (*environment, error) {
	cfg, logger := app.config, app.logger

	if err := os.MkdirAll(filepath.Dir(cfg.Data.Path), 0o755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}
	file, err := storage.NewJSONFile(cfg.Data.Path, logger)
	if err != nil {
		return nil, fmt.Errorf("init storage: %w", err)
	}
	store, err := tracker.Open(ctx, file, tracker.WithLogger(logger))
	if err != nil {
		return nil, fmt.Errorf("open tracker: %w", err)
	}
	env := &environment{file: file, store: store}

	if !cfg.History.Enabled {
		return env, nil
	}
	if err := os.MkdirAll(filepath.Dir(cfg.History.Path), 0o755); err != nil {
		return nil, fmt.Errorf("create history dir: %w", err)
	}
	db, err := history.Open(cfg.History.Path)
	if err != nil {
		return nil, fmt.Errorf("init history: %w", err)
	}
	env.history = db
	rec := history.NewRecorder(db, cfg.History.Keep, logger)
	store.AddObserver(rec.Observe)

	// Baseline so the state before the first edit can be restored.
	if _, err := db.Record(ctx, "document.opened", store.Snapshot()); err != nil {
		logger.Warn("history: baseline snapshot failed", slog.String("error", err.Error()))
	}
	return env, nil
}

func (e *environment) requireHistory() (*history.DB, error) {
	if e.history == nil {
		return nil, errors.New("history is disabled in the configuration")
	}
	return e.history, nil
}

// Close releases the history database.
func (e *environment) Close() error {
	if e.history != nil {
		return e.history.Close()
	}
	return nil
}
