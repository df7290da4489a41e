package history

import (
	"context"
	"log/slog"

	"github.com/starford/clovern/internal/models"
	"github.com/starford/clovern/internal/tracker"
)

// Recorder snapshots every saved change and trims old snapshots.
type Recorder struct {
	log    Log
	keep   int
	logger *slog.Logger
}

// NewRecorder returns a recorder keeping at most keep snapshots.
func NewRecorder(log Log, keep int, logger *slog.Logger) *Recorder {
	if logger == nil {
		logger = slog.Default()
	}
	return &Recorder{log: log, keep: keep, logger: logger}
}

// Observe records doc after a saved change. Its signature matches tracker.Observer.
// Changes that were not written are skipped.
func (r *Recorder) Observe(ctx context.Context, change tracker.Change, doc *models.Document) {
	if !change.Saved {
		return
	}
	wrote, err := r.log.Record(ctx, change.Kind, doc)
	if err != nil {
		r.logger.Warn("history: record failed", slog.String("change", change.Kind), slog.String("error", err.Error()))
		return
	}
	if !wrote {
		return
	}
	if n, err := r.log.Prune(ctx, r.keep); err != nil {
		r.logger.Warn("history: prune failed", slog.String("error", err.Error()))
	} else if n > 0 {
		r.logger.Debug("history: pruned", slog.Int64("removed", n))
	}
}
