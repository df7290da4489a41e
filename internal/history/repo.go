package history

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/starford/clovern/internal/apperr"
	"github.com/starford/clovern/internal/checksum"
	"github.com/starford/clovern/internal/models"
)

// Log defines the snapshot operations used by the recorder and the CLI.
type Log interface {
	Record(ctx context.Context, kind string, doc *models.Document) (bool, error)
	List(ctx context.Context, limit int) ([]Snapshot, error)
	Get(ctx context.Context, id int64) (*Snapshot, error)
	Prune(ctx context.Context, keep int) (int64, error)
	Close() error
}

// Verify *DB satisfies Log at compile time.
var _ Log = (*DB)(nil)

// Snapshot is one recorded document version. Document is only set by Get.
type Snapshot struct {
	ID           int64            `db:"id"`
	Kind         string           `db:"kind"`
	Checksum     string           `db:"checksum"`
	CreatedAt    time.Time        `db:"created_at"`
	Applications int              `db:"apps"`
	Folders      int              `db:"folders"`
	Document     *models.Document `db:"-"`
}

type snapshotRow struct {
	Snapshot
	Data string `db:"document"`
}

// Record stores doc unless it is identical to the latest snapshot.
// It reports whether a row was written.
func (db *DB) Record(ctx context.Context, kind string, doc *models.Document) (bool, error) {
	data, err := json.Marshal(doc)
	if err != nil {
		return false, fmt.Errorf("history: encode document: %w", err)
	}
	sum := checksum.Sum(data)

	var latest string
	err = db.conn.GetContext(ctx, &latest, `SELECT checksum FROM snapshots ORDER BY id DESC LIMIT 1`)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return false, fmt.Errorf("history: latest checksum: %w", err)
	}
	if latest == sum {
		return false, nil
	}

	_, err = db.conn.ExecContext(ctx, `
		INSERT INTO snapshots (kind, checksum, created_at, apps, folders, document)
		VALUES (?, ?, ?, ?, ?, ?)
	`, kind, sum, time.Now().UTC(), len(doc.Applications), len(doc.Folders), string(data))
	if err != nil {
		return false, fmt.Errorf("history: insert snapshot: %w", err)
	}
	return true, nil
}

// List returns the newest snapshots first, without their documents.
// A non-positive limit defaults to 50.
func (db *DB) List(ctx context.Context, limit int) ([]Snapshot, error) {
	if limit <= 0 {
		limit = 50
	}
	var out []Snapshot
	err := db.conn.SelectContext(ctx, &out, `
		SELECT id, kind, checksum, created_at, apps, folders
		FROM snapshots ORDER BY id DESC LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("history: list: %w", err)
	}
	return out, nil
}

// Get returns one snapshot with its decoded document.
func (db *DB) Get(ctx context.Context, id int64) (*Snapshot, error) {
	var row snapshotRow
	err := db.conn.GetContext(ctx, &row, `
		SELECT id, kind, checksum, created_at, apps, folders, document
		FROM snapshots WHERE id = ?
	`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("snapshot %d: %w", id, apperr.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("history: get: %w", err)
	}
	s := row.Snapshot
	s.Document = models.NewDocument()
	if err := json.Unmarshal([]byte(row.Data), s.Document); err != nil {
		return nil, fmt.Errorf("history: decode snapshot %d: %w", id, err)
	}
	return &s, nil
}

// Prune deletes all but the newest keep snapshots and returns how many were removed.
// A non-positive keep disables pruning.
func (db *DB) Prune(ctx context.Context, keep int) (int64, error) {
	if keep <= 0 {
		return 0, nil
	}
	res, err := db.conn.ExecContext(ctx, `
		DELETE FROM snapshots WHERE id NOT IN (
			SELECT id FROM snapshots ORDER BY id DESC LIMIT ?
		)
	`, keep)
	if err != nil {
		return 0, fmt.Errorf("history: prune: %w", err)
	}
	return res.RowsAffected()
}
