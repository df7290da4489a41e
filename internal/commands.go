package internal

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/starford/clovern/internal/auth"
	"github.com/starford/clovern/internal/history"
	"github.com/starford/clovern/internal/importer"
	"github.com/starford/clovern/internal/mcpserver"
	"github.com/starford/clovern/internal/sheet"
	"github.com/starford/clovern/internal/storage"
	"github.com/starford/clovern/internal/view"
)

// ImportRequest describes a one-shot spreadsheet import.
type ImportRequest struct {
	Path string
	// Mapping overrides the automatic header match, keyed by column id.
	Mapping  map[string]string
	FolderID string
}

// Import appends every row of a CSV or XLSX file to the tracker and returns
// the number of applications added.
func Import(ctx context.Context, req ImportRequest, opts ...Option) (int, error) {
	app, err := newApplication(os.Stderr, opts)
	if err != nil {
		return 0, err
	}
	data, err := os.ReadFile(req.Path)
	if err != nil {
		return 0, fmt.Errorf("read %s: %w", req.Path, err)
	}
	env, err := openEnvironment(ctx, app)
	if err != nil {
		return 0, err
	}
	defer env.Close()

	imports := importer.NewManager(env.store, 0, app.logger)
	s, err := imports.Start(filepath.Base(req.Path), data)
	if err != nil {
		return 0, err
	}
	if len(req.Mapping) > 0 {
		targets := importer.Targets(env.store.Settings().CustomColumns)
		if err := imports.Assign(s.ID, req.Mapping, targets); err != nil {
			return 0, err
		}
	}
	if req.FolderID != "" {
		if _, err := env.store.Folder(req.FolderID); err != nil {
			return 0, fmt.Errorf("folder %s: %w", req.FolderID, err)
		}
		id := req.FolderID
		if err := imports.SetFolder(s.ID, &id); err != nil {
			return 0, err
		}
	}
	added, err := imports.Confirm(ctx, s.ID)
	return len(added), err
}

// ExportRequest selects the rows and format of an export.
type ExportRequest struct {
	Path string
	// Format is csv or xlsx; empty derives it from the file extension.
	Format   string
	FolderID string
	Search   string
}

// Export writes the matching applications with the visible columns and
// returns the number of rows written.
func Export(ctx context.Context, req ExportRequest, opts ...Option) (int, error) {
	app, err := newApplication(os.Stderr, opts)
	if err != nil {
		return 0, err
	}
	name := req.Format
	if name == "" {
		name = filepath.Ext(req.Path)
	}
	format, err := sheet.ParseFormat(name)
	if err != nil {
		return 0, err
	}
	env, err := openEnvironment(ctx, app)
	if err != nil {
		return 0, err
	}
	defer env.Close()

	p := view.Params{Query: req.Search, Sort: view.DefaultSort}
	if req.FolderID != "" {
		if _, err := env.store.Folder(req.FolderID); err != nil {
			return 0, fmt.Errorf("folder %s: %w", req.FolderID, err)
		}
		p.FolderID = &req.FolderID
	}
	rows := env.store.Query(p)

	var buf bytes.Buffer
	if err := sheet.Encode(&buf, format, rows, view.VisibleColumns(env.store.Settings())); err != nil {
		return 0, err
	}
	if err := storage.WriteFile(req.Path, buf.Bytes()); err != nil {
		return 0, err
	}
	app.logger.Info("export written", slog.String("path", req.Path), slog.Int("rows", len(rows)))
	return len(rows), nil
}

// ServeMCP serves the tracker tools over stdin/stdout. Logs go to stderr so
// they never interleave with protocol messages.
func ServeMCP(ctx context.Context, opts ...Option) error {
	app, err := newApplication(os.Stderr, opts)
	if err != nil {
		return err
	}
	env, err := openEnvironment(ctx, app)
	if err != nil {
		return err
	}
	defer env.Close()

	app.logger.Info("MCP server starting", slog.String("data_path", env.file.Path()))
	return mcpserver.New(env.store, app.version).ServeStdio()
}

// ListHistory returns the newest snapshots, newest first.
func ListHistory(ctx context.Context, limit int, opts ...Option) ([]history.Snapshot, error) {
	app, err := newApplication(os.Stderr, opts)
	if err != nil {
		return nil, err
	}
	if !app.config.History.Enabled {
		return nil, fmt.Errorf("history is disabled in the configuration")
	}
	db, err := history.Open(app.config.History.Path)
	if err != nil {
		return nil, err
	}
	defer db.Close()
	return db.List(ctx, limit)
}

// RestoreHistory replaces the tracker document with snapshot id and saves it.
// The restore itself is recorded as a new snapshot.
func RestoreHistory(ctx context.Context, id int64, opts ...Option) error {
	app, err := newApplication(os.Stderr, opts)
	if err != nil {
		return err
	}
	env, err := openEnvironment(ctx, app)
	if err != nil {
		return err
	}
	defer env.Close()

	db, err := env.requireHistory()
	if err != nil {
		return err
	}
	snap, err := db.Get(ctx, id)
	if err != nil {
		return fmt.Errorf("snapshot %d: %w", id, err)
	}
	if err := env.store.Restore(ctx, snap.Document); err != nil {
		return err
	}
	app.logger.Info("history restored",
		slog.Int64("id", id),
		slog.String("kind", snap.Kind),
		slog.Int("applications", snap.Applications))
	return nil
}

// IssueToken signs an API token for subject when auth.mode is jwt. A zero
// ttl uses auth.jwt.ttl.
func IssueToken(subject string, ttl time.Duration, opts ...Option) (string, error) {
	app, err := newApplication(os.Stderr, opts)
	if err != nil {
		return "", err
	}
	cfg := app.config.Auth
	if cfg.Mode != AuthModeJWT {
		return "", fmt.Errorf("auth.mode is %q; tokens can only be issued in %q mode", cfg.Mode, AuthModeJWT)
	}
	if ttl <= 0 {
		ttl = cfg.JWT.TTL
	}
	return auth.NewJWT(cfg.JWT.Secret, cfg.JWT.Issuer).Issue(subject, ttl)
}

// ParseMapping parses column=Header pairs as given on the command line.
func ParseMapping(pairs []string) (map[string]string, error) {
	out := make(map[string]string, len(pairs))
	for _, p := range pairs {
		col, header, ok := strings.Cut(p, "=")
		col = strings.TrimSpace(col)
		if !ok || col == "" {
			return nil, fmt.Errorf("invalid mapping %q: want column=Header", p)
		}
		out[col] = strings.TrimSpace(header)
	}
	return out, nil
}
