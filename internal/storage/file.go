package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/starford/clovern/internal/apperr"
	"github.com/starford/clovern/internal/checksum"
	"github.com/starford/clovern/internal/models"
)

// JSONFile implements Gateway backed by a single JSON file on local disk.
type JSONFile struct {
	path   string // absolute path to the document
	logger *slog.Logger

	mu   sync.Mutex
	last string // checksum of the bytes most recently written or read
}

// NewJSONFile creates a gateway for the document at path.
// The file does not need to exist yet; its directory is created on first save.
func NewJSONFile(path string, logger *slog.Logger) (*JSONFile, error) {
	if path == "" {
		return nil, errors.New("storage: document path is required")
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("storage: resolve path: %w", err)
	}
	if info, err := os.Stat(abs); err == nil && info.IsDir() {
		return nil, fmt.Errorf("storage: document path is a directory: %s", abs)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &JSONFile{path: abs, logger: logger}, nil
}

// Path returns the absolute document path.
func (f *JSONFile) Path() string { return f.path }

// LastChecksum returns the checksum of the bytes last written or loaded.
func (f *JSONFile) LastChecksum() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.last
}

// Load reads and decodes the document. A missing, unreadable, or corrupt file
// is treated as "no data yet" and yields the default document.
func (f *JSONFile) Load(ctx context.Context) (*models.Document, error) {
	doc, err := f.Read(ctx)
	switch {
	case err == nil:
		return doc, nil
	case errors.Is(err, apperr.ErrCanceled):
		return nil, err
	case errors.Is(err, apperr.ErrNotFound):
		f.logger.Info("no existing document, starting fresh", slog.String("path", f.path))
	default:
		f.logger.Warn("document unusable, starting fresh",
			slog.String("path", f.path), slog.String("error", err.Error()))
	}
	return models.NewDocument(), nil
}

// Read reads and decodes the document without falling back to the default.
// A missing file wraps apperr.ErrNotFound; unreadable or corrupt bytes wrap
// apperr.ErrDecode.
func (f *JSONFile) Read(ctx context.Context) (*models.Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("storage: load: %w", errors.Join(apperr.ErrCanceled, err))
	}
	data, err := os.ReadFile(f.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("storage: load: %w", errors.Join(apperr.ErrNotFound, err))
		}
		return nil, fmt.Errorf("storage: load: %w", errors.Join(apperr.ErrDecode, err))
	}

	doc := models.NewDocument()
	if err := json.Unmarshal(data, doc); err != nil {
		return nil, fmt.Errorf("storage: decode %s: %w", f.path, errors.Join(apperr.ErrDecode, err))
	}
	if doc.Applications == nil {
		doc.Applications = []models.JobApplication{}
	}
	if doc.Folders == nil {
		doc.Folders = []models.Folder{}
	}
	if doc.Settings.VisibleColumns == nil {
		doc.Settings.VisibleColumns = []string{}
	}

	f.mu.Lock()
	f.last = checksum.Sum(data)
	f.mu.Unlock()

	f.logger.Debug("document loaded",
		slog.String("path", f.path),
		slog.Int("applications", len(doc.Applications)),
		slog.Int("folders", len(doc.Folders)))
	return doc, nil
}

// Save encodes doc and atomically replaces the file.
func (f *JSONFile) Save(ctx context.Context, doc *models.Document) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("storage: save: %w", errors.Join(apperr.ErrCanceled, err))
	}
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("storage: encode document: %w", err)
	}

	// Record the checksum before the rename so a watcher event racing the
	// write already sees it as our own.
	f.mu.Lock()
	prev := f.last
	f.last = checksum.Sum(data)
	f.mu.Unlock()

	if err := WriteFile(f.path, data); err != nil {
		f.mu.Lock()
		f.last = prev
		f.mu.Unlock()
		return err
	}
	return nil
}

// WriteFile atomically writes content: tmp file → fsync → rename.
func WriteFile(path string, content []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("storage: mkdir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".clovern-tmp-*")
	if err != nil {
		return fmt.Errorf("storage: create temp: %w", err)
	}
	tmpName := tmp.Name()

	success := false
	defer func() {
		if !success {
			_ = tmp.Close()
			_ = os.Remove(tmpName)
		}
	}()

	if _, err := tmp.Write(content); err != nil {
		return fmt.Errorf("storage: write temp: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		return fmt.Errorf("storage: fsync: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("storage: close temp: %w", err)
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		return fmt.Errorf("storage: chmod: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("storage: rename: %w", err)
	}
	success = true
	return nil
}
