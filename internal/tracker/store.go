// Package tracker holds the authoritative in-memory tracker state.
//
// Every mutating method applies its change in memory, then commits the whole
// document through the persistence gateway. A failed save is reported as an
// error wrapping apperr.ErrPersist; the in-memory change is kept so the
// caller can retry with Flush.
package tracker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/starford/clovern/internal/apperr"
	"github.com/starford/clovern/internal/models"
	"github.com/starford/clovern/internal/storage"
)

// Change kinds passed to observers.
const (
	ApplicationCreated = "application.created"
	ApplicationUpdated = "application.updated"
	ApplicationDeleted = "application.deleted"
	ApplicationsImport = "application.imported"
	FolderCreated      = "folder.created"
	FolderUpdated      = "folder.updated"
	FolderDeleted      = "folder.deleted"
	FolderReordered    = "folder.reordered"
	SettingsUpdated    = "settings.updated"
	DocumentSaved      = "document.saved"
	DocumentReloaded   = "document.reloaded"
	DocumentRestored   = "document.restored"
)

// Change describes one committed mutation.
type Change struct {
	Kind string   `json:"kind"`
	IDs  []string `json:"ids,omitempty"`
	// Saved is false when the gateway rejected the write.
	Saved bool `json:"saved"`
}

// Observer is called after every commit with a copy of the new document.
type Observer func(ctx context.Context, change Change, doc *models.Document)

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the store logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Store) { s.logger = l }
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// WithIDGenerator overrides how new record ids are produced.
func WithIDGenerator(gen func() string) Option {
	return func(s *Store) { s.newID = gen }
}

// WithObserver registers a commit observer.
func WithObserver(o Observer) Option {
	return func(s *Store) { s.observers = append(s.observers, o) }
}

// Store is the tracker data store plus the interactive view session.
type Store struct {
	gateway   storage.Gateway
	logger    *slog.Logger
	now       func() time.Time
	newID     func() string
	observers []Observer

	mu       sync.Mutex
	apps     []models.JobApplication
	folders  []models.Folder
	settings models.Settings
	session  session
}

// Open loads the document from gateway and returns a ready store.
func Open(ctx context.Context, gateway storage.Gateway, opts ...Option) (*Store, error) {
	doc, err := gateway.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("tracker: load: %w", err)
	}
	return New(doc, gateway, opts...), nil
}

// New builds a store over doc without touching the gateway.
func New(doc *models.Document, gateway storage.Gateway, opts ...Option) *Store {
	s := &Store{
		gateway: gateway,
		logger:  slog.Default(),
		now:     time.Now,
		newID:   uuid.NewString,
		session: newSession(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.replace(doc)
	return s
}

// AddObserver registers o after construction.
func (s *Store) AddObserver(o Observer) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.observers = append(s.observers, o)
}

// Snapshot returns a deep copy of the current document.
func (s *Store) Snapshot() *models.Document {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.document()
}

// Flush saves the current state again, for retrying after a failed save.
func (s *Store) Flush(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.commit(ctx, Change{Kind: DocumentSaved})
}

// Reload replaces the in-memory state with what the gateway returns.
// It does not write anything back. A missing or undecodable document leaves
// the current state in place and returns the error.
func (s *Store) Reload(ctx context.Context) error {
	doc, err := s.gateway.Read(ctx)
	if err != nil {
		s.logger.Warn("reload rejected, keeping current state", slog.String("error", err.Error()))
		return fmt.Errorf("tracker: reload: %w", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.replace(doc)
	s.notify(ctx, Change{Kind: DocumentReloaded, Saved: true})
	return nil
}

// Restore replaces the state with doc and saves it.
func (s *Store) Restore(ctx context.Context, doc *models.Document) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.replace(doc.Clone())
	return s.commit(ctx, Change{Kind: DocumentRestored})
}

func (s *Store) replace(doc *models.Document) {
	doc = normalize(doc, s.uniqueID)
	s.apps = doc.Applications
	s.folders = doc.Folders
	s.settings = doc.Settings
	s.session.reset(s.folders)
}

// document builds the persisted form of the current state. Callers hold mu.
func (s *Store) document() *models.Document {
	return (&models.Document{
		Applications: s.apps,
		Folders:      s.folders,
		Settings:     s.settings,
	}).Clone()
}

// commit saves the whole document and notifies observers. Callers hold mu.
func (s *Store) commit(ctx context.Context, change Change) error {
	doc := s.document()
	err := s.gateway.Save(ctx, doc)
	change.Saved = err == nil
	if err != nil {
		s.logger.Error("save failed",
			slog.String("change", change.Kind),
			slog.String("error", err.Error()))
		err = fmt.Errorf("tracker: %w", errors.Join(apperr.ErrPersist, err))
	} else {
		s.logger.Debug("document saved",
			slog.String("change", change.Kind),
			slog.Int("applications", len(doc.Applications)),
			slog.Int("folders", len(doc.Folders)))
	}
	s.notify(ctx, change)
	return err
}

func (s *Store) notify(ctx context.Context, change Change) {
	if len(s.observers) == 0 {
		return
	}
	doc := s.document()
	for _, o := range s.observers {
		o(ctx, change, doc)
	}
}

// timestamp returns the current time as a stored timestamp string.
func (s *Store) timestamp() string {
	return models.Timestamp(s.now())
}

// uniqueID returns a fresh id not present in taken.
func (s *Store) uniqueID(taken func(string) bool) string {
	for {
		id := s.newID()
		if id != "" && !taken(id) {
			return id
		}
	}
}
