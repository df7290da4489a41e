package importer

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/starford/clovern/internal/apperr"
	"github.com/starford/clovern/internal/models"
	"github.com/starford/clovern/internal/sheet"
)

// PreviewRows is how many rows a pending import shows before confirmation.
const PreviewRows = 5

// Appender receives the materialized applications of a confirmed import.
type Appender interface {
	ImportApplications(ctx context.Context, apps []models.JobApplication) ([]models.JobApplication, error)
}

// Session is a decoded file waiting for the user to confirm its mapping.
type Session struct {
	ID        string
	Filename  string
	CreatedAt time.Time
	Table     *sheet.Table
	Mapping   Mapping
	FolderID  *string
}

// Preview is the client view of a pending session.
type Preview struct {
	ID       string              `json:"id"`
	Filename string              `json:"filename"`
	Headers  []string            `json:"headers"`
	RowCount int                 `json:"rowCount"`
	Rows     []map[string]string `json:"rows"`
	Mapping  Mapping             `json:"mapping"`
	Targets  []Target            `json:"targets"`
	FolderID *string             `json:"folderId"`
}

// Manager holds pending import sessions in memory.
type Manager struct {
	appender Appender
	logger   *slog.Logger
	maxAge   time.Duration
	now      func() time.Time

	mu       sync.Mutex
	sessions map[string]*Session
}

// NewManager returns a manager whose sessions expire after maxAge; zero keeps them forever.
func NewManager(appender Appender, maxAge time.Duration, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{
		appender: appender,
		logger:   logger,
		maxAge:   maxAge,
		now:      time.Now,
		sessions: make(map[string]*Session),
	}
}

// Start decodes data and opens a session with an auto-mapped proposal.
// Nothing is written to the store.
func (m *Manager) Start(filename string, data []byte) (*Session, error) {
	t, err := sheet.Decode(filename, data)
	if err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sweep()
	s := &Session{
		ID:        uuid.NewString(),
		Filename:  filename,
		CreatedAt: m.now(),
		Table:     t,
		Mapping:   AutoMap(t.Headers),
	}
	m.sessions[s.ID] = s
	m.logger.Info("import started",
		slog.String("id", s.ID),
		slog.String("file", filename),
		slog.Int("rows", len(t.Rows)))
	return s, nil
}

// Preview describes a pending session; custom lists the custom columns offered as targets.
func (m *Manager) Preview(id string, custom []models.CustomColumn) (Preview, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	if !ok {
		return Preview{}, apperr.ErrNotFound
	}
	return s.preview(custom), nil
}

// Assign updates the mapping of a pending session.
func (m *Manager) Assign(id string, assignments map[string]string, targets []Target) error {
	known := make(map[string]bool, len(targets))
	for _, t := range targets {
		known[t.ID] = true
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	if !ok {
		return apperr.ErrNotFound
	}
	headers := make(map[string]bool, len(s.Table.Headers))
	for _, h := range s.Table.Headers {
		headers[h] = true
	}
	used := make(map[string]string, len(assignments))
	for field, header := range assignments {
		if !known[field] {
			return fmt.Errorf("%w: unknown field %q", apperr.ErrInvalidInput, field)
		}
		if header == "" {
			continue
		}
		if !headers[header] {
			return fmt.Errorf("%w: unknown header %q", apperr.ErrInvalidInput, header)
		}
		if other, dup := used[header]; dup {
			return fmt.Errorf("%w: header %q assigned to both %s and %s", apperr.ErrInvalidInput, header, other, field)
		}
		used[header] = field
	}
	for field, header := range assignments {
		s.Mapping.Assign(field, header)
	}
	return nil
}

// SetFolder files every imported application under folderID.
func (m *Manager) SetFolder(id string, folderID *string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	if !ok {
		return apperr.ErrNotFound
	}
	s.FolderID = folderID
	return nil
}

// Confirm materializes the session and appends every row in one store call.
// The session is closed whether or not the append succeeds.
func (m *Manager) Confirm(ctx context.Context, id string) ([]models.JobApplication, error) {
	m.mu.Lock()
	s, ok := m.sessions[id]
	delete(m.sessions, id)
	m.mu.Unlock()
	if !ok {
		return nil, apperr.ErrNotFound
	}

	apps := Materialize(s.Table, s.Mapping, m.now())
	if s.FolderID != nil {
		for i := range apps {
			apps[i].FolderID = s.FolderID
		}
	}
	added, err := m.appender.ImportApplications(ctx, apps)
	m.logger.Info("import confirmed",
		slog.String("id", id),
		slog.Int("applications", len(added)),
		slog.Bool("saved", err == nil))
	return added, err
}

// Cancel discards a pending session.
func (m *Manager) Cancel(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.sessions[id]; !ok {
		return apperr.ErrNotFound
	}
	delete(m.sessions, id)
	return nil
}

// sweep drops expired sessions. Callers hold mu.
func (m *Manager) sweep() {
	if m.maxAge <= 0 {
		return
	}
	cutoff := m.now().Add(-m.maxAge)
	for id, s := range m.sessions {
		if s.CreatedAt.Before(cutoff) {
			delete(m.sessions, id)
		}
	}
}

func (s *Session) preview(custom []models.CustomColumn) Preview {
	n := min(len(s.Table.Rows), PreviewRows)
	mapping := make(Mapping, len(s.Mapping))
	for k, v := range s.Mapping {
		mapping[k] = v
	}
	return Preview{
		ID:       s.ID,
		Filename: s.Filename,
		Headers:  s.Table.Headers,
		RowCount: len(s.Table.Rows),
		Rows:     s.Table.Rows[:n],
		Mapping:  mapping,
		Targets:  Targets(custom),
		FolderID: s.FolderID,
	}
}
