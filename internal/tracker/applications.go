package tracker

import (
	"context"
	"fmt"
	"strings"

	"github.com/starford/clovern/internal/apperr"
	"github.com/starford/clovern/internal/models"
	"github.com/starford/clovern/internal/view"
)

// Applications returns a copy of every application in stored order.
func (s *Store) Applications() []models.JobApplication {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.JobApplication, len(s.apps))
	for i, a := range s.apps {
		out[i] = a.Clone()
	}
	return out
}

// Application returns the application with id.
func (s *Store) Application(id string) (models.JobApplication, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.appIndex(id)
	if i < 0 {
		return models.JobApplication{}, apperr.ErrNotFound
	}
	return s.apps[i].Clone(), nil
}

// CreateApplication appends a new application with a fresh id and timestamps.
// An empty status becomes Wishlist; a folder id that names no folder is stored as unfiled.
func (s *Store) CreateApplication(ctx context.Context, f models.ApplicationFields) (models.JobApplication, error) {
	if f.Status == "" {
		f.Status = models.StatusWishlist
	}
	if !f.Status.Valid() {
		return models.JobApplication{}, fmt.Errorf("%w: unknown status %q", apperr.ErrInvalidInput, f.Status)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.timestamp()
	app := models.JobApplication{
		ID:           s.uniqueID(func(id string) bool { return s.appIndex(id) >= 0 }),
		Company:      f.Company,
		Position:     f.Position,
		Status:       f.Status,
		Link:         f.Link,
		DateApplied:  f.DateApplied,
		Deadline:     f.Deadline,
		Location:     f.Location,
		Salary:       f.Salary,
		Notes:        f.Notes,
		FolderID:     s.folderRef(f.FolderID),
		CreatedAt:    now,
		UpdatedAt:    now,
		CustomFields: pruneCustomFields(f.CustomFields, activeColumns(s.settings)),
	}
	s.apps = append(s.apps, app)
	return app.Clone(), s.commit(ctx, Change{Kind: ApplicationCreated, IDs: []string{app.ID}})
}

// UpdateApplication merges patch into the application with id and refreshes
// updatedAt. An unknown id changes nothing and returns apperr.ErrNotFound.
func (s *Store) UpdateApplication(ctx context.Context, id string, patch models.ApplicationPatch) (models.JobApplication, error) {
	if patch.Status != nil && !patch.Status.Valid() {
		return models.JobApplication{}, fmt.Errorf("%w: unknown status %q", apperr.ErrInvalidInput, *patch.Status)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.appIndex(id)
	if i < 0 {
		return models.JobApplication{}, apperr.ErrNotFound
	}
	updated := patch.Apply(s.apps[i].Clone())
	updated.ID = id
	updated.FolderID = s.folderRef(updated.FolderID)
	updated.CustomFields = pruneCustomFields(updated.CustomFields, activeColumns(s.settings))
	s.touch(&updated)
	s.apps[i] = updated
	return updated.Clone(), s.commit(ctx, Change{Kind: ApplicationUpdated, IDs: []string{id}})
}

// MoveApplication files the application under folderID, or unfiles it when
// folderID is nil. Moving to the current folder is a no-op.
func (s *Store) MoveApplication(ctx context.Context, id string, folderID *string) (models.JobApplication, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.appIndex(id)
	if i < 0 {
		return models.JobApplication{}, apperr.ErrNotFound
	}
	if folderID != nil && s.folderIndex(*folderID) < 0 {
		return models.JobApplication{}, fmt.Errorf("folder %s: %w", *folderID, apperr.ErrNotFound)
	}
	app := s.apps[i]
	if sameRef(app.FolderID, folderID) {
		return app.Clone(), nil
	}
	app = app.Clone()
	app.FolderID = s.folderRef(folderID)
	s.touch(&app)
	s.apps[i] = app
	return app.Clone(), s.commit(ctx, Change{Kind: ApplicationUpdated, IDs: []string{id}})
}

// DeleteApplication removes the application and drops it from the selection.
// An unknown id changes nothing and returns apperr.ErrNotFound.
func (s *Store) DeleteApplication(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.appIndex(id)
	if i < 0 {
		return apperr.ErrNotFound
	}
	s.apps = append(s.apps[:i:i], s.apps[i+1:]...)
	s.session.selection.Remove(id)
	return s.commit(ctx, Change{Kind: ApplicationDeleted, IDs: []string{id}})
}

// BulkDeleteApplications removes every application whose id is listed and
// saves once. It returns how many were removed; nothing is saved when none match.
func (s *Store) BulkDeleteApplications(ctx context.Context, ids []string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.bulkDelete(ctx, ids)
}

// DeleteSelected bulk-deletes the selected applications and clears the selection.
func (s *Store) DeleteSelected(ctx context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ids := s.session.selection.IDs()
	s.session.selection.Clear()
	return s.bulkDelete(ctx, ids)
}

// ClearAllApplications empties the application collection.
func (s *Store) ClearAllApplications(ctx context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ids := make([]string, len(s.apps))
	for i, a := range s.apps {
		ids[i] = a.ID
	}
	return s.bulkDelete(ctx, ids)
}

func (s *Store) bulkDelete(ctx context.Context, ids []string) (int, error) {
	drop := make(map[string]bool, len(ids))
	for _, id := range ids {
		drop[id] = true
	}
	kept := make([]models.JobApplication, 0, len(s.apps))
	var removed []string
	for _, a := range s.apps {
		if drop[a.ID] {
			removed = append(removed, a.ID)
			continue
		}
		kept = append(kept, a)
	}
	if len(removed) == 0 {
		return 0, nil
	}
	s.apps = kept
	s.session.selection.Remove(removed...)
	return len(removed), s.commit(ctx, Change{Kind: ApplicationDeleted, IDs: removed})
}

// ImportApplications appends apps in one step with a single save.
// Ids that are empty or already taken are replaced, and references to unknown
// folders are cleared.
func (s *Store) ImportApplications(ctx context.Context, apps []models.JobApplication) ([]models.JobApplication, error) {
	if len(apps) == 0 {
		return nil, nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	taken := make(map[string]bool, len(s.apps)+len(apps))
	for _, a := range s.apps {
		taken[a.ID] = true
	}
	active := activeColumns(s.settings)
	now := s.timestamp()
	added := make([]models.JobApplication, 0, len(apps))
	ids := make([]string, 0, len(apps))
	for _, a := range apps {
		a = a.Clone()
		if a.ID == "" || taken[a.ID] {
			a.ID = s.uniqueID(func(id string) bool { return taken[id] })
		}
		taken[a.ID] = true
		if !a.Status.Valid() {
			a.Status = models.StatusApplied
		}
		if strings.TrimSpace(a.CreatedAt) == "" {
			a.CreatedAt = now
		}
		if strings.TrimSpace(a.UpdatedAt) == "" {
			a.UpdatedAt = a.CreatedAt
		}
		a.FolderID = s.folderRef(a.FolderID)
		a.CustomFields = pruneCustomFields(a.CustomFields, active)
		added = append(added, a)
		ids = append(ids, a.ID)
	}
	s.apps = append(s.apps, added...)

	out := make([]models.JobApplication, len(added))
	for i, a := range added {
		out[i] = a.Clone()
	}
	return out, s.commit(ctx, Change{Kind: ApplicationsImport, IDs: ids})
}

func (s *Store) appIndex(id string) int {
	for i, a := range s.apps {
		if a.ID == id {
			return i
		}
	}
	return -1
}

// folderRef returns a copy of ref when it names an existing folder, else nil.
func (s *Store) folderRef(ref *string) *string {
	if ref == nil || s.folderIndex(*ref) < 0 {
		return nil
	}
	id := *ref
	return &id
}

// touch refreshes updatedAt, never letting it fall before createdAt.
func (s *Store) touch(a *models.JobApplication) {
	now := s.timestamp()
	if view.ParseTimestamp(now) < view.ParseTimestamp(a.CreatedAt) {
		now = a.CreatedAt
	}
	a.UpdatedAt = now
}

func sameRef(a, b *string) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}
