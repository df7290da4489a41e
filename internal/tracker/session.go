package tracker

import (
	"github.com/starford/clovern/internal/apperr"
	"github.com/starford/clovern/internal/models"
	"github.com/starford/clovern/internal/view"
)

// session is the interactive view state: folder context, search, sort, and
// checked rows. It is never persisted.
type session struct {
	folder    *string
	query     string
	sort      view.Sort
	selection *view.Selection
}

func newSession() session {
	return session{sort: defaultSort(), selection: view.NewSelection()}
}

func defaultSort() view.Sort { return view.DefaultSort }

// reset drops state that may no longer be valid after the document is replaced.
func (s *session) reset(folders []models.Folder) {
	if s.folder != nil {
		found := false
		for _, f := range folders {
			if f.ID == *s.folder {
				found = true
				break
			}
		}
		if !found {
			s.folder = nil
		}
	}
	s.selection.Clear()
}

// setFolder changes the folder context; a real change clears the selection.
func (s *session) setFolder(id *string) {
	if sameRef(s.folder, id) {
		return
	}
	if id != nil {
		v := *id
		id = &v
	}
	s.folder = id
	s.selection.Clear()
}

// ViewState is a snapshot of the session for display.
type ViewState struct {
	FolderID *string   `json:"folderId"`
	Query    string    `json:"query"`
	Sort     view.Sort `json:"sort"`
	Selected []string  `json:"selected"`
}

// ViewState returns the current view parameters and selection.
func (s *Store) ViewState() ViewState {
	s.mu.Lock()
	defer s.mu.Unlock()
	var folder *string
	if s.session.folder != nil {
		v := *s.session.folder
		folder = &v
	}
	return ViewState{
		FolderID: folder,
		Query:    s.session.query,
		Sort:     s.session.sort,
		Selected: s.session.selection.IDs(),
	}
}

// SetFolderContext scopes the view to a folder, or to every application when id is nil.
func (s *Store) SetFolderContext(id *string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if id != nil && s.folderIndex(*id) < 0 {
		return apperr.ErrNotFound
	}
	s.session.setFolder(id)
	return nil
}

// SetQuery changes the search text; a real change clears the selection.
func (s *Store) SetQuery(q string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.session.query == q {
		return
	}
	s.session.query = q
	s.session.selection.Clear()
}

// ToggleSort applies a click on the header of column key.
func (s *Store) ToggleSort(key string) view.Sort {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.session.sort = s.session.sort.Toggle(key)
	return s.session.sort
}

// SetSort sets the sort column and direction directly.
func (s *Store) SetSort(sort view.Sort) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.session.sort = sort
}

// Rows computes the rows visible under the current session.
func (s *Store) Rows() []models.JobApplication {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rows()
}

// Query runs the view pipeline with explicit parameters, leaving the session untouched.
func (s *Store) Query(p view.Params) []models.JobApplication {
	s.mu.Lock()
	defer s.mu.Unlock()
	return cloneAll(view.Compute(s.apps, p, s.settings.CustomColumns))
}

func (s *Store) rows() []models.JobApplication {
	return cloneAll(view.Compute(s.apps, view.Params{
		FolderID: s.session.folder,
		Query:    s.session.query,
		Sort:     s.session.sort,
	}, s.settings.CustomColumns))
}

// FolderCounts returns application counts per folder id; "" holds the total.
func (s *Store) FolderCounts() map[string]int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return view.FolderCounts(s.apps)
}

// ToggleSelect checks or unchecks one visible row.
func (s *Store) ToggleSelect(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.appIndex(id) < 0 {
		return apperr.ErrNotFound
	}
	s.session.selection.Toggle(id)
	return nil
}

// ToggleSelectAll switches between no rows and every row of the current view.
func (s *Store) ToggleSelectAll() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.session.selection.ToggleAll(s.rows())
	return s.session.selection.IDs()
}

// ClearSelection unchecks every row.
func (s *Store) ClearSelection() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.session.selection.Clear()
}

// Selected returns the checked application ids.
func (s *Store) Selected() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.session.selection.IDs()
}

func cloneAll(apps []models.JobApplication) []models.JobApplication {
	for i := range apps {
		apps[i] = apps[i].Clone()
	}
	return apps
}
