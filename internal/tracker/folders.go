package tracker

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/starford/clovern/internal/apperr"
	"github.com/starford/clovern/internal/models"
)

// Folders returns the folders in display order.
func (s *Store) Folders() []models.Folder {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.document().Folders
}

// Folder returns the folder with id.
func (s *Store) Folder(id string) (models.Folder, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.folderIndex(id)
	if i < 0 {
		return models.Folder{}, apperr.ErrNotFound
	}
	return s.document().Folders[i], nil
}

// CreateFolder appends a folder at the end of the display order.
// The name is trimmed and must not be empty.
func (s *Store) CreateFolder(ctx context.Context, name, color, wallpaper string) (models.Folder, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return models.Folder{}, fmt.Errorf("%w: folder name is required", apperr.ErrInvalidInput)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	order := len(s.folders)
	f := models.Folder{
		ID:        s.uniqueID(func(id string) bool { return s.folderIndex(id) >= 0 }),
		Name:      name,
		Color:     color,
		Wallpaper: wallpaper,
		CreatedAt: s.timestamp(),
		Order:     &order,
	}
	s.folders = append(s.folders, f)
	return f, s.commit(ctx, Change{Kind: FolderCreated, IDs: []string{f.ID}})
}

// UpdateFolder replaces the name, color, and wallpaper of a folder; its rank is unchanged.
func (s *Store) UpdateFolder(ctx context.Context, id, name, color, wallpaper string) (models.Folder, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return models.Folder{}, fmt.Errorf("%w: folder name is required", apperr.ErrInvalidInput)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.folderIndex(id)
	if i < 0 {
		return models.Folder{}, apperr.ErrNotFound
	}
	f := s.folders[i]
	f.Name = name
	f.Color = color
	f.Wallpaper = wallpaper
	s.folders[i] = f
	return s.document().Folders[i], s.commit(ctx, Change{Kind: FolderUpdated, IDs: []string{id}})
}

// SetFolderWallpaper replaces only the wallpaper of a folder.
func (s *Store) SetFolderWallpaper(ctx context.Context, id, wallpaper string) (models.Folder, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.folderIndex(id)
	if i < 0 {
		return models.Folder{}, apperr.ErrNotFound
	}
	s.folders[i].Wallpaper = wallpaper
	return s.document().Folders[i], s.commit(ctx, Change{Kind: FolderUpdated, IDs: []string{id}})
}

// DeleteFolder removes a folder and unfiles every application in it. If the
// folder was the active view context, the view falls back to all applications.
// Both collections are saved in a single commit.
func (s *Store) DeleteFolder(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.folderIndex(id)
	if i < 0 {
		return apperr.ErrNotFound
	}
	s.folders = append(s.folders[:i:i], s.folders[i+1:]...)
	renumber(s.folders)

	ids := []string{id}
	for j := range s.apps {
		if s.apps[j].InFolder(id) {
			s.apps[j].FolderID = nil
			s.touch(&s.apps[j])
			ids = append(ids, s.apps[j].ID)
		}
	}
	if s.session.folder != nil && *s.session.folder == id {
		s.session.setFolder(nil)
	}
	return s.commit(ctx, Change{Kind: FolderDeleted, IDs: ids})
}

// ReorderFolder moves the folder movedID to the position currently held by
// targetID and renumbers every folder 0..N-1. Resolving to the same position
// is a no-op and saves nothing.
func (s *Store) ReorderFolder(ctx context.Context, movedID, targetID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	from := s.folderIndex(movedID)
	if from < 0 {
		return fmt.Errorf("folder %s: %w", movedID, apperr.ErrNotFound)
	}
	to := s.folderIndex(targetID)
	if to < 0 {
		return fmt.Errorf("folder %s: %w", targetID, apperr.ErrNotFound)
	}
	if from == to {
		return nil
	}
	s.folders = moveFolder(s.folders, from, to)
	renumber(s.folders)
	return s.commit(ctx, Change{Kind: FolderReordered, IDs: []string{movedID}})
}

// moveFolder removes the element at from and reinserts it at to.
func moveFolder(folders []models.Folder, from, to int) []models.Folder {
	out := slices.Clone(folders)
	moved := out[from]
	out = slices.Delete(out, from, from+1)
	return slices.Insert(out, to, moved)
}

func (s *Store) folderIndex(id string) int {
	for i, f := range s.folders {
		if f.ID == id {
			return i
		}
	}
	return -1
}
