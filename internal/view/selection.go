package view

import (
	"slices"

	"github.com/starford/clovern/internal/models"
)

// Selection is the set of checked application ids.
type Selection struct {
	ids map[string]struct{}
}

// NewSelection returns an empty selection.
func NewSelection() *Selection {
	return &Selection{ids: make(map[string]struct{})}
}

// Len returns the number of selected ids.
func (s *Selection) Len() int { return len(s.ids) }

// Has reports whether id is selected.
func (s *Selection) Has(id string) bool {
	_, ok := s.ids[id]
	return ok
}

// Toggle flips the selection of id.
func (s *Selection) Toggle(id string) {
	if s.Has(id) {
		delete(s.ids, id)
		return
	}
	s.ids[id] = struct{}{}
}

// Clear empties the selection.
func (s *Selection) Clear() {
	clear(s.ids)
}

// Remove drops ids from the selection.
func (s *Selection) Remove(ids ...string) {
	for _, id := range ids {
		delete(s.ids, id)
	}
}

// ToggleAll switches between nothing selected and exactly the rows given.
func (s *Selection) ToggleAll(rows []models.JobApplication) {
	if len(rows) > 0 && s.Len() == len(rows) && s.coversAll(rows) {
		s.Clear()
		return
	}
	s.Clear()
	for _, r := range rows {
		s.ids[r.ID] = struct{}{}
	}
}

func (s *Selection) coversAll(rows []models.JobApplication) bool {
	for _, r := range rows {
		if !s.Has(r.ID) {
			return false
		}
	}
	return true
}

// IDs returns the selected ids in sorted order.
func (s *Selection) IDs() []string {
	out := make([]string, 0, len(s.ids))
	for id := range s.ids {
		out = append(out, id)
	}
	slices.Sort(out)
	return out
}
