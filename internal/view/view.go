// Package view derives the rows shown in the application table.
//
// Everything here is a pure function of the application list and the view
// parameters: nothing is cached and nothing in the input is mutated, so the
// pipeline can be recomputed on every request.
package view

import (
	"slices"
	"strings"

	"github.com/starford/clovern/internal/models"
)

// Params selects and orders the visible rows.
type Params struct {
	// FolderID scopes the view to one folder; nil shows every application.
	FolderID *string
	Query    string
	Sort     Sort
}

// Compute runs folder scope, text search, and sort in that order and returns
// a new slice. columns supplies the declared types of custom columns.
func Compute(apps []models.JobApplication, p Params, columns []models.CustomColumn) []models.JobApplication {
	out := make([]models.JobApplication, 0, len(apps))
	query := strings.ToLower(p.Query)
	for _, a := range apps {
		if p.FolderID != nil && !a.InFolder(*p.FolderID) {
			continue
		}
		if query != "" && !Matches(a, query) {
			continue
		}
		out = append(out, a)
	}
	SortApplications(out, p.Sort, columns)
	return out
}

// Matches reports whether the lower-cased query occurs in the company,
// position, notes, or location of a.
func Matches(a models.JobApplication, lowerQuery string) bool {
	for _, field := range []string{a.Company, a.Position, a.Notes, a.Location} {
		if strings.Contains(strings.ToLower(field), lowerQuery) {
			return true
		}
	}
	return false
}

// FolderCounts returns the number of applications per folder id. The empty
// key holds the total across all applications.
func FolderCounts(apps []models.JobApplication) map[string]int {
	counts := map[string]int{"": len(apps)}
	for _, a := range apps {
		if a.FolderID != nil {
			counts[*a.FolderID]++
		}
	}
	return counts
}

// VisibleColumns returns the columns shown in the table: visible built-in
// columns in registry order followed by visible custom columns.
func VisibleColumns(s models.Settings) []models.Column {
	visible := s.VisibleColumns
	if len(visible) == 0 {
		visible = models.DefaultVisibleColumns()
	}
	var out []models.Column
	for _, c := range models.DefaultColumns {
		if slices.Contains(visible, c.ID) {
			c.Visible = true
			out = append(out, c)
		}
	}
	for _, c := range s.CustomColumns {
		if c.Visible {
			out = append(out, models.Column{ID: c.ID, Label: c.Label, Visible: true, Width: c.Width})
		}
	}
	return out
}
