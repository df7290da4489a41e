// Package importer maps decoded spreadsheet rows onto job applications.
package importer

import (
	"strings"
	"time"

	"github.com/starford/clovern/internal/models"
	"github.com/starford/clovern/internal/sheet"
)

// Target is an application field a header can be mapped to.
type Target struct {
	ID    string `json:"id"`
	Label string `json:"label"`
}

// Targets lists the built-in columns followed by the given custom columns.
func Targets(custom []models.CustomColumn) []Target {
	out := make([]Target, 0, len(models.DefaultColumns)+len(custom))
	for _, c := range models.DefaultColumns {
		out = append(out, Target{ID: c.ID, Label: c.Label})
	}
	for _, c := range custom {
		out = append(out, Target{ID: c.ID, Label: c.Label})
	}
	return out
}

// Mapping assigns a source header to each mapped field id. A header feeds at
// most one field.
type Mapping map[string]string

// AutoMap proposes a mapping by matching each target's label or id against
// the headers, ignoring case. Only built-in targets are proposed.
func AutoMap(headers []string) Mapping {
	m := Mapping{}
	for _, c := range models.DefaultColumns {
		for _, h := range headers {
			if strings.EqualFold(h, c.Label) || strings.EqualFold(h, c.ID) {
				m.Assign(c.ID, h)
				break
			}
		}
	}
	return m
}

// Assign maps field to header, first clearing header from any other field.
// An empty header unmaps field.
func (m Mapping) Assign(field, header string) {
	for f, h := range m {
		if h == header {
			delete(m, f)
		}
	}
	if header == "" {
		delete(m, field)
		return
	}
	m[field] = header
}

// Materialize builds one application per row. Unmapped fields keep their
// defaults: status Applied, dateApplied today, everything else empty. An
// empty company becomes "Unknown". Ids and timestamps are left for the store.
func Materialize(t *sheet.Table, m Mapping, now time.Time) []models.JobApplication {
	today := models.Date(now)
	out := make([]models.JobApplication, 0, len(t.Rows))
	for _, row := range t.Rows {
		app := models.JobApplication{
			Status:      models.StatusApplied,
			DateApplied: today,
		}
		for field, header := range m {
			v, ok := row[header]
			if !ok || v == "" {
				continue
			}
			app.SetFieldValue(field, v)
		}
		app.Status = ParseStatus(string(app.Status))
		if strings.TrimSpace(app.Company) == "" {
			app.Company = "Unknown"
		}
		out = append(out, app)
	}
	return out
}

// ParseStatus matches s against the known statuses ignoring case and
// surrounding space, falling back to Applied.
func ParseStatus(s string) models.Status {
	s = strings.TrimSpace(s)
	for _, st := range models.Statuses {
		if strings.EqualFold(s, string(st)) {
			return st
		}
	}
	return models.StatusApplied
}
