package tracker

import (
	"context"
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/starford/clovern/internal/apperr"
	"github.com/starford/clovern/internal/models"
)

// Settings returns a copy of the current settings. An empty visible column
// list is reported as the default visible built-in columns.
func (s *Store) Settings() models.Settings {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := s.document().Settings
	if len(out.VisibleColumns) == 0 {
		out.VisibleColumns = models.DefaultVisibleColumns()
	}
	return out
}

// UpdateTheme stores the theme preferences. Empty colors keep their current value.
func (s *Store) UpdateTheme(ctx context.Context, t models.Theme) (models.Theme, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	dark := t.DarkMode
	s.settings.DarkMode = &dark
	if t.AccentColor != "" {
		s.settings.AccentColor = t.AccentColor
	}
	if t.AccentColorHover != "" {
		s.settings.AccentColorHover = t.AccentColorHover
	}
	if t.BackgroundColor != "" {
		s.settings.BackgroundColor = t.BackgroundColor
	}
	if t.BackgroundColorSecondary != "" {
		s.settings.BackgroundColorSecondary = t.BackgroundColorSecondary
	}
	return s.settings.Theme(), s.commit(ctx, Change{Kind: SettingsUpdated})
}

// ToggleColumn shows or hides a built-in column.
func (s *Store) ToggleColumn(ctx context.Context, id string) ([]string, error) {
	if _, ok := models.BuiltinColumn(id); !ok {
		return nil, fmt.Errorf("column %s: %w", id, apperr.ErrNotFound)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	visible := s.settings.VisibleColumns
	if len(visible) == 0 {
		visible = models.DefaultVisibleColumns()
	}
	if i := slices.Index(visible, id); i >= 0 {
		visible = slices.Delete(slices.Clone(visible), i, i+1)
	} else {
		visible = append(slices.Clone(visible), id)
	}
	s.settings.VisibleColumns = visible
	return slices.Clone(visible), s.commit(ctx, Change{Kind: SettingsUpdated})
}

// AddCustomColumn registers a new visible custom column.
// Dropdown options are trimmed and empty ones dropped; other types carry no options.
func (s *Store) AddCustomColumn(ctx context.Context, label string, typ models.FieldType, options []string) (models.CustomColumn, error) {
	label = strings.TrimSpace(label)
	if label == "" {
		return models.CustomColumn{}, fmt.Errorf("%w: column label is required", apperr.ErrInvalidInput)
	}
	if !typ.Valid() {
		return models.CustomColumn{}, fmt.Errorf("%w: unknown field type %q", apperr.ErrInvalidInput, typ)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	col := models.CustomColumn{
		ID:      s.customColumnID(),
		Label:   label,
		Type:    typ,
		Options: cleanOptions(typ, options),
		Visible: true,
		Width:   150,
	}
	s.settings.CustomColumns = append(s.settings.CustomColumns, col)
	return col, s.commit(ctx, Change{Kind: SettingsUpdated, IDs: []string{col.ID}})
}

// UpdateCustomColumns replaces the custom column registry. Values held for
// columns that are no longer registered are dropped from every application.
func (s *Store) UpdateCustomColumns(ctx context.Context, cols []models.CustomColumn) ([]models.CustomColumn, error) {
	seen := make(map[string]bool, len(cols))
	out := make([]models.CustomColumn, 0, len(cols))
	for _, c := range cols {
		c.Label = strings.TrimSpace(c.Label)
		switch {
		case !models.IsCustomColumnID(c.ID):
			return nil, fmt.Errorf("%w: custom column id %q must start with %q", apperr.ErrInvalidInput, c.ID, models.CustomColumnPrefix)
		case seen[c.ID]:
			return nil, fmt.Errorf("%w: duplicate custom column id %q", apperr.ErrInvalidInput, c.ID)
		case c.Label == "":
			return nil, fmt.Errorf("%w: column label is required", apperr.ErrInvalidInput)
		case !c.Type.Valid():
			return nil, fmt.Errorf("%w: unknown field type %q", apperr.ErrInvalidInput, c.Type)
		}
		seen[c.ID] = true
		c.Options = cleanOptions(c.Type, c.Options)
		out = append(out, c)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.settings.CustomColumns = out
	s.pruneAllCustomFields()
	return slices.Clone(out), s.commit(ctx, Change{Kind: SettingsUpdated})
}

// DeleteCustomColumn unregisters a custom column and drops its values.
func (s *Store) DeleteCustomColumn(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := slices.IndexFunc(s.settings.CustomColumns, func(c models.CustomColumn) bool { return c.ID == id })
	if i < 0 {
		return apperr.ErrNotFound
	}
	s.settings.CustomColumns = slices.Delete(slices.Clone(s.settings.CustomColumns), i, i+1)
	s.pruneAllCustomFields()
	if s.session.sort.Key == id {
		s.session.sort = defaultSort()
	}
	return s.commit(ctx, Change{Kind: SettingsUpdated, IDs: []string{id}})
}

// ToggleCustomColumn flips the visibility of a custom column.
func (s *Store) ToggleCustomColumn(ctx context.Context, id string) (models.CustomColumn, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := slices.IndexFunc(s.settings.CustomColumns, func(c models.CustomColumn) bool { return c.ID == id })
	if i < 0 {
		return models.CustomColumn{}, apperr.ErrNotFound
	}
	cols := slices.Clone(s.settings.CustomColumns)
	cols[i].Visible = !cols[i].Visible
	s.settings.CustomColumns = cols
	return cols[i], s.commit(ctx, Change{Kind: SettingsUpdated, IDs: []string{id}})
}

// pruneAllCustomFields drops values for unregistered columns. This is schema
// upkeep, so updatedAt is left alone. Callers hold mu.
func (s *Store) pruneAllCustomFields() {
	active := activeColumns(s.settings)
	for i := range s.apps {
		s.apps[i].CustomFields = pruneCustomFields(s.apps[i].CustomFields, active)
	}
}

// customColumnID returns custom_<unix-ms>, bumped until unique. Callers hold mu.
func (s *Store) customColumnID() string {
	ms := s.now().UnixMilli()
	for {
		id := models.CustomColumnPrefix + strconv.FormatInt(ms, 10)
		if _, taken := s.settings.CustomColumn(id); !taken {
			return id
		}
		ms++
	}
}

func cleanOptions(typ models.FieldType, options []string) []string {
	if typ != models.FieldDropdown {
		return nil
	}
	var out []string
	for _, o := range options {
		if o = strings.TrimSpace(o); o != "" {
			out = append(out, o)
		}
	}
	return out
}
