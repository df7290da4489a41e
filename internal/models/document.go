package models

// Theme defaults applied when a document carries no value.
const (
	DefaultAccentColor              = "#3b82f6"
	DefaultAccentColorHover         = "#2563eb"
	DefaultBackgroundColor          = "#f8f9fa"
	DefaultBackgroundColorSecondary = "#ffffff"
)

// Settings holds the persisted table and theme preferences.
type Settings struct {
	VisibleColumns           []string       `json:"visibleColumns"`
	DarkMode                 *bool          `json:"darkMode,omitempty"`
	CustomColumns            []CustomColumn `json:"customColumns,omitempty"`
	AccentColor              string         `json:"accentColor,omitempty"`
	AccentColorHover         string         `json:"accentColorHover,omitempty"`
	BackgroundColor          string         `json:"backgroundColor,omitempty"`
	BackgroundColorSecondary string         `json:"backgroundColorSecondary,omitempty"`
}

// Theme is the subset of Settings edited from the settings dialog.
type Theme struct {
	DarkMode                 bool   `json:"darkMode"`
	AccentColor              string `json:"accentColor,omitempty"`
	AccentColorHover         string `json:"accentColorHover,omitempty"`
	BackgroundColor          string `json:"backgroundColor,omitempty"`
	BackgroundColorSecondary string `json:"backgroundColorSecondary,omitempty"`
}

// Theme returns the effective theme with defaults filled in.
func (s Settings) Theme() Theme {
	t := Theme{
		DarkMode:                 true,
		AccentColor:              DefaultAccentColor,
		AccentColorHover:         DefaultAccentColorHover,
		BackgroundColor:          DefaultBackgroundColor,
		BackgroundColorSecondary: DefaultBackgroundColorSecondary,
	}
	if s.DarkMode != nil {
		t.DarkMode = *s.DarkMode
	}
	if s.AccentColor != "" {
		t.AccentColor = s.AccentColor
	}
	if s.AccentColorHover != "" {
		t.AccentColorHover = s.AccentColorHover
	}
	if s.BackgroundColor != "" {
		t.BackgroundColor = s.BackgroundColor
	}
	if s.BackgroundColorSecondary != "" {
		t.BackgroundColorSecondary = s.BackgroundColorSecondary
	}
	return t
}

// CustomColumn looks up a custom column by id.
func (s Settings) CustomColumn(id string) (CustomColumn, bool) {
	for _, c := range s.CustomColumns {
		if c.ID == id {
			return c, true
		}
	}
	return CustomColumn{}, false
}

// Document is the whole persisted tracker state.
type Document struct {
	Applications []JobApplication `json:"applications"`
	Folders      []Folder         `json:"folders"`
	Settings     Settings         `json:"settings"`
}

// NewDocument returns the empty document used when nothing is stored yet.
func NewDocument() *Document {
	return &Document{
		Applications: []JobApplication{},
		Folders:      []Folder{},
		Settings:     Settings{VisibleColumns: []string{}},
	}
}

// Clone returns a deep copy of the document.
func (d *Document) Clone() *Document {
	out := &Document{
		Applications: make([]JobApplication, len(d.Applications)),
		Folders:      make([]Folder, len(d.Folders)),
		Settings:     d.Settings,
	}
	for i, a := range d.Applications {
		out.Applications[i] = a.Clone()
	}
	for i, f := range d.Folders {
		if f.Order != nil {
			o := *f.Order
			f.Order = &o
		}
		out.Folders[i] = f
	}
	out.Settings.VisibleColumns = append([]string{}, d.Settings.VisibleColumns...)
	if d.Settings.DarkMode != nil {
		dm := *d.Settings.DarkMode
		out.Settings.DarkMode = &dm
	}
	if d.Settings.CustomColumns != nil {
		out.Settings.CustomColumns = make([]CustomColumn, len(d.Settings.CustomColumns))
		for i, c := range d.Settings.CustomColumns {
			c.Options = append([]string(nil), c.Options...)
			out.Settings.CustomColumns[i] = c
		}
	}
	return out
}
