package api

import (
	"github.com/starford/clovern/internal/models"
	"github.com/starford/clovern/internal/tracker"
	"github.com/starford/clovern/internal/view"
)

// ApplicationListResponse wraps the rows of the current view.
type ApplicationListResponse struct {
	Applications []models.JobApplication `json:"applications"`
	Total        int                     `json:"total"`
}

// MoveRequest files an application under a folder; a null folderId unfiles it.
type MoveRequest struct {
	FolderID *string `json:"folderId"`
}

// StepRequest adds a checklist step.
type StepRequest struct {
	Label string `json:"label"`
}

// BulkDeleteRequest lists ids to delete. With Selected set, the current
// selection is deleted instead.
type BulkDeleteRequest struct {
	IDs      []string `json:"ids"`
	Selected bool     `json:"selected"`
}

// DeletedResponse reports how many applications were removed.
type DeletedResponse struct {
	Deleted int `json:"deleted"`
}

// FolderRequest creates or updates a folder.
type FolderRequest struct {
	Name      string `json:"name"`
	Color     string `json:"color"`
	Wallpaper string `json:"wallpaper"`
}

// FolderListItem is a folder with the number of applications filed in it.
type FolderListItem struct {
	models.Folder
	Count int `json:"count"`
}

// FolderListResponse is the sidebar payload.
type FolderListResponse struct {
	Folders []FolderListItem `json:"folders"`
	Total   int              `json:"total"`
}

// ReorderRequest drops a folder onto the position of TargetID.
type ReorderRequest struct {
	TargetID string `json:"targetId"`
}

// ViewRequest changes the folder context and search query. Absent fields are
// left unchanged; a null folderId shows every application.
type ViewRequest struct {
	FolderID models.OptionalID `json:"folderId,omitzero"`
	Query    *string           `json:"query"`
}

// ViewResponse is everything the table needs to render.
type ViewResponse struct {
	State   tracker.ViewState       `json:"state"`
	Columns []models.Column         `json:"columns"`
	Rows    []models.JobApplication `json:"rows"`
	Counts  map[string]int          `json:"counts"`
}

// SortRequest clicks a column header, or sets the sort outright when Desc is given.
type SortRequest struct {
	Key  string `json:"key"`
	Desc *bool  `json:"desc"`
}

// SortResponse is the sort state after a change.
type SortResponse = view.Sort

// SelectionRequest toggles one row.
type SelectionRequest struct {
	ID string `json:"id"`
}

// SelectionResponse lists the checked rows.
type SelectionResponse struct {
	Selected []string `json:"selected"`
}

// SettingsResponse is the persisted settings plus the resolved theme and columns.
type SettingsResponse struct {
	Settings models.Settings `json:"settings"`
	Theme    models.Theme    `json:"theme"`
	Columns  []models.Column `json:"columns"`
	Builtin  []models.Column `json:"builtin"`
}

// CustomColumnRequest adds a custom column.
type CustomColumnRequest struct {
	Label   string           `json:"label"`
	Type    models.FieldType `json:"type"`
	Options []string         `json:"options"`
}

// MappingRequest reassigns import headers; an empty header unmaps the field.
// A present folderId files every imported row under that folder.
type MappingRequest struct {
	Mapping  map[string]string `json:"mapping"`
	FolderID models.OptionalID `json:"folderId,omitzero"`
}

// ImportResponse reports a confirmed import.
type ImportResponse struct {
	Imported     int                     `json:"imported"`
	Applications []models.JobApplication `json:"applications"`
}
