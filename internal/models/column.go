package models

import "strings"

// FieldType is the declared type of a custom column.
type FieldType string

const (
	FieldText     FieldType = "text"
	FieldNumber   FieldType = "number"
	FieldDate     FieldType = "date"
	FieldDropdown FieldType = "dropdown"
)

// Valid reports whether t is a known field type.
func (t FieldType) Valid() bool {
	switch t {
	case FieldText, FieldNumber, FieldDate, FieldDropdown:
		return true
	}
	return false
}

// CustomColumnPrefix distinguishes custom column ids from built-in field ids.
const CustomColumnPrefix = "custom_"

// IsCustomColumnID reports whether id names a custom column.
func IsCustomColumnID(id string) bool {
	return strings.HasPrefix(id, CustomColumnPrefix)
}

// CustomColumn is a user-defined extra field.
type CustomColumn struct {
	ID      string    `json:"id"`
	Label   string    `json:"label"`
	Type    FieldType `json:"type"`
	Options []string  `json:"options,omitempty"`
	Visible bool      `json:"visible"`
	Width   int       `json:"width,omitempty"`
}

// Column describes a built-in table column.
type Column struct {
	ID      string `json:"id"`
	Label   string `json:"label"`
	Visible bool   `json:"visible"`
	Width   int    `json:"width,omitempty"`
}

// Built-in field ids.
const (
	FieldCompany     = "company"
	FieldPosition    = "position"
	FieldStatus      = "status"
	FieldDateApplied = "dateApplied"
	FieldDeadline    = "deadline"
	FieldLocation    = "location"
	FieldSalary      = "salary"
	FieldLink        = "link"
	FieldFolderID    = "folderId"
	FieldNotes       = "notes"
	FieldCreatedAt   = "createdAt"
	FieldUpdatedAt   = "updatedAt"
)

// DefaultColumns is the built-in column registry in display order.
var DefaultColumns = []Column{
	{ID: FieldCompany, Label: "Company", Visible: true, Width: 150},
	{ID: FieldPosition, Label: "Position", Visible: true, Width: 180},
	{ID: FieldStatus, Label: "Status", Visible: true, Width: 120},
	{ID: FieldDateApplied, Label: "Date Applied", Visible: true, Width: 120},
	{ID: FieldDeadline, Label: "Deadline", Visible: true, Width: 120},
	{ID: FieldLocation, Label: "Location", Visible: true, Width: 150},
	{ID: FieldSalary, Label: "Salary", Visible: false, Width: 120},
	{ID: FieldLink, Label: "Link", Visible: true, Width: 200},
	{ID: FieldFolderID, Label: "Folder", Visible: true, Width: 120},
	{ID: FieldNotes, Label: "Notes", Visible: true, Width: 250},
}

// DefaultVisibleColumns returns the ids of built-in columns visible by default.
func DefaultVisibleColumns() []string {
	var out []string
	for _, c := range DefaultColumns {
		if c.Visible {
			out = append(out, c.ID)
		}
	}
	return out
}

// BuiltinColumn looks up a built-in column by id.
func BuiltinColumn(id string) (Column, bool) {
	for _, c := range DefaultColumns {
		if c.ID == id {
			return c, true
		}
	}
	return Column{}, false
}

// FieldValue returns the raw text of a built-in field or custom field.
// Missing values come back as the empty string.
func (a JobApplication) FieldValue(id string) string {
	switch id {
	case "id":
		return a.ID
	case FieldCompany:
		return a.Company
	case FieldPosition:
		return a.Position
	case FieldStatus:
		return string(a.Status)
	case FieldLink:
		return a.Link
	case FieldDateApplied:
		return a.DateApplied
	case FieldDeadline:
		return a.Deadline
	case FieldLocation:
		return a.Location
	case FieldSalary:
		return a.Salary
	case FieldNotes:
		return a.Notes
	case FieldFolderID:
		if a.FolderID == nil {
			return ""
		}
		return *a.FolderID
	case FieldCreatedAt:
		return a.CreatedAt
	case FieldUpdatedAt:
		return a.UpdatedAt
	}
	return a.CustomFields[id]
}

// SetFieldValue writes a built-in or custom field from text.
// It reports false for ids that cannot be assigned this way.
func (a *JobApplication) SetFieldValue(id, value string) bool {
	switch id {
	case FieldCompany:
		a.Company = value
	case FieldPosition:
		a.Position = value
	case FieldStatus:
		a.Status = Status(value)
	case FieldLink:
		a.Link = value
	case FieldDateApplied:
		a.DateApplied = value
	case FieldDeadline:
		a.Deadline = value
	case FieldLocation:
		a.Location = value
	case FieldSalary:
		a.Salary = value
	case FieldNotes:
		a.Notes = value
	case FieldFolderID:
		if value == "" {
			a.FolderID = nil
		} else {
			a.FolderID = &value
		}
	default:
		if !IsCustomColumnID(id) {
			return false
		}
		if a.CustomFields == nil {
			a.CustomFields = CustomFields{}
		}
		a.CustomFields[id] = value
	}
	return true
}
