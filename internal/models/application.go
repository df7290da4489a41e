// Package models defines the domain types for the clovern tracker document.
package models

import (
	"encoding/json"
	"fmt"
	"maps"
	"slices"
	"strconv"
	"time"
)

// Status is the pipeline stage of a job application.
type Status string

const (
	StatusWishlist  Status = "Wishlist"
	StatusApplied   Status = "Applied"
	StatusInterview Status = "Interview"
	StatusOffer     Status = "Offer"
	StatusRejected  Status = "Rejected"
)

// Statuses lists every status in display order.
var Statuses = []Status{StatusWishlist, StatusApplied, StatusInterview, StatusOffer, StatusRejected}

// StatusColors maps each status to its badge color.
var StatusColors = map[Status]string{
	StatusApplied:   "#3b82f6",
	StatusInterview: "#f59e0b",
	StatusRejected:  "#ef4444",
	StatusOffer:     "#10b981",
	StatusWishlist:  "#8b5cf6",
}

// Valid reports whether s is one of the known statuses.
func (s Status) Valid() bool {
	for _, v := range Statuses {
		if s == v {
			return true
		}
	}
	return false
}

// Timestamp and date layouts used for every stored time value.
const (
	TimestampLayout = "2006-01-02T15:04:05.000Z07:00"
	DateLayout      = "2006-01-02"
)

// Timestamp formats t as a UTC ISO 8601 datetime string.
func Timestamp(t time.Time) string {
	return t.UTC().Format(TimestampLayout)
}

// Date formats t as an ISO 8601 calendar date in UTC.
func Date(t time.Time) string {
	return t.UTC().Format(DateLayout)
}

// JobApplication is a single tracked application.
type JobApplication struct {
	ID           string       `json:"id"`
	Company      string       `json:"company"`
	Position     string       `json:"position"`
	Status       Status       `json:"status"`
	Link         string       `json:"link"`
	DateApplied  string       `json:"dateApplied"`
	Deadline     string       `json:"deadline"`
	Location     string       `json:"location"`
	Salary       string       `json:"salary"`
	Notes        string       `json:"notes"`
	FolderID     *string      `json:"folderId"`
	CreatedAt    string       `json:"createdAt"`
	UpdatedAt    string       `json:"updatedAt"`
	CustomFields CustomFields `json:"customFields,omitempty"`
	Steps        []Step       `json:"steps,omitempty"`
}

// Clone returns a deep copy so callers never share maps or slices with the store.
func (a JobApplication) Clone() JobApplication {
	out := a
	if a.FolderID != nil {
		id := *a.FolderID
		out.FolderID = &id
	}
	if a.CustomFields != nil {
		out.CustomFields = make(CustomFields, len(a.CustomFields))
		for k, v := range a.CustomFields {
			out.CustomFields[k] = v
		}
	}
	if a.Steps != nil {
		out.Steps = slices.Clone(a.Steps)
	}
	return out
}

// InFolder reports whether the application is filed under folderID.
func (a JobApplication) InFolder(folderID string) bool {
	return a.FolderID != nil && *a.FolderID == folderID
}

// Step is one item of an application's progress checklist.
type Step struct {
	ID        string `json:"id"`
	Label     string `json:"label"`
	Completed bool   `json:"completed"`
}

// DefaultStepLabels seeds a new checklist.
var DefaultStepLabels = []string{
	"Resume submitted",
	"Cover letter written",
	"Application submitted",
	"Follow-up sent",
	"Phone screen scheduled",
	"Interview scheduled",
	"Thank you note sent",
}

// DefaultSteps returns a fresh checklist built from DefaultStepLabels.
func DefaultSteps() []Step {
	steps := make([]Step, len(DefaultStepLabels))
	for i, label := range DefaultStepLabels {
		steps[i] = Step{ID: fmt.Sprintf("step-%d", i), Label: label}
	}
	return steps
}

// CustomFields maps a custom column id to its raw entered value.
//
// Values are always kept as text. Documents written by older clients may hold
// numbers or booleans; those are converted to their string form on decode.
type CustomFields map[string]string

// UnmarshalJSON accepts string, number, boolean, and null values.
func (c *CustomFields) UnmarshalJSON(data []byte) error {
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if raw == nil {
		*c = nil
		return nil
	}
	out := make(CustomFields, len(raw))
	for k, v := range raw {
		switch t := v.(type) {
		case nil:
			continue
		case string:
			out[k] = t
		case float64:
			out[k] = strconv.FormatFloat(t, 'f', -1, 64)
		case bool:
			out[k] = strconv.FormatBool(t)
		default:
			b, err := json.Marshal(t)
			if err != nil {
				return err
			}
			out[k] = string(b)
		}
	}
	*c = out
	return nil
}

// OptionalID distinguishes an absent JSON field from an explicit null.
type OptionalID struct {
	Set   bool
	Value *string
}

// SetID returns an OptionalID assigning id; an empty id means null.
func SetID(id string) OptionalID {
	if id == "" {
		return OptionalID{Set: true}
	}
	return OptionalID{Set: true, Value: &id}
}

// MarshalJSON writes the id or null.
func (o OptionalID) MarshalJSON() ([]byte, error) {
	if o.Value == nil {
		return []byte("null"), nil
	}
	return json.Marshal(*o.Value)
}

// UnmarshalJSON marks the field as present, including for null.
func (o *OptionalID) UnmarshalJSON(data []byte) error {
	o.Set = true
	if string(data) == "null" {
		o.Value = nil
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	if s == "" {
		o.Value = nil
		return nil
	}
	o.Value = &s
	return nil
}

// ApplicationFields holds the user-editable fields of a new application.
type ApplicationFields struct {
	Company      string       `json:"company"`
	Position     string       `json:"position"`
	Status       Status       `json:"status"`
	Link         string       `json:"link"`
	DateApplied  string       `json:"dateApplied"`
	Deadline     string       `json:"deadline"`
	Location     string       `json:"location"`
	Salary       string       `json:"salary"`
	Notes        string       `json:"notes"`
	FolderID     *string      `json:"folderId"`
	CustomFields CustomFields `json:"customFields,omitempty"`
}

// ApplicationPatch is a partial update; nil fields are left untouched.
type ApplicationPatch struct {
	Company      *string      `json:"company,omitempty"`
	Position     *string      `json:"position,omitempty"`
	Status       *Status      `json:"status,omitempty"`
	Link         *string      `json:"link,omitempty"`
	DateApplied  *string      `json:"dateApplied,omitempty"`
	Deadline     *string      `json:"deadline,omitempty"`
	Location     *string      `json:"location,omitempty"`
	Salary       *string      `json:"salary,omitempty"`
	Notes        *string      `json:"notes,omitempty"`
	FolderID     OptionalID   `json:"folderId,omitzero"`
	CustomFields CustomFields `json:"customFields,omitempty"`
	Steps        []Step       `json:"steps,omitempty"`
}

// Apply merges the patch into a and returns the result.
// A non-nil CustomFields or Steps replaces the existing value wholesale.
func (p ApplicationPatch) Apply(a JobApplication) JobApplication {
	set := func(dst *string, src *string) {
		if src != nil {
			*dst = *src
		}
	}
	set(&a.Company, p.Company)
	set(&a.Position, p.Position)
	set(&a.Link, p.Link)
	set(&a.DateApplied, p.DateApplied)
	set(&a.Deadline, p.Deadline)
	set(&a.Location, p.Location)
	set(&a.Salary, p.Salary)
	set(&a.Notes, p.Notes)
	if p.Status != nil {
		a.Status = *p.Status
	}
	if p.FolderID.Set {
		a.FolderID = p.FolderID.Value
	}
	if p.CustomFields != nil {
		a.CustomFields = maps.Clone(p.CustomFields)
	}
	if p.Steps != nil {
		a.Steps = slices.Clone(p.Steps)
	}
	return a
}
