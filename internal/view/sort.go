package view

import (
	"cmp"
	"math"
	"regexp"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/starford/clovern/internal/models"
)

// Sort is the active sort column and direction.
type Sort struct {
	Key  string `json:"key"`
	Desc bool   `json:"desc"`
}

// DefaultSort orders by application date, newest first.
var DefaultSort = Sort{Key: models.FieldDateApplied, Desc: true}

// Toggle returns the sort state after the user clicks column key: the active
// column flips direction, any other column becomes active ascending.
func (s Sort) Toggle(key string) Sort {
	if s.Key == key {
		return Sort{Key: key, Desc: !s.Desc}
	}
	return Sort{Key: key}
}

var dateFields = map[string]bool{
	models.FieldDateApplied: true,
	models.FieldDeadline:    true,
	models.FieldCreatedAt:   true,
	models.FieldUpdatedAt:   true,
}

// key is a coerced sort value; numeric keys compare by num, others by text.
type key struct {
	numeric bool
	num     float64
	text    string
}

func compareKeys(a, b key) int {
	if a.numeric && b.numeric {
		return cmp.Compare(a.num, b.num)
	}
	return strings.Compare(a.text, b.text)
}

// SortApplications sorts apps in place. Equal keys keep their relative order.
func SortApplications(apps []models.JobApplication, s Sort, columns []models.CustomColumn) {
	if s.Key == "" {
		return
	}
	keyOf := keyFunc(s.Key, columns)
	slices.SortStableFunc(apps, func(a, b models.JobApplication) int {
		c := compareKeys(keyOf(a), keyOf(b))
		if s.Desc {
			return -c
		}
		return c
	})
}

func keyFunc(field string, columns []models.CustomColumn) func(models.JobApplication) key {
	if models.IsCustomColumnID(field) {
		var typ models.FieldType
		for _, c := range columns {
			if c.ID == field {
				typ = c.Type
				break
			}
		}
		return func(a models.JobApplication) key {
			raw := a.CustomFields[field]
			switch typ {
			case models.FieldNumber:
				return key{numeric: true, num: ParseNumber(raw)}
			case models.FieldDate:
				return key{numeric: true, num: float64(ParseTimestamp(raw))}
			}
			return key{text: raw}
		}
	}
	if dateFields[field] {
		return func(a models.JobApplication) key {
			return key{numeric: true, num: float64(ParseTimestamp(a.FieldValue(field)))}
		}
	}
	return func(a models.JobApplication) key {
		return key{text: a.FieldValue(field)}
	}
}

var numberPrefix = regexp.MustCompile(`^[+-]?(\d+\.?\d*|\.\d+)([eE][+-]?\d+)?`)

// ParseNumber reads the leading decimal number of s. Text without a numeric
// prefix counts as 0.
func ParseNumber(s string) float64 {
	m := numberPrefix.FindString(strings.TrimSpace(s))
	if m == "" {
		return 0
	}
	f, err := strconv.ParseFloat(m, 64)
	if err != nil || math.IsNaN(f) {
		return 0
	}
	return f
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	models.DateLayout,
	"2006/01/02",
	"01/02/2006",
	"Jan 2, 2006",
	"2 Jan 2006",
}

// ParseTimestamp converts a date or datetime string to Unix milliseconds.
// Empty and unparseable values count as the epoch.
func ParseTimestamp(s string) int64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0
	}
	for _, layout := range timestampLayouts {
		if t, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			return t.UnixMilli()
		}
	}
	return 0
}
