// Package sheet decodes imported spreadsheets and encodes exports.
package sheet

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/starford/clovern/internal/apperr"
	"github.com/starford/clovern/internal/models"
)

// Format is a supported file encoding.
type Format string

const (
	CSV  Format = "csv"
	XLSX Format = "xlsx"
)

// SheetName is the worksheet written by XLSX exports.
const SheetName = "Applications"

// ParseFormat accepts a format name or a file name with a known extension.
func ParseFormat(s string) (Format, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if ext := filepath.Ext(s); ext != "" {
		s = strings.TrimPrefix(ext, ".")
	}
	switch Format(s) {
	case CSV, XLSX:
		return Format(s), nil
	}
	return "", fmt.Errorf("%w: unsupported format %q", apperr.ErrInvalidInput, s)
}

// ContentType returns the MIME type of f.
func (f Format) ContentType() string {
	if f == XLSX {
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	}
	return "text/csv; charset=utf-8"
}

// Table is a decoded sheet: the first row as headers, every following row
// keyed by header.
type Table struct {
	Headers []string
	Rows    []map[string]string
}

// Decode parses a CSV or XLSX payload; name selects the format by extension.
func Decode(name string, data []byte) (*Table, error) {
	format, err := ParseFormat(name)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: unsupported file type", apperr.ErrDecode, filepath.Base(name))
	}
	var records [][]string
	switch format {
	case CSV:
		records, err = readCSV(data)
	case XLSX:
		records, err = readXLSX(data)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", apperr.ErrDecode, filepath.Base(name), err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("%w: %s: no header row", apperr.ErrDecode, filepath.Base(name))
	}
	return newTable(records), nil
}

func readCSV(data []byte) ([][]string, error) {
	data = bytes.TrimPrefix(data, []byte("\xef\xbb\xbf"))
	r := csv.NewReader(bytes.NewReader(data))
	r.FieldsPerRecord = -1
	r.LazyQuotes = true
	return r.ReadAll()
}

func readXLSX(data []byte) ([][]string, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	defer f.Close()
	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, errors.New("workbook has no sheets")
	}
	return f.GetRows(sheets[0])
}

// newTable keys rows by header. Blank headers are dropped and a repeated
// header keeps its first column. Rows with no content are skipped.
func newTable(records [][]string) *Table {
	t := &Table{}
	cols := make(map[string]int)
	for i, h := range records[0] {
		h = strings.TrimSpace(h)
		if h == "" {
			continue
		}
		if _, dup := cols[h]; dup {
			continue
		}
		cols[h] = i
		t.Headers = append(t.Headers, h)
	}
	for _, rec := range records[1:] {
		row := make(map[string]string, len(t.Headers))
		empty := true
		for _, h := range t.Headers {
			v := ""
			if i := cols[h]; i < len(rec) {
				v = rec[i]
			}
			if strings.TrimSpace(v) != "" {
				empty = false
			}
			row[h] = v
		}
		if !empty {
			t.Rows = append(t.Rows, row)
		}
	}
	return t
}

// Encode writes rows in format. CSV headers are column ids; XLSX headers are
// column labels on the Applications sheet.
func Encode(w io.Writer, format Format, rows []models.JobApplication, columns []models.Column) error {
	switch format {
	case CSV:
		return writeCSV(w, rows, columns)
	case XLSX:
		return writeXLSX(w, rows, columns)
	}
	return fmt.Errorf("%w: unsupported format %q", apperr.ErrInvalidInput, format)
}

func writeCSV(w io.Writer, rows []models.JobApplication, columns []models.Column) error {
	cw := csv.NewWriter(w)
	header := make([]string, len(columns))
	for i, c := range columns {
		header[i] = c.ID
	}
	if err := cw.Write(header); err != nil {
		return err
	}
	for _, a := range rows {
		if err := cw.Write(values(a, columns)); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func writeXLSX(w io.Writer, rows []models.JobApplication, columns []models.Column) error {
	f := excelize.NewFile()
	defer f.Close()
	if err := f.SetSheetName("Sheet1", SheetName); err != nil {
		return err
	}

	header := make([]any, len(columns))
	for i, c := range columns {
		header[i] = c.Label
		if c.Width > 0 {
			name, err := excelize.ColumnNumberToName(i + 1)
			if err != nil {
				return err
			}
			// Column widths are stored in pixels; Excel measures characters.
			if err := f.SetColWidth(SheetName, name, name, float64(c.Width)/7); err != nil {
				return err
			}
		}
	}
	if err := f.SetSheetRow(SheetName, "A1", &header); err != nil {
		return err
	}
	if len(columns) > 0 {
		bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
		if err != nil {
			return err
		}
		if err := f.SetRowStyle(SheetName, 1, 1, bold); err != nil {
			return err
		}
	}

	for r, a := range rows {
		cell, err := excelize.CoordinatesToCellName(1, r+2)
		if err != nil {
			return err
		}
		vals := values(a, columns)
		row := make([]any, len(vals))
		for i, v := range vals {
			row[i] = v
		}
		if err := f.SetSheetRow(SheetName, cell, &row); err != nil {
			return err
		}
	}
	return f.Write(w)
}

func values(a models.JobApplication, columns []models.Column) []string {
	out := make([]string, len(columns))
	for i, c := range columns {
		out[i] = a.FieldValue(c.ID)
	}
	return out
}
