package sheet

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/starford/clovern/internal/apperr"
	"github.com/starford/clovern/internal/models"
)

func TestDecodeCSV(t *testing.T) {
	data := "\xef\xbb\xbfCompany,Role,,Company\nGlobex,Engineer,x,dup\n\"Acme, Inc\"\n,\n"
	tbl, err := Decode("apps.csv", []byte(data))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if strings.Join(tbl.Headers, "|") != "Company|Role" {
		t.Errorf("headers = %q", tbl.Headers)
	}
	if len(tbl.Rows) != 2 {
		t.Fatalf("rows = %d, want 2 (blank row skipped)", len(tbl.Rows))
	}
	if tbl.Rows[0]["Company"] != "Globex" || tbl.Rows[0]["Role"] != "Engineer" {
		t.Errorf("row 0 = %v", tbl.Rows[0])
	}
	if tbl.Rows[1]["Company"] != "Acme, Inc" || tbl.Rows[1]["Role"] != "" {
		t.Errorf("row 1 = %v", tbl.Rows[1])
	}
}

func TestDecodeErrors(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"notes.txt", "a,b"},
		{"empty.csv", ""},
		{"broken.xlsx", "not a zip"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode(tt.name, []byte(tt.data))
			if !errors.Is(err, apperr.ErrDecode) {
				t.Fatalf("err = %v, want ErrDecode", err)
			}
		})
	}
}

func sampleRows() ([]models.JobApplication, []models.Column) {
	rows := []models.JobApplication{
		{ID: "1", Company: "Acme, Inc", Position: "SRE", Status: models.StatusApplied,
			CustomFields: models.CustomFields{"custom_1": "high"}},
		{ID: "2", Company: "Globex", Position: "Dev", Status: models.StatusOffer},
	}
	cols := []models.Column{
		{ID: models.FieldCompany, Label: "Company", Width: 150},
		{ID: models.FieldPosition, Label: "Position"},
		{ID: models.FieldStatus, Label: "Status"},
		{ID: "custom_1", Label: "Priority"},
	}
	return rows, cols
}

func TestEncodeCSV(t *testing.T) {
	rows, cols := sampleRows()
	var buf bytes.Buffer
	if err := Encode(&buf, CSV, rows, cols); err != nil {
		t.Fatal(err)
	}
	want := "company,position,status,custom_1\n\"Acme, Inc\",SRE,Applied,high\nGlobex,Dev,Offer,\n"
	if got := buf.String(); got != want {
		t.Errorf("csv = %q, want %q", got, want)
	}
}

func TestEncodeXLSXDecodesBack(t *testing.T) {
	rows, cols := sampleRows()
	var buf bytes.Buffer
	if err := Encode(&buf, XLSX, rows, cols); err != nil {
		t.Fatal(err)
	}
	tbl, err := Decode("export.xlsx", buf.Bytes())
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if strings.Join(tbl.Headers, "|") != "Company|Position|Status|Priority" {
		t.Errorf("headers = %q", tbl.Headers)
	}
	if len(tbl.Rows) != 2 || tbl.Rows[0]["Company"] != "Acme, Inc" || tbl.Rows[0]["Priority"] != "high" {
		t.Errorf("rows = %v", tbl.Rows)
	}
	if tbl.Rows[1]["Priority"] != "" {
		t.Errorf("short row not padded: %v", tbl.Rows[1])
	}
}

func TestParseFormat(t *testing.T) {
	for in, want := range map[string]Format{"csv": CSV, "XLSX": XLSX, "out/data.xlsx": XLSX, "a.CSV": CSV} {
		got, err := ParseFormat(in)
		if err != nil || got != want {
			t.Errorf("ParseFormat(%q) = %q, %v; want %q", in, got, err, want)
		}
	}
	if _, err := ParseFormat("pdf"); !errors.Is(err, apperr.ErrInvalidInput) {
		t.Errorf("err = %v, want ErrInvalidInput", err)
	}
}
