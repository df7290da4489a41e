package storage

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/starford/clovern/internal/apperr"
	"github.com/starford/clovern/internal/checksum"
	"github.com/starford/clovern/internal/models"
)

func tempDocument(t *testing.T) *JSONFile {
	t.Helper()
	f, err := NewJSONFile(filepath.Join(t.TempDir(), "data", "job-applications.json"), nil)
	if err != nil {
		t.Fatalf("NewJSONFile: %v", err)
	}
	return f
}

func TestLoad_MissingFileReturnsDefault(t *testing.T) {
	f := tempDocument(t)
	doc, err := f.Load(context.Background())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if doc.Applications == nil || len(doc.Applications) != 0 {
		t.Errorf("applications = %v, want empty", doc.Applications)
	}
	if doc.Folders == nil || len(doc.Folders) != 0 {
		t.Errorf("folders = %v, want empty", doc.Folders)
	}
	if doc.Settings.VisibleColumns == nil {
		t.Error("visibleColumns should be an empty list, not nil")
	}
}

func TestLoad_CorruptFileReturnsDefault(t *testing.T) {
	f := tempDocument(t)
	if err := os.MkdirAll(filepath.Dir(f.Path()), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(f.Path(), []byte("{not json"), 0o644); err != nil {
		t.Fatal(err)
	}
	doc, err := f.Load(context.Background())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(doc.Applications) != 0 || len(doc.Folders) != 0 {
		t.Errorf("expected empty document, got %+v", doc)
	}
}

func TestRead_RejectsMissingAndCorrupt(t *testing.T) {
	f := tempDocument(t)
	if _, err := f.Read(context.Background()); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("Read missing err = %v, want ErrNotFound", err)
	}

	if err := os.MkdirAll(filepath.Dir(f.Path()), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(f.Path(), []byte(`{"applications":[{"id":"x","comp`), 0o644); err != nil {
		t.Fatal(err)
	}
	doc, err := f.Read(context.Background())
	if !errors.Is(err, apperr.ErrDecode) {
		t.Errorf("Read corrupt err = %v, want ErrDecode", err)
	}
	if doc != nil {
		t.Errorf("Read corrupt doc = %+v, want nil", doc)
	}
	if f.LastChecksum() != "" {
		t.Errorf("LastChecksum = %q after a failed read, want empty", f.LastChecksum())
	}
}

func TestSaveAndLoad_RoundTrip(t *testing.T) {
	f := tempDocument(t)
	folderID := "f1"
	order := 0
	dark := false
	doc := &models.Document{
		Applications: []models.JobApplication{
			{
				ID: "a1", Company: "Acme", Position: "Engineer", Status: models.StatusApplied,
				DateApplied: "2024-01-01", FolderID: &folderID,
				CreatedAt: "2024-01-01T10:00:00.000Z", UpdatedAt: "2024-01-02T10:00:00.000Z",
				CustomFields: models.CustomFields{"custom_1": "42"},
				Steps:        models.DefaultSteps(),
			},
			{ID: "a2", Company: "Globex", Status: models.StatusWishlist},
		},
		Folders: []models.Folder{
			{ID: "f1", Name: "Dream", Color: "#3b82f6", CreatedAt: "2024-01-01T00:00:00.000Z", Order: &order},
		},
		Settings: models.Settings{
			VisibleColumns: []string{"company", "status"},
			DarkMode:       &dark,
			CustomColumns:  []models.CustomColumn{{ID: "custom_1", Label: "Rounds", Type: models.FieldNumber, Visible: true}},
		},
	}
	if err := f.Save(context.Background(), doc); err != nil {
		t.Fatalf("Save: %v", err)
	}
	got, err := f.Load(context.Background())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !reflect.DeepEqual(got.Applications, doc.Applications) {
		t.Errorf("applications mismatch:\n got  %+v\n want %+v", got.Applications, doc.Applications)
	}
	if !reflect.DeepEqual(got.Folders, doc.Folders) {
		t.Errorf("folders mismatch:\n got  %+v\n want %+v", got.Folders, doc.Folders)
	}
	if !reflect.DeepEqual(got.Settings, doc.Settings) {
		t.Errorf("settings mismatch:\n got  %+v\n want %+v", got.Settings, doc.Settings)
	}
}

func TestSave_TracksChecksumAndLeavesNoTempFiles(t *testing.T) {
	f := tempDocument(t)
	if err := f.Save(context.Background(), models.NewDocument()); err != nil {
		t.Fatalf("Save: %v", err)
	}
	sum, err := checksum.File(f.Path())
	if err != nil {
		t.Fatal(err)
	}
	if f.LastChecksum() != sum {
		t.Errorf("LastChecksum = %q, want %q", f.LastChecksum(), sum)
	}
	matches, _ := filepath.Glob(filepath.Join(filepath.Dir(f.Path()), ".clovern-tmp-*"))
	if len(matches) != 0 {
		t.Errorf("leftover temp files: %v", matches)
	}
}

func TestSave_FailureKeepsPreviousChecksum(t *testing.T) {
	dir := t.TempDir()
	blocker := filepath.Join(dir, "blocker")
	if err := os.WriteFile(blocker, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	// The parent of the document is a regular file, so MkdirAll fails.
	f, err := NewJSONFile(filepath.Join(blocker, "doc.json"), nil)
	if err != nil {
		t.Fatalf("NewJSONFile: %v", err)
	}
	if err := f.Save(context.Background(), models.NewDocument()); err == nil {
		t.Fatal("expected save error")
	}
	if f.LastChecksum() != "" {
		t.Errorf("LastChecksum = %q, want empty after failed save", f.LastChecksum())
	}
}

func TestNewJSONFile_RejectsDirectory(t *testing.T) {
	if _, err := NewJSONFile(t.TempDir(), nil); err == nil {
		t.Error("expected error when path is a directory")
	}
}

func TestWriteFile_Overwrites(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.csv")
	if err := WriteFile(path, []byte("one")); err != nil {
		t.Fatal(err)
	}
	if err := WriteFile(path, []byte("two")); err != nil {
		t.Fatal(err)
	}
	got, _ := os.ReadFile(path)
	if string(got) != "two" {
		t.Errorf("content = %q, want two", got)
	}
}

func TestCanceledContext(t *testing.T) {
	f := tempDocument(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := f.Load(ctx); !errors.Is(err, apperr.ErrCanceled) || !errors.Is(err, context.Canceled) {
		t.Errorf("Load err = %v, want ErrCanceled wrapping context.Canceled", err)
	}
	if err := f.Save(ctx, models.NewDocument()); !errors.Is(err, apperr.ErrCanceled) {
		t.Errorf("Save err = %v, want ErrCanceled", err)
	}
	if _, err := os.Stat(f.Path()); !os.IsNotExist(err) {
		t.Errorf("canceled save wrote the document: %v", err)
	}
}
