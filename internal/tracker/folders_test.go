package tracker

import (
	"context"
	"errors"
	"testing"

	"github.com/starford/clovern/internal/apperr"
	"github.com/starford/clovern/internal/models"
)

func folderIDs(s *Store) []string {
	var out []string
	for _, f := range s.Folders() {
		out = append(out, f.ID)
	}
	return out
}

func seedFolders(t *testing.T, s *Store, names ...string) []models.Folder {
	t.Helper()
	var out []models.Folder
	for _, n := range names {
		f, err := s.CreateFolder(context.Background(), n, "#10b981", "")
		if err != nil {
			t.Fatalf("CreateFolder(%q): %v", n, err)
		}
		out = append(out, f)
	}
	return out
}

func TestCreateFolderRequiresName(t *testing.T) {
	s, gw := testStore(t, nil)
	_, err := s.CreateFolder(context.Background(), "   ", "", "")
	if !errors.Is(err, apperr.ErrInvalidInput) {
		t.Fatalf("err = %v, want ErrInvalidInput", err)
	}
	if gw.Saves() != 0 {
		t.Errorf("saves = %d, want 0", gw.Saves())
	}
}

func TestCreateFolderAppendsAtEnd(t *testing.T) {
	s, _ := testStore(t, nil)
	fs := seedFolders(t, s, "A", "B", "C")
	for i, f := range fs {
		if f.Order == nil || *f.Order != i {
			t.Errorf("folder %s order = %v, want %d", f.Name, f.Order, i)
		}
	}
}

func TestDeleteFolderUnfilesApplications(t *testing.T) {
	s, gw := testStore(t, nil)
	ctx := context.Background()
	fs := seedFolders(t, s, "Remote", "Local")
	for i := 0; i < 3; i++ {
		if _, err := s.CreateApplication(ctx, models.ApplicationFields{Company: "c", FolderID: &fs[0].ID}); err != nil {
			t.Fatal(err)
		}
	}
	if _, err := s.CreateApplication(ctx, models.ApplicationFields{Company: "d", FolderID: &fs[1].ID}); err != nil {
		t.Fatal(err)
	}
	if err := s.SetFolderContext(&fs[0].ID); err != nil {
		t.Fatal(err)
	}
	before := gw.Saves()

	if err := s.DeleteFolder(ctx, fs[0].ID); err != nil {
		t.Fatal(err)
	}
	if gw.Saves() != before+1 {
		t.Errorf("saves = %d, want one commit", gw.Saves()-before)
	}
	apps := s.Applications()
	if len(apps) != 4 {
		t.Fatalf("apps = %d, want 4 (none removed)", len(apps))
	}
	unfiled := 0
	for _, a := range apps {
		if a.FolderID == nil {
			unfiled++
		}
	}
	if unfiled != 3 {
		t.Errorf("unfiled = %d, want 3", unfiled)
	}
	if s.ViewState().FolderID != nil {
		t.Errorf("view still scoped to deleted folder")
	}
	folders := s.Folders()
	if len(folders) != 1 || *folders[0].Order != 0 {
		t.Errorf("folders = %+v", folders)
	}
}

func TestReorderFolder(t *testing.T) {
	tests := []struct {
		name          string
		moved, target int
		want          []string
	}{
		{"down", 0, 2, []string{"B", "C", "A", "D"}},
		{"up", 3, 1, []string{"A", "D", "B", "C"}},
		{"adjacent", 1, 2, []string{"A", "C", "B", "D"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, _ := testStore(t, nil)
			fs := seedFolders(t, s, "A", "B", "C", "D")
			if err := s.ReorderFolder(context.Background(), fs[tt.moved].ID, fs[tt.target].ID); err != nil {
				t.Fatal(err)
			}
			var names []string
			for i, f := range s.Folders() {
				names = append(names, f.Name)
				if *f.Order != i {
					t.Errorf("%s order = %d, want %d", f.Name, *f.Order, i)
				}
			}
			for i := range tt.want {
				if names[i] != tt.want[i] {
					t.Fatalf("order = %v, want %v", names, tt.want)
				}
			}
		})
	}
}

func TestReorderFolderOntoItselfSavesNothing(t *testing.T) {
	s, gw := testStore(t, nil)
	fs := seedFolders(t, s, "A", "B")
	before := gw.Saves()
	if err := s.ReorderFolder(context.Background(), fs[1].ID, fs[1].ID); err != nil {
		t.Fatal(err)
	}
	if gw.Saves() != before {
		t.Errorf("saves = %d, want %d", gw.Saves(), before)
	}
}

func TestReorderUnknownFolder(t *testing.T) {
	s, _ := testStore(t, nil)
	fs := seedFolders(t, s, "A")
	if err := s.ReorderFolder(context.Background(), fs[0].ID, "missing"); !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestMoveApplication(t *testing.T) {
	s, gw := testStore(t, nil)
	ctx := context.Background()
	fs := seedFolders(t, s, "A")
	app, _ := s.CreateApplication(ctx, models.ApplicationFields{Company: "Acme"})

	moved, err := s.MoveApplication(ctx, app.ID, &fs[0].ID)
	if err != nil {
		t.Fatal(err)
	}
	if moved.FolderID == nil || *moved.FolderID != fs[0].ID {
		t.Fatalf("folderId = %v", moved.FolderID)
	}
	before := gw.Saves()
	if _, err := s.MoveApplication(ctx, app.ID, &fs[0].ID); err != nil {
		t.Fatal(err)
	}
	if gw.Saves() != before {
		t.Errorf("moving to same folder saved")
	}
	if _, err := s.MoveApplication(ctx, app.ID, ptr("missing")); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}
