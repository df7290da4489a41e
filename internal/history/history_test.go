package history

import (
	"context"
	"errors"
	"os"
	"testing"

	"github.com/starford/clovern/internal/apperr"
	"github.com/starford/clovern/internal/models"
	"github.com/starford/clovern/internal/tracker"
)

func testDB(t *testing.T) *DB {
	t.Helper()
	f, err := os.CreateTemp("", "clovern-history-test-*.db")
	if err != nil {
		t.Fatal(err)
	}
	f.Close()
	t.Cleanup(func() { os.Remove(f.Name()) })

	db, err := Open(f.Name())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func docWith(companies ...string) *models.Document {
	doc := models.NewDocument()
	for i, c := range companies {
		doc.Applications = append(doc.Applications, models.JobApplication{
			ID: string(rune('a' + i)), Company: c, Status: models.StatusApplied,
		})
	}
	return doc
}

func TestSchemaCreation(t *testing.T) {
	db := testDB(t)
	var count int
	if err := db.conn.QueryRow(`SELECT count(*) FROM snapshots`).Scan(&count); err != nil {
		t.Fatalf("snapshots table missing: %v", err)
	}
}

func TestRecordSkipsUnchanged(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()

	wrote, err := db.Record(ctx, tracker.ApplicationCreated, docWith("Acme"))
	if err != nil || !wrote {
		t.Fatalf("first record = %v, %v", wrote, err)
	}
	wrote, err = db.Record(ctx, tracker.DocumentSaved, docWith("Acme"))
	if err != nil || wrote {
		t.Fatalf("duplicate record = %v, %v; want skipped", wrote, err)
	}
	if _, err := db.Record(ctx, tracker.ApplicationCreated, docWith("Acme", "Globex")); err != nil {
		t.Fatal(err)
	}

	list, err := db.List(ctx, 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(list) != 2 {
		t.Fatalf("snapshots = %d, want 2", len(list))
	}
	if list[0].Applications != 2 || list[1].Applications != 1 {
		t.Errorf("newest first expected: %+v", list)
	}
	if list[0].Document != nil {
		t.Errorf("List returned documents")
	}
}

func TestGet(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()
	if _, err := db.Record(ctx, tracker.ApplicationCreated, docWith("Acme")); err != nil {
		t.Fatal(err)
	}
	list, _ := db.List(ctx, 1)

	s, err := db.Get(ctx, list[0].ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(s.Document.Applications) != 1 || s.Document.Applications[0].Company != "Acme" {
		t.Errorf("document = %+v", s.Document)
	}
	if s.CreatedAt.IsZero() {
		t.Errorf("created_at not set")
	}

	if _, err := db.Get(ctx, 999); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestPrune(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()
	for _, c := range []string{"A", "B", "C", "D", "E"} {
		if _, err := db.Record(ctx, tracker.ApplicationCreated, docWith(c)); err != nil {
			t.Fatal(err)
		}
	}
	n, err := db.Prune(ctx, 2)
	if err != nil {
		t.Fatal(err)
	}
	if n != 3 {
		t.Errorf("pruned = %d, want 3", n)
	}
	list, _ := db.List(ctx, 10)
	if len(list) != 2 {
		t.Fatalf("left = %d, want 2", len(list))
	}
	s, _ := db.Get(ctx, list[0].ID)
	if s.Document.Applications[0].Company != "E" {
		t.Errorf("newest kept = %q, want E", s.Document.Applications[0].Company)
	}
}

func TestRecorderSkipsUnsaved(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()
	r := NewRecorder(db, 1, nil)

	r.Observe(ctx, tracker.Change{Kind: tracker.ApplicationCreated, Saved: false}, docWith("A"))
	r.Observe(ctx, tracker.Change{Kind: tracker.ApplicationCreated, Saved: true}, docWith("B"))
	r.Observe(ctx, tracker.Change{Kind: tracker.ApplicationUpdated, Saved: true}, docWith("C"))

	list, _ := db.List(ctx, 10)
	if len(list) != 1 {
		t.Fatalf("snapshots = %d, want 1 after prune", len(list))
	}
	if list[0].Kind != tracker.ApplicationUpdated {
		t.Errorf("kind = %q", list[0].Kind)
	}
}
