package sse

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/starford/clovern/internal/models"
	"github.com/starford/clovern/internal/tracker"
)

func TestSubscribeUnsubscribe(t *testing.T) {
	b := NewBroker(100 * time.Millisecond)
	defer b.Close()
	if b.ClientCount() != 0 {
		t.Fatalf("expected 0 clients")
	}
	ch := b.Subscribe()
	if b.ClientCount() != 1 {
		t.Fatalf("expected 1 client")
	}
	b.Unsubscribe(ch)
	if b.ClientCount() != 0 {
		t.Fatalf("expected 0 clients after unsub")
	}
}

func TestPublishDelivery(t *testing.T) {
	b := NewBroker(100 * time.Millisecond)
	defer b.Close()
	ch := b.Subscribe()
	defer b.Unsubscribe(ch)

	b.Publish(Event{Type: "application.created", Data: map[string]string{"id": "a1"}})

	select {
	case msg := <-ch:
		s := string(msg)
		if !strings.Contains(s, "event: application.created") {
			t.Errorf("missing event type in %q", s)
		}
		if !strings.Contains(s, `"id":"a1"`) {
			t.Errorf("missing data in %q", s)
		}
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for message")
	}
}

func TestObserve_StatsThrottle(t *testing.T) {
	b := NewBroker(500 * time.Millisecond)
	defer b.Close()
	ch := b.Subscribe()
	defer b.Unsubscribe(ch)

	doc := models.NewDocument()
	doc.Applications = []models.JobApplication{
		{ID: "1", Status: models.StatusApplied},
		{ID: "2", Status: models.StatusOffer},
	}
	// First change should trigger stats.updated.
	b.Observe(context.Background(), tracker.Change{Kind: tracker.ApplicationCreated, IDs: []string{"1"}, Saved: true}, doc)
	// Second change immediately should NOT trigger another stats.updated.
	b.Observe(context.Background(), tracker.Change{Kind: tracker.ApplicationUpdated, IDs: []string{"2"}, Saved: true}, doc)

	time.Sleep(50 * time.Millisecond)
	statsCount := 0
	changeCount := 0
	var stats string
loop:
	for {
		select {
		case msg := <-ch:
			s := string(msg)
			if strings.Contains(s, "event: stats.updated") {
				statsCount++
				stats = s
			} else {
				changeCount++
			}
		default:
			break loop
		}
	}

	if changeCount != 2 {
		t.Errorf("change events = %d, want 2", changeCount)
	}
	if statsCount != 1 {
		t.Errorf("stats events = %d, want 1 (throttled)", statsCount)
	}
	if !strings.Contains(stats, `"applications":2`) || !strings.Contains(stats, `"Offer":1`) {
		t.Errorf("stats payload = %q", stats)
	}
}

func TestNewStats(t *testing.T) {
	doc := models.NewDocument()
	doc.Folders = []models.Folder{{ID: "f"}}
	doc.Applications = []models.JobApplication{{Status: models.StatusApplied}, {Status: models.StatusApplied}}
	st := NewStats(doc)
	if st.Applications != 2 || st.Folders != 1 {
		t.Errorf("stats = %+v", st)
	}
	if st.ByStatus[models.StatusApplied] != 2 || st.ByStatus[models.StatusRejected] != 0 {
		t.Errorf("byStatus = %v", st.ByStatus)
	}
	if _, ok := st.ByStatus[models.StatusWishlist]; !ok {
		t.Errorf("zero statuses omitted")
	}
}

func TestSSEHandler(t *testing.T) {
	b := NewBroker(100 * time.Millisecond)
	defer b.Close()

	// Start handler in background.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	req := httptest.NewRequest(http.MethodGet, "/api/events", nil)
	req = req.WithContext(ctx)
	w := httptest.NewRecorder()

	done := make(chan struct{})
	go func() {
		b.ServeHTTP(w, req)
		close(done)
	}()

	// Give handler time to subscribe.
	time.Sleep(50 * time.Millisecond)
	if b.ClientCount() != 1 {
		t.Fatalf("expected 1 client from handler")
	}

	b.Publish(Event{Type: "folder.updated", Data: map[string]string{"id": "f1"}})
	time.Sleep(50 * time.Millisecond)

	// Cancel context to disconnect.
	cancel()
	<-done

	body := w.Body.String()
	if !strings.Contains(body, "event: folder.updated") {
		t.Errorf("handler output missing event: %q", body)
	}

	// Client should be cleaned up.
	time.Sleep(50 * time.Millisecond)
	if b.ClientCount() != 0 {
		t.Errorf("client not cleaned up after disconnect")
	}
}

func TestPublishDropsOnFullBuffer(t *testing.T) {
	b := NewBroker(time.Second)
	defer b.Close()
	ch := b.Subscribe()
	defer b.Unsubscribe(ch)

	// Fill buffer (capacity 64) and then one more should not block.
	for i := 0; i < 70; i++ {
		b.Publish(Event{Type: "test", Data: map[string]string{"i": "x"}})
	}
	// If we reach here without deadlock, the test passes.
}

func TestCloseClosesSubscribersAndStopsOperations(t *testing.T) {
	b := NewBroker(100 * time.Millisecond)
	ch := b.Subscribe()
	if b.ClientCount() != 1 {
		t.Fatalf("expected 1 client")
	}

	b.Close()

	select {
	case _, ok := <-ch:
		if ok {
			t.Fatal("expected subscriber channel to be closed")
		}
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for channel close")
	}

	if b.ClientCount() != 0 {
		t.Fatalf("expected 0 clients after close")
	}

	// Should be safe no-op after close.
	b.Publish(Event{Type: "folder.updated", Data: map[string]string{"id": "f1"}})
	b.Observe(context.Background(), tracker.Change{Kind: tracker.FolderUpdated}, models.NewDocument())
}
