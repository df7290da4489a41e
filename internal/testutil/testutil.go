// Package testutil provides shared test helpers for stores and history databases.
package testutil

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"

	"github.com/starford/clovern/internal/models"
	"github.com/starford/clovern/internal/storage"
)

// ErrSaveFailed is returned by a Gateway whose Fail flag is set.
var ErrSaveFailed = errors.New("disk full")

// Gateway is an in-memory storage.Gateway that counts saves.
type Gateway struct {
	mu    sync.Mutex
	doc   *models.Document
	saves   int
	fail    bool
	readErr error
}

var _ storage.Gateway = (*Gateway)(nil)

// NewGateway returns a gateway that loads doc, or an empty document when doc is nil.
func NewGateway(doc *models.Document) *Gateway {
	if doc == nil {
		doc = models.NewDocument()
	}
	return &Gateway{doc: doc.Clone()}
}

func (g *Gateway) Load(context.Context) (*models.Document, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.doc.Clone(), nil
}

func (g *Gateway) Read(context.Context) (*models.Document, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.readErr != nil {
		return nil, g.readErr
	}
	return g.doc.Clone(), nil
}

// SetReadErr makes every following Read fail with err; nil clears it.
func (g *Gateway) SetReadErr(err error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.readErr = err
}

func (g *Gateway) Save(_ context.Context, doc *models.Document) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.fail {
		return ErrSaveFailed
	}
	g.saves++
	g.doc = doc.Clone()
	return nil
}

// SetFail makes every following Save fail until called with false.
func (g *Gateway) SetFail(fail bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.fail = fail
}

// Saves returns how many saves succeeded.
func (g *Gateway) Saves() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.saves
}

// Saved returns a copy of the last saved document.
func (g *Gateway) Saved() *models.Document {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.doc.Clone()
}

// TestFile returns a JSON file gateway over a fresh temp directory.
func TestFile(t *testing.T) (string, *storage.JSONFile) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "job-applications.json")
	f, err := storage.NewJSONFile(path, nil)
	if err != nil {
		t.Fatal(err)
	}
	return path, f
}
