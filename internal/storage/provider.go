// Package storage implements the persistence gateway for the tracker document.
package storage

import (
	"context"

	"github.com/starford/clovern/internal/models"
)

// Gateway loads and saves the whole tracker document.
type Gateway interface {
	// Load returns the stored document, or an empty default document when
	// nothing usable is on disk.
	Load(ctx context.Context) (*models.Document, error)
	// Read returns the stored document or an error when it is missing or
	// cannot be decoded. It never substitutes the default document.
	Read(ctx context.Context) (*models.Document, error)
	// Save overwrites the stored document in one atomic step.
	Save(ctx context.Context, doc *models.Document) error
}

var _ Gateway = (*JSONFile)(nil)
