package store

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned when no note exists for a key
var ErrNotFound = errors.New("note not found")

// Note is a consolidated note held by a document store
type Note struct {
	Ref       string    // backend-specific reference (key, Drive file id)
	Key       string    // normalized note key
	Body      string    // full Markdown body
	UpdatedAt time.Time
}

// Store is the document store the engine consolidates notes through.
// Notes are only ever created and grown, never deleted.
type Store interface {
	// FindByKey returns the note stored under a key, or ErrNotFound
	FindByKey(ctx context.Context, key string) (*Note, error)

	// Create stores a new note body under a key and returns the note
	Create(ctx context.Context, key, body string) (*Note, error)

	// Update replaces the body of the note referenced by ref
	Update(ctx context.Context, ref, body string) error

	// List returns note metadata, most recently updated first
	List(ctx context.Context) ([]*Note, error)
}
