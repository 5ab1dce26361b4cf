package notes

import (
	"context"
	"errors"
	"fmt"
)

// ErrEmptyKey is returned when a subject normalizes to nothing
var ErrEmptyKey = errors.New("subject normalizes to an empty note key")

// Existing describes a note found in the document store. Ref is the
// backend-specific reference used for updates.
type Existing struct {
	Ref  string
	Body string
}

// Lookup is the find-by-key capability of the document store
type Lookup interface {
	// Find returns the existing note for a key, or nil when absent
	Find(ctx context.Context, key string) (*Existing, error)
}

// Handle identifies the note a message consolidates into
type Handle struct {
	Key      string    // normalized note key
	Existing *Existing // nil when the note does not exist yet
}

// Exists reports whether the note is already in the store
func (h Handle) Exists() bool {
	return h.Existing != nil
}

// Body returns the current note body, or "" for a new note
func (h Handle) Body() string {
	if h.Existing == nil {
		return ""
	}
	return h.Existing.Body
}

// Ref returns the store reference of an existing note, or ""
func (h Handle) Ref() string {
	if h.Existing == nil {
		return ""
	}
	return h.Existing.Ref
}

// Resolve maps a subject to the note it consolidates into. The subject
// is normalized into a key and looked up; a missing note yields a
// handle with no existing body, never an error. The subject arrives
// here as-is: any prefix stripping already happened upstream.
func Resolve(ctx context.Context, subject string, lookup Lookup) (Handle, error) {
	key := NormalizeKey(subject)
	if key == "" {
		return Handle{}, ErrEmptyKey
	}

	existing, err := lookup.Find(ctx, key)
	if err != nil {
		return Handle{}, fmt.Errorf("failed to look up note %q: %w", key, err)
	}

	return Handle{Key: key, Existing: existing}, nil
}
