package notes

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeLookup is an in-memory Lookup for resolver tests
type fakeLookup struct {
	notes map[string]*Existing
	err   error
}

func (f *fakeLookup) Find(ctx context.Context, key string) (*Existing, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.notes[key], nil
}

// TestResolve_NewNote tests resolution when no note exists yet
func TestResolve_NewNote(t *testing.T) {
	lookup := &fakeLookup{notes: map[string]*Existing{}}

	h, err := Resolve(context.Background(), "Launch Plan", lookup)
	require.NoError(t, err)

	assert.Equal(t, "launch plan", h.Key)
	assert.False(t, h.Exists())
	assert.Empty(t, h.Body())
	assert.Empty(t, h.Ref())
}

// TestResolve_SubjectVariantsHitSameNote tests that normalization
// variants resolve to one stored note
func TestResolve_SubjectVariantsHitSameNote(t *testing.T) {
	lookup := &fakeLookup{notes: map[string]*Existing{
		"project update": {Ref: "note-1", Body: "existing body"},
	}}

	for _, subject := range []string{"Project Update", "project   update", "  PROJECT UPDATE  "} {
		h, err := Resolve(context.Background(), subject, lookup)
		require.NoError(t, err, "subject %q", subject)

		assert.True(t, h.Exists(), "subject %q", subject)
		assert.Equal(t, "project update", h.Key)
		assert.Equal(t, "existing body", h.Body())
		assert.Equal(t, "note-1", h.Ref())
	}
}

// TestResolve_NoPrefixStripping tests that the resolver takes subjects
// as-is; reply markers are part of the key unless a caller removed them
func TestResolve_NoPrefixStripping(t *testing.T) {
	lookup := &fakeLookup{notes: map[string]*Existing{}}

	h, err := Resolve(context.Background(), "Re: Launch Plan", lookup)
	require.NoError(t, err)
	assert.Equal(t, "re: launch plan", h.Key)
}

// TestResolve_EmptyKey tests rejection of blank subjects
func TestResolve_EmptyKey(t *testing.T) {
	lookup := &fakeLookup{notes: map[string]*Existing{}}

	_, err := Resolve(context.Background(), "   ", lookup)
	assert.ErrorIs(t, err, ErrEmptyKey)
}

// TestResolve_LookupError tests that store failures propagate
func TestResolve_LookupError(t *testing.T) {
	boom := errors.New("store unavailable")
	lookup := &fakeLookup{err: boom}

	_, err := Resolve(context.Background(), "Launch Plan", lookup)
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), `failed to look up note "launch plan"`)
}
