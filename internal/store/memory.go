package store

import (
	"context"
	"sort"
	"sync"
	"time"
)

// Memory is an in-memory Store used in tests and dry runs
type Memory struct {
	mu    sync.RWMutex
	notes map[string]*Note
}

// NewMemory creates an empty in-memory store
func NewMemory() *Memory {
	return &Memory{notes: make(map[string]*Note)}
}

// FindByKey returns the note stored under a key, or ErrNotFound
func (m *Memory) FindByKey(ctx context.Context, key string) (*Note, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	note, ok := m.notes[key]
	if !ok {
		return nil, ErrNotFound
	}
	copied := *note
	return &copied, nil
}

// Create stores a new note body under a key
func (m *Memory) Create(ctx context.Context, key, body string) (*Note, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	note := &Note{Ref: key, Key: key, Body: body, UpdatedAt: time.Now().UTC()}
	m.notes[key] = note

	copied := *note
	return &copied, nil
}

// Update replaces the body of the note referenced by ref
func (m *Memory) Update(ctx context.Context, ref, body string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	note, ok := m.notes[ref]
	if !ok {
		return ErrNotFound
	}
	note.Body = body
	note.UpdatedAt = time.Now().UTC()
	return nil
}

// List returns note metadata, most recently updated first
func (m *Memory) List(ctx context.Context) ([]*Note, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	notes := make([]*Note, 0, len(m.notes))
	for _, note := range m.notes {
		copied := *note
		notes = append(notes, &copied)
	}
	sort.Slice(notes, func(i, j int) bool {
		if notes[i].UpdatedAt.Equal(notes[j].UpdatedAt) {
			return notes[i].Key < notes[j].Key
		}
		return notes[i].UpdatedAt.After(notes[j].UpdatedAt)
	})
	return notes, nil
}
