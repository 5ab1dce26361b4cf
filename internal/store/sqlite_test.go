package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setupTestStore creates an in-memory SQLite store for testing
func setupTestStore(t *testing.T) *SQLite {
	t.Helper()

	s, err := OpenSQLite(":memory:")
	require.NoError(t, err, "Failed to open test store")

	t.Cleanup(func() {
		s.Close()
	})
	return s
}

// TestSQLite_FindByKey_Missing tests the not-found sentinel
func TestSQLite_FindByKey_Missing(t *testing.T) {
	s := setupTestStore(t)

	_, err := s.FindByKey(context.Background(), "no such note")
	assert.ErrorIs(t, err, ErrNotFound)
}

// TestSQLite_CreateAndFind tests the create/find round trip
func TestSQLite_CreateAndFind(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	created, err := s.Create(ctx, "launch plan", "- body line\n")
	require.NoError(t, err)
	assert.Equal(t, "launch plan", created.Key)
	assert.Equal(t, "launch plan", created.Ref)

	found, err := s.FindByKey(ctx, "launch plan")
	require.NoError(t, err)
	assert.Equal(t, "- body line\n", found.Body)
	assert.Equal(t, "launch plan", found.Key)
	assert.False(t, found.UpdatedAt.IsZero(), "updated_at should round-trip")
}

// TestSQLite_Update tests body replacement
func TestSQLite_Update(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	note, err := s.Create(ctx, "launch plan", "first\n")
	require.NoError(t, err)

	require.NoError(t, s.Update(ctx, note.Ref, "first\n\nsecond\n"))

	found, err := s.FindByKey(ctx, "launch plan")
	require.NoError(t, err)
	assert.Equal(t, "first\n\nsecond\n", found.Body)
}

// TestSQLite_Update_Missing tests updating a nonexistent note
func TestSQLite_Update_Missing(t *testing.T) {
	s := setupTestStore(t)

	err := s.Update(context.Background(), "ghost", "body")
	assert.ErrorIs(t, err, ErrNotFound)
}

// TestSQLite_List tests ordering by recency
func TestSQLite_List(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	_, err := s.Create(ctx, "alpha", "a")
	require.NoError(t, err)
	_, err = s.Create(ctx, "beta", "b")
	require.NoError(t, err)

	// Touch alpha so it becomes the most recently updated
	require.NoError(t, s.Update(ctx, "alpha", "a2"))

	listed, err := s.List(ctx)
	require.NoError(t, err)
	require.Len(t, listed, 2)
	assert.Equal(t, "alpha", listed[0].Key)
	assert.Equal(t, "beta", listed[1].Key)
	assert.Equal(t, "a2", listed[0].Body)
}

// TestSQLite_PersistsAcrossReopen tests durability on a real file
func TestSQLite_PersistsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data", "notes.db")
	ctx := context.Background()

	s, err := OpenSQLite(path)
	require.NoError(t, err)
	_, err = s.Create(ctx, "launch plan", "persisted body\n")
	require.NoError(t, err)
	require.NoError(t, s.Close())

	reopened, err := OpenSQLite(path)
	require.NoError(t, err)
	defer reopened.Close()

	found, err := reopened.FindByKey(ctx, "launch plan")
	require.NoError(t, err)
	assert.Equal(t, "persisted body\n", found.Body)
}
