package mailbox

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// writeEML drops a minimal .eml file into dir
func writeEML(t *testing.T, dir, name, id, subject, date string) {
	t.Helper()

	raw := eml(fmt.Sprintf(`From: jane@corp.example.com
To: bob@partner.example.org
Subject: %s
Date: %s
Message-Id: <%s>
Content-Type: text/plain; charset=utf-8

Body of %s.
`, subject, date, id, id))

	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(raw), 0644))
}

func TestDirSource_FetchOrdersByReceivedTime(t *testing.T) {
	dir := t.TempDir()
	writeEML(t, dir, "b.eml", "msg-2", "Second", "Tue, 07 Oct 2025 09:00:00 +0000")
	writeEML(t, dir, "a.eml", "msg-1", "First", "Mon, 06 Oct 2025 09:00:00 +0000")
	writeEML(t, dir, "c.eml", "msg-3", "Third", "Wed, 08 Oct 2025 09:00:00 +0000")

	src := NewDirSource(dir, "", 0, nil)
	messages, err := src.Fetch(context.Background())
	require.NoError(t, err)

	require.Len(t, messages, 3)
	assert.Equal(t, "msg-1", messages[0].ID)
	assert.Equal(t, "msg-2", messages[1].ID)
	assert.Equal(t, "msg-3", messages[2].ID)
}

func TestDirSource_FetchLimit(t *testing.T) {
	dir := t.TempDir()
	writeEML(t, dir, "a.eml", "msg-1", "First", "Mon, 06 Oct 2025 09:00:00 +0000")
	writeEML(t, dir, "b.eml", "msg-2", "Second", "Tue, 07 Oct 2025 09:00:00 +0000")

	src := NewDirSource(dir, "", 1, nil)
	messages, err := src.Fetch(context.Background())
	require.NoError(t, err)

	require.Len(t, messages, 1)
	assert.Equal(t, "msg-1", messages[0].ID, "the limit keeps the oldest messages")
}

func TestDirSource_SkipsNonEMLAndBrokenFiles(t *testing.T) {
	dir := t.TempDir()
	writeEML(t, dir, "good.eml", "msg-1", "Good", "Mon, 06 Oct 2025 09:00:00 +0000")
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("not mail"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "broken.eml"), []byte("no header colon here\r\n\r\nbody\r\n"), 0644))

	src := NewDirSource(dir, "", 0, nil)
	messages, err := src.Fetch(context.Background())
	require.NoError(t, err)

	require.Len(t, messages, 1)
	assert.Equal(t, "msg-1", messages[0].ID)
}

func TestDirSource_MarkProcessedMovesFile(t *testing.T) {
	dir := t.TempDir()
	writeEML(t, dir, "a.eml", "msg-1", "First", "Mon, 06 Oct 2025 09:00:00 +0000")

	src := NewDirSource(dir, "", 0, nil)
	ctx := context.Background()

	messages, err := src.Fetch(ctx)
	require.NoError(t, err)
	require.Len(t, messages, 1)

	require.NoError(t, src.MarkProcessed(ctx, "msg-1"))

	assert.NoFileExists(t, filepath.Join(dir, "a.eml"))
	assert.FileExists(t, filepath.Join(dir, "processed", "a.eml"))

	// The processed directory is excluded from later fetches
	messages, err = src.Fetch(ctx)
	require.NoError(t, err)
	assert.Empty(t, messages)
}

func TestDirSource_MarkProcessedUnknownID(t *testing.T) {
	src := NewDirSource(t.TempDir(), "", 0, nil)
	assert.Error(t, src.MarkProcessed(context.Background(), "ghost"))
}

func TestDirSource_WalksSubdirectories(t *testing.T) {
	dir := t.TempDir()
	sub := filepath.Join(dir, "2025", "october")
	require.NoError(t, os.MkdirAll(sub, 0755))
	writeEML(t, sub, "nested.eml", "msg-1", "Nested", "Mon, 06 Oct 2025 09:00:00 +0000")

	src := NewDirSource(dir, "", 0, nil)
	messages, err := src.Fetch(context.Background())
	require.NoError(t, err)

	require.Len(t, messages, 1)
	assert.Equal(t, "msg-1", messages[0].ID)
}
