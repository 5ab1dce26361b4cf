package web

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/felo/mailnotes/internal/store"
)

func testServer(t *testing.T) (*httptest.Server, *store.Memory) {
	t.Helper()

	st := store.NewMemory()
	srv := httptest.NewServer(New(st, nil).Router())
	t.Cleanup(srv.Close)
	return srv, st
}

func get(t *testing.T, url string) (*http.Response, string) {
	t.Helper()

	resp, err := http.Get(url)
	require.NoError(t, err)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	resp.Body.Close()
	return resp, string(body)
}

func TestIndex_ListsNotes(t *testing.T) {
	srv, st := testServer(t)
	_, err := st.Create(context.Background(), "launch plan", "- [[Oct 6th, 2025]]\n")
	require.NoError(t, err)

	resp, body := get(t, srv.URL+"/")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, "launch plan")
	assert.Contains(t, body, `/notes/launch%20plan`)
}

func TestIndex_Empty(t *testing.T) {
	srv, _ := testServer(t)

	resp, body := get(t, srv.URL+"/")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, "No notes yet")
}

func TestViewNote_ReturnsMarkdown(t *testing.T) {
	srv, st := testServer(t)
	_, err := st.Create(context.Background(), "launch plan", "- [[Oct 6th, 2025]]\n  tags:: email\n")
	require.NoError(t, err)

	resp, body := get(t, srv.URL+"/notes/launch%20plan")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "text/markdown; charset=utf-8", resp.Header.Get("Content-Type"))
	assert.Equal(t, "- [[Oct 6th, 2025]]\n  tags:: email\n", body)
}

func TestViewNote_NotFound(t *testing.T) {
	srv, _ := testServer(t)

	resp, _ := get(t, srv.URL+"/notes/missing")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}
