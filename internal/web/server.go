package web

import (
	"errors"
	"html/template"
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/felo/mailnotes/internal/store"
)

const indexTemplate = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>mailnotes</title>
<style>
body { font-family: sans-serif; max-width: 48rem; margin: 2rem auto; padding: 0 1rem; }
table { border-collapse: collapse; width: 100%; }
td, th { text-align: left; padding: 0.4rem 0.8rem; border-bottom: 1px solid #ddd; }
</style>
</head>
<body>
<h1>Consolidated notes</h1>
<table>
<tr><th>Note</th><th>Updated</th></tr>
{{range .Notes}}
<tr>
<td><a href="/notes/{{.Key}}">{{.Key}}</a></td>
<td>{{.UpdatedAt.Format "2006-01-02 15:04"}}</td>
</tr>
{{else}}
<tr><td colspan="2">No notes yet.</td></tr>
{{end}}
</table>
</body>
</html>
`

// Handlers serves a read-only view over the consolidated notes. The
// engine is the only writer; this surface never mutates the store.
type Handlers struct {
	store store.Store
	log   *zap.Logger
	tmpl  *template.Template
}

// New creates the notes preview handlers
func New(st store.Store, log *zap.Logger) *Handlers {
	if log == nil {
		log = zap.NewNop()
	}
	return &Handlers{
		store: st,
		log:   log,
		tmpl:  template.Must(template.New("index").Parse(indexTemplate)),
	}
}

// Router builds the preview route tree
func (h *Handlers) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.Compress(5))

	r.Get("/", h.Index)
	r.Get("/notes/{key}", h.ViewNote)
	return r
}

// Index lists the stored notes, most recently updated first
func (h *Handlers) Index(w http.ResponseWriter, r *http.Request) {
	listed, err := h.store.List(r.Context())
	if err != nil {
		h.log.Error("failed to list notes", zap.Error(err))
		http.Error(w, "Failed to list notes", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := h.tmpl.Execute(w, map[string]any{"Notes": listed}); err != nil {
		h.log.Error("failed to render index", zap.Error(err))
	}
}

// ViewNote returns one note's raw Markdown body
func (h *Handlers) ViewNote(w http.ResponseWriter, r *http.Request) {
	// Note keys contain spaces, so the route param arrives escaped
	key := chi.URLParam(r, "key")
	if decoded, err := url.PathUnescape(key); err == nil {
		key = decoded
	}

	note, err := h.store.FindByKey(r.Context(), key)
	if errors.Is(err, store.ErrNotFound) {
		http.Error(w, "Note not found", http.StatusNotFound)
		return
	}
	if err != nil {
		h.log.Error("failed to load note", zap.String("note_key", key), zap.Error(err))
		http.Error(w, "Failed to load note", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/markdown; charset=utf-8")
	w.Write([]byte(note.Body))
}
