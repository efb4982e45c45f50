package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/starford/knt/internal/noteservice"
	"github.com/starford/knt/internal/storage"
)

// NewRouter creates a chi router with all API routes mounted.
// authEnabled controls whether Bearer token auth is enforced.
// sseHandler, if non-nil, is mounted at GET /events inside the auth group.
func NewRouter(svc *noteservice.Service, store storage.Provider, authEnabled bool, token string, sseHandler http.Handler) chi.Router {
	h := NewHandler(svc)
	raw := NewRawHandler(store)

	r := chi.NewRouter()
	r.Use(AuthMiddleware(authEnabled, token))

	// Files.
	r.Get("/files", h.ListFiles)
	r.Get("/files/*", h.GetDocument)
	r.Get("/raw/*", raw.ServeFile)

	// Notes.
	r.Get("/notes", h.GetNote)
	r.Get("/outline", h.Outline)
	r.Get("/search", h.Search)

	// Bookmarks.
	r.Put("/bookmarks/{slot}", h.SetBookmark)
	r.Delete("/bookmarks/{slot}", h.ClearBookmark)

	if sseHandler != nil {
		r.Get("/events", sseHandler.ServeHTTP)
	}

	return r
}
