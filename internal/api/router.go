package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/starford/sowilo/internal/sendservice"
)

// NewRouter creates a chi router with all API routes mounted.
// authEnabled controls whether Bearer token auth is enforced.
// sseHandler, if non-nil, is mounted at GET /events inside the auth group.
func NewRouter(svc *sendservice.Service, authEnabled bool, token string, sseHandler http.Handler) chi.Router {
	h := NewHandler(svc)

	r := chi.NewRouter()
	r.Use(AuthMiddleware(authEnabled, token))

	// Send.
	r.Post("/send", h.Send)

	// Boards.
	r.Get("/canvases", h.ListCanvases)
	r.Get("/canvases/*", h.GetCanvas)
	r.Delete("/canvases/*", h.DeleteCanvas)

	// Workspace selection.
	r.Get("/workspace/selected", h.SelectedCanvas)
	r.Put("/workspace/selected", h.SetSelectedCanvas)

	// Notes and search.
	r.Get("/notes", h.ListNotes)
	r.Get("/search", h.Search)

	// SSE endpoint (protected by same auth middleware).
	if sseHandler != nil {
		r.Get("/events", sseHandler.ServeHTTP)
	}

	return r
}
