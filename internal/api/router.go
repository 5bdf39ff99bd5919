package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/starford/vellum/internal/index"
	"github.com/starford/vellum/internal/site"
)

// NewRouter creates a chi router with all API routes mounted.
// authEnabled controls whether Bearer token auth is enforced.
// sseHandler, if non-nil, is mounted at GET /events inside the auth group.
func NewRouter(svc *site.Service, idx index.PageIndex, authEnabled bool, token string, sseHandler http.Handler) chi.Router {
	h := NewHandler(svc, idx)

	r := chi.NewRouter()
	r.Use(AuthMiddleware(authEnabled, token))

	// Pages.
	r.Get("/pages", h.ListPages)
	r.Get("/pages/*", h.GetPage)

	// Images.
	r.Get("/inventory", h.Inventory)

	// Search.
	r.Get("/search", h.Search)

	// SSE endpoint (protected by same auth middleware).
	if sseHandler != nil {
		r.Get("/events", sseHandler.ServeHTTP)
	}

	return r
}
