package api

import (
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/starford/vellum/internal/apperr"
	"github.com/starford/vellum/internal/index"
	"github.com/starford/vellum/internal/render"
	"github.com/starford/vellum/internal/site"
)

// Handler holds API route handlers.
type Handler struct {
	site *site.Service
	idx  index.PageIndex
}

// NewHandler creates a new Handler.
func NewHandler(svc *site.Service, idx index.PageIndex) *Handler {
	return &Handler{site: svc, idx: idx}
}

// pageHref extracts the page href from the URL (everything after /api/pages).
// Supports encoded slashes and fragments (e.g. docs%2Fintro%23setup).
func pageHref(r *http.Request) string {
	raw := chi.URLParam(r, "*")
	decoded, err := url.PathUnescape(raw)
	if err != nil {
		decoded = raw
	}
	return "/" + strings.TrimPrefix(decoded, "/")
}

// writeError maps domain errors onto HTTP status codes.
func writeError(w http.ResponseWriter, err error, msg string, attrs ...any) {
	switch {
	case errors.Is(err, apperr.ErrNotFound):
		writeJSON(w, http.StatusNotFound, errorBody("not found"))
	case errors.Is(err, apperr.ErrNotReady):
		writeJSON(w, http.StatusServiceUnavailable, errorBody("site not loaded"))
	default:
		slog.Error(msg, append(attrs, slog.String("error", err.Error()))...)
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
	}
}

// ListPages handles GET /api/pages.
//
//	@Summary		List addressable pages in source order
//	@Tags			pages
//	@Produce		json
//	@Success		200		{object}	PageListResponse
//	@Failure		503		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/pages [get]
func (h *Handler) ListPages(w http.ResponseWriter, r *http.Request) {
	snap := h.site.Snapshot()
	if snap == nil {
		writeError(w, apperr.ErrNotReady, "list pages failed")
		return
	}
	items := make([]PageListItem, 0, len(snap.Pages))
	for _, p := range snap.Pages {
		items = append(items, listItem(p))
	}
	writeJSON(w, http.StatusOK, PageListResponse{Pages: items, Total: len(items)})
}

// GetPage handles GET /api/pages/*.
//
//	@Summary		Get a page with its resolved templates, links and backlinks
//	@Tags			pages
//	@Produce		json
//	@Param			href	path		string	true	"Page href without the leading slash"
//	@Success		200		{object}	PageDetail
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/pages/{href} [get]
func (h *Handler) GetPage(w http.ResponseWriter, r *http.Request) {
	href := pageHref(r)
	snap := h.site.Snapshot()
	if snap == nil {
		writeError(w, apperr.ErrNotReady, "get page failed")
		return
	}
	p, err := snap.Page(href)
	if err != nil {
		writeError(w, err, "get page failed", slog.String("href", href))
		return
	}

	links, err := h.idx.LinksFrom(href)
	if err != nil {
		writeError(w, err, "get page links failed", slog.String("href", href))
		return
	}
	backlinks, err := h.idx.Backlinks(href)
	if err != nil {
		writeError(w, err, "get page backlinks failed", slog.String("href", href))
		return
	}
	if links == nil {
		links = snap.Generator.ParseLinks(p)
	}

	gen := snap.Generator
	writeJSON(w, http.StatusOK, PageDetail{
		PageListItem: listItem(p),
		Templates: ResolvedTemplates{
			Doc:    gen.DocTemplate(p),
			Layout: gen.LayoutTemplate(p),
			Page:   gen.PageTemplate(p),
		},
		Children:  hrefs(p.Children),
		Fragments: hrefs(p.Fragments),
		Meta:      p.Meta,
		Links:     nonNil(links),
		Backlinks: nonNil(backlinks),
	})
}

// Inventory handles GET /api/inventory.
//
//	@Summary		Image inventory: every image URL and the pages referencing it
//	@Tags			images
//	@Produce		json
//	@Param			fresh	query		bool	false	"Scan the current site instead of reading the index"
//	@Success		200		{object}	InventoryResponse
//	@Security		BearerAuth
//	@Router			/inventory [get]
func (h *Handler) Inventory(w http.ResponseWriter, r *http.Request) {
	var (
		inv render.Inventory
		err error
	)
	if fresh, _ := strconv.ParseBool(r.URL.Query().Get("fresh")); fresh {
		gen := h.site.Generator()
		if gen == nil {
			writeError(w, apperr.ErrNotReady, "inventory failed")
			return
		}
		inv, err = gen.Inventory(r.Context())
	} else {
		inv, err = h.idx.Images()
	}
	if err != nil {
		writeError(w, err, "inventory failed")
		return
	}
	entries := make([]ImageEntry, 0, len(inv))
	for _, u := range inv.URLs() {
		entries = append(entries, ImageEntry{URL: u, Pages: inv[u]})
	}
	writeJSON(w, http.StatusOK, InventoryResponse{Images: entries})
}

// Search handles GET /api/search.
//
//	@Summary		Full-text search across pages
//	@Tags			search
//	@Produce		json
//	@Param			q		query		string	true	"Search query"
//	@Param			limit	query		int		false	"Max results"
//	@Success		200		{object}	SearchResponse
//	@Failure		400		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/search [get]
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	if q == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("query parameter 'q' is required"))
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	hits, err := h.idx.Search(q, limit)
	if err != nil {
		writeError(w, err, "search failed", slog.String("query", q))
		return
	}
	results := make([]SearchResult, 0, len(hits))
	for _, hit := range hits {
		results = append(results, SearchResult{Href: hit.Href, Title: hit.Title, Snippet: hit.Snippet})
	}
	writeJSON(w, http.StatusOK, SearchResponse{Results: results})
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
