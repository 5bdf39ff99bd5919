package api

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/starford/vellum/internal/apperr"
	"github.com/starford/vellum/internal/site"
)

// Partial values accepted by the site handler. Each returns the matching
// marker container so a client can swap it in place.
const (
	PartialLayout = "layout"
	PartialPage   = "page"
	PartialHTML   = "html"
)

// SiteHandler serves rendered pages from the current snapshot. Request paths
// map to hrefs the way built files do: "/a/b.html" and "/a/b" are "/a/b",
// "/a/index.html" and "/a/" are "/a/". The "partial" query parameter selects
// a fragment of the document instead of the whole page.
func SiteHandler(svc *site.Service) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		snap := svc.Snapshot()
		if snap == nil {
			http.Error(w, "site not loaded", http.StatusServiceUnavailable)
			return
		}
		href := hrefFromPath(r.URL.Path)
		p, err := snap.Page(href)
		if err != nil {
			http.NotFound(w, r)
			return
		}

		gen := snap.Generator
		rc := snap.RenderContext(href)
		var out string
		switch partial := r.URL.Query().Get("partial"); partial {
		case "":
			out, err = gen.RenderDoc(p, rc)
		case PartialLayout:
			out, err = gen.RenderLayout(p, rc)
		case PartialPage:
			out, err = gen.RenderPage(p, rc)
		case PartialHTML:
			out, err = gen.RenderHTML(p, rc)
		default:
			http.Error(w, "unknown partial "+partial, http.StatusBadRequest)
			return
		}
		if err != nil {
			slog.Error("render failed", slog.String("href", href), slog.String("error", err.Error()))
			if errors.Is(err, apperr.ErrNoDefaultTemplate) {
				http.Error(w, "site has no default template", http.StatusServiceUnavailable)
				return
			}
			http.Error(w, "render failed", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte(out))
	})
}

func hrefFromPath(p string) string {
	if p == "" {
		return "/"
	}
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	if strings.HasSuffix(p, "/index.html") {
		return strings.TrimSuffix(p, "index.html")
	}
	return strings.TrimSuffix(p, ".html")
}
