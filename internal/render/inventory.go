package render

import (
	"context"
	"html"
	"log/slog"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/starford/vellum/internal/markdown"
	"github.com/starford/vellum/internal/metrics"
	"github.com/starford/vellum/internal/models"
)

// Inventory maps image URLs to the hrefs of the pages that reference them,
// in scan order. A page appears once per reference.
type Inventory map[string][]string

// URLs returns the image URLs in sorted order.
func (inv Inventory) URLs() []string {
	out := make([]string, 0, len(inv))
	for u := range inv {
		out = append(out, u)
	}
	sort.Strings(out)
	return out
}

// Inventory renders every page with RenderDoc and records which images
// each one references. Pages are rendered concurrently, each with its own
// image hook, and merged in page order. Render failures are logged by the
// template renderer and never stop the scan; only ctx errors are returned.
func (g *Generator) Inventory(ctx context.Context) (Inventory, error) {
	start := time.Now()
	found := make([][]string, len(g.pages))

	eg, ctx := errgroup.WithContext(ctx)
	workers := g.opts.ScanWorkers
	if workers <= 0 {
		workers = 1
	}
	eg.SetLimit(workers)
	for i, p := range g.pages {
		eg.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			found[i] = g.scanImages(p)
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		g.recorder.ObserveRender(metrics.StageInventory, metrics.ResultCanceled, time.Since(start))
		return nil, err
	}

	inv := Inventory{}
	for i, urls := range found {
		for _, u := range urls {
			inv[u] = append(inv[u], g.pages[i].Href)
		}
	}
	g.recorder.ObserveRender(metrics.StageInventory, metrics.ResultSuccess, time.Since(start))
	g.recorder.SetInventoryImages(len(inv))
	g.logger.Debug("inventory complete", slog.Int("pages", len(g.pages)), slog.Int("images", len(inv)))
	return inv, nil
}

func (g *Generator) scanImages(p *models.Page) []string {
	var urls []string
	rc := &RenderContext{wrapImage: func(base markdown.Emitter) markdown.Emitter {
		return func(href, title, text string) string {
			urls = append(urls, html.UnescapeString(href))
			return base(href, title, text)
		}
	}}
	// Fatal errors are already logged by ExecuteTemplate.
	_, _ = g.RenderDoc(p, rc)
	return urls
}

// ParseLinks returns the links in f's markdown in document order, with
// href and title unescaped and text as rendered inner HTML. Nothing is
// prefixed or resolved. It returns nil when f has no text.
func (g *Generator) ParseLinks(f *models.Page) []models.LinkRef {
	if f == nil || f.Txt == "" {
		return nil
	}
	links := []models.LinkRef{}
	collect := func(href, title, text string) string {
		links = append(links, models.LinkRef{
			Href:  html.UnescapeString(href),
			Title: html.UnescapeString(title),
			Text:  text,
		})
		return ""
	}
	cfg := markdownConfig{emitLink: collect}
	if _, err := g.renderMarkdown(f.Txt, cfg); err != nil {
		g.logger.Warn("parse links", slog.String("href", f.Href), slog.Any("error", err))
	}
	return links
}
