// Package site loads Markdown sources and handlebars templates into an
// immutable snapshot and keeps the current snapshot up to date.
package site

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/starford/vellum/internal/apperr"
	"github.com/starford/vellum/internal/metrics"
	"github.com/starford/vellum/internal/models"
	"github.com/starford/vellum/internal/parser"
	"github.com/starford/vellum/internal/render"
	"github.com/starford/vellum/internal/storage"
	"github.com/starford/vellum/internal/templates"
)

// SourceExt is the extension of content source files.
const SourceExt = ".md"

// Snapshot is one loaded, read-only version of the site.
type Snapshot struct {
	// Pages lists addressable pages (not fragments) in source order.
	Pages []*models.Page
	// Registry maps every page, fragment and folder href to its page.
	Registry render.Registry
	// Root is the top of the page tree.
	Root *models.Page
	// Files are the source records the snapshot was built from.
	Files     []models.File
	Templates render.Templates
	Generator *render.Generator
	LoadedAt  time.Time
	// Vars are exposed to every template as @-data.
	Vars map[string]any
}

// Config holds what Load needs besides the stores.
type Config struct {
	Render   render.Options
	Vars     map[string]any
	Workers  int
	Logger   *slog.Logger
	Recorder metrics.Recorder
}

// Load parses every source in content, compiles the templates in tpl and
// returns the resulting snapshot. Drafts are dropped in production. A site
// without a "default" template is rejected.
func Load(ctx context.Context, content, tpl storage.Provider, cfg Config) (*Snapshot, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	files, err := content.List("", SourceExt)
	if err != nil {
		return nil, fmt.Errorf("site: %w", err)
	}

	parsed := make([][]*models.Page, len(files))
	eg, ctx := errgroup.WithContext(ctx)
	if cfg.Workers > 0 {
		eg.SetLimit(cfg.Workers)
	}
	for i := range files {
		eg.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			data, err := content.Read(files[i].Path)
			if err != nil {
				return fmt.Errorf("site: %w", err)
			}
			ps, err := parser.Parse(&files[i], data)
			if err != nil {
				return fmt.Errorf("site: parse %s: %w", files[i].Path, err)
			}
			parsed[i] = ps
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}

	ts, err := templates.Load(tpl, logger)
	if err != nil {
		return nil, fmt.Errorf("site: %w", err)
	}
	if !ts.Has(render.DefaultTemplate) {
		return nil, fmt.Errorf("site: %w", apperr.ErrNoDefaultTemplate)
	}

	snap := &Snapshot{Registry: render.Registry{}, Files: files, Templates: ts, LoadedAt: time.Now(), Vars: cfg.Vars}
	for _, ps := range parsed {
		for _, p := range ps {
			snap.add(p, cfg.Render.Production, logger)
		}
	}
	snap.Root = buildTree(snap.Pages, snap.Registry)

	gopts := []render.GeneratorOption{render.WithLogger(logger)}
	if cfg.Recorder != nil {
		gopts = append(gopts, render.WithRecorder(cfg.Recorder))
		cfg.Recorder.SetPages(len(snap.Pages))
	}
	snap.Generator = render.New(cfg.Render, snap.Pages, snap.Registry, ts, gopts...)
	logger.Info("site loaded",
		slog.Int("files", len(files)),
		slog.Int("pages", len(snap.Pages)),
		slog.Int("templates", len(ts)))
	return snap, nil
}

// add registers p. The first page with a given href wins; fragments are
// attached to their page when it is already known.
func (s *Snapshot) add(p *models.Page, production bool, logger *slog.Logger) {
	if production && p.Draft {
		return
	}
	if prev, dup := s.Registry[p.Href]; dup {
		logger.Warn("duplicate href, keeping first",
			slog.String("href", p.Href),
			slog.String("file", p.SourcePath()),
			slog.String("first", prev.SourcePath()))
		return
	}
	s.Registry[p.Href] = p
	base, _, isFragment := strings.Cut(p.Href, "#")
	if !isFragment {
		s.Pages = append(s.Pages, p)
		return
	}
	if parent, ok := s.Registry[base]; ok {
		parent.Fragments = append(parent.Fragments, p)
	}
}

// RenderContext returns the context for rendering href as its own output
// file: links relative to its location and the site variables.
func (s *Snapshot) RenderContext(href string) *render.RenderContext {
	return &render.RenderContext{RelPath: RelPath(href), Vars: s.Vars}
}

// Page returns the page or fragment with the given href.
func (s *Snapshot) Page(href string) (*models.Page, error) {
	p, ok := s.Registry[href]
	if !ok {
		return nil, fmt.Errorf("site: page %s: %w", href, apperr.ErrNotFound)
	}
	return p, nil
}
