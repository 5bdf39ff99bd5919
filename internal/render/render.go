// Package render turns pages into HTML: it picks templates through the
// doc/layout/page cascade, executes them, renders markdown bodies with
// context-aware link and image rewriting, and scans the site for image
// references.
//
// A Generator holds no mutable renderer state. Per-call behavior (relative
// paths, link/image hooks) travels in a RenderContext or in MarkdownOptions,
// so concurrent renders never interfere with each other.
package render

import (
	"log/slog"

	"github.com/starford/vellum/internal/markdown"
	"github.com/starford/vellum/internal/metrics"
	"github.com/starford/vellum/internal/models"
)

// Reserved template names.
const (
	NoneTemplate       = "none"
	DefaultTemplate    = "default"
	DocLayoutTemplate  = "doc-layout"
	MainLayoutTemplate = "main-layout"
)

// Template renders a page. rc is never nil and carries the ambient render
// context plus the generator, so templates can call back into the pipeline.
type Template func(p *models.Page, rc *RenderContext) (string, error)

// Templates maps template names to template functions.
type Templates map[string]Template

// Has reports whether name is registered.
func (t Templates) Has(name string) bool {
	_, ok := t[name]
	return ok
}

// Registry maps hrefs to pages and fragments.
type Registry map[string]*models.Page

// Options is the site-level configuration of a Generator.
type Options struct {
	// StaticRoot qualifies root-relative links (and images when FQImages is empty).
	StaticRoot string
	// FQImages qualifies /images/ references.
	FQImages string
	// LinkNewWindow opens http(s) links in a new window.
	LinkNewWindow bool
	// Production hides template diagnostics from rendered output.
	Production bool
	// ScanWorkers bounds concurrent page renders during Inventory.
	ScanWorkers int
}

// RenderContext is the ambient context of one render call. It is passed to
// every template explicitly and never stored on a page.
type RenderContext struct {
	// RelPath prefixes root-relative links when no qualified prefix is set.
	RelPath string
	// Vars holds extra values exposed to templates.
	Vars map[string]any

	gen       *Generator
	wrapImage func(markdown.Emitter) markdown.Emitter
	state     *renderState
}

type renderState struct {
	fatal error
}

// Generator is the rendering pipeline for one site snapshot.
type Generator struct {
	opts      Options
	pages     []*models.Page
	registry  Registry
	templates Templates
	logger    *slog.Logger
	recorder  metrics.Recorder
}

// GeneratorOption configures optional Generator collaborators.
type GeneratorOption func(*Generator)

// WithLogger sets the logger used for render diagnostics.
func WithLogger(l *slog.Logger) GeneratorOption {
	return func(g *Generator) {
		if l != nil {
			g.logger = l
		}
	}
}

// WithRecorder sets the metrics recorder.
func WithRecorder(r metrics.Recorder) GeneratorOption {
	return func(g *Generator) {
		if r != nil {
			g.recorder = r
		}
	}
}

// New creates a Generator over an ordered page list, the href registry and
// the template registry. None of them are modified.
func New(opts Options, pages []*models.Page, registry Registry, templates Templates, gopts ...GeneratorOption) *Generator {
	if registry == nil {
		registry = Registry{}
	}
	if templates == nil {
		templates = Templates{}
	}
	g := &Generator{
		opts:      opts,
		pages:     pages,
		registry:  registry,
		templates: templates,
		logger:    slog.Default(),
		recorder:  metrics.NoopRecorder{},
	}
	for _, o := range gopts {
		o(g)
	}
	return g
}

// Options returns the site-level options.
func (g *Generator) Options() Options { return g.opts }

// Pages returns the ordered page list.
func (g *Generator) Pages() []*models.Page { return g.pages }

// Page looks up a page or fragment by href.
func (g *Generator) Page(href string) (*models.Page, bool) {
	p, ok := g.registry[href]
	return p, ok
}

// Generator returns the generator executing the current render.
func (rc *RenderContext) Generator() *Generator { return rc.gen }

// bind returns a copy of rc attached to g. The copy shares the fatal-error
// state with rc so nested renders can report configuration errors upward.
func (rc *RenderContext) bind(g *Generator) *RenderContext {
	var c RenderContext
	if rc != nil {
		c = *rc
	}
	c.gen = g
	if c.state == nil {
		c.state = &renderState{}
	}
	return &c
}

// markdownOptions converts the context into markdown options for RenderHTML.
func (rc *RenderContext) markdownOptions() []MarkdownOption {
	if rc == nil {
		return nil
	}
	var out []MarkdownOption
	if rc.RelPath != "" {
		out = append(out, RelPath(rc.RelPath))
	}
	if rc.wrapImage != nil {
		out = append(out, wrapImages(rc.wrapImage))
	}
	return out
}
