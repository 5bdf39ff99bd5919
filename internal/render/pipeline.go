package render

import (
	"html"

	"github.com/starford/vellum/internal/models"
)

// RenderDoc renders a complete document for p using its doc template. This
// is the entry point for publishing and serving pages.
func (g *Generator) RenderDoc(p *models.Page, rc *RenderContext) (string, error) {
	return g.RenderTemplate(p, g.DocTemplate(p), rc)
}

// RenderLayout renders p with its layout template inside a
// data-render-layout marker, so clients can tell which layout is active.
func (g *Generator) RenderLayout(p *models.Page, rc *RenderContext) (string, error) {
	name := g.LayoutTemplate(p)
	out, err := g.RenderTemplate(p, name, rc)
	return `<div data-render-layout="` + html.EscapeString(name) + `">` + out + `</div>`, err
}

// RenderPage renders p with its page template inside a data-render-page
// marker.
func (g *Generator) RenderPage(p *models.Page, rc *RenderContext) (string, error) {
	name := g.PageTemplate(p)
	out, err := g.RenderTemplate(p, name, rc)
	return `<div data-render-page="` + html.EscapeString(name) + `">` + out + `</div>`, err
}

// RenderHTML renders the markdown of a fragment inside a data-render-html
// marker, or bare with NoWrap. A nil fragment or empty text yields "".
func (g *Generator) RenderHTML(f *models.Page, rc *RenderContext, opts ...MarkdownOption) (string, error) {
	if f == nil || f.Txt == "" {
		return "", nil
	}
	cfg := g.markdownConfig(append(rc.markdownOptions(), opts...))
	out, err := g.renderMarkdown(f.Txt, cfg)
	if err != nil {
		return "", err
	}
	if cfg.noWrap {
		return out, nil
	}
	return `<div data-render-html="` + html.EscapeString(f.Href) + `">` + out + `</div>`, nil
}
