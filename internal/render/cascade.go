package render

import "github.com/starford/vellum/internal/models"

// rule returns a template name and true when it applies to a page.
type rule func(g *Generator, p *models.Page) (string, bool)

func resolve(g *Generator, p *models.Page, rules ...rule) string {
	for _, r := range rules {
		if name, ok := r(g, p); ok {
			return name
		}
	}
	return DefaultTemplate
}

func field(get func(*models.Page) string) rule {
	return func(_ *Generator, p *models.Page) (string, bool) {
		v := get(p)
		return v, v != ""
	}
}

func registered(name string) rule {
	return func(g *Generator, _ *models.Page) (string, bool) {
		return name, g.templates.Has(name)
	}
}

func delegate(next func(*models.Page) string) rule {
	return func(_ *Generator, p *models.Page) (string, bool) {
		return next(p), true
	}
}

// DocTemplate returns the document template for p: its doclayout, "none"
// for notemplate pages, its own template for nolayout pages, the
// registered doc-layout, and finally the layout template.
func (g *Generator) DocTemplate(p *models.Page) string {
	return resolve(g, p,
		field(func(p *models.Page) string { return p.DocLayout }),
		func(_ *Generator, p *models.Page) (string, bool) { return NoneTemplate, p.NoTemplate },
		func(_ *Generator, p *models.Page) (string, bool) { return p.Template, p.NoLayout && p.Template != "" },
		registered(DocLayoutTemplate),
		delegate(g.LayoutTemplate),
	)
}

// LayoutTemplate returns the layout template for p: its layout, the
// registered main-layout, and finally the page template.
func (g *Generator) LayoutTemplate(p *models.Page) string {
	return resolve(g, p,
		field(func(p *models.Page) string { return p.Layout }),
		registered(MainLayoutTemplate),
		delegate(g.PageTemplate),
	)
}

// PageTemplate returns p's template, or "default".
func (g *Generator) PageTemplate(p *models.Page) string {
	return resolve(g, p,
		field(func(p *models.Page) string { return p.Template }),
	)
}
