package render

import (
	"errors"
	"fmt"
	"html"
	"log/slog"
	"runtime/debug"
	"time"

	"github.com/starford/vellum/internal/apperr"
	"github.com/starford/vellum/internal/metrics"
	"github.com/starford/vellum/internal/models"
)

// Result is the outcome of one template execution.
type Result struct {
	Href     string
	Template string
	// HTML is the rendered output; empty on failure.
	HTML string
	// Diagnostic describes a failed render for site authors.
	Diagnostic string
	// Err is the underlying failure, nil on success.
	Err error
}

// OK reports whether the template rendered without error.
func (r Result) OK() bool { return r.Err == nil }

// Fatal reports whether the failure is a site misconfiguration rather than
// a page-level error.
func (r Result) Fatal() bool { return errors.Is(r.Err, apperr.ErrNoDefaultTemplate) }

// Output returns the HTML to publish. Failed renders yield "" in production
// and an escaped diagnostic block otherwise.
func (r Result) Output(production bool) string {
	if r.OK() {
		return r.HTML
	}
	if production {
		return ""
	}
	return "<pre>" + html.EscapeString(r.Diagnostic) + "</pre>"
}

// ExecuteTemplate runs the named template against p. "none" returns p.Txt
// verbatim and unknown names fall back to "default". Template errors and
// panics are caught and reported in the result, never raised.
func (g *Generator) ExecuteTemplate(p *models.Page, name string, rc *RenderContext) Result {
	res := Result{Href: p.Href, Template: name}
	if name == NoneTemplate {
		res.HTML = p.Txt
		return res
	}

	t, ok := g.templates[name]
	if !ok {
		g.logger.Warn("unknown template, using default",
			slog.String("template", name), slog.String("href", p.Href))
		t, ok = g.templates[DefaultTemplate]
	}
	if !ok {
		res.Err = fmt.Errorf("render %s: template %q: %w", p.Href, name, apperr.ErrNoDefaultTemplate)
		res.Diagnostic = diagnostic(p.Href, name, res.Err)
		g.logger.Error("cannot render page", slog.String("href", p.Href), slog.String("template", name), slog.Any("error", res.Err))
		g.recorder.ObserveRender(metrics.StageTemplate, metrics.ResultFatal, 0)
		return res
	}

	rc = rc.bind(g)
	start := time.Now()
	out, err := invoke(t, p, rc)
	if err == nil && rc.state.fatal != nil {
		err = rc.state.fatal
	}
	switch {
	case err == nil:
		res.HTML = out
		g.recorder.ObserveRender(metrics.StageTemplate, metrics.ResultSuccess, time.Since(start))
	default:
		res.Err = err
		res.Diagnostic = diagnostic(p.Href, name, err)
		g.logger.Error(res.Diagnostic)
		result := metrics.ResultDegraded
		if res.Fatal() {
			result = metrics.ResultFatal
		}
		g.recorder.ObserveRender(metrics.StageTemplate, result, time.Since(start))
	}
	return res
}

// RenderTemplate executes the named template and formats the result for
// the generator's production mode. The error is non-nil only when the site
// has no default template.
func (g *Generator) RenderTemplate(p *models.Page, name string, rc *RenderContext) (string, error) {
	res := g.ExecuteTemplate(p, name, rc)
	if res.Fatal() {
		if rc != nil && rc.state != nil {
			rc.state.fatal = res.Err
		}
		return res.Output(g.opts.Production), res.Err
	}
	return res.Output(g.opts.Production), nil
}

func invoke(t Template, p *models.Page, rc *RenderContext) (out string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v\n%s", r, debug.Stack())
		}
	}()
	return t(p, rc)
}

func diagnostic(href, name string, err error) string {
	return fmt.Sprintf("Error rendering %s\n\ntemplate: %s\n%v", href, name, err)
}
