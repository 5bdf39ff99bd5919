// Package templates compiles handlebars files into render templates and
// provides the helpers that let templates call back into the pipeline.
package templates

import (
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/aymerick/raymond"

	"github.com/starford/vellum/internal/models"
	"github.com/starford/vellum/internal/render"
	"github.com/starford/vellum/internal/storage"
)

const (
	// Ext is the template file extension.
	Ext = ".hbs"
	// PartialsDir holds partials shared by every template.
	PartialsDir = "/partials/"

	contextKey = "renderContext"
)

// Load compiles every template file in store. A template is named after
// its path without the leading "/" and the extension, so
// "/blog/post.hbs" becomes "blog/post". Files under partials/ are
// registered as partials on every template instead.
func Load(store storage.Provider, logger *slog.Logger) (render.Templates, error) {
	files, err := store.List("", Ext)
	if err != nil {
		return nil, fmt.Errorf("templates: list: %w", err)
	}

	partials := map[string]string{}
	sources := map[string]string{}
	for _, f := range files {
		data, err := store.Read(f.Path)
		if err != nil {
			return nil, fmt.Errorf("templates: %w", err)
		}
		name := strings.TrimSuffix(f.Path, Ext)
		if strings.HasPrefix(f.Path, PartialsDir) {
			partials[strings.TrimPrefix(name, PartialsDir)] = string(data)
			continue
		}
		sources[strings.TrimPrefix(name, "/")] = string(data)
	}

	out := make(render.Templates, len(sources))
	for name, src := range sources {
		t, err := Compile(name, src, partials)
		if err != nil {
			return nil, err
		}
		out[name] = t
	}
	logger.Info("templates loaded", slog.Int("templates", len(out)), slog.Int("partials", len(partials)))
	return out, nil
}

// Compile parses a handlebars source into a render template. The page is
// the template context; @page and @relPath are available as data.
func Compile(name, src string, partials map[string]string) (render.Template, error) {
	tpl, err := raymond.Parse(src)
	if err != nil {
		return nil, fmt.Errorf("templates: parse %s: %w", name, err)
	}
	if len(partials) > 0 {
		tpl.RegisterPartials(partials)
	}
	tpl.RegisterHelpers(helpers())

	return func(p *models.Page, rc *render.RenderContext) (string, error) {
		frame := raymond.NewDataFrame()
		for k, v := range rc.Vars {
			frame.Set(k, v)
		}
		frame.Set("page", p)
		frame.Set("relPath", rc.RelPath)
		frame.Set(contextKey, rc)
		out, err := tpl.ExecWith(p, frame)
		if err != nil {
			return "", fmt.Errorf("templates: exec %s: %w", name, err)
		}
		return out, nil
	}, nil
}

// Names returns the sorted template names in ts.
func Names(ts render.Templates) []string {
	out := make([]string, 0, len(ts))
	for n := range ts {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}
