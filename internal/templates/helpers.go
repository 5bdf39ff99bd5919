package templates

import (
	"errors"
	"fmt"

	"github.com/aymerick/raymond"

	"github.com/starford/vellum/internal/models"
	"github.com/starford/vellum/internal/render"
)

var errNoContext = errors.New("templates: helper called outside a render")

// helpers returns the helpers registered on every template. Failures panic
// with an error, which raymond returns from Exec.
//
//	{{{renderLayout}}} {{{renderPage}}} {{{renderHtml noWrap=true}}}
//	{{{pageTree href="/docs/"}}} {{{pageLink "/about" text="About"}}} {{relPath}}
func helpers() map[string]any {
	return map[string]any{
		"renderLayout": renderLayoutHelper,
		"renderPage":   renderPageHelper,
		"renderHtml":   renderHTMLHelper,
		"pageTree":     pageTreeHelper,
		"pageLink":     pageLinkHelper,
		"relPath":      relPathHelper,
	}
}

func renderLayoutHelper(options *raymond.Options) raymond.SafeString {
	rc, p := scope(options)
	out, err := rc.Generator().RenderLayout(p, rc)
	must(err)
	return raymond.SafeString(out)
}

func renderPageHelper(options *raymond.Options) raymond.SafeString {
	rc, p := scope(options)
	out, err := rc.Generator().RenderPage(p, rc)
	must(err)
	return raymond.SafeString(out)
}

func renderHTMLHelper(options *raymond.Options) raymond.SafeString {
	rc, p := scope(options)
	var opts []render.MarkdownOption
	if raymond.IsTrue(options.HashProp("noWrap")) {
		opts = append(opts, render.NoWrap())
	}
	out, err := rc.Generator().RenderHTML(p, rc, opts...)
	must(err)
	return raymond.SafeString(out)
}

// pageTreeHelper renders the tree under the page named by the href hash
// argument, or under the site root.
func pageTreeHelper(options *raymond.Options) raymond.SafeString {
	rc, _ := scope(options)
	href := options.HashStr("href")
	if href == "" {
		href = "/"
	}
	root, ok := rc.Generator().Page(href)
	if !ok {
		return ""
	}
	return raymond.SafeString(rc.Generator().RenderPageTree([]*models.Page{root}, render.LinkOptions{RelPath: rc.RelPath}))
}

func pageLinkHelper(href string, options *raymond.Options) raymond.SafeString {
	rc, _ := scope(options)
	return raymond.SafeString(rc.Generator().RenderLink(render.Link{
		Href:  href,
		Text:  options.HashStr("text"),
		Title: options.HashStr("title"),
		LinkOptions: render.LinkOptions{
			RelPath:  rc.RelPath,
			HrefOnly: raymond.IsTrue(options.HashProp("hrefOnly")),
		},
	}))
}

func relPathHelper(options *raymond.Options) string {
	rc, _ := scope(options)
	return rc.RelPath
}

// scope returns the render context of the current execution and the page
// in scope: the block context when it is a page (as inside
// {{#each fragments}}), else the page being rendered.
func scope(options *raymond.Options) (*render.RenderContext, *models.Page) {
	rc, ok := options.Data(contextKey).(*render.RenderContext)
	if !ok || rc == nil || rc.Generator() == nil {
		panic(errNoContext)
	}
	if p, ok := options.Ctx().(*models.Page); ok && p != nil {
		return rc, p
	}
	if p, ok := options.Data("page").(*models.Page); ok && p != nil {
		return rc, p
	}
	panic(fmt.Errorf("templates: no page in scope"))
}

func must(err error) {
	if err != nil {
		panic(err)
	}
}
