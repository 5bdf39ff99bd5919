package render

import (
	"html"
	"path"
	"regexp"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/starford/vellum/internal/models"
)

var (
	reHTTP      = regexp.MustCompile(`(?i)^http`)
	reImagePath = regexp.MustCompile(`^/images/`)
	reRootPath  = regexp.MustCompile(`^/([^/]|$)`)
	reSlugSep   = regexp.MustCompile(`[-_\s]+`)

	titleCaser = cases.Title(language.Und, cases.NoLower)
)

// LinkOptions controls how a link href is qualified.
type LinkOptions struct {
	// RelPath prefixes root-relative hrefs when no qualified prefix is set.
	RelPath string
	// FQImages prefixes /images/ hrefs.
	FQImages string
	// FQLinks prefixes other root-relative hrefs.
	FQLinks string
	// HrefOnly returns the qualified href instead of an anchor tag.
	HrefOnly bool
	// NewWindow opens http(s) links in a new window.
	NewWindow bool
}

// Link is the structured link form. Its fields are not HTML-escaped.
type Link struct {
	Href  string
	Title string
	Text  string
	LinkOptions
}

// RenderLink escapes l and renders it as an anchor tag, or as a bare
// qualified href when HrefOnly is set.
func (g *Generator) RenderLink(l Link) string {
	return g.RenderEscapedLink(
		html.EscapeString(l.Href),
		html.EscapeString(l.Title),
		html.EscapeString(l.Text),
		l.LinkOptions,
	)
}

// RenderEscapedLink renders a link whose href, title and text are already
// HTML-escaped, as they are when they come from the markdown engine.
//
// Missing values never fail: the text falls back to the target page's name
// or title, then its source path, then a humanized href, then "--".
func (g *Generator) RenderEscapedLink(href, title, text string, lo LinkOptions) string {
	var target string
	if (g.opts.LinkNewWindow || lo.NewWindow) && reHTTP.MatchString(href) {
		target = ` target="_blank"`
	} else if strings.HasSuffix(title, "^") {
		title = strings.TrimSuffix(title, "^")
		target = ` target="_blank"`
	}

	page := g.lookup(href)
	raw := href
	href = qualify(href, lo)
	if lo.HrefOnly {
		return href
	}

	if text == "" {
		text = fallbackText(page, raw)
	}
	var onclick string
	if page != nil && page.Onclick != "" {
		onclick = ` onclick="` + html.EscapeString(page.Onclick) + `"`
	}
	if href == "" {
		href = "#"
	}

	var b strings.Builder
	b.WriteString(`<a href="`)
	b.WriteString(href)
	b.WriteString(`"`)
	if title != "" {
		b.WriteString(` title="`)
		b.WriteString(title)
		b.WriteString(`"`)
	}
	b.WriteString(target)
	b.WriteString(onclick)
	b.WriteString(">")
	b.WriteString(text)
	b.WriteString("</a>")
	return b.String()
}

// lookup finds the link target by its unprefixed href. Escaped hrefs from
// the markdown engine are tried unescaped as well.
func (g *Generator) lookup(href string) *models.Page {
	if p, ok := g.registry[href]; ok {
		return p
	}
	if u := html.UnescapeString(href); u != href {
		return g.registry[u]
	}
	return nil
}

// qualify prefixes /images/ hrefs with the image prefix and other
// root-relative hrefs with the link prefix. Protocol-relative hrefs are
// left alone.
func qualify(href string, lo LinkOptions) string {
	imgPrefix := lo.FQImages
	if imgPrefix == "" {
		imgPrefix = lo.RelPath
	}
	linkPrefix := lo.FQLinks
	if linkPrefix == "" {
		linkPrefix = lo.RelPath
	}
	switch {
	case imgPrefix != "" && reImagePath.MatchString(href):
		return imgPrefix + href
	case linkPrefix != "" && reRootPath.MatchString(href):
		return linkPrefix + href
	}
	return href
}

func fallbackText(page *models.Page, href string) string {
	if page != nil {
		switch {
		case page.Name != "":
			return html.EscapeString(page.Name)
		case page.Title != "":
			return html.EscapeString(page.Title)
		case page.Hdr == "" && page.SourcePath() != "":
			return html.EscapeString(strings.TrimPrefix(page.SourcePath(), "/"))
		}
	}
	if s := Unslugify(html.UnescapeString(href)); s != "" {
		return html.EscapeString(s)
	}
	return "--"
}

// Unslugify turns an href into display text: the fragment id if there is
// one, else the last path segment without extension, with dashes and
// underscores turned into spaces and words capitalized. "/" yields "".
func Unslugify(href string) string {
	if i := strings.IndexByte(href, '?'); i >= 0 {
		href = href[:i]
	}
	s := href
	if i := strings.IndexByte(href, '#'); i >= 0 {
		s = href[i+1:]
	} else {
		s = path.Base(strings.TrimRight(href, "/"))
		if s == "." || s == "/" {
			s = ""
		}
		s = strings.TrimSuffix(s, path.Ext(s))
	}
	s = strings.TrimSpace(reSlugSep.ReplaceAllString(s, " "))
	if s == "" {
		return ""
	}
	return titleCaser.String(s)
}
