package render

import (
	"html"
	"log/slog"
	"regexp"
	"strings"

	"github.com/starford/vellum/internal/models"
)

var reNonWord = regexp.MustCompile(`\W`)

// RenderPageTree renders pages and their children as nested lists. Each
// item has an id derived from the page href; folder pages render as plain
// text and the rest as links qualified by lo.
//
// A page that is already on the current path is skipped with a warning, so
// a cyclic Children relation cannot recurse forever.
func (g *Generator) RenderPageTree(pages []*models.Page, lo LinkOptions) string {
	var b strings.Builder
	g.writeTree(&b, pages, lo, map[*models.Page]bool{})
	return b.String()
}

func (g *Generator) writeTree(b *strings.Builder, pages []*models.Page, lo LinkOptions, onPath map[*models.Page]bool) {
	b.WriteString("\n<ul>")
	for _, p := range pages {
		if onPath[p] {
			g.logger.Warn("page tree cycle, skipping page", slog.String("href", p.Href))
			continue
		}
		b.WriteString("\n<li id=\"page-tree")
		b.WriteString(reNonWord.ReplaceAllString(p.Href, "-"))
		b.WriteString(`"`)
		if len(p.Children) > 0 {
			b.WriteString(` class="folder"`)
		}
		b.WriteString(">")
		if p.FolderPage {
			b.WriteString(`<span class="folderPage">`)
			b.WriteString(folderName(p))
			b.WriteString("</span>")
		} else {
			title := p.Title
			if title == "" {
				title = p.Name
			}
			l := Link{Href: p.Href, Text: p.Name, Title: title, LinkOptions: lo}
			b.WriteString(g.RenderLink(l))
		}
		if len(p.Children) > 0 {
			onPath[p] = true
			g.writeTree(b, p.Children, lo, onPath)
			delete(onPath, p)
		}
		b.WriteString("</li>")
	}
	b.WriteString("</ul>")
}

func folderName(p *models.Page) string {
	if p.Name != "" {
		return html.EscapeString(p.Name)
	}
	if s := Unslugify(p.Href); s != "" {
		return html.EscapeString(s)
	}
	return "--"
}
