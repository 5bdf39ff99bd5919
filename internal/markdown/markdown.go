// Package markdown wraps goldmark and lets callers swap the HTML emitted for
// links and images without touching the rest of the renderer.
package markdown

import (
	"bytes"
	"fmt"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer"
	"github.com/yuin/goldmark/renderer/html"
	"github.com/yuin/goldmark/util"
)

// Emitter returns the HTML for one link or image. All three arguments are
// already HTML-escaped. For links, text is the rendered inner HTML; for
// images it is the alt text.
type Emitter func(href, title, text string) string

// Hooks are the link and image emitters used by one conversion. A nil
// emitter falls back to DefaultLink or DefaultImage.
type Hooks struct {
	Link  Emitter
	Image Emitter
}

// Convert renders src to HTML using hooks for link and image emission.
// Every call builds its own goldmark instance, so concurrent calls with
// different hooks never observe each other.
func Convert(src string, hooks Hooks) (string, error) {
	var buf bytes.Buffer
	if err := New(hooks).Convert([]byte(src), &buf); err != nil {
		return "", fmt.Errorf("markdown: convert: %w", err)
	}
	return buf.String(), nil
}

// New returns a goldmark instance (GFM, raw HTML allowed) whose link,
// autolink and image nodes are rendered through hooks.
func New(hooks Hooks) goldmark.Markdown {
	if hooks.Link == nil {
		hooks.Link = DefaultLink
	}
	if hooks.Image == nil {
		hooks.Image = DefaultImage
	}
	hr := &hookRenderer{hooks: hooks}
	md := goldmark.New(
		goldmark.WithExtensions(extension.GFM),
		goldmark.WithRendererOptions(
			html.WithUnsafe(),
			renderer.WithNodeRenderers(util.Prioritized(hr, 100)),
		),
	)
	hr.md = md
	return md
}

// DefaultLink emits a plain anchor.
func DefaultLink(href, title, text string) string {
	out := `<a href="` + href + `"`
	if title != "" {
		out += ` title="` + title + `"`
	}
	return out + ">" + text + "</a>"
}

// DefaultImage emits a plain img tag.
func DefaultImage(href, title, text string) string {
	out := `<img src="` + href + `" alt="` + text + `"`
	if title != "" {
		out += ` title="` + title + `"`
	}
	return out + ">"
}

// Escape HTML-escapes s the same way hook arguments are escaped.
func Escape(s string) string {
	return string(util.EscapeHTML([]byte(s)))
}

type hookRenderer struct {
	hooks Hooks
	md    goldmark.Markdown
}

// RegisterFuncs implements renderer.NodeRenderer.
func (r *hookRenderer) RegisterFuncs(reg renderer.NodeRendererFuncRegisterer) {
	reg.Register(ast.KindLink, r.renderLink)
	reg.Register(ast.KindAutoLink, r.renderAutoLink)
	reg.Register(ast.KindImage, r.renderImage)
}

func (r *hookRenderer) renderLink(w util.BufWriter, source []byte, node ast.Node, entering bool) (ast.WalkStatus, error) {
	if !entering {
		return ast.WalkContinue, nil
	}
	n := node.(*ast.Link)
	text, err := r.renderChildren(source, n)
	if err != nil {
		return ast.WalkStop, err
	}
	_, _ = w.WriteString(r.hooks.Link(escape(n.Destination), escape(n.Title), text))
	return ast.WalkSkipChildren, nil
}

func (r *hookRenderer) renderAutoLink(w util.BufWriter, source []byte, node ast.Node, entering bool) (ast.WalkStatus, error) {
	if !entering {
		return ast.WalkContinue, nil
	}
	n := node.(*ast.AutoLink)
	url := n.URL(source)
	label := n.Label(source)
	if n.AutoLinkType == ast.AutoLinkEmail && !bytes.HasPrefix(bytes.ToLower(url), []byte("mailto:")) {
		url = append([]byte("mailto:"), url...)
	}
	_, _ = w.WriteString(r.hooks.Link(escape(url), "", escape(label)))
	return ast.WalkSkipChildren, nil
}

func (r *hookRenderer) renderImage(w util.BufWriter, source []byte, node ast.Node, entering bool) (ast.WalkStatus, error) {
	if !entering {
		return ast.WalkContinue, nil
	}
	n := node.(*ast.Image)
	_, _ = w.WriteString(r.hooks.Image(escape(n.Destination), escape(n.Title), escape(plainText(n, source))))
	return ast.WalkSkipChildren, nil
}

// renderChildren renders the inline content of a link with the same
// renderer, so images nested in links still go through the image hook.
func (r *hookRenderer) renderChildren(source []byte, n ast.Node) (string, error) {
	var buf bytes.Buffer
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		if err := r.md.Renderer().Render(&buf, source, c); err != nil {
			return "", err
		}
	}
	return buf.String(), nil
}

func plainText(n ast.Node, source []byte) []byte {
	var buf bytes.Buffer
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		switch t := c.(type) {
		case *ast.Text:
			buf.Write(t.Segment.Value(source))
			if t.SoftLineBreak() {
				buf.WriteByte(' ')
			}
		case *ast.String:
			buf.Write(t.Value)
		default:
			buf.Write(plainText(c, source))
		}
	}
	return buf.Bytes()
}

func escape(b []byte) string {
	return string(util.EscapeHTML(b))
}
