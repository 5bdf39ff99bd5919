package render

import (
	"github.com/starford/vellum/internal/markdown"
)

// MarkdownOption overrides one key of the base markdown configuration for a
// single RenderMarkdown call. Options applied later win, and explicit empty
// values do override the site defaults.
type MarkdownOption func(*markdownConfig)

type markdownConfig struct {
	link      LinkOptions
	noWrap    bool
	emitLink  markdown.Emitter
	wrapImage func(markdown.Emitter) markdown.Emitter
}

// FQImages sets the prefix for /images/ references.
func FQImages(prefix string) MarkdownOption {
	return func(c *markdownConfig) { c.link.FQImages = prefix }
}

// FQLinks sets the prefix for root-relative links.
func FQLinks(prefix string) MarkdownOption {
	return func(c *markdownConfig) { c.link.FQLinks = prefix }
}

// RelPath sets the relative prefix used when no qualified prefix applies.
func RelPath(rel string) MarkdownOption {
	return func(c *markdownConfig) { c.link.RelPath = rel }
}

// LinkNewWindow opens http(s) links in a new window.
func LinkNewWindow(on bool) MarkdownOption {
	return func(c *markdownConfig) { c.link.NewWindow = on }
}

// NoWrap makes RenderHTML return the markdown output without its marker
// container, for places where CSS relies on direct child selectors.
func NoWrap() MarkdownOption {
	return func(c *markdownConfig) { c.noWrap = true }
}

func emitLinks(e markdown.Emitter) MarkdownOption {
	return func(c *markdownConfig) { c.emitLink = e }
}

func wrapImages(w func(markdown.Emitter) markdown.Emitter) MarkdownOption {
	return func(c *markdownConfig) {
		if prev := c.wrapImage; prev != nil {
			c.wrapImage = func(base markdown.Emitter) markdown.Emitter { return w(prev(base)) }
			return
		}
		c.wrapImage = w
	}
}

// baseMarkdownConfig is the site default: images qualified with FQImages or
// the static root, links with the static root.
func (g *Generator) baseMarkdownConfig() markdownConfig {
	fqImages := g.opts.FQImages
	if fqImages == "" {
		fqImages = g.opts.StaticRoot
	}
	return markdownConfig{link: LinkOptions{
		FQImages:  fqImages,
		FQLinks:   g.opts.StaticRoot,
		NewWindow: g.opts.LinkNewWindow,
	}}
}

func (g *Generator) markdownConfig(opts []MarkdownOption) markdownConfig {
	cfg := g.baseMarkdownConfig()
	for _, o := range opts {
		o(&cfg)
	}
	return cfg
}

// RenderMarkdown renders text to HTML. Links go through the link resolver
// and images through the image emitter, both using the merged options.
// Engine errors are returned as is.
func (g *Generator) RenderMarkdown(text string, opts ...MarkdownOption) (string, error) {
	return g.renderMarkdown(text, g.markdownConfig(opts))
}

func (g *Generator) renderMarkdown(text string, cfg markdownConfig) (string, error) {
	lo := cfg.link
	hooks := markdown.Hooks{
		Link: func(href, title, txt string) string {
			return g.RenderEscapedLink(href, title, txt, lo)
		},
		Image: func(href, title, txt string) string {
			return g.renderImage(href, title, txt, lo)
		},
	}
	if cfg.emitLink != nil {
		hooks.Link = cfg.emitLink
	}
	if cfg.wrapImage != nil {
		hooks.Image = cfg.wrapImage(hooks.Image)
	}
	return markdown.Convert(text, hooks)
}

// renderImage emits an img tag with the same prefix rules as links.
func (g *Generator) renderImage(href, title, alt string, lo LinkOptions) string {
	return markdown.DefaultImage(qualify(href, lo), title, alt)
}
