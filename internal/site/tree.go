package site

import (
	"strings"

	"github.com/starford/vellum/internal/models"
	"github.com/starford/vellum/internal/render"
)

// buildTree links pages into a tree by href and returns the root page.
// Missing ancestors are created as folder pages and registered, so every
// page has a parent. Children keep source order.
func buildTree(pages []*models.Page, reg render.Registry) *models.Page {
	root, ok := reg["/"]
	if !ok {
		root = &models.Page{Href: "/", FolderPage: true}
		reg["/"] = root
	}
	for _, p := range pages {
		if p == root {
			continue
		}
		attach(p, root, reg)
	}
	return root
}

func attach(p, root *models.Page, reg render.Registry) {
	parent := findParent(p.Href, reg)
	if parent == nil {
		dir := parentDir(p.Href)
		parent = &models.Page{Href: dir, FolderPage: true}
		reg[dir] = parent
		attach(parent, root, reg)
	}
	parent.Children = append(parent.Children, p)
}

// findParent looks for "/a/" and then "/a" as the parent of "/a/b".
func findParent(href string, reg render.Registry) *models.Page {
	dir := parentDir(href)
	if p, ok := reg[dir]; ok {
		return p
	}
	if dir != "/" {
		if p, ok := reg[strings.TrimSuffix(dir, "/")]; ok {
			return p
		}
	}
	return nil
}

// parentDir returns the folder href containing href: "/a/b" and "/a/b/"
// are both in "/a/".
func parentDir(href string) string {
	trimmed := strings.TrimSuffix(href, "/")
	i := strings.LastIndexByte(trimmed, '/')
	if i < 0 {
		return "/"
	}
	return trimmed[:i+1]
}

// RelPath returns the relative prefix from the output location of href
// back to the site root: "." for top-level pages, ".." one level down.
func RelPath(href string) string {
	depth := strings.Count(parentDir(href), "/") - 1
	if strings.HasSuffix(href, "/") && href != "/" {
		depth = strings.Count(href, "/") - 1
	}
	if depth <= 0 {
		return "."
	}
	return strings.TrimSuffix(strings.Repeat("../", depth), "/")
}

// OutputPath returns the file an href is written to: "/" and "/a/" become
// index.html files, "/a/b" becomes "a/b.html".
func OutputPath(href string) string {
	if strings.HasSuffix(href, "/") {
		return strings.TrimPrefix(href, "/") + "index.html"
	}
	return strings.TrimPrefix(href, "/") + ".html"
}
