package api

import "github.com/starford/vellum/internal/models"

// PageListItem is a lightweight item in a page listing.
type PageListItem struct {
	Href   string `json:"href" example:"/docs/intro" validate:"required"`
	Title  string `json:"title,omitempty" example:"Intro"`
	Name   string `json:"name,omitempty" example:"Introduction"`
	File   string `json:"file,omitempty" example:"/docs/intro.md"`
	Folder bool   `json:"folder,omitempty"`
}

// PageListResponse wraps a page listing.
type PageListResponse struct {
	Pages []PageListItem `json:"pages" validate:"required"`
	Total int            `json:"total" example:"42" validate:"required"`
}

// ResolvedTemplates are the template names the cascade picks for a page.
type ResolvedTemplates struct {
	Doc    string `json:"doc" example:"doc-layout"`
	Layout string `json:"layout" example:"main-layout"`
	Page   string `json:"page" example:"default"`
}

// PageDetail is the full page response.
type PageDetail struct {
	PageListItem
	Templates ResolvedTemplates `json:"templates"`
	Children  []string          `json:"children"`
	Fragments []string          `json:"fragments"`
	Meta      map[string]any    `json:"meta,omitempty"`
	Links     []models.LinkRef  `json:"links"`
	Backlinks []string          `json:"backlinks"`
}

// SearchResult is a single search hit in the API response.
type SearchResult struct {
	Href    string `json:"href" example:"/docs/intro" validate:"required"`
	Title   string `json:"title" example:"Intro" validate:"required"`
	Snippet string `json:"snippet" example:"...matched text..." validate:"required"`
}

// SearchResponse wraps search results.
type SearchResponse struct {
	Results []SearchResult `json:"results" validate:"required"`
}

// ImageEntry lists the pages that reference one image, once per reference.
type ImageEntry struct {
	URL   string   `json:"url" example:"/images/logo.png" validate:"required"`
	Pages []string `json:"pages" validate:"required"`
}

// InventoryResponse wraps the image inventory.
type InventoryResponse struct {
	Images []ImageEntry `json:"images" validate:"required"`
}

func listItem(p *models.Page) PageListItem {
	return PageListItem{
		Href:   p.Href,
		Title:  p.Title,
		Name:   p.Name,
		File:   p.SourcePath(),
		Folder: p.FolderPage || p.File == nil,
	}
}

func hrefs(pages []*models.Page) []string {
	out := make([]string, 0, len(pages))
	for _, p := range pages {
		out = append(out, p.Href)
	}
	return out
}
