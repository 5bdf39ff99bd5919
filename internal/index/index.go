package index

import (
	"github.com/starford/vellum/internal/models"
	"github.com/starford/vellum/internal/render"
)

// PageIndex is the read side of the index used by the API and MCP layers.
type PageIndex interface {
	ListPages() ([]PageRow, error)
	LinksFrom(source string) ([]models.LinkRef, error)
	Backlinks(target string) ([]string, error)
	ImageRefs(url string) ([]string, error)
	Images() (render.Inventory, error)
	Search(query string, limit int) ([]SearchResult, error)
}

var _ PageIndex = (*DB)(nil)
