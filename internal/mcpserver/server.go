// Package mcpserver provides an MCP (Model Context Protocol) server
// that exposes vellum pages, links and images for LLM integration via
// stdio transport.
package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/starford/vellum/internal/index"
	"github.com/starford/vellum/internal/site"
)

const contractURI = "vellum://template-contract"

// Server wraps the MCP server with vellum tools.
type Server struct {
	mcp  *server.MCPServer
	site *site.Service
	idx  index.PageIndex
}

// New creates a new MCP server with all vellum tools registered.
func New(svc *site.Service, idx index.PageIndex) *Server {
	s := &Server{site: svc, idx: idx}

	s.mcp = server.NewMCPServer(
		"Vellum",
		"1.0.0",
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.mcp.AddTool(mcp.NewTool("list_pages",
		mcp.WithDescription("List page hrefs and titles, optionally under an href prefix."),
		mcp.WithString("prefix", mcp.Description("Optional href prefix (e.g. /docs/)")),
	), s.listPages)

	s.mcp.AddTool(mcp.NewTool("render_page",
		mcp.WithDescription("Render a page to HTML through its template cascade. "+
			"Read the contract via the get_template_contract tool or the "+contractURI+" resource "+
			"to understand which templates apply."),
		mcp.WithString("href", mcp.Required(), mcp.Description("Page href (e.g. /docs/intro)")),
		mcp.WithString("partial", mcp.Description("doc (default), layout, page or html"),
			mcp.Enum("doc", "layout", "page", "html")),
	), s.renderPage)

	s.mcp.AddTool(mcp.NewTool("page_links",
		mcp.WithDescription("List the links in a page's markdown, in document order, before any prefixing."),
		mcp.WithString("href", mcp.Required(), mcp.Description("Page or fragment href")),
	), s.pageLinks)

	s.mcp.AddTool(mcp.NewTool("image_inventory",
		mcp.WithDescription("Map image URLs to the pages that reference them."),
		mcp.WithString("url", mcp.Description("Optional image URL to look up")),
	), s.imageInventory)

	s.mcp.AddTool(mcp.NewTool("get_backlinks",
		mcp.WithDescription("Find all pages that link to the specified page."),
		mcp.WithString("href", mcp.Required(), mcp.Description("Href of the page to find backlinks for")),
	), s.getBacklinks)

	s.mcp.AddTool(mcp.NewTool("search_pages",
		mcp.WithDescription("Full-text search through page content and titles."),
		mcp.WithString("query", mcp.Required(), mcp.Description("Search query string")),
	), s.searchPages)

	s.mcp.AddTool(mcp.NewTool("get_template_contract",
		mcp.WithDescription("Returns the vellum source format and template cascade contract."),
	), s.getTemplateContract)

	// Resource: template contract.
	s.mcp.AddResource(
		mcp.NewResource(contractURI, "Template Contract",
			mcp.WithResourceDescription("Source format, template cascade and helpers."),
			mcp.WithMIMEType("text/markdown"),
		),
		s.readContractResource,
	)

	return s
}

// ServeStdio starts the MCP server on stdin/stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcp)
}

// MCPServer returns the underlying server for testing.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcp
}

// optString returns an optional string argument, or def when it is absent.
func optString(req mcp.CallToolRequest, name, def string) string {
	if v, err := req.RequireString(name); err == nil {
		return v
	}
	return def
}

func jsonResult(v any) *mcp.CallToolResult {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(err.Error())
	}
	return mcp.NewToolResultText(string(out))
}

func (s *Server) listPages(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	snap := s.site.Snapshot()
	if snap == nil {
		return mcp.NewToolResultError("site not loaded"), nil
	}
	prefix := optString(req, "prefix", "")

	var lines []string
	for _, p := range snap.Pages {
		if !strings.HasPrefix(p.Href, prefix) {
			continue
		}
		lines = append(lines, p.Href+"\t"+p.Title)
	}
	if len(lines) == 0 {
		return mcp.NewToolResultText("no pages found"), nil
	}
	return mcp.NewToolResultText(strings.Join(lines, "\n")), nil
}

func (s *Server) renderPage(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	href, err := req.RequireString("href")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	snap := s.site.Snapshot()
	if snap == nil {
		return mcp.NewToolResultError("site not loaded"), nil
	}
	p, err := snap.Page(href)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("not found: %s", href)), nil
	}

	gen := snap.Generator
	rc := snap.RenderContext(href)
	var out string
	switch partial := optString(req, "partial", "doc"); partial {
	case "doc", "":
		out, err = gen.RenderDoc(p, rc)
	case "layout":
		out, err = gen.RenderLayout(p, rc)
	case "page":
		out, err = gen.RenderPage(p, rc)
	case "html":
		out, err = gen.RenderHTML(p, rc)
	default:
		return mcp.NewToolResultError(fmt.Sprintf("unknown partial: %s", partial)), nil
	}
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(out), nil
}

func (s *Server) pageLinks(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	href, err := req.RequireString("href")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	snap := s.site.Snapshot()
	if snap == nil {
		return mcp.NewToolResultError("site not loaded"), nil
	}
	p, err := snap.Page(href)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("not found: %s", href)), nil
	}
	links := snap.Generator.ParseLinks(p)
	if len(links) == 0 {
		return mcp.NewToolResultText("no links found"), nil
	}
	return jsonResult(links), nil
}

func (s *Server) imageInventory(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if url := optString(req, "url", ""); url != "" {
		refs, err := s.idx.ImageRefs(url)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		if len(refs) == 0 {
			return mcp.NewToolResultText("no references found"), nil
		}
		return mcp.NewToolResultText(strings.Join(refs, "\n")), nil
	}
	inv, err := s.idx.Images()
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(inv), nil
}

func (s *Server) getBacklinks(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	href, err := req.RequireString("href")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	bl, err := s.idx.Backlinks(href)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if len(bl) == 0 {
		return mcp.NewToolResultText("no backlinks found"), nil
	}
	return mcp.NewToolResultText(strings.Join(bl, "\n")), nil
}

func (s *Server) searchPages(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, err := req.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	results, err := s.idx.Search(query, 20)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(results), nil
}

func (s *Server) getTemplateContract(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText(TemplateContract), nil
}

func (s *Server) readContractResource(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      contractURI,
			MIMEType: "text/markdown",
			Text:     TemplateContract,
		},
	}, nil
}
