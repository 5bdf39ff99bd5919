package mcpserver

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/starford/vellum/internal/index"
	"github.com/starford/vellum/internal/models"
	"github.com/starford/vellum/internal/site"
	"github.com/starford/vellum/internal/testutil"
)

func testServer(t *testing.T) *Server {
	t.Helper()
	logger := testutil.QuietLogger()

	content := testutil.TestDir(t, map[string]string{
		"index.md":      "# Home\n\n[Guide](/docs/guide \"Read me\") ![shot](/images/shot.png)\n",
		"docs/guide.md": "# Guide\n\nBack to [home](/).\n\n![shot](/images/shot.png)\n",
	})
	tpl := testutil.TestDir(t, map[string]string{
		"main-layout.hbs": "<main>{{{renderPage}}}</main>",
		"default.hbs":     "{{{renderHtml}}}",
	})
	svc := site.NewService(content, tpl, site.Config{Logger: logger})
	snap, err := svc.Reload(context.Background())
	require.NoError(t, err)

	db := testutil.TestDB(t)
	_, err = index.Sync(context.Background(), db, snap, logger)
	require.NoError(t, err)

	return New(svc, db)
}

func callTool(t *testing.T, srv *Server, name string, args map[string]interface{}) *mcp.CallToolResult {
	t.Helper()
	ctx := context.Background()
	req := mcp.CallToolRequest{}
	req.Method = "tools/call"
	req.Params.Name = name
	req.Params.Arguments = args

	// mcp-go doesn't expose a direct "call tool" test helper, so we
	// call the handler functions directly.
	var result *mcp.CallToolResult
	var err error

	switch name {
	case "list_pages":
		result, err = srv.listPages(ctx, req)
	case "render_page":
		result, err = srv.renderPage(ctx, req)
	case "page_links":
		result, err = srv.pageLinks(ctx, req)
	case "image_inventory":
		result, err = srv.imageInventory(ctx, req)
	case "get_backlinks":
		result, err = srv.getBacklinks(ctx, req)
	case "search_pages":
		result, err = srv.searchPages(ctx, req)
	case "get_template_contract":
		result, err = srv.getTemplateContract(ctx, req)
	default:
		t.Fatalf("unknown tool: %s", name)
	}

	require.NoError(t, err, "tool %s", name)
	return result
}

func resultText(r *mcp.CallToolResult) string {
	if len(r.Content) > 0 {
		if tc, ok := r.Content[0].(mcp.TextContent); ok {
			return tc.Text
		}
	}
	return ""
}

func TestListPages(t *testing.T) {
	srv := testServer(t)

	text := resultText(callTool(t, srv, "list_pages", map[string]interface{}{}))
	assert.Equal(t, "/docs/guide\tGuide\n/\tHome", text)

	text = resultText(callTool(t, srv, "list_pages", map[string]interface{}{"prefix": "/docs/"}))
	assert.Equal(t, "/docs/guide\tGuide", text)
}

func TestRenderPage(t *testing.T) {
	srv := testServer(t)

	text := resultText(callTool(t, srv, "render_page", map[string]interface{}{"href": "/docs/guide"}))
	assert.True(t, strings.HasPrefix(text, `<main><div data-render-page="default">`), "doc = %q", text)
	assert.Contains(t, text, `<a href="../">home</a>`, "doc links not relative")

	text = resultText(callTool(t, srv, "render_page", map[string]interface{}{"href": "/docs/guide", "partial": "html"}))
	assert.True(t, strings.HasPrefix(text, `<div data-render-html="/docs/guide">`), "html partial = %q", text)
}

func TestRenderPage_Errors(t *testing.T) {
	srv := testServer(t)

	assert.True(t, callTool(t, srv, "render_page", map[string]interface{}{"href": "/nope"}).IsError, "missing page")
	assert.True(t, callTool(t, srv, "render_page", map[string]interface{}{"href": "/", "partial": "bogus"}).IsError, "unknown partial")
	assert.True(t, callTool(t, srv, "render_page", map[string]interface{}{}).IsError, "missing href")
}

func TestPageLinks(t *testing.T) {
	srv := testServer(t)

	r := callTool(t, srv, "page_links", map[string]interface{}{"href": "/"})
	var links []models.LinkRef
	require.NoError(t, json.Unmarshal([]byte(resultText(r)), &links), resultText(r))
	assert.Equal(t, []models.LinkRef{{Href: "/docs/guide", Title: "Read me", Text: "Guide"}}, links)
}

func TestImageInventory(t *testing.T) {
	srv := testServer(t)

	text := resultText(callTool(t, srv, "image_inventory", map[string]interface{}{"url": "/images/shot.png"}))
	assert.Equal(t, "/docs/guide\n/", text)

	r := callTool(t, srv, "image_inventory", map[string]interface{}{})
	var inv map[string][]string
	require.NoError(t, json.Unmarshal([]byte(resultText(r)), &inv))
	assert.Len(t, inv["/images/shot.png"], 2)
}

func TestGetBacklinks(t *testing.T) {
	srv := testServer(t)

	text := resultText(callTool(t, srv, "get_backlinks", map[string]interface{}{"href": "/docs/guide"}))
	assert.Equal(t, "/", text)
	text = resultText(callTool(t, srv, "get_backlinks", map[string]interface{}{"href": "/orphan"}))
	assert.Equal(t, "no backlinks found", text)
}

func TestSearchPages(t *testing.T) {
	srv := testServer(t)

	r := callTool(t, srv, "search_pages", map[string]interface{}{"query": "Back"})
	var results []index.SearchResult
	require.NoError(t, json.Unmarshal([]byte(resultText(r)), &results))
	require.Len(t, results, 1)
	assert.Equal(t, "/docs/guide", results[0].Href)
}

func TestTemplateContract(t *testing.T) {
	srv := testServer(t)

	text := resultText(callTool(t, srv, "get_template_contract", map[string]interface{}{}))
	assert.Contains(t, text, "Template cascade")

	contents, err := srv.readContractResource(context.Background(), mcp.ReadResourceRequest{})
	require.NoError(t, err)
	require.Len(t, contents, 1)
	tc, ok := contents[0].(mcp.TextResourceContents)
	require.True(t, ok, "resource = %+v", contents[0])
	assert.Equal(t, contractURI, tc.URI)
	assert.Equal(t, TemplateContract, tc.Text)
}
