package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/starford/vellum/internal/index"
	"github.com/starford/vellum/internal/site"
	"github.com/starford/vellum/internal/testutil"
)

var testContent = map[string]string{
	"index.md":      "# Home\n\nSee [intro](/docs/intro) and ![logo](/images/logo.png)\n",
	"docs/intro.md": "# Intro\n\nBack [home](/)\n\n![logo](/images/logo.png)\n",
}

var testTemplates = map[string]string{
	"doc-layout.hbs":  "<html>{{{renderLayout}}}</html>",
	"main-layout.hbs": "<main>{{{renderPage}}}</main>",
	"default.hbs":     "{{{renderHtml}}}",
}

// testEnv loads the test site, syncs a temp SQLite index and returns the
// service and API router. An empty authToken means disabled mode.
func testEnv(t *testing.T, authToken string) (*site.Service, http.Handler) {
	t.Helper()
	svc, db := testSite(t)
	return svc, NewRouter(svc, db, authToken != "", authToken, nil)
}

func testSite(t *testing.T) (*site.Service, *index.DB) {
	t.Helper()
	return testSiteVars(t, testTemplates, nil)
}

// testSiteVars is testSite with custom templates and site-wide @-data.
func testSiteVars(t *testing.T, templates map[string]string, vars map[string]any) (*site.Service, *index.DB) {
	t.Helper()
	content := testutil.TestDir(t, testContent)
	tpl := testutil.TestDir(t, templates)

	svc := site.NewService(content, tpl, site.Config{Logger: testutil.QuietLogger(), Workers: 2, Vars: vars})
	snap, err := svc.Reload(context.Background())
	require.NoError(t, err)

	db := testutil.TestDB(t)
	_, err = index.Sync(context.Background(), db, snap, testutil.QuietLogger())
	require.NoError(t, err)
	return svc, db
}

func get(t *testing.T, h http.Handler, target string, out any) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, target, nil)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	if out != nil && w.Code == http.StatusOK {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), out), "decode %s: %s", target, w.Body.String())
	}
	return w
}

func TestListPages(t *testing.T) {
	_, router := testEnv(t, "")

	var resp PageListResponse
	w := get(t, router, "/pages", &resp)
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, 2, resp.Total)
	require.Len(t, resp.Pages, 2)
	assert.Equal(t, "/docs/intro", resp.Pages[0].Href)
	assert.Equal(t, "/", resp.Pages[1].Href)
}

func TestGetPage_LinksBacklinksAndTemplates(t *testing.T) {
	_, router := testEnv(t, "")

	var detail PageDetail
	w := get(t, router, "/pages/docs/intro", &detail)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "Intro", detail.Title)
	assert.Equal(t, "/docs/intro.md", detail.File)
	assert.Equal(t, ResolvedTemplates{Doc: "doc-layout", Layout: "main-layout", Page: "default"}, detail.Templates)
	require.Len(t, detail.Links, 1)
	assert.Equal(t, "/", detail.Links[0].Href)
	assert.Equal(t, []string{"/"}, detail.Backlinks)
}

func TestGetPage_Root(t *testing.T) {
	_, router := testEnv(t, "")

	var detail PageDetail
	w := get(t, router, "/pages/", &detail)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "/", detail.Href)
	assert.Equal(t, []string{"/docs/"}, detail.Children)
}

func TestGetPage_NotFound(t *testing.T) {
	_, router := testEnv(t, "")

	w := get(t, router, "/pages/nope", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestInventory(t *testing.T) {
	_, router := testEnv(t, "")

	for _, target := range []string{"/inventory", "/inventory?fresh=true"} {
		var resp InventoryResponse
		w := get(t, router, target, &resp)
		require.Equal(t, http.StatusOK, w.Code, target)
		require.Len(t, resp.Images, 1, target)
		img := resp.Images[0]
		assert.Equal(t, "/images/logo.png", img.URL, target)
		assert.Equal(t, []string{"/docs/intro", "/"}, img.Pages, target)
	}
}

func TestSearchEndpoint(t *testing.T) {
	_, router := testEnv(t, "")

	var resp SearchResponse
	w := get(t, router, "/search?q=Back", &resp)
	require.Equal(t, http.StatusOK, w.Code)
	require.NotEmpty(t, resp.Results)
	assert.Equal(t, "/docs/intro", resp.Results[0].Href)
}

func TestSearchMissingQuery(t *testing.T) {
	_, router := testEnv(t, "")

	w := get(t, router, "/search", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAuthMiddleware_ValidToken(t *testing.T) {
	_, router := testEnv(t, "secret123")

	req := httptest.NewRequest(http.MethodGet, "/pages", nil)
	req.Header.Set("Authorization", "Bearer secret123")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestAuthMiddleware_MissingToken(t *testing.T) {
	_, router := testEnv(t, "secret123")

	w := get(t, router, "/pages", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuthMiddleware_WrongToken(t *testing.T) {
	_, router := testEnv(t, "secret123")

	req := httptest.NewRequest(http.MethodGet, "/pages", nil)
	req.Header.Set("Authorization", "Bearer wrong")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuthMiddleware_Disabled(t *testing.T) {
	_, router := testEnv(t, "")

	w := get(t, router, "/pages", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestSiteHandler_DocumentAndPartials(t *testing.T) {
	svc, _ := testSite(t)
	h := SiteHandler(svc)

	tests := []struct {
		target string
		prefix string
		want   string
	}{
		{"/docs/intro.html", "<html><div data-render-layout=\"main-layout\"><main>", `<a href="../">home</a>`},
		{"/docs/intro", "<html>", "<h1>Intro</h1>"},
		{"/docs/intro?partial=layout", `<div data-render-layout="main-layout">`, `<div data-render-page="default">`},
		{"/docs/intro?partial=page", `<div data-render-page="default">`, `<div data-render-html="/docs/intro">`},
		{"/docs/intro?partial=html", `<div data-render-html="/docs/intro">`, "<h1>Intro</h1>"},
		{"/index.html", "<html>", `<a href="./docs/intro">intro</a>`},
		{"/", "<html>", "<h1>Home</h1>"},
	}
	for _, tt := range tests {
		t.Run(tt.target, func(t *testing.T) {
			w := get(t, h, tt.target, nil)
			require.Equal(t, http.StatusOK, w.Code, w.Body.String())
			body := w.Body.String()
			assert.True(t, strings.HasPrefix(body, tt.prefix), "body = %q, want prefix %q", body, tt.prefix)
			assert.Contains(t, body, tt.want)
			assert.Contains(t, w.Header().Get("Content-Type"), "text/html")
		})
	}
}

func TestSiteHandler_Errors(t *testing.T) {
	svc, _ := testSite(t)
	h := SiteHandler(svc)

	assert.Equal(t, http.StatusNotFound, get(t, h, "/missing", nil).Code)
	assert.Equal(t, http.StatusBadRequest, get(t, h, "/?partial=bogus", nil).Code)

	empty := site.NewService(testutil.TestDir(t, nil), testutil.TestDir(t, nil), site.Config{Logger: testutil.QuietLogger()})
	assert.Equal(t, http.StatusServiceUnavailable, get(t, SiteHandler(empty), "/", nil).Code)
}

func TestSiteHandler_SiteVars(t *testing.T) {
	templates := map[string]string{
		"doc-layout.hbs":  "<title>{{@siteName}}</title>{{{renderLayout}}}",
		"main-layout.hbs": "<main>{{{renderPage}}}</main>",
		"default.hbs":     "{{{renderHtml}}}",
	}
	svc, _ := testSiteVars(t, templates, map[string]any{"siteName": "Vellum"})

	w := get(t, SiteHandler(svc), "/docs/intro", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.True(t, strings.HasPrefix(w.Body.String(), "<title>Vellum</title>"), w.Body.String())
}

func TestHrefFromPath(t *testing.T) {
	tests := map[string]string{
		"":                 "/",
		"/":                "/",
		"/index.html":      "/",
		"/a/index.html":    "/a/",
		"/a/":              "/a/",
		"/a/b.html":        "/a/b",
		"/a/b":             "/a/b",
		"/images/logo.png": "/images/logo.png",
	}
	for in, want := range tests {
		assert.Equal(t, want, hrefFromPath(in), "hrefFromPath(%q)", in)
	}
}

// SSE endpoint auth tests.

func TestSSEEvents_AuthProtected(t *testing.T) {
	router := testEnvWithSSE(t, true, "secret")

	// No token → 401.
	w := get(t, router, "/events", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestSSEEvents_AuthDisabled(t *testing.T) {
	router := testEnvWithSSE(t, false, "")

	// Disabled mode → should not 401. SSE handler will write 200 and block,
	// so we cancel the context after a short time.
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	req := httptest.NewRequest(http.MethodGet, "/events", nil).WithContext(ctx)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.NotEqual(t, http.StatusUnauthorized, w.Code, "SSE should not require auth when disabled")
}

func TestSSEEvents_ValidToken(t *testing.T) {
	router := testEnvWithSSE(t, true, "tok")

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	req := httptest.NewRequest(http.MethodGet, "/events", nil).WithContext(ctx)
	req.Header.Set("Authorization", "Bearer tok")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.NotEqual(t, http.StatusUnauthorized, w.Code, "SSE with valid token should not 401")
}

// testEnvWithSSE creates a router with a dummy SSE handler to test auth on /events.
func testEnvWithSSE(t *testing.T, authEnabled bool, token string) http.Handler {
	t.Helper()
	svc, db := testSite(t)

	// Minimal SSE handler stub: writes headers and blocks until context done.
	sseHandler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		w.WriteHeader(http.StatusOK)
		if f, ok := w.(http.Flusher); ok {
			f.Flush()
		}
		<-r.Context().Done()
	})

	return NewRouter(svc, db, authEnabled, token, sseHandler)
}
