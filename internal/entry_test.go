package internal

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/starford/vellum/internal/render"
)

func writeSite(t *testing.T) *Config {
	t.Helper()
	root := t.TempDir()
	files := map[string]string{
		"content/index.md":         "# Home\n\n![a](/images/a.png)\n",
		"content/docs/intro.md":    "# Intro\n\n![a](/images/a.png) ![b](/images/b.png)\n",
		"templates/default.hbs":    "{{{renderHtml}}}",
		"templates/doc-layout.hbs": "<html>{{{renderLayout}}}</html>",
	}
	for name, body := range files {
		p := filepath.Join(root, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
		require.NoError(t, os.WriteFile(p, []byte(body), 0o644))
	}
	cfg := NewDefaultConfig()
	cfg.Site.Content = filepath.Join(root, "content")
	cfg.Site.Templates = filepath.Join(root, "templates")
	cfg.Site.Output = filepath.Join(root, "public")
	cfg.SQLite.Path = filepath.Join(root, "vellum.db")
	return cfg
}

func TestRun_RequiresConfig(t *testing.T) {
	assert.Error(t, Run(context.Background()))
}

func TestBuild_WritesPages(t *testing.T) {
	cfg := writeSite(t)
	require.NoError(t, Build(context.Background(), WithConfig(cfg), WithLogOutput(io.Discard)))
	for _, name := range []string{"index.html", "docs/intro.html"} {
		data, err := os.ReadFile(filepath.Join(cfg.Site.Output, filepath.FromSlash(name)))
		require.NoError(t, err, name)
		assert.True(t, bytes.HasPrefix(data, []byte("<html>")), "%s = %q", name, data)
	}
}

func TestBuild_PassesSiteVars(t *testing.T) {
	cfg := writeSite(t)
	cfg.Site.Vars = map[string]any{"siteName": "Vellum Docs"}
	layout := filepath.Join(cfg.Site.Templates, "doc-layout.hbs")
	require.NoError(t, os.WriteFile(layout, []byte("<title>{{@siteName}}</title>{{{renderLayout}}}"), 0o644))

	require.NoError(t, Build(context.Background(), WithConfig(cfg), WithLogOutput(io.Discard)))
	data, err := os.ReadFile(filepath.Join(cfg.Site.Output, "index.html"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "<title>Vellum Docs</title>")
}

func TestInventory_JSON(t *testing.T) {
	cfg := writeSite(t)
	var buf bytes.Buffer
	require.NoError(t, Inventory(context.Background(), &buf, WithConfig(cfg), WithLogOutput(io.Discard)))
	var got []struct {
		URL   string   `json:"url"`
		Pages []string `json:"pages"`
	}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got), buf.String())
	require.Len(t, got, 2)
	assert.Equal(t, "/images/a.png", got[0].URL)
	assert.Equal(t, "/images/b.png", got[1].URL)
	assert.Equal(t, []string{"/docs/intro", "/"}, got[0].Pages)
}

func TestWriteInventory_Empty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, writeInventory(&buf, render.Inventory{}))
	assert.Equal(t, "[]\n", buf.String())
}
