package storage

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func tempSite(t *testing.T) *FS {
	t.Helper()
	fs, err := NewFS(t.TempDir())
	require.NoError(t, err)
	return fs
}

func TestWriteAndRead(t *testing.T) {
	s := tempSite(t)
	content := []byte("# Hello\nWorld\n")
	require.NoError(t, s.Write("page.md", content))
	got, err := s.Read("/page.md")
	require.NoError(t, err)
	assert.Equal(t, content, got)
}

func TestWriteCreatesSubdirs(t *testing.T) {
	s := tempSite(t)
	require.NoError(t, s.Write("/a/b/index.html", []byte("deep")))
	got, err := s.Read("a/b/index.html")
	require.NoError(t, err)
	assert.Equal(t, "deep", string(got))
}

func TestList(t *testing.T) {
	s := tempSite(t)
	_ = s.Write("z.md", []byte("z"))
	_ = s.Write("sub/b.md", []byte("b"))
	_ = s.Write("readme.txt", []byte("not md"))
	_ = s.Write(".git/HEAD.md", []byte("hidden"))
	_ = s.Write("partials/nav.hbs", []byte("{{x}}"))

	items, err := s.List("", ".md")
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "/sub/b.md", items[0].Path)
	assert.Equal(t, "/z.md", items[1].Path)
	assert.Equal(t, Checksum([]byte("z")), items[1].Checksum)

	hbs, err := s.List("/partials", ".hbs")
	require.NoError(t, err)
	require.Len(t, hbs, 1)
	assert.Equal(t, "/partials/nav.hbs", hbs[0].Path)
}

func TestTraversalBlocked(t *testing.T) {
	s := tempSite(t)

	cases := []string{
		"../../etc/passwd",
		"../outside.md",
		"/../outside.md",
	}
	for _, p := range cases {
		_, err := s.Read(p)
		assert.Error(t, err, "read %q", p)
		assert.Error(t, s.Write(p, []byte("x")), "write %q", p)
	}
}

func TestAtomicWriteNoLeftovers(t *testing.T) {
	s := tempSite(t)
	_ = s.Write("atomic.html", []byte("original content"))

	updated := []byte("updated content")
	require.NoError(t, s.Write("atomic.html", updated))
	got, _ := s.Read("atomic.html")
	assert.Equal(t, updated, got)

	matches, _ := filepath.Glob(filepath.Join(s.root, ".vellum-tmp-*"))
	assert.Empty(t, matches, "leftover temp files")
}

func TestNewFS_NonExistentDir(t *testing.T) {
	_, err := NewFS("/tmp/vellum-does-not-exist-" + t.Name())
	assert.Error(t, err)
}

func TestNewFS_FileNotDir(t *testing.T) {
	f, err := os.CreateTemp("", "vellum-test-*")
	require.NoError(t, err)
	_ = f.Close()
	defer os.Remove(f.Name())
	_, err = NewFS(f.Name())
	assert.Error(t, err, "root is a file")
}

func TestEnsureFS_CreatesRoot(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "out", "site")
	s, err := EnsureFS(dir)
	require.NoError(t, err)
	assert.Equal(t, dir, s.Root())
}
