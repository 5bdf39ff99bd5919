// Package parser splits a Markdown source file into pages and fragments.
//
// A source may start with a YAML frontmatter block. Its body is divided by
// fragment headers of the form
//
//	---- /href (comment) ----
//	key: value
//
// where the href and comment are optional and the key/value lines run up
// to the first blank line.
package parser

import (
	"bytes"
	"fmt"
	"path"
	"regexp"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/starford/vellum/internal/apperr"
	"github.com/starford/vellum/internal/models"
)

var (
	headerRe = regexp.MustCompile(`^-{4,}[ \t]+([^\s(-][^\s(]*)?[ \t]*(?:\(([^)]*)\))?[ \t]*-{4,}[ \t]*$`)
	metaRe   = regexp.MustCompile(`^[ \t]*([A-Za-z_][\w-]*)[ \t]*:[ \t]*(.*?)[ \t]*$`)
)

// Parse splits data, read from the source file f, into pages and fragments
// in document order. The first entry always takes its href from the file
// path unless its header names another one.
func Parse(f *models.File, data []byte) ([]*models.Page, error) {
	if f == nil || !strings.HasPrefix(f.Path, "/") {
		return nil, fmt.Errorf("parser: %w: source path must be rooted", apperr.ErrInvalidSource)
	}
	fm, body := splitFrontmatter(data)

	var (
		out     []*models.Page
		page    = HrefFromPath(f.Path)
		counter = map[string]int{}
	)
	secs := splitSections(body)
	for i, sec := range secs {
		// Text before the first header is a fragment only if it has content
		// or the file has no headers at all.
		if i == 0 && strings.TrimSpace(sec.txt) == "" && len(secs) > 1 {
			continue
		}
		p := &models.Page{Hdr: sec.hdr, Txt: sec.txt, File: f}
		switch href := sec.href; {
		case href == "" && len(out) == 0:
			p.Href = page
		case href == "":
			counter[page]++
			p.Href = page + "#fragment-" + strconv.Itoa(counter[page])
		case strings.HasPrefix(href, "#"):
			p.Href = page + href
		default:
			p.Href = href
			if j := strings.IndexByte(href, '#'); j >= 0 {
				page = href[:j]
			} else {
				page = href
			}
		}
		if len(out) == 0 {
			for k, v := range fm {
				applyMeta(p, k, v)
			}
		}
		for _, kv := range sec.meta {
			applyMeta(p, kv[0], kv[1])
		}
		if strings.Contains(strings.ToLower(sec.comment), "draft") {
			p.Draft = true
		}
		if p.Title == "" {
			p.Title = deriveTitle(p.Txt)
		}
		out = append(out, p)
	}
	return out, nil
}

// HrefFromPath maps a source path to a page href: "/index.md" is "/",
// "/a/index.md" is "/a/" and "/a/b.md" is "/a/b". A trailing "~" in the
// file name is dropped.
func HrefFromPath(p string) string {
	dir, file := path.Split(p)
	name := strings.TrimSuffix(file, path.Ext(file))
	name = strings.TrimSuffix(name, "~")
	if name == "index" {
		return dir
	}
	return dir + name
}

type section struct {
	href    string
	comment string
	meta    [][2]string
	hdr     string
	txt     string
}

// splitSections cuts body at fragment header lines. The first section
// holds any text before the first header.
func splitSections(body string) []section {
	lines := strings.SplitAfter(body, "\n")
	secs := []section{{}}
	cur := &secs[0]
	var (
		txt  strings.Builder
		code fence
	)
	flush := func() {
		cur.txt = txt.String()
		txt.Reset()
	}
	for i := 0; i < len(lines); i++ {
		line := lines[i]
		bare := strings.TrimRight(line, "\r\n")
		if code.skip(bare) {
			txt.WriteString(line)
			continue
		}
		m := headerRe.FindStringSubmatch(bare)
		if m == nil {
			txt.WriteString(line)
			continue
		}
		flush()
		secs = append(secs, section{href: m[1], comment: m[2]})
		cur = &secs[len(secs)-1]
		var hdr strings.Builder
		hdr.WriteString(line)
		for i+1 < len(lines) {
			next := lines[i+1]
			trimmed := strings.TrimRight(next, "\r\n")
			if strings.TrimSpace(trimmed) == "" {
				hdr.WriteString(next)
				i++
				break
			}
			kv := metaRe.FindStringSubmatch(trimmed)
			if kv == nil {
				break
			}
			cur.meta = append(cur.meta, [2]string{kv[1], kv[2]})
			hdr.WriteString(next)
			i++
		}
		cur.hdr = hdr.String()
	}
	flush()
	return secs
}

// splitFrontmatter separates YAML frontmatter (between leading --- delimiters)
// from the body. Without frontmatter, or with invalid YAML, the whole
// content is body.
func splitFrontmatter(data []byte) (map[string]any, string) {
	const delim = "---"
	trimmed := bytes.TrimLeft(data, "\n\r")

	if !bytes.HasPrefix(trimmed, []byte(delim+"\n")) && !bytes.HasPrefix(trimmed, []byte(delim+"\r\n")) {
		return nil, string(data)
	}

	rest := trimmed[len(delim):]
	idx := bytes.Index(rest, []byte("\n"+delim))
	if idx < 0 {
		return nil, string(data)
	}

	yamlBlock := rest[:idx]
	afterDelim := rest[idx+1+len(delim):]
	if nl := bytes.IndexByte(afterDelim, '\n'); nl >= 0 && len(bytes.TrimSpace(afterDelim[:nl])) == 0 {
		afterDelim = afterDelim[nl+1:]
	}
	body := strings.TrimLeft(string(afterDelim), "\n\r")

	var fm map[string]any
	if err := yaml.Unmarshal(yamlBlock, &fm); err != nil {
		return nil, string(data)
	}
	if fm == nil {
		fm = map[string]any{}
	}
	return fm, body
}

// applyMeta maps a metadata key onto a page field. Unknown keys are kept in
// Meta.
func applyMeta(p *models.Page, key string, value any) {
	s := metaString(value)
	switch strings.ToLower(key) {
	case "name":
		p.Name = s
	case "title":
		p.Title = s
	case "template":
		p.Template = s
	case "layout":
		p.Layout = s
	case "doclayout":
		p.DocLayout = s
	case "notemplate":
		p.NoTemplate = truthy(s)
	case "nolayout":
		p.NoLayout = truthy(s)
	case "onclick":
		p.Onclick = s
	case "folderpage":
		p.FolderPage = truthy(s)
	case "draft":
		p.Draft = truthy(s)
	default:
		if p.Meta == nil {
			p.Meta = map[string]any{}
		}
		p.Meta[key] = value
	}
}

func metaString(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	default:
		return fmt.Sprint(t)
	}
}

func truthy(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "0", "false", "no", "off":
		return false
	}
	return true
}

// deriveTitle returns the first H1 heading of body outside code fences,
// or "".
func deriveTitle(body string) string {
	var code fence
	for _, line := range strings.Split(body, "\n") {
		if code.skip(strings.TrimRight(line, "\r")) {
			continue
		}
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "# ") {
			return strings.TrimSpace(trimmed[2:])
		}
	}
	return ""
}

// fence tracks fenced code blocks (``` or ~~~) line by line.
type fence struct {
	ch byte
	n  int
}

// skip reports whether line opens, closes or lies inside a fenced code
// block. An unclosed fence runs to the end of the text.
func (f *fence) skip(line string) bool {
	t := strings.TrimLeft(line, " ")
	if len(line)-len(t) > 3 {
		return f.n > 0
	}
	ch, n := fenceRun(t)
	if f.n == 0 {
		// A backtick fence's info string may not contain backticks.
		if n >= 3 && (ch != '`' || !strings.ContainsRune(t[n:], '`')) {
			f.ch, f.n = ch, n
			return true
		}
		return false
	}
	if ch == f.ch && n >= f.n && strings.TrimSpace(t[n:]) == "" {
		f.ch, f.n = 0, 0
	}
	return true
}

func fenceRun(s string) (byte, int) {
	if s == "" || (s[0] != '`' && s[0] != '~') {
		return 0, 0
	}
	n := 0
	for n < len(s) && s[n] == s[0] {
		n++
	}
	return s[0], n
}
