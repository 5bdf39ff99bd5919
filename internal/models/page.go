// Package models defines the domain types for vellum.
package models

import "time"

// File is the source record a page was parsed from.
type File struct {
	Path      string    `json:"path"`
	Checksum  string    `json:"checksum"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Page is a unit of content: a whole page or one of its fragments.
//
// File is a display-only back reference to the source record. It must not be
// used for identity or to reach back into mutable file state.
type Page struct {
	Href string `json:"href" handlebars:"href"`
	Txt  string `json:"-" handlebars:"txt"`
	Hdr  string `json:"-" handlebars:"hdr"`

	Name       string `json:"name,omitempty" handlebars:"name"`
	Title      string `json:"title,omitempty" handlebars:"title"`
	Template   string `json:"template,omitempty" handlebars:"template"`
	Layout     string `json:"layout,omitempty" handlebars:"layout"`
	DocLayout  string `json:"doclayout,omitempty" handlebars:"doclayout"`
	NoTemplate bool   `json:"notemplate,omitempty" handlebars:"notemplate"`
	NoLayout   bool   `json:"nolayout,omitempty" handlebars:"nolayout"`
	Onclick    string `json:"onclick,omitempty" handlebars:"onclick"`
	FolderPage bool   `json:"folderPage,omitempty" handlebars:"folderPage"`
	Draft      bool   `json:"draft,omitempty" handlebars:"draft"`

	Children  []*Page        `json:"-" handlebars:"children"`
	Fragments []*Page        `json:"-" handlebars:"fragments"`
	File      *File          `json:"file,omitempty" handlebars:"file"`
	Meta      map[string]any `json:"meta,omitempty" handlebars:"meta"`
}

// SourcePath returns the source file path, or "" for synthetic pages.
func (p *Page) SourcePath() string {
	if p == nil || p.File == nil {
		return ""
	}
	return p.File.Path
}

// LinkRef is a raw link observed in a fragment's markdown, before any
// prefixing or text fallback.
type LinkRef struct {
	Href  string `json:"href"`
	Title string `json:"title,omitempty"`
	Text  string `json:"text,omitempty"`
}
