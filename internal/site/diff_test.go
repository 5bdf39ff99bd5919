package site

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/starford/vellum/internal/models"
)

func TestDiff(t *testing.T) {
	prev := &Snapshot{Pages: []*models.Page{
		{Href: "/a", Txt: "one"},
		{Href: "/b", Txt: "two"},
		{Href: "/c", Txt: "three"},
	}}
	next := &Snapshot{Pages: []*models.Page{
		{Href: "/a", Txt: "one"},
		{Href: "/b", Txt: "two, edited"},
		{Href: "/d", Txt: "four"},
	}}

	want := []Change{
		{Kind: Changed, Href: "/b"},
		{Kind: Removed, Href: "/c"},
		{Kind: Added, Href: "/d"},
	}
	assert.Equal(t, want, Diff(prev, next))
}

func TestDiff_NilPrevious(t *testing.T) {
	next := &Snapshot{Pages: []*models.Page{{Href: "/"}, {Href: "/x"}}}
	assert.Equal(t, []Change{{Kind: Added, Href: "/"}, {Kind: Added, Href: "/x"}}, Diff(nil, next))
}
