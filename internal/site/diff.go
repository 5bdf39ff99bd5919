package site

import "sort"

// Change kinds reported by Diff.
const (
	Added   = "added"
	Changed = "changed"
	Removed = "removed"
)

// Change is one page that differs between two snapshots.
type Change struct {
	Kind string
	Href string
}

// Diff compares the addressable pages of prev and next. A nil prev reports
// every page as added. Changes are sorted by href.
func Diff(prev, next *Snapshot) []Change {
	var out []Change
	old := map[string]string{}
	if prev != nil {
		for _, p := range prev.Pages {
			old[p.Href] = p.Title + "\x00" + p.Hdr + p.Txt
		}
	}
	seen := make(map[string]struct{}, len(next.Pages))
	for _, p := range next.Pages {
		seen[p.Href] = struct{}{}
		sum, ok := old[p.Href]
		switch {
		case !ok:
			out = append(out, Change{Kind: Added, Href: p.Href})
		case sum != p.Title+"\x00"+p.Hdr+p.Txt:
			out = append(out, Change{Kind: Changed, Href: p.Href})
		}
	}
	for href := range old {
		if _, ok := seen[href]; !ok {
			out = append(out, Change{Kind: Removed, Href: href})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Href < out[j].Href })
	return out
}
