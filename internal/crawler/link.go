package crawler

import (
	"cmp"
	"slices"
	"strings"
)

// Link is a discovered page reference and its hop distance from the root.
// Links are values; two links are equal when url and depth match.
type Link struct {
	url   string
	depth int
}

// NewLink builds a Link. Negative depths are clamped to zero.
func NewLink(url string, depth int) Link {
	if depth < 0 {
		depth = 0
	}
	return Link{url: url, depth: depth}
}

// URL returns the absolute URL of the link.
func (l Link) URL() string { return l.url }

// Depth returns the number of hops from the crawl root.
func (l Link) Depth() int { return l.depth }

// Child returns the link for url one hop below l.
func (l Link) Child(url string) Link {
	return Link{url: url, depth: l.depth + 1}
}

// Compare orders links by url, then by depth.
func (l Link) Compare(other Link) int {
	if c := strings.Compare(l.url, other.url); c != 0 {
		return c
	}
	return cmp.Compare(l.depth, other.depth)
}

// Line renders the link as an output line: indent repeated depth times, the
// url and a trailing newline.
func (l Link) Line(indent string) string {
	return strings.Repeat(indent, l.depth) + l.url + "\n"
}

// String implements fmt.Stringer.
func (l Link) String() string {
	return strings.TrimSuffix(l.Line("\t"), "\n")
}

// SortLinks sorts links in place by url, then depth.
func SortLinks(links []Link) {
	slices.SortFunc(links, Link.Compare)
}
