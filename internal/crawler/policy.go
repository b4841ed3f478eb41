package crawler

import "strings"

const fragmentMarker = "#"

// linkPolicy decides which extracted urls belong to the crawl. Bootstrap and
// Worker share it.
type linkPolicy struct {
	prefix string
}

func newLinkPolicy(root string) linkPolicy {
	return linkPolicy{prefix: root}
}

// inScope reports whether url is under the root and not a bare fragment link.
func (p linkPolicy) inScope(url string) bool {
	if url == "" {
		return false
	}
	return strings.HasPrefix(url, p.prefix) && !strings.HasSuffix(url, fragmentMarker)
}

// expandable reports whether url looks like a directory worth descending into.
func (p linkPolicy) expandable(url string) bool {
	return strings.HasSuffix(url, "/")
}
