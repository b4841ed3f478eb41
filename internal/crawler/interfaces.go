package crawler

import (
	"context"
	"time"
)

// Fetcher retrieves and parses a page.
type Fetcher interface {
	Fetch(ctx context.Context, request FetchRequest) (Document, error)
}

// Document is a parsed page.
type Document interface {
	// Select returns the elements matching a CSS selector.
	Select(selector string) []Element
}

// Element is a single parsed node.
type Element interface {
	// AbsURL resolves the named attribute against the page URL. It returns ""
	// when the attribute is missing or cannot be resolved.
	AbsURL(attr string) string
}

// ClaimStore is the dedup store shared by every worker of a session.
type ClaimStore interface {
	// TryClaim atomically claims url and reports whether this caller won.
	// A store that cannot answer before ctx ends reports false.
	TryClaim(ctx context.Context, url string) bool
}

// Pauser throttles workers before each fetch.
type Pauser interface {
	Wait(ctx context.Context, url string) error
}

// Clock stamps session start and finish times.
type Clock interface {
	Now() time.Time
}

// IDGenerator mints session identifiers.
type IDGenerator interface {
	NewID() (string, error)
}
