package crawler

import "time"

// FetchRequest describes a single page fetch.
type FetchRequest struct {
	URL string
	// Timeout bounds the fetch. Zero means no timeout.
	Timeout time.Duration
	// IgnoreContentType parses the body even when the server does not
	// declare an HTML content type.
	IgnoreContentType bool
}

// State tracks the lifecycle of a Session.
type State string

const (
	// StatePending means Run has not been called.
	StatePending State = "pending"
	// StateRunning means the crawl is in progress.
	StateRunning State = "running"
	// StateDone means the registry is frozen.
	StateDone State = "done"
)

// Result is the outcome of Session.Run.
type Result struct {
	SessionID string
	// Links is the frozen registry, sorted by url then depth.
	Links []Link
	// Interrupted is set when a worker observed context cancellation.
	Interrupted bool
	// Terminated is false when the pool failed to drain after shutdown.
	Terminated bool
	Elapsed    time.Duration
}

// Status is a point-in-time view of a Session.
type Status struct {
	ID         string     `json:"id"`
	RootURL    string     `json:"root_url"`
	State      State      `json:"state"`
	Discovered int        `json:"discovered"`
	StartedAt  *time.Time `json:"started_at,omitempty"`
	FinishedAt *time.Time `json:"finished_at,omitempty"`
}
