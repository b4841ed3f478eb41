// Package crawler implements the depth-bounded site crawl: link values, the
// per-session dedup store and registry, the fork/join scheduler that spreads
// seed links over a bounded pool, the worker that expands a single link, and
// the session that ties them together.
package crawler
