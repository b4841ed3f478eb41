// Package api hosts the optional status server that runs alongside a crawl.
// Routes:
//   - GET /healthz and /readyz for liveness and readiness checks.
//   - GET /metrics for Prometheus scraping.
//   - GET /v1/session for the current crawl session.
package api
