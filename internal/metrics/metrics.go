// Package metrics exposes Prometheus collectors for the sitemap crawler.
package metrics

import (
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	crawlerPagesTotal             *prometheus.CounterVec
	crawlerFetchDurationSeconds   *prometheus.HistogramVec
	crawlerLinksDiscoveredTotal   *prometheus.CounterVec
	crawlerPolitenessWaitSeconds  prometheus.Histogram
	crawlerRateLimitDelaysSeconds *prometheus.HistogramVec
	crawlerActiveWorkers          prometheus.Gauge
	crawlerForkedTasksTotal       *prometheus.CounterVec
	crawlerClaimsTotal            *prometheus.CounterVec
	crawlerOutputLinesTotal       *prometheus.CounterVec
	crawlerSessionsTotal          *prometheus.CounterVec
	httpRequestsTotal             *prometheus.CounterVec
	httpRequestDurationSeconds    *prometheus.HistogramVec

	once sync.Once
)

// Init registers the collectors with the default registry.
// It is safe to call this function multiple times.
func Init() {
	once.Do(func() {
		crawlerPagesTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "crawler_pages_total",
				Help: "Total number of page fetches, labeled by site and status.",
			},
			[]string{"site", "status"},
		)

		crawlerFetchDurationSeconds = promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "crawler_fetch_duration_seconds",
				Help:    "Histogram of page fetch latencies, labeled by site.",
				Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 30},
			},
			[]string{"site"},
		)

		crawlerLinksDiscoveredTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "crawler_links_discovered_total",
				Help: "Total number of unique links recorded, labeled by depth.",
			},
			[]string{"depth"},
		)

		crawlerPolitenessWaitSeconds = promauto.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "crawler_politeness_wait_seconds",
				Help:    "Histogram of fixed politeness pauses taken before fetches.",
				Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2},
			},
		)

		crawlerRateLimitDelaysSeconds = promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "crawler_rate_limit_delays_seconds",
				Help:    "Histogram of rate limit wait durations.",
				Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 30},
			},
			[]string{"domain"},
		)

		crawlerActiveWorkers = promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "crawler_active_workers",
				Help: "Number of pool tasks currently running.",
			},
		)

		crawlerForkedTasksTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "crawler_forked_tasks_total",
				Help: "Total number of forked tasks, labeled by how they were run (async or inline).",
			},
			[]string{"mode"},
		)

		crawlerClaimsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "crawler_claims_total",
				Help: "Total number of shared dedup claims, labeled by backend and result.",
			},
			[]string{"backend", "result"},
		)

		crawlerOutputLinesTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "crawler_output_lines_total",
				Help: "Total number of sitemap lines written, labeled by status.",
			},
			[]string{"status"},
		)

		crawlerSessionsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "crawler_sessions_total",
				Help: "Total number of crawl sessions, labeled by status.",
			},
			[]string{"status"},
		)

		httpRequestsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests, labeled by method and code.",
			},
			[]string{"method", "code"},
		)

		httpRequestDurationSeconds = promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "Histogram of HTTP request latencies, labeled by method and route.",
				Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5},
			},
			[]string{"method", "route"},
		)
	})
}

// SanitizeSite sanitizes a URL to extract a lowercase hostname.
// It returns "unknown" if the URL is invalid.
func SanitizeSite(rawURL string) string {
	if !strings.HasPrefix(rawURL, "http") {
		rawURL = "http://" + rawURL
	}
	u, err := url.Parse(rawURL)
	if err != nil || u.Hostname() == "" {
		return "unknown"
	}
	return strings.ToLower(u.Hostname())
}

// Handler returns an http.Handler for exposing Prometheus metrics.
func Handler() http.Handler {
	Init()
	return promhttp.Handler()
}

// ObserveFetch records one page fetch.
func ObserveFetch(pageURL, status string, duration time.Duration) {
	Init()
	site := SanitizeSite(pageURL)
	crawlerPagesTotal.WithLabelValues(site, status).Inc()
	crawlerFetchDurationSeconds.WithLabelValues(site).Observe(duration.Seconds())
}

// ObserveDiscovered counts a newly recorded link.
func ObserveDiscovered(depth int) {
	Init()
	crawlerLinksDiscoveredTotal.WithLabelValues(strconv.Itoa(depth)).Inc()
}

// ObservePolitenessWait records a completed politeness pause.
func ObservePolitenessWait(duration time.Duration) {
	Init()
	crawlerPolitenessWaitSeconds.Observe(duration.Seconds())
}

// ObserveRateLimitDelay records the duration of a rate limit wait.
func ObserveRateLimitDelay(domain string, duration time.Duration) {
	Init()
	crawlerRateLimitDelaysSeconds.WithLabelValues(domain).Observe(duration.Seconds())
}

// IncActiveWorkers increments the active workers gauge.
func IncActiveWorkers() {
	Init()
	crawlerActiveWorkers.Inc()
}

// DecActiveWorkers decrements the active workers gauge.
func DecActiveWorkers() {
	Init()
	crawlerActiveWorkers.Dec()
}

// ObserveFork counts a forked task; mode is "async" or "inline".
func ObserveFork(mode string) {
	Init()
	crawlerForkedTasksTotal.WithLabelValues(mode).Inc()
}

// ObserveClaim counts a claim against a shared dedup backend.
func ObserveClaim(backend, result string) {
	Init()
	crawlerClaimsTotal.WithLabelValues(backend, result).Inc()
}

// ObserveOutputLine counts one sitemap line write.
func ObserveOutputLine(status string) {
	Init()
	crawlerOutputLinesTotal.WithLabelValues(status).Inc()
}

// ObserveSession counts a finished crawl session.
func ObserveSession(status string) {
	Init()
	crawlerSessionsTotal.WithLabelValues(status).Inc()
}

// ObserveHTTPRequest increments the HTTP request metrics.
func ObserveHTTPRequest(method, route string, code int, duration time.Duration) {
	Init()
	httpRequestsTotal.WithLabelValues(method, strconv.Itoa(code)).Inc()
	httpRequestDurationSeconds.WithLabelValues(method, route).Observe(duration.Seconds())
}
