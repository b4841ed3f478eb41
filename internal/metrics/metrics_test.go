package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func TestSanitizeSite(t *testing.T) {
	testCases := []struct {
		name     string
		input    string
		expected string
	}{
		{"standard http", "http://example.com/path", "example.com"},
		{"standard https", "https://Example.com/path", "example.com"},
		{"no scheme", "example.com/path", "example.com"},
		{"host with port", "example.com:8080", "example.com"},
		{"ip address", "192.168.1.1", "192.168.1.1"},
		{"invalid url", "http://%", "unknown"},
		{"empty string", "", "unknown"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if got := SanitizeSite(tc.input); got != tc.expected {
				t.Errorf("SanitizeSite(%q) = %q; want %q", tc.input, got, tc.expected)
			}
		})
	}
}

func TestInitIsIdempotent(t *testing.T) {
	Init()
	pages := crawlerPagesTotal
	Init()
	require.Same(t, pages, crawlerPagesTotal)
}

func TestObserveFetchLabelsBySite(t *testing.T) {
	before := testutil.ToFloat64(crawlerPagesTotalFor("fetch.example", "ok"))
	ObserveFetch("https://Fetch.Example/a/", "ok", 20*time.Millisecond)
	ObserveFetch("https://fetch.example/b", "ok", 10*time.Millisecond)
	require.InDelta(t, before+2, testutil.ToFloat64(crawlerPagesTotalFor("fetch.example", "ok")), 0.001)
}

func TestObserveForkAndOutputCounters(t *testing.T) {
	Init()
	inline := testutil.ToFloat64(crawlerForkedTasksTotal.WithLabelValues("inline"))
	failed := testutil.ToFloat64(crawlerOutputLinesTotal.WithLabelValues("error"))

	ObserveFork("inline")
	ObserveOutputLine("error")

	require.InDelta(t, inline+1, testutil.ToFloat64(crawlerForkedTasksTotal.WithLabelValues("inline")), 0.001)
	require.InDelta(t, failed+1, testutil.ToFloat64(crawlerOutputLinesTotal.WithLabelValues("error")), 0.001)
}

func TestActiveWorkersGauge(t *testing.T) {
	Init()
	start := testutil.ToFloat64(crawlerActiveWorkers)
	IncActiveWorkers()
	IncActiveWorkers()
	DecActiveWorkers()
	require.InDelta(t, start+1, testutil.ToFloat64(crawlerActiveWorkers), 0.001)
	DecActiveWorkers()
}

func crawlerPagesTotalFor(site, status string) prometheus.Counter {
	Init()
	return crawlerPagesTotal.WithLabelValues(site, status)
}

// Fuzz test for SanitizeSite.
func FuzzSanitizeSite(f *testing.F) {
	testcases := []string{"http://example.com", "https://google.com", "ftp://example.com"}
	for _, tc := range testcases {
		f.Add(tc)
	}
	f.Fuzz(func(t *testing.T, orig string) {
		sanitized := SanitizeSite(orig)
		if sanitized == "" {
			t.Errorf("SanitizeSite(%q) returned an empty string", orig)
		}
	})
}
