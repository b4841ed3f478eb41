// Package app_test contains unit tests for the app package.
package app_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/JakeFAU/sitemap-crawler/internal/app"
	"github.com/JakeFAU/sitemap-crawler/internal/config"
	"github.com/JakeFAU/sitemap-crawler/internal/crawler"
)

// MockFetcher mocks the crawler.Fetcher interface.
type MockFetcher struct {
	mock.Mock
}

// Fetch satisfies the crawler.Fetcher interface for the mock.
func (m *MockFetcher) Fetch(ctx context.Context, req crawler.FetchRequest) (crawler.Document, error) {
	args := m.Called(ctx, req)
	doc, _ := args.Get(0).(crawler.Document)
	return doc, args.Error(1)
}

type page []string

func (p page) Select(string) []crawler.Element {
	out := make([]crawler.Element, 0, len(p))
	for _, href := range p {
		out = append(out, anchor(href))
	}
	return out
}

type anchor string

func (a anchor) AbsURL(string) string { return string(a) }

func forURL(u string) any {
	return mock.MatchedBy(func(req crawler.FetchRequest) bool { return req.URL == u })
}

func baseConfig(t *testing.T) config.Config {
	t.Helper()
	cfg, err := config.Load("", nil)
	require.NoError(t, err)
	cfg.Crawler.RootURL = "http://x/"
	cfg.Crawler.PolitenessDelay = 0
	cfg.Crawler.ShutdownGrace = time.Second
	cfg.Output.Path = filepath.Join(t.TempDir(), "sitemap.txt")
	return cfg
}

func TestRunWritesSitemap(t *testing.T) {
	t.Parallel()

	fetcher := &MockFetcher{}
	fetcher.On("Fetch", mock.Anything, forURL("http://x/")).Return(page{"http://x/a/", "http://y/"}, nil).Once()
	fetcher.On("Fetch", mock.Anything, forURL("http://x/a/")).Return(page{"http://x/a/b"}, nil).Once()

	cfg := baseConfig(t)
	cfg.Output.Echo = true
	var echo bytes.Buffer
	a, err := app.New(context.Background(), cfg, zap.NewNop(), app.WithFetcher(fetcher), app.WithEcho(&echo))
	require.NoError(t, err)
	defer a.Close()
	assert.Empty(t, a.StatusAddr())

	summary := a.Run(context.Background())

	assert.Len(t, summary.Result.Links, 3)
	assert.Equal(t, 3, summary.Output.Written)
	want := "http://x/\n\thttp://x/a/\n\t\thttp://x/a/b\n"
	got, err := os.ReadFile(cfg.Output.Path)
	require.NoError(t, err)
	assert.Equal(t, want, string(got))
	assert.Equal(t, want, echo.String())
	fetcher.AssertExpectations(t)
}

func TestRunSurvivesBranchFailure(t *testing.T) {
	t.Parallel()

	fetcher := &MockFetcher{}
	fetcher.On("Fetch", mock.Anything, forURL("http://x/")).Return(page{"http://x/a/", "http://x/b/"}, nil)
	fetcher.On("Fetch", mock.Anything, forURL("http://x/a/")).Return(nil, errors.New("timeout"))
	fetcher.On("Fetch", mock.Anything, forURL("http://x/b/")).Return(page{"http://x/b/c"}, nil)

	a, err := app.New(context.Background(), baseConfig(t), nil, app.WithFetcher(fetcher))
	require.NoError(t, err)
	defer a.Close()

	summary := a.Run(context.Background())
	urls := make([]string, 0, len(summary.Result.Links))
	for _, l := range summary.Result.Links {
		urls = append(urls, l.URL())
	}
	assert.Equal(t, []string{"http://x/", "http://x/a/", "http://x/b/", "http://x/b/c"}, urls)
	assert.False(t, summary.Result.Interrupted)
}

func TestStatusServerServesSessionDuringCrawl(t *testing.T) {
	t.Parallel()

	cfg := baseConfig(t)
	cfg.Status.Addr = "127.0.0.1:0"

	fetcher := &MockFetcher{}
	var observed crawler.Status
	a, err := app.New(context.Background(), cfg, zap.NewNop(), app.WithFetcher(fetcher))
	require.NoError(t, err)
	defer a.Close()
	require.NotEmpty(t, a.StatusAddr())

	fetcher.On("Fetch", mock.Anything, forURL("http://x/")).Run(func(mock.Arguments) {
		resp, err := http.Get("http://" + a.StatusAddr() + "/v1/session")
		if err != nil {
			return
		}
		defer resp.Body.Close()
		_ = json.NewDecoder(resp.Body).Decode(&observed)
	}).Return(page{}, nil)

	a.Run(context.Background())

	assert.Equal(t, crawler.StateRunning, observed.State)
	assert.Equal(t, a.Session().ID(), observed.ID)
	assert.Equal(t, "http://x/", observed.RootURL)
}

func TestNewRejectsInvalidConfig(t *testing.T) {
	t.Parallel()

	cfg := baseConfig(t)
	cfg.Output.Path = ""
	_, err := app.New(context.Background(), cfg, zap.NewNop())
	require.Error(t, err)
}

func TestNewFailsWhenRedisUnreachable(t *testing.T) {
	t.Parallel()

	cfg := baseConfig(t)
	cfg.Dedup.Backend = config.DedupRedis
	cfg.Dedup.RedisAddr = "127.0.0.1:1"
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	_, err := app.New(ctx, cfg, zap.NewNop(), app.WithFetcher(&MockFetcher{}))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "redis")
}
