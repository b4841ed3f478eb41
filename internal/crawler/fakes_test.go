package crawler

import (
	"context"
	"errors"
	"sync"
	"time"
)

// fakeSite serves a static link graph. Hrefs are already absolute.
type fakeSite struct {
	mu      sync.Mutex
	pages   map[string][]string
	fail    map[string]error
	fetched []FetchRequest
	delay   time.Duration
}

func newFakeSite(pages map[string][]string) *fakeSite {
	return &fakeSite{pages: pages, fail: map[string]error{}}
}

func (s *fakeSite) Fetch(_ context.Context, req FetchRequest) (Document, error) {
	s.mu.Lock()
	s.fetched = append(s.fetched, req)
	err := s.fail[req.URL]
	hrefs, ok := s.pages[req.URL]
	delay := s.delay
	s.mu.Unlock()

	if delay > 0 {
		time.Sleep(delay)
	}
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, errors.New("404 not found")
	}
	return fakeDoc(hrefs), nil
}

func (s *fakeSite) fetchedURLs() map[string]int {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]int, len(s.fetched))
	for _, req := range s.fetched {
		out[req.URL]++
	}
	return out
}

func (s *fakeSite) requests() []FetchRequest {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]FetchRequest(nil), s.fetched...)
}

type fakeDoc []string

func (d fakeDoc) Select(selector string) []Element {
	if selector != anchorSelector {
		return nil
	}
	out := make([]Element, 0, len(d))
	for _, href := range d {
		out = append(out, fakeElement(href))
	}
	return out
}

type fakeElement string

func (e fakeElement) AbsURL(attr string) string {
	if attr != hrefAttr {
		return ""
	}
	return string(e)
}

// countingPauser records every pause and honours cancellation.
type countingPauser struct {
	mu    sync.Mutex
	calls []string
}

func (p *countingPauser) Wait(ctx context.Context, url string) error {
	p.mu.Lock()
	p.calls = append(p.calls, url)
	p.mu.Unlock()
	return ctx.Err()
}

func (p *countingPauser) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.calls)
}

func testConfig(root string) Config {
	cfg := DefaultConfig(root)
	cfg.PolitenessDelay = 0
	cfg.FetchTimeout = time.Second
	cfg.ShutdownGrace = time.Second
	cfg.Parallelism = 4
	return cfg
}

func urlsOf(links []Link) []string {
	out := make([]string, 0, len(links))
	for _, l := range links {
		out = append(out, l.URL())
	}
	return out
}
