package crawler

import (
	"context"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/JakeFAU/sitemap-crawler/internal/metrics"
)

// worker expands links for one session.
type worker struct {
	cfg      Config
	fetcher  Fetcher
	claims   ClaimStore
	registry *Registry
	pauser   Pauser
	policy   linkPolicy
	logger   *zap.Logger

	interrupted atomic.Bool
}

// expand pauses, fetches link and records every new in-scope url found on
// the page. Directory-like urls are expanded depth first in the same
// goroutine. A fetch failure abandons only this branch; an interrupted pause
// is returned so the caller stops descending.
func (w *worker) expand(ctx context.Context, link Link) error {
	if link.Depth() >= w.cfg.MaxDepth {
		return nil
	}
	if err := w.pauser.Wait(ctx, link.URL()); err != nil {
		w.interrupted.Store(true)
		w.logger.Info("Politeness pause interrupted, abandoning branch",
			zap.String("url", link.URL()), zap.Error(err))
		return err
	}
	doc, err := w.fetch(ctx, link.URL(), true)
	if err != nil {
		w.logger.Warn("Fetch failed, abandoning branch",
			zap.String("url", link.URL()), zap.Int("depth", link.Depth()), zap.Error(err))
		return nil
	}
	for _, el := range doc.Select(anchorSelector) {
		abs := el.AbsURL(hrefAttr)
		if !w.policy.inScope(abs) || !w.claims.TryClaim(ctx, abs) {
			continue
		}
		child := link.Child(abs)
		w.record(child)
		if !w.policy.expandable(abs) {
			continue
		}
		if err := w.expand(ctx, child); err != nil {
			return err
		}
	}
	return nil
}

// run adapts expand to the scheduler; the error has already been logged.
func (w *worker) run(ctx context.Context, link Link) {
	_ = w.expand(ctx, link)
}

func (w *worker) fetch(ctx context.Context, url string, ignoreContentType bool) (Document, error) {
	start := time.Now()
	doc, err := w.fetcher.Fetch(ctx, FetchRequest{
		URL:               url,
		Timeout:           w.cfg.FetchTimeout,
		IgnoreContentType: ignoreContentType,
	})
	status := "ok"
	if err != nil {
		status = "error"
	}
	metrics.ObserveFetch(url, status, time.Since(start))
	return doc, err
}

func (w *worker) record(link Link) {
	if w.registry.Record(link) {
		metrics.ObserveDiscovered(link.Depth())
	}
}
