package crawler

import (
	"context"

	"go.uber.org/zap"
)

// bootstrap claims and records the root, then fetches it and returns the
// depth-one seed links. It returns no seeds when MaxDepth is zero or the root
// fetch fails.
func (w *worker) bootstrap(ctx context.Context) []Link {
	root := NewLink(w.cfg.RootURL, 0)
	w.claims.TryClaim(ctx, root.URL())
	w.record(root)
	if w.cfg.MaxDepth < 1 {
		return nil
	}

	doc, err := w.fetch(ctx, root.URL(), false)
	if err != nil {
		w.logger.Error("Root fetch failed", zap.String("url", root.URL()), zap.Error(err))
		return nil
	}
	var seeds []Link
	for _, el := range doc.Select(anchorSelector) {
		abs := el.AbsURL(hrefAttr)
		if !w.policy.inScope(abs) || !w.claims.TryClaim(ctx, abs) {
			continue
		}
		seed := root.Child(abs)
		w.record(seed)
		seeds = append(seeds, seed)
	}
	w.logger.Debug("Bootstrap complete", zap.Int("seeds", len(seeds)))
	return seeds
}
