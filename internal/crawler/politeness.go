package crawler

import (
	"context"
	"fmt"
	"time"

	"github.com/JakeFAU/sitemap-crawler/internal/metrics"
)

// FixedDelay blocks for a constant delay before every fetch.
type FixedDelay struct {
	delay time.Duration
}

// NewFixedDelay returns a Pauser that sleeps for delay.
func NewFixedDelay(delay time.Duration) *FixedDelay {
	return &FixedDelay{delay: delay}
}

// Wait blocks for the configured delay or until ctx is done.
func (p *FixedDelay) Wait(ctx context.Context, _ string) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("politeness pause: %w", err)
	}
	if p.delay <= 0 {
		return nil
	}
	start := time.Now()
	timer := time.NewTimer(p.delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return fmt.Errorf("politeness pause: %w", ctx.Err())
	case <-timer.C:
		metrics.ObservePolitenessWait(time.Since(start))
		return nil
	}
}
