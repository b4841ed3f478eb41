package crawler

import (
	"context"
	"sync"
	"sync/atomic"
)

// MemoryClaims is the in-process ClaimStore. Claims are linearizable through
// sync.Map.LoadOrStore; there is no removal.
type MemoryClaims struct {
	seen  sync.Map
	count atomic.Int64
}

// NewMemoryClaims returns an empty in-memory claim store.
func NewMemoryClaims() *MemoryClaims {
	return &MemoryClaims{}
}

// TryClaim stores url if it has not been claimed before and reports whether
// this caller won the claim.
func (m *MemoryClaims) TryClaim(_ context.Context, url string) bool {
	if url == "" {
		return false
	}
	if _, loaded := m.seen.LoadOrStore(url, struct{}{}); loaded {
		return false
	}
	m.count.Add(1)
	return true
}

// Len returns the number of claimed urls.
func (m *MemoryClaims) Len() int {
	return int(m.count.Load())
}
