package crawler

import "sync"

// Registry is the append-only set of links accepted during a session.
type Registry struct {
	mu     sync.RWMutex
	links  map[Link]struct{}
	frozen bool
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{links: make(map[Link]struct{})}
}

// Record inserts link and reports whether it was new. Duplicate inserts and
// inserts after Freeze are ignored.
func (r *Registry) Record(link Link) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.frozen {
		return false
	}
	if _, ok := r.links[link]; ok {
		return false
	}
	r.links[link] = struct{}{}
	return true
}

// Freeze makes the registry read-only.
func (r *Registry) Freeze() {
	r.mu.Lock()
	r.frozen = true
	r.mu.Unlock()
}

// Frozen reports whether Freeze has been called.
func (r *Registry) Frozen() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.frozen
}

// Len returns the number of recorded links.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.links)
}

// Snapshot returns a sorted copy of the recorded links. The copy is owned by
// the caller.
func (r *Registry) Snapshot() []Link {
	r.mu.RLock()
	out := make([]Link, 0, len(r.links))
	for link := range r.links {
		out = append(out, link)
	}
	r.mu.RUnlock()
	SortLinks(out)
	return out
}
