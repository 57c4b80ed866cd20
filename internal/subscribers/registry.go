package subscribers

import (
	"sync"

	"WorumTop/internal/domain"
	"WorumTop/internal/ports"
)

// Registry is the in-memory list of chats that receive the daily push.
// Registration order is preserved and duplicates are kept.
type Registry struct {
	mu    sync.Mutex
	dests []domain.Destination
}

var _ ports.SubscriberRegistry = (*Registry)(nil)

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{}
}

// Add appends a destination.
func (r *Registry) Add(dest domain.Destination) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.dests = append(r.dests, dest)
}

// Snapshot returns a copy of the current destinations, safe to range over
// while other goroutines keep registering.
func (r *Registry) Snapshot() []domain.Destination {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]domain.Destination, len(r.dests))
	copy(out, r.dests)
	return out
}

func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.dests)
}
