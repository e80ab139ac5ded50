package signal

import (
	"slices"
	"sync"
)

// Registry holds the identifiers of the peers that are currently joined.
type Registry struct {
	mu    sync.Mutex
	peers map[string]struct{}
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{peers: make(map[string]struct{})}
}

// Add inserts id and reports whether it was absent before the call.
func (r *Registry) Add(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.peers[id]; ok {
		return false
	}
	r.peers[id] = struct{}{}
	return true
}

// Remove deletes id and reports whether it was present before the call.
func (r *Registry) Remove(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.peers[id]; !ok {
		return false
	}
	delete(r.peers, id)
	return true
}

// Contains reports whether id is currently joined.
func (r *Registry) Contains(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.peers[id]
	return ok
}

// SnapshotSorted returns the current members in ascending order.
func (r *Registry) SnapshotSorted() []string {
	r.mu.Lock()
	ids := make([]string, 0, len(r.peers))
	for id := range r.peers {
		ids = append(ids, id)
	}
	r.mu.Unlock()

	slices.Sort(ids)
	return ids
}

// Len returns the number of joined peers.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.peers)
}
