package retry

import "sync"

// Registry tracks which containers currently have a re-check in flight.
// It exists purely for deduplication: a name is present iff a retry task for
// it is queued or running. TryAcquire is the single atomic check-and-set that
// keeps two concurrent transitions from both scheduling a retry.
type Registry struct {
	mu      sync.Mutex
	pending map[string]struct{}
}

func NewRegistry() *Registry {
	return &Registry{pending: make(map[string]struct{})}
}

// TryAcquire registers name and reports whether the caller won the slot.
// It returns false when a retry is already pending for name.
func (r *Registry) TryAcquire(name string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.pending[name]; ok {
		return false
	}
	r.pending[name] = struct{}{}
	return true
}

// Release frees the slot for name. Safe to call for names never acquired.
func (r *Registry) Release(name string) {
	r.mu.Lock()
	delete(r.pending, name)
	r.mu.Unlock()
}

// Pending returns whether a retry is currently registered for name.
func (r *Registry) Pending(name string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.pending[name]
	return ok
}

// Names returns all names with a retry in flight.
func (r *Registry) Names() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.pending))
	for n := range r.pending {
		out = append(out, n)
	}
	return out
}

// Len returns the number of retries in flight.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.pending)
}
