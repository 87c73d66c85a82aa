package audio

import (
	"sync"

	"github.com/zjrosen/chime/internal/audio/engine"
	"github.com/zjrosen/chime/internal/log"
)

// Registry owns the mapping from sound addresses to engine handles. Handles
// never leave the audio package.
type Registry struct {
	mu      sync.RWMutex
	handles map[Address]engine.Handle
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{handles: make(map[Address]engine.Handle)}
}

// Register stores the handle under addr. Re-registering an existing address
// silently overwrites the previous handle; callers relying on this get the
// new handle on the next Resolve.
func (r *Registry) Register(addr Address, h engine.Handle) {
	r.mu.Lock()
	_, existed := r.handles[addr]
	r.handles[addr] = h
	r.mu.Unlock()

	if existed {
		log.Debug(log.CatAudio, "Sound re-registered, previous handle overwritten", "address", addr.String())
	}
}

// Resolve returns the handle for addr. Absence is reported through the bool,
// never an error or panic; callers treat it as a no-op condition.
func (r *Registry) Resolve(addr Address) (engine.Handle, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	h, ok := r.handles[addr]
	return h, ok
}

// Each calls fn for every registered handle, across all categories including
// multitrack. Iteration order is unspecified.
func (r *Registry) Each(fn func(addr Address, h engine.Handle)) {
	r.mu.RLock()
	snapshot := make(map[Address]engine.Handle, len(r.handles))
	for addr, h := range r.handles {
		snapshot[addr] = h
	}
	r.mu.RUnlock()

	for addr, h := range snapshot {
		fn(addr, h)
	}
}

// Len returns the number of registered handles.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.handles)
}
