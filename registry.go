package gputrack

import "sync"

// HandleRegistry maps opaque native identifiers to their managed wrappers so
// native-side callbacks can resolve back to Go state. Entries are inserted
// on construction and removed on disposal; after a successful disposal the
// former identifier is guaranteed absent.
//
// The registry is session-scoped rather than a package global so tests can
// instantiate isolated instances.
type HandleRegistry struct {
	mu      sync.RWMutex
	entries map[uint64]any
}

// NewHandleRegistry creates an empty registry.
func NewHandleRegistry() *HandleRegistry {
	return &HandleRegistry{entries: make(map[uint64]any)}
}

// Insert stores a wrapper under its native identifier.
func (r *HandleRegistry) Insert(handle uint64, v any) {
	r.mu.Lock()
	r.entries[handle] = v
	r.mu.Unlock()
}

// Resolve retrieves the wrapper registered under handle.
func (r *HandleRegistry) Resolve(handle uint64) (any, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	v, ok := r.entries[handle]
	return v, ok
}

// ResolveTrack retrieves a VideoTrack by its native track handle.
func (r *HandleRegistry) ResolveTrack(h TrackHandle) (*VideoTrack, bool) {
	v, ok := r.Resolve(uint64(h))
	if !ok {
		return nil, false
	}
	t, ok := v.(*VideoTrack)
	return t, ok
}

// ResolveSink retrieves a RendererSink by its native renderer handle.
func (r *HandleRegistry) ResolveSink(h RendererHandle) (*RendererSink, bool) {
	v, ok := r.Resolve(uint64(h))
	if !ok {
		return nil, false
	}
	s, ok := v.(*RendererSink)
	return s, ok
}

// Remove drops the entry for handle and reports whether one existed.
func (r *HandleRegistry) Remove(handle uint64) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.entries[handle]; !ok {
		return false
	}
	delete(r.entries, handle)
	return true
}

// Len returns the number of registered wrappers.
func (r *HandleRegistry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entries)
}

// Clear drops all entries.
func (r *HandleRegistry) Clear() {
	r.mu.Lock()
	r.entries = make(map[uint64]any)
	r.mu.Unlock()
}
