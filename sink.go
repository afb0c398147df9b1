package gputrack

import (
	"runtime"
	"sync"

	"go.uber.org/zap"
)

// RendererSink registers a track with the native decode pipeline so decoded
// frames land in the track's decode texture. Sinks exist only on backends
// with CapRendererSink.
type RendererSink struct {
	session *Session
	track   *VideoTrack

	mu       sync.Mutex
	handle   RendererHandle
	disposed bool
}

func newRendererSink(s *Session, t *VideoTrack, target Texture) (*RendererSink, error) {
	handle, err := s.ctx.CreateVideoRenderer()
	if err != nil {
		return nil, err
	}
	if err := s.ctx.UpdateRendererTexture(handle, target.NativePtr()); err != nil {
		if derr := s.ctx.DeleteVideoRenderer(handle); derr != nil {
			s.log.Warn("delete renderer after failed registration", zap.Error(derr))
		}
		return nil, err
	}
	r := &RendererSink{
		session: s,
		track:   t,
		handle:  handle,
	}
	s.registry.Insert(uint64(handle), r)
	runtime.SetFinalizer(r, finalizeSink)
	return r, nil
}

// Handle returns the native renderer handle, or zero after disposal.
func (r *RendererSink) Handle() RendererHandle {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.handle
}

// Track returns the owning track.
func (r *RendererSink) Track() *VideoTrack { return r.track }

// Close unregisters the sink from the native decode pipeline, deletes the
// native renderer, and removes the registry entry, in that order. Close is
// idempotent and never fails; the unregistration silently no-ops when the
// owning track's native side is already gone.
func (r *RendererSink) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.closeLocked()
	return nil
}

func (r *RendererSink) closeLocked() {
	if r.disposed {
		return
	}
	s := r.session

	// Unregister before deletion so the decode pipeline stops writing into
	// the decode texture. The track may already be torn down from the
	// engine's perspective; that failure is expected and swallowed.
	if err := s.ctx.UpdateRendererTexture(r.handle, 0); err != nil {
		s.log.Debug("unregister renderer sink", zap.Error(err))
	}
	if err := s.ctx.DeleteVideoRenderer(r.handle); err != nil {
		s.log.Warn("delete native renderer", zap.Error(err))
	}
	s.registry.Remove(uint64(r.handle))

	r.handle = 0
	r.disposed = true
	runtime.SetFinalizer(r, nil)
}

// finalizeSink is the leak backstop; it firing means explicit disposal was
// skipped.
func finalizeSink(r *RendererSink) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.disposed {
		return
	}
	r.session.log.Warn("renderer sink leaked, releasing in finalizer")
	r.closeLocked()
}
