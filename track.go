package gputrack

import (
	"fmt"
	"runtime"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// VideoTrack is the managed wrapper around a native video track. It owns the
// GPU textures it allocates and keeps them, the native handle, and the
// session registry in lockstep.
//
// Lifecycle and frame operations are not safe for unsynchronized concurrent
// use across lifecycle boundaries: never dispose a track while another
// goroutine expects it to remain live.
type VideoTrack struct {
	session  *Session
	id       string
	streamID string

	mu     sync.Mutex
	handle TrackHandle

	// source is the application-authored texture (send direction) or the
	// texture the native decode pipeline writes into (receive direction).
	// dest is sized to the negotiated stream dimensions and never resized;
	// it feeds the encoder on send and is what the application reads on
	// receive. ownsSource is set only for the decode texture; application
	// textures stay with their owners.
	source     Texture
	dest       Texture
	ownsSource bool

	// needsFlip is set for GPU-texture-backed constructions, whose vertical
	// orientation does not match the pipeline's expected frame layout.
	needsFlip bool

	remote bool

	encoderInit bool
	decoderInit bool
	sink        *RendererSink

	disposed bool
}

// NewVideoTrack constructs a send-direction track around an application
// texture. The destination texture is allocated at the source's size and the
// native encoder is initialized.
//
// If native encoder initialization fails the track is still returned,
// observably uninitialized via IsEncoderInitialized, so callers can poll
// before committing to use.
func (s *Session) NewVideoTrack(source Texture) (*VideoTrack, error) {
	if source == nil {
		return nil, fmt.Errorf("source texture is required")
	}
	if err := validateDimensions(source.Width(), source.Height()); err != nil {
		return nil, err
	}
	if !s.ctx.SupportsFormat(source.Format()) {
		return nil, fmt.Errorf("%w: %s on %s backend", ErrUnsupportedFormat, source.Format(), s.ctx.Name())
	}

	dest, err := s.gfx.CreateTexture(source.Width(), source.Height(), source.Format())
	if err != nil {
		return nil, err
	}

	id := uuid.NewString()
	handle, err := s.ctx.CreateVideoTrack(id)
	if err != nil {
		dest.Release()
		return nil, err
	}

	t := &VideoTrack{
		session:   s,
		id:        id,
		streamID:  uuid.NewString(),
		handle:    handle,
		source:    source,
		dest:      dest,
		needsFlip: true,
	}
	if err := s.addTrack(t); err != nil {
		dest.Release()
		if derr := s.ctx.DeleteTrack(handle); derr != nil {
			s.log.Warn("delete track after failed registration", zap.Error(derr))
		}
		return nil, err
	}
	s.registry.Insert(uint64(handle), t)

	if err := s.ctx.SetEncoderParameters(handle, dest.Width(), dest.Height(), dest.Format(), dest.NativePtr()); err != nil {
		s.log.Warn("set encoder parameters", zap.String("id", id), zap.Error(err))
	} else if err := s.ctx.InitializeEncoder(handle); err != nil {
		s.log.Warn("initialize encoder", zap.String("id", id), zap.Error(err))
	} else {
		t.encoderInit = true
	}

	runtime.SetFinalizer(t, finalizeTrack)
	s.log.Debug("video track created",
		zap.String("id", id),
		zap.Uint64("handle", uint64(handle)),
		zap.Int("width", dest.Width()),
		zap.Int("height", dest.Height()))
	return t, nil
}

// WrapVideoTrack constructs a wrapper around an existing native track
// handle, e.g. a remote track discovered via signaling. No textures are
// allocated; the wrapper takes ownership of the handle.
func (s *Session) WrapVideoTrack(handle TrackHandle) (*VideoTrack, error) {
	if handle == 0 {
		return nil, fmt.Errorf("zero native track handle")
	}
	t := &VideoTrack{
		session:  s,
		id:       uuid.NewString(),
		streamID: uuid.NewString(),
		handle:   handle,
		remote:   true,
	}
	if err := s.addTrack(t); err != nil {
		return nil, err
	}
	s.registry.Insert(uint64(handle), t)
	runtime.SetFinalizer(t, finalizeTrack)
	s.log.Debug("native track wrapped", zap.String("id", t.id), zap.Uint64("handle", uint64(handle)))
	return t, nil
}

// ID returns the track identifier.
func (t *VideoTrack) ID() string { return t.id }

// StreamID returns the stream group identifier.
func (t *VideoTrack) StreamID() string { return t.streamID }

// Handle returns the native track handle, or zero after disposal.
func (t *VideoTrack) Handle() TrackHandle {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.handle
}

// Texture returns the pipeline-facing destination texture, or nil if none
// was allocated or the track is disposed.
func (t *VideoTrack) Texture() Texture {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.dest
}

// Source returns the source texture, or nil.
func (t *VideoTrack) Source() Texture {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.source
}

// IsEncoderInitialized reports whether the native encoder completed
// initialization. Always false after disposal.
func (t *VideoTrack) IsEncoderInitialized() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.encoderInit
}

// IsDecoderInitialized reports whether receive initialization completed.
// Always false after disposal.
func (t *VideoTrack) IsDecoderInitialized() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.decoderInit
}

// IsRemote reports whether the track wraps a remote native handle.
func (t *VideoTrack) IsRemote() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.remote
}

// Disposed reports whether the track has been torn down.
func (t *VideoTrack) Disposed() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.disposed
}

// InitializeReceiver prepares the track for the receive direction at the
// requested stream dimensions.
//
// On backends with renderer sinks this allocates a decode texture and a
// destination texture and registers a RendererSink pointing the native
// decode pipeline at the decode texture; SyncFrame then presents decoded
// frames into the destination through the flip blit. On constrained
// backends the destination is an externally backed texture handle and the
// track is marked remote-sourced.
//
// A second call fails with ErrAlreadyInitialized on every backend.
func (t *VideoTrack) InitializeReceiver(width, height int) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.disposed {
		return ErrDisposed
	}
	if t.decoderInit || t.dest != nil {
		return ErrAlreadyInitialized
	}
	if err := validateDimensions(width, height); err != nil {
		return err
	}

	s := t.session
	if s.ctx.Capabilities().Has(CapRendererSink) {
		source, err := s.gfx.CreateTexture(width, height, TextureFormatBGRA32)
		if err != nil {
			return err
		}
		dest, err := s.gfx.CreateTexture(width, height, TextureFormatBGRA32)
		if err != nil {
			source.Release()
			return err
		}
		// Decoded frames land in the source texture; dest is what the
		// application reads after the flip pass.
		sink, err := newRendererSink(s, t, source)
		if err != nil {
			source.Release()
			dest.Release()
			return err
		}
		t.source = source
		t.ownsSource = true
		t.dest = dest
		t.sink = sink
		t.needsFlip = true
	} else {
		// Constrained backend: the decoded frames land in an externally
		// managed texture; no sink to register and no flip pass.
		dest, err := s.gfx.CreateTexture(width, height, TextureFormatRGBA32)
		if err != nil {
			return err
		}
		t.dest = dest
		t.remote = true
	}
	t.decoderInit = true
	s.log.Debug("receiver initialized",
		zap.String("id", t.id),
		zap.Int("width", width),
		zap.Int("height", height))
	return nil
}

// SyncFrame runs the per-frame synchronization step. For flip-corrected
// tracks the source is copied into the destination through the flip blit:
// on send that stages the application texture for encoding, on receive it
// presents the latest decoded frame. Send-direction tracks then submit the
// destination to the native encoder.
//
// The host frame driver calls this once per rendered frame; the track does
// no scheduling of its own.
func (t *VideoTrack) SyncFrame() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.disposed {
		return ErrDisposed
	}
	if t.needsFlip && t.source != nil && t.dest != nil {
		if err := t.session.gfx.BlitFlip(t.dest, t.source); err != nil {
			return err
		}
	}
	if t.encoderInit {
		return t.session.ctx.Encode(t.handle)
	}
	return nil
}

// ReadEncodedFrame copies the next pending encoded frame into buf. It
// returns n == 0 when none is pending and ErrDisposed after teardown.
func (t *VideoTrack) ReadEncodedFrame(buf []byte) (n int, keyframe bool, err error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.disposed {
		return 0, false, ErrDisposed
	}
	return t.session.ctx.ReadEncodedFrame(t.handle, buf)
}

// Close tears the track down: native encoder, GPU bindings and textures,
// renderer sink, active-track entry, native handle, and registry entry, in
// that order, exactly once. Close never fails; teardown errors are logged
// and swallowed so it is unconditionally safe to call, including from the
// finalizer backstop.
func (t *VideoTrack) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.closeLocked()
	return nil
}

func (t *VideoTrack) closeLocked() {
	if t.disposed {
		return
	}
	s := t.session

	// Encoder first: stop the native side reading the destination texture
	// before any GPU resource is freed.
	if t.encoderInit {
		if err := s.ctx.FinalizeEncoder(t.handle); err != nil {
			s.log.Warn("finalize encoder", zap.String("id", t.id), zap.Error(err))
		}
		t.encoderInit = false
		s.gfx.Unbind(t.dest)
		t.dest.Release()
		t.dest = nil
	}

	// Decode side: the sink must unregister from the native pipeline before
	// the textures it writes into go away and before the track handle is
	// deleted.
	if t.sink != nil {
		if err := t.sink.Close(); err != nil {
			s.log.Warn("close renderer sink", zap.String("id", t.id), zap.Error(err))
		}
		t.sink = nil
	}
	if t.source != nil {
		if t.ownsSource {
			s.gfx.Unbind(t.source)
			t.source.Release()
		}
		t.source = nil
	}
	if t.dest != nil {
		t.dest.Release()
		t.dest = nil
	}
	t.decoderInit = false

	s.removeTrack(t)

	if err := s.ctx.DeleteTrack(t.handle); err != nil {
		s.log.Warn("delete native track", zap.String("id", t.id), zap.Error(err))
	}
	s.registry.Remove(uint64(t.handle))

	t.handle = 0
	t.disposed = true
	runtime.SetFinalizer(t, nil)
	s.log.Debug("video track disposed", zap.String("id", t.id))
}

// adoptSource transfers ownership of the source texture to the track, so
// it is released during teardown like the textures the track allocated.
func (t *VideoTrack) adoptSource() {
	t.mu.Lock()
	t.ownsSource = true
	t.mu.Unlock()
}

// finalizeTrack is the leak backstop. Reaching it means an owner dropped a
// track without calling Close; resources are still released, but teardown
// ordering relative to the render loop is no longer deterministic.
func finalizeTrack(t *VideoTrack) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.disposed {
		return
	}
	t.session.log.Warn("video track leaked, releasing in finalizer", zap.String("id", t.id))
	t.closeLocked()
}
