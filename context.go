package gputrack

// TrackHandle is an opaque native track identifier.
type TrackHandle uint64

// RendererHandle is an opaque native video renderer identifier.
type RendererHandle uint64

// Capabilities is a bitmask of backend capabilities.
type Capabilities uint32

const (
	// CapRendererSink means the backend supports registering renderer sinks
	// with the native decode pipeline.
	CapRendererSink Capabilities = 1 << iota
	// CapExternalTexture means remote tracks are backed by texture handles
	// managed outside this process (constrained backend).
	CapExternalTexture
	// CapEncodedReadback means encoded frames can be read back from the
	// native encoder for RTP egress.
	CapEncodedReadback
)

// Has returns true if all specified capabilities are present.
func (c Capabilities) Has(cap Capabilities) bool { return c&cap == cap }

// Context is the native pipeline boundary. All methods are synchronous
// foreign calls; every one may report a failure code, which implementations
// surface as an error wrapping ErrNativeOperationFailed.
//
// Two build-time implementations exist: the full native backend (purego
// bindings over the libgputrack_webrtc shim) and the constrained js/wasm
// backend. Tests supply their own.
type Context interface {
	// Name identifies the backend.
	Name() string

	// Capabilities reports what this backend supports.
	Capabilities() Capabilities

	// SupportsFormat reports whether the backend can consume textures of
	// the given format.
	SupportsFormat(format TextureFormat) bool

	// CreateVideoTrack allocates a native track and returns its handle.
	CreateVideoTrack(id string) (TrackHandle, error)

	// DeleteTrack releases a native track handle.
	DeleteTrack(h TrackHandle) error

	// SetEncoderParameters binds the destination texture and negotiated
	// dimensions to the track's encoder. A zero texture pointer clears the
	// binding.
	SetEncoderParameters(h TrackHandle, width, height int, format TextureFormat, texture uintptr) error

	// InitializeEncoder starts the native encoder for the track.
	InitializeEncoder(h TrackHandle) error

	// FinalizeEncoder stops the native encoder for the track.
	FinalizeEncoder(h TrackHandle) error

	// Encode submits the track's bound texture for the current frame.
	Encode(h TrackHandle) error

	// ReadEncodedFrame copies the next pending encoded frame for the track
	// into buf. It returns n == 0 when no frame is pending.
	ReadEncodedFrame(h TrackHandle, buf []byte) (n int, keyframe bool, err error)

	// CreateVideoRenderer allocates a native renderer sink.
	CreateVideoRenderer() (RendererHandle, error)

	// DeleteVideoRenderer releases a native renderer sink.
	DeleteVideoRenderer(r RendererHandle) error

	// UpdateRendererTexture points the renderer sink at a destination
	// texture. A zero texture pointer unregisters the sink from the decode
	// pipeline.
	UpdateRendererTexture(r RendererHandle, texture uintptr) error
}
