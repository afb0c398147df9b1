//go:build darwin || linux

// Full native backend: purego bindings over the libgputrack_webrtc shim.

package gputrack

import (
	"errors"
	"fmt"
	"sync"
	"unsafe"

	"github.com/ebitengine/purego"
)

var (
	webrtcShimOnce    sync.Once
	webrtcShimHandle  uintptr
	webrtcShimInitErr error
)

// libgputrack_webrtc function pointers
var (
	gptContextCreate  func() uint64
	gptContextDestroy func(ctx uint64)

	gptCreateVideoTrack func(ctx uint64, id string) uint64
	gptDeleteTrack      func(ctx, track uint64) int32

	gptSetEncoderParameters func(ctx, track uint64, width, height, format int32, texture uintptr) int32
	gptInitializeEncoder    func(ctx, track uint64) int32
	gptFinalizeEncoder      func(ctx, track uint64) int32
	gptEncode               func(ctx, track uint64) int32
	gptReadEncodedFrame     func(ctx, track uint64, buf uintptr, capacity int32, keyframe uintptr) int32

	gptCreateVideoRenderer   func(ctx uint64) uint64
	gptDeleteVideoRenderer   func(ctx, renderer uint64) int32
	gptUpdateRendererTexture func(ctx, renderer uint64, texture uintptr) int32

	gptFormatSupported func(ctx uint64, format int32) int32
	gptLastError       func() uintptr
)

// Result codes from gputrack_webrtc.h
const (
	gptOK           = 0
	gptError        = -1
	gptErrorInvalid = -2
	gptErrorNoTrack = -3
)

func loadWebRTCShim() error {
	webrtcShimOnce.Do(func() {
		webrtcShimInitErr = loadWebRTCShimLib()
	})
	return webrtcShimInitErr
}

func loadWebRTCShimLib() error {
	paths := nativeLibPaths("libgputrack_webrtc", "GPUTRACK_WEBRTC_LIB_PATH")

	var lastErr error
	for _, path := range paths {
		handle, err := purego.Dlopen(path, purego.RTLD_NOW|purego.RTLD_GLOBAL)
		if err == nil {
			webrtcShimHandle = handle
			loadWebRTCShimSymbols()
			return nil
		}
		lastErr = err
	}

	if lastErr != nil {
		return fmt.Errorf("failed to load libgputrack_webrtc: %w", lastErr)
	}
	return errors.New("libgputrack_webrtc not found in any standard location")
}

func loadWebRTCShimSymbols() {
	purego.RegisterLibFunc(&gptContextCreate, webrtcShimHandle, "gputrack_context_create")
	purego.RegisterLibFunc(&gptContextDestroy, webrtcShimHandle, "gputrack_context_destroy")

	purego.RegisterLibFunc(&gptCreateVideoTrack, webrtcShimHandle, "gputrack_create_video_track")
	purego.RegisterLibFunc(&gptDeleteTrack, webrtcShimHandle, "gputrack_delete_track")

	purego.RegisterLibFunc(&gptSetEncoderParameters, webrtcShimHandle, "gputrack_set_encoder_parameters")
	purego.RegisterLibFunc(&gptInitializeEncoder, webrtcShimHandle, "gputrack_initialize_encoder")
	purego.RegisterLibFunc(&gptFinalizeEncoder, webrtcShimHandle, "gputrack_finalize_encoder")
	purego.RegisterLibFunc(&gptEncode, webrtcShimHandle, "gputrack_encode")
	purego.RegisterLibFunc(&gptReadEncodedFrame, webrtcShimHandle, "gputrack_read_encoded_frame")

	purego.RegisterLibFunc(&gptCreateVideoRenderer, webrtcShimHandle, "gputrack_create_video_renderer")
	purego.RegisterLibFunc(&gptDeleteVideoRenderer, webrtcShimHandle, "gputrack_delete_video_renderer")
	purego.RegisterLibFunc(&gptUpdateRendererTexture, webrtcShimHandle, "gputrack_update_renderer_texture")

	purego.RegisterLibFunc(&gptFormatSupported, webrtcShimHandle, "gputrack_format_supported")
	purego.RegisterLibFunc(&gptLastError, webrtcShimHandle, "gputrack_last_error")
}

// IsNativeBackendAvailable checks if the native WebRTC shim can be loaded.
func IsNativeBackendAvailable() bool {
	return loadWebRTCShim() == nil
}

func lastShimError() string {
	ptr := gptLastError()
	if ptr == 0 {
		return "unknown error"
	}
	return goStringFromPtr(ptr)
}

func shimResult(op string, code int32) error {
	if code == gptOK {
		return nil
	}
	return fmt.Errorf("%w: %s (%d): %s", ErrNativeOperationFailed, op, code, lastShimError())
}

// NativeContext is the full native backend, bound to an opaque pipeline
// context inside the shim.
type NativeContext struct {
	ctx    uint64
	mu     sync.Mutex
	closed bool
}

// NewContext creates the default Context for this build target.
func NewContext() (Context, error) {
	return NewNativeContext()
}

// NewNativeContext loads the WebRTC shim and allocates a pipeline context.
func NewNativeContext() (*NativeContext, error) {
	if err := loadWebRTCShim(); err != nil {
		return nil, fmt.Errorf("native backend not available: %w", err)
	}
	ctx := gptContextCreate()
	if ctx == 0 {
		return nil, fmt.Errorf("%w: context create: %s", ErrNativeOperationFailed, lastShimError())
	}
	return &NativeContext{ctx: ctx}, nil
}

// Close destroys the native pipeline context. Tracks must be disposed
// first.
func (c *NativeContext) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil
	}
	gptContextDestroy(c.ctx)
	c.ctx = 0
	c.closed = true
	return nil
}

// Name implements Context.
func (c *NativeContext) Name() string { return "native" }

// Capabilities implements Context.
func (c *NativeContext) Capabilities() Capabilities {
	return CapRendererSink | CapEncodedReadback
}

// SupportsFormat implements Context.
func (c *NativeContext) SupportsFormat(format TextureFormat) bool {
	return gptFormatSupported(c.ctx, int32(format)) != 0
}

// CreateVideoTrack implements Context.
func (c *NativeContext) CreateVideoTrack(id string) (TrackHandle, error) {
	h := gptCreateVideoTrack(c.ctx, id)
	if h == 0 {
		return 0, fmt.Errorf("%w: create video track: %s", ErrNativeOperationFailed, lastShimError())
	}
	return TrackHandle(h), nil
}

// DeleteTrack implements Context.
func (c *NativeContext) DeleteTrack(h TrackHandle) error {
	return shimResult("delete track", gptDeleteTrack(c.ctx, uint64(h)))
}

// SetEncoderParameters implements Context.
func (c *NativeContext) SetEncoderParameters(h TrackHandle, width, height int, format TextureFormat, texture uintptr) error {
	return shimResult("set encoder parameters",
		gptSetEncoderParameters(c.ctx, uint64(h), int32(width), int32(height), int32(format), texture))
}

// InitializeEncoder implements Context.
func (c *NativeContext) InitializeEncoder(h TrackHandle) error {
	return shimResult("initialize encoder", gptInitializeEncoder(c.ctx, uint64(h)))
}

// FinalizeEncoder implements Context.
func (c *NativeContext) FinalizeEncoder(h TrackHandle) error {
	return shimResult("finalize encoder", gptFinalizeEncoder(c.ctx, uint64(h)))
}

// Encode implements Context.
func (c *NativeContext) Encode(h TrackHandle) error {
	return shimResult("encode", gptEncode(c.ctx, uint64(h)))
}

// ReadEncodedFrame implements Context.
func (c *NativeContext) ReadEncodedFrame(h TrackHandle, buf []byte) (int, bool, error) {
	if len(buf) == 0 {
		return 0, false, nil
	}
	var keyframe int32
	n := gptReadEncodedFrame(c.ctx, uint64(h),
		uintptr(unsafe.Pointer(&buf[0])), int32(len(buf)),
		uintptr(unsafe.Pointer(&keyframe)))
	if n < 0 {
		return 0, false, shimResult("read encoded frame", n)
	}
	return int(n), keyframe != 0, nil
}

// CreateVideoRenderer implements Context.
func (c *NativeContext) CreateVideoRenderer() (RendererHandle, error) {
	h := gptCreateVideoRenderer(c.ctx)
	if h == 0 {
		return 0, fmt.Errorf("%w: create video renderer: %s", ErrNativeOperationFailed, lastShimError())
	}
	return RendererHandle(h), nil
}

// DeleteVideoRenderer implements Context.
func (c *NativeContext) DeleteVideoRenderer(r RendererHandle) error {
	return shimResult("delete video renderer", gptDeleteVideoRenderer(c.ctx, uint64(r)))
}

// UpdateRendererTexture implements Context.
func (c *NativeContext) UpdateRendererTexture(r RendererHandle, texture uintptr) error {
	return shimResult("update renderer texture", gptUpdateRendererTexture(c.ctx, uint64(r), texture))
}

var _ Context = (*NativeContext)(nil)
