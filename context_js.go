//go:build js && wasm

// Constrained browser backend: syscall/js calls into the page-side bridge
// object. The browser owns decode and rendering, so there are no renderer
// sinks and no encoded-frame readback; remote tracks are backed by
// externally managed WebGL texture handles.

package gputrack

import (
	"fmt"
	"syscall/js"
)

// JSContext is the constrained backend over the browser bridge.
type JSContext struct {
	// underlying is the page-side bridge object, e.g. window.gputrack.
	underlying js.Value
}

// NewContext creates the default Context for this build target, bound to
// the global "gputrack" bridge object.
func NewContext() (Context, error) {
	bridge := js.Global().Get("gputrack")
	if bridge.IsUndefined() || bridge.IsNull() {
		return nil, fmt.Errorf("%w: gputrack bridge object not found", ErrNativeOperationFailed)
	}
	return &JSContext{underlying: bridge}, nil
}

// NewJSContext wraps an explicit bridge object.
func NewJSContext(bridge js.Value) *JSContext {
	return &JSContext{underlying: bridge}
}

func (c *JSContext) call(op string, args ...any) (js.Value, error) {
	v := c.underlying.Call(op, args...)
	if v.Type() == js.TypeNumber && v.Int() < 0 {
		return v, fmt.Errorf("%w: %s (%d)", ErrNativeOperationFailed, op, v.Int())
	}
	return v, nil
}

// Name implements Context.
func (c *JSContext) Name() string { return "js" }

// Capabilities implements Context.
func (c *JSContext) Capabilities() Capabilities {
	return CapExternalTexture
}

// SupportsFormat implements Context. The browser consumes RGBA-ordered
// textures only.
func (c *JSContext) SupportsFormat(format TextureFormat) bool {
	return format == TextureFormatRGBA32
}

// CreateVideoTrack implements Context.
func (c *JSContext) CreateVideoTrack(id string) (TrackHandle, error) {
	v, err := c.call("createVideoTrack", id)
	if err != nil {
		return 0, err
	}
	h := TrackHandle(uint64(v.Float()))
	if h == 0 {
		return 0, fmt.Errorf("%w: createVideoTrack returned no handle", ErrNativeOperationFailed)
	}
	return h, nil
}

// DeleteTrack implements Context.
func (c *JSContext) DeleteTrack(h TrackHandle) error {
	_, err := c.call("deleteTrack", float64(h))
	return err
}

// SetEncoderParameters implements Context.
func (c *JSContext) SetEncoderParameters(h TrackHandle, width, height int, format TextureFormat, texture uintptr) error {
	_, err := c.call("setEncoderParameters", float64(h), width, height, int(format), float64(texture))
	return err
}

// InitializeEncoder implements Context.
func (c *JSContext) InitializeEncoder(h TrackHandle) error {
	_, err := c.call("initializeEncoder", float64(h))
	return err
}

// FinalizeEncoder implements Context.
func (c *JSContext) FinalizeEncoder(h TrackHandle) error {
	_, err := c.call("finalizeEncoder", float64(h))
	return err
}

// Encode implements Context.
func (c *JSContext) Encode(h TrackHandle) error {
	_, err := c.call("encode", float64(h))
	return err
}

// ReadEncodedFrame implements Context. The browser keeps encoded data on
// its side of the boundary; there is nothing to read back.
func (c *JSContext) ReadEncodedFrame(h TrackHandle, buf []byte) (int, bool, error) {
	return 0, false, nil
}

// CreateVideoRenderer implements Context. The browser renders remote tracks
// itself; sinks do not exist on this backend.
func (c *JSContext) CreateVideoRenderer() (RendererHandle, error) {
	return 0, fmt.Errorf("%w: renderer sinks not supported on js backend", ErrNativeOperationFailed)
}

// DeleteVideoRenderer implements Context.
func (c *JSContext) DeleteVideoRenderer(r RendererHandle) error {
	return fmt.Errorf("%w: renderer sinks not supported on js backend", ErrNativeOperationFailed)
}

// UpdateRendererTexture implements Context.
func (c *JSContext) UpdateRendererTexture(r RendererHandle, texture uintptr) error {
	return fmt.Errorf("%w: renderer sinks not supported on js backend", ErrNativeOperationFailed)
}

var _ Context = (*JSContext)(nil)
