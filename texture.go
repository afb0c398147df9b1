package gputrack

import (
	"fmt"
	"sync"
	"sync/atomic"
)

// Texture is a GPU texture resource. Textures allocated by a VideoTrack are
// exclusively owned by it and released during teardown; they are never
// resized after creation.
type Texture interface {
	Width() int
	Height() int
	Format() TextureFormat

	// NativePtr returns the handle the graphics API exposes for this
	// texture, suitable for passing into foreign calls.
	NativePtr() uintptr

	// Release frees the underlying GPU resource. Release is idempotent.
	Release()
}

// GraphicsDevice abstracts the host graphics subsystem. The package never
// interprets pixel contents; it only orchestrates allocation, binding, and
// copy timing.
type GraphicsDevice interface {
	// CreateTexture allocates a texture of the given size and format.
	CreateTexture(width, height int, format TextureFormat) (Texture, error)

	// CreateRenderTarget allocates a texture usable as a render output,
	// e.g. for camera capture.
	CreateRenderTarget(width, height int, format TextureFormat) (Texture, error)

	// BlitFlip copies src into dst, inverting vertical orientation to match
	// the pipeline's expected frame layout. Dimensions must match.
	BlitFlip(dst, src Texture) error

	// Bind makes t the active render target.
	Bind(t Texture)

	// Unbind clears the active render-target binding if it references t.
	Unbind(t Texture)
}

// SoftwareDevice is an in-memory GraphicsDevice. It backs the constrained
// backend when no real device is supplied and gives tests a device whose
// pixel contents can be inspected.
type SoftwareDevice struct {
	mu     sync.Mutex
	active Texture
	nextID atomic.Uintptr
}

// NewSoftwareDevice creates a software graphics device.
func NewSoftwareDevice() *SoftwareDevice {
	return &SoftwareDevice{}
}

// SoftwareTexture is a Texture backed by a plain byte buffer.
type SoftwareTexture struct {
	width    int
	height   int
	format   TextureFormat
	ptr      uintptr
	pix      []byte
	released atomic.Bool
}

func (d *SoftwareDevice) newTexture(width, height int, format TextureFormat) (*SoftwareTexture, error) {
	if err := validateDimensions(width, height); err != nil {
		return nil, err
	}
	bpp := format.BytesPerPixel()
	if bpp == 0 {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, format)
	}
	return &SoftwareTexture{
		width:  width,
		height: height,
		format: format,
		ptr:    d.nextID.Add(1),
		pix:    make([]byte, width*height*bpp),
	}, nil
}

// CreateTexture implements GraphicsDevice.
func (d *SoftwareDevice) CreateTexture(width, height int, format TextureFormat) (Texture, error) {
	return d.newTexture(width, height, format)
}

// CreateRenderTarget implements GraphicsDevice.
func (d *SoftwareDevice) CreateRenderTarget(width, height int, format TextureFormat) (Texture, error) {
	return d.newTexture(width, height, format)
}

// BlitFlip implements GraphicsDevice. Rows are copied bottom-up so the
// destination is the vertical mirror of the source.
func (d *SoftwareDevice) BlitFlip(dst, src Texture) error {
	sdst, ok1 := dst.(*SoftwareTexture)
	ssrc, ok2 := src.(*SoftwareTexture)
	if !ok1 || !ok2 {
		return fmt.Errorf("software device cannot blit foreign textures")
	}
	if sdst.width != ssrc.width || sdst.height != ssrc.height || sdst.format != ssrc.format {
		return fmt.Errorf("%w: blit %dx%d %s -> %dx%d %s",
			ErrInvalidDimensions,
			ssrc.width, ssrc.height, ssrc.format,
			sdst.width, sdst.height, sdst.format)
	}
	stride := ssrc.width * ssrc.format.BytesPerPixel()
	for y := 0; y < ssrc.height; y++ {
		srcRow := ssrc.pix[y*stride : (y+1)*stride]
		dstY := ssrc.height - 1 - y
		copy(sdst.pix[dstY*stride:(dstY+1)*stride], srcRow)
	}
	return nil
}

// Bind implements GraphicsDevice.
func (d *SoftwareDevice) Bind(t Texture) {
	d.mu.Lock()
	d.active = t
	d.mu.Unlock()
}

// Unbind implements GraphicsDevice.
func (d *SoftwareDevice) Unbind(t Texture) {
	d.mu.Lock()
	if d.active == t {
		d.active = nil
	}
	d.mu.Unlock()
}

// Active returns the currently bound render target, or nil.
func (d *SoftwareDevice) Active() Texture {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.active
}

func (t *SoftwareTexture) Width() int            { return t.width }
func (t *SoftwareTexture) Height() int           { return t.height }
func (t *SoftwareTexture) Format() TextureFormat { return t.format }
func (t *SoftwareTexture) NativePtr() uintptr    { return t.ptr }

// Pixels returns the backing buffer. Rows are tightly packed,
// width*BytesPerPixel bytes each.
func (t *SoftwareTexture) Pixels() []byte { return t.pix }

// Released reports whether Release has been called.
func (t *SoftwareTexture) Released() bool { return t.released.Load() }

// Release implements Texture.
func (t *SoftwareTexture) Release() {
	t.released.Store(true)
}
