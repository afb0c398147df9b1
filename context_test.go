package gputrack

import (
	"fmt"
	"sync"
	"testing"
)

// fakeContext records every foreign call so tests can assert teardown
// ordering and the no-call guarantees of validation and idempotent
// disposal.
type fakeContext struct {
	mu    sync.Mutex
	calls []string

	caps    Capabilities
	formats map[TextureFormat]bool // nil = everything supported

	nextTrack    uint64
	nextRenderer uint64

	failCreateTrack bool
	failInitEncoder bool
	failCreateSink  bool

	pendingEncoded []byte
	pendingKey     bool
}

func newFakeContext() *fakeContext {
	return &fakeContext{
		caps:         CapRendererSink | CapEncodedReadback,
		nextTrack:    100,
		nextRenderer: 500,
	}
}

func (c *fakeContext) record(format string, args ...any) {
	c.mu.Lock()
	c.calls = append(c.calls, fmt.Sprintf(format, args...))
	c.mu.Unlock()
}

func (c *fakeContext) Calls() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]string, len(c.calls))
	copy(out, c.calls)
	return out
}

func (c *fakeContext) callIndex(call string) int {
	for i, got := range c.Calls() {
		if got == call {
			return i
		}
	}
	return -1
}

func (c *fakeContext) Name() string               { return "fake" }
func (c *fakeContext) Capabilities() Capabilities { return c.caps }

func (c *fakeContext) SupportsFormat(format TextureFormat) bool {
	if c.formats == nil {
		return true
	}
	return c.formats[format]
}

func (c *fakeContext) CreateVideoTrack(id string) (TrackHandle, error) {
	if c.failCreateTrack {
		return 0, fmt.Errorf("%w: create video track", ErrNativeOperationFailed)
	}
	c.mu.Lock()
	c.nextTrack++
	h := c.nextTrack
	c.mu.Unlock()
	c.record("CreateVideoTrack(%d)", h)
	return TrackHandle(h), nil
}

func (c *fakeContext) DeleteTrack(h TrackHandle) error {
	c.record("DeleteTrack(%d)", h)
	return nil
}

func (c *fakeContext) SetEncoderParameters(h TrackHandle, width, height int, format TextureFormat, texture uintptr) error {
	c.record("SetEncoderParameters(%d,%dx%d)", h, width, height)
	return nil
}

func (c *fakeContext) InitializeEncoder(h TrackHandle) error {
	if c.failInitEncoder {
		return fmt.Errorf("%w: initialize encoder", ErrNativeOperationFailed)
	}
	c.record("InitializeEncoder(%d)", h)
	return nil
}

func (c *fakeContext) FinalizeEncoder(h TrackHandle) error {
	c.record("FinalizeEncoder(%d)", h)
	return nil
}

func (c *fakeContext) Encode(h TrackHandle) error {
	c.record("Encode(%d)", h)
	return nil
}

func (c *fakeContext) ReadEncodedFrame(h TrackHandle, buf []byte) (int, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.pendingEncoded) == 0 {
		return 0, false, nil
	}
	n := copy(buf, c.pendingEncoded)
	key := c.pendingKey
	c.pendingEncoded = nil
	return n, key, nil
}

func (c *fakeContext) CreateVideoRenderer() (RendererHandle, error) {
	if c.failCreateSink {
		return 0, fmt.Errorf("%w: create video renderer", ErrNativeOperationFailed)
	}
	c.mu.Lock()
	c.nextRenderer++
	h := c.nextRenderer
	c.mu.Unlock()
	c.record("CreateVideoRenderer(%d)", h)
	return RendererHandle(h), nil
}

func (c *fakeContext) DeleteVideoRenderer(r RendererHandle) error {
	c.record("DeleteVideoRenderer(%d)", r)
	return nil
}

func (c *fakeContext) UpdateRendererTexture(r RendererHandle, texture uintptr) error {
	c.record("UpdateRendererTexture(%d,%d)", r, texture)
	return nil
}

var _ Context = (*fakeContext)(nil)

// stubTexture lets tests hand a track textures the software device would
// refuse to create.
type stubTexture struct {
	w, h int
	f    TextureFormat
}

func (t *stubTexture) Width() int            { return t.w }
func (t *stubTexture) Height() int           { return t.h }
func (t *stubTexture) Format() TextureFormat { return t.f }
func (t *stubTexture) NativePtr() uintptr    { return 1 }
func (t *stubTexture) Release()              {}

func newTestSession(t *testing.T, ctx Context) *Session {
	t.Helper()
	s, err := NewSession(SessionConfig{Context: ctx})
	if err != nil {
		t.Fatalf("NewSession failed: %v", err)
	}
	return s
}
