package gputrack

import (
	"fmt"
	"testing"
)

func receiverTrack(t *testing.T, s *Session) *VideoTrack {
	t.Helper()
	track, err := s.WrapVideoTrack(TrackHandle(42))
	if err != nil {
		t.Fatalf("WrapVideoTrack failed: %v", err)
	}
	if err := track.InitializeReceiver(320, 240); err != nil {
		t.Fatalf("InitializeReceiver failed: %v", err)
	}
	return track
}

func TestRendererSink_Registration(t *testing.T) {
	ctx := newFakeContext()
	s := newTestSession(t, ctx)
	defer s.Close()

	track := receiverTrack(t, s)
	sink := track.sink
	if sink == nil {
		t.Fatal("no renderer sink after receive initialization")
	}
	if _, ok := s.Registry().ResolveSink(sink.Handle()); !ok {
		t.Error("sink not in registry")
	}
	if sink.Track() != track {
		t.Error("sink does not reference its owning track")
	}

	// The decode texture was registered with the native renderer, not the
	// destination the application reads.
	want := fmt.Sprintf("UpdateRendererTexture(%d,%d)", sink.Handle(), track.Source().NativePtr())
	if ctx.callIndex(want) < 0 {
		t.Errorf("missing %s in %v", want, ctx.Calls())
	}
	wrong := fmt.Sprintf("UpdateRendererTexture(%d,%d)", sink.Handle(), track.Texture().NativePtr())
	if ctx.callIndex(wrong) >= 0 {
		t.Errorf("destination texture registered with the native renderer: %v", ctx.Calls())
	}
}

func TestRendererSink_DisposeOrder(t *testing.T) {
	ctx := newFakeContext()
	s := newTestSession(t, ctx)
	defer s.Close()

	track := receiverTrack(t, s)
	sinkHandle := track.sink.Handle()

	if err := track.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	unregister := ctx.callIndex(fmt.Sprintf("UpdateRendererTexture(%d,0)", sinkHandle))
	delRenderer := ctx.callIndex(fmt.Sprintf("DeleteVideoRenderer(%d)", sinkHandle))
	delTrack := ctx.callIndex("DeleteTrack(42)")
	if unregister < 0 || delRenderer < 0 || delTrack < 0 {
		t.Fatalf("missing teardown calls: %v", ctx.Calls())
	}
	if unregister > delRenderer {
		t.Error("sink deleted before unregistering from the decode pipeline")
	}
	if delRenderer > delTrack {
		t.Error("native track deleted before its renderer sink")
	}
	if _, ok := s.Registry().Resolve(uint64(sinkHandle)); ok {
		t.Error("sink still in registry after disposal")
	}
}

func TestRendererSink_IdempotentClose(t *testing.T) {
	ctx := newFakeContext()
	s := newTestSession(t, ctx)
	defer s.Close()

	track := receiverTrack(t, s)
	sink := track.sink

	if err := sink.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	before := len(ctx.Calls())
	if err := sink.Close(); err != nil {
		t.Fatalf("second Close failed: %v", err)
	}
	if got := len(ctx.Calls()); got != before {
		t.Errorf("second Close issued %d foreign calls", got-before)
	}
}

func TestRendererSink_CreationFailure(t *testing.T) {
	ctx := newFakeContext()
	ctx.failCreateSink = true
	s := newTestSession(t, ctx)
	defer s.Close()

	track, err := s.WrapVideoTrack(TrackHandle(42))
	if err != nil {
		t.Fatalf("WrapVideoTrack failed: %v", err)
	}
	if err := track.InitializeReceiver(320, 240); err == nil {
		t.Fatal("InitializeReceiver succeeded despite sink failure")
	}
	if track.IsDecoderInitialized() {
		t.Error("decoder reported initialized after sink failure")
	}
	if track.Texture() != nil {
		t.Error("destination texture leaked after sink failure")
	}
}
