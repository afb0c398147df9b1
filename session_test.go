package gputrack

import (
	"errors"
	"testing"
)

func TestNewSession_RequiresContext(t *testing.T) {
	if _, err := NewSession(SessionConfig{}); err == nil {
		t.Fatal("NewSession accepted a nil context")
	}
}

func TestSession_CloseDrainsTracks(t *testing.T) {
	ctx := newFakeContext()
	s := newTestSession(t, ctx)

	a, err := s.NewVideoTrack(newSourceTexture(t, s, 640, 480))
	if err != nil {
		t.Fatalf("NewVideoTrack failed: %v", err)
	}
	b, err := s.WrapVideoTrack(TrackHandle(9))
	if err != nil {
		t.Fatalf("WrapVideoTrack failed: %v", err)
	}
	if len(s.Tracks()) != 2 {
		t.Fatalf("Tracks() = %d, want 2", len(s.Tracks()))
	}

	if err := s.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	if !a.Disposed() || !b.Disposed() {
		t.Error("session close left live tracks behind")
	}
	if s.Registry().Len() != 0 {
		t.Errorf("registry has %d entries after session close", s.Registry().Len())
	}
	if len(s.Tracks()) != 0 {
		t.Error("active tracks not drained")
	}

	// Closing again is a no-op.
	if err := s.Close(); err != nil {
		t.Fatalf("second Close failed: %v", err)
	}
}

func TestSession_ConstructAfterClose(t *testing.T) {
	ctx := newFakeContext()
	s := newTestSession(t, ctx)
	if err := s.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	if _, err := s.NewVideoTrack(newSourceTexture(t, s, 64, 64)); !errors.Is(err, ErrSessionClosed) {
		t.Errorf("NewVideoTrack: got %v, want ErrSessionClosed", err)
	}
	if _, err := s.WrapVideoTrack(TrackHandle(3)); !errors.Is(err, ErrSessionClosed) {
		t.Errorf("WrapVideoTrack: got %v, want ErrSessionClosed", err)
	}
}

func TestSession_IsolatedInstances(t *testing.T) {
	s1 := newTestSession(t, newFakeContext())
	s2 := newTestSession(t, newFakeContext())
	defer s1.Close()
	defer s2.Close()

	track, err := s1.NewVideoTrack(newSourceTexture(t, s1, 64, 64))
	if err != nil {
		t.Fatalf("NewVideoTrack failed: %v", err)
	}
	if _, ok := s2.Registry().ResolveTrack(track.Handle()); ok {
		t.Error("track leaked into another session's registry")
	}
}

func TestSession_TrackByID(t *testing.T) {
	s := newTestSession(t, newFakeContext())
	defer s.Close()

	track, err := s.NewVideoTrack(newSourceTexture(t, s, 64, 64))
	if err != nil {
		t.Fatalf("NewVideoTrack failed: %v", err)
	}
	if got := s.TrackByID(track.ID()); got != track {
		t.Errorf("TrackByID = %v, want %v", got, track)
	}
	if got := s.TrackByID("missing"); got != nil {
		t.Errorf("TrackByID(missing) = %v, want nil", got)
	}
}
