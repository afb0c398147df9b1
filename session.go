package gputrack

import (
	"fmt"
	"sync"

	"go.uber.org/zap"
)

// SessionConfig configures a Session.
type SessionConfig struct {
	Context  Context        // Native pipeline backend (required)
	Graphics GraphicsDevice // Graphics subsystem (default: software device)
	Logger   *zap.Logger    // Lifecycle logging (default: no-op)
}

// Session owns the process-scoped state the tracks share: the native
// pipeline context, the handle registry, and the active-track collection.
// State is populated as tracks are constructed and drained by Close.
type Session struct {
	ctx      Context
	gfx      GraphicsDevice
	log      *zap.Logger
	registry *HandleRegistry

	mu     sync.RWMutex
	tracks map[string]*VideoTrack
	closed bool
}

// NewSession creates a session around a backend context.
func NewSession(config SessionConfig) (*Session, error) {
	if config.Context == nil {
		return nil, fmt.Errorf("context is required")
	}
	if config.Graphics == nil {
		config.Graphics = NewSoftwareDevice()
	}
	if config.Logger == nil {
		config.Logger = zap.NewNop()
	}
	return &Session{
		ctx:      config.Context,
		gfx:      config.Graphics,
		log:      config.Logger,
		registry: NewHandleRegistry(),
		tracks:   make(map[string]*VideoTrack),
	}, nil
}

// Context returns the backend context.
func (s *Session) Context() Context { return s.ctx }

// Graphics returns the graphics device.
func (s *Session) Graphics() GraphicsDevice { return s.gfx }

// Registry returns the session's handle registry.
func (s *Session) Registry() *HandleRegistry { return s.registry }

// Tracks returns a snapshot of the live tracks.
func (s *Session) Tracks() []*VideoTrack {
	s.mu.RLock()
	defer s.mu.RUnlock()
	result := make([]*VideoTrack, 0, len(s.tracks))
	for _, t := range s.tracks {
		result = append(result, t)
	}
	return result
}

// TrackByID returns a live track by its identifier, or nil.
func (s *Session) TrackByID(id string) *VideoTrack {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.tracks[id]
}

func (s *Session) addTrack(t *VideoTrack) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrSessionClosed
	}
	s.tracks[t.ID()] = t
	return nil
}

func (s *Session) removeTrack(t *VideoTrack) {
	s.mu.Lock()
	delete(s.tracks, t.ID())
	s.mu.Unlock()
}

// Close disposes all remaining live tracks and drains the registry. Tracks
// should normally be closed by their owners; Close is the process-shutdown
// path.
func (s *Session) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	tracks := make([]*VideoTrack, 0, len(s.tracks))
	for _, t := range s.tracks {
		tracks = append(tracks, t)
	}
	s.mu.Unlock()

	for _, t := range tracks {
		if err := t.Close(); err != nil {
			s.log.Warn("track close during session shutdown", zap.String("id", t.ID()), zap.Error(err))
		}
	}
	s.registry.Clear()
	return nil
}
