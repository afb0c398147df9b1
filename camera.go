package gputrack

import "fmt"

// CameraConfig configures camera capture.
type CameraConfig struct {
	Width  int           // Render target width (default: 1280)
	Height int           // Render target height (default: 720)
	Format TextureFormat // Render target format (default: BGRA32)
}

// DefaultCameraConfig returns a default camera capture configuration.
func DefaultCameraConfig() CameraConfig {
	return CameraConfig{
		Width:  1280,
		Height: 720,
		Format: TextureFormatBGRA32,
	}
}

// CaptureCamera allocates a render target, binds it as the camera's output,
// and constructs a send-direction track around it. The render target is
// released when the returned track is closed.
//
// This is a convenience over NewVideoTrack; it adds no lifecycle logic of
// its own.
func (s *Session) CaptureCamera(config CameraConfig) (*VideoTrack, error) {
	if config.Width == 0 && config.Height == 0 {
		config = DefaultCameraConfig()
	}
	if err := validateDimensions(config.Width, config.Height); err != nil {
		return nil, err
	}

	target, err := s.gfx.CreateRenderTarget(config.Width, config.Height, config.Format)
	if err != nil {
		return nil, fmt.Errorf("allocate camera render target: %w", err)
	}
	s.gfx.Bind(target)

	track, err := s.NewVideoTrack(target)
	if err != nil {
		s.gfx.Unbind(target)
		target.Release()
		return nil, err
	}
	// The track treats the render target as caller-owned; hand ownership
	// over so camera teardown follows track teardown.
	track.adoptSource()
	return track, nil
}
