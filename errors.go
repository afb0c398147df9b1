package gputrack

import "errors"

// Common errors
var (
	// ErrInvalidDimensions is returned when a requested texture size has a
	// zero or negative width or height.
	ErrInvalidDimensions = errors.New("invalid texture dimensions")

	// ErrUnsupportedFormat is returned when the active backend cannot encode
	// or render the requested texture format.
	ErrUnsupportedFormat = errors.New("texture format not supported")

	// ErrAlreadyInitialized is returned by a second receive-initialization
	// on a track that already completed one.
	ErrAlreadyInitialized = errors.New("receiver already initialized")

	// ErrDisposed is returned when an operation is invoked on a track whose
	// native handle has already been released.
	ErrDisposed = errors.New("track already disposed")

	// ErrNativeOperationFailed wraps a failure code reported by the native
	// pipeline.
	ErrNativeOperationFailed = errors.New("native operation failed")

	// ErrSessionClosed is returned when constructing tracks on a closed
	// session.
	ErrSessionClosed = errors.New("session closed")
)
