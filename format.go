package gputrack

import "fmt"

// TextureFormat represents GPU texture pixel formats the pipeline can
// consume.
type TextureFormat int

const (
	TextureFormatBGRA32 TextureFormat = iota // Packed BGRA, 4 bytes per pixel
	TextureFormatRGBA32                      // Packed RGBA, 4 bytes per pixel
	TextureFormatRGBA64F                     // 16-bit float per channel, 8 bytes per pixel
)

func (f TextureFormat) String() string {
	switch f {
	case TextureFormatBGRA32:
		return "BGRA32"
	case TextureFormatRGBA32:
		return "RGBA32"
	case TextureFormatRGBA64F:
		return "RGBA64F"
	default:
		return "Unknown"
	}
}

// BytesPerPixel returns the storage size of one pixel in this format.
func (f TextureFormat) BytesPerPixel() int {
	switch f {
	case TextureFormatBGRA32, TextureFormatRGBA32:
		return 4
	case TextureFormatRGBA64F:
		return 8
	default:
		return 0
	}
}

// validateDimensions rejects sizes the native pipeline cannot negotiate.
// Validation happens before any foreign call so a failure leaks nothing.
func validateDimensions(width, height int) error {
	if width <= 0 || height <= 0 {
		return fmt.Errorf("%w: %dx%d", ErrInvalidDimensions, width, height)
	}
	return nil
}
