package thumbnail

import (
	"fmt"

	"github.com/disintegration/imaging"
)

const (
	// DefaultMaxWidth is the thumbnail width used when nothing is configured.
	DefaultMaxWidth = 128

	// DefaultQuality is imaging's default JPEG quality.
	DefaultQuality = 95

	// DefaultMaxPixels bounds both the decoded source and the resized output.
	DefaultMaxPixels = 32_000_000

	// MaxDimension is the largest side image/jpeg can encode.
	MaxDimension = 65535

	// ContentType of every generated thumbnail.
	ContentType = "image/jpeg"
)

// FitMode selects how target dimensions are derived from the source.
type FitMode int

const (
	// FitWidth bounds the width; the height follows the source aspect ratio.
	FitWidth FitMode = iota
)

func (m FitMode) String() string {
	switch m {
	case FitWidth:
		return "fit-width"
	default:
		return fmt.Sprintf("FitMode(%d)", int(m))
	}
}

// Spec configures thumbnail generation.
type Spec struct {
	// MaxWidth is the target width in pixels. Must be positive.
	MaxWidth int

	// Fit selects the dimension policy. Only FitWidth is defined.
	Fit FitMode

	// Upscale resizes sources narrower than MaxWidth up to MaxWidth.
	// When false such sources keep their dimensions and are only re-encoded.
	Upscale bool

	// Quality is the JPEG quality (1-100). Zero selects DefaultQuality.
	Quality int

	// MaxPixels rejects sources whose width*height exceeds it before their
	// pixels are decoded, and targets whose width*height exceeds it before
	// resizing. Zero disables the check.
	MaxPixels int
}

// DefaultSpec returns a 128px wide, upscaling, default-quality spec capped
// at DefaultMaxPixels.
func DefaultSpec() Spec {
	return Spec{
		MaxWidth:  DefaultMaxWidth,
		Fit:       FitWidth,
		Upscale:   true,
		Quality:   DefaultQuality,
		MaxPixels: DefaultMaxPixels,
	}
}

// Validate reports an error wrapping ErrInvalidSpec if s cannot be used.
func (s Spec) Validate() error {
	if s.MaxWidth <= 0 {
		return fmt.Errorf("%w: max width must be positive, got %d", ErrInvalidSpec, s.MaxWidth)
	}
	if s.Fit != FitWidth {
		return fmt.Errorf("%w: unsupported fit mode %s", ErrInvalidSpec, s.Fit)
	}
	if s.Quality < 0 || s.Quality > 100 {
		return fmt.Errorf("%w: jpeg quality must be within 1..100, got %d", ErrInvalidSpec, s.Quality)
	}
	if s.MaxPixels < 0 {
		return fmt.Errorf("%w: max pixels must not be negative, got %d", ErrInvalidSpec, s.MaxPixels)
	}
	return nil
}

func (s Spec) encodeOptions() []imaging.EncodeOption {
	q := s.Quality
	if q == 0 {
		q = DefaultQuality
	}
	return []imaging.EncodeOption{imaging.JPEGQuality(q)}
}
