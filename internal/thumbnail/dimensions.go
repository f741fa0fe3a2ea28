package thumbnail

import "math"

// Dimensions is a width x height pair in pixels.
type Dimensions struct {
	Width  int
	Height int
}

// TargetDimensions computes the thumbnail size for a source of size src.
//
// The width becomes spec.MaxWidth and the height is the source height scaled
// by the same factor, rounded to the nearest pixel and never below 1. A
// source that is already narrower than MaxWidth keeps its size unless
// spec.Upscale is set. spec must already be valid.
func TargetDimensions(src Dimensions, spec Spec) Dimensions {
	if src.Width <= 0 || src.Height <= 0 {
		return Dimensions{}
	}
	if src.Width <= spec.MaxWidth && !spec.Upscale {
		return src
	}

	h := int(math.Round(float64(src.Height) * float64(spec.MaxWidth) / float64(src.Width)))
	if h < 1 {
		h = 1
	}
	return Dimensions{Width: spec.MaxWidth, Height: h}
}
