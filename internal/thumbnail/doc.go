// Package thumbnail turns encoded raster images into fixed-width JPEG thumbnails.
//
// Generate is a pure function of its inputs: it performs no I/O, keeps no
// state between calls and never logs, so it may be called concurrently with
// independent inputs. Failures are reported as errors wrapping one of
// ErrDecodeFailed, ErrEncodeFailed or ErrInvalidSpec.
package thumbnail
