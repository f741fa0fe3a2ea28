package thumbnail

import "errors"

var (
	// ErrDecodeFailed means the source bytes are empty, corrupt, too large or
	// not in a supported format.
	ErrDecodeFailed = errors.New("thumbnail: decode failed")

	// ErrEncodeFailed means the resized image could not be encoded.
	ErrEncodeFailed = errors.New("thumbnail: encode failed")

	// ErrInvalidSpec means the Spec is unusable (e.g. MaxWidth <= 0).
	ErrInvalidSpec = errors.New("thumbnail: invalid spec")
)

// IsPermanent reports whether err is a generator failure that will not go
// away on retry. Every generator error is permanent.
func IsPermanent(err error) bool {
	return errors.Is(err, ErrDecodeFailed) ||
		errors.Is(err, ErrEncodeFailed) ||
		errors.Is(err, ErrInvalidSpec)
}
