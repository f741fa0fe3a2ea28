package thumbnail

import (
	"github.com/gabriel-vasile/mimetype"

	// WebP decoding; JPEG, PNG, GIF, BMP and TIFF are registered by imaging.
	_ "golang.org/x/image/webp"
)

var supportedTypes = []string{
	"image/jpeg",
	"image/png",
	"image/gif",
	"image/bmp",
	"image/tiff",
	"image/webp",
}

// SupportedContentTypes lists the source formats Generate accepts.
func SupportedContentTypes() []string {
	out := make([]string, len(supportedTypes))
	copy(out, supportedTypes)
	return out
}

// DetectFormat sniffs the content type of src. ok is false for anything
// Generate cannot decode.
func DetectFormat(src []byte) (contentType string, ok bool) {
	m := mimetype.Detect(src)
	for _, t := range supportedTypes {
		if m.Is(t) {
			return t, true
		}
	}
	return m.String(), false
}
