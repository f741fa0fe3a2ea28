package thumbnail

import (
	"bytes"
	"fmt"
	"image"
	"image/color"

	"github.com/disintegration/imaging"
)

// Image is an encoded thumbnail. It is not modified after Generate returns.
type Image struct {
	Data        []byte
	Width       int
	Height      int
	ContentType string

	// SourceFormat is the detected content type of the input.
	SourceFormat string
	// Source is the size of the input after EXIF orientation was applied.
	Source Dimensions
}

// Size returns the encoded length in bytes.
func (i *Image) Size() int64 {
	return int64(len(i.Data))
}

// Generator produces thumbnails for a fixed, pre-validated Spec.
type Generator struct {
	spec Spec
}

// NewGenerator validates spec and returns a Generator for it.
func NewGenerator(spec Spec) (*Generator, error) {
	if err := spec.Validate(); err != nil {
		return nil, err
	}
	return &Generator{spec: spec}, nil
}

// Spec returns the generator's configuration.
func (g *Generator) Spec() Spec {
	return g.spec
}

// Generate produces a thumbnail of src using the generator's Spec.
func (g *Generator) Generate(src []byte) (*Image, error) {
	return generate(src, g.spec)
}

// Generate decodes src, resizes it according to spec and encodes the result
// as JPEG. spec is validated before src is looked at.
func Generate(src []byte, spec Spec) (*Image, error) {
	if err := spec.Validate(); err != nil {
		return nil, err
	}
	return generate(src, spec)
}

func generate(src []byte, spec Spec) (*Image, error) {
	if len(src) == 0 {
		return nil, fmt.Errorf("%w: empty input", ErrDecodeFailed)
	}

	format, ok := DetectFormat(src)
	if !ok {
		return nil, fmt.Errorf("%w: unsupported format %s", ErrDecodeFailed, format)
	}

	if spec.MaxPixels > 0 {
		cfg, _, err := image.DecodeConfig(bytes.NewReader(src))
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrDecodeFailed, err)
		}
		if cfg.Width*cfg.Height > spec.MaxPixels {
			return nil, fmt.Errorf("%w: %dx%d exceeds %d pixels", ErrDecodeFailed, cfg.Width, cfg.Height, spec.MaxPixels)
		}
	}

	img, err := imaging.Decode(bytes.NewReader(src), imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDecodeFailed, err)
	}

	b := img.Bounds()
	source := Dimensions{Width: b.Dx(), Height: b.Dy()}
	if source.Width <= 0 || source.Height <= 0 {
		return nil, fmt.Errorf("%w: empty image bounds", ErrDecodeFailed)
	}

	target := TargetDimensions(source, spec)
	if err := checkTarget(target, spec); err != nil {
		return nil, err
	}

	var out image.Image = img
	if target != source {
		out = imaging.Resize(img, target.Width, target.Height, imaging.Lanczos)
	}
	out = flatten(out)

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, out, imaging.JPEG, spec.encodeOptions()...); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrEncodeFailed, err)
	}

	return &Image{
		Data:         buf.Bytes(),
		Width:        target.Width,
		Height:       target.Height,
		ContentType:  ContentType,
		SourceFormat: format,
		Source:       source,
	}, nil
}

// checkTarget rejects output sizes that cannot be encoded, before the resize
// buffer is allocated. Tall, narrow sources scale up to very tall targets.
func checkTarget(target Dimensions, spec Spec) error {
	if target.Width > MaxDimension || target.Height > MaxDimension {
		return fmt.Errorf("%w: %dx%d exceeds the jpeg limit of %d", ErrEncodeFailed, target.Width, target.Height, MaxDimension)
	}
	if spec.MaxPixels > 0 && target.Width*target.Height > spec.MaxPixels {
		return fmt.Errorf("%w: %dx%d exceeds %d pixels", ErrEncodeFailed, target.Width, target.Height, spec.MaxPixels)
	}
	return nil
}

type opaquer interface {
	Opaque() bool
}

// flatten composites images with transparency onto white, since JPEG has no
// alpha channel and transparent pixels would otherwise encode as black.
func flatten(img image.Image) image.Image {
	if o, ok := img.(opaquer); ok && o.Opaque() {
		return img
	}
	b := img.Bounds()
	bg := imaging.New(b.Dx(), b.Dy(), color.White)
	return imaging.Overlay(bg, img, image.Pt(0, 0), 1.0)
}
