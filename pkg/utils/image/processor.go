package image

import (
	"bytes"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"io"

	"github.com/chai2010/webp"
)

const (
	// MaxDimension bounds either edge of accepted images.
	MaxDimension = 6000
	webpQuality  = 82
)

// Processed is an image re-encoded for storage.
type Processed struct {
	Body        *bytes.Buffer
	ContentType string
	Ext         string
	Width       int
	Height      int
}

// ProcessImage decodes a JPEG, PNG or WebP upload and re-encodes it as lossy WebP.
func ProcessImage(src io.Reader) (*Processed, error) {
	img, format, err := image.Decode(src)
	if err != nil {
		return nil, fmt.Errorf("could not decode image: %w", err)
	}
	switch format {
	case "jpeg", "png", "webp":
	default:
		return nil, fmt.Errorf("unsupported image format: %s", format)
	}

	b := img.Bounds()
	if b.Dx() > MaxDimension || b.Dy() > MaxDimension {
		return nil, fmt.Errorf("image too large: %dx%d exceeds %dpx", b.Dx(), b.Dy(), MaxDimension)
	}

	buf := new(bytes.Buffer)
	if err := webp.Encode(buf, img, &webp.Options{Lossless: false, Quality: webpQuality}); err != nil {
		return nil, fmt.Errorf("could not encode image: %w", err)
	}

	return &Processed{
		Body:        buf,
		ContentType: "image/webp",
		Ext:         ".webp",
		Width:       b.Dx(),
		Height:      b.Dy(),
	}, nil
}
