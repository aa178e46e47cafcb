// internal/app/system/thumbs/thumbs.go
//
// Package thumbs resizes stored images into fixed-width thumbnail
// variants. Aspect ratio is preserved and the source encoding is kept
// where possible.
package thumbs

import (
	"bytes"
	"fmt"
	"image"

	"github.com/disintegration/imaging"
)

// Widths lists the thumbnail widths generated for every image, widest
// first.
var Widths = []int{500, 250, 100}

// encodings maps the formats image.Decode reports to imaging encoders.
// Anything outside this map is re-encoded as PNG.
var encodings = map[string]imaging.Format{
	"jpeg": imaging.JPEG,
	"png":  imaging.PNG,
	"gif":  imaging.GIF,
	"bmp":  imaging.BMP,
	"tiff": imaging.TIFF,
}

// Render decodes src and returns it resized to the given width, height
// scaled to preserve aspect ratio. Images already narrower than width
// are returned re-encoded at their original size.
func Render(src []byte, width int) ([]byte, error) {
	img, format, err := image.Decode(bytes.NewReader(src))
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}

	resized := img
	if img.Bounds().Dx() > width {
		resized = imaging.Resize(img, width, 0, imaging.Lanczos)
	}

	enc, ok := encodings[format]
	if !ok {
		enc = imaging.PNG
	}

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, resized, enc); err != nil {
		return nil, fmt.Errorf("encode %s thumbnail: %w", format, err)
	}
	return buf.Bytes(), nil
}
