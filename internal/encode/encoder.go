// Package encode produces the transmission-ready payload sent to the
// illustration service: a width-capped JPEG re-encoding of the original photo.
package encode

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif"
	"image/jpeg"
	_ "image/png"

	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp"
)

// MaxWidth caps the encoded image width; larger photos are scaled down
// preserving aspect ratio.
const MaxWidth = 1500

const jpegQuality = 85

// Encode re-encodes an original photo as a JPEG no wider than MaxWidth.
// Output dimensions are deterministic for a given input.
func Encode(data []byte) ([]byte, error) {
	src, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}

	bounds := src.Bounds()
	width, height := bounds.Dx(), bounds.Dy()
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("decode image: empty %s image", format)
	}

	if width > MaxWidth {
		scaled := image.NewRGBA(image.Rect(0, 0, MaxWidth, scaledHeight(width, height)))
		draw.CatmullRom.Scale(scaled, scaled.Bounds(), src, bounds, draw.Over, nil)
		src = scaled
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, src, &jpeg.Options{Quality: jpegQuality}); err != nil {
		return nil, fmt.Errorf("encode jpeg: %w", err)
	}
	return buf.Bytes(), nil
}

func scaledHeight(width, height int) int {
	h := (height*MaxWidth + width/2) / width
	if h < 1 {
		h = 1
	}
	return h
}
