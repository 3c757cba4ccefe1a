package raster

import (
	"image"
	"image/color"

	"github.com/disintegration/imaging"
)

var (
	// Transparent is the empty pixel sentinel.
	Transparent = color.NRGBA{}

	// White is the opaque white canvas background.
	White = color.NRGBA{R: 255, G: 255, B: 255, A: 255}

	// Ink is the glyph color.
	Ink = color.NRGBA{A: 255}
)

// New allocates a w×h raster filled with c. Non-positive sizes yield an
// empty raster.
func New(w, h int, c color.Color) *image.NRGBA {
	return imaging.New(w, h, c)
}

// IsEmpty reports whether img has no pixels.
func IsEmpty(img image.Image) bool {
	return img == nil || img.Bounds().Empty()
}

// Bytes returns the pixels of img as a tightly packed RGBA8 buffer, four
// bytes per pixel, row-major from the top-left corner. The result never
// aliases img.
func Bytes(img *image.NRGBA) []byte {
	if IsEmpty(img) {
		return []byte{}
	}
	b := img.Bounds()
	rowLen := b.Dx() * 4
	out := make([]byte, rowLen*b.Dy())
	for y := 0; y < b.Dy(); y++ {
		src := img.PixOffset(b.Min.X, b.Min.Y+y)
		copy(out[y*rowLen:(y+1)*rowLen], img.Pix[src:src+rowLen])
	}
	return out
}

// toNRGBA returns img as an origin-based *image.NRGBA, converting if needed.
// The result may alias img and must be treated as read-only.
func toNRGBA(img image.Image) *image.NRGBA {
	if n, ok := img.(*image.NRGBA); ok && n.Rect.Min == (image.Point{}) {
		return n
	}
	return imaging.Clone(img)
}
