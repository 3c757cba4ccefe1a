package raster

import (
	"image"
	"image/color"

	"github.com/disintegration/imaging"
	"golang.org/x/image/draw"

	"github.com/matzehuels/perspectives/pkg/errors"
)

// Rotate90 returns a copy of img rotated 90° clockwise. Width and height are
// swapped.
func Rotate90(img image.Image) *image.NRGBA {
	if IsEmpty(img) {
		return &image.NRGBA{}
	}
	// imaging rotates counter-clockwise.
	return imaging.Rotate270(img)
}

// Overlay composites src onto dst with its top-left corner at the given
// point, using Porter-Duff "over". Pixels of src falling outside dst are
// dropped. dst is modified in place.
func Overlay(dst *image.NRGBA, src image.Image, at image.Point) {
	if IsEmpty(src) || IsEmpty(dst) {
		return
	}
	sb := src.Bounds()
	r := image.Rectangle{Min: at, Max: at.Add(sb.Size())}
	draw.Draw(dst, r, src, sb.Min, draw.Over)
}

type composeConfig struct {
	background color.Color
}

// ComposeOption configures ComposeSymmetric.
type ComposeOption func(*composeConfig)

// WithBackground sets the canvas fill. The default is opaque white.
func WithBackground(c color.Color) ComposeOption {
	return func(cfg *composeConfig) {
		if c != nil {
			cfg.background = c
		}
	}
}

// ComposeSymmetric centers img on a square canvas and overlays a copy rotated
// 90° clockwise at the transposed offset, producing the pinwheel pattern.
//
// The canvas side is the larger of side and both image dimensions, so the
// offsets are never negative; callers can read the final side from the
// result's bounds. An empty img yields a background-only canvas.
func ComposeSymmetric(img image.Image, side int, opts ...ComposeOption) (*image.NRGBA, error) {
	if side <= 0 {
		return nil, errors.New(errors.ErrCodeInvalidSize, "canvas side must be positive, got %d", side)
	}

	cfg := composeConfig{background: White}
	for _, opt := range opts {
		opt(&cfg)
	}

	if IsEmpty(img) {
		return New(side, side, cfg.background), nil
	}

	size := img.Bounds().Size()
	l := max(side, size.X, size.Y)
	canvas := New(l, l, cfg.background)

	x := (l - size.X) / 2
	y := (l - size.Y) / 2

	Overlay(canvas, img, image.Pt(x, y))
	Overlay(canvas, Rotate90(img), image.Pt(y, x))
	return canvas, nil
}
