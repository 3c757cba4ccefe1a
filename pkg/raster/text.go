package raster

import (
	stderrors "errors"
	"image"
	"image/draw"
	"math"
	"unicode"

	"golang.org/x/image/font"
	"golang.org/x/image/font/sfnt"
	"golang.org/x/image/math/fixed"
	"golang.org/x/image/vector"

	"github.com/matzehuels/perspectives/pkg/errors"
)

// metricsPPEM is the reference size used to read the font's vertical metrics.
// Only their ratio to the em matters, so any moderate size works.
const metricsPPEM = 64

// RasterizeText draws text on a side×side transparent raster.
//
// The scales are pixel scales: yScale is the height in pixels of the font's
// ascent plus descent, and xScale is the same measure applied horizontally.
// They are independent, so glyphs can be squeezed horizontally while still
// filling the full height. The first glyph starts at the left edge and the
// top of the line box sits at y = 0. Glyph coverage is stored in alpha over
// black ink; everything else stays transparent.
//
// Text without visible glyphs yields a fully transparent raster. Runes the
// font does not cover are drawn with its .notdef glyph. Glyphs that fall
// outside the square are clipped.
func RasterizeText(f *sfnt.Font, text string, xScale, yScale float64, side int) (*image.NRGBA, error) {
	if f == nil {
		return nil, errors.New(errors.ErrCodeInvalidFont, "font is nil")
	}
	if side <= 0 {
		return nil, errors.New(errors.ErrCodeInvalidSize, "raster side must be positive, got %d", side)
	}
	if !(xScale > 0) || !(yScale > 0) || math.IsInf(xScale, 0) || math.IsInf(yScale, 0) {
		return nil, errors.New(errors.ErrCodeInvalidInput, "scales must be positive and finite, got x=%g y=%g", xScale, yScale)
	}

	mask := image.NewAlpha(image.Rect(0, 0, side, side))
	if text != "" {
		if err := fillGlyphs(mask, f, text, xScale, yScale); err != nil {
			return nil, err
		}
	}
	return inkMask(mask), nil
}

// fillGlyphs accumulates the outlines of every glyph in text into one
// rasterizer and writes the resulting coverage into mask.
func fillGlyphs(mask *image.Alpha, f *sfnt.Font, text string, xScale, yScale float64) error {
	var buf sfnt.Buffer

	m, err := f.Metrics(&buf, fixed.I(metricsPPEM), font.HintingNone)
	if err != nil {
		return errors.Wrap(errors.ErrCodeInvalidFont, err, "read font metrics")
	}
	lineEms := float64(m.Ascent+m.Descent) / 64 / metricsPPEM
	if lineEms <= 0 {
		return errors.New(errors.ErrCodeInvalidFont, "font has no vertical extent")
	}

	// Glyphs are loaded at the em size that makes ascent+descent span yScale
	// pixels; x coordinates are then stretched to the horizontal scale.
	ppemPx := yScale / lineEms
	ppem := fixed.Int26_6(math.Round(ppemPx * 64))
	if ppem <= 0 {
		return nil
	}
	sx := xScale / yScale
	baseline := float64(m.Ascent) / 64 / metricsPPEM * ppemPx

	size := mask.Bounds().Size()
	z := vector.NewRasterizer(size.X, size.Y)
	z.DrawOp = draw.Src

	pen := 0.0
	prev := sfnt.GlyphIndex(0)
	for i, r := range text {
		if pen >= float64(size.X) {
			break
		}

		if unicode.IsSpace(r) {
			r = ' '
		}
		idx, err := f.GlyphIndex(&buf, r)
		if err != nil {
			return errors.Wrap(errors.ErrCodeInvalidFont, err, "glyph index for %q", r)
		}

		if i > 0 {
			kern, err := f.Kern(&buf, prev, idx, ppem, font.HintingNone)
			if err != nil && !stderrors.Is(err, sfnt.ErrNotFound) {
				return errors.Wrap(errors.ErrCodeInvalidFont, err, "kerning for %q", r)
			}
			pen += float64(kern) / 64 * sx
		}

		segments, err := f.LoadGlyph(&buf, idx, ppem, nil)
		if err != nil {
			return errors.Wrap(errors.ErrCodeInvalidFont, err, "load glyph %q", r)
		}
		traceOutline(z, segments, pen, baseline, sx)

		advance, err := f.GlyphAdvance(&buf, idx, ppem, font.HintingNone)
		if err != nil {
			return errors.Wrap(errors.ErrCodeInvalidFont, err, "advance for %q", r)
		}
		pen += float64(advance) / 64 * sx
		prev = idx
	}

	z.Draw(mask, mask.Bounds(), image.Opaque, image.Point{})
	return nil
}

// traceOutline feeds glyph segments to the rasterizer, translated to the pen
// position and stretched horizontally by sx. Segment y already grows down.
func traceOutline(z *vector.Rasterizer, segments sfnt.Segments, penX, baseline, sx float64) {
	if len(segments) == 0 {
		return
	}
	pt := func(p fixed.Point26_6) (float32, float32) {
		return float32(penX + float64(p.X)/64*sx), float32(baseline + float64(p.Y)/64)
	}
	for _, s := range segments {
		switch s.Op {
		case sfnt.SegmentOpMoveTo:
			z.MoveTo(pt(s.Args[0]))
		case sfnt.SegmentOpLineTo:
			z.LineTo(pt(s.Args[0]))
		case sfnt.SegmentOpQuadTo:
			bx, by := pt(s.Args[0])
			cx, cy := pt(s.Args[1])
			z.QuadTo(bx, by, cx, cy)
		case sfnt.SegmentOpCubeTo:
			bx, by := pt(s.Args[0])
			cx, cy := pt(s.Args[1])
			dx, dy := pt(s.Args[2])
			z.CubeTo(bx, by, cx, cy, dx, dy)
		}
	}
	z.ClosePath()
}

// inkMask converts coverage into black ink with matching alpha.
func inkMask(mask *image.Alpha) *image.NRGBA {
	b := mask.Bounds()
	dst := image.NewNRGBA(b)
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			a := mask.Pix[mask.PixOffset(x, y)]
			if a == 0 {
				continue
			}
			i := dst.PixOffset(x, y)
			dst.Pix[i+0] = Ink.R
			dst.Pix[i+1] = Ink.G
			dst.Pix[i+2] = Ink.B
			dst.Pix[i+3] = a
		}
	}
	return dst
}
