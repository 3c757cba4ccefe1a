package raster

import (
	"fmt"
	"image"
	"image/color"

	"github.com/disintegration/imaging"
)

// BoundingBox is an inclusive pixel rectangle. A box with XMin > XMax or
// YMin > YMax is empty and encloses nothing.
type BoundingBox struct {
	XMin, XMax int
	YMin, YMax int
}

// Empty reports whether the box encloses no pixel.
func (b BoundingBox) Empty() bool {
	return b.XMin > b.XMax || b.YMin > b.YMax
}

// Width returns the number of columns in the box, or 0 if it is empty.
func (b BoundingBox) Width() int {
	if b.Empty() {
		return 0
	}
	return b.XMax - b.XMin + 1
}

// Height returns the number of rows in the box, or 0 if it is empty.
func (b BoundingBox) Height() int {
	if b.Empty() {
		return 0
	}
	return b.YMax - b.YMin + 1
}

// Rect converts the box to a half-open image.Rectangle.
func (b BoundingBox) Rect() image.Rectangle {
	if b.Empty() {
		return image.Rectangle{}
	}
	return image.Rect(b.XMin, b.YMin, b.XMax+1, b.YMax+1)
}

func (b BoundingBox) String() string {
	if b.Empty() {
		return "empty"
	}
	return fmt.Sprintf("x=[%d,%d] y=[%d,%d]", b.XMin, b.XMax, b.YMin, b.YMax)
}

// FindBoundingBox returns the tight box around every pixel of img that is not
// the transparent sentinel. Coordinates are in img's own coordinate space.
// An image without content yields an empty box.
func FindBoundingBox(img image.Image) BoundingBox {
	if IsEmpty(img) {
		return BoundingBox{XMin: 0, XMax: -1, YMin: 0, YMax: -1}
	}
	r := img.Bounds()
	box := BoundingBox{XMin: r.Max.X, XMax: r.Min.X - 1, YMin: r.Max.Y, YMax: r.Min.Y - 1}

	include := func(x, y int) {
		box.XMin = min(box.XMin, x)
		box.XMax = max(box.XMax, x)
		box.YMin = min(box.YMin, y)
		box.YMax = max(box.YMax, y)
	}

	if n, ok := img.(*image.NRGBA); ok {
		for y := r.Min.Y; y < r.Max.Y; y++ {
			i := n.PixOffset(r.Min.X, y)
			for x := r.Min.X; x < r.Max.X; x, i = x+1, i+4 {
				p := n.Pix[i : i+4 : i+4]
				if p[0]|p[1]|p[2]|p[3] != 0 {
					include(x, y)
				}
			}
		}
		return box
	}

	for y := r.Min.Y; y < r.Max.Y; y++ {
		for x := r.Min.X; x < r.Max.X; x++ {
			if color.NRGBAModel.Convert(img.At(x, y)).(color.NRGBA) != Transparent {
				include(x, y)
			}
		}
	}
	return box
}

// CropToContent returns a copy of img cut down to its bounding box. If img
// has no content the result is a zero-sized raster.
func CropToContent(img image.Image) *image.NRGBA {
	box := FindBoundingBox(img)
	if box.Empty() {
		return &image.NRGBA{}
	}
	return imaging.Crop(img, box.Rect())
}
