package raster

import (
	"image"
	"math"

	"github.com/matzehuels/perspectives/pkg/errors"
)

// Point is a position in continuous pixel coordinates. Pixel (x, y) covers
// the unit square from (x, y) to (x+1, y+1).
type Point struct {
	X, Y float64
}

// Projection is a 3×3 homography in row-major order, normalized so that the
// last element is 1.
type Projection [9]float64

// Identity is the projection that maps every point to itself.
var Identity = Projection{1, 0, 0, 0, 1, 0, 0, 0, 1}

// singularEps bounds the relative pivot size below which a system is
// considered degenerate.
const singularEps = 1e-10

// ProjectionFromControlPoints solves for the projection that maps each point
// of from onto the point of to at the same index. Both lists must use the
// same corner order (top-left, top-right, bottom-left, bottom-right);
// mismatched orders produce a folded, meaningless mapping.
//
// Degenerate inputs, such as three collinear points, return an
// INVALID_TRANSFORM error.
func ProjectionFromControlPoints(from, to [4]Point) (Projection, error) {
	// Unknowns a..h with
	//   u = (a·x + b·y + c) / (g·x + h·y + 1)
	//   v = (d·x + e·y + f) / (g·x + h·y + 1)
	var m [8][9]float64
	for i := 0; i < 4; i++ {
		x, y := from[i].X, from[i].Y
		u, v := to[i].X, to[i].Y
		m[2*i] = [9]float64{x, y, 1, 0, 0, 0, -x * u, -y * u, u}
		m[2*i+1] = [9]float64{0, 0, 0, x, y, 1, -x * v, -y * v, v}
	}

	sol, ok := solve(m)
	if !ok {
		return Projection{}, errors.New(errors.ErrCodeInvalidTransform,
			"control points are degenerate: %v -> %v", from, to)
	}

	p := Projection{sol[0], sol[1], sol[2], sol[3], sol[4], sol[5], sol[6], sol[7], 1}
	if math.Abs(p.det()) < singularEps {
		return Projection{}, errors.New(errors.ErrCodeInvalidTransform, "projection is singular")
	}
	return p, nil
}

// solve runs Gaussian elimination with partial pivoting on an augmented 8×8
// system. It reports false if the matrix is singular.
func solve(m [8][9]float64) ([8]float64, bool) {
	const n = 8
	var out [8]float64

	scale := 0.0
	for i := range m {
		for j := 0; j < n; j++ {
			scale = math.Max(scale, math.Abs(m[i][j]))
		}
	}
	if scale == 0 {
		return out, false
	}

	for col := 0; col < n; col++ {
		pivot := col
		for r := col + 1; r < n; r++ {
			if math.Abs(m[r][col]) > math.Abs(m[pivot][col]) {
				pivot = r
			}
		}
		if math.Abs(m[pivot][col]) < singularEps*scale {
			return out, false
		}
		m[col], m[pivot] = m[pivot], m[col]

		for r := col + 1; r < n; r++ {
			f := m[r][col] / m[col][col]
			if f == 0 {
				continue
			}
			for c := col; c <= n; c++ {
				m[r][c] -= f * m[col][c]
			}
		}
	}

	for r := n - 1; r >= 0; r-- {
		s := m[r][n]
		for c := r + 1; c < n; c++ {
			s -= m[r][c] * out[c]
		}
		out[r] = s / m[r][r]
	}
	return out, true
}

func (p Projection) det() float64 {
	return p[0]*(p[4]*p[8]-p[5]*p[7]) -
		p[1]*(p[3]*p[8]-p[5]*p[6]) +
		p[2]*(p[3]*p[7]-p[4]*p[6])
}

// Map applies the projection to pt. Points on the projection's horizon have
// no image; ok is false for them.
func (p Projection) Map(pt Point) (Point, bool) {
	w := p[6]*pt.X + p[7]*pt.Y + p[8]
	if w == 0 {
		return Point{}, false
	}
	return Point{
		X: (p[0]*pt.X + p[1]*pt.Y + p[2]) / w,
		Y: (p[3]*pt.X + p[4]*pt.Y + p[5]) / w,
	}, true
}

// Invert returns the inverse projection.
func (p Projection) Invert() (Projection, error) {
	d := p.det()
	if math.Abs(d) < singularEps {
		return Projection{}, errors.New(errors.ErrCodeInvalidTransform, "projection is singular")
	}
	inv := Projection{
		p[4]*p[8] - p[5]*p[7], p[2]*p[7] - p[1]*p[8], p[1]*p[5] - p[2]*p[4],
		p[5]*p[6] - p[3]*p[8], p[0]*p[8] - p[2]*p[6], p[2]*p[3] - p[0]*p[5],
		p[3]*p[7] - p[4]*p[6], p[1]*p[6] - p[0]*p[7], p[0]*p[4] - p[1]*p[3],
	}
	// Any nonzero multiple is the same projection; prefer one ending in 1.
	k := 1 / d
	if inv[8] != 0 {
		k = 1 / inv[8]
	}
	for i := range inv {
		inv[i] *= k
	}
	return inv, nil
}

// Warp maps img through p. The output has img's dimensions. Each output
// pixel center is projected back into img and sampled bilinearly; centers
// that land outside img become transparent.
func Warp(img image.Image, p Projection) (*image.NRGBA, error) {
	if IsEmpty(img) {
		return &image.NRGBA{}, nil
	}
	inv, err := p.Invert()
	if err != nil {
		return nil, err
	}

	src := toNRGBA(img)
	w, h := src.Rect.Dx(), src.Rect.Dy()
	dst := image.NewNRGBA(image.Rect(0, 0, w, h))

	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			sp, ok := inv.Map(Point{X: float64(x) + 0.5, Y: float64(y) + 0.5})
			if !ok || sp.X < 0 || sp.Y < 0 || sp.X >= float64(w) || sp.Y >= float64(h) {
				continue
			}
			i := dst.PixOffset(x, y)
			sampleBilinear(src, sp.X-0.5, sp.Y-0.5, dst.Pix[i:i+4:i+4])
		}
	}
	return dst, nil
}

// sampleBilinear interpolates src at fractional pixel index (fx, fy) and
// writes the non-premultiplied result to out. Neighbors are clamped to the
// image edge. Colors are weighted by alpha so transparent pixels do not
// bleed their (meaningless) color into the result.
func sampleBilinear(src *image.NRGBA, fx, fy float64, out []uint8) {
	w, h := src.Rect.Dx(), src.Rect.Dy()

	x0 := int(math.Floor(fx))
	y0 := int(math.Floor(fy))
	tx := fx - float64(x0)
	ty := fy - float64(y0)

	clampX := func(v int) int { return min(max(v, 0), w-1) }
	clampY := func(v int) int { return min(max(v, 0), h-1) }

	var r, g, b, a float64
	add := func(x, y int, wt float64) {
		if wt == 0 {
			return
		}
		i := src.PixOffset(clampX(x), clampY(y))
		pa := float64(src.Pix[i+3]) * wt
		r += float64(src.Pix[i+0]) * pa
		g += float64(src.Pix[i+1]) * pa
		b += float64(src.Pix[i+2]) * pa
		a += pa
	}
	add(x0, y0, (1-tx)*(1-ty))
	add(x0+1, y0, tx*(1-ty))
	add(x0, y0+1, (1-tx)*ty)
	add(x0+1, y0+1, tx*ty)

	if a == 0 {
		return
	}
	out[0] = clamp8(r / a)
	out[1] = clamp8(g / a)
	out[2] = clamp8(b / a)
	out[3] = clamp8(a)
}

func clamp8(v float64) uint8 {
	return uint8(min(max(math.Round(v), 0), 255))
}

// Keystone narrows the top edge of img by topShrink·width on each side while
// keeping the bottom edge, the "looking up at a sign" effect. topShrink must
// lie in (0, 0.5). An empty raster is returned unchanged.
func Keystone(img image.Image, topShrink float64) (*image.NRGBA, error) {
	if err := errors.ValidateShrinkFactor(topShrink); err != nil {
		return nil, err
	}
	if IsEmpty(img) {
		return &image.NRGBA{}, nil
	}

	b := img.Bounds()
	w, h := float64(b.Dx()), float64(b.Dy())
	p, err := ProjectionFromControlPoints(
		[4]Point{{0, 0}, {w, 0}, {0, h}, {w, h}},
		[4]Point{{topShrink * w, 0}, {(1 - topShrink) * w, 0}, {0, h}, {w, h}},
	)
	if err != nil {
		return nil, err
	}
	return Warp(img, p)
}
