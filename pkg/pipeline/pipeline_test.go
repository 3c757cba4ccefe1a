package pipeline

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/matzehuels/perspectives/pkg/errors"
	"github.com/matzehuels/perspectives/pkg/io"
)

func TestValidateBackground(t *testing.T) {
	tests := []struct {
		bg      string
		wantErr bool
	}{
		{"white", false},
		{"transparent", false},
		{"White", true}, // case-sensitive
		{"black", true},
		{"", true},
	}

	for _, tt := range tests {
		err := ValidateBackground(tt.bg)
		if (err != nil) != tt.wantErr {
			t.Errorf("ValidateBackground(%q) error = %v, wantErr %v", tt.bg, err, tt.wantErr)
		}
	}
}

func TestSetDefaults(t *testing.T) {
	var opts Options
	opts.SetDefaults()

	if opts.CanvasSize != DefaultCanvasSize {
		t.Errorf("CanvasSize = %d, want %d", opts.CanvasSize, DefaultCanvasSize)
	}
	if opts.ShrinkFactor != DefaultShrinkFactor {
		t.Errorf("ShrinkFactor = %g, want %g", opts.ShrinkFactor, DefaultShrinkFactor)
	}
	if opts.ScaleDivisor != DefaultScaleDivisor {
		t.Errorf("ScaleDivisor = %g, want %g", opts.ScaleDivisor, DefaultScaleDivisor)
	}
	if opts.Background != BackgroundWhite {
		t.Errorf("Background = %q, want %q", opts.Background, BackgroundWhite)
	}
	if opts.Format != io.FormatPNG {
		t.Errorf("Format = %q, want %q", opts.Format, io.FormatPNG)
	}
	if !opts.ShouldWarp() {
		t.Error("ShouldWarp() = false, want true by default")
	}
	if opts.Logger == nil {
		t.Error("Logger should be set")
	}
}

func TestValidateAndSetDefaults(t *testing.T) {
	tests := []struct {
		name     string
		opts     Options
		wantCode errors.Code
	}{
		{"Defaults", Options{Text: "A"}, ""},
		{"BlankText", Options{Text: "  "}, ""},
		{"NoWarpIgnoresShrink", Options{Text: "A", SkipWarp: true, ShrinkFactor: 0.9}, ""},
		{"NegativeSize", Options{Text: "A", CanvasSize: -1}, errors.ErrCodeInvalidSize},
		{"HugeSize", Options{Text: "A", CanvasSize: MaxCanvasSize + 1}, errors.ErrCodeInvalidSize},
		{"BadShrink", Options{Text: "A", ShrinkFactor: 0.5}, errors.ErrCodeInvalidInput},
		{"BadDivisor", Options{Text: "A", ScaleDivisor: -2}, errors.ErrCodeInvalidInput},
		{"BadBackground", Options{Text: "A", Background: "pink"}, errors.ErrCodeInvalidInput},
		{"BadFormat", Options{Text: "A", Format: "webp"}, errors.ErrCodeInvalidFormat},
		{"ControlChar", Options{Text: "A\x1bB"}, errors.ErrCodeInvalidInput},
		{"TooLong", Options{Text: strings.Repeat("x", MaxTextLength+1)}, errors.ErrCodeInvalidInput},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := tt.opts
			err := opts.ValidateAndSetDefaults()
			if got := errors.GetCode(err); got != tt.wantCode {
				t.Errorf("GetCode() = %q, want %q (err %v)", got, tt.wantCode, err)
			}
		})
	}
}

func TestValidateAndSetDefaultsIdempotent(t *testing.T) {
	opts := Options{Text: "A"}
	if err := opts.ValidateAndSetDefaults(); err != nil {
		t.Fatal(err)
	}
	first := opts
	if err := opts.ValidateAndSetDefaults(); err != nil {
		t.Fatal(err)
	}
	if first.CanvasSize != opts.CanvasSize || first.Background != opts.Background {
		t.Error("second call changed options")
	}
}

func TestKeyOpts(t *testing.T) {
	a := Options{Text: "A", SkipWarp: true, ShrinkFactor: 0.1}
	b := Options{Text: "A", SkipWarp: true, ShrinkFactor: 0.2}
	a.SetDefaults()
	b.SetDefaults()
	if a.KeyOpts() != b.KeyOpts() {
		t.Error("shrink factor should not affect the key when warp is off")
	}

	c := Options{Text: "A", ShrinkFactor: 0.1}
	d := Options{Text: "A", ShrinkFactor: 0.2}
	c.SetDefaults()
	d.SetDefaults()
	if c.KeyOpts() == d.KeyOpts() {
		t.Error("shrink factor should affect the key when warp is on")
	}
}

func TestCalcPerspectiveImage(t *testing.T) {
	img, err := CalcPerspectiveImage("A", 400)
	if err != nil {
		t.Fatalf("CalcPerspectiveImage() error: %v", err)
	}
	if img.Width != 400 || img.Height != 400 {
		t.Errorf("size = %dx%d, want 400x400", img.Width, img.Height)
	}
	if len(img.Pix) != 640000 {
		t.Fatalf("len(Pix) = %d, want 640000", len(img.Pix))
	}

	nonZero, ink := false, false
	for i := 0; i < len(img.Pix); i += 4 {
		p := img.Pix[i : i+4]
		if p[0]|p[1]|p[2]|p[3] != 0 {
			nonZero = true
		}
		if p[0] < 128 && p[3] == 255 {
			ink = true
		}
	}
	if !nonZero {
		t.Error("all pixels are (0,0,0,0)")
	}
	if !ink {
		t.Error("no dark ink pixel on the canvas")
	}
}

func TestCalcPerspectiveImageBlank(t *testing.T) {
	for _, text := range []string{"", " ", "\u00a0\u00a0", "\t", "\n", " \r\n "} {
		img, err := CalcPerspectiveImage(text, 64)
		if err != nil {
			t.Fatalf("CalcPerspectiveImage(%q) error: %v", text, err)
		}
		if len(img.Pix) != 64*64*4 {
			t.Fatalf("len(Pix) = %d, want %d", len(img.Pix), 64*64*4)
		}
		if !bytes.Equal(img.Pix, bytes.Repeat([]byte{255}, 64*64*4)) {
			t.Errorf("CalcPerspectiveImage(%q) is not background-only white", text)
		}
	}
}

func TestCalcPerspectiveImageInvalidSize(t *testing.T) {
	for _, size := range []int{0, -1, MaxCanvasSize + 1} {
		_, err := CalcPerspectiveImage("A", size)
		if !errors.Is(err, errors.ErrCodeInvalidSize) {
			t.Errorf("CalcPerspectiveImage(size=%d) error = %v, want %s", size, err, errors.ErrCodeInvalidSize)
		}
	}
}

func TestComputeWarpChangesOutput(t *testing.T) {
	ctx := context.Background()
	warped, err := Compute(ctx, Options{Text: "Hi", CanvasSize: 120})
	if err != nil {
		t.Fatal(err)
	}
	flat, err := Compute(ctx, Options{Text: "Hi", CanvasSize: 120, SkipWarp: true})
	if err != nil {
		t.Fatal(err)
	}
	if bytes.Equal(warped.Pix, flat.Pix) {
		t.Error("warp had no effect")
	}
}

func TestComputeTransparentBackground(t *testing.T) {
	img, err := Compute(context.Background(), Options{Text: "x", CanvasSize: 50, Background: BackgroundTransparent})
	if err != nil {
		t.Fatal(err)
	}
	if c := img.NRGBAAt(0, 0); c.A != 0 {
		t.Errorf("corner = %v, want transparent", c)
	}
}

func TestComputeCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := Compute(ctx, Options{Text: "A"}); err != context.Canceled {
		t.Errorf("Compute() error = %v, want context.Canceled", err)
	}
}

func TestComputeDeterministic(t *testing.T) {
	ctx := context.Background()
	a, err := Compute(ctx, Options{Text: "ab", CanvasSize: 80})
	if err != nil {
		t.Fatal(err)
	}
	b, err := Compute(ctx, Options{Text: "ab", CanvasSize: 80})
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(a.Pix, b.Pix) {
		t.Error("two renders of the same options differ")
	}
}
