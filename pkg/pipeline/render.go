package pipeline

import (
	"context"
	"image"
	"strings"
	"time"

	"github.com/matzehuels/perspectives/pkg/errors"
	"github.com/matzehuels/perspectives/pkg/fonts"
	"github.com/matzehuels/perspectives/pkg/observability"
	"github.com/matzehuels/perspectives/pkg/raster"
)

// CalcPerspectiveImage renders text on a canvasSize×canvasSize canvas with
// the default settings (keystone warp, white background) and returns the
// raw RGBA8 pixels.
//
// Blank text yields a white background-only buffer.
func CalcPerspectiveImage(text string, canvasSize int) (Image, error) {
	if err := errors.ValidateCanvasSize(canvasSize, MaxCanvasSize); err != nil {
		return Image{}, err
	}
	img, err := Compute(context.Background(), Options{Text: text, CanvasSize: canvasSize})
	if err != nil {
		return Image{}, err
	}
	b := img.Bounds()
	return Image{Pix: raster.Bytes(img), Width: b.Dx(), Height: b.Dy()}, nil
}

// Compute runs rasterize → crop → warp → compose and returns the canvas.
//
// The stages themselves do not block; ctx is checked between them so a
// superseded render can be abandoned early.
func Compute(ctx context.Context, opts Options) (*image.NRGBA, error) {
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, err
	}
	hooks := observability.PipelineFrom(ctx)
	logger := opts.Logger
	size := opts.CanvasSize

	start := time.Now()
	hooks.OnRenderStart(ctx, opts.Text, size)

	img, err := compute(ctx, opts, hooks)
	hooks.OnRenderComplete(ctx, size, time.Since(start), err)
	if err != nil {
		return nil, err
	}

	logger.Debug("rendered canvas",
		"size", img.Bounds().Dx(),
		"duration", time.Since(start))
	return img, nil
}

func compute(ctx context.Context, opts Options, hooks observability.PipelineHooks) (*image.NRGBA, error) {
	logger := opts.Logger
	size := opts.CanvasSize

	stage := func(s observability.Stage, fn func() error) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		t := time.Now()
		err := fn()
		hooks.OnStage(ctx, s, time.Since(t), err)
		return err
	}

	if strings.TrimSpace(opts.Text) == "" {
		logger.Debug("blank text, rendering background only")
	}

	var img *image.NRGBA
	err := stage(observability.StageRasterize, func() (err error) {
		xScale := float64(size) / opts.ScaleDivisor
		img, err = raster.RasterizeText(fonts.Default(), opts.Text, xScale, float64(size), size)
		return err
	})
	if err != nil {
		return nil, err
	}

	err = stage(observability.StageCrop, func() error {
		img = raster.CropToContent(img)
		return nil
	})
	if err != nil {
		return nil, err
	}
	if raster.IsEmpty(img) {
		logger.Debug("no visible glyphs")
	} else {
		logger.Debug("cropped to content", "width", img.Bounds().Dx(), "height", img.Bounds().Dy())
	}

	if opts.ShouldWarp() {
		err = stage(observability.StageWarp, func() (err error) {
			img, err = raster.Keystone(img, opts.ShrinkFactor)
			return err
		})
		if err != nil {
			return nil, err
		}
	}

	var canvas *image.NRGBA
	err = stage(observability.StageCompose, func() (err error) {
		canvas, err = raster.ComposeSymmetric(img, size, raster.WithBackground(opts.BackgroundColor()))
		return err
	})
	if err != nil {
		return nil, err
	}
	if side := canvas.Bounds().Dx(); side != size {
		logger.Debug("canvas grown to fit content", "requested", size, "side", side)
	}
	return canvas, nil
}
