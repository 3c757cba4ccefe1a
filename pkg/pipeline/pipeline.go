// Package pipeline turns text into a symmetric perspective image.
//
// This package sequences the raster stages and is shared by the CLI, the
// HTTP server and the live preview, so every entry point renders the same
// bytes for the same options.
//
// # Architecture
//
// A render runs four stages, each in [raster]:
//
//  1. Rasterize: draw the text with x scale size/ScaleDivisor and y scale size
//  2. Crop: cut the raster down to its content bounding box
//  3. Warp: shrink the top edge by ShrinkFactor (skipped with SkipWarp)
//  4. Compose: overlay the result and a 90° clockwise copy on the canvas
//
// [Compute] runs the stages and returns the canvas. [CalcPerspectiveImage]
// is the one-call form that returns the raw RGBA8 buffer. A [Runner] adds
// encoding and an artifact cache on top.
//
// # Usage
//
//	img, err := pipeline.CalcPerspectiveImage("hello", 400)
//	if err != nil {
//	    return err
//	}
//	surface.PutImageData(img.Pix, img.Width) // 4 bytes per pixel
//
// With caching:
//
//	runner := pipeline.NewRunner(cache, nil, logger)
//	result, err := runner.Execute(ctx, pipeline.Options{Text: "hello"})
//	png := result.Artifact
//
// [raster]: github.com/matzehuels/perspectives/pkg/raster
package pipeline

import (
	"image"
	"image/color"
	stdio "io"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/perspectives/pkg/cache"
	"github.com/matzehuels/perspectives/pkg/errors"
	"github.com/matzehuels/perspectives/pkg/fonts"
	"github.com/matzehuels/perspectives/pkg/io"
	"github.com/matzehuels/perspectives/pkg/raster"
)

// =============================================================================
// Default Values - Single Source of Truth for CLI, API, and Live Preview
// =============================================================================

const (
	// DefaultScaleDivisor sets the horizontal scale to CanvasSize divided by
	// this value. Tuned by eye so a handful of glyphs fit across the canvas
	// while the vertical scale fills its height.
	DefaultScaleDivisor = 26.0

	// DefaultShrinkFactor is the fraction of the width removed from each end
	// of the top edge by the keystone warp.
	DefaultShrinkFactor = 0.1

	// DefaultCanvasSize is the default output side length in pixels.
	DefaultCanvasSize = 400

	// MaxCanvasSize bounds the output side length.
	MaxCanvasSize = 4096

	// MaxTextLength is the maximum number of runes rendered.
	MaxTextLength = errors.MaxTextLength

	// DefaultFormat is the default encoding of runner artifacts.
	DefaultFormat = io.FormatPNG
)

// Canvas backgrounds.
const (
	BackgroundWhite       = "white"
	BackgroundTransparent = "transparent"
)

// DefaultBackground is the default canvas fill.
const DefaultBackground = BackgroundWhite

// ValidBackgrounds maps background names to fill colors.
var ValidBackgrounds = map[string]color.NRGBA{
	BackgroundWhite:       raster.White,
	BackgroundTransparent: raster.Transparent,
}

// =============================================================================
// Options - Pipeline Configuration
// =============================================================================

// Options contains all configuration for a render.
// This struct supports JSON serialization for API requests.
type Options struct {
	Text         string    `json:"text"`
	CanvasSize   int       `json:"size,omitempty"`
	SkipWarp     bool      `json:"skip_warp,omitempty"` // Skip the keystone warp (default: false = warp)
	ShrinkFactor float64   `json:"shrink,omitempty"`
	ScaleDivisor float64   `json:"scale_divisor,omitempty"`
	Background   string    `json:"background,omitempty"`
	Format       io.Format `json:"format,omitempty"`
	Refresh      bool      `json:"refresh,omitempty"` // Bypass cache reads

	// Runtime options (not serialized)
	Logger *log.Logger `json:"-"`
}

// Image is a raw render result: RGBA8, 4 bytes per pixel, row-major from
// the top-left corner, len(Pix) == Width*Height*4.
type Image struct {
	Pix    []byte
	Width  int
	Height int
}

// Result contains the outputs of a runner execution.
type Result struct {
	// Image is the rendered canvas. It is nil when the artifact came from
	// the cache.
	Image *image.NRGBA

	// Artifact is the canvas encoded in Format.
	Artifact []byte
	Format   io.Format

	// Width and Height of the canvas in pixels.
	Width, Height int

	// Stats contains timing and size information.
	Stats Stats

	// CacheHit reports whether Artifact was served from the cache.
	CacheHit bool
}

// Stats contains pipeline execution statistics.
type Stats struct {
	RenderTime time.Duration
	EncodeTime time.Duration
	Bytes      int
}

// =============================================================================
// Validation Functions
// =============================================================================

// ValidateBackground checks that a background name is valid.
func ValidateBackground(bg string) error {
	if _, ok := ValidBackgrounds[bg]; !ok {
		return errors.New(errors.ErrCodeInvalidInput,
			"invalid background: %q (must be one of: white, transparent)", bg)
	}
	return nil
}

// ValidateScaleDivisor checks that the horizontal scale divisor is usable.
func ValidateScaleDivisor(d float64) error {
	if !(d > 0) || d > 1e6 {
		return errors.New(errors.ErrCodeInvalidInput, "scale divisor must be positive, got %g", d)
	}
	return nil
}

// =============================================================================
// Options Methods
// =============================================================================

// ValidateAndSetDefaults applies defaults and checks every field.
// This method is idempotent - calling it multiple times has the same effect as calling it once.
// Options are copied freely, so every call validates again.
func (o *Options) ValidateAndSetDefaults() error {
	if o.CanvasSize < 0 {
		return errors.ValidateCanvasSize(o.CanvasSize, MaxCanvasSize)
	}
	o.SetDefaults()
	if f, err := io.ParseFormat(string(o.Format)); err == nil {
		o.Format = f // canonical name, so "jpg" and "JPEG" share a cache key
	}
	return o.Validate()
}

// SetDefaults fills zero fields with their defaults.
func (o *Options) SetDefaults() {
	if o.CanvasSize == 0 {
		o.CanvasSize = DefaultCanvasSize
	}
	if o.ShrinkFactor == 0 {
		o.ShrinkFactor = DefaultShrinkFactor
	}
	if o.ScaleDivisor == 0 {
		o.ScaleDivisor = DefaultScaleDivisor
	}
	if o.Background == "" {
		o.Background = DefaultBackground
	}
	if o.Format == "" {
		o.Format = DefaultFormat
	}
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(stdio.Discard, log.Options{})
	}
}

// Validate checks every field without changing any.
func (o *Options) Validate() error {
	if err := errors.ValidateText(o.Text); err != nil {
		return err
	}
	if err := errors.ValidateCanvasSize(o.CanvasSize, MaxCanvasSize); err != nil {
		return err
	}
	if o.ShouldWarp() {
		if err := errors.ValidateShrinkFactor(o.ShrinkFactor); err != nil {
			return err
		}
	}
	if err := ValidateScaleDivisor(o.ScaleDivisor); err != nil {
		return err
	}
	if err := ValidateBackground(o.Background); err != nil {
		return err
	}
	if _, err := io.ParseFormat(string(o.Format)); err != nil {
		return err
	}
	return nil
}

// ShouldWarp returns whether the keystone warp runs.
func (o *Options) ShouldWarp() bool {
	return !o.SkipWarp
}

// BackgroundColor returns the canvas fill for o.Background.
func (o *Options) BackgroundColor() color.NRGBA {
	if c, ok := ValidBackgrounds[o.Background]; ok {
		return c
	}
	return raster.White
}

// KeyOpts returns cache key options for the artifact.
func (o *Options) KeyOpts() cache.ArtifactKeyOpts {
	k := cache.ArtifactKeyOpts{
		Text:         o.Text,
		CanvasSize:   o.CanvasSize,
		Warp:         o.ShouldWarp(),
		ScaleDivisor: o.ScaleDivisor,
		Background:   o.Background,
		Format:       string(o.Format),
		Font:         fonts.Name,
	}
	if k.Warp {
		k.ShrinkFactor = o.ShrinkFactor
	}
	return k
}
