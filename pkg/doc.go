// Package pkg provides the core libraries for perspectives.
//
// # Overview
//
// Perspectives turns a line of text into a square, symmetric image: the text
// is drawn, cropped to its ink, tilted with a keystone warp and overlaid with
// a copy of itself rotated by 90 degrees clockwise. The pkg directory is
// organized into three areas:
//
//  1. Imaging: [fonts], [raster] and [io] (glyphs, pixel stages, codecs)
//  2. Orchestration: [pipeline] (options, defaults, the cached runner)
//  3. Infrastructure: [cache], [config], [server], [observability], [errors]
//
// # Architecture
//
// The data flow of a render:
//
//	text
//	  ↓
//	[raster.RasterizeText]      (square transparent raster, black ink)
//	  ↓
//	[raster.CropToContent]      (tight bounding box)
//	  ↓
//	[raster.Keystone]           (optional, top edge shrunk)
//	  ↓
//	[raster.ComposeSymmetric]   (image + rotated copy on the canvas)
//	  ↓
//	RGBA8 buffer or PNG/JPEG/GIF/BMP/TIFF
//
// # Quick Start
//
//	img, err := pipeline.CalcPerspectiveImage("hello", 400)
//	if err != nil {
//	    return err
//	}
//	// img.Pix holds img.Width*img.Height*4 bytes of RGBA8
//
// With encoding and caching:
//
//	c, _ := cache.NewFileCache(dir)
//	runner := pipeline.NewRunner(c, nil, logger)
//	res, err := runner.Execute(ctx, pipeline.Options{Text: "hello", Format: io.FormatPNG})
//
// [fonts]: https://pkg.go.dev/github.com/matzehuels/perspectives/pkg/fonts
// [raster]: https://pkg.go.dev/github.com/matzehuels/perspectives/pkg/raster
// [io]: https://pkg.go.dev/github.com/matzehuels/perspectives/pkg/io
// [pipeline]: https://pkg.go.dev/github.com/matzehuels/perspectives/pkg/pipeline
// [cache]: https://pkg.go.dev/github.com/matzehuels/perspectives/pkg/cache
// [config]: https://pkg.go.dev/github.com/matzehuels/perspectives/pkg/config
// [server]: https://pkg.go.dev/github.com/matzehuels/perspectives/pkg/server
// [observability]: https://pkg.go.dev/github.com/matzehuels/perspectives/pkg/observability
// [errors]: https://pkg.go.dev/github.com/matzehuels/perspectives/pkg/errors
package pkg
