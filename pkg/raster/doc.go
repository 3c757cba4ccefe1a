// Package raster implements the pixel stages of the perspectives pipeline.
//
// # Overview
//
// A short text is turned into a symmetric square image in four steps:
//
//  1. [RasterizeText] draws the glyphs in opaque black on a transparent
//     square, with independent horizontal and vertical scale factors.
//  2. [CropToContent] cuts the raster down to the tight [BoundingBox] of all
//     non-transparent pixels.
//  3. [Keystone] optionally applies a projective warp that shrinks the top
//     edge, giving the "looking up at a sign" illusion.
//  4. [ComposeSymmetric] overlays the result and a copy rotated 90° clockwise
//     on a square canvas, the copy placed at the transposed offset.
//
// # Rasters
//
// Every stage works on *image.NRGBA (8 bits per channel, non-premultiplied,
// bounds starting at the origin) and returns a freshly allocated buffer.
// Inputs are never written to, so each stage can be tested in isolation and
// the rotated copy never aliases the original.
//
// The transparent sentinel is NRGBA{0, 0, 0, 0}. A pixel is content if any
// of its four channels differs from the sentinel, so anti-aliased edge pixels
// with small alpha still count.
//
// # Empty Input
//
// Text without visible glyphs (empty or whitespace only) rasterizes to a
// fully transparent square. Its bounding box is [BoundingBox.Empty], and
// [CropToContent] returns a zero-sized raster instead of computing a negative
// size. The warp passes such rasters through, and the compositor returns a
// background-only canvas.
package raster
