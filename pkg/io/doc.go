// Package io reads and writes rendered images.
//
// # Overview
//
// The pipeline itself only produces in-memory rasters. This package is the
// thin layer between those rasters and the outside world:
//
//   - [ReadAndDecode] opens any image the codecs understand and converts it
//     to an 8-bit non-premultiplied RGBA raster
//   - [WriteImage] saves a raster, choosing the codec from the file extension
//   - [Encode] and [EncodeBytes] encode into a writer or a byte slice, which
//     is what the artifact cache and the HTTP server use
//
// # Formats
//
// The supported [Format] values are png, jpeg, gif, bmp and tiff, plus raw.
// Raw output is the bare pixel buffer: four bytes per pixel (R, G, B, A),
// row-major from the top-left corner, with no header. Its width has to be
// known out of band.
//
// PNG is lossless, so writing a raster and reading it back yields identical
// pixels:
//
//	if err := io.WriteImage(img, "hello.png"); err != nil {
//	    return err
//	}
//	back, err := io.ReadAndDecode("hello.png")
//
// # Errors
//
// Failures are returned as coded errors from [errors] that name the path
// involved: FILE_NOT_FOUND and FILE_READ when reading, FILE_WRITE when
// writing, and INVALID_FORMAT for unknown extensions or format names. None
// of them are fatal; callers decide how to report them.
//
// [errors]: github.com/matzehuels/perspectives/pkg/errors
package io
