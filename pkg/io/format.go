package io

import (
	"path/filepath"
	"strings"

	"github.com/disintegration/imaging"

	"github.com/matzehuels/perspectives/pkg/errors"
)

// Format names an output encoding.
type Format string

// Supported formats.
const (
	FormatPNG  Format = "png"
	FormatJPEG Format = "jpeg"
	FormatGIF  Format = "gif"
	FormatBMP  Format = "bmp"
	FormatTIFF Format = "tiff"
	FormatRaw  Format = "raw"
)

// Formats lists every supported format, PNG first.
var Formats = []Format{FormatPNG, FormatJPEG, FormatGIF, FormatBMP, FormatTIFF, FormatRaw}

var codecs = map[Format]imaging.Format{
	FormatPNG:  imaging.PNG,
	FormatJPEG: imaging.JPEG,
	FormatGIF:  imaging.GIF,
	FormatBMP:  imaging.BMP,
	FormatTIFF: imaging.TIFF,
}

var contentTypes = map[Format]string{
	FormatPNG:  "image/png",
	FormatJPEG: "image/jpeg",
	FormatGIF:  "image/gif",
	FormatBMP:  "image/bmp",
	FormatTIFF: "image/tiff",
	FormatRaw:  "application/octet-stream",
}

// ParseFormat resolves a format name. Matching is case-insensitive and
// accepts the aliases "jpg" and "tif".
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case "jpg":
		return FormatJPEG, nil
	case "tif":
		return FormatTIFF, nil
	case FormatPNG, FormatJPEG, FormatGIF, FormatBMP, FormatTIFF, FormatRaw:
		return f, nil
	}
	return "", errors.New(errors.ErrCodeInvalidFormat, "unsupported format %q", s)
}

// FormatFromFilename picks the format from a file's extension.
func FormatFromFilename(path string) (Format, error) {
	ext := strings.TrimPrefix(filepath.Ext(path), ".")
	if ext == "" {
		return "", errors.New(errors.ErrCodeInvalidFormat, "%s has no file extension", path)
	}
	f, err := ParseFormat(ext)
	if err != nil {
		return "", errors.New(errors.ErrCodeInvalidFormat, "unsupported file extension %q in %s", "."+ext, path)
	}
	return f, nil
}

// Extension returns the file extension for f, including the dot.
func (f Format) Extension() string {
	return "." + string(f)
}

// ContentType returns the MIME type for f.
func (f Format) ContentType() string {
	if ct, ok := contentTypes[f]; ok {
		return ct
	}
	return "application/octet-stream"
}

// Lossless reports whether a decode of f returns the encoded pixels exactly,
// alpha included. BMP keeps colors but drops alpha.
func (f Format) Lossless() bool {
	switch f {
	case FormatPNG, FormatTIFF, FormatRaw:
		return true
	}
	return false
}

func (f Format) String() string { return string(f) }
