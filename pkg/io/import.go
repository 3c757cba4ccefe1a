package io

import (
	stderrors "errors"
	"image"
	"io"
	"io/fs"
	"os"

	"github.com/disintegration/imaging"

	"github.com/matzehuels/perspectives/pkg/errors"
)

// Decode reads an image from r and converts it to an RGBA8 raster whose
// bounds start at the origin. EXIF orientation is applied for JPEGs. Decode
// does not close r.
func Decode(r io.Reader) (*image.NRGBA, error) {
	img, err := imaging.Decode(r, imaging.AutoOrientation(true))
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeFileRead, err, "decode image")
	}
	return imaging.Clone(img), nil
}

// ReadAndDecode opens the image file at path and converts it to an RGBA8
// raster. A missing file yields FILE_NOT_FOUND; any other open or decode
// failure yields FILE_READ. Both name the path.
func ReadAndDecode(path string) (*image.NRGBA, error) {
	img, err := imaging.Open(path, imaging.AutoOrientation(true))
	if err != nil {
		if stderrors.Is(err, fs.ErrNotExist) {
			return nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "could not read %s", path)
		}
		return nil, errors.Wrap(errors.ErrCodeFileRead, err, "could not read %s", path)
	}
	return imaging.Clone(img), nil
}

// ReadRaw loads a raw RGBA8 buffer written with [FormatRaw]. The width must
// be supplied; the height follows from the file size.
func ReadRaw(path string, width int) (*image.NRGBA, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if stderrors.Is(err, fs.ErrNotExist) {
			return nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "could not read %s", path)
		}
		return nil, errors.Wrap(errors.ErrCodeFileRead, err, "could not read %s", path)
	}
	return FromRaw(data, width)
}

// FromRaw wraps a tightly packed RGBA8 buffer in a raster. The buffer is
// copied.
func FromRaw(data []byte, width int) (*image.NRGBA, error) {
	if width <= 0 {
		return nil, errors.New(errors.ErrCodeInvalidSize, "raw width must be positive, got %d", width)
	}
	stride := width * 4
	if len(data)%stride != 0 {
		return nil, errors.New(errors.ErrCodeInvalidSize,
			"raw buffer of %d bytes is not a whole number of %d-pixel rows", len(data), width)
	}
	img := image.NewNRGBA(image.Rect(0, 0, width, len(data)/stride))
	copy(img.Pix, data)
	return img, nil
}
