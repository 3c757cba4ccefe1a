package io

import (
	"bytes"
	"image"
	"io"
	"os"

	"github.com/disintegration/imaging"

	"github.com/matzehuels/perspectives/pkg/errors"
	"github.com/matzehuels/perspectives/pkg/raster"
)

// Encode writes img to w in the given format. JPEG output drops the alpha
// channel; raw output is the bare RGBA8 buffer.
func Encode(w io.Writer, img image.Image, format Format) error {
	if format == FormatRaw {
		if _, err := w.Write(rawBytes(img)); err != nil {
			return errors.Wrap(errors.ErrCodeFileWrite, err, "write raw pixels")
		}
		return nil
	}

	codec, ok := codecs[format]
	if !ok {
		return errors.New(errors.ErrCodeInvalidFormat, "unsupported format %q", format)
	}
	if err := imaging.Encode(w, img, codec); err != nil {
		return errors.Wrap(errors.ErrCodeFileWrite, err, "encode %s", format)
	}
	return nil
}

// EncodeBytes encodes img in memory.
func EncodeBytes(img image.Image, format Format) ([]byte, error) {
	var buf bytes.Buffer
	if err := Encode(&buf, img, format); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// WriteImage saves img to filename, choosing the codec from its extension
// (".raw" writes the bare pixel buffer). Any failure names the file.
func WriteImage(img image.Image, filename string) error {
	if err := errors.ValidateOutputPath(filename); err != nil {
		return err
	}
	format, err := FormatFromFilename(filename)
	if err != nil {
		return err
	}
	if raster.IsEmpty(img) && format != FormatRaw {
		return errors.New(errors.ErrCodeInvalidSize, "could not save to %s: image is empty", filename)
	}

	if format == FormatRaw {
		if err := os.WriteFile(filename, rawBytes(img), 0o644); err != nil {
			return errors.Wrap(errors.ErrCodeFileWrite, err, "could not save to %s", filename)
		}
		return nil
	}

	if err := imaging.Save(img, filename); err != nil {
		return errors.Wrap(errors.ErrCodeFileWrite, err, "could not save to %s", filename)
	}
	return nil
}

// WriteBytes stores an already encoded artifact.
func WriteBytes(data []byte, filename string) error {
	if err := errors.ValidateOutputPath(filename); err != nil {
		return err
	}
	if err := os.WriteFile(filename, data, 0o644); err != nil {
		return errors.Wrap(errors.ErrCodeFileWrite, err, "could not save to %s", filename)
	}
	return nil
}

func rawBytes(img image.Image) []byte {
	if raster.IsEmpty(img) {
		return []byte{}
	}
	return raster.Bytes(imaging.Clone(img))
}
