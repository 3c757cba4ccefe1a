package io

import (
	"bytes"
	"image"
	"image/color"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/matzehuels/perspectives/pkg/errors"
)

func testImage() *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, 7, 5))
	for y := 0; y < 5; y++ {
		for x := 0; x < 7; x++ {
			img.SetNRGBA(x, y, color.NRGBA{R: uint8(x * 30), G: uint8(y * 50), B: 90, A: uint8(40 + x*y*6)})
		}
	}
	return img
}

func TestPNGRoundTrip(t *testing.T) {
	img := testImage()
	path := filepath.Join(t.TempDir(), "out.png")

	if err := WriteImage(img, path); err != nil {
		t.Fatalf("WriteImage() error: %v", err)
	}
	got, err := ReadAndDecode(path)
	if err != nil {
		t.Fatalf("ReadAndDecode() error: %v", err)
	}
	if got.Bounds() != img.Bounds() {
		t.Fatalf("bounds = %v, want %v", got.Bounds(), img.Bounds())
	}
	if !bytes.Equal(got.Pix, img.Pix) {
		t.Error("pixels changed after PNG round trip")
	}
}

func TestRawRoundTrip(t *testing.T) {
	img := testImage()
	path := filepath.Join(t.TempDir(), "out.raw")

	if err := WriteImage(img, path); err != nil {
		t.Fatalf("WriteImage() error: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if want := 7 * 5 * 4; len(data) != want {
		t.Fatalf("raw size = %d, want %d", len(data), want)
	}

	got, err := ReadRaw(path, 7)
	if err != nil {
		t.Fatalf("ReadRaw() error: %v", err)
	}
	if !bytes.Equal(got.Pix, img.Pix) {
		t.Error("pixels changed after raw round trip")
	}
}

func TestEncodeBytesDecode(t *testing.T) {
	for _, f := range Formats {
		if f == FormatRaw {
			continue
		}
		t.Run(string(f), func(t *testing.T) {
			data, err := EncodeBytes(testImage(), f)
			if err != nil {
				t.Fatalf("EncodeBytes() error: %v", err)
			}
			got, err := Decode(bytes.NewReader(data))
			if err != nil {
				t.Fatalf("Decode() error: %v", err)
			}
			if got.Bounds().Size() != image.Pt(7, 5) {
				t.Errorf("size = %v, want (7,5)", got.Bounds().Size())
			}
		})
	}
}

func TestLosslessRoundTrip(t *testing.T) {
	img := image.NewNRGBA(image.Rect(0, 0, 3, 2))
	img.SetNRGBA(0, 0, color.NRGBA{A: 77})
	img.SetNRGBA(1, 0, color.NRGBA{R: 200, G: 10, B: 30, A: 255})
	img.SetNRGBA(2, 1, color.NRGBA{R: 12, G: 34, B: 56, A: 128})

	for _, f := range Formats {
		if !f.Lossless() {
			continue
		}
		t.Run(string(f), func(t *testing.T) {
			data, err := EncodeBytes(img, f)
			if err != nil {
				t.Fatalf("EncodeBytes() error: %v", err)
			}
			var got *image.NRGBA
			if f == FormatRaw {
				got, err = FromRaw(data, 3)
			} else {
				got, err = Decode(bytes.NewReader(data))
			}
			if err != nil {
				t.Fatalf("decode error: %v", err)
			}
			if !bytes.Equal(got.Pix, img.Pix) {
				t.Errorf("Pix = %v, want %v", got.Pix, img.Pix)
			}
		})
	}
}

func TestLossless(t *testing.T) {
	tests := []struct {
		f    Format
		want bool
	}{
		{FormatPNG, true},
		{FormatTIFF, true},
		{FormatRaw, true},
		{FormatBMP, false},
		{FormatJPEG, false},
		{FormatGIF, false},
	}
	for _, tt := range tests {
		if got := tt.f.Lossless(); got != tt.want {
			t.Errorf("%s.Lossless() = %v, want %v", tt.f, got, tt.want)
		}
	}
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in      string
		want    Format
		wantErr bool
	}{
		{"png", FormatPNG, false},
		{"PNG", FormatPNG, false},
		{" jpg ", FormatJPEG, false},
		{"jpeg", FormatJPEG, false},
		{"tif", FormatTIFF, false},
		{"raw", FormatRaw, false},
		{"webp", "", true},
		{"", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseFormat(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseFormat() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, errors.ErrCodeInvalidFormat) {
				t.Errorf("GetCode() = %v, want %v", errors.GetCode(err), errors.ErrCodeInvalidFormat)
			}
			if got != tt.want {
				t.Errorf("ParseFormat() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestFormatFromFilename(t *testing.T) {
	if f, err := FormatFromFilename("dir/Hello.JPG"); err != nil || f != FormatJPEG {
		t.Errorf("FormatFromFilename() = %q, %v, want jpeg", f, err)
	}
	if _, err := FormatFromFilename("noext"); !errors.Is(err, errors.ErrCodeInvalidFormat) {
		t.Errorf("error = %v, want %s", err, errors.ErrCodeInvalidFormat)
	}
	if FormatPNG.ContentType() != "image/png" {
		t.Errorf("ContentType() = %q", FormatPNG.ContentType())
	}
}

func TestReadAndDecodeErrors(t *testing.T) {
	dir := t.TempDir()
	garbage := filepath.Join(dir, "garbage.png")
	if err := os.WriteFile(garbage, []byte("not an image"), 0o644); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name     string
		path     string
		wantCode errors.Code
	}{
		{"Missing", filepath.Join(dir, "missing.png"), errors.ErrCodeFileNotFound},
		{"Garbage", garbage, errors.ErrCodeFileRead},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ReadAndDecode(tt.path)
			if got := errors.GetCode(err); got != tt.wantCode {
				t.Fatalf("GetCode() = %v, want %v", got, tt.wantCode)
			}
			if !errors.IsIOError(err) {
				t.Error("IsIOError() = false, want true")
			}
			if !strings.Contains(err.Error(), tt.path) {
				t.Errorf("error %q does not name %s", err, tt.path)
			}
		})
	}
}

func TestWriteImageErrors(t *testing.T) {
	dir := t.TempDir()
	tests := []struct {
		name     string
		img      image.Image
		path     string
		wantCode errors.Code
	}{
		{"MissingDir", testImage(), filepath.Join(dir, "nope", "out.png"), errors.ErrCodeFileWrite},
		{"UnknownExt", testImage(), filepath.Join(dir, "out.webp"), errors.ErrCodeInvalidFormat},
		{"NoExt", testImage(), filepath.Join(dir, "out"), errors.ErrCodeInvalidFormat},
		{"EmptyPath", testImage(), "", errors.ErrCodeInvalidInput},
		{"EmptyImage", &image.NRGBA{}, filepath.Join(dir, "empty.png"), errors.ErrCodeInvalidSize},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := WriteImage(tt.img, tt.path)
			if got := errors.GetCode(err); got != tt.wantCode {
				t.Errorf("GetCode() = %v, want %v (err %v)", got, tt.wantCode, err)
			}
		})
	}
}

func TestFromRawInvalid(t *testing.T) {
	if _, err := FromRaw(make([]byte, 10), 2); !errors.Is(err, errors.ErrCodeInvalidSize) {
		t.Errorf("error = %v, want %s", err, errors.ErrCodeInvalidSize)
	}
	if _, err := FromRaw(nil, 0); !errors.Is(err, errors.ErrCodeInvalidSize) {
		t.Errorf("error = %v, want %s", err, errors.ErrCodeInvalidSize)
	}
}
