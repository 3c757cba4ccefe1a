package errors

import (
	"path/filepath"
	"strings"
	"unicode"
	"unicode/utf8"
)

// MaxTextLength is the maximum number of runes accepted for rendering.
const MaxTextLength = 256

// ValidateText validates user supplied text before it reaches the rasterizer.
//
// The rules are intentionally conservative:
//   - Must be valid UTF-8
//   - No control characters other than whitespace (the rasterizer lays out
//     a single line and draws tabs and line breaks as spaces)
//   - Maximum length of MaxTextLength runes
//
// Empty and whitespace-only text is valid; it renders as a background-only canvas.
func ValidateText(text string) error {
	if !utf8.ValidString(text) {
		return New(ErrCodeInvalidInput, "text is not valid UTF-8")
	}

	if n := utf8.RuneCountInString(text); n > MaxTextLength {
		return New(ErrCodeInvalidInput, "text too long (%d runes, max %d)", n, MaxTextLength)
	}

	for _, r := range text {
		if unicode.IsControl(r) && !unicode.IsSpace(r) {
			return New(ErrCodeInvalidInput, "text contains control character %U", r)
		}
	}

	return nil
}

// ValidateCanvasSize checks that a canvas side length is positive and below max.
func ValidateCanvasSize(size, limit int) error {
	if size <= 0 {
		return New(ErrCodeInvalidSize, "canvas size must be positive, got %d", size)
	}
	if limit > 0 && size > limit {
		return New(ErrCodeInvalidSize, "canvas size %d exceeds maximum %d", size, limit)
	}
	return nil
}

// ValidateShrinkFactor checks the keystone factor is in the open interval (0, 0.5).
// At 0.5 the top edge collapses to a point and the projection becomes singular.
func ValidateShrinkFactor(f float64) error {
	if !(f > 0 && f < 0.5) {
		return New(ErrCodeInvalidInput, "shrink factor must be in (0, 0.5), got %g", f)
	}
	return nil
}

// ValidateOutputPath validates a file path for writing rendered images.
// It requires a file name with an extension so the codec can be chosen.
func ValidateOutputPath(path string) error {
	if path == "" {
		return New(ErrCodeInvalidInput, "output path cannot be empty")
	}

	if strings.ContainsRune(path, '\x00') {
		return New(ErrCodeInvalidInput, "output path contains a null byte")
	}

	base := filepath.Base(path)
	if base == "." || base == string(filepath.Separator) {
		return New(ErrCodeInvalidInput, "output path %q has no file name", path)
	}

	if filepath.Ext(base) == "" {
		return New(ErrCodeInvalidFormat, "output path %q has no file extension", path)
	}

	return nil
}
