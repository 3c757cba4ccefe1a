// Package fonts provides the embedded glyph source used for text rasterization.
//
// The font is compiled into the binary (Go Mono, a fixed-width slab-serif
// face from golang.org/x/image/font/gofont), so rendering never depends on
// fonts installed on the host. It is parsed exactly once, on first use, and
// shared read-only for the lifetime of the process.
package fonts

import (
	"sync"

	"golang.org/x/image/font/gofont/gomono"
	"golang.org/x/image/font/sfnt"

	"github.com/matzehuels/perspectives/pkg/errors"
)

// Name is the family name of the embedded font.
const Name = "Go Mono"

// TTF returns the raw TrueType data of the embedded font.
func TTF() []byte {
	return gomono.TTF
}

// Parse parses TrueType or OpenType data into a font.
func Parse(data []byte) (*sfnt.Font, error) {
	if len(data) == 0 {
		return nil, errors.New(errors.ErrCodeInvalidFont, "font data is empty")
	}
	f, err := sfnt.Parse(data)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidFont, err, "parse font")
	}
	return f, nil
}

// defaultFont parses the embedded blob on first call. Concurrent first
// callers block until the single parse finishes and then share its result.
var defaultFont = sync.OnceValue(func() *sfnt.Font {
	f, err := Parse(gomono.TTF)
	if err != nil {
		// The blob is part of the binary; there is no fallback.
		panic(err)
	}
	return f
})

// Default returns the process-wide embedded font. It is safe for concurrent
// use and always returns the same *sfnt.Font.
//
// An *sfnt.Font is immutable after parsing, but glyph loading needs a scratch
// [sfnt.Buffer]; callers must not share a Buffer across goroutines.
func Default() *sfnt.Font {
	return defaultFont()
}
