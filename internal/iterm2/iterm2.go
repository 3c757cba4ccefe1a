// Package iterm2 shows images inline in terminals that speak the iTerm2
// image protocol (OSC 1337).
package iterm2

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	"io"
	"os"

	"golang.org/x/term"

	pio "github.com/matzehuels/perspectives/pkg/io"
)

// compatiblePrograms are TERM_PROGRAM values known to render inline images.
var compatiblePrograms = map[string]bool{
	"iTerm.app": true,
	"WezTerm":   true,
}

// IsCompatible reports whether f is a terminal that understands the image
// protocol. There is no reliable query, so TERM_PROGRAM decides.
func IsCompatible(f *os.File) bool {
	if !compatiblePrograms[os.Getenv("TERM_PROGRAM")] {
		return false
	}
	return term.IsTerminal(int(f.Fd()))
}

// Image writes m as an inline PNG. A positive widthCells limits the width in
// terminal columns; the aspect ratio is kept.
func Image(w io.Writer, m image.Image, widthCells int) error {
	var png bytes.Buffer
	if err := pio.Encode(&png, m, pio.FormatPNG); err != nil {
		return err
	}

	args := fmt.Sprintf("inline=1;size=%d;preserveAspectRatio=1", png.Len())
	if widthCells > 0 {
		args += fmt.Sprintf(";width=%d", widthCells)
	}
	if _, err := fmt.Fprintf(w, "\x1b]1337;File=%s:", args); err != nil {
		return err
	}
	enc := base64.NewEncoder(base64.StdEncoding, w)
	if _, err := enc.Write(png.Bytes()); err != nil {
		return err
	}
	if err := enc.Close(); err != nil {
		return err
	}
	if _, err := w.Write([]byte("\x07\n")); err != nil {
		return err
	}
	return nil
}

// PreviewWidth returns a column count for previews on f: half the terminal
// width, at most limit. It returns 0 (no limit) when f is not a terminal.
func PreviewWidth(f *os.File, limit int) int {
	cols, _, err := term.GetSize(int(f.Fd()))
	if err != nil || cols <= 0 {
		return 0
	}
	return min(max(cols/2, 1), limit)
}
