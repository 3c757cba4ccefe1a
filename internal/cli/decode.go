package cli

import (
	"fmt"
	"image"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/perspectives/pkg/io"
	"github.com/matzehuels/perspectives/pkg/raster"
)

// decodeOpts holds the command-line flags for the decode command.
type decodeOpts struct {
	rawWidth int    // row width for raw RGBA8 input
	output   string // optional re-encoded output
	crop     bool   // crop the output to the content bounding box
}

// decodeCommand creates the decode command for inspecting image files.
func (c *CLI) decodeCommand() *cobra.Command {
	var opts decodeOpts

	cmd := &cobra.Command{
		Use:   "decode <file>",
		Short: "Show an image's size and content bounding box",
		Long: `Decode an image file and report its size and the bounding box of its
non-transparent pixels. With --output the image is re-encoded, optionally
cropped to that box.

Raw RGBA8 files (.raw) need --raw-width.`,
		Example: `  perspectives decode hello.png
  perspectives decode hello.png --crop -o hello-cropped.png
  perspectives decode frame.raw --raw-width 400`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDecode(args[0], opts)
		},
	}

	cmd.Flags().IntVar(&opts.rawWidth, "raw-width", 0, "width in pixels of raw RGBA8 input")
	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "re-encode to this file (format from extension)")
	cmd.Flags().BoolVar(&opts.crop, "crop", false, "crop the output to the content bounding box")

	return cmd
}

func runDecode(path string, opts decodeOpts) error {
	img, err := readImage(path, opts.rawWidth)
	if err != nil {
		return err
	}

	b := img.Bounds()
	box := raster.FindBoundingBox(img)
	printKeyValue("File", path)
	printKeyValue("Size", fmt.Sprintf("%d×%d px", b.Dx(), b.Dy()))
	if box.Empty() {
		printKeyValue("Content", "none (fully transparent)")
	} else {
		printKeyValue("Content", fmt.Sprintf("%s (%d×%d px)", box, box.Width(), box.Height()))
	}

	if opts.output == "" {
		return nil
	}
	format, err := io.FormatFromFilename(opts.output)
	if err != nil {
		return err
	}
	if msg := lossyWarning(format); msg != "" {
		printWarning("%s", msg)
	}

	var out image.Image = img
	if opts.crop {
		out = raster.CropToContent(img)
	}
	if err := io.WriteImage(out, opts.output); err != nil {
		return err
	}
	printSuccess("wrote %s", opts.output)
	return nil
}

// readImage decodes path, treating .raw files as bare RGBA8.
func readImage(path string, rawWidth int) (*image.NRGBA, error) {
	if rawWidth > 0 || strings.EqualFold(filepath.Ext(path), "."+string(io.FormatRaw)) {
		return io.ReadRaw(path, rawWidth)
	}
	return io.ReadAndDecode(path)
}

// lossyWarning describes what re-encoding to format loses, or returns "" when
// every pixel survives.
func lossyWarning(format io.Format) string {
	switch {
	case format.Lossless():
		return ""
	case format == io.FormatBMP:
		return "bmp output drops the alpha channel"
	default:
		return fmt.Sprintf("%s output is lossy, pixels will differ from the input", format)
	}
}
