package cli

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"os"
	"path/filepath"
	"strings"
	"unicode"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/perspectives/internal/iterm2"
	"github.com/matzehuels/perspectives/pkg/errors"
	"github.com/matzehuels/perspectives/pkg/io"
	"github.com/matzehuels/perspectives/pkg/observability"
	"github.com/matzehuels/perspectives/pkg/pipeline"
)

const (
	defaultBaseName = "perspective" // output name for text without letters or digits
	maxSlugLength   = 40            // longest text-derived file name
	previewColumns  = 60            // widest inline preview, in terminal columns
)

// renderOpts holds the command-line flags for the render command.
// Flags left unset fall back to the [render] section of the config.
type renderOpts struct {
	output     string  // output file path (default: <slug>.<format>)
	format     string  // output format: png, jpeg, gif, bmp, tiff, raw
	size       int     // canvas side length in pixels
	noWarp     bool    // skip the keystone warp
	shrink     float64 // keystone top shrink factor
	background string  // white or transparent
	preview    bool    // show the result inline (iTerm2-compatible terminals)
	noCache    bool    // disable the artifact cache
	refresh    bool    // re-render even when cached
}

// renderCommand creates the render command.
func (c *CLI) renderCommand() *cobra.Command {
	var opts renderOpts

	cmd := &cobra.Command{
		Use:   "render <text>",
		Short: "Render text to a perspective image",
		Long: `Render text to a square perspective image.

The text is drawn, cropped to its ink, tilted with a keystone warp and
overlaid with a copy of itself rotated by 90 degrees clockwise.`,
		Example: `  perspectives render hello
  perspectives render "hello world" --size 800 -o hello.png
  perspectives render hi --no-warp --background transparent --preview`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			popts, err := c.renderOptions(cmd, args[0], &opts)
			if err != nil {
				return err
			}
			return c.runRender(cmd.Context(), popts, &opts)
		},
	}

	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "output file (default: <text>.<format>)")
	cmd.Flags().StringVarP(&opts.format, "format", "f", "", "output format: png (default), jpeg, gif, bmp, tiff, raw")
	cmd.Flags().IntVarP(&opts.size, "size", "s", pipeline.DefaultCanvasSize, "canvas size in pixels")
	cmd.Flags().BoolVar(&opts.noWarp, "no-warp", false, "skip the keystone warp")
	cmd.Flags().Float64Var(&opts.shrink, "shrink", pipeline.DefaultShrinkFactor, "keystone top shrink factor, in (0, 0.5)")
	cmd.Flags().StringVar(&opts.background, "background", pipeline.DefaultBackground, "background: white, transparent")
	cmd.Flags().BoolVar(&opts.preview, "preview", false, "show the image inline (iTerm2-compatible terminals)")
	cmd.Flags().BoolVar(&opts.noCache, "no-cache", false, "disable the artifact cache")
	cmd.Flags().BoolVar(&opts.refresh, "refresh", false, "re-render even when cached")
	registerRenderCompletions(cmd)

	return cmd
}

// renderOptions merges explicitly set flags over the config defaults and
// resolves the output path and format.
func (c *CLI) renderOptions(cmd *cobra.Command, text string, opts *renderOpts) (pipeline.Options, error) {
	popts := c.Config.RenderOptions(text)
	flags := cmd.Flags()

	// Zero means "use the default" inside Options, so explicit zeros are
	// rejected here.
	if flags.Changed("size") {
		if err := errors.ValidateCanvasSize(opts.size, pipeline.MaxCanvasSize); err != nil {
			return popts, err
		}
		popts.CanvasSize = opts.size
	}
	if flags.Changed("no-warp") {
		popts.SkipWarp = opts.noWarp
	}
	if flags.Changed("shrink") {
		if err := errors.ValidateShrinkFactor(opts.shrink); err != nil {
			return popts, err
		}
		popts.ShrinkFactor = opts.shrink
	}
	if flags.Changed("background") {
		popts.Background = opts.background
	}
	popts.Refresh = opts.refresh

	format, err := resolveFormat(opts.format, opts.output, popts.Format)
	if err != nil {
		return popts, err
	}
	popts.Format = format
	if opts.output == "" {
		opts.output = slugify(text) + format.Extension()
	}

	if err := popts.ValidateAndSetDefaults(); err != nil {
		return popts, err
	}
	return popts, nil
}

// resolveFormat picks the output format: the --format flag, then the output
// file's extension, then the configured default. A flag that contradicts a
// known extension is an error; unknown extensions defer to the flag.
func resolveFormat(flag, output string, fallback io.Format) (io.Format, error) {
	if flag != "" {
		f, err := io.ParseFormat(flag)
		if err != nil {
			return "", err
		}
		if output == "" {
			return f, nil
		}
		if ext, err := io.FormatFromFilename(output); err == nil && ext != f {
			return "", errors.New(errors.ErrCodeInvalidFormat,
				"--format %s does not match the %s extension of %s", f, filepath.Ext(output), output)
		}
		return f, nil
	}
	if output != "" {
		return io.FormatFromFilename(output)
	}
	if fallback == "" {
		return pipeline.DefaultFormat, nil
	}
	return io.ParseFormat(string(fallback))
}

func (c *CLI) runRender(ctx context.Context, popts pipeline.Options, opts *renderOpts) error {
	logger := loggerFromContext(ctx)
	if strings.TrimSpace(popts.Text) == "" {
		printWarning("Text is blank, rendering the background only")
	}

	runner, err := c.newRunner(ctx, opts.noCache)
	if err != nil {
		return err
	}
	defer runner.Close()

	prog := newProgress(logger, log.DebugLevel)
	spin := newSpinner(ctx, os.Stderr, "Rendering...", observability.PipelineFrom(ctx))
	spin.Start()
	res, err := runner.Execute(observability.WithPipelineHooks(ctx, spin), popts)
	spin.Stop()
	if err != nil {
		return err
	}
	prog.done("render finished",
		"cached", res.CacheHit,
		"render", res.Stats.RenderTime,
		"encode", res.Stats.EncodeTime,
		"bytes", len(res.Artifact))

	if err := io.WriteBytes(res.Artifact, opts.output); err != nil {
		return err
	}
	printSuccess("wrote %s", opts.output)
	printStats(res.Width, res.Height, len(res.Artifact), res.CacheHit)

	if opts.preview {
		return showPreview(res)
	}
	return nil
}

// showPreview prints the rendered image inline when the terminal supports it.
func showPreview(res *pipeline.Result) error {
	if !iterm2.IsCompatible(os.Stdout) {
		printWarning("Terminal does not support inline images, skipping preview")
		return nil
	}
	img, err := resultImage(res)
	if err != nil {
		return err
	}
	return iterm2.Image(os.Stdout, img, iterm2.PreviewWidth(os.Stdout, previewColumns))
}

// resultImage returns the canvas of res, decoding the artifact after a cache hit.
func resultImage(res *pipeline.Result) (image.Image, error) {
	if res.Image != nil {
		return res.Image, nil
	}
	if res.Format == io.FormatRaw {
		return io.FromRaw(res.Artifact, res.Width)
	}
	return io.Decode(bytes.NewReader(res.Artifact))
}

// slugify turns text into a file name: lower-case letters and digits joined
// by single dashes.
func slugify(text string) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(text) {
		switch {
		case r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r)):
			if dash && b.Len() > 0 {
				b.WriteByte('-')
			}
			dash = false
			b.WriteRune(r)
		default:
			dash = true
		}
		if b.Len() >= maxSlugLength {
			break
		}
	}
	if b.Len() == 0 {
		return defaultBaseName
	}
	return b.String()
}

// formatBytes renders a byte count for humans.
func formatBytes(n int) string {
	switch {
	case n >= 1<<20:
		return fmt.Sprintf("%.1f MB", float64(n)/(1<<20))
	case n >= 1<<10:
		return fmt.Sprintf("%.1f KB", float64(n)/(1<<10))
	default:
		return fmt.Sprintf("%d B", n)
	}
}
