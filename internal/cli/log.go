// Package cli implements the perspectives command-line interface.
//
// This package provides commands for rendering text into perspective images,
// serving the browser front end, live previewing while typing, and managing
// the artifact cache. The CLI is built using cobra and supports verbose
// logging via the charmbracelet/log library.
//
// # Commands
//
// The main commands are:
//   - render: Render text to an image file (PNG, JPEG, GIF, BMP, TIFF, raw)
//   - serve: Serve the front end and the render API over HTTP
//   - live: Re-render an image file while typing
//   - decode: Inspect an image file and its content bounding box
//   - cache, config: Manage the artifact cache and show settings
//
// # Logging
//
// All commands support --verbose (-v) for debug-level logging. Loggers are
// passed through context.Context to allow structured progress tracking.
//
// # Example
//
//	import "github.com/matzehuels/perspectives/internal/cli"
//
//	func main() {
//	    c := cli.New(os.Stderr, cli.LogInfo)
//	    if err := c.RootCommand().Execute(); err != nil {
//	        os.Exit(1)
//	    }
//	}
package cli

import (
	"context"
	"io"
	"time"

	"github.com/charmbracelet/log"
)

// newLogger creates the CLI logger: timestamps as "HH:MM:SS.ms", filtered
// at level.
func newLogger(w io.Writer, level log.Level) *log.Logger {
	return log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		TimeFormat:      "15:04:05.00",
		Level:           level,
	})
}

// progress times a command's main operation and logs its end at a fixed
// level with the elapsed time appended to the fields.
type progress struct {
	logger *log.Logger
	level  log.Level
	start  time.Time
}

func newProgress(l *log.Logger, level log.Level) *progress {
	return &progress{logger: l, level: level, start: time.Now()}
}

// done logs msg with keyvals and elapsed, rounded to the millisecond.
//
//	INFO server stopped addr=127.0.0.1:3030 elapsed=1m2.345s
func (p *progress) done(msg string, keyvals ...any) {
	kv := append(keyvals[:len(keyvals):len(keyvals)], "elapsed", time.Since(p.start).Round(time.Millisecond))
	p.logger.Log(p.level, msg, kv...)
}

type ctxKey int

const loggerKey ctxKey = 0

// withLogger attaches the command logger to ctx.
func withLogger(ctx context.Context, l *log.Logger) context.Context {
	return context.WithValue(ctx, loggerKey, l)
}

// loggerFromContext returns the logger attached by withLogger, or
// log.Default() for contexts built outside a command (tests, library use).
func loggerFromContext(ctx context.Context) *log.Logger {
	if l, ok := ctx.Value(loggerKey).(*log.Logger); ok {
		return l
	}
	return log.Default()
}
