package cli

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/matzehuels/perspectives/pkg/observability"
)

var spinnerFrames = []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}

// stageLabels describe a finished pipeline stage on the spinner line.
var stageLabels = map[observability.Stage]string{
	observability.StageRasterize: "text rasterized",
	observability.StageCrop:      "cropped to ink",
	observability.StageWarp:      "keystone applied",
	observability.StageCompose:   "overlay composed",
	observability.StageEncode:    "encoded",
}

// spinner animates a status line while a render runs. It implements
// observability.PipelineHooks: attached to the render context it appends
// the last finished stage to the line, then forwards every event to next.
type spinner struct {
	w      io.Writer
	base   string
	next   observability.PipelineHooks
	parent context.Context

	ctx      context.Context
	cancel   context.CancelFunc
	stopped  chan struct{}
	stopOnce sync.Once

	mu      sync.Mutex
	started bool
	message string
	drawn   int // runes on the line, for clearing
}

// newSpinner creates a spinner on w that stops when ctx is cancelled.
// A nil next discards pipeline events after the spinner has seen them.
func newSpinner(ctx context.Context, w io.Writer, message string, next observability.PipelineHooks) *spinner {
	if next == nil {
		next = observability.NoopPipelineHooks{}
	}
	sctx, cancel := context.WithCancel(ctx)
	return &spinner{
		w:       w,
		base:    message,
		next:    next,
		parent:  ctx,
		ctx:     sctx,
		cancel:  cancel,
		stopped: make(chan struct{}),
		message: message,
	}
}

// Start begins the animation. It must be called at most once.
func (s *spinner) Start() {
	s.mu.Lock()
	s.started = true
	s.mu.Unlock()

	go func() {
		defer close(s.stopped)
		ticker := time.NewTicker(80 * time.Millisecond)
		defer ticker.Stop()

		for i := 0; ; i++ {
			select {
			case <-s.ctx.Done():
				return
			case <-ticker.C:
				s.draw(spinnerFrames[i%len(spinnerFrames)])
			}
		}
	}()
}

// Stop ends the animation and clears the line. Safe to call repeatedly,
// and before Start.
func (s *spinner) Stop() {
	s.stopOnce.Do(func() {
		s.cancel()
		s.mu.Lock()
		started := s.started
		s.mu.Unlock()
		if started {
			<-s.stopped
		}
		s.clearLine()
	})
}

// Cancelled reports whether the caller's context ended, as opposed to Stop.
func (s *spinner) Cancelled() bool {
	return s.parent.Err() != nil
}

// Message returns the text currently shown next to the frame.
func (s *spinner) Message() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.message
}

func (s *spinner) setMessage(msg string) {
	s.mu.Lock()
	s.message = msg
	s.mu.Unlock()
}

func (s *spinner) draw(frame string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	line := frame + " " + s.message
	if n := len([]rune(line)); n > s.drawn {
		s.drawn = n
	}
	fmt.Fprintf(s.w, "\r%s %s", styleIconSpinner.Render(frame), StyleDim.Render(s.message))
}

func (s *spinner) clearLine() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.drawn == 0 {
		return
	}
	fmt.Fprintf(s.w, "\r%s\r", strings.Repeat(" ", s.drawn))
	s.drawn = 0
}

func (s *spinner) OnRenderStart(ctx context.Context, text string, size int) {
	s.setMessage(s.base)
	s.next.OnRenderStart(ctx, text, size)
}

func (s *spinner) OnStage(ctx context.Context, stage observability.Stage, d time.Duration, err error) {
	if label, ok := stageLabels[stage]; ok && err == nil {
		s.setMessage(s.base + " " + label)
	}
	s.next.OnStage(ctx, stage, d, err)
}

func (s *spinner) OnRenderComplete(ctx context.Context, size int, d time.Duration, err error) {
	s.next.OnRenderComplete(ctx, size, d, err)
}

var _ observability.PipelineHooks = (*spinner)(nil)
