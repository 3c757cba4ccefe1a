package cli

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/matzehuels/perspectives/pkg/observability"
)

func TestSpinnerFollowsStages(t *testing.T) {
	next := &stageCounter{}
	s := newSpinner(context.Background(), &bytes.Buffer{}, "Rendering...", next)
	ctx := context.Background()

	s.OnRenderStart(ctx, "hi", 64)
	if got := s.Message(); got != "Rendering..." {
		t.Errorf("Message() = %q, want %q", got, "Rendering...")
	}

	s.OnStage(ctx, observability.StageCrop, time.Millisecond, nil)
	if got, want := s.Message(), "Rendering... cropped to ink"; got != want {
		t.Errorf("Message() = %q, want %q", got, want)
	}

	// A failed stage keeps the last good label.
	s.OnStage(ctx, observability.StageWarp, time.Millisecond, errors.New("singular"))
	if got, want := s.Message(), "Rendering... cropped to ink"; got != want {
		t.Errorf("Message() after failure = %q, want %q", got, want)
	}

	s.OnRenderComplete(ctx, 64, time.Millisecond, nil)
	if next.starts != 1 || next.stages != 2 || next.completes != 1 {
		t.Errorf("forwarded starts/stages/completes = %d/%d/%d, want 1/2/1",
			next.starts, next.stages, next.completes)
	}
}

func TestSpinnerDrawsAndClears(t *testing.T) {
	var buf bytes.Buffer
	s := newSpinner(context.Background(), &buf, "Rendering...", nil)
	s.Start()
	time.Sleep(200 * time.Millisecond)
	s.Stop()

	out := buf.String()
	if !strings.Contains(out, "Rendering...") {
		t.Errorf("output %q does not contain the message", out)
	}
	if !strings.HasSuffix(out, "\r") {
		t.Errorf("output %q does not end by clearing the line", out)
	}
	if s.Cancelled() {
		t.Error("Cancelled() = true after Stop, want false")
	}
}

func TestSpinnerContextCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	s := newSpinner(ctx, &bytes.Buffer{}, "Rendering...", nil)
	s.Start()
	cancel()
	s.Stop()

	if !s.Cancelled() {
		t.Error("Cancelled() = false after context cancellation, want true")
	}
}

func TestSpinnerStopIsIdempotent(t *testing.T) {
	var buf bytes.Buffer
	s := newSpinner(context.Background(), &buf, "Rendering...", nil)

	// Stop before Start writes nothing.
	s.Stop()
	s.Stop()
	if buf.Len() != 0 {
		t.Errorf("output = %q, want none", buf.String())
	}
}

type stageCounter struct {
	starts, stages, completes int
}

func (c *stageCounter) OnRenderStart(context.Context, string, int) { c.starts++ }

func (c *stageCounter) OnStage(context.Context, observability.Stage, time.Duration, error) {
	c.stages++
}

func (c *stageCounter) OnRenderComplete(context.Context, int, time.Duration, error) { c.completes++ }
