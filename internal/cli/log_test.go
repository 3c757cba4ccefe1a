package cli

import (
	"bytes"
	"context"
	"errors"
	"net"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/charmbracelet/log"
)

func TestNewLoggerLevels(t *testing.T) {
	tests := []struct {
		name    string
		level   log.Level
		logFunc func(*log.Logger)
		wantLog bool
	}{
		{"InfoAtInfo", log.InfoLevel, func(l *log.Logger) { l.Info("listening") }, true},
		{"DebugAtInfo", log.InfoLevel, func(l *log.Logger) { l.Debug("stage done") }, false},
		{"DebugAtDebug", log.DebugLevel, func(l *log.Logger) { l.Debug("stage done") }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			tt.logFunc(newLogger(&buf, tt.level))
			if got := buf.Len() > 0; got != tt.wantLog {
				t.Errorf("wrote output = %v, want %v", got, tt.wantLog)
			}
		})
	}
}

func TestProgressDone(t *testing.T) {
	var buf bytes.Buffer
	logger := newLogger(&buf, log.InfoLevel)

	newProgress(logger, log.InfoLevel).done("server stopped", "addr", "127.0.0.1:3030")
	out := buf.String()
	for _, want := range []string{"server stopped", "addr=127.0.0.1:3030", "elapsed="} {
		if !strings.Contains(out, want) {
			t.Errorf("output %q does not contain %q", out, want)
		}
	}

	buf.Reset()
	newProgress(logger, log.DebugLevel).done("render finished")
	if buf.Len() != 0 {
		t.Errorf("debug progress at info level wrote %q", buf.String())
	}
}

func TestProgressDoesNotAliasFields(t *testing.T) {
	fields := make([]any, 2, 8)
	fields[0], fields[1] = "cached", true

	var buf bytes.Buffer
	newProgress(newLogger(&buf, log.InfoLevel), log.InfoLevel).done("render finished", fields...)
	if extra := fields[:4]; extra[2] != nil {
		t.Errorf("done() wrote into the caller's slice: %v", extra)
	}
}

func TestLoggerFromContext(t *testing.T) {
	if loggerFromContext(context.Background()) != log.Default() {
		t.Error("loggerFromContext() without a logger should return log.Default()")
	}

	custom := newLogger(&bytes.Buffer{}, log.InfoLevel)
	if loggerFromContext(withLogger(context.Background(), custom)) != custom {
		t.Error("loggerFromContext() should return the attached logger")
	}
}

func TestRenderLogsProgressWhenVerbose(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv("XDG_CACHE_HOME", t.TempDir())

	var buf bytes.Buffer
	c := New(&buf, LogDebug)
	root := c.RootCommand()
	root.SetArgs([]string{"render", "ok", "--size", "32", "-o", filepath.Join(t.TempDir(), "ok.png")})
	if err := root.ExecuteContext(context.Background()); err != nil {
		t.Fatalf("render error: %v", err)
	}

	out := buf.String()
	for _, want := range []string{"render finished", "cached=false", "bytes=", "elapsed="} {
		if !strings.Contains(out, want) {
			t.Errorf("log output missing %q:\n%s", want, out)
		}
	}
}

func TestServeLogsProgressOnShutdown(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv("XDG_CACHE_HOME", t.TempDir())

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	port := ln.Addr().(*net.TCPAddr).Port
	ln.Close()

	// A cancelled context makes the server shut down right after binding.
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var buf bytes.Buffer
	c := New(&buf, LogInfo)
	root := c.RootCommand()
	root.SetArgs([]string{"serve", "--port", strconv.Itoa(port), "--dir", t.TempDir(), "--no-cache"})
	if err := root.ExecuteContext(ctx); err != nil {
		t.Fatalf("serve error: %v", err)
	}

	out := buf.String()
	for _, want := range []string{"listening", "server stopped", "addr=127.0.0.1:" + strconv.Itoa(port)} {
		if !strings.Contains(out, want) {
			t.Errorf("log output missing %q:\n%s", want, out)
		}
	}
}

func TestPrintError(t *testing.T) {
	var buf bytes.Buffer
	PrintError(&buf, errors.New("INVALID_SIZE: canvas size must be positive"))
	if !strings.Contains(buf.String(), "canvas size must be positive") {
		t.Errorf("PrintError() output = %q", buf.String())
	}
}
