package ui

import (
	"bytes"
	"fmt"
	"strings"
	"testing"
)

func TestLevelsFilterOutput(t *testing.T) {
	t.Parallel()

	var out, full bytes.Buffer
	l := New(Options{Out: &out, FullLogWriter: &full, LogLevel: LogLevelInfo})

	l.Info("visible info")
	l.Warn("hidden warn")
	l.Debug("hidden debug")
	l.Error("visible error")

	got := out.String()
	if !strings.Contains(got, "visible info") || !strings.Contains(got, "visible error") {
		t.Fatalf("expected info and error on Out, got %q", got)
	}
	if strings.Contains(got, "hidden warn") || strings.Contains(got, "hidden debug") {
		t.Fatalf("unexpected filtered lines on Out: %q", got)
	}

	// Filtered lines still reach the full log.
	if !strings.Contains(full.String(), "[WARN] hidden warn") {
		t.Fatalf("full log missing warn line: %q", full.String())
	}
}

func TestDebugNeedsDebugLevel(t *testing.T) {
	t.Parallel()

	var out bytes.Buffer
	l := New(Options{Out: &out, LogLevel: LogLevelWarn})
	l.Debug("quiet")
	if out.Len() != 0 {
		t.Fatalf("debug printed at warn level: %q", out.String())
	}

	l.SetLogLevel(LogLevelDebug)
	l.Debug("loud %d", 42)
	if !strings.Contains(out.String(), "[DEBG] loud 42") {
		t.Fatalf("debug line missing: %q", out.String())
	}
}

func TestFullLogBufferedUntilWriterSet(t *testing.T) {
	t.Parallel()

	var out, full bytes.Buffer
	l := New(Options{Out: &out, LogLevel: LogLevelWarn})

	l.InfoSilent("early line")
	if out.Len() != 0 {
		t.Fatalf("silent line printed: %q", out.String())
	}

	l.SetFullLogWriter(&full)
	if !strings.Contains(full.String(), "[INFO] early line") {
		t.Fatalf("buffered line not flushed: %q", full.String())
	}

	l.Info("late line")
	if !strings.Contains(full.String(), "[INFO] late line") {
		t.Fatalf("line after SetFullLogWriter missing: %q", full.String())
	}
}

func TestFullLogBufferIsBounded(t *testing.T) {
	t.Parallel()

	l := New(Options{Out: &bytes.Buffer{}, LogLevel: LogLevelWarn})
	for i := 0; i < maxBufferedLines+10; i++ {
		l.InfoSilent("line %d", i)
	}

	var full bytes.Buffer
	l.SetFullLogWriter(&full)

	lines := strings.Split(strings.TrimSpace(full.String()), "\n")
	if len(lines) != maxBufferedLines {
		t.Fatalf("flushed %d lines, want %d", len(lines), maxBufferedLines)
	}
	if want := fmt.Sprintf("[INFO] line %d", 10); lines[0] != want {
		t.Fatalf("oldest kept line = %q, want %q", lines[0], want)
	}
}

func TestComponentTag(t *testing.T) {
	t.Parallel()

	var out bytes.Buffer
	l := New(Options{Out: &out, LogLevel: LogLevelWarn})
	l.SetComponent("serve")
	l.Info("hello")

	if !strings.Contains(out.String(), "[INFO] [serve] hello") {
		t.Fatalf("component tag missing: %q", out.String())
	}
}
