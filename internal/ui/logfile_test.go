package ui

import (
	"os"
	"path/filepath"
	"regexp"
	"testing"
)

func TestOpenLogFileTimestampsEachLine(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "nested", "echosrv.log")
	w, err := OpenLogFile(path)
	if err != nil {
		t.Fatalf("OpenLogFile failed: %v", err)
	}

	l := New(Options{Out: &discard{}, FullLogWriter: w, LogLevel: LogLevelWarn})
	l.Info("first")
	l.Warn("second")
	if err := l.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	re := regexp.MustCompile(`(?m)^\[\d{4}-\d{2}-\d{2}T\d{2}:\d{2}:\d{2}\.\d{3}\] \[(INFO|WARN)\] (first|second)$`)
	if got := len(re.FindAllString(string(data), -1)); got != 2 {
		t.Fatalf("expected 2 timestamped lines, got %d in %q", got, data)
	}
}

func TestOpenLogFileAppends(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "append.log")
	for _, line := range []string{"one\n", "two\n"} {
		w, err := OpenLogFile(path)
		if err != nil {
			t.Fatalf("OpenLogFile failed: %v", err)
		}
		if _, err := w.Write([]byte(line)); err != nil {
			t.Fatalf("Write failed: %v", err)
		}
		w.Close()
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	if got := regexp.MustCompile(`(?m)^\[.*\] (one|two)$`).FindAllString(string(data), -1); len(got) != 2 {
		t.Fatalf("expected both writes to survive, got %q", data)
	}
}

type discard struct{}

func (discard) Write(p []byte) (int, error) { return len(p), nil }

func TestLogFileCloseTwice(t *testing.T) {
	t.Parallel()

	w, err := OpenLogFile(filepath.Join(t.TempDir(), "twice.log"))
	if err != nil {
		t.Fatalf("OpenLogFile failed: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("first Close failed: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("second Close = %v, want the first result", err)
	}
}
