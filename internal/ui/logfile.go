package ui

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"
)

const logFileSyncInterval = 200 * time.Millisecond

// logFile appends timestamped lines to a file. Writes are fsynced in the
// background at most once per interval, so `tail -f` on a busy server
// keeps up without an fsync per line.
type logFile struct {
	mu    sync.Mutex
	f     *os.File
	dirty bool

	stop      chan struct{}
	stopped   chan struct{}
	closeOnce sync.Once
	closeErr  error
}

// OpenLogFile opens (or creates) path in append mode. Every Write is
// prefixed with a timestamp; Logger writes one line per call, so every
// line gets its own stamp. Close flushes and closes the file.
func OpenLogFile(path string) (io.WriteCloser, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create log dir: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open log file: %w", err)
	}

	lf := &logFile{
		f:       f,
		stop:    make(chan struct{}),
		stopped: make(chan struct{}),
	}
	go lf.syncEvery(logFileSyncInterval)
	return lf, nil
}

func (lf *logFile) Write(p []byte) (int, error) {
	stamped := "[" + time.Now().Format(timestampLayout) + "] " + string(p)

	lf.mu.Lock()
	defer lf.mu.Unlock()
	if _, err := io.WriteString(lf.f, stamped); err != nil {
		return 0, err
	}
	lf.dirty = true
	return len(p), nil
}

func (lf *logFile) syncEvery(interval time.Duration) {
	defer close(lf.stopped)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			lf.sync()
		case <-lf.stop:
			lf.sync()
			return
		}
	}
}

func (lf *logFile) sync() {
	lf.mu.Lock()
	defer lf.mu.Unlock()
	if lf.dirty {
		lf.f.Sync()
		lf.dirty = false
	}
}

// Close stops the background sync and closes the file. Extra calls
// return the first result.
func (lf *logFile) Close() error {
	lf.closeOnce.Do(func() {
		close(lf.stop)
		<-lf.stopped
		lf.closeErr = lf.f.Close()
	})
	return lf.closeErr
}
