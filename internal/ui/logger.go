package ui

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/lipgloss"
)

const timestampLayout = "2006-01-02T15:04:05.000"

// maxBufferedLines bounds the pre-writer buffer; the oldest lines go first.
const maxBufferedLines = 1024

type LogLevel int

const (
	LogLevelError LogLevel = iota
	LogLevelInfo
	LogLevelWarn
	LogLevelDebug
	LogLevelDebugVerbose
)

// Options configures the Logger.
type Options struct {
	// Out is where we print operator-facing logs.
	// In most cases this should be os.Stderr so that stdout stays free
	// for command output (echoed lines, version string).
	Out io.Writer

	// FullLogWriter, if non-nil, receives all logs in plain text
	// regardless of LogLevel.
	FullLogWriter io.Writer

	// LogLevel control amount of logs print to Out
	// greater the number => more logs coming out
	// error < info < warn < debug < debugVerbose
	LogLevel LogLevel

	// Component identifies the source of log messages (e.g., "serve", "send").
	// If empty, no component tag is included in log output.
	Component string
}

// Logger is a leveled, timestamped logger safe for concurrent use.
type Logger struct {
	out       io.Writer
	full      io.Writer
	mu        sync.Mutex
	style     styles
	component string

	logLevel LogLevel

	// fullLogBuffer holds log lines written before full log writer is set.
	// Once the full writer is set, this buffer is flushed and cleared.
	fullLogBuffer []string
}

// styles for log levels and boxes.
type styles struct {
	logInfo  lipgloss.Style
	logWarn  lipgloss.Style
	logError lipgloss.Style
	logDebug lipgloss.Style
}

func defaultStyles() styles {
	return styles{
		logInfo:  lipgloss.NewStyle(),
		logWarn:  lipgloss.NewStyle().Foreground(lipgloss.Color("214")), // orange-ish
		logError: lipgloss.NewStyle().Foreground(lipgloss.Color("196")), // red
		logDebug: lipgloss.NewStyle().Faint(true),
	}
}

// New creates a new Logger.
func New(opts Options) *Logger {
	if opts.Out == nil {
		opts.Out = os.Stderr
	}

	return &Logger{
		out:       opts.Out,
		full:      opts.FullLogWriter,
		style:     defaultStyles(),
		logLevel:  opts.LogLevel,
		component: opts.Component,
	}
}

func (l *Logger) SetFullLogWriter(w io.Writer) {
	l.mu.Lock()
	defer l.mu.Unlock()

	// Reject if already set
	if l.full != nil {
		timestamp := time.Now().Format(timestampLayout)
		errMsg := fmt.Sprintf("[%s] [ERR ] attempted to set full log writer when already set, ignoring\n", timestamp)
		fmt.Fprint(l.out, l.style.logError.Render(errMsg))
		return
	}

	l.full = w

	// Flush buffered log lines
	for _, line := range l.fullLogBuffer {
		io.WriteString(l.full, line)
	}
	l.fullLogBuffer = nil
}

func (l *Logger) SetComponent(component string) {
	l.mu.Lock()
	l.component = component
	l.mu.Unlock()
}

// writeFullLogLocked writes to the full log writer if set, otherwise buffers.
// Must be called with l.mu held.
func (l *Logger) writeFullLogLocked(line string) {
	if l.full != nil {
		io.WriteString(l.full, line)
		return
	}
	if len(l.fullLogBuffer) >= maxBufferedLines {
		l.fullLogBuffer = l.fullLogBuffer[1:]
	}
	l.fullLogBuffer = append(l.fullLogBuffer, line)
}

// Close closes the full log if it's an io.Closer.
func (l *Logger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if c, ok := l.full.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

func (l *Logger) Error(format string, args ...any) {
	l.printLog(false, "ERR ", l.style.logError, format, args...)
}

func (l *Logger) Info(format string, args ...any) {
	silent := l.level() < LogLevelInfo
	l.printLog(silent, "INFO", l.style.logInfo, format, args...)
}

func (l *Logger) Warn(format string, args ...any) {
	silent := l.level() < LogLevelWarn
	l.printLog(silent, "WARN", l.style.logWarn, format, args...)
}

func (l *Logger) InfoSilent(format string, args ...any) {
	l.printLog(true, "INFO", l.style.logInfo, format, args...)
}

func (l *Logger) Debug(format string, args ...any) {
	if l.level() >= LogLevelDebug {
		l.printLog(false, "DEBG", l.style.logDebug, format, args...)
	}
}

func (l *Logger) SetLogLevel(logLevel LogLevel) {
	l.mu.Lock()
	l.logLevel = logLevel
	l.mu.Unlock()
}

func (l *Logger) level() LogLevel {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.logLevel
}

func (l *Logger) formatCaller(format string, args ...any) string {
	msg := fmt.Sprintf(format, args...)
	if l.level() < LogLevelDebugVerbose {
		return msg
	}
	pc, file, line, ok := runtime.Caller(4)
	if !ok {
		file = "?"
		line = 0
	}

	fn := runtime.FuncForPC(pc)
	var fnName string
	if fn != nil {
		fnName = strings.ReplaceAll(fn.Name(), "github.com/0xa1bed0/echosrv", "")
	}

	return fmt.Sprintf("[%s:%d %s] %s", filepath.Base(file), line, fnName, msg)
}

// printLog writes one line to the full log and, unless silent, to Out.
func (l *Logger) printLog(silent bool, level string, style lipgloss.Style, format string, args ...any) {
	msg := l.formatCaller(format, args...)
	timestamp := time.Now().Format(timestampLayout)

	l.mu.Lock()
	defer l.mu.Unlock()

	componentTag := ""
	if l.component != "" {
		componentTag = fmt.Sprintf("[%s] ", l.component)
	}

	// The full log carries no timestamp; the log file stamps each line.
	logLine := fmt.Sprintf("[%s] %s%s\n", level, componentTag, msg)
	stdoutLine := fmt.Sprintf("[%s] [%s] %s%s", timestamp, level, componentTag, msg)

	l.writeFullLogLocked(logLine)

	if !silent {
		fmt.Fprintln(l.out, style.Render(stdoutLine))
	}
}
