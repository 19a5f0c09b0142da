package transport

import (
	"context"
	"errors"
	"io"
	"net"
	"syscall"
	"time"

	"github.com/0xa1bed0/echosrv/internal/logs"
)

// ListenOption tweaks how ListenTCP creates the listening socket.
type ListenOption func(*listenConfig)

type listenConfig struct {
	reusePort bool
}

// WithReusePort sets SO_REUSEPORT on the listening socket so several
// processes can accept on the same address.
func WithReusePort() ListenOption {
	return func(c *listenConfig) {
		c.reusePort = true
	}
}

// ListenTCP binds addr and returns the listener. Use ":0" or
// "127.0.0.1:0" for an ephemeral port; the concrete port is available
// from the listener's Addr.
func ListenTCP(ctx context.Context, addr string, opts ...ListenOption) (net.Listener, error) {
	var cfg listenConfig
	for _, opt := range opts {
		opt(&cfg)
	}

	lc := net.ListenConfig{}
	if cfg.reusePort {
		lc.Control = func(network, address string, c syscall.RawConn) error {
			var sockErr error
			if err := c.Control(func(fd uintptr) {
				sockErr = setReusePort(fd)
			}); err != nil {
				return err
			}
			return sockErr
		}
	}

	ln, err := lc.Listen(ctx, "tcp", addr)
	if err != nil {
		return nil, err
	}
	logs.Debugf("tcp protocol. listening on %s (reuseport=%t)", ln.Addr(), cfg.reusePort)
	return ln, nil
}

// DialTCP dials addr, retrying up to attempts times with
// delayBetweenAttempts in between, until ctx is done or the connection
// succeeds. attempts <= 1 means a single try.
func DialTCP(ctx context.Context, addr string, attempts int, delayBetweenAttempts time.Duration) (net.Conn, error) {
	if attempts <= 0 {
		attempts = 1
	}
	if delayBetweenAttempts <= 0 {
		delayBetweenAttempts = 50 * time.Millisecond
	}

	var lastErr error
	for i := 0; i < attempts; i++ {
		dialer := &net.Dialer{}
		conn, err := dialer.DialContext(ctx, "tcp", addr)
		if err == nil {
			return conn, nil
		}
		lastErr = err

		if i == attempts-1 {
			break
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(delayBetweenAttempts):
		}
	}
	return nil, lastErr
}

// IsExpectedCloseError reports whether err is a normal connection
// termination: EOF, closed connection, broken pipe, or connection reset.
// Peers that close without draining their socket produce ECONNRESET or
// EPIPE on our side instead of a clean EOF.
func IsExpectedCloseError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, io.EOF) || errors.Is(err, net.ErrClosed) {
		return true
	}
	var errno syscall.Errno
	if errors.As(err, &errno) {
		return errno == syscall.EPIPE || errno == syscall.ECONNRESET
	}
	return false
}
