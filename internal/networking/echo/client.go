package echo

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"strings"
	"sync"
	"time"

	"github.com/0xa1bed0/echosrv/internal/networking/transport"
)

// Client is a single connection to an echo server. It is safe for
// concurrent use; calls are serialised so each response is matched to
// its own request.
type Client struct {
	mu     sync.Mutex
	conn   net.Conn
	reader *bufio.Reader
}

// Connect opens one TCP connection to address. It does not retry.
func Connect(ctx context.Context, address string) (*Client, error) {
	conn, err := transport.DialTCP(ctx, address, 1, 0)
	if err != nil {
		return nil, ioError("connect "+address, err)
	}
	return &Client{
		conn:   conn,
		reader: bufio.NewReader(conn),
	}, nil
}

// SendAndAwait writes message followed by a newline and waits for the
// echoed line. A positive timeout bounds the whole exchange and yields
// ErrTimeout when it elapses. The echo must be message plus one "\n" or
// "\r\n"; anything else yields a *BadResponseError.
func (c *Client) SendAndAwait(ctx context.Context, message string, timeout time.Duration) error {
	if strings.ContainsRune(message, '\n') {
		return fmt.Errorf("%w: %q", ErrInvalidMessage, message)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	var deadline time.Time
	if timeout > 0 {
		deadline = time.Now().Add(timeout)
	}
	if d, ok := ctx.Deadline(); ok && (deadline.IsZero() || d.Before(deadline)) {
		deadline = d
	}
	if err := c.conn.SetDeadline(deadline); err != nil {
		return ioError("set deadline", err)
	}
	defer c.conn.SetDeadline(time.Time{})

	// Unblock I/O immediately if ctx is cancelled mid-exchange.
	stop := context.AfterFunc(ctx, func() {
		c.conn.SetDeadline(time.Unix(1, 0))
	})
	defer stop()

	if _, err := io.WriteString(c.conn, message+"\n"); err != nil {
		return c.exchangeError(ctx, "write", timeout, err)
	}

	line, err := c.reader.ReadString('\n')
	if err != nil {
		return c.exchangeError(ctx, "read", timeout, err)
	}

	if !isEcho(line, message) {
		return &BadResponseError{Received: line}
	}
	return nil
}

// isEcho reports whether line is message followed by exactly one line
// terminator, either "\n" or "\r\n".
func isEcho(line, message string) bool {
	return line == message+"\n" || line == message+"\r\n"
}

func (c *Client) exchangeError(ctx context.Context, op string, timeout time.Duration, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return fmt.Errorf("%w: %s after %s: %w", ErrTimeout, op, timeout, err)
	}
	return ioError(op, err)
}

// LocalAddr returns the client side of the connection.
func (c *Client) LocalAddr() net.Addr {
	return c.conn.LocalAddr()
}

func (c *Client) RemoteAddr() net.Addr {
	return c.conn.RemoteAddr()
}

func (c *Client) Close() error {
	return c.conn.Close()
}
