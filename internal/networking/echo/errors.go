package echo

import (
	"errors"
	"fmt"

	"github.com/0xa1bed0/echosrv/internal/networking/msgqueue"
)

var (
	// ErrIO wraps socket bind, accept, dial, read and write failures.
	ErrIO = errors.New("io error")

	// ErrTaskJoin reports that the accept loop did not finish cleanly.
	ErrTaskJoin = errors.New("task join error")

	// ErrKillFailed is returned by Shutdown when the shutdown signal could
	// not be delivered or the accept loop could not be awaited.
	ErrKillFailed = errors.New("kill failed")

	// ErrTimeout is returned when a caller-provided deadline elapses.
	ErrTimeout = errors.New("timeout")

	// ErrBadResponse matches *BadResponseError.
	ErrBadResponse = errors.New("bad response")

	// ErrAlreadyRunning is returned by Run on a server that already ran.
	ErrAlreadyRunning = errors.New("echo server already running")

	// ErrQueueClosed is returned by AwaitMessage once the accept loop and
	// every connection handler are gone and all observed messages have
	// been consumed.
	ErrQueueClosed = msgqueue.ErrClosed

	// ErrInvalidMessage rejects client messages that contain a newline.
	ErrInvalidMessage = errors.New("message must be a single line")

	// ErrLineTooLong ends a connection whose peer sent a line longer than
	// the server's maximum line length.
	ErrLineTooLong = errors.New("line too long")
)

// BadResponseError is returned by SendAndAwait when the echoed line does
// not match the sent message.
type BadResponseError struct {
	// Received is the raw line read back, including its line terminator.
	Received string
}

// Error includes the received line quoted, terminator and all.
func (e *BadResponseError) Error() string {
	return fmt.Sprintf("bad response received=%q", e.Received)
}

// Is makes errors.Is(err, ErrBadResponse) hold.
func (e *BadResponseError) Is(target error) bool {
	return target == ErrBadResponse
}

func ioError(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrIO, op, err)
}

func killFailed(err error) error {
	return fmt.Errorf("%w: %w", ErrKillFailed, err)
}
