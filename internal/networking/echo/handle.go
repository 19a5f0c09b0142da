package echo

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sync/atomic"
	"time"

	"github.com/0xa1bed0/echosrv/internal/logs"
	"github.com/0xa1bed0/echosrv/internal/networking/msgqueue"
)

// Stats is a point-in-time snapshot of server counters.
type Stats struct {
	Accepted int64 // connections accepted since Run
	Active   int64 // connection handlers currently running
	Received int64 // lines read from all connections
	Dropped  int64 // lines not queued because the queue was full
}

type stats struct {
	accepted atomic.Int64
	active   atomic.Int64
	received atomic.Int64
	dropped  atomic.Int64
}

func (s *stats) snapshot() Stats {
	return Stats{
		Accepted: s.accepted.Load(),
		Active:   s.active.Load(),
		Received: s.received.Load(),
		Dropped:  s.dropped.Load(),
	}
}

// ServerHandle controls a running server: it requests shutdown of the
// accept loop and consumes the observed-message queue.
type ServerHandle struct {
	addr     net.Addr
	loop     *acceptLoop
	messages *msgqueue.Consumer[string]
}

// LocalAddr returns the address the server is accepting on.
func (h *ServerHandle) LocalAddr() net.Addr {
	return h.addr
}

// Stats returns the current counters. Active keeps counting handlers
// that outlive Shutdown.
func (h *ServerHandle) Stats() Stats {
	return h.loop.stats.snapshot()
}

// Shutdown signals the accept loop to stop and waits for it to exit.
// Connections that are already being served keep running until their
// peers disconnect. Shutdown may be called only once; further calls fail
// with ErrKillFailed.
func (h *ServerHandle) Shutdown(ctx context.Context) error {
	logs.Infof("shutting down echo server %s...", h.addr)

	if err := h.loop.shutdown.Send(); err != nil {
		if joinErr := h.loopError(); joinErr != nil {
			err = errors.Join(err, joinErr)
		}
		logs.Errorf("shutting down echo server %s failed: %v", h.addr, err)
		return killFailed(err)
	}

	select {
	case <-h.loop.done:
	case <-ctx.Done():
		logs.Errorf("shutting down echo server %s failed: %v", h.addr, ctx.Err())
		return killFailed(ctx.Err())
	}

	if h.loop.joinErr != nil {
		logs.Errorf("shutting down echo server %s failed: %v", h.addr, h.loop.joinErr)
		return killFailed(h.loop.joinErr)
	}

	logs.Infof("echo server %s shut down successfully", h.addr)
	return nil
}

// Done is closed once the accept loop has exited.
func (h *ServerHandle) Done() <-chan struct{} {
	return h.loop.done
}

// loopError returns the accept loop's failure if it has already exited.
func (h *ServerHandle) loopError() error {
	select {
	case <-h.loop.done:
		return h.loop.joinErr
	default:
		return nil
	}
}

// AwaitMessage returns the next observed line, including its trailing
// newline, in the order lines entered the queue. timeout <= 0 waits
// until a line arrives, ctx is done, or the queue is closed
// (ErrQueueClosed: the server is shut down, every connection has ended
// and the backlog is drained). A positive timeout that elapses yields
// ErrTimeout.
func (h *ServerHandle) AwaitMessage(ctx context.Context, timeout time.Duration) (string, error) {
	if timeout <= 0 {
		return h.messages.Pop(ctx)
	}

	waitCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	msg, err := h.messages.Pop(waitCtx)
	if err != nil && ctx.Err() == nil && errors.Is(err, context.DeadlineExceeded) {
		return "", fmt.Errorf("%w: no message within %s", ErrTimeout, timeout)
	}
	return msg, err
}

// PendingMessages reports how many observed lines are waiting in the queue.
func (h *ServerHandle) PendingMessages() int {
	return h.messages.Len()
}
