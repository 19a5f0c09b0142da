package echo

import (
	"fmt"
	"net"
	"runtime/debug"
	"time"

	"github.com/0xa1bed0/echosrv/internal/logs"
	"github.com/0xa1bed0/echosrv/internal/networking/msgqueue"
	"github.com/0xa1bed0/echosrv/internal/networking/oneshot"
)

const (
	minAcceptBackoff = 5 * time.Millisecond
	maxAcceptBackoff = time.Second
)

type acceptResult struct {
	conn net.Conn
	err  error
}

// acceptLoop owns the listener from Run until shutdown. Connection
// handlers it spawns are not tracked: shutdown stops new work only.
type acceptLoop struct {
	listener net.Listener
	producer *msgqueue.Producer[string]
	hook     MessageHook
	maxLine  int
	shutdown *oneshot.Signal
	stats    *stats

	done    chan struct{}
	joinErr error // set before done is closed
}

func (l *acceptLoop) run() {
	defer close(l.done)
	defer l.shutdown.Drop()
	defer l.producer.Release()
	defer l.listener.Close()
	defer func() {
		if r := recover(); r != nil {
			l.joinErr = fmt.Errorf("%w: accept loop panic: %v\n%s", ErrTaskJoin, r, debug.Stack())
		}
	}()

	addr := l.listener.Addr().String()

	results := make(chan acceptResult)
	stop := make(chan struct{})
	defer close(stop)
	go l.acceptConnections(results, stop)

	for {
		select {
		case <-l.shutdown.Done():
			// Closing the listener (deferred) abandons the pending Accept.
			logs.Debugf("echo server %s: got shutdown signal", addr)
			return

		case res := <-results:
			if res.err != nil {
				logs.Warnf("echo server %s: incoming connection error: %v", addr, res.err)
				continue
			}
			l.stats.accepted.Add(1)
			producer := l.producer.Clone()
			go l.handleConnection(res.conn, producer)
		}
	}
}

// acceptConnections blocks in Accept and forwards every outcome to
// results until the listener is closed or stop is closed. Errors are
// followed by an exponential backoff so a persistent failure (EMFILE)
// does not spin.
func (l *acceptLoop) acceptConnections(results chan<- acceptResult, stop <-chan struct{}) {
	var backoff time.Duration
	for {
		conn, err := l.listener.Accept()
		if err != nil && isListenerClosed(err) {
			return
		}

		select {
		case results <- acceptResult{conn: conn, err: err}:
		case <-stop:
			if conn != nil {
				conn.Close()
			}
			return
		}

		if err == nil {
			backoff = 0
			continue
		}

		if backoff == 0 {
			backoff = minAcceptBackoff
		} else {
			backoff = min(backoff*2, maxAcceptBackoff)
		}
		timer := time.NewTimer(backoff)
		select {
		case <-timer.C:
		case <-stop:
			timer.Stop()
			return
		}
	}
}
