// Package echo implements a concurrent line-oriented TCP echo server and
// a matching client.
//
// The server echoes every newline-terminated line back to the connection
// it came from. Each received line is also offered to a bounded queue
// that the owner drains through ServerHandle.AwaitMessage, and to an
// optional MessageHook. A full queue drops the observation; it never
// slows the echo.
package echo

import (
	"context"
	"net"
	"sync"

	"github.com/0xa1bed0/echosrv/internal/logs"
	"github.com/0xa1bed0/echosrv/internal/networking/msgqueue"
	"github.com/0xa1bed0/echosrv/internal/networking/oneshot"
	"github.com/0xa1bed0/echosrv/internal/networking/transport"
)

// DefaultQueueCapacity is the message queue size unless overridden.
const DefaultQueueCapacity = msgqueue.DefaultCapacity

// DefaultMaxLineLength bounds a single line, terminator included. A peer
// that exceeds it is disconnected.
const DefaultMaxLineLength = 64 * 1024

// Spawner starts fn in a new goroutine. name identifies it in logs.
type Spawner func(name string, fn func())

func spawnDetached(_ string, fn func()) {
	go fn()
}

// Server is a bound, not yet running echo server. Configure it with the
// With* methods, then call Run exactly once.
type Server struct {
	mu            sync.Mutex
	listener      net.Listener // nil once Run took it
	queueCapacity int
	maxLineLength int
	hook          MessageHook
	spawn         Spawner
}

// Bind resolves address and binds a listening socket. Port 0 picks an
// ephemeral port; LocalAddr reports the one chosen.
func Bind(ctx context.Context, address string, opts ...transport.ListenOption) (*Server, error) {
	ln, err := transport.ListenTCP(ctx, address, opts...)
	if err != nil {
		return nil, ioError("bind "+address, err)
	}
	return &Server{
		listener:      ln,
		queueCapacity: DefaultQueueCapacity,
		maxLineLength: DefaultMaxLineLength,
		spawn:         spawnDetached,
	}, nil
}

// BindAnyLocal binds an ephemeral port on the IPv4 loopback interface.
func BindAnyLocal(ctx context.Context) (*Server, error) {
	return Bind(ctx, "127.0.0.1:0")
}

// WithHook attaches h, replacing any previously attached hook. A nil h
// removes the hook.
func (s *Server) WithHook(h MessageHook) *Server {
	s.mu.Lock()
	s.hook = h
	s.mu.Unlock()
	return s
}

// WithHookFunc is WithHook for a plain function. A nil fn removes the hook.
func (s *Server) WithHookFunc(fn func(peer, line string)) *Server {
	if fn == nil {
		return s.WithHook(nil)
	}
	return s.WithHook(HookFunc(fn))
}

// WithQueueCapacity overrides DefaultQueueCapacity. n <= 0 keeps the
// default.
func (s *Server) WithQueueCapacity(n int) *Server {
	if n <= 0 {
		n = DefaultQueueCapacity
	}
	s.mu.Lock()
	s.queueCapacity = n
	s.mu.Unlock()
	return s
}

// WithMaxLineLength overrides DefaultMaxLineLength. n <= 0 keeps the
// default.
func (s *Server) WithMaxLineLength(n int) *Server {
	if n <= 0 {
		n = DefaultMaxLineLength
	}
	s.mu.Lock()
	s.maxLineLength = n
	s.mu.Unlock()
	return s
}

// WithSpawner makes Run start the accept loop through spawn, for example
// a process-wide goroutine registry. Connection handlers are always
// detached and are never handed to spawn.
func (s *Server) WithSpawner(spawn Spawner) *Server {
	if spawn == nil {
		spawn = spawnDetached
	}
	s.mu.Lock()
	s.spawn = spawn
	s.mu.Unlock()
	return s
}

// LocalAddr returns the concrete bound address.
func (s *Server) LocalAddr() (net.Addr, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil {
		return nil, ioError("local address", net.ErrClosed)
	}
	return s.listener.Addr(), nil
}

// Run starts the accept loop in the background and hands the listener
// over to it. The returned handle must be kept and eventually shut down;
// dropping it leaves the accept loop running until the process exits.
func (s *Server) Run() (*ServerHandle, error) {
	s.mu.Lock()
	ln := s.listener
	s.listener = nil
	capacity := s.queueCapacity
	maxLine := s.maxLineLength
	hook := s.hook
	spawn := s.spawn
	s.mu.Unlock()

	if ln == nil {
		return nil, ErrAlreadyRunning
	}

	producer, consumer := msgqueue.New[string](capacity)
	loop := &acceptLoop{
		listener: ln,
		producer: producer,
		hook:     hook,
		maxLine:  maxLine,
		shutdown: oneshot.New(),
		stats:    &stats{},
		done:     make(chan struct{}),
	}
	spawn("echo-accept-loop "+ln.Addr().String(), loop.run)

	logs.Infof("started echo server at %s (queue capacity %d)", ln.Addr(), consumer.Cap())

	return &ServerHandle{
		addr:     ln.Addr(),
		loop:     loop,
		messages: consumer,
	}, nil
}
