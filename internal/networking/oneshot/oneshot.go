// Package oneshot implements a payload-free signal that can be sent at
// most once and observed by a single receiver.
package oneshot

import (
	"errors"
	"sync"
)

var (
	ErrAlreadySent  = errors.New("oneshot: signal already sent")
	ErrReceiverGone = errors.New("oneshot: receiver gone")
)

// Signal is a single-use notification. The sender calls Send once; the
// receiver waits on Done and calls Drop when it stops listening, after
// which Send reports ErrReceiverGone.
type Signal struct {
	mu      sync.Mutex
	ch      chan struct{}
	sent    bool
	dropped bool
}

func New() *Signal {
	return &Signal{ch: make(chan struct{})}
}

// Send delivers the signal. Only the first call on a live receiver
// succeeds.
func (s *Signal) Send() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.sent {
		return ErrAlreadySent
	}
	if s.dropped {
		return ErrReceiverGone
	}
	s.sent = true
	close(s.ch)
	return nil
}

// Done returns a channel that is closed once Send succeeds.
func (s *Signal) Done() <-chan struct{} {
	return s.ch
}

// Drop marks the receiver as gone. It is safe to call more than once.
func (s *Signal) Drop() {
	s.mu.Lock()
	s.dropped = true
	s.mu.Unlock()
}
