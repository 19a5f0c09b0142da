// Package msgqueue is a bounded, ordered, multi-producer single-consumer
// queue. Producers never block: a push into a full queue is rejected and
// the caller decides what to do with the value. The queue closes itself
// once every producer handle has been released and the backlog drained.
package msgqueue

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	"github.com/eapache/queue"
)

// DefaultCapacity is used when New is called with a non-positive capacity.
const DefaultCapacity = 32

var (
	ErrFull   = errors.New("msgqueue: queue is full")
	ErrClosed = errors.New("msgqueue: all producers gone")
)

type core[T any] struct {
	mu        sync.Mutex
	buf       *queue.Queue
	capacity  int
	producers int

	// notify carries at most one pending wake-up for the consumer.
	notify chan struct{}
}

func (c *core[T]) wake() {
	select {
	case c.notify <- struct{}{}:
	default:
	}
}

// Producer is one sending handle. Clone it for every additional
// concurrent sender and Release each handle exactly when that sender is
// done.
type Producer[T any] struct {
	c        *core[T]
	released atomic.Bool
}

// Consumer is the receiving end. Pop calls are serialised.
type Consumer[T any] struct {
	c   *core[T]
	sem chan struct{}
}

// New creates a queue holding at most capacity values and returns its
// first producer handle together with the consumer.
func New[T any](capacity int) (*Producer[T], *Consumer[T]) {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	c := &core[T]{
		buf:       queue.New(),
		capacity:  capacity,
		producers: 1,
		notify:    make(chan struct{}, 1),
	}
	return &Producer[T]{c: c}, &Consumer[T]{c: c, sem: make(chan struct{}, 1)}
}

// TryPush appends v without blocking. It returns ErrFull when the queue
// is at capacity and ErrClosed when called on a released handle.
func (p *Producer[T]) TryPush(v T) error {
	if p.released.Load() {
		return ErrClosed
	}

	p.c.mu.Lock()
	if p.c.buf.Length() >= p.c.capacity {
		p.c.mu.Unlock()
		return ErrFull
	}
	p.c.buf.Add(v)
	p.c.mu.Unlock()

	p.c.wake()
	return nil
}

// Clone registers another producer on the same queue.
func (p *Producer[T]) Clone() *Producer[T] {
	p.c.mu.Lock()
	p.c.producers++
	p.c.mu.Unlock()
	return &Producer[T]{c: p.c}
}

// Release drops this handle. Releasing the last handle closes the queue
// for the consumer once it has drained the backlog. Extra calls are no-ops.
func (p *Producer[T]) Release() {
	if p.released.Swap(true) {
		return
	}

	p.c.mu.Lock()
	p.c.producers--
	last := p.c.producers == 0
	p.c.mu.Unlock()

	if last {
		p.c.wake()
	}
}

// Pop removes the oldest value, waiting until one is available, the
// queue is closed (ErrClosed) or ctx is done (ctx.Err()).
func (q *Consumer[T]) Pop(ctx context.Context) (T, error) {
	var zero T

	select {
	case q.sem <- struct{}{}:
	case <-ctx.Done():
		return zero, ctx.Err()
	}
	defer func() { <-q.sem }()

	for {
		v, ok, err := q.tryPopLocked()
		if ok || err != nil {
			return v, err
		}

		select {
		case <-q.c.notify:
		case <-ctx.Done():
			return zero, ctx.Err()
		}
	}
}

// tryPop removes the oldest value if there is one. ok is false when the
// queue is empty; err is ErrClosed when it is also closed.
func (q *Consumer[T]) tryPop() (v T, ok bool, err error) {
	select {
	case q.sem <- struct{}{}:
	default:
		return v, false, nil
	}
	defer func() { <-q.sem }()

	return q.tryPopLocked()
}

func (q *Consumer[T]) tryPopLocked() (v T, ok bool, err error) {
	q.c.mu.Lock()
	defer q.c.mu.Unlock()

	if q.c.buf.Length() > 0 {
		return q.c.buf.Remove().(T), true, nil
	}
	if q.c.producers == 0 {
		return v, false, ErrClosed
	}
	return v, false, nil
}

// Len reports the number of queued values.
func (q *Consumer[T]) Len() int {
	q.c.mu.Lock()
	defer q.c.mu.Unlock()
	return q.c.buf.Length()
}

// Cap reports the queue capacity.
func (q *Consumer[T]) Cap() int {
	return q.c.capacity
}
