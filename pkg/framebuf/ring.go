// Package framebuf provides the bounded frame ring that backs frame
// acquisition. A single producer pushes captured items; a single consumer
// reads either the most recent item or the next unread item in capture
// order. When the producer outruns the consumer the oldest unread item is
// dropped and the drop is surfaced on the next successful read.
package framebuf

import (
	"context"
	"errors"
	"sync"
)

// ErrClosed is returned by reads and writes after Close.
var ErrClosed = errors.New("frame ring closed")

// Ring is a fixed-capacity ring buffer connecting one producer goroutine
// to one consumer. All methods are safe for concurrent use.
type Ring[T any] struct {
	mu       sync.Mutex
	notEmpty *sync.Cond

	items    []T
	capacity int
	size     int
	head     int // next write position
	tail     int // next read position

	// pendingDrops counts overflow drops since the last successful read.
	// It is handed to the consumer with the next item and reset.
	pendingDrops uint64

	closed bool
	failed error // terminal producer fault, reported once the ring drains

	stats   *Statistics
	metrics *ringMetrics
	opts    *ringOptions[T]
}

// New creates a ring with the given capacity. Capacity below one is
// raised to one.
func New[T any](capacity int, options ...Option[T]) (*Ring[T], error) {
	if capacity <= 0 {
		capacity = 1
	}

	opts := applyOptions(options...)

	var metrics *ringMetrics
	if opts.metricsReg != nil && opts.metricsPrefix != "" {
		var err error
		metrics, err = newRingMetrics(opts.metricsReg, opts.metricsPrefix)
		if err != nil {
			return nil, err
		}
	}

	r := &Ring[T]{
		items:    make([]T, capacity),
		capacity: capacity,
		stats:    NewStatistics(),
		metrics:  metrics,
		opts:     opts,
	}
	r.notEmpty = sync.NewCond(&r.mu)
	return r, nil
}

// Push adds an item, dropping the oldest unread item when full.
func (r *Ring[T]) Push(item T) error {
	r.mu.Lock()

	if r.closed {
		r.mu.Unlock()
		return ErrClosed
	}

	var dropped T
	overflowed := false
	if r.size == r.capacity {
		dropped = r.items[r.tail]
		overflowed = true
		r.tail = (r.tail + 1) % r.capacity
		r.size--
		r.pendingDrops++

		r.stats.Drop()
		if r.metrics != nil {
			r.metrics.recordDrop()
		}
	}

	r.items[r.head] = item
	r.head = (r.head + 1) % r.capacity
	r.size++

	r.stats.Push()
	r.stats.UpdateSize(int64(r.size))
	if r.metrics != nil {
		r.metrics.recordPush(r.size, r.capacity)
	}

	r.notEmpty.Signal()
	r.mu.Unlock()

	// The callback runs without the lock so it may call back into the
	// ring.
	if overflowed && r.opts.dropCallback != nil {
		r.opts.dropCallback(dropped)
	}
	return nil
}

// Next blocks until an unread item is available, then removes and returns
// the oldest one together with the number of items dropped since the
// previous successful read. It returns ctx.Err() when the context ends
// first, ErrClosed after Close, and the Fail error once a failed ring has
// drained.
func (r *Ring[T]) Next(ctx context.Context) (T, uint64, error) {
	return r.read(ctx, false)
}

// Latest blocks until at least one item is available, discards everything
// but the most recently pushed item, and returns it. Items skipped here
// were discarded on request and do not count as drops.
func (r *Ring[T]) Latest(ctx context.Context) (T, uint64, error) {
	return r.read(ctx, true)
}

func (r *Ring[T]) read(ctx context.Context, latest bool) (T, uint64, error) {
	var zero T

	r.mu.Lock()
	defer r.mu.Unlock()

	// Wake the cond wait when the context ends. Broadcast without the
	// lock is safe for sync.Cond.
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			r.notEmpty.Broadcast()
		case <-done:
		}
	}()

	for r.size == 0 {
		if r.closed {
			return zero, 0, ErrClosed
		}
		if r.failed != nil {
			return zero, 0, r.failed
		}
		if err := ctx.Err(); err != nil {
			return zero, 0, err
		}
		r.notEmpty.Wait()
	}

	if latest {
		// Drain down to the newest item.
		for r.size > 1 {
			r.items[r.tail] = zero
			r.tail = (r.tail + 1) % r.capacity
			r.size--
			r.stats.Skip()
		}
	}

	item := r.items[r.tail]
	r.items[r.tail] = zero
	r.tail = (r.tail + 1) % r.capacity
	r.size--

	drops := r.pendingDrops
	r.pendingDrops = 0

	r.stats.Read()
	r.stats.UpdateSize(int64(r.size))
	if r.metrics != nil {
		r.metrics.recordRead(r.size, r.capacity)
	}

	return item, drops, nil
}

// TryNext removes and returns the oldest unread item without blocking.
func (r *Ring[T]) TryNext() (T, uint64, bool) {
	var zero T

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.size == 0 {
		return zero, 0, false
	}

	item := r.items[r.tail]
	r.items[r.tail] = zero
	r.tail = (r.tail + 1) % r.capacity
	r.size--

	drops := r.pendingDrops
	r.pendingDrops = 0

	r.stats.Read()
	r.stats.UpdateSize(int64(r.size))
	if r.metrics != nil {
		r.metrics.recordRead(r.size, r.capacity)
	}

	return item, drops, true
}

// Fail records a terminal producer fault. Blocked readers observe err as
// soon as the ring has no unread items; items already buffered remain
// readable first. Calling Fail twice keeps the first error.
func (r *Ring[T]) Fail(err error) {
	if err == nil {
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.failed == nil {
		r.failed = err
	}
	r.notEmpty.Broadcast()
}

// Len returns the number of unread items.
func (r *Ring[T]) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.size
}

// Cap returns the fixed capacity.
func (r *Ring[T]) Cap() int {
	return r.capacity
}

// Dropped returns the total number of overflow drops over the ring's
// lifetime.
func (r *Ring[T]) Dropped() uint64 {
	return r.stats.Drops()
}

// Stats returns the always-on statistics for this ring.
func (r *Ring[T]) Stats() *Statistics {
	return r.stats
}

// Clear removes all unread items without counting drops.
func (r *Ring[T]) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()

	var zero T
	for i := 0; i < r.capacity; i++ {
		r.items[i] = zero
	}
	r.head = 0
	r.tail = 0
	r.size = 0
	r.stats.UpdateSize(0)
	if r.metrics != nil {
		r.metrics.updateSize(0, r.capacity)
	}
}

// Close shuts the ring down and unblocks all waiting readers. Close is
// idempotent.
func (r *Ring[T]) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return nil
	}
	r.closed = true
	r.notEmpty.Broadcast()
	return nil
}
