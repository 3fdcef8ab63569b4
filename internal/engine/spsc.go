package engine

import "sync/atomic"

// SPSCQueue is the single-producer/single-consumer variant of the ring
// queue: exactly one goroutine may call Enqueue and exactly one may call
// Dequeue. With that contract no compare-and-swap is needed: the producer
// owns the tail cursor and the consumer owns the head cursor, and the
// atomic cursor store after a slot write is the release that makes the slot
// visible to the other side.
//
// FIFO order is guaranteed. Cursors are monotonic and wrap via a bitmask;
// head == tail means empty, tail-head == capacity means full.
type SPSCQueue[T any] struct {
	buf  []T
	mask uint64

	_    [56]byte
	head atomic.Uint64
	_    [56]byte
	tail atomic.Uint64
}

// NewSPSCQueue creates a queue with the given capacity, which must be a
// power of two >= 2.
func NewSPSCQueue[T any](capacity int) (*SPSCQueue[T], error) {
	if capacity < 2 || capacity&(capacity-1) != 0 {
		return nil, &ConfigError{Field: "queue_capacity", Reason: "must be a power of two >= 2"}
	}
	return &SPSCQueue[T]{
		buf:  make([]T, capacity),
		mask: uint64(capacity - 1),
	}, nil
}

// Enqueue appends v, or returns ErrQueueFull without blocking. Producer
// side only.
func (q *SPSCQueue[T]) Enqueue(v T) error {
	t := q.tail.Load()
	if t-q.head.Load() == uint64(len(q.buf)) {
		return ErrQueueFull
	}
	q.buf[t&q.mask] = v
	q.tail.Store(t + 1)
	return nil
}

// Dequeue removes the oldest value, or returns false without blocking.
// Consumer side only.
func (q *SPSCQueue[T]) Dequeue() (T, bool) {
	var zero T
	h := q.head.Load()
	if h == q.tail.Load() {
		return zero, false
	}
	v := q.buf[h&q.mask]
	q.buf[h&q.mask] = zero
	q.head.Store(h + 1)
	return v, true
}

// Size reports the current element count; approximate when read from a
// third goroutine.
func (q *SPSCQueue[T]) Size() int {
	h := q.head.Load()
	t := q.tail.Load()
	if t < h {
		return 0
	}
	n := t - h
	if n > uint64(len(q.buf)) {
		n = uint64(len(q.buf))
	}
	return int(n)
}

// Capacity returns the fixed capacity chosen at construction.
func (q *SPSCQueue[T]) Capacity() int { return len(q.buf) }

// Empty reports whether the queue appears empty.
func (q *SPSCQueue[T]) Empty() bool { return q.Size() == 0 }

// Full reports whether the queue appears full.
func (q *SPSCQueue[T]) Full() bool { return q.Size() == len(q.buf) }

// FillRatio returns Size/Capacity in [0,1].
func (q *SPSCQueue[T]) FillRatio() float64 {
	return float64(q.Size()) / float64(len(q.buf))
}
