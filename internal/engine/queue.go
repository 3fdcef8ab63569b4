package engine

import "sync/atomic"

// RingQueue is a fixed-capacity multi-producer/multi-consumer ring queue.
//
// Each slot carries a sequence number; a producer may write a slot only when
// the sequence equals its claimed tail ticket, and a consumer may read it
// only when the sequence equals ticket+1. The atomic sequence store after a
// write publishes the slot data, so a consumer that observes the updated
// sequence also observes the fully written value, and symmetrically a
// producer that observes a recycled sequence knows the slot is free to
// reuse. Cursors increase monotonically and wrap via a capacity-1 bitmask;
// tail-head never exceeds capacity.
//
// The slot array is allocated once at construction. Enqueue and Dequeue do
// not allocate.
type RingQueue[T any] struct {
	slots []ringSlot[T]
	mask  uint64

	// Cursors padded apart so producers and consumers do not false-share a
	// cache line.
	_    [56]byte
	head atomic.Uint64
	_    [56]byte
	tail atomic.Uint64
}

type ringSlot[T any] struct {
	seq atomic.Uint64
	val T
}

// NewRingQueue creates a queue with the given capacity, which must be a
// power of two >= 2.
func NewRingQueue[T any](capacity int) (*RingQueue[T], error) {
	if capacity < 2 || capacity&(capacity-1) != 0 {
		return nil, &ConfigError{Field: "queue_capacity", Reason: "must be a power of two >= 2"}
	}
	q := &RingQueue[T]{
		slots: make([]ringSlot[T], capacity),
		mask:  uint64(capacity - 1),
	}
	for i := range q.slots {
		q.slots[i].seq.Store(uint64(i))
	}
	return q, nil
}

// Enqueue appends v, or returns ErrQueueFull without blocking when the queue
// is at capacity.
func (q *RingQueue[T]) Enqueue(v T) error {
	for {
		t := q.tail.Load()
		s := &q.slots[t&q.mask]
		seq := s.seq.Load()
		switch {
		case seq == t:
			if q.tail.CompareAndSwap(t, t+1) {
				s.val = v
				s.seq.Store(t + 1)
				return nil
			}
		case seq < t:
			// Slot not yet recycled by the consumer side: full.
			return ErrQueueFull
		}
		// seq > t: another producer won this ticket; reload and retry.
	}
}

// Dequeue removes the oldest value, or returns false without blocking when
// the queue is empty.
func (q *RingQueue[T]) Dequeue() (T, bool) {
	var zero T
	for {
		h := q.head.Load()
		s := &q.slots[h&q.mask]
		seq := s.seq.Load()
		switch {
		case seq == h+1:
			if q.head.CompareAndSwap(h, h+1) {
				v := s.val
				s.val = zero
				s.seq.Store(h + uint64(len(q.slots)))
				return v, true
			}
		case seq < h+1:
			return zero, false
		}
	}
}

// Size reports the current element count. It races with concurrent
// producers and consumers, so treat it as approximate.
func (q *RingQueue[T]) Size() int {
	h := q.head.Load()
	t := q.tail.Load()
	if t < h {
		return 0
	}
	n := t - h
	if n > uint64(len(q.slots)) {
		n = uint64(len(q.slots))
	}
	return int(n)
}

// Capacity returns the fixed capacity chosen at construction.
func (q *RingQueue[T]) Capacity() int { return len(q.slots) }

// Empty reports whether the queue appears empty. Approximate under
// concurrency.
func (q *RingQueue[T]) Empty() bool { return q.Size() == 0 }

// Full reports whether the queue appears full. Approximate under
// concurrency.
func (q *RingQueue[T]) Full() bool { return q.Size() == len(q.slots) }

// FillRatio returns Size/Capacity in [0,1]. Approximate under concurrency.
func (q *RingQueue[T]) FillRatio() float64 {
	return float64(q.Size()) / float64(len(q.slots))
}
