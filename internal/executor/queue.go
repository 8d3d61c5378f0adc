package executor

import "sync/atomic"

// DefaultQueueCapacity bounds pending fills between executor and engine.
const DefaultQueueCapacity = 1024

// FillQueue is a bounded single-producer single-consumer ring. When full
// it drops the INCOMING fill and counts it: the fills already queued are
// older and must reach the ledger in arrival order, so displacing them
// for a newer fill would silently reorder accounting. A non-zero dropped
// counter means the ledger is no longer trustworthy; the engine treats it
// as fatal.
type FillQueue struct {
	buf     []Fill
	mask    uint64
	head    atomic.Uint64 // next slot to pop (consumer-owned)
	tail    atomic.Uint64 // next slot to push (producer-owned)
	dropped atomic.Uint64
}

// NewFillQueue returns a queue with the given capacity rounded up to a
// power of two. Capacity zero gets the default.
func NewFillQueue(capacity int) *FillQueue {
	if capacity <= 0 {
		capacity = DefaultQueueCapacity
	}
	n := 1
	for n < capacity {
		n <<= 1
	}
	return &FillQueue{buf: make([]Fill, n), mask: uint64(n - 1)}
}

// Push enqueues f. Returns false when the queue is full; the fill is
// dropped and the dropped counter advances.
func (q *FillQueue) Push(f Fill) bool {
	tail := q.tail.Load()
	if tail-q.head.Load() == uint64(len(q.buf)) {
		q.dropped.Add(1)
		return false
	}
	q.buf[tail&q.mask] = f
	q.tail.Store(tail + 1)
	return true
}

// Pop dequeues the oldest fill. The second result is false when empty.
func (q *FillQueue) Pop() (Fill, bool) {
	head := q.head.Load()
	if head == q.tail.Load() {
		return Fill{}, false
	}
	f := q.buf[head&q.mask]
	q.head.Store(head + 1)
	return f, true
}

// Len returns the number of fills currently queued.
func (q *FillQueue) Len() int {
	return int(q.tail.Load() - q.head.Load())
}

// Cap returns the queue capacity.
func (q *FillQueue) Cap() int { return len(q.buf) }

// Dropped returns the monotonic count of fills lost to overflow. It
// never resets for the life of the queue.
func (q *FillQueue) Dropped() uint64 { return q.dropped.Load() }

// NearCapacity reports over 75% occupancy, an early consumer-lag signal.
func (q *FillQueue) NearCapacity() bool {
	return q.Len() > len(q.buf)*3/4
}
