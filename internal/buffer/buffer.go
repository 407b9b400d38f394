// Package buffer provides the bounded multi-producer, single-consumer
// FIFO queue between Emit callers and the sink's worker.
package buffer

import (
	"sync"
	"sync/atomic"

	"github.com/saleem-mirza/serilog-sinks-sqlite/event"
)

// Queue is a bounded thread-safe FIFO of log events.
//
// Producers enqueue without blocking: when the queue is at capacity the
// new event is dropped and counted, so a slow disk can never stall a
// producer's logging call. The consumer side pairs TryDequeue with Wait
// for context-aware draining.
//
// The signal channel is buffered with size 1 so bursts of enqueues
// coalesce into one wakeup. Close closes it, which wakes all waiters.
type Queue struct {
	mu      sync.Mutex
	events  []event.LogEvent
	cap     int
	closed  bool
	dropped atomic.Uint64
	signal  chan struct{}
}

// New creates an empty queue with the given hard capacity.
func New(capacity int) *Queue {
	initial := capacity
	if initial > 1024 {
		initial = 1024
	}
	return &Queue{
		events: make([]event.LogEvent, 0, initial),
		cap:    capacity,
		signal: make(chan struct{}, 1),
	}
}

// Enqueue adds an event to the back of the queue.
// Thread-safe: may be called from any goroutine.
//
// Returns false if the queue is closed or full. A full queue drops the
// new event (drop-new admission) and increments the dropped counter.
func (q *Queue) Enqueue(e event.LogEvent) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return false
	}
	if len(q.events) >= q.cap {
		q.dropped.Add(1)
		return false
	}

	q.events = append(q.events, e)

	// Signal availability (non-blocking - buffer of 1 coalesces signals).
	// Must happen under the mutex: Close closes the channel under the same
	// lock, so a send can never race a close.
	select {
	case q.signal <- struct{}{}:
	default:
	}

	return true
}

// TryDequeue attempts to dequeue without blocking.
// Returns (zero, false) if the queue is empty.
func (q *Queue) TryDequeue() (event.LogEvent, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.events) == 0 {
		return event.LogEvent{}, false
	}

	e := q.events[0]

	// Zero the slot so the backing array does not pin the event's
	// property map until reallocation.
	q.events[0] = event.LogEvent{}

	if len(q.events) == 1 {
		q.events = q.events[:0]
	} else {
		q.events = q.events[1:]
	}

	return e, true
}

// Wait returns a channel that signals when events may be available.
// The channel is closed when the queue is closed, so a receive after
// Close fires immediately:
//
//	select {
//	case <-done:
//	    return
//	case <-q.Wait():
//	    // TryDequeue until empty
//	}
func (q *Queue) Wait() <-chan struct{} {
	return q.signal
}

// Len returns the current queue length.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.events)
}

// Dropped returns the number of events rejected because the queue was at
// capacity.
func (q *Queue) Dropped() uint64 {
	return q.dropped.Load()
}

// Closed reports whether Close has been called.
func (q *Queue) Closed() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.closed
}

// Close rejects all further enqueues and wakes any blocked waiters.
// Events already queued remain dequeueable so the consumer can drain.
func (q *Queue) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return
	}

	q.closed = true
	close(q.signal)
}
