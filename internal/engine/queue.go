package engine

import (
	"context"
	"sync"
)

// request is a call waiting for the Run loop.
type request struct {
	ctx   context.Context
	call  Call
	reply chan response
}

type response struct {
	result Result
	err    error
}

// callQueue is a thread-safe FIFO queue of requests.
//
// The queue is unbounded; HTTP handlers enqueue from many goroutines while
// the Run loop dequeues.
//
// The queue uses a channel for signaling to enable context-aware waiting
// in the Run loop (prevents goroutine hangs on context cancellation).
type callQueue struct {
	mu       sync.Mutex
	requests []*request
	closed   bool
	signal   chan struct{} // Signals request availability (buffered, size 1)
}

// newCallQueue creates an empty queue.
func newCallQueue() *callQueue {
	return &callQueue{
		requests: make([]*request, 0, 64),
		signal:   make(chan struct{}, 1),
	}
}

// Enqueue adds a request to the back of the queue.
// Returns false if the queue is closed.
func (q *callQueue) Enqueue(r *request) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return false
	}

	q.requests = append(q.requests, r)

	// Non-blocking: the buffer of 1 coalesces multiple signals.
	select {
	case q.signal <- struct{}{}:
	default:
	}

	return true
}

// TryDequeue attempts to dequeue without blocking.
// Returns (nil, false) if the queue is empty.
func (q *callQueue) TryDequeue() (*request, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.requests) == 0 {
		return nil, false
	}

	r := q.requests[0]

	// Nil out the slot so the backing array does not retain the request.
	q.requests[0] = nil

	if len(q.requests) == 1 {
		q.requests = q.requests[:0]
	} else {
		q.requests = q.requests[1:]
	}

	return r, true
}

// Wait returns a channel that signals when requests may be available.
// Use with select for context-aware waiting:
//
//	select {
//	case <-ctx.Done():
//	    return ctx.Err()
//	case <-q.Wait():
//	    // Try TryDequeue
//	}
func (q *callQueue) Wait() <-chan struct{} {
	return q.signal
}

// Len returns the current queue length.
func (q *callQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.requests)
}

// Close signals that no more requests will be enqueued.
// Wakes any blocked waiters by closing the signal channel.
func (q *callQueue) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return
	}

	q.closed = true
	close(q.signal)
}
