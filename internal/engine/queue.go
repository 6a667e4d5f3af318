package engine

import (
	"context"
	"sync"

	"github.com/roach88/dxexplorer/internal/client"
)

// request is one submitted call and the channel its outcome is sent on.
type request struct {
	ctx  context.Context
	call *client.NetCall
	done chan error // buffered, size 1
}

func newRequest(ctx context.Context, call *client.NetCall) *request {
	return &request{ctx: ctx, call: call, done: make(chan error, 1)}
}

// callQueue is a thread-safe FIFO queue of requests.
//
// Any goroutine may enqueue; the engine's Run loop dequeues. The queue uses a
// channel for signaling so the Run loop can wait on it alongside ctx.Done().
type callQueue struct {
	mu       sync.Mutex
	requests []*request
	closed   bool
	signal   chan struct{} // Signals request availability (buffered, size 1)
}

func newCallQueue() *callQueue {
	return &callQueue{
		requests: make([]*request, 0, 8),
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

	// Non-blocking: a buffer of 1 coalesces multiple signals
	select {
	case q.signal <- struct{}{}:
	default:
	}

	return true
}

// TryDequeue removes the front request without blocking.
// Returns (nil, false) if the queue is empty.
func (q *callQueue) TryDequeue() (*request, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.requests) == 0 {
		return nil, false
	}

	r := q.requests[0]
	// Nil out the slot so the backing array does not pin the call
	q.requests[0] = nil
	if len(q.requests) == 1 {
		q.requests = q.requests[:0]
	} else {
		q.requests = q.requests[1:]
	}

	return r, true
}

// Wait returns a channel that signals when requests may be available.
// The channel is closed when the queue is closed.
func (q *callQueue) Wait() <-chan struct{} {
	return q.signal
}

// Len returns the current queue length.
func (q *callQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.requests)
}

// Close stops accepting requests and wakes any waiter.
func (q *callQueue) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return
	}

	q.closed = true
	close(q.signal)
}

// Drain removes and returns every queued request.
func (q *callQueue) Drain() []*request {
	q.mu.Lock()
	defer q.mu.Unlock()

	out := q.requests
	q.requests = nil
	return out
}
