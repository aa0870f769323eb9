package ws

import (
	"context"
	"errors"
	"sync"
)

var (
	ErrQueueClosed = errors.New("queue closed")
	ErrQueueFull   = errors.New("queue full")
)

// Queue is a session's outbound FIFO of serialized frames.
// Push never blocks. With a positive limit, a push that would exceed it
// closes the queue so the slow consumer gets disconnected.
type Queue struct {
	mu     sync.Mutex
	items  [][]byte
	limit  int
	closed bool
	ready  chan struct{}
}

// NewQueue returns an empty queue. A limit of 0 means unbounded.
func NewQueue(limit int) *Queue {
	return &Queue{
		limit: limit,
		ready: make(chan struct{}, 1),
	}
}

func (q *Queue) Push(frame []byte) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return ErrQueueClosed
	}
	if q.limit > 0 && len(q.items) >= q.limit {
		q.closeLocked()
		return ErrQueueFull
	}

	q.items = append(q.items, frame)

	select {
	case q.ready <- struct{}{}:
	default:
	}
	return nil
}

// Pop blocks until a frame is available, the queue is closed or ctx is done.
// Frames still pending when the queue closes are discarded.
func (q *Queue) Pop(ctx context.Context) ([]byte, error) {
	for {
		q.mu.Lock()
		if q.closed {
			q.mu.Unlock()
			return nil, ErrQueueClosed
		}
		if len(q.items) > 0 {
			frame := q.items[0]
			q.items[0] = nil
			q.items = q.items[1:]
			q.mu.Unlock()
			return frame, nil
		}
		q.mu.Unlock()

		select {
		case <-q.ready:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
}

// Close is idempotent.
func (q *Queue) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.closeLocked()
}

func (q *Queue) closeLocked() {
	if q.closed {
		return
	}
	q.closed = true
	q.items = nil
	close(q.ready)
}

func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}
