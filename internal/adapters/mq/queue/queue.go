// Package queue buffers transactions between the intake surface and the
// scoring workers.
package queue

import (
	"context"
	"errors"
	"sync"

	"github.com/okian/vigil/internal/domain/model"
	"github.com/okian/vigil/pkg/metrics"
)

var (
	// ErrQueueFull signals backpressure; callers surface it as a retryable
	// rejection, never by blocking the intake path.
	ErrQueueFull = errors.New("transaction queue is full")
	ErrClosed    = errors.New("transaction queue is closed")
)

const defaultSize = 100_000

// Queue is a bounded in-process transaction buffer.
type Queue struct {
	mu     sync.RWMutex
	ch     chan model.Transaction
	closed bool
}

// New builds a queue with the given capacity. Non-positive capacities fall
// back to the default.
func New(size int) *Queue {
	if size <= 0 {
		size = defaultSize
	}
	metrics.UpdateQueueCapacity(size)
	return &Queue{ch: make(chan model.Transaction, size)}
}

// Enqueue adds a transaction without blocking. A full queue returns
// ErrQueueFull immediately.
func (q *Queue) Enqueue(txn model.Transaction) error {
	q.mu.RLock()
	defer q.mu.RUnlock()
	if q.closed {
		return ErrClosed
	}

	select {
	case q.ch <- txn:
		metrics.RecordQueueEnqueue()
		metrics.UpdateQueueSize(len(q.ch))
		return nil
	default:
		metrics.RecordQueueRejected()
		return ErrQueueFull
	}
}

// Dequeue blocks until a transaction is available, the context ends, or
// the queue closes and drains.
func (q *Queue) Dequeue(ctx context.Context) (model.Transaction, error) {
	select {
	case txn, ok := <-q.ch:
		if !ok {
			return model.Transaction{}, ErrClosed
		}
		metrics.RecordQueueDequeue()
		metrics.UpdateQueueSize(len(q.ch))
		return txn, nil
	case <-ctx.Done():
		return model.Transaction{}, ctx.Err()
	}
}

// Len returns the number of buffered transactions.
func (q *Queue) Len() int { return len(q.ch) }

// Cap returns the queue capacity.
func (q *Queue) Cap() int { return cap(q.ch) }

// Close stops intake. Buffered transactions remain dequeueable until the
// channel drains.
func (q *Queue) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return
	}
	q.closed = true
	close(q.ch)
}
