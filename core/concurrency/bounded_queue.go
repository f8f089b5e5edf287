// File: core/concurrency/bounded_queue.go
// Package concurrency provides the bounded FIFO used between workers.
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Storage is an eapache ring buffer guarded by a mutex; two token channels
// count free capacity and ready items so producers and consumers can block
// with a deadline or a context instead of spinning.

package concurrency

import (
	"context"
	"sync"
	"time"

	"github.com/eapache/queue"
)

// BoundedQueue is a blocking FIFO holding at most Cap() elements.
// A full queue blocks producers; nothing is ever dropped or overwritten.
type BoundedQueue[T any] struct {
	mu       sync.Mutex
	ring     *queue.Queue
	capacity int

	free  chan struct{} // one token per empty cell
	ready chan struct{} // one token per stored element
}

// NewBoundedQueue allocates a queue with the given bound.
func NewBoundedQueue[T any](capacity int) (*BoundedQueue[T], error) {
	if capacity <= 0 {
		return nil, ErrInvalidCapacity
	}
	q := &BoundedQueue[T]{
		ring:     queue.New(),
		capacity: capacity,
		free:     make(chan struct{}, capacity),
		ready:    make(chan struct{}, capacity),
	}
	for i := 0; i < capacity; i++ {
		q.free <- struct{}{}
	}
	return q, nil
}

// Push appends v, blocking while the queue is full or until ctx is done.
func (q *BoundedQueue[T]) Push(ctx context.Context, v T) error {
	select {
	case <-q.free:
	case <-ctx.Done():
		return ctx.Err()
	}
	q.store(v)
	return nil
}

// TryPush appends v only if capacity is available right now.
func (q *BoundedQueue[T]) TryPush(v T) bool {
	select {
	case <-q.free:
	default:
		return false
	}
	q.store(v)
	return true
}

// PushTimeout appends v, waiting at most d for capacity.
// A non-positive d never waits.
func (q *BoundedQueue[T]) PushTimeout(v T, d time.Duration) error {
	if d <= 0 {
		if q.TryPush(v) {
			return nil
		}
		return ErrQueueFull
	}
	ctx, cancel := context.WithTimeout(context.Background(), d)
	defer cancel()
	return q.Push(ctx, v)
}

// Pop removes the oldest element, blocking until one exists or ctx is done.
func (q *BoundedQueue[T]) Pop(ctx context.Context) (T, error) {
	select {
	case <-q.ready:
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
	return q.take(), nil
}

// TryPop removes the oldest element if one is ready.
func (q *BoundedQueue[T]) TryPop() (T, bool) {
	select {
	case <-q.ready:
	default:
		var zero T
		return zero, false
	}
	return q.take(), true
}

// Len returns the number of stored elements.
func (q *BoundedQueue[T]) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.ring.Length()
}

// Cap returns the bound.
func (q *BoundedQueue[T]) Cap() int {
	return q.capacity
}

func (q *BoundedQueue[T]) store(v T) {
	q.mu.Lock()
	q.ring.Add(v)
	q.mu.Unlock()
	q.ready <- struct{}{}
}

func (q *BoundedQueue[T]) take() T {
	q.mu.Lock()
	v, _ := q.ring.Remove().(T)
	q.mu.Unlock()
	q.free <- struct{}{}
	return v
}
