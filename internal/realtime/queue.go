// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Spyglass Contributors

package realtime

import (
	"context"
	"sync"
)

// Queue is an unbounded multi-producer work queue. Enqueue never blocks
// and never fails; Dequeue blocks until an item is available or the
// context is cancelled. Ordering is best-effort FIFO and items are not
// deduplicated, so consumers must tolerate redundant work.
type Queue[T any] struct {
	mu    sync.Mutex
	items []T
	// signal has capacity 1; it is topped up whenever items remain so a
	// waiting consumer wakes without a producer per item.
	signal chan struct{}
}

// NewQueue creates an empty queue.
func NewQueue[T any]() *Queue[T] {
	return &Queue[T]{signal: make(chan struct{}, 1)}
}

// Enqueue appends an item.
func (q *Queue[T]) Enqueue(item T) {
	q.mu.Lock()
	q.items = append(q.items, item)
	q.mu.Unlock()

	select {
	case q.signal <- struct{}{}:
	default:
	}
}

// Dequeue removes and returns the oldest item, blocking until one is
// available. Returns the context's error on cancellation.
func (q *Queue[T]) Dequeue(ctx context.Context) (T, error) {
	for {
		q.mu.Lock()
		if len(q.items) > 0 {
			item := q.items[0]
			q.items = q.items[1:]
			if len(q.items) > 0 {
				select {
				case q.signal <- struct{}{}:
				default:
				}
			}
			q.mu.Unlock()
			return item, nil
		}
		q.mu.Unlock()

		select {
		case <-ctx.Done():
			var zero T
			return zero, ctx.Err()
		case <-q.signal:
		}
	}
}

// Len returns the number of queued items.
func (q *Queue[T]) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}
