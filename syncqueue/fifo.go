// Copyright 2026 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

// Package syncqueue implements the producer/consumer queue shared by
// the new-key event queue of a key store and the result queue of a
// cipher session.
package syncqueue

import (
	"context"
	"sync"

	"github.com/xyzzyz/cryptodev/errors"
	"github.com/xyzzyz/cryptodev/sync/ctxsync"
)

// FIFO implements a first-in, first-out producer-consumer queue. Thread
// safe. Consumers block on the queue's own condition ("queue is not
// empty or queue is closed"), evaluated under the queue lock, so a Put
// is never missed by a consumer that is about to wait.
type FIFO[T any] struct {
	mu     sync.Mutex
	cond   *ctxsync.Cond
	queue  []T
	closed bool
}

// NewFIFO creates an empty FIFO queue.
func NewFIFO[T any]() *FIFO[T] {
	q := &FIFO[T]{}
	q.cond = ctxsync.NewCond(&q.mu)
	return q
}

// Put appends v to the queue and wakes waiting consumers. Put fails
// with errors.Unavailable once the queue is closed.
func (q *FIFO[T]) Put(v T) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return errors.E(errors.Unavailable, "queue is closed")
	}
	q.queue = append(q.queue, v)
	q.cond.Broadcast()
	return nil
}

// Get removes and returns the oldest item, blocking while the queue is
// empty. If ctx is done first, Get returns an error of kind
// errors.Canceled and leaves the queue unchanged. Get on a closed,
// empty queue returns errors.Unavailable.
func (q *FIFO[T]) Get(ctx context.Context) (T, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if err := q.waitLocked(ctx); err != nil {
		var zero T
		return zero, err
	}
	return q.popLocked(), nil
}

// Consume calls fn with a pointer to the oldest item, under the queue
// lock, and removes the item if fn returns true. It reports whether
// the queue held an item. fn must not call back into q.
func (q *FIFO[T]) Consume(fn func(head *T) (pop bool)) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.queue) == 0 {
		return false
	}
	if fn(&q.queue[0]) {
		q.popLocked()
	}
	return true
}

// Wait blocks until the queue holds an item, ctx is done (errors.Canceled),
// or the queue is closed and empty (errors.Unavailable).
func (q *FIFO[T]) Wait(ctx context.Context) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.waitLocked(ctx)
}

// Len returns the number of queued items.
func (q *FIFO[T]) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.queue)
}

// Close marks the queue closed, wakes every waiter and returns the
// items that were still queued. Close is idempotent.
func (q *FIFO[T]) Close() []T {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.closed = true
	rest := q.queue
	q.queue = nil
	q.cond.Broadcast()
	return rest
}

func (q *FIFO[T]) waitLocked(ctx context.Context) error {
	for len(q.queue) == 0 {
		if q.closed {
			return errors.E(errors.Unavailable, "queue is closed")
		}
		if err := q.cond.Wait(ctx); err != nil {
			return errors.E(errors.Canceled, err, "waiting for queue")
		}
	}
	return nil
}

func (q *FIFO[T]) popLocked() T {
	v := q.queue[0]
	var zero T
	q.queue[0] = zero
	q.queue = q.queue[1:]
	return v
}
