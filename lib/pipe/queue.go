// Copyright 2026 The DbLogger Authors
// SPDX-License-Identifier: Apache-2.0

package pipe

import "sync"

// queue is the writer's unbounded FIFO. Pushes never block. The head
// stays in the queue while it is being sent and is popped afterwards,
// so an empty queue means nothing is in flight either.
type queue struct {
	mu      sync.Mutex
	items   []Item
	closed  bool
	notify  chan struct{}
	waiters []chan struct{}
}

func newQueue() *queue {
	return &queue{notify: make(chan struct{}, 1)}
}

// push appends item. It returns ErrClosed once close has been called.
func (q *queue) push(item Item) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return ErrClosed
	}
	q.items = append(q.items, item)

	// Non-blocking wake-up for the writer loop.
	select {
	case q.notify <- struct{}{}:
	default:
	}
	return nil
}

// peek returns the oldest item without removing it.
func (q *queue) peek() (Item, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.items) == 0 {
		return Item{}, false
	}
	return q.items[0], true
}

// pop removes the oldest item and wakes emptied waiters if the queue
// became empty.
func (q *queue) pop() {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.items) == 0 {
		return
	}
	q.items[0] = Item{}
	q.items = q.items[1:]
	if len(q.items) == 0 {
		q.releaseWaiters()
	}
}

// emptied returns a channel that is closed once the queue is empty.
func (q *queue) emptied() <-chan struct{} {
	q.mu.Lock()
	defer q.mu.Unlock()
	waiter := make(chan struct{})
	if len(q.items) == 0 {
		close(waiter)
		return waiter
	}
	q.waiters = append(q.waiters, waiter)
	return waiter
}

// close refuses further pushes.
func (q *queue) close() {
	q.mu.Lock()
	q.closed = true
	q.mu.Unlock()
}

// discard drops every queued item and returns how many there were.
func (q *queue) discard() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	count := len(q.items)
	q.items = nil
	q.releaseWaiters()
	return count
}

func (q *queue) len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

// wake returns the channel signalled on every push.
func (q *queue) wake() <-chan struct{} {
	return q.notify
}

// releaseWaiters must be called with q.mu held.
func (q *queue) releaseWaiters() {
	for _, waiter := range q.waiters {
		close(waiter)
	}
	q.waiters = nil
}
