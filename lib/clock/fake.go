// Copyright 2026 The DbLogger Authors
// SPDX-License-Identifier: Apache-2.0

package clock

import (
	"sort"
	"sync"
	"time"
)

// Fake returns a FakeClock set to initial. Time stands still until
// Advance is called.
//
// FakeClock is safe for concurrent use by multiple goroutines.
func Fake(initial time.Time) *FakeClock {
	clock := &FakeClock{current: initial}
	clock.waitersChanged = sync.NewCond(&clock.mu)
	return clock
}

// FakeClock is a deterministic Clock for tests.
type FakeClock struct {
	mu             sync.Mutex
	current        time.Time
	waiters        []*fakeWaiter
	waitersChanged *sync.Cond
}

// fakeWaiter is one pending After call.
type fakeWaiter struct {
	deadline time.Time
	channel  chan time.Time
}

// Now returns the current fake time.
func (c *FakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.current
}

// After returns a channel that receives once the clock has been
// advanced by at least d. If d <= 0 the channel receives immediately
// and no waiter is registered.
func (c *FakeClock) After(d time.Duration) <-chan time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()

	channel := make(chan time.Time, 1)
	if d <= 0 {
		channel <- c.current
		return channel
	}

	c.waiters = append(c.waiters, &fakeWaiter{
		deadline: c.current.Add(d),
		channel:  channel,
	})
	c.waitersChanged.Broadcast()
	return channel
}

// Advance moves the clock forward by d and fires every waiter whose
// deadline is at or before the new time, in deadline order. Channel
// sends never block (each channel has capacity 1 and receives once).
func (c *FakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.current = c.current.Add(d)
	target := c.current

	var expired, remaining []*fakeWaiter
	for _, waiter := range c.waiters {
		if waiter.deadline.After(target) {
			remaining = append(remaining, waiter)
		} else {
			expired = append(expired, waiter)
		}
	}
	c.waiters = remaining
	c.waitersChanged.Broadcast()
	c.mu.Unlock()

	sort.Slice(expired, func(i, j int) bool {
		return expired[i].deadline.Before(expired[j].deadline)
	})
	for _, waiter := range expired {
		waiter.channel <- target
	}
}

// WaitForTimers blocks until at least n waiters are pending.
//
//	go func() { <-fake.After(time.Second) }()
//	fake.WaitForTimers(1)
//	fake.Advance(time.Second)
func (c *FakeClock) WaitForTimers(n int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for len(c.waiters) < n {
		c.waitersChanged.Wait()
	}
}

// PendingCount returns the number of registered, unfired waiters.
func (c *FakeClock) PendingCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.waiters)
}
