// Copyright 2026 The DbLogger Authors
// SPDX-License-Identifier: Apache-2.0

// Package clock provides an injectable time source for the pipe
// writer and reader.
//
// Both transport loops wait on time: the reader backs off between
// failed connection attempts and bounds how long Close waits for its
// goroutine, and the writer bounds how long Close waits for the queue
// to drain. Routing those waits through a Clock lets tests drive the
// loops deterministically:
//
//	fake := clock.Fake(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
//	reader := pipe.NewReader(pipe.ReaderConfig{Clock: fake, ...})
//	fake.WaitForTimers(1)             // reader registered its backoff
//	fake.Advance(100 * time.Millisecond)
//
// WaitForTimers blocks until a goroutine has registered the expected
// number of pending waits, which removes the race between a loop
// arming its timer and the test advancing the clock.
package clock
