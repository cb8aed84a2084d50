// Copyright 2026 The DbLogger Authors
// SPDX-License-Identifier: Apache-2.0

package clock

import "time"

// Clock abstracts the time operations the transport loops depend on.
// Production code injects Real(); tests inject Fake() and move time
// forward explicitly.
//
// Socket deadlines are the exception: net.Conn deadlines are absolute
// wall-clock instants interpreted by the kernel, so they are always
// computed from time.Now.
type Clock interface {
	// Now returns the current time.
	Now() time.Time

	// After returns a channel that receives the current time after
	// duration d elapses. If d <= 0, the channel receives immediately.
	After(d time.Duration) <-chan time.Time
}
