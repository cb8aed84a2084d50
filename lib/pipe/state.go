// Copyright 2026 The DbLogger Authors
// SPDX-License-Identifier: Apache-2.0

package pipe

import "fmt"

// State is the connection state of a Writer or Reader loop.
type State int32

const (
	// StateIdle: between items, nothing in flight.
	StateIdle State = iota

	// StateConnecting: the writer is waiting to accept a reader, or
	// the reader is dialing.
	StateConnecting

	// StateConnected: an item is being sent or received.
	StateConnected

	// StateDraining: the writer has sent an item and waits for the
	// reader to close its side. Writers only.
	StateDraining

	// StateDisposed is terminal: Close has run or the loop exited.
	StateDisposed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	case StateDraining:
		return "draining"
	case StateDisposed:
		return "disposed"
	default:
		return fmt.Sprintf("State(%d)", int32(s))
	}
}
