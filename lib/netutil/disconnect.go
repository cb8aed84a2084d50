// Copyright 2026 The DbLogger Authors
// SPDX-License-Identifier: Apache-2.0

package netutil

import (
	"errors"
	"io"
	"net"
	"syscall"
)

// IsDisconnect reports whether err means the peer went away: EOF, a
// closed connection, a broken pipe, or a reset. A peer that closes a
// connection still sitting in its listener's backlog produces a reset
// rather than EOF.
func IsDisconnect(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, io.EOF) || errors.Is(err, net.ErrClosed) {
		return true
	}
	return errors.Is(err, syscall.ECONNRESET) || errors.Is(err, syscall.EPIPE)
}
