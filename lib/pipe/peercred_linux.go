// Copyright 2026 The DbLogger Authors
// SPDX-License-Identifier: Apache-2.0

//go:build linux

package pipe

import (
	"fmt"
	"net"
	"os"

	"golang.org/x/sys/unix"
)

// verifyPeer checks that the process on the other end of conn runs as
// the same user as this one. The socket file is already mode 0600;
// this also covers sockets in directories shared with other users.
func verifyPeer(conn *net.UnixConn) error {
	raw, err := conn.SyscallConn()
	if err != nil {
		return fmt.Errorf("peer credentials: %w", err)
	}

	var credentials *unix.Ucred
	var sockoptErr error
	if err := raw.Control(func(fd uintptr) {
		credentials, sockoptErr = unix.GetsockoptUcred(int(fd), unix.SOL_SOCKET, unix.SO_PEERCRED)
	}); err != nil {
		return fmt.Errorf("peer credentials: %w", err)
	}
	if sockoptErr != nil {
		return fmt.Errorf("peer credentials: SO_PEERCRED: %w", sockoptErr)
	}

	if want := uint32(os.Getuid()); credentials.Uid != want {
		return fmt.Errorf("peer pid %d runs as uid %d, want %d", credentials.Pid, credentials.Uid, want)
	}
	return nil
}
