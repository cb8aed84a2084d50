// Copyright 2026 The DbLogger Authors
// SPDX-License-Identifier: Apache-2.0

// Package testutil provides shared test helpers for DbLogger packages.
//
// [SocketDir] creates a short temporary directory for unix domain
// sockets. sun_path is limited to 108 bytes and t.TempDir() paths can
// exceed that on CI machines.
//
// [RequireReceive] and [RequireClosed] wrap the select-with-timeout
// safety valve so tests never hang on a channel. These are the only
// places in the test suite that wait on the wall clock.
//
// [UniqueID] hands out monotonically increasing identifiers for source
// names and record text that must be distinguishable across tests.
//
// All helpers call t.Fatalf on failure.
package testutil
