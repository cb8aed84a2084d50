// Copyright 2026 The DbLogger Authors
// SPDX-License-Identifier: Apache-2.0

// Package pipe carries records from an instrumented process to a
// viewer in another process over a unix socket.
//
// The producing side runs a [Writer]. It is a capture.Sink: Write and
// Reset enqueue an [Item] and return immediately, and one background
// goroutine delivers the queue in order. The consuming side runs a
// [Reader], which dials the writer's socket in a loop and hands every
// received record or reset to its observers.
//
// # Wire protocol
//
// The writer listens; the reader connects. Each connection carries
// exactly one Item:
//
//  1. The writer accepts one connection and checks that the peer runs
//     as the same user (linux only).
//  2. The writer encodes the Item as a single CBOR value and
//     half-closes its side.
//  3. The reader decodes the value (CBOR is self-delimiting), notifies
//     its observers, and closes the connection.
//  4. The writer treats the reader's close as confirmation that the
//     item was consumed, bounded by its drain timeout.
//
// The reader redials immediately after each item. When no writer is
// listening, it backs off for ReconnectBackoff before trying again.
// Readers and writers can therefore start and stop in any order:
// items queued while no reader is connected wait in the writer's queue.
//
// An Item is either a reset marker or an entry:
//
//	{"v": 1, "reset": true, "session": "..."}
//	{"v": 1, "entry": {"source_name": "BlogContext", "text": "SELECT 1", "stack_trace": "..."}, "session": "..."}
//
// Entry text at or above the writer's compression threshold travels
// compressed ("compression", "compressed", "size" replace "text").
// "session" is a per-writer UUID so a reader can tell when the
// producing process restarted.
//
// # Shutdown
//
// Both ends shut down cooperatively. [Writer.Close] refuses further
// sends, gives queued items a grace period to reach a reader, then
// cancels the loop and discards what is left. [Reader.Close] cancels
// the loop, which closes any connection the reader is blocked on, and
// waits a bounded time for the goroutine to exit.
package pipe
