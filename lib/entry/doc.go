// Copyright 2026 The DbLogger Authors
// SPDX-License-Identifier: Apache-2.0

// Package entry defines Record, the immutable log record produced when
// the fragments written by a database-access layer's logging hook are
// reassembled.
//
// A Record holds a source name (typically the name of the database
// context type that produced the trace) and the raw text of every
// fragment that belonged to one command. Everything else is derived
// from the text on first access and cached:
//
//   - Timestamp: from the last "-- Executing at ..." line.
//   - DurationMilliseconds: from the last "-- Completed in N ms",
//     "-- Failed in N ms", or "-- Canceled in N ms" line.
//   - Query: the text with every "--" comment line removed, i.e. the
//     shape of the SQL.
//   - QueryAndParameters: the text with only the status lines removed,
//     so parameter-binding comments survive. Two records with equal
//     QueryAndParameters are the same invocation.
//
// Derivation never fails. Text that carries no recognizable markers
// simply has no timestamp or duration.
//
// New also captures the goroutine's stack at construction time, with
// the frames of DbLogger's own lib/ packages removed, so a viewer can
// show which application code issued the command.
package entry
