// Copyright 2026 The DbLogger Authors
// SPDX-License-Identifier: Apache-2.0

// Package stats tracks how often the same statement shows up in a
// stream of records, and rates how slow a command was.
//
// Two counts are kept per record: how many records shared its Query
// (same SQL shape, any parameters) and how many shared its
// QueryAndParameters (the same invocation repeated). A high query
// count with low invocation counts usually means a loop issuing one
// command per row; a high invocation count means the same data is
// fetched again and again.
//
// Counts are keyed by BLAKE3 digests, so long statements are not
// retained.
package stats
