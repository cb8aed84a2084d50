// Copyright 2026 The DbLogger Authors
// SPDX-License-Identifier: Apache-2.0

// Package sink provides the in-process capture.Sink implementations.
//
// [FileSink] appends each record's text, followed by a blank line, to
// a per-source file named after the sanitized source name. Reset is
// deferred: it marks the sink, and the next write deletes the target
// file before appending, so a reset issued while no commands run
// leaves the old log readable until new output replaces it.
//
// [Func] adapts plain functions to capture.Sink for callers that want
// records delivered to their own code.
package sink
