// Copyright 2026 The DbLogger Authors
// SPDX-License-Identifier: Apache-2.0

// Package capture turns the text fragments emitted by a database
// layer's logging hook into complete records and fans each record out
// to the registered sinks.
//
// The hook writes a command trace in pieces: the SQL, one comment line
// per bound parameter, an "Executing" status line, and a "Completed"
// (or "Failed", "Canceled") line, followed by a fragment that is
// exactly entry.Newline. That last fragment is the completion marker.
// An [Assembler] buffers fragments per source until the marker
// arrives, then hands an [entry.Record] to its completion handler.
//
// A [Router] owns one Assembler per source name (looked up
// case-insensitively) and an ordered list of [Sink] values. Every
// completed record is written to every sink, synchronously, in
// registration order, on the goroutine that delivered the marker:
//
//	router := capture.NewRouter(capture.WithLogger(logger))
//	router.RegisterSink(fileSink)
//	router.RegisterSink(pipeWriter)
//	hook := router.Fragments("BlogContext")
//	hook("SELECT 1")
//	hook(entry.Newline) // record "SELECT 1" reaches both sinks
//
// Fragments for different sources may arrive on different goroutines
// concurrently. Fragments for one source are expected to come from one
// logical producer at a time; interleaving two commands on the same
// source produces mixed records, exactly as the hook would.
package capture
