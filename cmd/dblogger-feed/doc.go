// Copyright 2026 The DbLogger Authors
// SPDX-License-Identifier: Apache-2.0

// dblogger-feed replays SQL trace text into the capture pipeline. It
// stands in for an application's logging hook: each input line becomes
// one fragment and a blank line completes the record, so a saved trace
// can be sent to the file sink, to a running dblogger-tail, or both.
//
// Usage:
//
//	dblogger-feed --source BlogContext [--file trace.sql] [--reset]
//	    [--pipe | --no-pipe] [--socket PATH] [--log-dir DIR]
//
// Input is read from stdin unless --file is given. Trailing text with
// no closing blank line is completed at end of input.
package main
