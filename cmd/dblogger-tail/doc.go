// Copyright 2026 The DbLogger Authors
// SPDX-License-Identifier: Apache-2.0

// dblogger-tail prints SQL records from producers as they arrive over
// the pipe.
//
// Each record is shown with its execution time, source name, and
// duration, shaded from white to red as it approaches the slow-query
// threshold. A query seen before in the session carries its count
// ("3x"); an exact repeat, parameters included, is flagged in red. A
// reset from the producer prints a separator and clears the counts.
//
// Usage:
//
//	dblogger-tail [--socket PATH] [--color auto|always|never]
//	    [--stack] [--slow-ms N]
//
// The tail runs until SIGINT or SIGTERM and reconnects whenever the
// producer restarts.
package main
