// Copyright 2026 The DbLogger Authors
// SPDX-License-Identifier: Apache-2.0

package capture

import "github.com/dblogger/dblogger/lib/entry"

// Sink consumes completed records. Implementations live in lib/sink
// (file, function) and lib/pipe (cross-process writer).
//
// Write is called synchronously on the goroutine that completed the
// record and may be called concurrently for records of different
// sources. Reset clears whatever the sink has accumulated; when that
// takes effect is up to the sink.
type Sink interface {
	Write(record *entry.Record) error
	Reset() error
}
