// Copyright 2026 The DbLogger Authors
// SPDX-License-Identifier: Apache-2.0

package sink

import "github.com/dblogger/dblogger/lib/entry"

// Func delivers records to a function. A nil OnReset makes Reset a
// no-op.
type Func struct {
	OnWrite func(sourceName, text string) error
	OnReset func() error
}

// Write calls OnWrite with the record's source name and text.
func (f Func) Write(record *entry.Record) error {
	if f.OnWrite == nil {
		return nil
	}
	return f.OnWrite(record.SourceName(), record.Text())
}

// Reset calls OnReset if set.
func (f Func) Reset() error {
	if f.OnReset == nil {
		return nil
	}
	return f.OnReset()
}
