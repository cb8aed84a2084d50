// Copyright 2026 The DbLogger Authors
// SPDX-License-Identifier: Apache-2.0

package entry

import (
	"strings"
	"sync"
	"time"
)

// Record is one complete, immutable log entry. The zero value is not
// usable; construct with New or Restore. Records are shared by pointer
// between sinks and must not be copied.
type Record struct {
	sourceName string
	text       string
	stackTrace string

	metadataOnce sync.Once
	metadata     metadata
}

// New builds a Record from the fragments accumulated for sourceName.
// Fragments are joined with no separator: each fragment already carries
// its own line breaks. A nil or empty fragment list yields a record
// with empty text.
//
// The caller's stack is captured here. New panics if sourceName is
// empty; a record with no source is a caller defect.
func New(sourceName string, fragments []string) *Record {
	if sourceName == "" {
		panic("entry.New: source name is required")
	}
	return &Record{
		sourceName: sourceName,
		text:       strings.Join(fragments, ""),
		stackTrace: captureStackTrace(2),
	}
}

// Restore rebuilds a Record that was produced in another process, for
// example one received from the pipe. The producer's stack trace is
// kept as-is. Restore panics if sourceName is empty.
func Restore(sourceName, text, stackTrace string) *Record {
	if sourceName == "" {
		panic("entry.Restore: source name is required")
	}
	return &Record{
		sourceName: sourceName,
		text:       text,
		stackTrace: stackTrace,
	}
}

// SourceName returns the name of the logical producer.
func (r *Record) SourceName() string { return r.sourceName }

// Text returns the raw concatenation of every fragment of the record.
func (r *Record) Text() string { return r.text }

// StackTrace returns the stack captured when the record was built,
// one "function\n\tfile:line" pair per frame. Empty for records whose
// producer did not send one.
func (r *Record) StackTrace() string { return r.stackTrace }

// Timestamp returns the time the command started executing, taken from
// the last "Executing" status line. ok is false when no such line
// exists or its date does not parse.
func (r *Record) Timestamp() (timestamp time.Time, ok bool) {
	m := r.derived()
	return m.timestamp, m.hasTimestamp
}

// DurationMilliseconds returns the command's duration, taken from the
// last "Completed", "Failed", or "Canceled" status line. ok is false
// when no such line exists or the number does not parse.
func (r *Record) DurationMilliseconds() (milliseconds int, ok bool) {
	m := r.derived()
	return m.durationMilliseconds, m.hasDuration
}

// Query returns the text with every comment line ("--" prefix)
// removed.
func (r *Record) Query() string { return r.derived().query }

// QueryAndParameters returns the text with only the status lines
// removed. Parameter comments such as "-- @p0: '42' (Type = Int32)"
// are kept.
func (r *Record) QueryAndParameters() string { return r.derived().queryAndParameters }

func (r *Record) derived() *metadata {
	r.metadataOnce.Do(func() {
		r.metadata = deriveMetadata(r.text)
	})
	return &r.metadata
}
