// Copyright 2026 The DbLogger Authors
// SPDX-License-Identifier: Apache-2.0

package capture

import (
	"sync"

	"github.com/dblogger/dblogger/lib/entry"
)

// CompletionHandler receives each record an Assembler completes. Its
// error is returned to the caller that delivered the completion
// marker.
type CompletionHandler func(record *entry.Record) error

// Assembler accumulates fragments for one source and emits a record
// whenever the completion marker arrives.
type Assembler interface {
	// AddFragment appends text to the pending record, or completes the
	// record when text is exactly entry.Newline. The returned error is
	// the completion handler's.
	AddFragment(text string) error

	// SetCompletionHandler installs the handler notified for each
	// completed record, replacing any previous one.
	SetCompletionHandler(handler CompletionHandler)
}

// AssemblerFactory creates the Assembler for a newly seen source name.
type AssemblerFactory func(sourceName string) Assembler

// Builder is the default Assembler.
type Builder struct {
	sourceName string

	mu        sync.Mutex
	fragments []string
	handler   CompletionHandler
}

// NewBuilder returns a Builder for sourceName. It panics if sourceName
// is empty.
func NewBuilder(sourceName string) *Builder {
	if sourceName == "" {
		panic("capture.NewBuilder: source name is required")
	}
	return &Builder{sourceName: sourceName}
}

// SourceName returns the name records from this builder carry.
func (b *Builder) SourceName() string { return b.sourceName }

// SetCompletionHandler implements Assembler.
func (b *Builder) SetCompletionHandler(handler CompletionHandler) {
	b.mu.Lock()
	b.handler = handler
	b.mu.Unlock()
}

// AddFragment implements Assembler. The pending fragments are taken
// and cleared under the lock before the handler runs, so a handler
// that feeds the same builder starts a fresh record.
func (b *Builder) AddFragment(text string) error {
	b.mu.Lock()
	if text != entry.Newline {
		b.fragments = append(b.fragments, text)
		b.mu.Unlock()
		return nil
	}
	fragments := b.fragments
	b.fragments = nil
	handler := b.handler
	b.mu.Unlock()

	record := entry.New(b.sourceName, fragments)
	if handler == nil {
		return nil
	}
	return handler(record)
}

// Pending returns the number of fragments buffered for the record in
// progress.
func (b *Builder) Pending() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.fragments)
}
