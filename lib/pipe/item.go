// Copyright 2026 The DbLogger Authors
// SPDX-License-Identifier: Apache-2.0

package pipe

import (
	"errors"
	"fmt"

	"github.com/dblogger/dblogger/lib/entry"
)

// ProtocolVersion is the wire version stamped on every Item. Readers
// reject items with any other version.
const ProtocolVersion = 1

// ErrInvalidItem is wrapped by every Validate failure.
var ErrInvalidItem = errors.New("invalid pipe item")

// Item is one unit of the pipe protocol: either a reset marker or an
// entry, never both.
type Item struct {
	Version int           `cbor:"v"`
	Reset   bool          `cbor:"reset,omitempty"`
	Entry   *EntryPayload `cbor:"entry,omitempty"`

	// Session identifies the Writer that produced the item. Stamped
	// by the writer on enqueue.
	Session string `cbor:"session,omitempty"`
}

// EntryPayload is the wire form of an entry.Record. Exactly one of
// Text or Compressed is set, depending on Compression.
type EntryPayload struct {
	SourceName  string      `cbor:"source_name"`
	Text        string      `cbor:"text,omitempty"`
	StackTrace  string      `cbor:"stack_trace,omitempty"`
	Compression Compression `cbor:"compression,omitempty"`
	Compressed  []byte      `cbor:"compressed,omitempty"`

	// Size is the uncompressed text length in bytes. Only set when
	// Compression is not CompressionNone.
	Size int `cbor:"size,omitempty"`
}

// ResetItem returns a reset marker.
func ResetItem() Item {
	return Item{Version: ProtocolVersion, Reset: true}
}

// EntryItem returns an uncompressed entry item for record.
func EntryItem(record *entry.Record) Item {
	return Item{
		Version: ProtocolVersion,
		Entry: &EntryPayload{
			SourceName: record.SourceName(),
			Text:       record.Text(),
			StackTrace: record.StackTrace(),
		},
	}
}

// CompressedEntryItem returns an entry item whose text is compressed
// with algorithm when it is at least threshold bytes long. Text that
// does not shrink is sent uncompressed.
func CompressedEntryItem(record *entry.Record, algorithm Compression, threshold int) (Item, error) {
	item := EntryItem(record)
	if algorithm == CompressionNone || len(item.Entry.Text) < threshold {
		return item, nil
	}

	compressed, err := compress([]byte(item.Entry.Text), algorithm)
	if errors.Is(err, errIncompressible) {
		return item, nil
	}
	if err != nil {
		return Item{}, fmt.Errorf("compressing entry from %q: %w", record.SourceName(), err)
	}

	item.Entry.Size = len(item.Entry.Text)
	item.Entry.Text = ""
	item.Entry.Compression = algorithm
	item.Entry.Compressed = compressed
	return item, nil
}

// Validate checks the structural invariants a reader relies on.
func (item *Item) Validate() error {
	if item.Version != ProtocolVersion {
		return fmt.Errorf("%w: unsupported version %d", ErrInvalidItem, item.Version)
	}
	if item.Reset && item.Entry != nil {
		return fmt.Errorf("%w: both reset and entry are set", ErrInvalidItem)
	}
	if !item.Reset && item.Entry == nil {
		return fmt.Errorf("%w: neither reset nor entry is set", ErrInvalidItem)
	}
	if item.Entry == nil {
		return nil
	}

	payload := item.Entry
	if payload.SourceName == "" {
		return fmt.Errorf("%w: entry has no source name", ErrInvalidItem)
	}
	switch payload.Compression {
	case CompressionNone:
		if len(payload.Compressed) != 0 || payload.Size != 0 {
			return fmt.Errorf("%w: uncompressed entry carries compressed data", ErrInvalidItem)
		}
	case CompressionLZ4, CompressionZstd:
		if payload.Text != "" {
			return fmt.Errorf("%w: compressed entry also carries text", ErrInvalidItem)
		}
		if len(payload.Compressed) == 0 || payload.Size <= 0 {
			return fmt.Errorf("%w: compressed entry is missing data or size", ErrInvalidItem)
		}
	default:
		return fmt.Errorf("%w: unknown compression %s", ErrInvalidItem, payload.Compression)
	}
	return nil
}

// Record rebuilds the entry.Record an entry item carries, decompressing
// the text if needed.
func (item *Item) Record() (*entry.Record, error) {
	if err := item.Validate(); err != nil {
		return nil, err
	}
	if item.Entry == nil {
		return nil, fmt.Errorf("%w: reset item carries no record", ErrInvalidItem)
	}

	payload := item.Entry
	text := payload.Text
	if payload.Compression != CompressionNone {
		decompressed, err := decompress(payload.Compressed, payload.Compression, payload.Size)
		if err != nil {
			return nil, fmt.Errorf("entry from %q: %w", payload.SourceName, err)
		}
		text = string(decompressed)
	}
	return entry.Restore(payload.SourceName, text, payload.StackTrace), nil
}

// String returns a short description for logs.
func (item *Item) String() string {
	if item.Reset {
		return "reset"
	}
	if item.Entry != nil {
		return fmt.Sprintf("entry(%s)", item.Entry.SourceName)
	}
	return "empty"
}
