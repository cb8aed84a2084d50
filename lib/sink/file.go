// Copyright 2026 The DbLogger Authors
// SPDX-License-Identifier: Apache-2.0

package sink

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"sync"

	"github.com/dblogger/dblogger/lib/entry"
)

// FallbackFileName is used when sanitizing a source name leaves
// nothing.
const FallbackFileName = "NoSourceName"

// fileExtension is appended to every sanitized source name.
const fileExtension = ".log"

// unsafeFileNameRunes matches everything a log file name may not
// contain.
var unsafeFileNameRunes = regexp.MustCompile(`[^a-zA-Z0-9 -]`)

// FileSink appends records to "<directory>/<source>.log". It is safe
// for concurrent use.
type FileSink struct {
	directory string
	logger    *slog.Logger

	mu           sync.Mutex
	resetPending bool
}

// NewFileSink returns a FileSink rooted at directory, creating the
// directory if needed.
func NewFileSink(directory string, logger *slog.Logger) (*FileSink, error) {
	if directory == "" {
		return nil, errors.New("file sink: directory is required")
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	if err := os.MkdirAll(directory, 0o755); err != nil {
		return nil, fmt.Errorf("file sink: creating %s: %w", directory, err)
	}
	return &FileSink{directory: directory, logger: logger}, nil
}

// Directory returns the directory the sink writes into.
func (s *FileSink) Directory() string { return s.directory }

// Path returns the file a record from sourceName is appended to.
func (s *FileSink) Path(sourceName string) string {
	return filepath.Join(s.directory, FileName(sourceName))
}

// Write appends the record's text and a blank line. If a reset is
// pending, the target file is deleted first and the pending flag is
// cleared. The flag belongs to the sink, not to a source: only the
// first file written after a reset is truncated.
func (s *FileSink) Write(record *entry.Record) error {
	path := s.Path(record.SourceName())

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.resetPending {
		if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("file sink: removing %s: %w", path, err)
		}
		s.resetPending = false
		s.logger.Debug("log file reset", "path", path)
	}

	file, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("file sink: opening %s: %w", path, err)
	}
	_, writeErr := file.WriteString(record.Text() + entry.Newline + entry.Newline)
	closeErr := file.Close()
	if writeErr != nil {
		return fmt.Errorf("file sink: writing %s: %w", path, writeErr)
	}
	if closeErr != nil {
		return fmt.Errorf("file sink: closing %s: %w", path, closeErr)
	}
	return nil
}

// Reset marks the sink so the next Write starts its file over. Nothing
// is deleted until then.
func (s *FileSink) Reset() error {
	s.mu.Lock()
	s.resetPending = true
	s.mu.Unlock()
	return nil
}

// FileName returns the log file name for sourceName: every character
// other than ASCII letters, digits, space, and hyphen is removed, and
// ".log" appended.
func FileName(sourceName string) string {
	name := unsafeFileNameRunes.ReplaceAllString(sourceName, "")
	if name == "" {
		name = FallbackFileName
	}
	return name + fileExtension
}
