// Copyright 2026 The DbLogger Authors
// SPDX-License-Identifier: Apache-2.0

package cli

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"golang.org/x/term"

	"github.com/dblogger/dblogger/lib/config"
)

// NewLogger builds the diagnostic logger for a binary from its
// logging configuration. Callers scope it with With():
//
//	logger = logger.With("binary", "dblogger-tail", "socket", socketPath)
func NewLogger(logging config.LoggingConfig) (*slog.Logger, error) {
	return newLogger(os.Stderr, term.IsTerminal(int(os.Stderr.Fd())), logging)
}

func newLogger(output io.Writer, isTerminal bool, logging config.LoggingConfig) (*slog.Logger, error) {
	level, err := ParseLevel(logging.Level)
	if err != nil {
		return nil, err
	}
	options := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	switch logging.Format {
	case "text":
		handler = slog.NewTextHandler(output, options)
	case "json":
		handler = slog.NewJSONHandler(output, options)
	case "auto", "":
		if isTerminal {
			handler = slog.NewTextHandler(output, options)
		} else {
			handler = slog.NewJSONHandler(output, options)
		}
	default:
		return nil, fmt.Errorf("unknown log format %q", logging.Format)
	}
	return slog.New(handler), nil
}

// ParseLevel maps a configuration level name to a slog.Level. The
// empty string means info.
func ParseLevel(name string) (slog.Level, error) {
	switch name {
	case "debug":
		return slog.LevelDebug, nil
	case "info", "":
		return slog.LevelInfo, nil
	case "warn":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return 0, fmt.Errorf("unknown log level %q", name)
	}
}
