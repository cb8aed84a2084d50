// Copyright 2026 The DbLogger Authors
// SPDX-License-Identifier: Apache-2.0

// Package cli holds what the dblogger-feed and dblogger-tail entry
// points share: the diagnostic logger, the common flags, and usage
// errors.
//
// Diagnostics always go to stderr. With logging.format "auto", a
// terminal gets slog's text handler and anything else (CI, a pipe
// into a log collector) gets JSON.
package cli
