// Copyright 2026 The DbLogger Authors
// SPDX-License-Identifier: Apache-2.0

package entry

import (
	"strconv"
	"strings"
	"time"
)

// Status line markers written by the ORM's log formatter.
const (
	ExecutingMarker      = "-- Executing at "
	ExecutingAsyncMarker = "-- Executing asynchronously at "
	CompletedMarker      = "-- Completed in "
	FailedMarker         = "-- Failed in "
	CanceledMarker       = "-- Canceled in "

	// CommentPrefix starts every SQL comment line, status lines
	// included.
	CommentPrefix = "--"
)

var (
	executingMarkers = []string{ExecutingMarker, ExecutingAsyncMarker}

	// timestampDelimiters precede the date on an executing line. The
	// plain form is tried first, matching how the formatter writes it.
	timestampDelimiters = []string{" at ", " asynchronously at "}

	durationMarkers = []string{CompletedMarker, FailedMarker, CanceledMarker}

	// statusPrefixes identify every line QueryAndParameters drops.
	// "-- Executing" covers both the plain and asynchronous forms.
	statusPrefixes = []string{"-- Executing", CompletedMarker, FailedMarker, CanceledMarker}

	commentPrefixes = []string{CommentPrefix}
)

// durationUnit terminates the number on a duration line.
const durationUnit = " ms"

// timestampLayouts are tried in order. The first is the format the
// formatter emits in the en-US culture ("10/8/2013 10:55:41 AM
// -07:00"); the rest cover ISO-style output from other cultures and
// adapters.
var timestampLayouts = []string{
	"1/2/2006 3:04:05 PM -07:00",
	"1/2/2006 3:04:05 PM",
	"2006-01-02 15:04:05 -07:00",
	"2006-01-02 15:04:05",
	time.RFC3339Nano,
	time.RFC3339,
}

type metadata struct {
	timestamp            time.Time
	hasTimestamp         bool
	durationMilliseconds int
	hasDuration          bool
	query                string
	queryAndParameters   string
}

func deriveMetadata(text string) metadata {
	lines := SplitLines(text)

	var m metadata
	m.timestamp, m.hasTimestamp = parseTimestamp(lines)
	m.durationMilliseconds, m.hasDuration = parseDuration(lines)
	m.query = filterLines(lines, commentPrefixes)
	m.queryAndParameters = filterLines(lines, statusPrefixes)
	return m
}

// parseTimestamp reads the date from the last executing line. A record
// may embed nested command traces; the last executing line belongs to
// the outermost invocation.
func parseTimestamp(lines []string) (time.Time, bool) {
	line, _, found := lastLineWithPrefix(lines, executingMarkers)
	if !found {
		return time.Time{}, false
	}
	value, found := afterFirst(line, timestampDelimiters)
	if !found {
		return time.Time{}, false
	}
	return ParseTimestamp(value)
}

// ParseTimestamp parses the date portion of an executing line. Values
// without a zone offset are interpreted in the local zone.
func ParseTimestamp(value string) (time.Time, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, false
	}
	for _, layout := range timestampLayouts {
		if parsed, err := time.ParseInLocation(layout, value, time.Local); err == nil {
			return parsed, true
		}
	}
	return time.Time{}, false
}

// parseDuration reads N from the last "... in N ms" status line.
func parseDuration(lines []string) (int, bool) {
	line, marker, found := lastLineWithPrefix(lines, durationMarkers)
	if !found {
		return 0, false
	}
	number, _, found := strings.Cut(strings.TrimPrefix(line, marker), durationUnit)
	if !found {
		return 0, false
	}
	milliseconds, err := strconv.Atoi(strings.TrimSpace(number))
	if err != nil {
		return 0, false
	}
	return milliseconds, true
}
