// Copyright 2026 The DbLogger Authors
// SPDX-License-Identifier: Apache-2.0

package entry

import (
	"runtime"
	"strings"
)

// Newline is the platform line terminator. A fragment consisting of
// exactly Newline marks the end of a record, and derived query text is
// rejoined with it.
var Newline = platformNewline(runtime.GOOS)

func platformNewline(goos string) string {
	if goos == "windows" {
		return "\r\n"
	}
	return "\n"
}

// SplitLines splits text into lines, accepting both "\n" and "\r\n"
// terminators so traces captured on either platform parse the same
// way. A trailing terminator produces a final empty line, and
// JoinLines(SplitLines(s)) reproduces s when s uses Newline.
func SplitLines(text string) []string {
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimSuffix(line, "\r")
	}
	return lines
}

// JoinLines joins lines with Newline.
func JoinLines(lines []string) string {
	return strings.Join(lines, Newline)
}

// hasAnyPrefix reports whether line starts with any of prefixes.
func hasAnyPrefix(line string, prefixes []string) bool {
	for _, prefix := range prefixes {
		if strings.HasPrefix(line, prefix) {
			return true
		}
	}
	return false
}

// lastLineWithPrefix scans lines from the end and returns the first
// one that starts with any of prefixes, along with the prefix that
// matched.
func lastLineWithPrefix(lines []string, prefixes []string) (line, prefix string, found bool) {
	for i := len(lines) - 1; i >= 0; i-- {
		for _, candidate := range prefixes {
			if strings.HasPrefix(lines[i], candidate) {
				return lines[i], candidate, true
			}
		}
	}
	return "", "", false
}

// afterFirst returns the remainder of s following the first delimiter
// (tried in order) that occurs in s.
func afterFirst(s string, delimiters []string) (string, bool) {
	for _, delimiter := range delimiters {
		if _, after, found := strings.Cut(s, delimiter); found {
			return after, true
		}
	}
	return "", false
}

// filterLines returns the lines that do not start with any of
// prefixes, joined with Newline.
func filterLines(lines []string, prefixes []string) string {
	kept := make([]string, 0, len(lines))
	for _, line := range lines {
		if !hasAnyPrefix(line, prefixes) {
			kept = append(kept, line)
		}
	}
	return JoinLines(kept)
}
