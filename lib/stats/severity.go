// Copyright 2026 The DbLogger Authors
// SPDX-License-Identifier: Apache-2.0

package stats

// DefaultSlowQueryMilliseconds is the duration rated fully slow.
const DefaultSlowQueryMilliseconds = 30000

// Severity rates a command's duration from 0 (instant) to 1 (at or
// beyond slowThresholdMilliseconds). A non-positive threshold selects
// DefaultSlowQueryMilliseconds; negative durations rate 0.
func Severity(durationMilliseconds, slowThresholdMilliseconds int) float64 {
	if slowThresholdMilliseconds <= 0 {
		slowThresholdMilliseconds = DefaultSlowQueryMilliseconds
	}
	ratio := float64(durationMilliseconds) / float64(slowThresholdMilliseconds)
	return min(max(ratio, 0), 1)
}
