// Copyright 2026 The DbLogger Authors
// SPDX-License-Identifier: Apache-2.0

package entry

import (
	"fmt"
	"runtime"
	"strings"
)

// libraryPrefix identifies frames that belong to DbLogger itself.
// They say nothing about which application code ran the command.
const libraryPrefix = "github.com/dblogger/dblogger/lib/"

// maxStackDepth bounds the captured frames.
const maxStackDepth = 64

// captureStackTrace formats the calling goroutine's stack, skipping
// skip frames above captureStackTrace's caller, DbLogger library
// frames, and runtime frames.
func captureStackTrace(skip int) string {
	pcs := make([]uintptr, maxStackDepth)
	count := runtime.Callers(skip+1, pcs)
	frames := runtime.CallersFrames(pcs[:count])

	var builder strings.Builder
	for {
		frame, more := frames.Next()
		if !isLibraryFrame(frame.Function) {
			fmt.Fprintf(&builder, "%s\n\t%s:%d\n", frame.Function, frame.File, frame.Line)
		}
		if !more {
			break
		}
	}
	return strings.TrimSuffix(builder.String(), "\n")
}

func isLibraryFrame(function string) bool {
	return function == "" ||
		strings.HasPrefix(function, libraryPrefix) ||
		strings.HasPrefix(function, "runtime.")
}
