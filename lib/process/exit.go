// Copyright 2026 The DbLogger Authors
// SPDX-License-Identifier: Apache-2.0

package process

import (
	"errors"
	"fmt"
	"io"
	"os"
)

// ExitError carries a specific exit code out of run(). Fatal exits
// with Code instead of 1.
type ExitError struct {
	Code int
	Err  error
}

func (e *ExitError) Error() string { return e.Err.Error() }

func (e *ExitError) Unwrap() error { return e.Err }

// Fatal writes "error: err" to stderr and exits. The exit code is 1
// unless err wraps an *ExitError.
func Fatal(err error) {
	os.Exit(report(os.Stderr, err))
}

// report writes err and returns the exit code Fatal should use.
func report(w io.Writer, err error) int {
	fmt.Fprintf(w, "error: %v\n", err)
	var exitError *ExitError
	if errors.As(err, &exitError) {
		return exitError.Code
	}
	return 1
}
