// Copyright 2026 The DbLogger Authors
// SPDX-License-Identifier: Apache-2.0

package version

import (
	"fmt"
	"runtime"
	"runtime/debug"
)

// These variables are set via -ldflags at build time.
var (
	GitCommit = "unknown"
	GitDirty  = "false"
	BuildTime = "unknown"
	Version   = "0.1.0-dev"
)

// Info returns a formatted version string suitable for --version
// output, e.g. "0.1.0-dev (abc1234-dirty, 2026-03-01T10:00:00Z)".
func Info() string {
	commit, dirty, built := GitCommit, GitDirty == "true", BuildTime
	if commit == "unknown" {
		commit, dirty, built = fromBuildInfo(commit, dirty, built)
	}
	suffix := ""
	if dirty {
		suffix = "-dirty"
	}
	return fmt.Sprintf("%s (%s%s, %s)", Version, commit, suffix, built)
}

// Full returns Info plus the Go version and platform.
func Full() string {
	return fmt.Sprintf("%s\n  Go: %s\n  Platform: %s/%s",
		Info(), runtime.Version(), runtime.GOOS, runtime.GOARCH)
}

// fromBuildInfo reads the VCS stamp the toolchain embeds in binaries
// built from a checkout.
func fromBuildInfo(commit string, dirty bool, built string) (string, bool, string) {
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return commit, dirty, built
	}
	for _, setting := range info.Settings {
		switch setting.Key {
		case "vcs.revision":
			commit = setting.Value
			if len(commit) > 7 {
				commit = commit[:7]
			}
		case "vcs.modified":
			dirty = setting.Value == "true"
		case "vcs.time":
			built = setting.Value
		}
	}
	return commit, dirty, built
}

// Print writes "<binary> <Info()>" to stdout for --version.
func Print(binary string) {
	fmt.Printf("%s %s\n", binary, Info())
}
