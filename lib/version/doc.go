// Copyright 2026 The DbLogger Authors
// SPDX-License-Identifier: Apache-2.0

// Package version reports build information for the DbLogger
// binaries' --version flag.
//
// Three variables are injected at build time via -ldflags -X:
//
//	go build -ldflags "-X github.com/dblogger/dblogger/lib/version.GitCommit=$(git rev-parse --short HEAD)"
//
//   - [GitCommit]: short git SHA of the build
//   - [GitDirty]: "true" if there were uncommitted changes
//   - [BuildTime]: UTC timestamp of the build
//
// [Version] is set by hand for releases. When nothing is injected,
// [Info] falls back to the module build info the Go toolchain embeds.
package version
