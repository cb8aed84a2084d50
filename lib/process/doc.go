// Copyright 2026 The DbLogger Authors
// SPDX-License-Identifier: Apache-2.0

// Package process holds the entrypoint helper the DbLogger binaries
// use before a structured logger exists, or after main has nothing
// left to do but report why it failed.
package process
