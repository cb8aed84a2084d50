// Copyright 2026 The DbLogger Authors
// SPDX-License-Identifier: Apache-2.0

// Package netutil holds small helpers for socket code.
package netutil
