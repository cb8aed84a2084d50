// Copyright 2026 The DbLogger Authors
// SPDX-License-Identifier: Apache-2.0

package testutil

import (
	"fmt"
	"sync/atomic"
)

var uniqueCounter atomic.Uint64

// UniqueID returns "prefix-N" where N increases monotonically across
// the test binary.
//
//	source := testutil.UniqueID("OrdersContext") // "OrdersContext-1", ...
func UniqueID(prefix string) string {
	return fmt.Sprintf("%s-%d", prefix, uniqueCounter.Add(1))
}
