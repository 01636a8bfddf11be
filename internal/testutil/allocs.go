// SPDX-FileCopyrightText: 2026 The Pion community <https://pion.ly>
// SPDX-License-Identifier: MIT

// Package testutil holds test helpers shared by the packages of this module.
package testutil

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// allocRuns is the number of calls averaged by ShouldNotAllocate.
const allocRuns = 10

// ShouldNotAllocate fails if f allocates on average over allocRuns calls.
// The STUN attribute checks run on every inbound datagram and are expected
// to pass it. Skipped when built with -race.
func ShouldNotAllocate(t *testing.T, f func()) {
	t.Helper()

	if Race {
		t.Skipf("allocation counts are unreliable with -race")
	}
	if allocs := testing.AllocsPerRun(allocRuns, f); allocs != 0 {
		assert.Failf(t, "unexpected allocations", "%v allocations per run", allocs)
	}
}
