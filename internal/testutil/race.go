// SPDX-FileCopyrightText: 2026 The Pion community <https://pion.ly>
// SPDX-License-Identifier: MIT

//go:build race
// +build race

package testutil

// Race reports whether the race detector is enabled.
const Race = true
