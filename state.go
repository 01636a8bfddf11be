// SPDX-FileCopyrightText: 2026 The Pion community <https://pion.ly>
// SPDX-License-Identifier: MIT

package ice

// State is the state of an Agent.
type State int

const (
	// StateDisconnected is the state before gathering starts and after Close.
	StateDisconnected State = iota

	// StateGathering means local candidates are being gathered or the
	// remote description is not known yet.
	StateGathering

	// StateConnecting means connectivity checks are running.
	StateConnecting

	// StateConnected means at least one candidate pair succeeded and is
	// used for data until a pair is nominated.
	StateConnected

	// StateCompleted means a nominated pair has been selected.
	StateCompleted

	// StateFailed means every candidate pair failed.
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateDisconnected:
		return "disconnected"
	case StateGathering:
		return "gathering"
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	case StateCompleted:
		return "completed"
	case StateFailed:
		return "failed"
	}

	return "Unknown state"
}

// canTransition reports whether an agent may move from one state to
// another. States only move forward; Failed is reachable from any state
// other than Failed itself.
func (s State) canTransition(to State) bool {
	switch {
	case s == to:
		return false
	case to == StateFailed:
		return true
	case s == StateFailed:
		return false
	}

	return to > s
}
