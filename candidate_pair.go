// SPDX-FileCopyrightText: 2026 The Pion community <https://pion.ly>
// SPDX-License-Identifier: MIT

package ice

import (
	"fmt"
)

// CandidatePairState represent the ICE candidate pair state.
type CandidatePairState int

const (
	// CandidatePairStateFrozen means a check for this pair has not been
	// performed, and it cannot be performed until the pair is unfrozen and
	// moved into the waiting state.
	CandidatePairStateFrozen CandidatePairState = iota

	// CandidatePairStateWaiting means a check has not been performed for
	// this pair.
	CandidatePairStateWaiting

	// CandidatePairStateInProgress means a check has been sent for this pair,
	// but the transaction is in progress.
	CandidatePairStateInProgress

	// CandidatePairStateSucceeded means a check for this pair was already
	// done and produced a successful result.
	CandidatePairStateSucceeded

	// CandidatePairStateFailed means a check for this pair was already done
	// and failed, either never producing any response or producing an
	// unrecoverable failure response.
	CandidatePairStateFailed
)

func (c CandidatePairState) String() string {
	switch c {
	case CandidatePairStateFrozen:
		return "frozen"
	case CandidatePairStateWaiting:
		return "waiting"
	case CandidatePairStateInProgress:
		return "in-progress"
	case CandidatePairStateSucceeded:
		return "succeeded"
	case CandidatePairStateFailed:
		return "failed"
	}

	return "Unknown candidate pair state"
}

// pending reports whether the pair can still produce a result.
func (c CandidatePairState) pending() bool {
	return c == CandidatePairStateFrozen ||
		c == CandidatePairStateWaiting ||
		c == CandidatePairStateInProgress
}

func newCandidatePair(local, remote *Candidate, controlling bool) *CandidatePair {
	return &CandidatePair{
		iceRoleControlling: controlling,
		Remote:             remote,
		Local:              local,
		state:              CandidatePairStateFrozen,
	}
}

// CandidatePair represents a combination of a local and remote candidate.
// Its state is owned by the checklist.
type CandidatePair struct {
	Local  *Candidate
	Remote *Candidate

	iceRoleControlling bool
	state              CandidatePairState
	nominated          bool

	// nominateOnSuccess is set on the controlled side when USE-CANDIDATE
	// arrives before the pair's own check succeeded.
	nominateOnSuccess bool

	nominationFailures int
}

func (p *CandidatePair) String() string {
	if p == nil {
		return ""
	}

	return fmt.Sprintf("prio %d (local, prio %d) %s <-> %s (remote, prio %d), state: %s, nominated: %v",
		p.Priority(), p.Local.Priority(), p.Local, p.Remote, p.Remote.Priority(), p.state, p.nominated)
}

// Equal reports whether both pairs join the same transport addresses.
func (p *CandidatePair) Equal(other *CandidatePair) bool {
	if p == nil && other == nil {
		return true
	}
	if p == nil || other == nil {
		return false
	}

	return p.key() == other.key()
}

// State returns the pair state.
func (p *CandidatePair) State() CandidatePairState {
	return p.state
}

// Nominated reports whether the pair was nominated.
func (p *CandidatePair) Nominated() bool {
	return p.nominated
}

func (p *CandidatePair) key() string {
	return pairKey(p.Local, p.Remote)
}

func pairKey(local, remote *Candidate) string {
	return local.TransportAddress() + "|" + remote.TransportAddress()
}

// foundation is the pair foundation used for freezing.
func (p *CandidatePair) foundation() string {
	return p.Local.Foundation() + ":" + p.Remote.Foundation()
}

// Priority computes the pair priority of RFC 8445 Section 6.1.2.3.
// Let G be the priority for the candidate provided by the controlling
// agent.  Let D be the priority for the candidate provided by the
// controlled agent.
// pair priority = 2^32*MIN(G,D) + 2*MAX(G,D) + (G>D?1:0).
func (p *CandidatePair) Priority() uint64 {
	if p.iceRoleControlling {
		return pairPriority(p.Local.Priority(), p.Remote.Priority())
	}

	return pairPriority(p.Remote.Priority(), p.Local.Priority())
}

func pairPriority(g, d uint32) uint64 {
	lo, hi := uint64(d), uint64(g)
	if g < d {
		lo, hi = uint64(g), uint64(d)
	}
	var tie uint64
	if g > d {
		tie = 1
	}

	return (1<<32)*lo + 2*hi + tie
}
