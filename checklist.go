// SPDX-FileCopyrightText: 2026 The Pion community <https://pion.ly>
// SPDX-License-Identifier: MIT

package ice

import (
	"fmt"
	"net"
	"sort"
	"time"

	"github.com/pion/icelite/stun"
	"github.com/pion/logging"
)

// maxNominationAttempts bounds the USE-CANDIDATE transactions sent on a
// single pair before the controlling agent gives up on nominating it.
const maxNominationAttempts = 3

type checklistConfig struct {
	checkInterval      time.Duration
	initialRTO         time.Duration
	maxRTO             time.Duration
	keepaliveInterval  time.Duration
	maxBindingRequests int
	log                logging.LeveledLogger
}

// credentials are the ICE ufrag/pwd of both sides.
type credentials struct {
	localUfrag  string
	localPwd    string
	remoteUfrag string
	remotePwd   string
}

// checkSender writes STUN messages from a local candidate's socket.
// Sends never block the checklist.
type checkSender interface {
	sendSTUN(raw []byte, local *Candidate, remote *net.UDPAddr)
}

// checklist pairs local and remote candidates and runs connectivity
// checks on them. It is owned by a single goroutine and driven through
// tick and handleInbound with the current time.
type checklist struct {
	cfg    checklistConfig
	log    logging.LeveledLogger
	sender checkSender
	creds  credentials

	isControlling bool
	tieBreaker    uint64

	locals     []*Candidate
	remotes    []*Candidate
	pairs      []*CandidatePair
	pairsByKey map[string]*CandidatePair
	triggered  []*CandidatePair

	transactions *transactionTable

	nextCheck     time.Time
	lastKeepalive time.Time
	selected      *CandidatePair
	nominating    *CandidatePair

	localGatheringDone  bool
	remoteGatheringDone bool
	closed              bool

	onPairStateChange func(p *CandidatePair, from, to CandidatePairState)
	onSucceeded       func(p *CandidatePair)
	onSelected        func(p *CandidatePair)
	onRoleChange      func(controlling bool)
}

func newChecklist(cfg checklistConfig, sender checkSender, creds credentials, controlling bool, tieBreaker uint64) *checklist {
	log := cfg.log
	if log == nil {
		log = logging.NewDefaultLoggerFactory().NewLogger("ice")
	}

	return &checklist{
		cfg:           cfg,
		log:           log,
		sender:        sender,
		creds:         creds,
		isControlling: controlling,
		tieBreaker:    tieBreaker,
		pairsByKey:    map[string]*CandidatePair{},
		transactions:  newTransactionTable(),
	}
}

// addLocal adds a local candidate and pairs it with every known remote
// candidate of the same address family.
func (c *checklist) addLocal(local *Candidate) {
	for _, l := range c.locals {
		if l.TransportAddress() == local.TransportAddress() {
			return
		}
	}
	c.locals = append(c.locals, local)
	for _, remote := range c.remotes {
		c.addPair(local, remote)
	}
}

// addRemote adds a remote candidate and pairs it with every local
// candidate of the same address family.
func (c *checklist) addRemote(remote *Candidate) {
	if c.findRemote(remote.addr()) != nil {
		return
	}
	c.remotes = append(c.remotes, remote)
	for _, local := range c.locals {
		c.addPair(local, remote)
	}
}

func (c *checklist) findRemote(addr *net.UDPAddr) *Candidate {
	for _, r := range c.remotes {
		if r.port == addr.Port && r.ip.Equal(addr.IP) {
			return r
		}
	}

	return nil
}

func (c *checklist) addPair(local, remote *Candidate) *CandidatePair {
	if local.isIPv4() != remote.isIPv4() {
		return nil
	}
	key := pairKey(local, remote)
	if p, ok := c.pairsByKey[key]; ok {
		return p
	}

	p := newCandidatePair(local, remote, c.isControlling)
	if c.foundationUnfrozen(p.foundation()) {
		c.setPairState(p, CandidatePairStateWaiting)
	}
	c.pairsByKey[key] = p
	c.pairs = append(c.pairs, p)
	c.sortPairs()
	c.log.Debugf("Added candidate pair %s", p)

	return p
}

// foundationUnfrozen reports whether a new pair with foundation f can
// start in the Waiting state: no other pair of f is waiting or in
// progress yet, or f has already produced a success.
func (c *checklist) foundationUnfrozen(f string) bool {
	active := false
	for _, p := range c.pairs {
		if p.foundation() != f {
			continue
		}
		switch p.state {
		case CandidatePairStateSucceeded:
			return true
		case CandidatePairStateWaiting, CandidatePairStateInProgress:
			active = true
		case CandidatePairStateFrozen, CandidatePairStateFailed:
		}
	}

	return !active
}

func (c *checklist) sortPairs() {
	sort.SliceStable(c.pairs, func(i, j int) bool {
		return c.pairs[i].Priority() > c.pairs[j].Priority()
	})
}

// setPairState moves p forward. Transitions that would move a pair
// backwards are ignored.
func (c *checklist) setPairState(p *CandidatePair, to CandidatePairState) {
	from := p.state
	if !validPairTransition(from, to) {
		return
	}
	p.state = to
	c.log.Debugf("Candidate pair %s -> %s changed %s -> %s", p.Local, p.Remote, from, to)
	if c.onPairStateChange != nil {
		c.onPairStateChange(p, from, to)
	}
}

func validPairTransition(from, to CandidatePairState) bool {
	switch from {
	case CandidatePairStateFrozen:
		return to == CandidatePairStateWaiting
	case CandidatePairStateWaiting:
		return to == CandidatePairStateInProgress
	case CandidatePairStateInProgress:
		return to == CandidatePairStateSucceeded || to == CandidatePairStateFailed
	case CandidatePairStateSucceeded, CandidatePairStateFailed:
	}

	return false
}

func (c *checklist) unfreezeFoundation(f string) {
	for _, p := range c.pairs {
		if p.state == CandidatePairStateFrozen && p.foundation() == f {
			c.setPairState(p, CandidatePairStateWaiting)
		}
	}
}

func (c *checklist) failPair(p *CandidatePair, reason string) {
	c.transactions.stopPair(p)
	if c.nominating == p {
		c.nominating = nil
		if p.state == CandidatePairStateSucceeded {
			p.nominationFailures++
			c.log.Warnf("Nomination of %s failed (%d/%d): %s", p, p.nominationFailures, maxNominationAttempts, reason)

			return
		}
	}
	if p.state != CandidatePairStateInProgress {
		c.log.Warnf("%v: %s (%s)", ErrCheckFailed, p, reason)

		return
	}
	c.log.Warnf("%v: %s -> %s (%s)", ErrCheckFailed, p.Local, p.Remote, reason)
	c.setPairState(p, CandidatePairStateFailed)
}

// tick retransmits expired checks, nominates when possible, paces the
// next check and sends keepalives.
func (c *checklist) tick(now time.Time) {
	if c.closed {
		return
	}

	for _, tr := range c.transactions.collect(now) {
		if tr.attempts >= c.cfg.maxBindingRequests {
			c.transactions.take(tr.id)
			c.failPair(tr.pair, "max binding requests reached")

			continue
		}
		tr.attempts++
		tr.rto *= 2
		if tr.rto > c.cfg.maxRTO {
			tr.rto = c.cfg.maxRTO
		}
		tr.deadline = now.Add(tr.rto)
		c.log.Tracef("Retransmitting check %d to %s", tr.attempts, tr.pair.Remote)
		c.sender.sendSTUN(tr.raw, tr.pair.Local, tr.pair.Remote.addr())
	}

	if c.isControlling {
		c.nominate(now)
	}

	if now.Before(c.nextCheck) {
		c.keepalive(now)

		return
	}
	if p := c.nextPair(); p != nil {
		c.check(p, now, false)
		c.nextCheck = now.Add(c.cfg.checkInterval)
	}
	c.keepalive(now)
}

// nextPair picks the pair for the next paced check: triggered checks
// first, then the highest priority Waiting pair, then the highest
// priority Frozen pair. Ordinary checks stop once a pair is selected.
func (c *checklist) nextPair() *CandidatePair {
	for len(c.triggered) > 0 {
		p := c.triggered[0]
		c.triggered = c.triggered[1:]
		if p.state == CandidatePairStateFrozen {
			c.setPairState(p, CandidatePairStateWaiting)
		}
		if p.state == CandidatePairStateWaiting {
			return p
		}
	}
	if c.selected != nil {
		return nil
	}
	for _, p := range c.pairs {
		if p.state == CandidatePairStateWaiting {
			return p
		}
	}
	for _, p := range c.pairs {
		if p.state == CandidatePairStateFrozen {
			c.setPairState(p, CandidatePairStateWaiting)

			return p
		}
	}

	return nil
}

// nominate sends USE-CANDIDATE on the best succeeded pair once no pair of
// higher priority can still succeed. Nominations share the pacing of
// ordinary checks.
func (c *checklist) nominate(now time.Time) {
	if c.selected != nil || c.nominating != nil || now.Before(c.nextCheck) {
		return
	}
	for _, p := range c.pairs {
		if p.state.pending() {
			return
		}
		if nominatable(p) {
			c.log.Debugf("Nominating %s", p)
			c.nominating = p
			c.check(p, now, true)
			c.nextCheck = now.Add(c.cfg.checkInterval)

			return
		}
	}
}

func nominatable(p *CandidatePair) bool {
	return p.state == CandidatePairStateSucceeded && p.nominationFailures < maxNominationAttempts
}

func (c *checklist) keepalive(now time.Time) {
	if c.selected == nil || now.Sub(c.lastKeepalive) < c.cfg.keepaliveInterval {
		return
	}
	msg, err := stun.Build(stun.TransactionID, stun.BindingIndication, stun.Fingerprint)
	if err != nil {
		c.log.Warnf("Failed to build keepalive: %v", err)

		return
	}
	c.lastKeepalive = now
	c.log.Tracef("Sending keepalive to %s", c.selected.Remote)
	c.sender.sendSTUN(msg.Raw, c.selected.Local, c.selected.Remote.addr())
}

// prflxPriority is the PRIORITY a check carries: the priority the local
// candidate would have as a peer-reflexive candidate.
func prflxPriority(local *Candidate) uint32 {
	return uint32(CandidateTypePeerReflexive.Preference())<<24 | local.priority&0x00FFFFFF
}

// check sends a binding request for p and registers its transaction.
func (c *checklist) check(p *CandidatePair, now time.Time, useCandidate bool) {
	id := transactionID(stun.NewTransactionID())
	setters := []stun.Setter{
		stun.BindingRequest,
		stun.NewTransactionIDSetter(id),
		stun.NewUsername(c.creds.remoteUfrag + ":" + c.creds.localUfrag),
		stun.PriorityAttr(prflxPriority(p.Local)),
	}
	if c.isControlling {
		setters = append(setters, stun.AttrControlling(c.tieBreaker))
	} else {
		setters = append(setters, stun.AttrControlled(c.tieBreaker))
	}
	if useCandidate {
		setters = append(setters, stun.UseCandidate())
	}
	setters = append(setters, stun.NewShortTermIntegrity(c.creds.remotePwd), stun.Fingerprint)

	msg, err := stun.Build(setters...)
	if err != nil {
		c.log.Warnf("Failed to build check for %s: %v", p, err)

		return
	}
	tr := &transaction{
		id:           id,
		pair:         p,
		raw:          msg.Raw,
		useCandidate: useCandidate,
		controlling:  c.isControlling,
		attempts:     1,
		rto:          c.cfg.initialRTO,
		deadline:     now.Add(c.cfg.initialRTO),
	}
	if err := c.transactions.start(tr); err != nil {
		c.log.Warnf("Failed to start check for %s: %v", p, err)

		return
	}
	c.setPairState(p, CandidatePairStateInProgress)
	c.log.Tracef("Sending check %s -> %s use-candidate=%v", p.Local, p.Remote, useCandidate)
	c.sender.sendSTUN(msg.Raw, p.Local, p.Remote.addr())
}

// handleInbound processes a decoded STUN message received on local from
// the given source address.
func (c *checklist) handleInbound(now time.Time, m *stun.Message, local *Candidate, from *net.UDPAddr) {
	if c.closed || m.Type.Method != stun.MethodBinding {
		return
	}
	switch m.Type.Class {
	case stun.ClassRequest:
		c.handleRequest(now, m, local, from)
	case stun.ClassSuccessResponse, stun.ClassErrorResponse:
		c.handleResponse(now, m, local, from)
	case stun.ClassIndication:
		c.log.Tracef("Keepalive from %s", from)
	}
}

func (c *checklist) handleResponse(now time.Time, m *stun.Message, local *Candidate, from *net.UDPAddr) {
	id := transactionID(m.TransactionID)
	tr, ok := c.transactions.get(id)
	if !ok {
		c.log.Tracef("Ignoring response with unknown transaction from %s", from)

		return
	}
	if err := checkAuthenticated(m, c.creds.remotePwd); err != nil {
		c.log.Warnf("Dropping response from %s: %v", from, err)

		return
	}
	c.transactions.take(id)

	p := tr.pair
	if p.Local != local || !p.Remote.ip.Equal(from.IP) || p.Remote.port != from.Port {
		c.failPair(p, "response from unexpected address "+from.String())

		return
	}

	if m.Type.Class == stun.ClassErrorResponse {
		var code stun.ErrorCodeAttribute
		if err := code.GetFrom(m); err == nil && code.Code == stun.CodeRoleConflict {
			if tr.controlling == c.isControlling {
				c.switchRole()
			}
			c.log.Debugf("%v on %s, retrying as controlling=%v", ErrRoleConflict, p, c.isControlling)
			c.check(p, now, tr.useCandidate && c.isControlling)

			return
		}
		c.failPair(p, "error response "+code.String())

		return
	}

	if tr.useCandidate {
		c.nominating = nil
	}
	if p.state == CandidatePairStateInProgress {
		c.setPairState(p, CandidatePairStateSucceeded)
		c.unfreezeFoundation(p.foundation())
		if c.onSucceeded != nil {
			c.onSucceeded(p)
		}
	}
	switch {
	case tr.useCandidate && c.isControlling:
		c.selectPair(p)
	case p.nominateOnSuccess && !c.isControlling:
		c.selectPair(p)
	}
}

func (c *checklist) handleRequest(now time.Time, m *stun.Message, local *Candidate, from *net.UDPAddr) { //nolint:cyclop
	var username stun.Username
	if err := username.GetFrom(m); err != nil {
		c.log.Warnf("Dropping check without USERNAME from %s", from)

		return
	}
	if expected := c.creds.localUfrag + ":" + c.creds.remoteUfrag; string(username) != expected {
		c.log.Warnf("Dropping check from %s: username %q, expected %q", from, username, expected)

		return
	}
	if err := checkAuthenticated(m, c.creds.localPwd); err != nil {
		c.log.Warnf("Dropping check from %s: %v", from, err)

		return
	}

	if c.resolveRoleConflict(m, local, from) {
		return
	}

	c.sendBindingSuccess(m, local, from)

	remote := c.findRemote(from)
	if remote == nil {
		var priority stun.PriorityAttr
		if err := priority.GetFrom(m); err != nil {
			c.log.Warnf("Check from unknown %s has no PRIORITY: %v", from, err)

			return
		}
		prflx, err := newCandidateFromConfig(&CandidateConfig{
			Type:       CandidateTypePeerReflexive,
			Address:    from.IP.String(),
			Port:       from.Port,
			Component:  local.component,
			Priority:   uint32(priority),
			Foundation: generatePrflxFoundation(),
		})
		if err != nil {
			c.log.Warnf("Failed to create peer-reflexive candidate for %s: %v", from, err)

			return
		}
		c.log.Debugf("Adding peer-reflexive remote candidate %s", prflx)
		c.remotes = append(c.remotes, prflx)
		remote = prflx
	}

	p := c.addPair(local, remote)
	if p == nil {
		return
	}

	switch p.state {
	case CandidatePairStateFrozen, CandidatePairStateWaiting:
		c.trigger(p)
	case CandidatePairStateInProgress, CandidatePairStateSucceeded, CandidatePairStateFailed:
	}

	if !c.isControlling && stun.UseCandidate().IsSet(m) {
		if p.state == CandidatePairStateSucceeded {
			c.selectPair(p)
		} else if p.state != CandidatePairStateFailed {
			p.nominateOnSuccess = true
		}
	}
}

// checkAuthenticated requires a MESSAGE-INTEGRITY computed with pwd and
// verifies FINGERPRINT when present.
func checkAuthenticated(m *stun.Message, pwd string) error {
	if err := m.Check(stun.NewShortTermIntegrity(pwd)); err != nil {
		return fmt.Errorf("%w: %w", errUnauthenticated, err)
	}

	return m.CheckPresent(map[stun.AttrType]stun.Checker{
		stun.AttrFingerprint: stun.Fingerprint,
	})
}

// resolveRoleConflict applies RFC 8445 Section 7.3.1.1. It returns true
// when the request was answered with 487 Role Conflict.
func (c *checklist) resolveRoleConflict(m *stun.Message, local *Candidate, from *net.UDPAddr) bool {
	if c.isControlling {
		var remote stun.AttrControlling
		if remote.GetFrom(m) != nil {
			return false
		}
		if c.tieBreaker >= uint64(remote) {
			c.sendRoleConflict(m, local, from)

			return true
		}
		c.switchRole()

		return false
	}

	var remote stun.AttrControlled
	if remote.GetFrom(m) != nil {
		return false
	}
	if c.tieBreaker >= uint64(remote) {
		c.switchRole()

		return false
	}
	c.sendRoleConflict(m, local, from)

	return true
}

func (c *checklist) switchRole() {
	c.isControlling = !c.isControlling
	c.log.Infof("Switching role, controlling=%v", c.isControlling)
	for _, p := range c.pairs {
		p.iceRoleControlling = c.isControlling
	}
	c.sortPairs()
	c.nominating = nil
	if c.onRoleChange != nil {
		c.onRoleChange(c.isControlling)
	}
}

func (c *checklist) sendBindingSuccess(m *stun.Message, local *Candidate, from *net.UDPAddr) {
	out, err := stun.Build(
		stun.BindingSuccess,
		stun.NewTransactionIDSetter(m.TransactionID),
		&stun.XORMappedAddress{IP: from.IP, Port: from.Port},
		stun.NewShortTermIntegrity(c.creds.localPwd),
		stun.Fingerprint,
	)
	if err != nil {
		c.log.Warnf("Failed to build binding success for %s: %v", from, err)

		return
	}
	c.sender.sendSTUN(out.Raw, local, from)
}

func (c *checklist) sendRoleConflict(m *stun.Message, local *Candidate, from *net.UDPAddr) {
	out, err := stun.Build(
		stun.BindingError,
		stun.NewTransactionIDSetter(m.TransactionID),
		stun.CodeRoleConflict,
		stun.NewShortTermIntegrity(c.creds.localPwd),
		stun.Fingerprint,
	)
	if err != nil {
		c.log.Warnf("Failed to build role conflict for %s: %v", from, err)

		return
	}
	c.log.Debugf("Answering %s with %v", from, ErrRoleConflict)
	c.sender.sendSTUN(out.Raw, local, from)
}

func (c *checklist) trigger(p *CandidatePair) {
	for _, t := range c.triggered {
		if t == p {
			return
		}
	}
	c.triggered = append(c.triggered, p)
}

func (c *checklist) selectPair(p *CandidatePair) {
	if c.selected != nil {
		return
	}
	p.nominated = true
	c.selected = p
	c.log.Infof("Selected candidate pair %s", p)
	if c.onSelected != nil {
		c.onSelected(p)
	}
}

// exhausted reports whether no pair can succeed anymore and both sides
// have finished gathering. On the controlling side a succeeded pair that
// cannot be nominated anymore does not count.
func (c *checklist) exhausted() bool {
	if !c.localGatheringDone || !c.remoteGatheringDone || c.selected != nil {
		return false
	}
	for _, p := range c.pairs {
		if p.state.pending() {
			return false
		}
		if p.state == CandidatePairStateSucceeded && (!c.isControlling || nominatable(p)) {
			return false
		}
	}

	return true
}

// close stops all checks. The checklist ignores any later input.
func (c *checklist) close() {
	c.closed = true
	c.triggered = nil
	c.transactions.close()
}
