// SPDX-FileCopyrightText: 2026 The Pion community <https://pion.ly>
// SPDX-License-Identifier: MIT

package ice

import (
	"net"
	"testing"
	"time"

	"github.com/pion/icelite/stun"
	"github.com/pion/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sentPacket struct {
	raw    []byte
	local  *Candidate
	remote *net.UDPAddr
}

type recordingSender struct {
	sent []sentPacket
}

func (s *recordingSender) sendSTUN(raw []byte, local *Candidate, remote *net.UDPAddr) {
	s.sent = append(s.sent, sentPacket{
		raw:    append([]byte(nil), raw...),
		local:  local,
		remote: remote,
	})
}

func (s *recordingSender) drain() []sentPacket {
	out := s.sent
	s.sent = nil

	return out
}

var (
	credsA = credentials{ //nolint:gochecknoglobals
		localUfrag: "ufragA", localPwd: "passwordA-passwordA",
		remoteUfrag: "ufragB", remotePwd: "passwordB-passwordB",
	}
	credsB = credentials{ //nolint:gochecknoglobals
		localUfrag: "ufragB", localPwd: "passwordB-passwordB",
		remoteUfrag: "ufragA", remotePwd: "passwordA-passwordA",
	}
)

func testChecklistConfig() checklistConfig {
	return checklistConfig{
		checkInterval:      50 * time.Millisecond,
		initialRTO:         500 * time.Millisecond,
		maxRTO:             3 * time.Second,
		keepaliveInterval:  15 * time.Second,
		maxBindingRequests: 7,
		log:                logging.NewDefaultLoggerFactory().NewLogger("test"),
	}
}

func mustCandidate(t *testing.T, typ CandidateType, address string) *Candidate {
	t.Helper()

	c, err := NewCandidate(typ, address, ComponentRTP)
	require.NoError(t, err)

	return c
}

// wire delivers packets between two checklists, matching destination
// addresses against local candidates.
type wire struct {
	a, b   *checklist
	as, bs *recordingSender
	drop   func(p sentPacket) bool
}

func newWire(t *testing.T, aControlling, bControlling bool, aTie, bTie uint64) *wire {
	t.Helper()

	w := &wire{as: &recordingSender{}, bs: &recordingSender{}}
	w.a = newChecklist(testChecklistConfig(), w.as, credsA, aControlling, aTie)
	w.b = newChecklist(testChecklistConfig(), w.bs, credsB, bControlling, bTie)

	localA := mustCandidate(t, CandidateTypeHost, "10.0.0.1:5000")
	localB := mustCandidate(t, CandidateTypeHost, "10.0.0.2:6000")
	remoteOfA := mustCandidate(t, CandidateTypeHost, "10.0.0.2:6000")
	remoteOfB := mustCandidate(t, CandidateTypeHost, "10.0.0.1:5000")

	w.a.addLocal(localA)
	w.a.addRemote(remoteOfA)
	w.b.addLocal(localB)
	w.b.addRemote(remoteOfB)
	for _, c := range []*checklist{w.a, w.b} {
		c.localGatheringDone = true
		c.remoteGatheringDone = true
	}

	return w
}

func deliver(t *testing.T, now time.Time, packets []sentPacket, to *checklist, drop func(p sentPacket) bool) {
	t.Helper()

	for _, p := range packets {
		if drop != nil && drop(p) {
			continue
		}
		var local *Candidate
		for _, l := range to.locals {
			if l.ip.Equal(p.remote.IP) && l.port == p.remote.Port {
				local = l
			}
		}
		if local == nil {
			continue
		}
		m, err := stun.Decode(p.raw)
		require.NoError(t, err)
		to.handleInbound(now, m, local, p.local.addr())
	}
}

func (w *wire) pump(t *testing.T, now time.Time) {
	t.Helper()

	for len(w.as.sent)+len(w.bs.sent) > 0 {
		deliver(t, now, w.as.drain(), w.b, w.drop)
		deliver(t, now, w.bs.drain(), w.a, w.drop)
	}
}

func (w *wire) run(t *testing.T, start time.Time, d time.Duration) time.Time {
	t.Helper()

	now := start
	for end := start.Add(d); now.Before(end); now = now.Add(10 * time.Millisecond) {
		w.a.tick(now)
		w.b.tick(now)
		w.pump(t, now)
		if w.a.selected != nil && w.b.selected != nil {
			break
		}
	}

	return now
}

func TestChecklistPairing(t *testing.T) {
	c := newChecklist(testChecklistConfig(), &recordingSender{}, credsA, true, 1)

	c.addLocal(mustCandidate(t, CandidateTypeHost, "10.0.0.1:5000"))
	c.addLocal(mustCandidate(t, CandidateTypeHost, "[fd00::1]:5000"))
	c.addRemote(mustCandidate(t, CandidateTypeServerReflexive, "192.0.2.1:7000"))
	c.addRemote(mustCandidate(t, CandidateTypeHost, "10.0.0.2:6000"))
	c.addRemote(mustCandidate(t, CandidateTypeHost, "[fd00::2]:6000"))

	t.Run("SameFamilyOnly", func(t *testing.T) {
		assert.Len(t, c.pairs, 3)
		for _, p := range c.pairs {
			assert.Equal(t, p.Local.isIPv4(), p.Remote.isIPv4(), p.String())
		}
	})
	t.Run("Deduplicated", func(t *testing.T) {
		c.addRemote(mustCandidate(t, CandidateTypeHost, "10.0.0.2:6000"))
		c.addLocal(mustCandidate(t, CandidateTypeHost, "10.0.0.1:5000"))
		assert.Len(t, c.pairs, 3)
	})
	t.Run("SortedDescending", func(t *testing.T) {
		for i := 1; i < len(c.pairs); i++ {
			assert.GreaterOrEqual(t, c.pairs[i-1].Priority(), c.pairs[i].Priority())
		}
		assert.Equal(t, CandidateTypeServerReflexive, c.pairs[len(c.pairs)-1].Remote.Type())
	})
}

func TestChecklistFoundationFreezing(t *testing.T) {
	c := newChecklist(testChecklistConfig(), &recordingSender{}, credsA, true, 1)
	c.addLocal(mustCandidate(t, CandidateTypeHost, "10.0.0.1:5000"))

	for _, addr := range []string{"10.0.0.2", "10.0.0.3"} {
		remote, err := newCandidateFromConfig(&CandidateConfig{
			Type:       CandidateTypeHost,
			Address:    addr,
			Port:       6000,
			Component:  ComponentRTP,
			Foundation: "shared",
		})
		require.NoError(t, err)
		c.addRemote(remote)
	}

	require.Len(t, c.pairs, 2)
	assert.Equal(t, CandidatePairStateWaiting, c.pairs[0].state)
	assert.Equal(t, CandidatePairStateFrozen, c.pairs[1].state)

	c.setPairState(c.pairs[0], CandidatePairStateInProgress)
	c.setPairState(c.pairs[0], CandidatePairStateSucceeded)
	c.unfreezeFoundation(c.pairs[0].foundation())
	assert.Equal(t, CandidatePairStateWaiting, c.pairs[1].state)
}

func TestValidPairTransition(t *testing.T) {
	assert.True(t, validPairTransition(CandidatePairStateFrozen, CandidatePairStateWaiting))
	assert.True(t, validPairTransition(CandidatePairStateWaiting, CandidatePairStateInProgress))
	assert.True(t, validPairTransition(CandidatePairStateInProgress, CandidatePairStateSucceeded))
	assert.True(t, validPairTransition(CandidatePairStateInProgress, CandidatePairStateFailed))

	assert.False(t, validPairTransition(CandidatePairStateFrozen, CandidatePairStateInProgress))
	assert.False(t, validPairTransition(CandidatePairStateWaiting, CandidatePairStateSucceeded))
	assert.False(t, validPairTransition(CandidatePairStateSucceeded, CandidatePairStateFailed))
	assert.False(t, validPairTransition(CandidatePairStateFailed, CandidatePairStateWaiting))
}

func TestChecklistConnectivity(t *testing.T) {
	w := newWire(t, true, false, 2, 1)

	var transitions []CandidatePairState
	w.a.onPairStateChange = func(_ *CandidatePair, _, to CandidatePairState) {
		transitions = append(transitions, to)
	}
	var succeeded, selected *CandidatePair
	w.a.onSucceeded = func(p *CandidatePair) { succeeded = p }
	w.a.onSelected = func(p *CandidatePair) { selected = p }

	w.run(t, time.Unix(0, 0), 5*time.Second)

	require.NotNil(t, w.a.selected)
	require.NotNil(t, w.b.selected)
	assert.Equal(t, []CandidatePairState{
		CandidatePairStateInProgress,
		CandidatePairStateSucceeded,
	}, transitions)
	assert.Equal(t, w.a.selected, succeeded)
	assert.Equal(t, w.a.selected, selected)
	assert.True(t, w.a.selected.Nominated())
	assert.True(t, w.b.selected.Nominated())
	assert.Equal(t, "10.0.0.2:6000", w.a.selected.Remote.TransportAddress())
	assert.Equal(t, "10.0.0.1:5000", w.b.selected.Remote.TransportAddress())
	assert.False(t, w.a.exhausted())
	assert.Zero(t, w.a.transactions.len())
}

func TestChecklistKeepalive(t *testing.T) {
	w := newWire(t, true, false, 2, 1)
	now := w.run(t, time.Unix(0, 0), 5*time.Second)
	require.NotNil(t, w.a.selected)
	w.pump(t, now)

	countIndications := func(packets []sentPacket) int {
		n := 0
		for _, p := range packets {
			m, err := stun.Decode(p.raw)
			require.NoError(t, err)
			if m.Type == stun.BindingIndication {
				n++
				assert.NoError(t, stun.Fingerprint.Check(m))
			}
		}

		return n
	}

	now = now.Add(10 * time.Millisecond)
	w.a.tick(now)
	assert.Equal(t, 1, countIndications(w.as.drain()))

	w.a.tick(now.Add(time.Second))
	assert.Equal(t, 0, countIndications(w.as.drain()))

	w.a.tick(now.Add(16 * time.Second))
	assert.Equal(t, 1, countIndications(w.as.drain()))
}

func TestChecklistRetransmission(t *testing.T) {
	sender := &recordingSender{}
	c := newChecklist(testChecklistConfig(), sender, credsA, true, 1)
	c.addLocal(mustCandidate(t, CandidateTypeHost, "10.0.0.1:5000"))
	c.addRemote(mustCandidate(t, CandidateTypeHost, "10.0.0.2:6000"))
	c.localGatheringDone = true

	start := time.Unix(0, 0)
	var sendTimes []time.Duration
	for now := start; now.Before(start.Add(20 * time.Second)); now = now.Add(10 * time.Millisecond) {
		c.tick(now)
		for range sender.drain() {
			sendTimes = append(sendTimes, now.Sub(start))
		}
	}

	assert.Equal(t, []time.Duration{
		0,
		500 * time.Millisecond,
		1500 * time.Millisecond,
		3500 * time.Millisecond,
		6500 * time.Millisecond,
		9500 * time.Millisecond,
		12500 * time.Millisecond,
	}, sendTimes)

	require.Len(t, c.pairs, 1)
	assert.Equal(t, CandidatePairStateFailed, c.pairs[0].state)
	assert.Zero(t, c.transactions.len())

	assert.False(t, c.exhausted(), "remote gathering is not done")
	c.remoteGatheringDone = true
	assert.True(t, c.exhausted())
	for _, p := range c.pairs {
		assert.NotEqual(t, CandidatePairStateInProgress, p.state)
	}
}

func TestChecklistRetransmissionReusesRequest(t *testing.T) {
	sender := &recordingSender{}
	c := newChecklist(testChecklistConfig(), sender, credsA, true, 1)
	c.addLocal(mustCandidate(t, CandidateTypeHost, "10.0.0.1:5000"))
	c.addRemote(mustCandidate(t, CandidateTypeHost, "10.0.0.2:6000"))

	start := time.Unix(0, 0)
	c.tick(start)
	c.tick(start.Add(500 * time.Millisecond))

	sent := sender.drain()
	require.Len(t, sent, 2)
	assert.Equal(t, sent[0].raw, sent[1].raw)

	m, err := stun.Decode(sent[0].raw)
	require.NoError(t, err)
	assert.Equal(t, stun.BindingRequest, m.Type)
	assert.NoError(t, stun.NewShortTermIntegrity(credsA.remotePwd).Check(m))
	assert.NoError(t, stun.Fingerprint.Check(m))

	var username stun.Username
	require.NoError(t, username.GetFrom(m))
	assert.Equal(t, "ufragB:ufragA", username.String())

	var priority stun.PriorityAttr
	require.NoError(t, priority.GetFrom(m))
	assert.Equal(t, uint32(110), uint32(priority)>>24)

	var controlling stun.AttrControlling
	require.NoError(t, controlling.GetFrom(m))
	assert.Equal(t, stun.AttrControlling(1), controlling)
}

func TestChecklistIgnoresUnknownTransaction(t *testing.T) {
	sender := &recordingSender{}
	c := newChecklist(testChecklistConfig(), sender, credsA, true, 1)
	local := mustCandidate(t, CandidateTypeHost, "10.0.0.1:5000")
	remote := mustCandidate(t, CandidateTypeHost, "10.0.0.2:6000")
	c.addLocal(local)
	c.addRemote(remote)

	now := time.Unix(0, 0)
	c.tick(now)
	require.Equal(t, 1, c.transactions.len())

	m := stun.MustBuild(stun.TransactionID, stun.BindingSuccess,
		&stun.XORMappedAddress{IP: local.ip, Port: local.port},
		stun.NewShortTermIntegrity(credsA.remotePwd),
		stun.Fingerprint,
	)
	c.handleInbound(now, m, local, remote.addr())

	assert.Equal(t, 1, c.transactions.len())
	assert.Equal(t, CandidatePairStateInProgress, c.pairs[0].state)
}

func TestChecklistResponseIntegrity(t *testing.T) {
	sender := &recordingSender{}
	c := newChecklist(testChecklistConfig(), sender, credsA, true, 1)
	local := mustCandidate(t, CandidateTypeHost, "10.0.0.1:5000")
	remote := mustCandidate(t, CandidateTypeHost, "10.0.0.2:6000")
	c.addLocal(local)
	c.addRemote(remote)

	now := time.Unix(0, 0)
	c.tick(now)
	sent := sender.drain()
	require.Len(t, sent, 1)
	req, err := stun.Decode(sent[0].raw)
	require.NoError(t, err)

	response := func(pwd string) *stun.Message {
		return stun.MustBuild(stun.BindingSuccess,
			stun.NewTransactionIDSetter(req.TransactionID),
			&stun.XORMappedAddress{IP: local.ip, Port: local.port},
			stun.NewShortTermIntegrity(pwd),
			stun.Fingerprint,
		)
	}

	c.handleInbound(now, response("wrong-password"), local, remote.addr())
	assert.Equal(t, CandidatePairStateInProgress, c.pairs[0].state)
	assert.Equal(t, 1, c.transactions.len())

	c.handleInbound(now, response(credsA.remotePwd), local, remote.addr())
	assert.Equal(t, CandidatePairStateSucceeded, c.pairs[0].state)
	assert.Zero(t, c.transactions.len())
}

func TestChecklistNonSymmetricResponse(t *testing.T) {
	sender := &recordingSender{}
	c := newChecklist(testChecklistConfig(), sender, credsA, true, 1)
	local := mustCandidate(t, CandidateTypeHost, "10.0.0.1:5000")
	c.addLocal(local)
	c.addRemote(mustCandidate(t, CandidateTypeHost, "10.0.0.2:6000"))

	now := time.Unix(0, 0)
	c.tick(now)
	req, err := stun.Decode(sender.drain()[0].raw)
	require.NoError(t, err)

	resp := stun.MustBuild(stun.BindingSuccess,
		stun.NewTransactionIDSetter(req.TransactionID),
		stun.NewShortTermIntegrity(credsA.remotePwd),
		stun.Fingerprint,
	)
	c.handleInbound(now, resp, local, &net.UDPAddr{IP: net.ParseIP("10.0.0.9"), Port: 6000})
	assert.Equal(t, CandidatePairStateFailed, c.pairs[0].state)
}

func TestChecklistRoleConflict(t *testing.T) {
	w := newWire(t, true, true, 10, 5)

	w.run(t, time.Unix(0, 0), 5*time.Second)

	assert.True(t, w.a.isControlling)
	assert.False(t, w.b.isControlling)
	require.NotNil(t, w.a.selected)
	require.NotNil(t, w.b.selected)
	assert.True(t, w.a.selected.Nominated())
}

func TestChecklistRoleConflictAnswer(t *testing.T) {
	sender := &recordingSender{}
	c := newChecklist(testChecklistConfig(), sender, credsA, true, 10)
	local := mustCandidate(t, CandidateTypeHost, "10.0.0.1:5000")
	c.addLocal(local)
	from := &net.UDPAddr{IP: net.ParseIP("10.0.0.2"), Port: 6000}

	req := stun.MustBuild(stun.TransactionID, stun.BindingRequest,
		stun.NewUsername("ufragA:ufragB"),
		stun.PriorityAttr(1000),
		stun.AttrControlling(5),
		stun.NewShortTermIntegrity(credsA.localPwd),
		stun.Fingerprint,
	)
	c.handleInbound(time.Unix(0, 0), req, local, from)

	sent := sender.drain()
	require.Len(t, sent, 1)
	resp, err := stun.Decode(sent[0].raw)
	require.NoError(t, err)
	assert.Equal(t, stun.BindingError, resp.Type)
	var code stun.ErrorCodeAttribute
	require.NoError(t, code.GetFrom(resp))
	assert.Equal(t, stun.CodeRoleConflict, code.Code)
	assert.True(t, c.isControlling)
	assert.Empty(t, c.remotes)
}

func TestChecklistPeerReflexive(t *testing.T) {
	sender := &recordingSender{}
	c := newChecklist(testChecklistConfig(), sender, credsA, true, 10)
	local := mustCandidate(t, CandidateTypeHost, "10.0.0.1:5000")
	c.addLocal(local)
	from := &net.UDPAddr{IP: net.ParseIP("198.51.100.7").To4(), Port: 40000}

	req := stun.MustBuild(stun.TransactionID, stun.BindingRequest,
		stun.NewUsername("ufragA:ufragB"),
		stun.PriorityAttr(1845501695),
		stun.AttrControlled(5),
		stun.NewShortTermIntegrity(credsA.localPwd),
		stun.Fingerprint,
	)
	now := time.Unix(0, 0)
	c.handleInbound(now, req, local, from)

	sent := sender.drain()
	require.Len(t, sent, 1)
	resp, err := stun.Decode(sent[0].raw)
	require.NoError(t, err)
	assert.Equal(t, stun.BindingSuccess, resp.Type)
	assert.Equal(t, req.TransactionID, resp.TransactionID)
	assert.NoError(t, stun.NewShortTermIntegrity(credsA.localPwd).Check(resp))
	var mapped stun.XORMappedAddress
	require.NoError(t, mapped.GetFrom(resp))
	assert.True(t, mapped.IP.Equal(from.IP))
	assert.Equal(t, from.Port, mapped.Port)

	require.Len(t, c.remotes, 1)
	prflx := c.remotes[0]
	assert.Equal(t, CandidateTypePeerReflexive, prflx.Type())
	assert.Equal(t, uint32(1845501695), prflx.Priority())
	assert.Equal(t, "198.51.100.7:40000", prflx.TransportAddress())

	c.tick(now)
	sent = sender.drain()
	require.Len(t, sent, 1)
	assert.Equal(t, from.String(), sent[0].remote.String())
	check, err := stun.Decode(sent[0].raw)
	require.NoError(t, err)
	assert.Equal(t, stun.BindingRequest, check.Type)
}

func TestChecklistDropsUnauthenticatedRequest(t *testing.T) {
	sender := &recordingSender{}
	c := newChecklist(testChecklistConfig(), sender, credsA, true, 10)
	local := mustCandidate(t, CandidateTypeHost, "10.0.0.1:5000")
	c.addLocal(local)
	from := &net.UDPAddr{IP: net.ParseIP("10.0.0.2"), Port: 6000}

	for name, req := range map[string]*stun.Message{
		"WrongUsername": stun.MustBuild(stun.TransactionID, stun.BindingRequest,
			stun.NewUsername("ufragA:other"),
			stun.NewShortTermIntegrity(credsA.localPwd),
		),
		"WrongPassword": stun.MustBuild(stun.TransactionID, stun.BindingRequest,
			stun.NewUsername("ufragA:ufragB"),
			stun.NewShortTermIntegrity("wrong"),
		),
		"NoUsername": stun.MustBuild(stun.TransactionID, stun.BindingRequest),
	} {
		c.handleInbound(time.Unix(0, 0), req, local, from)
		assert.Empty(t, sender.drain(), name)
	}
	assert.Empty(t, c.remotes)
}

func TestChecklistRequiresMessageIntegrity(t *testing.T) {
	sender := &recordingSender{}
	c := newChecklist(testChecklistConfig(), sender, credsA, false, 10)
	local := mustCandidate(t, CandidateTypeHost, "10.0.0.1:5000")
	remote := mustCandidate(t, CandidateTypeHost, "10.0.0.2:6000")
	c.addLocal(local)
	c.addRemote(remote)
	now := time.Unix(0, 0)

	t.Run("Request", func(t *testing.T) {
		req := stun.MustBuild(stun.TransactionID, stun.BindingRequest,
			stun.NewUsername("ufragA:ufragB"),
			stun.PriorityAttr(1845501695),
			stun.AttrControlling(20),
			stun.UseCandidate(),
			stun.Fingerprint,
		)
		c.handleInbound(now, req, local, &net.UDPAddr{IP: net.ParseIP("203.0.113.66"), Port: 4444})

		assert.Empty(t, sender.drain())
		assert.Len(t, c.remotes, 1)
		assert.Len(t, c.pairs, 1)
		assert.Empty(t, c.triggered)
	})

	t.Run("Response", func(t *testing.T) {
		c.tick(now)
		sent := sender.drain()
		require.Len(t, sent, 1)
		req, err := stun.Decode(sent[0].raw)
		require.NoError(t, err)

		resp := stun.MustBuild(stun.BindingSuccess,
			stun.NewTransactionIDSetter(req.TransactionID),
			&stun.XORMappedAddress{IP: local.ip, Port: local.port},
			stun.Fingerprint,
		)
		c.handleInbound(now, resp, local, remote.addr())

		assert.Equal(t, CandidatePairStateInProgress, c.pairs[0].state)
		assert.Equal(t, 1, c.transactions.len())
		assert.Nil(t, c.selected)
	})
}

func TestChecklistRejectedNominationIsBounded(t *testing.T) {
	cfg := testChecklistConfig()
	sender := &recordingSender{}
	c := newChecklist(cfg, sender, credsA, true, 10)
	local := mustCandidate(t, CandidateTypeHost, "10.0.0.1:5000")
	remote := mustCandidate(t, CandidateTypeHost, "10.0.0.2:6000")
	c.addLocal(local)
	c.addRemote(remote)
	c.localGatheringDone = true
	c.remoteGatheringDone = true

	answer := func(req *stun.Message, typ stun.MessageType, attr stun.Setter) *stun.Message {
		return stun.MustBuild(typ,
			stun.NewTransactionIDSetter(req.TransactionID),
			attr,
			stun.NewShortTermIntegrity(credsA.remotePwd),
			stun.Fingerprint,
		)
	}

	var nominations []time.Time
	now := time.Unix(0, 0)
	for end := now.Add(time.Second); now.Before(end); now = now.Add(10 * time.Millisecond) {
		c.tick(now)
		for _, p := range sender.drain() {
			req, err := stun.Decode(p.raw)
			require.NoError(t, err)
			if req.Type != stun.BindingRequest {
				continue
			}
			if stun.UseCandidate().IsSet(req) {
				nominations = append(nominations, now)
				c.handleInbound(now, answer(req, stun.BindingError, stun.CodeBadRequest), local, remote.addr())

				continue
			}
			c.handleInbound(now, answer(req, stun.BindingSuccess, &stun.XORMappedAddress{IP: local.ip, Port: local.port}), local, remote.addr())
		}
	}

	require.Len(t, nominations, maxNominationAttempts)
	for i := 1; i < len(nominations); i++ {
		assert.GreaterOrEqual(t, nominations[i].Sub(nominations[i-1]), cfg.checkInterval)
	}
	assert.Nil(t, c.selected)
	assert.Equal(t, CandidatePairStateSucceeded, c.pairs[0].state)
	assert.True(t, c.exhausted())
}

func TestChecklistFailedPairNotRetriggered(t *testing.T) {
	sender := &recordingSender{}
	c := newChecklist(testChecklistConfig(), sender, credsA, true, 10)
	local := mustCandidate(t, CandidateTypeHost, "10.0.0.1:5000")
	remote := mustCandidate(t, CandidateTypeHost, "10.0.0.2:6000")
	c.addLocal(local)
	c.addRemote(remote)

	now := time.Unix(0, 0)
	c.tick(now)
	c.failPair(c.pairs[0], "test")
	sender.drain()

	req := stun.MustBuild(stun.TransactionID, stun.BindingRequest,
		stun.NewUsername("ufragA:ufragB"),
		stun.PriorityAttr(1000),
		stun.AttrControlled(5),
		stun.NewShortTermIntegrity(credsA.localPwd),
		stun.Fingerprint,
	)
	c.handleInbound(now, req, local, remote.addr())
	c.tick(now.Add(time.Second))

	sent := sender.drain()
	require.Len(t, sent, 1)
	resp, err := stun.Decode(sent[0].raw)
	require.NoError(t, err)
	assert.Equal(t, stun.BindingSuccess, resp.Type)
	assert.Equal(t, CandidatePairStateFailed, c.pairs[0].state)
}

func TestChecklistControlledWaitsForNomination(t *testing.T) {
	w := newWire(t, true, false, 2, 1)
	w.drop = func(p sentPacket) bool {
		m, err := stun.Decode(p.raw)
		require.NoError(t, err)

		return stun.UseCandidate().IsSet(m)
	}

	w.run(t, time.Unix(0, 0), 2*time.Second)

	assert.Nil(t, w.b.selected)
	require.Len(t, w.b.pairs, 1)
	assert.Equal(t, CandidatePairStateSucceeded, w.b.pairs[0].state)
	assert.False(t, w.b.exhausted())
}

func TestChecklistClose(t *testing.T) {
	sender := &recordingSender{}
	c := newChecklist(testChecklistConfig(), sender, credsA, true, 1)
	c.addLocal(mustCandidate(t, CandidateTypeHost, "10.0.0.1:5000"))
	c.addRemote(mustCandidate(t, CandidateTypeHost, "10.0.0.2:6000"))
	now := time.Unix(0, 0)
	c.tick(now)
	sender.drain()

	c.close()
	c.tick(now.Add(time.Second))
	assert.Empty(t, sender.drain())
	assert.Zero(t, c.transactions.len())
}
