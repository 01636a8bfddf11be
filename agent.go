// SPDX-FileCopyrightText: 2026 The Pion community <https://pion.ly>
// SPDX-License-Identifier: MIT

// Package ice implements a minimal Interactive Connectivity Establishment
// agent: candidate gathering, connectivity checks, pair selection and a
// datagram channel over the selected pair.
package ice

import (
	"context"
	"fmt"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/pion/icelite/stun"
	"github.com/pion/logging"
	"github.com/pion/transport/v3"
	"github.com/pion/transport/v3/packetio"
	"github.com/pion/transport/v3/stdnet"
)

type atomicError struct{ v atomic.Value }

func (a *atomicError) Store(err error) {
	a.v.Store(struct{ error }{err})
}

func (a *atomicError) Load() error {
	err, _ := a.v.Load().(struct{ error })

	return err.error
}

// Agent represents the ICE agent.
type Agent struct {
	// muChan is a lock that can be released by done.
	muChan chan struct{}
	done   chan struct{}
	wg     sync.WaitGroup

	failErr atomicError

	loggerFactory logging.LoggerFactory
	log           logging.LeveledLogger
	net           transport.Net
	clock         Clock
	gatherer      *gatherer
	urls          []*URL

	checklistConfig  checklistConfig
	taskLoopInterval time.Duration
	role             Role
	fingerprint      string

	// Everything below is guarded by muChan.
	state      State
	localUfrag string
	localPwd   string
	tieBreaker uint64

	localCandidates      []*Candidate
	sockets              []*candidateSocket
	gatherStarted        bool
	gatheringDone        bool
	gatherCancel         context.CancelFunc
	localDescriptionRead bool

	remoteUfrag          string
	remotePwd            string
	remoteFingerprint    string
	remoteCandidates     []*Candidate
	remoteDescriptionSet bool
	remoteGatheringDone  bool

	controlling bool
	checklist   *checklist

	selectedPair atomic.Pointer[CandidatePair]
	buffer       *packetio.Buffer
	notifier     *notifier

	handlersMu           sync.Mutex
	onStateChangeHdlrs   []func(State)
	onCandidateHdlrs     []func(*Candidate)
	onGatheringDoneHdlrs []func()
	onReceiveHdlrs       []func([]byte)
}

// NewAgent creates a new Agent.
func NewAgent(config *AgentConfig) (*Agent, error) { //nolint:cyclop
	if config.PortMax < config.PortMin {
		return nil, ErrPort
	}

	loggerFactory := config.LoggerFactory
	if loggerFactory == nil {
		loggerFactory = logging.NewDefaultLoggerFactory()
	}
	log := loggerFactory.NewLogger("ice")

	a := &Agent{
		muChan:        make(chan struct{}, 1),
		done:          make(chan struct{}),
		loggerFactory: loggerFactory,
		log:           log,
		urls:          config.Urls,
		role:          config.Role,
		fingerprint:   config.Fingerprint,
		state:         StateDisconnected,
		localUfrag:    config.LocalUfrag,
		localPwd:      config.LocalPwd,
		tieBreaker:    generateTieBreaker(),
		buffer:        packetio.NewBuffer(),
		gatherer: &gatherer{
			log:                loggerFactory.NewLogger("ice-gather"),
			loggerFactory:      loggerFactory,
			portMin:            config.PortMin,
			portMax:            config.PortMax,
			interfaceFilter:    config.InterfaceFilter,
			ipFilter:           config.IPFilter,
			includeLoopback:    config.IncludeLoopback,
			insecureSkipVerify: config.InsecureSkipVerify,
			proxyDialer:        config.ProxyDialer,
		},
	}
	config.initWithDefaults(a)

	for _, u := range a.urls {
		if u.Scheme != SchemeTypeTURN && u.Scheme != SchemeTypeTURNS {
			continue
		}
		if u.Username == "" {
			return nil, ErrUsernameEmpty
		}
		if u.Password == "" {
			return nil, ErrPasswordEmpty
		}
	}

	if err := a.setCredentials(config.LocalUfrag, config.LocalPwd); err != nil {
		return nil, err
	}

	extIPMapper, err := newExternalIPMapper(config.NAT1To1IPs)
	if err != nil {
		return nil, err
	}
	a.gatherer.extIPMapper = extIPMapper

	if config.Net == nil {
		a.net, err = stdnet.NewNet()
		if err != nil {
			return nil, fmt.Errorf("failed to create network: %w", err)
		}
	} else {
		a.net = config.Net
	}
	a.gatherer.net = a.net

	a.buffer.SetLimitSize(maxBufferSize)
	a.notifier = newNotifier()

	a.wg.Add(1)
	go a.taskLoop()

	return a, nil
}

// setCredentials installs the local ufrag and pwd, generating the ones
// left empty.
func (a *Agent) setCredentials(ufrag, pwd string) error {
	var err error
	if ufrag == "" {
		if ufrag, err = generateUFrag(); err != nil {
			return err
		}
	}
	if pwd == "" {
		if pwd, err = generatePwd(); err != nil {
			return err
		}
	}
	if len([]rune(ufrag))*8 < 24 {
		return ErrLocalUfragInsufficientBits
	}
	if len([]rune(pwd))*8 < 128 {
		return ErrLocalPwdInsufficientBits
	}
	a.localUfrag = ufrag
	a.localPwd = pwd

	return nil
}

func (a *Agent) ok() error {
	select {
	case <-a.done:
		return ErrClosed
	default:
	}

	return nil
}

// run executes fn with the agent lock taken.
// If the agent is closed it returns ErrClosed.
func (a *Agent) run(fn func(*Agent)) error {
	if err := a.ok(); err != nil {
		return err
	}

	select {
	case <-a.done:
		return ErrClosed
	case a.muChan <- struct{}{}:
		var err error
		select {
		case <-a.done:
			// Ensure the agent is not closed
			err = ErrClosed
		default:
			fn(a)
		}
		<-a.muChan

		return err
	}
}

func (a *Agent) taskLoop() {
	defer a.wg.Done()

	ticker := time.NewTicker(a.taskLoopInterval)
	defer ticker.Stop()

	for {
		select {
		case <-a.done:
			return
		case <-ticker.C:
			_ = a.run(func(agent *Agent) {
				if agent.checklist == nil {
					return
				}
				agent.checklist.tick(agent.clock.Now())
				agent.updateFromChecklist()
			})
		}
	}
}

// setState moves the agent to a new state and notifies observers. Moves
// that would regress the state are ignored.
func (a *Agent) setState(to State) bool {
	if !a.state.canTransition(to) {
		return false
	}
	a.log.Infof("Setting new connection state: %s", to)
	a.state = to
	a.notifyStateChange(to)

	return true
}

// GatherCandidates starts gathering local candidates. Candidates are
// reported to OnCandidate observers; OnGatheringDone fires once every
// source has finished.
func (a *Agent) GatherCandidates() error {
	var gatherErr error
	if runErr := a.run(func(agent *Agent) {
		if agent.gatherStarted || agent.state != StateDisconnected {
			gatherErr = ErrMultipleGatherAttempted

			return
		}
		agent.gatherStarted = true
		agent.setState(StateGathering)

		ctx, cancel := context.WithCancel(context.Background())
		agent.gatherCancel = cancel
		agent.wg.Add(1)
		go agent.gatherCandidates(ctx, cancel)
	}); runErr != nil {
		return runErr
	}

	return gatherErr
}

func (a *Agent) gatherCandidates(ctx context.Context, cancel context.CancelFunc) {
	defer func() {
		cancel()
		a.wg.Done()
	}()

	if err := a.gatherer.gather(ctx, a.urls, a.addLocalCandidate); err != nil {
		a.log.Warnf("Candidate gathering finished with errors: %v", err)
	}

	_ = a.run(func(agent *Agent) {
		agent.gatheringDone = true
		agent.notifyGatheringDone()
		agent.maybeStartChecks()
	})
}

// addLocalCandidate takes ownership of conn and starts reading from it.
func (a *Agent) addLocalCandidate(c *Candidate, conn net.PacketConn, onClose func() error) error {
	return a.run(func(agent *Agent) {
		s := newCandidateSocket(agent, c, conn, onClose)
		c.socket = s
		agent.sockets = append(agent.sockets, s)
		agent.localCandidates = append(agent.localCandidates, c)

		agent.wg.Add(1)
		go s.recvLoop()

		agent.log.Debugf("Gathered local candidate %s", c)
		agent.notifyCandidate(c)
		if agent.checklist != nil {
			agent.checklist.addLocal(c)
		}
	})
}

// maybeStartChecks builds the checklist once local gathering is done and
// the remote description is known.
func (a *Agent) maybeStartChecks() {
	if a.checklist != nil || a.state != StateGathering || !a.gatheringDone || !a.remoteDescriptionSet {
		return
	}

	cl := newChecklist(a.checklistConfig, a, credentials{
		localUfrag:  a.localUfrag,
		localPwd:    a.localPwd,
		remoteUfrag: a.remoteUfrag,
		remotePwd:   a.remotePwd,
	}, a.controlling, a.tieBreaker)
	cl.onSucceeded = func(p *CandidatePair) {
		if a.state != StateConnecting {
			return
		}
		a.selectedPair.Store(p)
		a.setState(StateConnected)
	}
	cl.onSelected = func(p *CandidatePair) {
		a.selectedPair.Store(p)
		if a.state == StateConnecting {
			a.setState(StateConnected)
		}
		a.setState(StateCompleted)
	}
	cl.onRoleChange = func(controlling bool) {
		a.controlling = controlling
	}

	for _, c := range a.localCandidates {
		cl.addLocal(c)
	}
	for _, c := range a.remoteCandidates {
		cl.addRemote(c)
	}
	cl.localGatheringDone = a.gatheringDone
	cl.remoteGatheringDone = a.remoteGatheringDone
	a.checklist = cl

	a.log.Debugf("Starting connectivity checks, controlling=%v", a.controlling)
	a.setState(StateConnecting)
	a.updateFromChecklist()
}

// updateFromChecklist fails the agent once no pair can succeed anymore.
func (a *Agent) updateFromChecklist() {
	if a.checklist == nil || !a.checklist.exhausted() {
		return
	}
	if a.setState(StateFailed) {
		a.failErr.Store(ErrNoViableCandidate)
		a.selectedPair.Store(nil)
		a.checklist.close()
	}
}

// sendSTUN implements checkSender.
func (a *Agent) sendSTUN(raw []byte, local *Candidate, remote *net.UDPAddr) {
	if local.socket == nil {
		a.log.Warnf("Cannot send from %s: no socket", local)

		return
	}
	if _, err := local.socket.write(raw, remote); err != nil {
		a.log.Tracef("Failed to send STUN message to %s: %v", remote, err)
	}
}

// handleInbound is called by socket readers for every datagram.
func (a *Agent) handleInbound(s *candidateSocket, buf []byte, srcAddr net.Addr) {
	from, ok := srcAddr.(*net.UDPAddr)
	if !ok {
		a.log.Warnf("Dropping datagram from unsupported address %v", srcAddr)

		return
	}

	if stun.IsMessage(buf) {
		m, err := stun.Decode(buf)
		if err != nil {
			a.log.Warnf("Dropping malformed STUN message from %s: %v", from, err)

			return
		}
		_ = a.run(func(agent *Agent) {
			if agent.checklist == nil {
				agent.log.Tracef("Dropping STUN message from %s: checks not started", from)

				return
			}
			agent.checklist.handleInbound(agent.clock.Now(), m, s.candidate, from)
			agent.updateFromChecklist()
		})

		return
	}

	p := a.selectedPair.Load()
	if p == nil || p.Local != s.candidate || p.Remote.port != from.Port || !p.Remote.ip.Equal(from.IP) {
		a.log.Tracef("Dropping datagram from %s: not the selected pair", from)

		return
	}

	data := make([]byte, len(buf))
	copy(data, buf)
	if _, err := a.buffer.Write(data); err != nil {
		a.log.Warnf("Failed to buffer %d bytes: %v", len(data), err)
	}
	a.notifyReceive(data)
}

// Send writes b to the remote candidate of the selected pair. From
// Connected on, data flows over the first succeeded pair until the
// nominated pair replaces it in Completed. Before that, and after Failed,
// Send returns ErrNotConnected.
func (a *Agent) Send(b []byte) error {
	if err := a.ok(); err != nil {
		return err
	}
	p := a.selectedPair.Load()
	if p == nil {
		return ErrNotConnected
	}
	if _, err := p.Local.socket.write(b, p.Remote.addr()); err != nil {
		return fmt.Errorf("failed to send to %s: %w", p.Remote, err)
	}

	return nil
}

// Read reads the next datagram received on the selected pair.
func (a *Agent) Read(p []byte) (int, error) {
	return a.buffer.Read(p)
}

// GetLocalUserCredentials returns the local user credentials.
func (a *Agent) GetLocalUserCredentials() (frag string, pwd string, err error) {
	err = a.run(func(agent *Agent) {
		frag = agent.localUfrag
		pwd = agent.localPwd
	})

	return
}

// GetLocalCandidates returns the local candidates gathered so far.
func (a *Agent) GetLocalCandidates() ([]*Candidate, error) {
	var res []*Candidate
	err := a.run(func(agent *Agent) {
		res = append(res, agent.localCandidates...)
	})

	return res, err
}

// GetLocalDescription marshals the local credentials and candidates.
// Reading it before the remote description is set makes an agent with
// RoleAuto the controlling one.
func (a *Agent) GetLocalDescription() (string, error) {
	var desc SessionDescription
	if err := a.run(func(agent *Agent) {
		agent.localDescriptionRead = true
		desc = SessionDescription{
			Ufrag:           agent.localUfrag,
			Pwd:             agent.localPwd,
			Fingerprint:     agent.fingerprint,
			Candidates:      append([]*Candidate(nil), agent.localCandidates...),
			EndOfCandidates: agent.gatheringDone,
		}
	}); err != nil {
		return "", err
	}
	sortCandidates(desc.Candidates)

	return desc.Marshal()
}

// SetRemoteDescription applies the peer's description. It is allowed once,
// before connectivity checks start.
func (a *Agent) SetRemoteDescription(raw string) error {
	desc, err := UnmarshalSessionDescription(raw)
	if err != nil {
		return err
	}

	var setErr error
	if runErr := a.run(func(agent *Agent) {
		if agent.remoteDescriptionSet {
			setErr = fmt.Errorf("%w: remote description already set", ErrInvalidState)

			return
		}
		if agent.state != StateDisconnected && agent.state != StateGathering {
			setErr = fmt.Errorf("%w: %s", ErrInvalidState, agent.state)

			return
		}

		agent.remoteDescriptionSet = true
		agent.remoteUfrag = desc.Ufrag
		agent.remotePwd = desc.Pwd
		agent.remoteFingerprint = desc.Fingerprint
		for _, c := range desc.Candidates {
			agent.addRemoteCandidate(c)
		}
		agent.remoteGatheringDone = desc.EndOfCandidates

		switch agent.role {
		case RoleControlling:
			agent.controlling = true
		case RoleControlled:
			agent.controlling = false
		default:
			agent.controlling = agent.localDescriptionRead
		}
		agent.log.Debugf("Remote description set: %d candidates, controlling=%v", len(desc.Candidates), agent.controlling)

		agent.maybeStartChecks()
	}); runErr != nil {
		return runErr
	}

	return setErr
}

// RemoteFingerprint returns the fingerprint carried by the remote
// description.
func (a *Agent) RemoteFingerprint() (string, error) {
	var fp string
	err := a.run(func(agent *Agent) {
		fp = agent.remoteFingerprint
	})

	return fp, err
}

// AddRemoteCandidate adds a trickled remote candidate.
func (a *Agent) AddRemoteCandidate(raw string) error {
	c, err := UnmarshalCandidate(raw)
	if err != nil {
		return err
	}

	var addErr error
	if runErr := a.run(func(agent *Agent) {
		if !agent.remoteDescriptionSet {
			addErr = fmt.Errorf("%w: %v", ErrInvalidState, errMissingRemote) //nolint:errorlint

			return
		}
		agent.addRemoteCandidate(c)
		agent.updateFromChecklist()
	}); runErr != nil {
		return runErr
	}

	return addErr
}

func (a *Agent) addRemoteCandidate(c *Candidate) {
	if c.Component() != ComponentRTP {
		a.log.Debugf("Ignoring remote candidate %s for component %d", c, c.Component())

		return
	}
	for _, r := range a.remoteCandidates {
		if r.Equal(c) {
			return
		}
	}
	a.remoteCandidates = append(a.remoteCandidates, c)
	if a.checklist != nil {
		a.checklist.addRemote(c)
	}
}

// SetRemoteGatheringDone records that the peer has no more candidates.
func (a *Agent) SetRemoteGatheringDone() error {
	var setErr error
	if runErr := a.run(func(agent *Agent) {
		if !agent.remoteDescriptionSet {
			setErr = fmt.Errorf("%w: %v", ErrInvalidState, errMissingRemote) //nolint:errorlint

			return
		}
		agent.remoteGatheringDone = true
		if agent.checklist != nil {
			agent.checklist.remoteGatheringDone = true
			agent.updateFromChecklist()
		}
	}); runErr != nil {
		return runErr
	}

	return setErr
}

// Restart performs an ICE restart: the local credentials are replaced,
// the remote side and every pair are forgotten, and the agent returns to
// Gathering with its local candidates kept. Empty ufrag or pwd are
// generated.
func (a *Agent) Restart(ufrag, pwd string) error {
	var restartErr error
	if runErr := a.run(func(agent *Agent) {
		if err := agent.setCredentials(ufrag, pwd); err != nil {
			restartErr = err

			return
		}
		if agent.checklist != nil {
			agent.checklist.close()
			agent.checklist = nil
		}
		agent.selectedPair.Store(nil)
		agent.failErr.Store(nil)
		agent.tieBreaker = generateTieBreaker()
		agent.remoteUfrag = ""
		agent.remotePwd = ""
		agent.remoteFingerprint = ""
		agent.remoteCandidates = nil
		agent.remoteDescriptionSet = false
		agent.remoteGatheringDone = false
		agent.localDescriptionRead = false

		if agent.state != StateDisconnected && agent.state != StateGathering {
			agent.log.Infof("Restarting, setting new connection state: %s", StateGathering)
			agent.state = StateGathering
			agent.notifyStateChange(StateGathering)
		}
	}); runErr != nil {
		return runErr
	}

	return restartErr
}

// State returns the current agent state.
func (a *Agent) State() State {
	state := StateDisconnected
	_ = a.run(func(agent *Agent) {
		state = agent.state
	})

	return state
}

// SelectedAddresses returns the local and remote transport addresses of
// the pair data is sent on.
func (a *Agent) SelectedAddresses() (local, remote string, err error) {
	if err = a.ok(); err != nil {
		return "", "", err
	}
	p := a.selectedPair.Load()
	if p == nil {
		return "", "", ErrNotConnected
	}

	return p.Local.TransportAddress(), p.Remote.TransportAddress(), nil
}

// GetSelectedCandidatePair returns the selected pair or nil.
func (a *Agent) GetSelectedCandidatePair() *CandidatePair {
	return a.selectedPair.Load()
}

// Err returns ErrNoViableCandidate once the agent failed.
func (a *Agent) Err() error {
	return a.failErr.Load()
}

// Close cleans up the Agent. Observers are not called anymore once Close
// returns.
func (a *Agent) Close() error {
	var (
		sockets []*candidateSocket
		cancel  context.CancelFunc
	)
	if err := a.run(func(agent *Agent) {
		close(agent.done)
		agent.notifier.close()
		if agent.checklist != nil {
			agent.checklist.close()
		}
		agent.state = StateDisconnected
		sockets = agent.sockets
		agent.sockets = nil
		cancel = agent.gatherCancel
	}); err != nil {
		return err
	}

	if cancel != nil {
		cancel()
	}
	for _, s := range sockets {
		if err := s.close(); err != nil {
			a.log.Warnf("Failed to close candidate %s: %v", s.candidate, err)
		}
	}
	if err := a.buffer.Close(); err != nil {
		a.log.Warnf("Failed to close buffer: %v", err)
	}

	a.wg.Wait()

	return nil
}
