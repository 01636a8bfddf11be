// SPDX-FileCopyrightText: 2026 The Pion community <https://pion.ly>
// SPDX-License-Identifier: MIT

package ice

import (
	"net"
	"time"

	"github.com/pion/logging"
	"github.com/pion/transport/v3"
	"golang.org/x/net/proxy"
)

const (
	// defaultCheckInterval is the interval between two paced checks.
	defaultCheckInterval = 50 * time.Millisecond

	// defaultInitialRTO is the first retransmission timeout of a check.
	defaultInitialRTO = 500 * time.Millisecond

	// defaultMaxRTO caps the doubling retransmission timeout.
	defaultMaxRTO = 3 * time.Second

	// defaultKeepaliveInterval used to keep the selected pair alive.
	defaultKeepaliveInterval = 15 * time.Second

	// defaultMaxBindingRequests before considering a pair failed.
	defaultMaxBindingRequests = 7

	// defaultSTUNGatherTimeout bounds a server reflexive query.
	defaultSTUNGatherTimeout = 5 * time.Second

	// defaultTaskLoopInterval is how often the agent drives its checklist.
	defaultTaskLoopInterval = 10 * time.Millisecond

	// the number of bytes that can be buffered before we start to error.
	maxBufferSize = 1000 * 1000 // 1MB
)

func defaultCandidateTypes() []CandidateType {
	return []CandidateType{CandidateTypeHost, CandidateTypeServerReflexive, CandidateTypeRelay}
}

func defaultNetworkTypes() []NetworkType {
	return []NetworkType{NetworkTypeUDP4, NetworkTypeUDP6}
}

// Role is the ICE role an agent takes.
type Role int

const (
	// RoleAuto makes the agent controlling when its local description was
	// read before the remote description was set (it made the offer).
	RoleAuto Role = iota

	// RoleControlling forces the controlling role.
	RoleControlling

	// RoleControlled forces the controlled role.
	RoleControlled
)

func (r Role) String() string {
	switch r {
	case RoleAuto:
		return "auto"
	case RoleControlling:
		return "controlling"
	case RoleControlled:
		return "controlled"
	}

	return "Unknown role"
}

// Clock provides the time connectivity checks are scheduled against.
type Clock interface {
	Now() time.Time
}

type realClock struct{}

func (realClock) Now() time.Time {
	return time.Now()
}

// AgentConfig collects the arguments to ice.Agent construction into
// a single structure, for future-proofness of the interface.
type AgentConfig struct {
	Urls []*URL

	// PortMin and PortMax are optional. Leave them 0 for the default UDP port allocation strategy.
	PortMin uint16
	PortMax uint16

	// LocalUfrag and LocalPwd values used to perform connectivity
	// checks.  The values MUST be unguessable, with at least 128 bits of
	// random number generator output used to generate the password, and
	// at least 24 bits of output to generate the username fragment.
	LocalUfrag string
	LocalPwd   string

	Role Role

	// Fingerprint is carried verbatim in the a=fingerprint line of the
	// local description, e.g. "sha-256 AB:CD:...".
	Fingerprint string

	// CheckInterval is the pacing of ordinary checks, 50ms when nil.
	CheckInterval *time.Duration

	// InitialRTO is the first retransmission timeout of a check, 500ms when nil.
	InitialRTO *time.Duration

	// MaxRTO caps the retransmission timeout, 3s when nil.
	MaxRTO *time.Duration

	// KeepaliveInterval determines how often binding indications are sent
	// on the selected pair, 15s when nil.
	KeepaliveInterval *time.Duration

	// STUNGatherTimeout bounds each server reflexive query, 5s when nil.
	STUNGatherTimeout *time.Duration

	// MaxBindingRequests is the max amount of binding requests the agent will send
	// over a candidate pair for validation or nomination, if after MaxBindingRequests
	// the candidate is yet to answer a binding request or a nomination we set the pair as failed
	MaxBindingRequests *uint16

	// NetworkTypes is an optional configuration for disabling or enabling
	// support for specific network types.
	NetworkTypes []NetworkType

	// CandidateTypes is an optional configuration for disabling or enabling
	// support for specific candidate types.
	CandidateTypes []CandidateType

	LoggerFactory logging.LoggerFactory

	// Net is the our abstracted network interface for internal development purpose only
	// (see github.com/pion/transport/v3/vnet)
	Net transport.Net

	// InterfaceFilter is a function that you can use in order to  whitelist or blacklist
	// the interfaces which are used to gather ICE candidates.
	InterfaceFilter func(string) bool

	// IPFilter is a function that you can use in order to whitelist or blacklist
	// the ips which are used to gather ICE candidates.
	IPFilter func(net.IP) bool

	// IncludeLoopback gathers host candidates on loopback interfaces.
	IncludeLoopback bool

	// NAT1To1IPs contains public IP addresses that replace host candidate
	// IPs, for servers behind 1:1 D-NAT. Entries are "ext" or "ext/local".
	NAT1To1IPs []string

	// InsecureSkipVerify controls if self-signed certificates are accepted when connecting
	// to TURN servers via TLS or DTLS
	InsecureSkipVerify bool

	// ProxyDialer is used to reach TURN servers over TCP, e.g. through a
	// corporate proxy.
	ProxyDialer proxy.Dialer

	// Clock defaults to the wall clock.
	Clock Clock
}

// initWithDefaults populates an agent and falls back to defaults if fields are unset.
func (config *AgentConfig) initWithDefaults(a *Agent) { //nolint:cyclop
	a.checklistConfig = checklistConfig{
		checkInterval:      defaultCheckInterval,
		initialRTO:         defaultInitialRTO,
		maxRTO:             defaultMaxRTO,
		keepaliveInterval:  defaultKeepaliveInterval,
		maxBindingRequests: defaultMaxBindingRequests,
		log:                a.log,
	}
	if config.CheckInterval != nil {
		a.checklistConfig.checkInterval = *config.CheckInterval
	}
	if config.InitialRTO != nil {
		a.checklistConfig.initialRTO = *config.InitialRTO
	}
	if config.MaxRTO != nil {
		a.checklistConfig.maxRTO = *config.MaxRTO
	}
	if config.KeepaliveInterval != nil {
		a.checklistConfig.keepaliveInterval = *config.KeepaliveInterval
	}
	if config.MaxBindingRequests != nil {
		a.checklistConfig.maxBindingRequests = int(*config.MaxBindingRequests)
	}

	a.taskLoopInterval = defaultTaskLoopInterval
	if a.checklistConfig.checkInterval < a.taskLoopInterval {
		a.taskLoopInterval = a.checklistConfig.checkInterval
	}

	a.gatherer.stunTimeout = defaultSTUNGatherTimeout
	if config.STUNGatherTimeout != nil {
		a.gatherer.stunTimeout = *config.STUNGatherTimeout
	}

	if len(config.CandidateTypes) == 0 {
		a.gatherer.candidateTypes = defaultCandidateTypes()
	} else {
		a.gatherer.candidateTypes = config.CandidateTypes
	}

	if len(config.NetworkTypes) == 0 {
		a.gatherer.networkTypes = defaultNetworkTypes()
	} else {
		a.gatherer.networkTypes = config.NetworkTypes
	}

	a.clock = config.Clock
	if a.clock == nil {
		a.clock = realClock{}
	}
}
