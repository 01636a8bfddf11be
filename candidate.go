// SPDX-FileCopyrightText: 2026 The Pion community <https://pion.ly>
// SPDX-License-Identifier: MIT

package ice

import (
	"fmt"
	"hash/crc32"
	"net"
	"sort"
	"strconv"
	"strings"

	"github.com/pion/randutil"
)

const (
	receiveMTU             = 8192
	defaultLocalPreference = 65535

	// ComponentRTP indicates that the candidate is used for RTP.
	ComponentRTP uint16 = 1

	maxComponent uint16 = 256

	// MaxCandidateStringLength bounds a marshaled candidate attribute.
	MaxCandidateStringLength = 256

	candidateIDLength = 16
	candidatePrefix   = "candidate:"
)

// CandidateType represents the type of candidate.
type CandidateType byte

// CandidateType enum.
const (
	CandidateTypeUnspecified CandidateType = iota
	CandidateTypeHost
	CandidateTypeServerReflexive
	CandidateTypePeerReflexive
	CandidateTypeRelay
)

// String makes CandidateType printable.
func (c CandidateType) String() string {
	switch c {
	case CandidateTypeHost:
		return "host"
	case CandidateTypeServerReflexive:
		return "srflx"
	case CandidateTypePeerReflexive:
		return "prflx"
	case CandidateTypeRelay:
		return "relay"
	case CandidateTypeUnspecified:
		return "Unknown candidate type"
	}

	return "Unknown candidate type"
}

// Preference returns the preference weight of a CandidateType.
//
// 4.1.2.2.  Guidelines for Choosing Type and Local Preferences
// The RECOMMENDED values are 126 for host candidates, 100
// for server reflexive candidates, 110 for peer reflexive candidates,
// and 0 for relayed candidates.
func (c CandidateType) Preference() uint16 {
	switch c {
	case CandidateTypeHost:
		return 126
	case CandidateTypePeerReflexive:
		return 110
	case CandidateTypeServerReflexive:
		return 100
	case CandidateTypeRelay, CandidateTypeUnspecified:
		return 0
	}

	return 0
}

func candidateTypeFromString(s string) (CandidateType, error) {
	switch s {
	case "host":
		return CandidateTypeHost, nil
	case "srflx":
		return CandidateTypeServerReflexive, nil
	case "prflx":
		return CandidateTypePeerReflexive, nil
	case "relay":
		return CandidateTypeRelay, nil
	}

	return CandidateTypeUnspecified, fmt.Errorf("%w: %s", ErrUnknownCandidateType, s)
}

// CandidateRelatedAddress convey transport addresses related to the
// candidate, useful for diagnostics and other purposes.
type CandidateRelatedAddress struct {
	Address string
	Port    int
}

// String makes CandidateRelatedAddress printable.
func (c *CandidateRelatedAddress) String() string {
	if c == nil {
		return ""
	}

	return fmt.Sprintf(" related %s", net.JoinHostPort(c.Address, strconv.Itoa(c.Port)))
}

// Equal allows comparing two CandidateRelatedAddresses.
func (c *CandidateRelatedAddress) Equal(other *CandidateRelatedAddress) bool {
	if c == nil && other == nil {
		return true
	}

	return c != nil && other != nil &&
		c.Address == other.Address &&
		c.Port == other.Port
}

// Candidate is a transport address through which the peer may be
// reachable. Candidates are immutable once created.
type Candidate struct {
	id             string
	candidateType  CandidateType
	ip             net.IP
	port           int
	priority       uint32
	foundation     string
	component      uint16
	relatedAddress *CandidateRelatedAddress

	// socket is set for local candidates only.
	socket *candidateSocket
}

// CandidateConfig is the config required to create a new Candidate.
type CandidateConfig struct {
	Type      CandidateType
	Address   string
	Port      int
	Component uint16

	// Priority overrides the computed priority when non-zero, as for
	// candidates learned from the peer.
	Priority uint32

	// LocalPreference defaults to 65535 when zero.
	LocalPreference uint16

	// Foundation is derived from the type, base address and ServerURL
	// when empty.
	Foundation string
	ServerURL  string

	RelatedAddress *CandidateRelatedAddress
}

// NewCandidate creates a candidate of the given type for an ip:port
// transport address.
func NewCandidate(typ CandidateType, address string, componentID uint16) (*Candidate, error) {
	host, portStr, err := net.SplitHostPort(address)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidAddress, address)
	}
	port, err := strconv.ParseUint(portStr, 10, 16)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidAddress, address)
	}

	return newCandidateFromConfig(&CandidateConfig{
		Type:      typ,
		Address:   host,
		Port:      int(port),
		Component: componentID,
	})
}

func newCandidateFromConfig(config *CandidateConfig) (*Candidate, error) {
	ip := net.ParseIP(config.Address)
	if ip == nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidAddress, config.Address)
	}
	if config.Port < 0 || config.Port > 65535 {
		return nil, fmt.Errorf("%w: port %d", ErrInvalidAddress, config.Port)
	}
	if v4 := ip.To4(); v4 != nil {
		ip = v4
	}
	if config.Type < CandidateTypeHost || config.Type > CandidateTypeRelay {
		return nil, ErrUnknownCandidateType
	}

	component := config.Component
	if component < ComponentRTP || component > maxComponent {
		return nil, fmt.Errorf("%w: %d", ErrInvalidComponent, component)
	}

	id, err := randutil.GenerateCryptoRandomString(candidateIDLength, runesAlpha)
	if err != nil {
		return nil, err
	}

	c := &Candidate{
		id:             "candidate:" + id,
		candidateType:  config.Type,
		ip:             ip,
		port:           config.Port,
		component:      component,
		foundation:     config.Foundation,
		relatedAddress: config.RelatedAddress,
		priority:       config.Priority,
	}
	if c.foundation == "" {
		base := ip.String()
		if config.RelatedAddress != nil {
			base = config.RelatedAddress.Address
		}
		c.foundation = candidateFoundation(config.Type, base, config.ServerURL)
	}
	if c.priority == 0 {
		localPreference := config.LocalPreference
		if localPreference == 0 {
			localPreference = defaultLocalPreference
		}
		c.priority = candidatePriority(config.Type, localPreference, component)
	}

	return c, nil
}

// candidatePriority computes the RFC 8445 Section 5.1.2.1 priority.
func candidatePriority(typ CandidateType, localPreference, component uint16) uint32 {
	return (1<<24)*uint32(typ.Preference()) +
		(1<<8)*uint32(localPreference) +
		uint32(256-component)
}

// candidateFoundation is equal for candidates of the same type, base IP
// and server, as required by RFC 8445 Section 5.1.1.3.
func candidateFoundation(typ CandidateType, baseIP, serverURL string) string {
	return strconv.FormatUint(uint64(crc32.ChecksumIEEE([]byte(typ.String()+baseIP+"udp"+serverURL))), 10)
}

// ID returns Candidate ID.
func (c *Candidate) ID() string {
	return c.id
}

// Type returns candidate type.
func (c *Candidate) Type() CandidateType {
	return c.candidateType
}

// Address returns the candidate IP.
func (c *Candidate) Address() string {
	return c.ip.String()
}

// Port returns the candidate port.
func (c *Candidate) Port() int {
	return c.port
}

// TransportAddress returns the candidate ip:port.
func (c *Candidate) TransportAddress() string {
	return net.JoinHostPort(c.ip.String(), strconv.Itoa(c.port))
}

// Priority returns the candidate priority.
func (c *Candidate) Priority() uint32 {
	return c.priority
}

// Foundation returns the candidate foundation.
func (c *Candidate) Foundation() string {
	return c.foundation
}

// Component returns candidate component.
func (c *Candidate) Component() uint16 {
	return c.component
}

// RelatedAddress returns *CandidateRelatedAddress.
func (c *Candidate) RelatedAddress() *CandidateRelatedAddress {
	return c.relatedAddress
}

func (c *Candidate) addr() *net.UDPAddr {
	return &net.UDPAddr{IP: c.ip, Port: c.port}
}

func (c *Candidate) isIPv4() bool {
	return c.ip.To4() != nil
}

// String makes the Candidate printable.
func (c *Candidate) String() string {
	return fmt.Sprintf("%s %s%s", c.candidateType, c.TransportAddress(), c.relatedAddress)
}

// Equal is used to compare two Candidates.
func (c *Candidate) Equal(other *Candidate) bool {
	return c.candidateType == other.candidateType &&
		c.ip.Equal(other.ip) &&
		c.port == other.port &&
		c.component == other.component &&
		c.relatedAddress.Equal(other.relatedAddress)
}

// Marshal returns the string representation of the candidate as carried by
// an a=candidate attribute (RFC 8839 Section 5.1), without the
// "candidate:" prefix.
func (c *Candidate) Marshal() string {
	val := fmt.Sprintf("%s %d udp %d %s %d typ %s",
		c.foundation,
		c.component,
		c.priority,
		c.ip,
		c.port,
		c.candidateType,
	)
	if r := c.relatedAddress; r != nil {
		val += fmt.Sprintf(" raddr %s rport %d", r.Address, r.Port)
	}

	return val
}

// UnmarshalCandidate parses a candidate attribute value. The "a=" and
// "candidate:" prefixes are optional.
func UnmarshalCandidate(raw string) (*Candidate, error) { //nolint:cyclop
	if len(raw) > MaxCandidateStringLength {
		return nil, ErrCandidateTooLong
	}
	raw = strings.TrimPrefix(strings.TrimSpace(raw), "a=")
	raw = strings.TrimPrefix(raw, candidatePrefix)

	split := strings.Fields(raw)
	if len(split) < 8 {
		return nil, fmt.Errorf("%w (%d)", ErrAttributeTooShortICECandidate, len(split))
	}

	foundation := split[0]

	component, err := strconv.ParseUint(split[1], 10, 16)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrParseComponent, err) //nolint:errorlint
	}

	if !strings.EqualFold(split[2], "udp") {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedTransport, split[2])
	}

	priority, err := strconv.ParseUint(split[3], 10, 32)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrParsePriority, err) //nolint:errorlint
	}

	address := split[4]

	port, err := strconv.ParseUint(split[5], 10, 16)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrParsePort, err) //nolint:errorlint
	}

	if split[6] != "typ" {
		return nil, fmt.Errorf("%w: missing typ", ErrAttributeTooShortICECandidate)
	}
	typ, err := candidateTypeFromString(split[7])
	if err != nil {
		return nil, err
	}

	var related *CandidateRelatedAddress
	ext := split[8:]
	for i := 0; i+1 < len(ext); i += 2 {
		switch ext[i] {
		case "raddr":
			if related == nil {
				related = &CandidateRelatedAddress{}
			}
			related.Address = ext[i+1]
		case "rport":
			if related == nil {
				related = &CandidateRelatedAddress{}
			}
			rport, err := strconv.ParseUint(ext[i+1], 10, 16)
			if err != nil {
				return nil, fmt.Errorf("%w: %v", ErrParseRelatedAddr, err) //nolint:errorlint
			}
			related.Port = int(rport)
		}
	}
	if related != nil && net.ParseIP(related.Address) == nil {
		return nil, fmt.Errorf("%w: raddr %q", ErrParseRelatedAddr, related.Address)
	}

	return newCandidateFromConfig(&CandidateConfig{
		Type:           typ,
		Address:        address,
		Port:           int(port),
		Component:      uint16(component),
		Priority:       uint32(priority),
		Foundation:     foundation,
		RelatedAddress: related,
	})
}

// sortCandidates orders candidates by descending priority, keeping
// insertion order among equal priorities.
func sortCandidates(candidates []*Candidate) {
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].priority > candidates[j].priority
	})
}
