// SPDX-FileCopyrightText: 2026 The Pion community <https://pion.ly>
// SPDX-License-Identifier: MIT

package ice

import (
	"fmt"
	"net"
	"strings"

	"github.com/pion/logging"
	"github.com/pion/transport/v3"
)

// NetworkType represents the type of network.
type NetworkType int

const (
	// NetworkTypeUDP4 indicates UDP over IPv4.
	NetworkTypeUDP4 NetworkType = iota + 1

	// NetworkTypeUDP6 indicates UDP over IPv6.
	NetworkTypeUDP6
)

func (t NetworkType) String() string {
	switch t {
	case NetworkTypeUDP4:
		return "udp4"
	case NetworkTypeUDP6:
		return "udp6"
	default:
		return "unknown network type"
	}
}

// IsIPv4 returns whether the network type is IPv4 or not.
func (t NetworkType) IsIPv4() bool {
	return t == NetworkTypeUDP4
}

// IsIPv6 returns whether the network type is IPv6 or not.
func (t NetworkType) IsIPv6() bool {
	return t == NetworkTypeUDP6
}

func networkTypeOf(ip net.IP) NetworkType {
	if ip.To4() != nil {
		return NetworkTypeUDP4
	}

	return NetworkTypeUDP6
}

// The conditions of invalidation written below are defined in
// https://tools.ietf.org/html/rfc8445#section-5.1.1.1
func isSupportedIPv6(ip net.IP) bool {
	if len(ip) != net.IPv6len ||
		isZeros(ip[0:12]) || // !(IPv4-compatible IPv6)
		ip[0] == 0xfe && ip[1]&0xc0 == 0xc0 || // !(IPv6 site-local unicast)
		ip.IsLinkLocalUnicast() ||
		ip.IsLinkLocalMulticast() {
		return false
	}

	return true
}

func isZeros(ip net.IP) bool {
	for i := 0; i < len(ip); i++ {
		if ip[i] != 0 {
			return false
		}
	}

	return true
}

func localInterfaces(
	n transport.Net,
	interfaceFilter func(string) bool,
	ipFilter func(net.IP) bool,
	networkTypes []NetworkType,
	includeLoopback bool,
) ([]net.IP, error) { //nolint:gocognit,cyclop
	ips := []net.IP{}
	ifaces, err := n.Interfaces()
	if err != nil {
		return ips, err
	}

	var ipv4Requested, ipv6Requested bool
	for _, typ := range networkTypes {
		if typ.IsIPv4() {
			ipv4Requested = true
		}
		if typ.IsIPv6() {
			ipv6Requested = true
		}
	}

	for _, iface := range ifaces {
		if iface.Flags&net.FlagUp == 0 {
			continue // Interface down
		}
		if (iface.Flags&net.FlagLoopback != 0) && !includeLoopback {
			continue // Loopback interface
		}
		if interfaceFilter != nil && !interfaceFilter(iface.Name) {
			continue
		}

		addrs, err := iface.Addrs()
		if err != nil {
			continue
		}

		for _, addr := range addrs {
			var ip net.IP
			switch addr := addr.(type) {
			case *net.IPNet:
				ip = addr.IP
			case *net.IPAddr:
				ip = addr.IP
			}
			if ip == nil || (ip.IsLoopback() && !includeLoopback) {
				continue
			}

			if ipv4 := ip.To4(); ipv4 == nil {
				if !ipv6Requested || !isSupportedIPv6(ip) {
					continue
				}
			} else if !ipv4Requested {
				continue
			}

			if ipFilter != nil && !ipFilter(ip) {
				continue
			}

			ips = append(ips, ip)
		}
	}

	return ips, nil
}

func listenUDPInPortRange(
	n transport.Net,
	log logging.LeveledLogger,
	portMax, portMin int,
	network string,
	lAddr *net.UDPAddr,
) (transport.UDPConn, error) {
	if (lAddr.Port != 0) || ((portMin == 0) && (portMax == 0)) {
		return n.ListenUDP(network, lAddr)
	}
	var i, j int
	i = portMin
	if i == 0 {
		i = 1
	}
	j = portMax
	if j == 0 {
		j = 0xFFFF
	}
	if i > j {
		return nil, ErrPort
	}

	portStart := globalMathRandomGenerator.Intn(j-i+1) + i
	portCurrent := portStart
	for {
		addr := &net.UDPAddr{IP: lAddr.IP, Port: portCurrent}
		c, e := n.ListenUDP(network, addr)
		if e == nil {
			return c, nil
		}
		log.Debugf("Failed to listen %s: %v", addr.String(), e)
		portCurrent++
		if portCurrent > j {
			portCurrent = i
		}
		if portCurrent == portStart {
			break
		}
	}

	return nil, ErrPort
}

// externalIPMapper maps local host IPs to 1:1 NAT public IPs.
type externalIPMapper struct {
	sole  map[NetworkType]net.IP
	byLoc map[string]net.IP
}

// newExternalIPMapper accepts entries of the form "ext" (sole external IP
// for the family) or "ext/local".
func newExternalIPMapper(ips []string) (*externalIPMapper, error) {
	if len(ips) == 0 {
		return nil, nil //nolint:nilnil
	}
	m := &externalIPMapper{
		sole:  map[NetworkType]net.IP{},
		byLoc: map[string]net.IP{},
	}
	for _, entry := range ips {
		parts := strings.Split(entry, "/")
		if len(parts) > 2 {
			return nil, fmt.Errorf("%w: %s", ErrInvalidNAT1To1IPMapping, entry)
		}
		extIP := net.ParseIP(parts[0])
		if extIP == nil {
			return nil, fmt.Errorf("%w: %s", ErrInvalidNAT1To1IPMapping, entry)
		}
		family := networkTypeOf(extIP)
		if len(parts) == 1 {
			if _, ok := m.sole[family]; ok || len(m.byLoc) > 0 {
				return nil, fmt.Errorf("%w: %s", ErrInvalidNAT1To1IPMapping, entry)
			}
			m.sole[family] = extIP

			continue
		}
		locIP := net.ParseIP(parts[1])
		if locIP == nil || networkTypeOf(locIP) != family || len(m.sole) > 0 {
			return nil, fmt.Errorf("%w: %s", ErrInvalidNAT1To1IPMapping, entry)
		}
		if _, ok := m.byLoc[locIP.String()]; ok {
			return nil, fmt.Errorf("%w: %s", ErrInvalidNAT1To1IPMapping, entry)
		}
		m.byLoc[locIP.String()] = extIP
	}

	return m, nil
}

// findExternalIP returns the public IP for locIP, or locIP when unmapped.
func (m *externalIPMapper) findExternalIP(locIP net.IP) net.IP {
	if m == nil {
		return locIP
	}
	if ip, ok := m.sole[networkTypeOf(locIP)]; ok {
		return ip
	}
	if ip, ok := m.byLoc[locIP.String()]; ok {
		return ip
	}

	return locIP
}
