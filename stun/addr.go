// SPDX-FileCopyrightText: 2026 The Pion community <https://pion.ly>
// SPDX-License-Identifier: MIT

package stun

import (
	"net"
	"strconv"
)

// MappedAddress represents MAPPED-ADDRESS attribute.
//
// Legacy servers answer with it instead of XOR-MAPPED-ADDRESS.
//
// RFC 5389 Section 15.1.
type MappedAddress struct {
	IP   net.IP
	Port int
}

func (a MappedAddress) String() string {
	return net.JoinHostPort(a.IP.String(), strconv.Itoa(a.Port))
}

// GetFrom decodes MAPPED-ADDRESS from message.
func (a *MappedAddress) GetFrom(m *Message) error {
	value, err := m.Get(AttrMappedAddress)
	if err != nil {
		return err
	}
	ipLen, err := addressLength(AttrMappedAddress, value)
	if err != nil {
		return err
	}
	a.IP = make(net.IP, ipLen)
	copy(a.IP, value[4:])
	a.Port = int(bin.Uint16(value[2:4]))

	return nil
}

// AddTo adds MAPPED-ADDRESS to message.
func (a MappedAddress) AddTo(m *Message) error {
	family, ip, err := familyOf(a.IP)
	if err != nil {
		return err
	}
	value := make([]byte, 4+len(ip))
	bin.PutUint16(value[0:2], family)
	bin.PutUint16(value[2:4], uint16(a.Port)) //nolint:gosec // G115
	copy(value[4:], ip)
	m.Add(AttrMappedAddress, value)

	return nil
}

// ResponseAddress returns the reflexive address carried by a binding
// response, preferring XOR-MAPPED-ADDRESS over MAPPED-ADDRESS.
func ResponseAddress(m *Message) (*net.UDPAddr, error) {
	var xorAddr XORMappedAddress
	if err := xorAddr.GetFrom(m); err == nil {
		return &net.UDPAddr{IP: xorAddr.IP, Port: xorAddr.Port}, nil
	} else if !m.Contains(AttrMappedAddress) {
		return nil, err
	}
	var addr MappedAddress
	if err := addr.GetFrom(m); err != nil {
		return nil, err
	}

	return &net.UDPAddr{IP: addr.IP, Port: addr.Port}, nil
}
