// SPDX-FileCopyrightText: 2026 The Pion community <https://pion.ly>
// SPDX-License-Identifier: MIT

package stun

import (
	"errors"
	"fmt"
	"net"
	"strconv"

	"github.com/pion/transport/v3/utils/xor"
)

const (
	familyIPv4 uint16 = 0x01
	familyIPv6 uint16 = 0x02
)

// ErrBadIPLength means that len(IP) is not net.{IPv6len,IPv4len}.
var ErrBadIPLength = errors.New("invalid length of IP value")

// XORMappedAddress implements XOR-MAPPED-ADDRESS attribute.
//
// RFC 5389 Section 15.2.
type XORMappedAddress struct {
	IP   net.IP
	Port int
}

func (a XORMappedAddress) String() string {
	return net.JoinHostPort(a.IP.String(), strconv.Itoa(a.Port))
}

// xorKey is the magic cookie followed by the transaction ID, the value
// that addresses are XOR-ed with.
func xorKey(m *Message) []byte {
	key := make([]byte, net.IPv6len)
	bin.PutUint32(key[0:4], magicCookie)
	copy(key[4:], m.TransactionID[:])

	return key
}

// familyOf returns the wire family and the canonical form of ip.
func familyOf(ip net.IP) (uint16, net.IP, error) {
	if v4 := ip.To4(); v4 != nil {
		return familyIPv4, v4, nil
	}
	if len(ip) == net.IPv6len {
		return familyIPv6, ip, nil
	}

	return 0, nil, ErrBadIPLength
}

// AddToAs adds XOR-MAPPED-ADDRESS value to m as attr attribute.
func (a XORMappedAddress) AddToAs(m *Message, attr AttrType) error {
	family, ip, err := familyOf(a.IP)
	if err != nil {
		return err
	}
	value := make([]byte, 4+len(ip))
	bin.PutUint16(value[0:2], family)
	bin.PutUint16(value[2:4], uint16(a.Port^magicCookie>>16)) //nolint:gosec // G115, port
	xor.XorBytes(value[4:], ip, xorKey(m))
	m.Add(attr, value)

	return nil
}

// AddTo adds XOR-MAPPED-ADDRESS to m. Can return ErrBadIPLength
// if len(a.IP) is invalid.
func (a XORMappedAddress) AddTo(m *Message) error {
	return a.AddToAs(m, AttrXORMappedAddress)
}

// GetFromAs decodes XOR-MAPPED-ADDRESS attribute value in message
// getting it as for attr type.
func (a *XORMappedAddress) GetFromAs(m *Message, attr AttrType) error {
	value, err := m.Get(attr)
	if err != nil {
		return err
	}
	ipLen, err := addressLength(attr, value)
	if err != nil {
		return err
	}
	a.IP = make(net.IP, ipLen)
	a.Port = int(bin.Uint16(value[2:4])) ^ (magicCookie >> 16)
	xor.XorBytes(a.IP, value[4:], xorKey(m))

	return nil
}

// GetFrom decodes XOR-MAPPED-ADDRESS attribute in message and returns
// error if any.
func (a *XORMappedAddress) GetFrom(m *Message) error {
	return a.GetFromAs(m, AttrXORMappedAddress)
}

// addressLength validates the family and size of an address attribute
// value and returns the IP length it carries.
func addressLength(attr AttrType, value []byte) (int, error) {
	if len(value) < 4 {
		return 0, newDecodeErr("address", "length",
			fmt.Sprintf("%s value is %d bytes", attr, len(value)),
		)
	}
	family := bin.Uint16(value[0:2])
	var ipLen int
	switch family {
	case familyIPv4:
		ipLen = net.IPv4len
	case familyIPv6:
		ipLen = net.IPv6len
	default:
		return 0, newDecodeErr("address", "family",
			fmt.Sprintf("bad value %d", family),
		)
	}
	if err := CheckSize(attr, len(value[4:]), ipLen); err != nil {
		return 0, err
	}

	return ipLen, nil
}
