// SPDX-FileCopyrightText: 2026 The Pion community <https://pion.ly>
// SPDX-License-Identifier: MIT

package stun

import (
	"fmt"
	"strconv"
)

// Attributes is list of message attributes.
type Attributes []RawAttribute

// Get returns first attribute from list by the type.
// If attribute is present the RawAttribute is returned and the
// boolean is true. Otherwise the returned RawAttribute will be
// empty and boolean will be false.
func (a Attributes) Get(t AttrType) (RawAttribute, bool) {
	for _, candidate := range a {
		if candidate.Type == t {
			return candidate, true
		}
	}

	return RawAttribute{}, false
}

// AttrType is attribute type.
type AttrType uint16

// Required returns true if type is from comprehension-required range (0x0000-0x7FFF).
func (t AttrType) Required() bool {
	return t <= 0x7FFF
}

// Optional returns true if type is from comprehension-optional range (0x8000-0xFFFF).
func (t AttrType) Optional() bool {
	return t >= 0x8000
}

// Attributes from comprehension-required range (0x0000-0x7FFF).
const (
	AttrMappedAddress    AttrType = 0x0001 // MAPPED-ADDRESS
	AttrUsername         AttrType = 0x0006 // USERNAME
	AttrMessageIntegrity AttrType = 0x0008 // MESSAGE-INTEGRITY
	AttrErrorCode        AttrType = 0x0009 // ERROR-CODE
	AttrXORMappedAddress AttrType = 0x0020 // XOR-MAPPED-ADDRESS
	AttrPriority         AttrType = 0x0024 // PRIORITY
	AttrUseCandidate     AttrType = 0x0025 // USE-CANDIDATE
)

// Attributes from comprehension-optional range (0x8000-0xFFFF).
const (
	AttrSoftware       AttrType = 0x8022 // SOFTWARE
	AttrFingerprint    AttrType = 0x8028 // FINGERPRINT
	AttrICEControlled  AttrType = 0x8029 // ICE-CONTROLLED
	AttrICEControlling AttrType = 0x802A // ICE-CONTROLLING
)

// Value returns uint16 representation of attribute type.
func (t AttrType) Value() uint16 {
	return uint16(t)
}

func attrNames() map[AttrType]string {
	return map[AttrType]string{
		AttrMappedAddress:    "MAPPED-ADDRESS",
		AttrUsername:         "USERNAME",
		AttrErrorCode:        "ERROR-CODE",
		AttrMessageIntegrity: "MESSAGE-INTEGRITY",
		AttrXORMappedAddress: "XOR-MAPPED-ADDRESS",
		AttrPriority:         "PRIORITY",
		AttrUseCandidate:     "USE-CANDIDATE",
		AttrSoftware:         "SOFTWARE",
		AttrFingerprint:      "FINGERPRINT",
		AttrICEControlled:    "ICE-CONTROLLED",
		AttrICEControlling:   "ICE-CONTROLLING",
	}
}

func (t AttrType) String() string {
	s, ok := attrNames()[t]
	if !ok {
		// Just return hex representation of unknown attribute type.
		return fmt.Sprintf("0x%x", uint16(t))
	}

	return s
}

// compatAttrType returns the attribute type for a wire value.
func compatAttrType(val uint16) AttrType {
	return AttrType(val)
}

// RawAttribute is a Type-Length-Value (TLV) object that
// can be added to a STUN message. Attributes are divided into two
// types: comprehension-required and comprehension-optional.  STUN
// agents can safely ignore comprehension-optional attributes they
// don't understand, but cannot successfully process a message if it
// contains comprehension-required attributes that are not
// understood.
type RawAttribute struct {
	Type   AttrType
	Length uint16 // ignored while encoding
	Value  []byte
}

// AddTo implements Setter, adding attribute as a.Type with a.Value and ignoring
// the Length field.
func (a RawAttribute) AddTo(m *Message) error {
	m.Add(a.Type, a.Value)

	return nil
}

// Equal returns true if a == b.
func (a RawAttribute) Equal(b RawAttribute) bool {
	if a.Type != b.Type {
		return false
	}
	if a.Length != b.Length {
		return false
	}
	if len(b.Value) != len(a.Value) {
		return false
	}
	for i, v := range a.Value {
		if b.Value[i] != v {
			return false
		}
	}

	return true
}

func (a RawAttribute) String() string {
	return a.Type.String() + ": " + strconv.Quote(string(a.Value))
}

const padding = 4

func nearestPaddedValueLength(l int) int {
	n := padding * (l / padding)
	if n < l {
		n += padding
	}

	return n
}
