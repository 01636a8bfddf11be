// SPDX-FileCopyrightText: 2026 The Pion community <https://pion.ly>
// SPDX-License-Identifier: MIT

package stun

import (
	"crypto/hmac"
	"crypto/sha1" //nolint:gosec
	"errors"
	"fmt"
)

// NewShortTermIntegrity returns new MessageIntegrity with key for short-term
// credentials. Password must be SASL-prepared.
func NewShortTermIntegrity(password string) MessageIntegrity {
	return MessageIntegrity(password)
}

// MessageIntegrity represents MESSAGE-INTEGRITY attribute.
//
// RFC 5389 Section 15.4.
type MessageIntegrity []byte

func newHMAC(key, message []byte) []byte {
	mac := hmac.New(sha1.New, key)
	writeOrPanic(mac, message)

	return mac.Sum(nil)
}

func (i MessageIntegrity) String() string {
	return fmt.Sprintf("KEY: 0x%x", []byte(i))
}

const messageIntegritySize = 20

var (
	// ErrFingerprintBeforeIntegrity means that FINGERPRINT attribute is already in
	// message, so MESSAGE-INTEGRITY attribute cannot be added.
	ErrFingerprintBeforeIntegrity = errors.New("FINGERPRINT before MESSAGE-INTEGRITY attribute")

	// ErrIntegrityMismatch means that computed HMAC differs from expected.
	ErrIntegrityMismatch = errors.New("integrity check failed")
)

// AddTo adds MESSAGE-INTEGRITY attribute to message.
func (i MessageIntegrity) AddTo(m *Message) error {
	if m.Contains(AttrFingerprint) {
		return ErrFingerprintBeforeIntegrity
	}
	// The text used as input to HMAC is the STUN message,
	// including the header, up to and including the attribute preceding the
	// MESSAGE-INTEGRITY attribute, with the length covering MESSAGE-INTEGRITY.
	length := m.Length
	m.Length += messageIntegritySize + attributeHeaderSize
	m.WriteLength()
	v := newHMAC(i, m.Raw[:messageHeaderSize+int(length)])
	m.Length = length

	m.Add(AttrMessageIntegrity, v)

	return nil
}

// Check checks MESSAGE-INTEGRITY attribute.
func (i MessageIntegrity) Check(m *Message) error {
	val, err := m.Get(AttrMessageIntegrity)
	if err != nil {
		return err
	}
	if err = CheckSize(AttrMessageIntegrity, len(val), messageIntegritySize); err != nil {
		return err
	}

	// Adjusting length in header to match m.Raw that was
	// used when computing HMAC.
	var (
		length         = m.Length
		afterIntegrity = false
		sizeReduced    int
	)
	for _, a := range m.Attributes {
		if afterIntegrity {
			sizeReduced += nearestPaddedValueLength(int(a.Length))
			sizeReduced += attributeHeaderSize
		}
		if a.Type == AttrMessageIntegrity {
			afterIntegrity = true
		}
	}
	m.Length -= uint32(sizeReduced) //nolint:gosec // G115
	m.WriteLength()
	// startOfHMAC should be first byte of integrity attribute.
	startOfHMAC := messageHeaderSize + m.Length - (attributeHeaderSize + messageIntegritySize)
	expected := newHMAC(i, m.Raw[:startOfHMAC])
	m.Length = length
	m.WriteLength()

	if !hmac.Equal(val, expected) {
		return ErrIntegrityMismatch
	}

	return nil
}
