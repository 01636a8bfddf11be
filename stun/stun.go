// SPDX-FileCopyrightText: 2026 The Pion community <https://pion.ly>
// SPDX-License-Identifier: MIT

// Package stun implements the subset of Session Traversal Utilities for NAT
// (STUN, RFC 5389) needed by ICE connectivity checks (RFC 8445):
// binding requests, responses and indications together with the
// attributes used by ICE.
//
// Definitions
//
// STUN Agent: A STUN agent is an entity that implements the STUN
// protocol. The entity can be either a STUN client or a STUN
// server.
//
// Transport Address: The combination of an IP address and Port number
// (such as a UDP or TCP Port number).
package stun

import (
	"encoding/binary"
	"io"
)

// bin is shorthand to binary.BigEndian.
var bin = binary.BigEndian //nolint:gochecknoglobals

// DefaultPort is IANA assigned Port for "stun" protocol.
const DefaultPort = 3478

// DefaultTLSPort is IANA assigned Port for "stuns" protocol.
const DefaultTLSPort = 5349

func readFullOrPanic(r io.Reader, v []byte) int {
	n, err := io.ReadFull(r, v)
	if err != nil {
		panic(err) //nolint
	}

	return n
}

func writeOrPanic(w io.Writer, v []byte) int {
	n, err := w.Write(v)
	if err != nil {
		panic(err) //nolint
	}

	return n
}
