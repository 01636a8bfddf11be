// SPDX-FileCopyrightText: 2026 The Pion community <https://pion.ly>
// SPDX-License-Identifier: MIT

package ice

import (
	"errors"

	"github.com/pion/icelite/stun"
)

var (
	// ErrInvalidAddress indicates a candidate address that is not ip:port.
	ErrInvalidAddress = errors.New("invalid candidate address")

	// ErrMalformedStun indicates an inbound STUN message that failed to decode.
	ErrMalformedStun = stun.ErrMalformed

	// ErrInvalidState indicates an operation that is not allowed in the
	// current agent state.
	ErrInvalidState = errors.New("operation not allowed in current state")

	// ErrGatheringFailed indicates that a candidate source produced no candidate.
	ErrGatheringFailed = errors.New("candidate gathering failed")

	// ErrCheckFailed indicates that a connectivity check on a pair failed.
	ErrCheckFailed = errors.New("connectivity check failed")

	// ErrNoViableCandidate indicates that every candidate pair failed.
	ErrNoViableCandidate = errors.New("no viable candidate pair")

	// ErrNotConnected indicates that no candidate pair is selected yet.
	ErrNotConnected = errors.New("agent is not connected")

	// ErrClosed indicates that the agent is closed.
	ErrClosed = errors.New("agent is closed")

	// ErrDescriptionTooLong indicates a session description longer than
	// MaxDescriptionLength.
	ErrDescriptionTooLong = errors.New("session description is too long")

	// ErrCandidateTooLong indicates a candidate line longer than
	// MaxCandidateStringLength.
	ErrCandidateTooLong = errors.New("candidate string is too long")

	// ErrMissingCredentials indicates a session description without
	// ice-ufrag or ice-pwd.
	ErrMissingCredentials = errors.New("session description has no ICE credentials")

	// ErrUnknownCandidateType indicates an unsupported candidate typ value.
	ErrUnknownCandidateType = errors.New("unknown candidate type")

	// ErrUnsupportedTransport indicates a candidate transport other than udp.
	ErrUnsupportedTransport = errors.New("unsupported candidate transport")

	// ErrAttributeTooShortICECandidate indicates a candidate line with
	// missing fields.
	ErrAttributeTooShortICECandidate = errors.New("attribute not long enough to be ICE candidate")

	// ErrParseComponent indicates a candidate component that is not a number.
	ErrParseComponent = errors.New("could not parse component")

	// ErrInvalidComponent indicates a component ID outside 1..256.
	ErrInvalidComponent = errors.New("invalid component ID")

	// ErrParsePriority indicates a candidate priority that is not a number.
	ErrParsePriority = errors.New("could not parse priority")

	// ErrParsePort indicates a candidate port that is not a number.
	ErrParsePort = errors.New("could not parse port")

	// ErrParseRelatedAddr indicates malformed raddr/rport fields.
	ErrParseRelatedAddr = errors.New("could not parse related addresses")

	// ErrPort indicates malformed port range.
	ErrPort = errors.New("invalid port range")

	// ErrLocalUfragInsufficientBits indicates local username fragment
	// insufficient bits are provided.
	// Have to be at least 24 bits long.
	ErrLocalUfragInsufficientBits = errors.New("local username fragment is less than 24 bits long")

	// ErrLocalPwdInsufficientBits indicates local password insufficient bits
	// are provided.
	// Have to be at least 128 bits long.
	ErrLocalPwdInsufficientBits = errors.New("local password is less than 128 bits long")

	// ErrMultipleGatherAttempted indicates GatherCandidates has been called
	// multiple times.
	ErrMultipleGatherAttempted = errors.New("attempting to gather candidates during gathering state")

	// ErrInvalidNAT1To1IPMapping indicates a malformed NAT1To1IPs entry.
	ErrInvalidNAT1To1IPMapping = errors.New("invalid 1:1 NAT IP mapping")

	// ErrUsernameEmpty indicates agent was given TURN URL with an empty Username.
	ErrUsernameEmpty = errors.New("username is empty")

	// ErrPasswordEmpty indicates agent was given TURN URL with an empty Password.
	ErrPasswordEmpty = errors.New("password is empty")

	// ErrNoMappedAddress indicates a STUN server answer without a mapped address.
	ErrNoMappedAddress = errors.New("binding response has no mapped address")

	// ErrRoleConflict indicates a check rejected with 487 Role Conflict.
	ErrRoleConflict = errors.New("role conflict")

	// URL parsing errors.
	errSchemeType      = errors.New("unknown scheme type")
	errSTUNQuery       = errors.New("queries not supported in stun address")
	errInvalidQuery    = errors.New("invalid query")
	errHost            = errors.New("invalid hostname")
	errPortURL         = errors.New("invalid port")
	errProtoType       = errors.New("invalid transport protocol type")
	errMissingRemote   = errors.New("remote description is not set")
	errUnexpectedAddr  = errors.New("unexpected address type")
	errBindingFailed   = errors.New("stun binding query failed")
	errUnauthenticated = errors.New("message is not authenticated")
)
