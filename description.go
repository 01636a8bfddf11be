// SPDX-FileCopyrightText: 2026 The Pion community <https://pion.ly>
// SPDX-License-Identifier: MIT

package ice

import (
	"fmt"

	"github.com/pion/sdp/v3"
)

// MaxDescriptionLength bounds a marshaled SessionDescription.
const MaxDescriptionLength = 4096

const (
	attrKeyUfrag           = "ice-ufrag"
	attrKeyPwd             = "ice-pwd"
	attrKeyFingerprint     = "fingerprint"
	attrKeyCandidate       = "candidate"
	attrKeyEndOfCandidates = "end-of-candidates"
)

// SessionDescription is what one agent tells its peer to start
// connectivity checks: the ICE credentials, the candidates gathered so far
// and whether gathering is complete.
type SessionDescription struct {
	Ufrag string
	Pwd   string

	// Fingerprint is opaque to the agent, e.g. "sha-256 AB:CD:...".
	Fingerprint string

	Candidates      []*Candidate
	EndOfCandidates bool
}

// Marshal encodes the description as SDP with session-level ICE attributes.
func (d *SessionDescription) Marshal() (string, error) {
	if d.Ufrag == "" || d.Pwd == "" {
		return "", ErrMissingCredentials
	}

	s, err := sdp.NewJSEPSessionDescription(false)
	if err != nil {
		return "", err
	}
	s = s.WithValueAttribute(attrKeyUfrag, d.Ufrag).
		WithValueAttribute(attrKeyPwd, d.Pwd)
	if d.Fingerprint != "" {
		s = s.WithValueAttribute(attrKeyFingerprint, d.Fingerprint)
	}
	for _, c := range d.Candidates {
		s = s.WithValueAttribute(attrKeyCandidate, c.Marshal())
	}
	if d.EndOfCandidates {
		s = s.WithPropertyAttribute(attrKeyEndOfCandidates)
	}

	raw, err := s.Marshal()
	if err != nil {
		return "", err
	}
	if len(raw) > MaxDescriptionLength {
		return "", fmt.Errorf("%w: %d bytes", ErrDescriptionTooLong, len(raw))
	}

	return string(raw), nil
}

// UnmarshalSessionDescription parses a description produced by Marshal.
// Candidates that cannot be parsed are skipped.
func UnmarshalSessionDescription(raw string) (*SessionDescription, error) {
	if len(raw) > MaxDescriptionLength {
		return nil, fmt.Errorf("%w: %d bytes", ErrDescriptionTooLong, len(raw))
	}

	s := &sdp.SessionDescription{}
	if err := s.Unmarshal([]byte(raw)); err != nil {
		return nil, err
	}

	d := &SessionDescription{}
	for _, a := range s.Attributes {
		switch a.Key {
		case attrKeyUfrag:
			d.Ufrag = a.Value
		case attrKeyPwd:
			d.Pwd = a.Value
		case attrKeyFingerprint:
			d.Fingerprint = a.Value
		case attrKeyEndOfCandidates:
			d.EndOfCandidates = true
		case attrKeyCandidate:
			c, err := UnmarshalCandidate(a.Value)
			if err != nil {
				continue
			}
			d.Candidates = append(d.Candidates, c)
		}
	}
	if d.Ufrag == "" || d.Pwd == "" {
		return nil, ErrMissingCredentials
	}

	return d, nil
}
