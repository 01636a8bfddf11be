// SPDX-FileCopyrightText: 2026 The Pion community <https://pion.ly>
// SPDX-License-Identifier: MIT

package ice

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseURL(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		for _, tc := range []struct {
			in       string
			expected URL
			str      string
		}{
			{"stun:google.de", URL{Scheme: SchemeTypeSTUN, Host: "google.de", Port: 3478, Proto: ProtoTypeUDP}, "stun:google.de:3478"},
			{"stun:google.de:1234", URL{Scheme: SchemeTypeSTUN, Host: "google.de", Port: 1234, Proto: ProtoTypeUDP}, "stun:google.de:1234"},
			{"stuns:google.de", URL{Scheme: SchemeTypeSTUNS, Host: "google.de", Port: 5349, Proto: ProtoTypeTCP}, "stuns:google.de:5349"},
			{"stun:[::1]:123", URL{Scheme: SchemeTypeSTUN, Host: "::1", Port: 123, Proto: ProtoTypeUDP}, "stun:[::1]:123"},
			{"turn:google.de", URL{Scheme: SchemeTypeTURN, Host: "google.de", Port: 3478, Proto: ProtoTypeUDP}, "turn:google.de:3478?transport=udp"},
			{"turns:google.de", URL{Scheme: SchemeTypeTURNS, Host: "google.de", Port: 5349, Proto: ProtoTypeTCP}, "turns:google.de:5349?transport=tcp"},
			{"turn:google.de?transport=tcp", URL{Scheme: SchemeTypeTURN, Host: "google.de", Port: 3478, Proto: ProtoTypeTCP}, "turn:google.de:3478?transport=tcp"},
			{"turns:google.de?transport=udp", URL{Scheme: SchemeTypeTURNS, Host: "google.de", Port: 5349, Proto: ProtoTypeUDP}, "turns:google.de:5349?transport=udp"},
		} {
			u, err := ParseURL(tc.in)
			require.NoError(t, err, tc.in)
			assert.Equal(t, tc.expected, *u, tc.in)
			assert.Equal(t, tc.str, u.String())
			assert.Equal(t, tc.expected.Scheme == SchemeTypeSTUNS || tc.expected.Scheme == SchemeTypeTURNS, u.IsSecure())
		}
	})
	t.Run("Failure", func(t *testing.T) {
		for _, tc := range []struct {
			in  string
			err error
		}{
			{"stun:", errHost},
			{"stun://google.de", errHost},
			{"stun:google.de:port", errPortURL},
			{"stun:google.de:0", errPortURL},
			{"stun:google.de?transport=udp", errSTUNQuery},
			{"turn:google.de?trans=udp", errInvalidQuery},
			{"turn:google.de?transport=ip", errProtoType},
			{"tcp:google.de", errSchemeType},
		} {
			_, err := ParseURL(tc.in)
			assert.ErrorIs(t, err, tc.err, tc.in)
		}
	})
}

func TestSchemeAndProtoType(t *testing.T) {
	assert.Equal(t, SchemeTypeTURNS, NewSchemeType("turns"))
	assert.Equal(t, SchemeTypeUnknown, NewSchemeType("http"))
	assert.Equal(t, errSchemeType.Error(), SchemeTypeUnknown.String())
	assert.Equal(t, ProtoTypeTCP, NewProtoType("tcp"))
	assert.Equal(t, ProtoTypeUnknown, NewProtoType("sctp"))
	assert.Equal(t, errProtoType.Error(), ProtoTypeUnknown.String())
}
