// SPDX-FileCopyrightText: 2026 The Pion community <https://pion.ly>
// SPDX-License-Identifier: MIT

package ice

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSessionDescription_RoundTrip(t *testing.T) {
	host := mustCandidate(t, CandidateTypeHost, "10.0.0.1:5000")
	srflx := mustUnmarshalCandidate(t, "2 1 udp 1694498815 198.51.100.1 40000 typ srflx raddr 10.0.0.1 rport 5000")

	for _, tc := range []struct {
		name string
		desc SessionDescription
	}{
		{
			"Full",
			SessionDescription{
				Ufrag:           "ufrag",
				Pwd:             "password-password-password",
				Fingerprint:     "sha-256 AB:CD:EF",
				Candidates:      []*Candidate{host, srflx},
				EndOfCandidates: true,
			},
		},
		{
			"NoCandidates",
			SessionDescription{Ufrag: "ufrag", Pwd: "password-password-password"},
		},
	} {
		t.Run(tc.name, func(t *testing.T) {
			raw, err := tc.desc.Marshal()
			require.NoError(t, err)
			assert.LessOrEqual(t, len(raw), MaxDescriptionLength)
			assert.Contains(t, raw, "a=ice-ufrag:"+tc.desc.Ufrag)

			parsed, err := UnmarshalSessionDescription(raw)
			require.NoError(t, err)
			assert.Equal(t, tc.desc.Ufrag, parsed.Ufrag)
			assert.Equal(t, tc.desc.Pwd, parsed.Pwd)
			assert.Equal(t, tc.desc.Fingerprint, parsed.Fingerprint)
			assert.Equal(t, tc.desc.EndOfCandidates, parsed.EndOfCandidates)
			require.Len(t, parsed.Candidates, len(tc.desc.Candidates))
			for i, c := range tc.desc.Candidates {
				assert.True(t, c.Equal(parsed.Candidates[i]))
				assert.Equal(t, c.Priority(), parsed.Candidates[i].Priority())
				assert.Equal(t, c.Foundation(), parsed.Candidates[i].Foundation())
			}
		})
	}
}

func TestSessionDescription_Errors(t *testing.T) {
	_, err := (&SessionDescription{Pwd: "password-password-password"}).Marshal()
	assert.ErrorIs(t, err, ErrMissingCredentials)

	var candidates []*Candidate
	for i := 0; i < 100; i++ {
		candidates = append(candidates, mustCandidate(t, CandidateTypeHost, "10.0.0.1:5000"))
	}
	_, err = (&SessionDescription{Ufrag: "ufrag", Pwd: "password-password-password", Candidates: candidates}).Marshal()
	assert.ErrorIs(t, err, ErrDescriptionTooLong)

	_, err = UnmarshalSessionDescription(strings.Repeat("a", MaxDescriptionLength+1))
	assert.ErrorIs(t, err, ErrDescriptionTooLong)

	raw, err := (&SessionDescription{Ufrag: "ufrag", Pwd: "password-password-password"}).Marshal()
	require.NoError(t, err)
	withoutPwd := strings.Replace(raw, "a=ice-pwd:password-password-password\r\n", "", 1)
	_, err = UnmarshalSessionDescription(withoutPwd)
	assert.ErrorIs(t, err, ErrMissingCredentials)

	_, err = UnmarshalSessionDescription("not sdp at all")
	assert.Error(t, err)
}

func TestSessionDescription_SkipsBadCandidates(t *testing.T) {
	raw, err := (&SessionDescription{
		Ufrag:      "ufrag",
		Pwd:        "password-password-password",
		Candidates: []*Candidate{mustCandidate(t, CandidateTypeHost, "10.0.0.1:5000")},
	}).Marshal()
	require.NoError(t, err)

	raw += "a=candidate:1 1 tcp 2130706431 10.0.0.2 5000 typ host\r\n"
	parsed, err := UnmarshalSessionDescription(raw)
	require.NoError(t, err)
	require.Len(t, parsed.Candidates, 1)
	assert.Equal(t, "10.0.0.1:5000", parsed.Candidates[0].TransportAddress())
}
