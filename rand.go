// SPDX-FileCopyrightText: 2026 The Pion community <https://pion.ly>
// SPDX-License-Identifier: MIT

package ice

import (
	"github.com/pion/randutil"
)

const (
	runesAlpha                 = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ"
	runesCandidateIDFoundation = runesAlpha + "0123456789+/"

	lenUFrag = 16
	lenPwd   = 32
)

var globalMathRandomGenerator = randutil.NewMathRandomGenerator() //nolint:gochecknoglobals

// generatePwd generates ICE pwd.
// This internally uses generateCryptoRandomString.
func generatePwd() (string, error) {
	return randutil.GenerateCryptoRandomString(lenPwd, runesCandidateIDFoundation)
}

// generateUFrag generates ICE user fragment.
// This internally uses generateCryptoRandomString.
func generateUFrag() (string, error) {
	return randutil.GenerateCryptoRandomString(lenUFrag, runesCandidateIDFoundation)
}

// generateTieBreaker returns the random 64-bit value carried in
// ICE-CONTROLLING and ICE-CONTROLLED.
func generateTieBreaker() uint64 {
	return globalMathRandomGenerator.Uint64()
}

// generatePrflxFoundation returns a foundation for a peer-reflexive
// candidate learned from an inbound check.
func generatePrflxFoundation() string {
	return globalMathRandomGenerator.GenerateString(8, runesCandidateIDFoundation)
}
