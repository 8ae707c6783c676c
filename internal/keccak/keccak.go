// Package keccak wraps the legacy Keccak-256 hash the VM exposes. The
// chain predates the final SHA-3 padding, so sha3.Sum256 would produce the
// wrong digests for selectors and storage slots.
package keccak

import (
	"golang.org/x/crypto/sha3"
)

// Sum256 returns the legacy Keccak-256 digest of data.
func Sum256(data []byte) [32]byte {
	h := sha3.NewLegacyKeccak256()
	h.Write(data) //nolint:errcheck // hash writes cannot fail
	var out [32]byte
	h.Sum(out[:0])
	return out
}

// Selector returns the first four bytes of the Keccak-256 digest of a
// canonical signature.
func Selector(signature string) [4]byte {
	sum := Sum256([]byte(signature))
	var sel [4]byte
	copy(sel[:], sum[:4])
	return sel
}
