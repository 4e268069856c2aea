// Copyright (c) 2025 Shell Reserve developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package names

import "golang.org/x/crypto/blake2b"

// Hash is a 32-byte blake2b digest: the canonical key for name-state
// lookup (spec.md GLOSSARY "Nameshash") and for the main-variant trie.
// It is kept distinct from chainhash.Hash (sha256d, used for outpoints
// and chain-level hashes) because the two hash functions are not
// interchangeable — spec.md §3 is explicit that nameHash is blake2b(name).
type Hash [32]byte

// HashSize is the size in bytes of a Hash.
const HashSize = 32

// NameHash returns blake2b(name), the cached key used throughout the
// name-auction core.
func NameHash(name []byte) Hash {
	return Hash(blake2b.Sum256(name))
}

// ShortHash returns the first 20 bytes of blake2b(name), used as the
// fixed-width key for the Escher sub-trie variant (spec.md §3: "20-byte
// blake2b-160 digests of the DNS-wire name for the sub-trie variant").
func ShortHash(name []byte) [20]byte {
	full := blake2b.Sum256(name)
	var short [20]byte
	copy(short[:], full[:20])
	return short
}

func (h Hash) String() string {
	const hexDigits = "0123456789abcdef"
	var out [64]byte
	for i, b := range h {
		out[i*2] = hexDigits[b>>4]
		out[i*2+1] = hexDigits[b&0x0f]
	}
	return string(out[:])
}
