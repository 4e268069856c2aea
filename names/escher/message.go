// Copyright (c) 2025 Shell Reserve developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package escher implements the auction opcodes embedded in an UPDATE
// covenant's resource slot (spec.md §4.5): REGISTER and UPDATE messages
// that mutate a per-name sub-trie authenticated the same way as the main
// name trie, but keyed by 20-byte compound name hashes.
package escher

import (
	"encoding/binary"
)

// Opcode identifies an Escher message's operation (spec.md §4.5).
type Opcode byte

const (
	// OpRegister inserts a new compound-name key into the sub-trie after
	// proving its absence.
	OpRegister Opcode = 0x00
	// OpUpdate replaces an existing compound-name key's value after
	// proving its presence and verifying a signature under the old key.
	OpUpdate Opcode = 0x01
)

// MaxMessageSize is the hard ceiling on an Escher message's encoded size
// (spec.md §4.5 "512-byte-bounded").
const MaxMessageSize = 512

// PubKeySize is the size of a schnorr x-only public key (btcec/v2/schnorr
// "SerializePubKey").
const PubKeySize = 32

// SignatureSize is the size of a BIP340-style schnorr signature.
const SignatureSize = 64

// CompoundHashSize is the sub-trie variant's fixed key width (spec.md §3:
// "20-byte blake2b-160 digests").
const CompoundHashSize = 20

// sigMagic domain-separates the signature challenge from any other
// message a key might be asked to sign (spec.md §4.5 "MAGIC ||
// currentRoot || newPublicKey").
var sigMagic = []byte("ShellEscherUpdate")

// Message is a parsed Escher opcode, either REGISTER or UPDATE (spec.md
// §4.5).
type Message struct {
	Version          byte
	CurrentRoot      [32]byte
	Opcode           Opcode
	CompoundNameHash [CompoundHashSize]byte
	NewPublicKey     [PubKeySize]byte
	// Signature is present only for UPDATE messages.
	Signature [SignatureSize]byte
	Proof     [][]byte
}

// ParseMessage decodes an Escher opcode from a REGISTER or UPDATE
// covenant's resource payload. buf must not exceed MaxMessageSize
// (spec.md §4.5).
func ParseMessage(buf []byte) (*Message, error) {
	if len(buf) > MaxMessageSize {
		return nil, &PolicyFailure{Reason: "message exceeds 512 bytes"}
	}
	// version(1) || currentRoot(32) || opcode(1) || compoundNameHash(20)
	// || newPublicKey(32) || [signature(64) if UPDATE] || proof
	const headerLen = 1 + 32 + 1 + CompoundHashSize + PubKeySize
	if len(buf) < headerLen {
		return nil, &PolicyFailure{Reason: "message shorter than fixed header"}
	}
	m := &Message{}
	off := 0
	m.Version = buf[off]
	off++
	copy(m.CurrentRoot[:], buf[off:off+32])
	off += 32
	m.Opcode = Opcode(buf[off])
	off++
	copy(m.CompoundNameHash[:], buf[off:off+CompoundHashSize])
	off += CompoundHashSize
	copy(m.NewPublicKey[:], buf[off:off+PubKeySize])
	off += PubKeySize

	switch m.Opcode {
	case OpRegister:
	case OpUpdate:
		if len(buf) < off+SignatureSize {
			return nil, &PolicyFailure{Reason: "UPDATE message missing signature"}
		}
		copy(m.Signature[:], buf[off:off+SignatureSize])
		off += SignatureSize
	default:
		return nil, &PolicyFailure{Reason: "unknown Escher opcode"}
	}

	proof, err := decodeProof(buf[off:])
	if err != nil {
		return nil, err
	}
	m.Proof = proof
	return m, nil
}

// decodeProof parses the length-prefixed node-encoding list a Message's
// proof field carries on the wire.
func decodeProof(buf []byte) ([][]byte, error) {
	if len(buf) < 4 {
		return nil, &PolicyFailure{Reason: "truncated proof count"}
	}
	count := binary.LittleEndian.Uint32(buf[:4])
	off := 4
	proof := make([][]byte, 0, count)
	for i := uint32(0); i < count; i++ {
		if len(buf) < off+4 {
			return nil, &PolicyFailure{Reason: "truncated proof entry length"}
		}
		el := int(binary.LittleEndian.Uint32(buf[off : off+4]))
		off += 4
		if len(buf) < off+el {
			return nil, &PolicyFailure{Reason: "truncated proof entry"}
		}
		proof = append(proof, append([]byte(nil), buf[off:off+el]...))
		off += el
	}
	return proof, nil
}

// EncodeMessage serializes m back to wire form; used by tests to build
// fixtures and by wallets constructing an UPDATE covenant's payload.
func EncodeMessage(m *Message) []byte {
	buf := make([]byte, 0, MaxMessageSize)
	buf = append(buf, m.Version)
	buf = append(buf, m.CurrentRoot[:]...)
	buf = append(buf, byte(m.Opcode))
	buf = append(buf, m.CompoundNameHash[:]...)
	buf = append(buf, m.NewPublicKey[:]...)
	if m.Opcode == OpUpdate {
		buf = append(buf, m.Signature[:]...)
	}
	var cb [4]byte
	binary.LittleEndian.PutUint32(cb[:], uint32(len(m.Proof)))
	buf = append(buf, cb[:]...)
	for _, p := range m.Proof {
		var lb [4]byte
		binary.LittleEndian.PutUint32(lb[:], uint32(len(p)))
		buf = append(buf, lb[:]...)
		buf = append(buf, p...)
	}
	return buf
}

// CurrentVersion is the version byte marking a name record's committed
// data as an Escher sub-trie commitment (spec.md §4.5 "a name is in
// escher mode once its data begins with the version byte").
const CurrentVersion byte = 0x01

// committedRootSize is the length of a name record's committed data
// while in escher mode: the version byte followed by the sub-trie's
// 32-byte root.
const committedRootSize = 1 + 32

// IsEscherData reports whether data is a committed escher-mode root
// (spec.md §4.5): exactly committedRootSize bytes long and beginning with
// CurrentVersion. A name whose data does not satisfy this is in plain
// resource-record mode.
func IsEscherData(data []byte) bool {
	return len(data) == committedRootSize && data[0] == CurrentVersion
}

// EncodeCommittedRoot packs root into the version-tagged form stored as
// a name's committed data once it has entered escher mode.
func EncodeCommittedRoot(root [32]byte) []byte {
	buf := make([]byte, committedRootSize)
	buf[0] = CurrentVersion
	copy(buf[1:], root[:])
	return buf
}

// DecodeCommittedRoot unpacks a name's committed escher-mode data back
// into a sub-trie root. ok is false if data is not in escher-mode form.
func DecodeCommittedRoot(data []byte) (root [32]byte, ok bool) {
	if !IsEscherData(data) {
		return root, false
	}
	copy(root[:], data[1:])
	return root, true
}
