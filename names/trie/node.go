// Copyright (c) 2025 Shell Reserve developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package trie

import (
	"encoding/binary"

	"golang.org/x/crypto/blake2b"
)

// Node is the tagged variant over the trie's four persisted node kinds
// plus the in-memory null marker (spec.md §3 "Authenticated Name Trie",
// §9 "Node polymorphism": dispatch on tag, no dynamic-dispatch runtime
// required). nullNode, hashNode and valueNode are immutable value types;
// *shortNode and *fullNode carry a dirty/generation tag and are mutated
// in place by insert/remove/commit.
type Node interface {
	node()
}

// nullNode is the empty subtree.
type nullNode struct{}

func (nullNode) node() {}

// hashNode is a 32-byte pointer to a node persisted in the KV backend.
type hashNode [32]byte

func (hashNode) node() {}

// valueNode is a leaf payload.
type valueNode []byte

func (valueNode) node() {}

// flag carries a node's dirty bit and the generation stamped on it at
// commit. The generation is recorded only; no code evicts nodes by it.
type flag struct {
	generation uint32
	dirty      bool
}

// shortNode is a path-compressed prefix plus a single child (spec.md §3).
// Key is a nibble slice, NOT the compact on-disk encoding; compaction
// happens only in encodeNode/decodeNode.
type shortNode struct {
	Key []byte
	Val Node
	flag
}

func (*shortNode) node() {}

// fullNode is the 17-way branch: 16 nibble children plus a terminal value
// slot at index 16 (spec.md §3).
type fullNode struct {
	Children [17]Node
	flag
}

func (*fullNode) node() {}

// nilTerminator is the nibble value appended to a key's nibble expansion
// to distinguish a leaf key from a path prefix (spec.md §4.4 "Key nibble
// encoding").
const nilTerminator = 0x10

// keyToNibbles expands key into its nibble array with a trailing
// terminator.
func keyToNibbles(key []byte) []byte {
	n := make([]byte, len(key)*2+1)
	for i, b := range key {
		n[i*2] = b >> 4
		n[i*2+1] = b & 0x0f
	}
	n[len(n)-1] = nilTerminator
	return n
}

func hasTerm(nibbles []byte) bool {
	return len(nibbles) > 0 && nibbles[len(nibbles)-1] == nilTerminator
}

// commonPrefixLen returns the length of the shared prefix of a and b.
func commonPrefixLen(a, b []byte) int {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	for i := 0; i < n; i++ {
		if a[i] != b[i] {
			return i
		}
	}
	return n
}

// compactEncode packs a nibble slice into the two-bits-of-header,
// two-nibbles-per-byte on-disk form (spec.md §4.4 "Compact nibble
// encoding"). Bit 1 of the header marks a terminal key; bit 0 marks an
// odd nibble count, whose first nibble is then packed into the header
// byte's low nibble.
func compactEncode(nibbles []byte) []byte {
	var terminal, odd byte
	if hasTerm(nibbles) {
		terminal = 1
		nibbles = nibbles[:len(nibbles)-1]
	}
	if len(nibbles)%2 == 1 {
		odd = 1
	}
	header := (terminal << 1) | odd
	first := header << 6
	rest := nibbles
	if odd == 1 {
		first |= rest[0]
		rest = rest[1:]
	}
	out := make([]byte, 1+len(rest)/2)
	out[0] = first
	for i := 0; i < len(rest); i += 2 {
		out[1+i/2] = rest[i]<<4 | rest[i+1]
	}
	return out
}

// compactDecode reverses compactEncode.
func compactDecode(buf []byte) ([]byte, error) {
	if len(buf) == 0 {
		return nil, &MalformedNode{Reason: "empty compact key"}
	}
	header := buf[0] >> 6
	terminal := header&0x02 != 0
	odd := header&0x01 != 0

	var nibbles []byte
	if odd {
		nibbles = append(nibbles, buf[0]&0x0f)
	}
	for _, b := range buf[1:] {
		nibbles = append(nibbles, b>>4, b&0x0f)
	}
	if terminal {
		nibbles = append(nibbles, nilTerminator)
	}
	return nibbles, nil
}

// Node type tags (spec.md §6 "Trie node: one-byte type tag").
const (
	tagNull byte = iota
	tagHash
	tagShort
	tagFull
	tagValue
)

// encodeNode serializes n per spec.md §6: "SHORT uses the compact nibble
// encoding; FULL writes its 17 children inline (each being a
// one-byte-tag-prefixed sub-node or a HASH pointer)".
func encodeNode(n Node) []byte {
	switch node := n.(type) {
	case nil, nullNode:
		return []byte{tagNull}
	case hashNode:
		out := make([]byte, 1+32)
		out[0] = tagHash
		copy(out[1:], node[:])
		return out
	case valueNode:
		var lb [4]byte
		binary.LittleEndian.PutUint32(lb[:], uint32(len(node)))
		out := make([]byte, 0, 1+4+len(node))
		out = append(out, tagValue)
		out = append(out, lb[:]...)
		out = append(out, node...)
		return out
	case *shortNode:
		ck := compactEncode(node.Key)
		child := encodeNode(node.Val)
		var kl [2]byte
		binary.LittleEndian.PutUint16(kl[:], uint16(len(ck)))
		out := make([]byte, 0, 1+2+len(ck)+len(child))
		out = append(out, tagShort)
		out = append(out, kl[:]...)
		out = append(out, ck...)
		out = append(out, child...)
		return out
	case *fullNode:
		out := []byte{tagFull}
		for i := 0; i < 17; i++ {
			c := node.Children[i]
			if c == nil {
				c = nullNode{}
			}
			enc := encodeNode(c)
			var cl [4]byte
			binary.LittleEndian.PutUint32(cl[:], uint32(len(enc)))
			out = append(out, cl[:]...)
			out = append(out, enc...)
		}
		return out
	default:
		return []byte{tagNull}
	}
}

// decodeNode parses a single node from the head of buf, returning the
// node and the number of bytes consumed.
func decodeNode(buf []byte) (Node, int, error) {
	if len(buf) == 0 {
		return nil, 0, &MalformedNode{Reason: "empty node encoding"}
	}
	switch buf[0] {
	case tagNull:
		return nullNode{}, 1, nil
	case tagHash:
		if len(buf) < 1+32 {
			return nil, 0, &MalformedNode{Reason: "truncated hash node"}
		}
		var h hashNode
		copy(h[:], buf[1:33])
		return h, 33, nil
	case tagValue:
		if len(buf) < 5 {
			return nil, 0, &MalformedNode{Reason: "truncated value node length"}
		}
		vl := int(binary.LittleEndian.Uint32(buf[1:5]))
		if len(buf) < 5+vl {
			return nil, 0, &MalformedNode{Reason: "truncated value node payload"}
		}
		return valueNode(append([]byte(nil), buf[5:5+vl]...)), 5 + vl, nil
	case tagShort:
		if len(buf) < 3 {
			return nil, 0, &MalformedNode{Reason: "truncated short node key length"}
		}
		kl := int(binary.LittleEndian.Uint16(buf[1:3]))
		off := 3
		if len(buf) < off+kl {
			return nil, 0, &MalformedNode{Reason: "truncated short node key"}
		}
		nibbles, err := compactDecode(buf[off : off+kl])
		if err != nil {
			return nil, 0, err
		}
		off += kl
		child, n, err := decodeNode(buf[off:])
		if err != nil {
			return nil, 0, err
		}
		off += n
		return &shortNode{Key: nibbles, Val: child}, off, nil
	case tagFull:
		off := 1
		var fn fullNode
		for i := 0; i < 17; i++ {
			if len(buf) < off+4 {
				return nil, 0, &MalformedNode{Reason: "truncated full node child length"}
			}
			cl := int(binary.LittleEndian.Uint32(buf[off : off+4]))
			off += 4
			if len(buf) < off+cl {
				return nil, 0, &MalformedNode{Reason: "truncated full node child"}
			}
			child, n, err := decodeNode(buf[off : off+cl])
			if err != nil {
				return nil, 0, err
			}
			if n != cl {
				return nil, 0, &MalformedNode{Reason: "full node child length mismatch"}
			}
			fn.Children[i] = child
			off += cl
		}
		return &fn, off, nil
	default:
		return nil, 0, &MalformedNode{Reason: "unknown node type tag"}
	}
}

// hashOf returns blake2b(encodeNode(n)).
func hashOf(n Node) [32]byte {
	return blake2b.Sum256(encodeNode(n))
}

// emptyRootHash is the well-known empty-trie root: blake2b of the single
// byte 0x00 (spec.md §3 "Empty-root is a fixed well-known hash").
var emptyRootHash = blake2b.Sum256([]byte{0x00})
