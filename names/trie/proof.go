// Copyright (c) 2025 Shell Reserve developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package trie

import (
	"bytes"

	"golang.org/x/crypto/blake2b"
)

// Prove returns the sequence of node encodings along the path to key's
// leaf, or to the point of divergence for a non-existence proof
// (spec.md §4.4 "prove"). The root's encoding is always the first entry,
// matching Commit's unconditional root persistence; subsequent entries
// appear only where the path crosses a hash-node boundary; inline
// children are already contained in their parent's entry.
func (t *Trie) Prove(key []byte) ([][]byte, error) {
	nibbles := keyToNibbles(key)
	var proof [][]byte

	root, err := t.resolve(t.root, key, 0)
	if err != nil {
		return nil, err
	}
	proof = append(proof, encodeNode(root))
	cur := root
	pos := 0

	for {
		switch node := cur.(type) {
		case nullNode:
			return proof, nil
		case valueNode:
			return proof, nil
		case *shortNode:
			if len(nibbles) < len(node.Key) || !bytes.Equal(nibbles[:len(node.Key)], node.Key) {
				return proof, nil
			}
			nibbles = nibbles[len(node.Key):]
			pos += len(node.Key)
			next, err := t.stepInto(node.Val, key, pos, &proof)
			if err != nil {
				return nil, err
			}
			cur = next
		case *fullNode:
			if len(nibbles) == 0 {
				return nil, &MalformedNode{Reason: "full node reached with no remaining nibbles during prove"}
			}
			idx := nibbles[0]
			var childRef Node
			if idx == nilTerminator {
				childRef = node.Children[16]
				nibbles = nil
			} else {
				childRef = node.Children[idx]
				nibbles = nibbles[1:]
			}
			pos++
			next, err := t.stepInto(childRef, key, pos, &proof)
			if err != nil {
				return nil, err
			}
			cur = next
		default:
			return nil, &MalformedNode{Reason: "unexpected node kind during prove"}
		}
	}
}

// stepInto resolves ref, appending a new authenticated proof entry only
// when ref is a hash-node boundary; an inline child's structure is
// already contained in the current entry.
func (t *Trie) stepInto(ref Node, key []byte, pos int, proof *[][]byte) (Node, error) {
	if ref == nil {
		return nullNode{}, nil
	}
	hn, ok := ref.(hashNode)
	if !ok {
		return ref, nil
	}
	enc, err := t.kv.Get(hn[:])
	if err != nil {
		return nil, &MissingNode{Root: t.rootHash, NodeHash: [32]byte(hn), Key: key, NibblePos: pos}
	}
	*proof = append(*proof, enc)
	node, _, derr := decodeNode(enc)
	if derr != nil {
		return nil, derr
	}
	return node, nil
}

// VerifyProof statelessly verifies proof against root for key, per
// spec.md §4.4 "verify". On ResultOK the second return value is the
// committed value, or nil if key is proven absent.
func VerifyProof(root [32]byte, key []byte, proof [][]byte) (ProofResult, []byte) {
	if len(proof) == 0 {
		return ResultNoResult, nil
	}
	if blake2b.Sum256(proof[0]) != root {
		return ResultHashMismatch, nil
	}
	node, _, err := decodeNode(proof[0])
	if err != nil {
		return ResultMalformedNode, nil
	}
	return verifyWalk(node, keyToNibbles(key), proof[1:])
}

func verifyWalk(cur Node, nibbles []byte, proof [][]byte) (ProofResult, []byte) {
	for {
		switch node := cur.(type) {
		case nullNode:
			return ResultOK, nil
		case valueNode:
			if len(nibbles) != 0 {
				return ResultUnexpectedNode, nil
			}
			return ResultOK, []byte(node)
		case *shortNode:
			if len(nibbles) < len(node.Key) || !bytes.Equal(nibbles[:len(node.Key)], node.Key) {
				return ResultOK, nil
			}
			nibbles = nibbles[len(node.Key):]
			next, rest, res := stepVerify(node.Val, proof)
			if res != ResultOK {
				return res, nil
			}
			cur, proof = next, rest
		case *fullNode:
			if len(nibbles) == 0 {
				return ResultEarlyEnd, nil
			}
			idx := nibbles[0]
			var childRef Node
			if idx == nilTerminator {
				childRef = node.Children[16]
				nibbles = nil
			} else {
				childRef = node.Children[idx]
				nibbles = nibbles[1:]
			}
			next, rest, res := stepVerify(childRef, proof)
			if res != ResultOK {
				return res, nil
			}
			cur, proof = next, rest
		default:
			return ResultMalformedNode, nil
		}
	}
}

func stepVerify(ref Node, proof [][]byte) (Node, [][]byte, ProofResult) {
	if ref == nil {
		return nullNode{}, proof, ResultOK
	}
	hn, ok := ref.(hashNode)
	if !ok {
		return ref, proof, ResultOK
	}
	if len(proof) == 0 {
		return nil, proof, ResultEarlyEnd
	}
	if blake2b.Sum256(proof[0]) != [32]byte(hn) {
		return nil, proof, ResultHashMismatch
	}
	node, _, err := decodeNode(proof[0])
	if err != nil {
		return nil, proof, ResultMalformedNode
	}
	return node, proof[1:], ResultOK
}
