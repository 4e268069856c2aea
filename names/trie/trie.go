// Copyright (c) 2025 Shell Reserve developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package trie

import "bytes"

// sizeThreshold is the encoded-size cutoff above which a node is stored
// in the KV backend under its hash rather than inlined in its parent
// (spec.md §3: "stored in the backing KV by its hash when its encoded
// size >= 32 bytes; otherwise it is inlined").
const sizeThreshold = 32

// generationLimit is the generation lag at which a clean node would be
// eligible to be collapsed back to a hashNode reference (spec.md §4.4
// "Caching"). Nothing in this package reads it: the trie's generation
// counter is never advanced and no generation-based eviction runs.
// Commit itself replaces every stored subtree with its hashNode.
const generationLimit = 128

// Trie is a radix-16 Patricia-Merkle trie over fixed-width keys,
// authenticated by blake2b (spec.md §3 "Authenticated Name Trie").
type Trie struct {
	root       Node
	kv         KV
	generation uint32
	rootHash   [32]byte
}

// EmptyRoot returns the well-known empty-trie root hash (spec.md §3).
// Callers that commit a sub-trie root outside the trie package (escher's
// name-sub-trie commitments) use this to recognize or initialize an
// empty starting point without reaching into trie internals.
func EmptyRoot() [32]byte { return emptyRootHash }

// New constructs a trie backed by kv, rooted at rootHash. Pass
// emptyRootHash (or the zero value) to start from an empty trie.
func New(kv KV, rootHash [32]byte) *Trie {
	t := &Trie{kv: kv, rootHash: rootHash}
	if rootHash == [32]byte{} || rootHash == emptyRootHash {
		t.root = nullNode{}
		t.rootHash = emptyRootHash
	} else {
		t.root = hashNode(rootHash)
	}
	return t
}

// RootHash returns the trie's current committed root hash. It is only
// meaningful immediately after Commit; mutations since the last commit
// are not reflected.
func (t *Trie) RootHash() [32]byte {
	return t.rootHash
}

func (t *Trie) resolve(n Node, key []byte, pos int) (Node, error) {
	hn, ok := n.(hashNode)
	if !ok {
		return n, nil
	}
	enc, err := t.kv.Get(hn[:])
	if err != nil {
		return nil, &MissingNode{Root: t.rootHash, NodeHash: [32]byte(hn), Key: key, NibblePos: pos}
	}
	node, _, derr := decodeNode(enc)
	if derr != nil {
		return nil, derr
	}
	return node, nil
}

// Get returns the value committed at key, or (nil, false) if absent
// (spec.md §4.4 "get").
func (t *Trie) Get(key []byte) ([]byte, bool, error) {
	nibbles := keyToNibbles(key)
	val, err := t.get(t.root, key, nibbles, 0)
	if err != nil {
		return nil, false, err
	}
	if val == nil {
		return nil, false, nil
	}
	return []byte(val), true, nil
}

func (t *Trie) get(n Node, key, nibbles []byte, pos int) (valueNode, error) {
	n, err := t.resolve(n, key, pos)
	if err != nil {
		return nil, err
	}
	switch node := n.(type) {
	case nullNode:
		return nil, nil
	case valueNode:
		return node, nil
	case *shortNode:
		if len(nibbles) < len(node.Key) || !bytes.Equal(nibbles[:len(node.Key)], node.Key) {
			return nil, nil
		}
		return t.get(node.Val, key, nibbles[len(node.Key):], pos+len(node.Key))
	case *fullNode:
		if len(nibbles) == 0 {
			return nil, &MalformedNode{Reason: "full node reached with no remaining nibbles"}
		}
		idx := nibbles[0]
		if idx == nilTerminator {
			return t.get(node.Children[16], key, nil, pos+1)
		}
		return t.get(node.Children[idx], key, nibbles[1:], pos+1)
	default:
		return nil, &MalformedNode{Reason: "unexpected node kind during get"}
	}
}

// Insert creates, splits, or replaces along the path to key, marking
// dirty flags for re-hashing at the next commit (spec.md §4.4 "insert").
func (t *Trie) Insert(key, value []byte) error {
	nibbles := keyToNibbles(key)
	newRoot, err := t.insert(t.root, key, nibbles, 0, valueNode(value))
	if err != nil {
		return err
	}
	t.root = newRoot
	return nil
}

func (t *Trie) insert(n Node, key, nibbles []byte, pos int, value valueNode) (Node, error) {
	n, err := t.resolve(n, key, pos)
	if err != nil {
		return nil, err
	}
	switch node := n.(type) {
	case nullNode:
		if len(nibbles) == 0 {
			return value, nil
		}
		return &shortNode{Key: append([]byte(nil), nibbles...), Val: value, flag: flag{dirty: true}}, nil

	case valueNode:
		return value, nil

	case *shortNode:
		cp := commonPrefixLen(nibbles, node.Key)
		if cp == len(node.Key) {
			child, err := t.insert(node.Val, key, nibbles[cp:], pos+cp, value)
			if err != nil {
				return nil, err
			}
			node.Val = child
			node.dirty = true
			return node, nil
		}
		// Split: branch at cp.
		branch := &fullNode{flag: flag{dirty: true}}
		if cp == len(nibbles) {
			branch.Children[16] = value
		} else {
			rem := append([]byte(nil), nibbles[cp+1:]...)
			branch.Children[nibbles[cp]] = &shortNode{Key: rem, Val: value, flag: flag{dirty: true}}
		}
		if cp+1 == len(node.Key) {
			branch.Children[node.Key[cp]] = node.Val
		} else {
			branch.Children[node.Key[cp]] = &shortNode{Key: append([]byte(nil), node.Key[cp+1:]...), Val: node.Val, flag: flag{dirty: true}}
		}
		if cp == 0 {
			return branch, nil
		}
		return &shortNode{Key: append([]byte(nil), nibbles[:cp]...), Val: branch, flag: flag{dirty: true}}, nil

	case *fullNode:
		if len(nibbles) == 0 {
			return nil, &MalformedNode{Reason: "full node reached with no remaining nibbles on insert"}
		}
		idx := nibbles[0]
		if idx == nilTerminator {
			node.Children[16] = value
			node.dirty = true
			return node, nil
		}
		child, err := t.insert(node.Children[idx], key, nibbles[1:], pos+1, value)
		if err != nil {
			return nil, err
		}
		node.Children[idx] = child
		node.dirty = true
		return node, nil

	default:
		return nil, &MalformedNode{Reason: "unexpected node kind during insert"}
	}
}

// Remove deletes key from the trie, collapsing the structure per
// spec.md §4.4 "remove": a FULL node reduced to a single non-null child
// is rewritten as a SHORT node (merging branch nibble and child key as
// needed); a SHORT -> SHORT chain is flattened.
func (t *Trie) Remove(key []byte) error {
	nibbles := keyToNibbles(key)
	newRoot, _, err := t.remove(t.root, key, nibbles, 0)
	if err != nil {
		return err
	}
	if newRoot == nil {
		newRoot = nullNode{}
	}
	t.root = newRoot
	return nil
}

// remove returns (newNode, removed, error). removed reports whether the
// key was present and is now gone; newNode is nil only when the subtree
// became empty.
func (t *Trie) remove(n Node, key, nibbles []byte, pos int) (Node, bool, error) {
	n, err := t.resolve(n, key, pos)
	if err != nil {
		return nil, false, err
	}
	switch node := n.(type) {
	case nullNode:
		return nullNode{}, false, nil

	case valueNode:
		return nil, true, nil

	case *shortNode:
		if len(nibbles) < len(node.Key) || !bytes.Equal(nibbles[:len(node.Key)], node.Key) {
			return node, false, nil
		}
		child, removed, err := t.remove(node.Val, key, nibbles[len(node.Key):], pos+len(node.Key))
		if err != nil {
			return nil, false, err
		}
		if !removed {
			return node, false, nil
		}
		if child == nil {
			return nil, true, nil
		}
		// Flatten a SHORT -> SHORT chain.
		if cs, ok := child.(*shortNode); ok {
			merged := &shortNode{Key: append(append([]byte(nil), node.Key...), cs.Key...), Val: cs.Val, flag: flag{dirty: true}}
			return merged, true, nil
		}
		node.Val = child
		node.dirty = true
		return node, true, nil

	case *fullNode:
		if len(nibbles) == 0 {
			return nil, false, &MalformedNode{Reason: "full node reached with no remaining nibbles on remove"}
		}
		idx := nibbles[0]
		var child Node
		var removed bool
		if idx == nilTerminator {
			if node.Children[16] == nil {
				return node, false, nil
			}
			child, removed = nil, true
			node.Children[16] = nil
		} else {
			var err error
			child, removed, err = t.remove(node.Children[idx], key, nibbles[1:], pos+1)
			if err != nil {
				return nil, false, err
			}
			if !removed {
				return node, false, nil
			}
			node.Children[idx] = child
		}
		node.dirty = true
		return t.collapseFullNode(node), true, nil

	default:
		return nil, false, &MalformedNode{Reason: "unexpected node kind during remove"}
	}
}

// collapseFullNode implements the FULL -> SHORT collapse rule of
// spec.md §4.4 when exactly one child remains.
func (t *Trie) collapseFullNode(node *fullNode) Node {
	var remainingIdx = -1
	count := 0
	for i, c := range node.Children {
		if c != nil {
			if _, isNull := c.(nullNode); isNull {
				continue
			}
			count++
			remainingIdx = i
		}
	}
	if count == 0 {
		return nil
	}
	if count > 1 {
		return node
	}
	child := node.Children[remainingIdx]
	if remainingIdx == 16 {
		return child // terminal value, no branch nibble to prepend
	}
	if cs, ok := child.(*shortNode); ok {
		return &shortNode{Key: append([]byte{byte(remainingIdx)}, cs.Key...), Val: cs.Val, flag: flag{dirty: true}}
	}
	return &shortNode{Key: []byte{byte(remainingIdx)}, Val: child, flag: flag{dirty: true}}
}

// Commit recursively hashes the dirty frontier and writes every node
// whose encoding is at least sizeThreshold bytes to batch, replacing the
// in-memory subtree with a hashNode (spec.md §4.4 "commit"). The root is
// always persisted under its hash regardless of size, so RootHash always
// resolves. Call batch.Write to make the commit durable.
func (t *Trie) Commit(batch Batch) ([32]byte, error) {
	newRoot, err := t.commit(t.root, batch)
	if err != nil {
		return [32]byte{}, err
	}
	t.root = newRoot

	// A root at or above sizeThreshold was already written by store (or
	// was a clean, previously stored hashNode); its hash is the root hash.
	if hn, ok := newRoot.(hashNode); ok {
		t.rootHash = [32]byte(hn)
		return t.rootHash, nil
	}
	enc := encodeNode(t.root)
	h := hashOf(t.root)
	batch.Put(h[:], enc)
	t.rootHash = h
	return h, nil
}

func (t *Trie) commit(n Node, batch Batch) (Node, error) {
	switch node := n.(type) {
	case *shortNode:
		if !node.dirty {
			return node, nil
		}
		child, err := t.commit(node.Val, batch)
		if err != nil {
			return nil, err
		}
		node.Val = child
		node.dirty = false
		node.generation = t.generation
		return t.store(node, batch), nil

	case *fullNode:
		if !node.dirty {
			return node, nil
		}
		for i, c := range node.Children {
			if c == nil {
				node.Children[i] = nullNode{}
				continue
			}
			nc, err := t.commit(c, batch)
			if err != nil {
				return nil, err
			}
			node.Children[i] = nc
		}
		node.dirty = false
		node.generation = t.generation
		return t.store(node, batch), nil

	default:
		return n, nil
	}
}

func (t *Trie) store(n Node, batch Batch) Node {
	enc := encodeNode(n)
	if len(enc) < sizeThreshold {
		return n
	}
	h := hashOf(n)
	batch.Put(h[:], enc)
	return hashNode(h)
}
