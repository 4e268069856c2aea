// Copyright (c) 2025 Shell Reserve developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package names

import "github.com/toole-brendan/shell/names/trie"

// TrieStore adapts the Authenticated Name Trie (package trie) to the
// Store interface a ChainView loads from, and provides the write side
// block application needs to fold name-data back into the trie (spec.md
// §2 "Data flow": "commits the view — writing updated records ...
// folding name-data into the trie").
type TrieStore struct {
	t *trie.Trie
}

// NewTrieStore constructs a store backed by kv, rooted at rootHash. Pass
// the zero value to start from an empty trie.
func NewTrieStore(kv trie.KV, rootHash [32]byte) *TrieStore {
	return &TrieStore{t: trie.New(kv, rootHash)}
}

// GetNameRecord implements Store.
func (s *TrieStore) GetNameRecord(nameHash Hash) (*NameRecord, error) {
	val, ok, err := s.t.Get(nameHash[:])
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, nil
	}
	rec, _, err := DecodeNameRecord(val)
	if err != nil {
		return nil, &CodecFailure{What: "trie-stored record", Err: err}
	}
	return rec, nil
}

// PutNameRecord inserts rec's encoded form under its nameHash in the
// in-memory trie. GetNameRecord on this store sees it at once; it reaches
// the KV backend only when Commit is called and the batch is written.
func (s *TrieStore) PutNameRecord(rec *NameRecord) error {
	return s.t.Insert(rec.NameHash[:], rec.Encode())
}

// Commit hashes the trie's dirty frontier and stages every node at or
// above the inlining threshold into batch (spec.md §4.4 "commit").
func (s *TrieStore) Commit(batch trie.Batch) ([32]byte, error) {
	return s.t.Commit(batch)
}

// RootHash returns the trie's current committed root.
func (s *TrieStore) RootHash() [32]byte {
	return s.t.RootHash()
}

// Prove returns a proof of (non-)existence for nameHash against the
// store's current committed root (spec.md §4.4 "prove").
func (s *TrieStore) Prove(nameHash Hash) ([][]byte, error) {
	return s.t.Prove(nameHash[:])
}
