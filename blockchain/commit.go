// Copyright (c) 2025 Shell Reserve developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package blockchain

import (
	"github.com/toole-brendan/shell/chaincfg"
	"github.com/toole-brendan/shell/names"
	"github.com/toole-brendan/shell/names/trie"
)

// ConnectNameBlock applies src against store at height, persists every
// mutated record into the trie, and commits. It returns the new trie
// root and the undo bundle a block must store to support ConnectNameBlock's
// inverse, DisconnectNameBlock (spec.md §2 "Data flow").
func ConnectNameBlock(store *names.TrieStore, kv trie.KV, height uint32, params *chaincfg.NameParams, src names.Source) ([32]byte, *names.NameUndo, error) {
	view := names.NewChainView(store)

	undo, err := ApplyNameBlock(view, height, params, src, kv)
	if err != nil {
		return [32]byte{}, nil, err
	}

	for _, rec := range view.Entries() {
		if !rec.HasDelta() {
			continue
		}
		if err := store.PutNameRecord(rec); err != nil {
			return [32]byte{}, nil, err
		}
	}

	batch := kv.NewBatch()
	root, err := store.Commit(batch)
	if err != nil {
		return [32]byte{}, nil, err
	}
	if err := batch.Write(); err != nil {
		return [32]byte{}, nil, err
	}

	view.Flush()
	return root, undo, nil
}

// DisconnectNameBlock reverts every record undo names, writing the
// reverted records back into store and committing (spec.md §4.3 "apply
// undo").
func DisconnectNameBlock(store *names.TrieStore, kv trie.KV, undo *names.NameUndo) ([32]byte, error) {
	get := func(nameHash names.Hash) (*names.NameRecord, error) {
		rec, err := store.GetNameRecord(nameHash)
		if err != nil {
			return nil, err
		}
		if rec == nil {
			return nil, &names.CodecFailure{What: "undo target record", Err: errRecordNotFound}
		}
		return rec, nil
	}
	put := func(rec *names.NameRecord) error {
		return store.PutNameRecord(rec)
	}

	if err := undo.Apply(get, put); err != nil {
		return [32]byte{}, err
	}

	batch := kv.NewBatch()
	root, err := store.Commit(batch)
	if err != nil {
		return [32]byte{}, err
	}
	if err := batch.Write(); err != nil {
		return [32]byte{}, err
	}
	return root, nil
}
