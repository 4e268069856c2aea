// Copyright (c) 2025 Shell Reserve developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package trie

import (
	"github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/iterator"
	"github.com/syndtr/goleveldb/leveldb/util"
)

// KV is the trie's backing key-value store (spec.md §6 "Trie KV
// backend"). Keys are 32-byte node hashes. The trie does not store a
// best-root entry: no code here reads or writes a zero key, and callers
// keep the root hash Commit returns.
type KV interface {
	Get(key []byte) ([]byte, error)
	Has(key []byte) (bool, error)
	NewBatch() Batch
	NewIterator(start, limit []byte) Iterator
}

// Batch is a write-only accumulator; committing a batch is atomic at the
// backing store boundary (spec.md §5).
type Batch interface {
	Put(key, value []byte)
	Write() error
}

// Iterator ranges over [start, limit) in key order.
type Iterator interface {
	Next() bool
	Key() []byte
	Value() []byte
	Release()
}

// ErrNotFound is returned by KV.Get when key has no value. Trie callers
// translate this into a *MissingNode when resolving a hashNode.
var ErrNotFound = leveldb.ErrNotFound

// LevelDBStore is the goleveldb-backed KV implementation (spec.md §6:
// "persisted formats" target a conventional embedded KV store, as used
// elsewhere in the teacher's storage layer).
type LevelDBStore struct {
	db *leveldb.DB
}

// OpenLevelDBStore opens (creating if absent) a goleveldb database at
// path to back the trie.
func OpenLevelDBStore(path string) (*LevelDBStore, error) {
	db, err := leveldb.OpenFile(path, nil)
	if err != nil {
		return nil, err
	}
	return &LevelDBStore{db: db}, nil
}

// Close releases the underlying database handle.
func (s *LevelDBStore) Close() error {
	return s.db.Close()
}

func (s *LevelDBStore) Get(key []byte) ([]byte, error) {
	return s.db.Get(key, nil)
}

func (s *LevelDBStore) Has(key []byte) (bool, error) {
	return s.db.Has(key, nil)
}

func (s *LevelDBStore) NewBatch() Batch {
	return &levelDBBatch{db: s.db, batch: new(leveldb.Batch)}
}

func (s *LevelDBStore) NewIterator(start, limit []byte) Iterator {
	it := s.db.NewIterator(&util.Range{Start: start, Limit: limit}, nil)
	return &levelDBIterator{it: it}
}

type levelDBBatch struct {
	db    *leveldb.DB
	batch *leveldb.Batch
}

func (b *levelDBBatch) Put(key, value []byte) {
	b.batch.Put(key, value)
}

func (b *levelDBBatch) Write() error {
	return b.db.Write(b.batch, nil)
}

type levelDBIterator struct {
	it iterator.Iterator
}

func (i *levelDBIterator) Next() bool      { return i.it.Next() }
func (i *levelDBIterator) Key() []byte     { return i.it.Key() }
func (i *levelDBIterator) Value() []byte   { return i.it.Value() }
func (i *levelDBIterator) Release()        { i.it.Release() }

// MemStore is a map-backed KV implementation used by tests, where a
// disposable in-memory trie is cheaper than a real database handle.
type MemStore struct {
	data map[string][]byte
}

// NewMemStore constructs an empty in-memory KV store.
func NewMemStore() *MemStore {
	return &MemStore{data: make(map[string][]byte)}
}

func (m *MemStore) Get(key []byte) ([]byte, error) {
	v, ok := m.data[string(key)]
	if !ok {
		return nil, ErrNotFound
	}
	return v, nil
}

func (m *MemStore) Has(key []byte) (bool, error) {
	_, ok := m.data[string(key)]
	return ok, nil
}

func (m *MemStore) NewBatch() Batch {
	return &memBatch{store: m}
}

func (m *MemStore) NewIterator(start, limit []byte) Iterator {
	keys := make([]string, 0, len(m.data))
	for k := range m.data {
		if start != nil && k < string(start) {
			continue
		}
		if limit != nil && k >= string(limit) {
			continue
		}
		keys = append(keys, k)
	}
	return &memIterator{store: m, keys: keys, pos: -1}
}

type memBatch struct {
	store *MemStore
	pairs [][2][]byte
}

func (b *memBatch) Put(key, value []byte) {
	b.pairs = append(b.pairs, [2][]byte{append([]byte(nil), key...), append([]byte(nil), value...)})
}

func (b *memBatch) Write() error {
	for _, kv := range b.pairs {
		b.store.data[string(kv[0])] = kv[1]
	}
	return nil
}

type memIterator struct {
	store *MemStore
	keys  []string
	pos   int
}

func (it *memIterator) Next() bool {
	it.pos++
	return it.pos < len(it.keys)
}

func (it *memIterator) Key() []byte   { return []byte(it.keys[it.pos]) }
func (it *memIterator) Value() []byte { return it.store.data[it.keys[it.pos]] }
func (it *memIterator) Release()      {}
