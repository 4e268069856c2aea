// Copyright (c) 2025 Shell Reserve developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package names

import (
	"testing"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/wire"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func TestRecordNullIsZeroValue(t *testing.T) {
	rec := NewNameRecord([]byte("example"))
	require.True(t, rec.IsNull())
	require.False(t, rec.HasDelta())
}

func TestRecordCodecRoundTrip(t *testing.T) {
	rec := NewNameRecord([]byte("example"))
	rec.SetHeight(100)
	rec.SetOwner(wire.OutPoint{Hash: chainhash.Hash{7}, Index: 1})
	rec.SetValue(5000)
	rec.SetHighest(4000)
	rec.SetData([]byte("some record data"))
	rec.SetRegistered(true)

	enc := rec.Encode()
	require.Equal(t, rec.GetSize(), len(enc))

	got, n, err := DecodeNameRecord(enc)
	require.NoError(t, err)
	require.Equal(t, len(enc), n)

	require.Equal(t, rec.Name, got.Name)
	require.Equal(t, rec.NameHash, got.NameHash)
	require.Equal(t, rec.Height, got.Height)
	require.Equal(t, rec.Renewal, got.Renewal)
	require.Equal(t, rec.Owner, got.Owner)
	require.Equal(t, rec.Value, got.Value)
	require.Equal(t, rec.Highest, got.Highest)
	require.Equal(t, rec.Data, got.Data)
	require.Equal(t, rec.Transfer, got.Transfer)
	require.Equal(t, rec.Revoked, got.Revoked)
	require.Equal(t, rec.Claimed, got.Claimed)
	require.Equal(t, rec.Renewals, got.Renewals)
	require.Equal(t, rec.Registered, got.Registered)
	require.Equal(t, rec.Expired, got.Expired)
	require.Equal(t, rec.Weak, got.Weak)
	require.False(t, got.HasDelta(), "a freshly decoded record starts with an empty delta")
}

// TestRecordUndoInvertibility is S2: starting from height=100, renewal=100,
// owner=null, value=0, data=empty, a single block applies setHeight(200),
// setOwner(X), setValue(1000) and setData(16-byte payload). The emitted
// undo bundle must revert the record to byte-identical original state.
func TestRecordUndoInvertibility(t *testing.T) {
	store := newFakeStore()
	nameHash := NameHash([]byte("example"))

	original := NewNameRecord([]byte("example"))
	original.SetHeight(100)
	original.SetRenewal(100)
	store.put(nameHash, original.Clone())
	originalEnc := original.Encode()

	view := NewChainView(store)
	rec, err := view.GetNameState(nameHash, []byte("example"))
	require.NoError(t, err)
	require.False(t, rec.HasDelta())

	owner := wire.OutPoint{Hash: chainhash.Hash{0xAA}, Index: 5}
	rec.SetHeight(200)
	rec.SetOwner(owner)
	rec.SetValue(1000)
	rec.SetData(make([]byte, 16))
	require.True(t, rec.HasDelta())

	undo := view.ToNameUndo()
	require.Len(t, undo.Entries, 1)
	require.Equal(t, nameHash, undo.Entries[0].NameHash)

	// Commit the mutated record as the new chain state.
	store.put(nameHash, rec.Clone())
	view.Flush()

	// Now revert using the undo bundle.
	get := func(h Hash) (*NameRecord, error) { return store.GetNameRecord(h) }
	var reverted *NameRecord
	put := func(r *NameRecord) error {
		reverted = r
		store.put(r.NameHash, r)
		return nil
	}
	require.NoError(t, undo.Apply(get, put))

	require.NotNil(t, reverted)
	require.Equal(t, originalEnc, reverted.Encode())
}

// TestRecordCodecRoundTripProperty is property 2 for NameRecord.
func TestRecordCodecRoundTripProperty(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		rec := randomRecord(rt)
		enc := rec.Encode()
		require.Equal(rt, rec.GetSize(), len(enc))

		got, n, err := DecodeNameRecord(enc)
		require.NoError(rt, err)
		require.Equal(rt, len(enc), n)
		require.Equal(rt, rec.Encode(), got.Encode())
	})
}

func randomRecord(rt *rapid.T) *NameRecord {
	name := []byte(rapid.StringN(1, 20, MaxNameLength).Draw(rt, "name"))
	rec := NewNameRecord(name)
	rec.SetHeight(rapid.Uint32().Draw(rt, "height"))
	rec.SetRenewal(rapid.Uint32().Draw(rt, "renewal"))
	if rapid.Bool().Draw(rt, "hasOwner") {
		rec.SetOwner(wire.OutPoint{
			Hash:  chainhash.Hash{byte(rapid.IntRange(1, 255).Draw(rt, "ownerHashByte"))},
			Index: rapid.Uint32().Draw(rt, "ownerIndex"),
		})
	}
	rec.SetValue(rapid.Uint64().Draw(rt, "value"))
	rec.SetHighest(rapid.Uint64().Draw(rt, "highest"))
	rec.SetData([]byte(rapid.StringN(0, 64, -1).Draw(rt, "data")))
	rec.SetTransfer(rapid.Uint32().Draw(rt, "transfer"))
	rec.SetRevoked(rapid.Uint32().Draw(rt, "revoked"))
	rec.SetClaimed(rapid.Uint32().Draw(rt, "claimed"))
	rec.SetRenewals(rapid.Uint32Range(0, 1<<20).Draw(rt, "renewals"))
	rec.SetRegistered(rapid.Bool().Draw(rt, "registered"))
	rec.SetExpired(rapid.Bool().Draw(rt, "expired"))
	rec.SetWeak(rapid.Bool().Draw(rt, "weak"))
	return rec
}

// fakeStore is a minimal in-memory Store for tests that don't need the
// real trie.
type fakeStore struct {
	m map[Hash]*NameRecord
}

func newFakeStore() *fakeStore {
	return &fakeStore{m: make(map[Hash]*NameRecord)}
}

func (s *fakeStore) put(h Hash, r *NameRecord) {
	s.m[h] = r
}

func (s *fakeStore) GetNameRecord(h Hash) (*NameRecord, error) {
	r, ok := s.m[h]
	if !ok {
		return nil, nil
	}
	return r.Clone(), nil
}
