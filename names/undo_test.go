// Copyright (c) 2025 Shell Reserve developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package names

import (
	"testing"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/wire"
	"github.com/stretchr/testify/require"
)

func TestNameUndoCodecRoundTrip(t *testing.T) {
	u := &NameUndo{
		Entries: []UndoEntry{
			{
				NameHash: NameHash([]byte("alpha")),
				Delta: NameDelta{
					Height: optU32{Set: true, Val: 10},
					Owner:  optOutpoint{Set: true, Val: wire.OutPoint{Hash: chainhash.Hash{1}, Index: 0}},
				},
			},
			{
				NameHash: NameHash([]byte("beta")),
				Delta: NameDelta{
					Value: optU64{Set: true, Val: 0},
					Data:  optBytes{Set: true, Val: []byte("old data")},
				},
			},
		},
	}

	enc := u.Encode()
	require.Equal(t, u.GetSize(), len(enc))

	got, n, err := DecodeNameUndo(enc)
	require.NoError(t, err)
	require.Equal(t, len(enc), n)
	require.Len(t, got.Entries, 2)
	for i := range u.Entries {
		require.Equal(t, u.Entries[i].NameHash, got.Entries[i].NameHash)
		require.True(t, u.Entries[i].Delta.Equal(&got.Entries[i].Delta))
	}
}

func TestNameUndoEmpty(t *testing.T) {
	u := &NameUndo{}
	enc := u.Encode()
	got, n, err := DecodeNameUndo(enc)
	require.NoError(t, err)
	require.Equal(t, len(enc), n)
	require.Empty(t, got.Entries)
}

func TestNameUndoApplyRevertsEachEntry(t *testing.T) {
	store := newFakeStore()

	a := NewNameRecord([]byte("alpha"))
	a.SetHeight(50)
	store.put(a.NameHash, a.Clone())

	b := NewNameRecord([]byte("beta"))
	b.SetHeight(60)
	b.SetValue(999)
	store.put(b.NameHash, b.Clone())

	u := &NameUndo{
		Entries: []UndoEntry{
			{NameHash: a.NameHash, Delta: NameDelta{Height: optU32{Set: true, Val: 50}}},
			{NameHash: b.NameHash, Delta: NameDelta{Value: optU64{Set: true, Val: 0}}},
		},
	}

	// Simulate post-block state: alpha moved to height 999, beta's value
	// changed to 1 (undo must overwrite exactly the fields its deltas name).
	aMutated := a.Clone()
	aMutated.SetHeight(999)
	store.put(a.NameHash, aMutated)
	bMutated := b.Clone()
	bMutated.SetValue(1)
	store.put(b.NameHash, bMutated)

	reverted := make(map[Hash]*NameRecord)
	get := func(h Hash) (*NameRecord, error) { return store.GetNameRecord(h) }
	put := func(r *NameRecord) error {
		reverted[r.NameHash] = r
		return nil
	}
	require.NoError(t, u.Apply(get, put))

	require.Equal(t, uint32(50), reverted[a.NameHash].Height)
	require.Equal(t, uint64(0), reverted[b.NameHash].Value)
	require.False(t, reverted[a.NameHash].HasDelta())
	require.False(t, reverted[b.NameHash].HasDelta())
}
