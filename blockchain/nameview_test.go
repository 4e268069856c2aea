// Copyright (c) 2025 Shell Reserve developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package blockchain

import (
	"testing"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcec/v2/schnorr"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/wire"
	"github.com/stretchr/testify/require"

	"github.com/toole-brendan/shell/chaincfg"
	"github.com/toole-brendan/shell/names"
	"github.com/toole-brendan/shell/names/escher"
	"github.com/toole-brendan/shell/names/trie"
)

type fakeStore struct {
	m map[names.Hash]*names.NameRecord
}

func newFakeStore() *fakeStore {
	return &fakeStore{m: make(map[names.Hash]*names.NameRecord)}
}

func (s *fakeStore) put(r *names.NameRecord) { s.m[r.NameHash] = r }

func (s *fakeStore) GetNameRecord(h names.Hash) (*names.NameRecord, error) {
	r, ok := s.m[h]
	if !ok {
		return nil, nil
	}
	return r.Clone(), nil
}

type fakeSource struct {
	ops []names.Operand
}

func (s *fakeSource) Covenants() ([]names.Operand, error) { return s.ops, nil }

func encodeBidValue(v uint64) []byte {
	b := make([]byte, 8)
	for i := 0; i < 8; i++ {
		b[i] = byte(v >> (8 * uint(i)))
	}
	return b
}

func TestApplyNameBlockOpenRequiresNullRecord(t *testing.T) {
	params := &chaincfg.RegressionNetParams
	store := newFakeStore()
	view := names.NewChainView(store)

	name := []byte("example")
	src := &fakeSource{ops: []names.Operand{
		{Covenant: names.CovenantOpen, NameHash: names.NameHash(name), Name: name},
	}}

	undo, err := ApplyNameBlock(view, 100, params, src, trie.NewMemStore())
	require.NoError(t, err)
	require.Len(t, undo.Entries, 1)

	rec, err := view.GetNameState(names.NameHash(name), name)
	require.NoError(t, err)
	require.Equal(t, uint32(100), rec.Height)
}

func TestApplyNameBlockOpenOnNonNullFails(t *testing.T) {
	params := &chaincfg.RegressionNetParams
	store := newFakeStore()

	name := []byte("taken")
	existing := names.NewNameRecord(name)
	existing.SetHeight(10)
	existing.SetOwner(wire.OutPoint{Hash: chainhash.Hash{1}, Index: 0})
	store.put(existing)

	view := names.NewChainView(store)
	src := &fakeSource{ops: []names.Operand{
		{Covenant: names.CovenantOpen, NameHash: names.NameHash(name), Name: name},
	}}

	_, err := ApplyNameBlock(view, 11, params, src, trie.NewMemStore())
	require.Error(t, err)
}

func TestApplyNameBlockRevealTracksHighestTwoBids(t *testing.T) {
	params := &chaincfg.RegressionNetParams
	store := newFakeStore()

	name := []byte("auctioned")
	rec := names.NewNameRecord(name)
	rec.SetHeight(0)
	store.put(rec)

	ownerA := wire.OutPoint{Hash: chainhash.Hash{0xA}, Index: 0}
	ownerB := wire.OutPoint{Hash: chainhash.Hash{0xB}, Index: 1}

	view := names.NewChainView(store)
	src := &fakeSource{ops: []names.Operand{
		{Covenant: names.CovenantReveal, NameHash: names.NameHash(name), Name: name, Outpoint: ownerA, Operands: encodeBidValue(500)},
		{Covenant: names.CovenantReveal, NameHash: names.NameHash(name), Name: name, Outpoint: ownerB, Operands: encodeBidValue(900)},
	}}

	_, err := ApplyNameBlock(view, 6, params, src, trie.NewMemStore())
	require.NoError(t, err)

	got, err := view.GetNameState(names.NameHash(name), name)
	require.NoError(t, err)
	require.Equal(t, uint64(900), got.Value)
	require.Equal(t, uint64(500), got.Highest)
	require.Equal(t, ownerB, got.Owner)
}

func TestApplyNameBlockTransferThenFinalize(t *testing.T) {
	params := &chaincfg.NameParams{
		TreeInterval:    4,
		BiddingPeriod:   5,
		RevealPeriod:    3,
		LockupPeriod:    10,
		RenewalWindow:   100000,
		AuctionMaturity: 2,
		TransferLockup:  2,
		ClaimPeriod:     20,
		WeakLockup:      8,
	}
	store := newFakeStore()

	name := []byte("owned")
	rec := names.NewNameRecord(name)
	rec.SetHeight(0)
	rec.SetOwner(wire.OutPoint{Hash: chainhash.Hash{1}, Index: 0})
	store.put(rec)

	view := names.NewChainView(store)
	kv := trie.NewMemStore()
	newOwner := wire.OutPoint{Hash: chainhash.Hash{2}, Index: 0}

	src := &fakeSource{ops: []names.Operand{
		{Covenant: names.CovenantTransfer, NameHash: names.NameHash(name), Name: name},
	}}
	_, err := ApplyNameBlock(view, 20, params, src, kv)
	require.NoError(t, err)

	// Finalizing before the lock-up elapses must fail.
	early := &fakeSource{ops: []names.Operand{
		{Covenant: names.CovenantFinalize, NameHash: names.NameHash(name), Name: name, Outpoint: newOwner},
	}}
	_, err = ApplyNameBlock(view, 21, params, early, kv)
	require.Error(t, err)

	late := &fakeSource{ops: []names.Operand{
		{Covenant: names.CovenantFinalize, NameHash: names.NameHash(name), Name: name, Outpoint: newOwner},
	}}
	_, err = ApplyNameBlock(view, 20+params.TransferLockup, params, late, kv)
	require.NoError(t, err)

	got, err := view.GetNameState(names.NameHash(name), name)
	require.NoError(t, err)
	require.Equal(t, newOwner, got.Owner)
	require.Equal(t, uint32(0), got.Transfer)
}

func TestApplyNameBlockWeakLockBlocksUpdate(t *testing.T) {
	params := &chaincfg.RegressionNetParams
	store := newFakeStore()

	name := []byte("reserved")
	rec := names.NewNameRecord(name)
	rec.SetHeight(0)
	rec.SetClaimed(0)
	rec.SetWeak(true)
	store.put(rec)

	view := names.NewChainView(store)
	src := &fakeSource{ops: []names.Operand{
		{Covenant: names.CovenantUpdate, NameHash: names.NameHash(name), Name: name, Operands: []byte("data")},
	}}

	_, err := ApplyNameBlock(view, 1, params, src, trie.NewMemStore())
	require.Error(t, err)
}

func TestApplyNameBlockExpiredResetsToReopen(t *testing.T) {
	params := &chaincfg.RegressionNetParams
	store := newFakeStore()

	name := []byte("lapsed")
	rec := names.NewNameRecord(name)
	rec.SetHeight(0)
	rec.SetOwner(wire.OutPoint{Hash: chainhash.Hash{1}, Index: 0})
	rec.SetRenewal(0)
	store.put(rec)

	view := names.NewChainView(store)
	expiredHeight := params.RenewalWindow + 1000

	src := &fakeSource{ops: []names.Operand{
		{Covenant: names.CovenantRenew, NameHash: names.NameHash(name), Name: name},
	}}
	_, err := ApplyNameBlock(view, expiredHeight, params, src, trie.NewMemStore())
	require.NoError(t, err)

	got, err := view.GetNameState(names.NameHash(name), name)
	require.NoError(t, err)
	require.True(t, got.Expired)
	require.Equal(t, expiredHeight, got.Height)
}

// TestApplyNameBlockUpdateEntersEscherModeThenRejectsOccupiedRegister
// proves the UPDATE covenant dispatches its resource payload into
// names/escher for real verification rather than accepting it as opaque
// bytes: a first REGISTER message is accepted and enters escher mode,
// and a second REGISTER against the now-occupied compound key is
// rejected on the live consensus path (spec.md §8 S5, wired end to end
// rather than only inside the escher package's own tests).
func TestApplyNameBlockUpdateEntersEscherModeThenRejectsOccupiedRegister(t *testing.T) {
	params := &chaincfg.RegressionNetParams
	store := newFakeStore()

	name := []byte("escher-name")
	rec := names.NewNameRecord(name)
	rec.SetHeight(0)
	rec.SetOwner(wire.OutPoint{Hash: chainhash.Hash{9}, Index: 0})
	store.put(rec)

	kv := trie.NewMemStore()
	compound := [20]byte{0x5}
	priv, err := btcec.NewPrivateKey()
	require.NoError(t, err)
	pub := schnorr.SerializePubKey(priv.PubKey())

	proof, err := trie.New(kv, [32]byte{}).Prove(compound[:])
	require.NoError(t, err)

	msg := &escher.Message{
		Version:          escher.CurrentVersion,
		CurrentRoot:      trie.EmptyRoot(),
		Opcode:           escher.OpRegister,
		CompoundNameHash: compound,
		Proof:            proof,
	}
	copy(msg.NewPublicKey[:], pub)

	view := names.NewChainView(store)
	src := &fakeSource{ops: []names.Operand{
		{Covenant: names.CovenantUpdate, NameHash: names.NameHash(name), Name: name, Operands: escher.EncodeMessage(msg)},
	}}

	_, err = ApplyNameBlock(view, 1, params, src, kv)
	require.NoError(t, err)

	got, err := view.GetNameState(names.NameHash(name), name)
	require.NoError(t, err)
	require.True(t, escher.IsEscherData(got.Data))

	newRoot, ok := escher.DecodeCommittedRoot(got.Data)
	require.True(t, ok)
	require.NotEqual(t, trie.EmptyRoot(), newRoot)

	// Persist the post-update record so the next block starts from it.
	store.put(got)

	reoffer, err := trie.New(kv, newRoot).Prove(compound[:])
	require.NoError(t, err)
	dupMsg := &escher.Message{
		Version:          escher.CurrentVersion,
		CurrentRoot:      newRoot,
		Opcode:           escher.OpRegister,
		CompoundNameHash: compound,
		Proof:            reoffer,
	}
	copy(dupMsg.NewPublicKey[:], pub)

	view2 := names.NewChainView(store)
	dupSrc := &fakeSource{ops: []names.Operand{
		{Covenant: names.CovenantUpdate, NameHash: names.NameHash(name), Name: name, Operands: escher.EncodeMessage(dupMsg)},
	}}
	_, err = ApplyNameBlock(view2, 2, params, dupSrc, kv)
	require.Error(t, err)
}

// TestApplyNameBlockCannotExitEscherModeOnceEntered proves that once a
// name's committed data begins with the Escher version byte, a later
// UPDATE covenant carrying plain (non-Escher) resource bytes is rejected
// rather than silently overwriting the commitment (spec.md §4.5: "once
// entered, the mode cannot be exited").
func TestApplyNameBlockCannotExitEscherModeOnceEntered(t *testing.T) {
	params := &chaincfg.RegressionNetParams
	store := newFakeStore()

	name := []byte("locked-in")
	rec := names.NewNameRecord(name)
	rec.SetHeight(0)
	rec.SetOwner(wire.OutPoint{Hash: chainhash.Hash{9}, Index: 0})
	rec.SetData(escher.EncodeCommittedRoot(trie.EmptyRoot()))
	store.put(rec)

	view := names.NewChainView(store)
	src := &fakeSource{ops: []names.Operand{
		{Covenant: names.CovenantUpdate, NameHash: names.NameHash(name), Name: name, Operands: []byte("plain resource bytes")},
	}}

	_, err := ApplyNameBlock(view, 1, params, src, trie.NewMemStore())
	require.Error(t, err)
}
