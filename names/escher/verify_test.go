// Copyright (c) 2025 Shell Reserve developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package escher

import (
	"testing"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcec/v2/schnorr"
	"github.com/stretchr/testify/require"

	"github.com/toole-brendan/shell/names/trie"
)

func compoundHash(b byte) [20]byte {
	var h [20]byte
	h[0] = b
	return h
}

func TestVerifyRegisterAgainstEmptySubTrieSucceeds(t *testing.T) {
	kv := trie.NewMemStore()
	tr := trie.New(kv, [32]byte{})
	root := tr.RootHash()

	compound := compoundHash(0x01)
	priv, err := btcec.NewPrivateKey()
	require.NoError(t, err)
	pub := schnorr.SerializePubKey(priv.PubKey())

	proof, err := tr.Prove(compound[:])
	require.NoError(t, err)

	msg := &Message{
		Version:          1,
		CurrentRoot:      root,
		Opcode:           OpRegister,
		CompoundNameHash: compound,
		Proof:            proof,
	}
	copy(msg.NewPublicKey[:], pub)

	newRoot, batch, err := VerifyRegister(msg, kv)
	require.NoError(t, err)
	require.NotNil(t, batch)
	require.NoError(t, batch.Write())
	require.NotEqual(t, root, newRoot)

	tr2 := trie.New(kv, newRoot)
	val, ok, err := tr2.Get(compound[:])
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, pub, val)
}

// TestVerifyRegisterAgainstOccupiedKeyFails is S5: REGISTER against a
// sub-trie that already contains the compound key must fail with a
// proof-of-non-existence violation.
func TestVerifyRegisterAgainstOccupiedKeyFails(t *testing.T) {
	kv := trie.NewMemStore()
	tr := trie.New(kv, [32]byte{})

	compound := compoundHash(0x02)
	require.NoError(t, tr.Insert(compound[:], []byte("already-here-32-bytes-long-val.")))
	batch := kv.NewBatch()
	root, err := tr.Commit(batch)
	require.NoError(t, err)
	require.NoError(t, batch.Write())

	proof, err := tr.Prove(compound[:])
	require.NoError(t, err)

	priv, err := btcec.NewPrivateKey()
	require.NoError(t, err)
	pub := schnorr.SerializePubKey(priv.PubKey())

	msg := &Message{
		Version:          1,
		CurrentRoot:      root,
		Opcode:           OpRegister,
		CompoundNameHash: compound,
		Proof:            proof,
	}
	copy(msg.NewPublicKey[:], pub)

	_, _, err = VerifyRegister(msg, kv)
	require.Error(t, err)
	require.IsType(t, &PolicyFailure{}, err)
}

func TestVerifyUpdateRequiresValidSignature(t *testing.T) {
	kv := trie.NewMemStore()
	tr := trie.New(kv, [32]byte{})

	compound := compoundHash(0x03)
	oldPriv, err := btcec.NewPrivateKey()
	require.NoError(t, err)
	oldPub := schnorr.SerializePubKey(oldPriv.PubKey())
	require.NoError(t, tr.Insert(compound[:], oldPub))

	batch := kv.NewBatch()
	root, err := tr.Commit(batch)
	require.NoError(t, err)
	require.NoError(t, batch.Write())

	newPriv, err := btcec.NewPrivateKey()
	require.NoError(t, err)
	newPub := schnorr.SerializePubKey(newPriv.PubKey())

	proof, err := tr.Prove(compound[:])
	require.NoError(t, err)

	msg := &Message{
		Version:          1,
		CurrentRoot:      root,
		Opcode:           OpUpdate,
		CompoundNameHash: compound,
		Proof:            proof,
	}
	copy(msg.NewPublicKey[:], newPub)

	challenge := challengeHash(msg.CurrentRoot, msg.NewPublicKey)
	sig, err := schnorr.Sign(oldPriv, challenge[:])
	require.NoError(t, err)
	copy(msg.Signature[:], sig.Serialize())

	newRoot, wb, err := VerifyUpdate(msg, kv)
	require.NoError(t, err)
	require.NoError(t, wb.Write())
	require.NotEqual(t, root, newRoot)

	tr2 := trie.New(kv, newRoot)
	val, ok, err := tr2.Get(compound[:])
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, newPub, val)

	// A signature produced by the wrong key must be rejected.
	badProof, err := tr.Prove(compound[:])
	require.NoError(t, err)
	badMsg := &Message{
		Version:          1,
		CurrentRoot:      root,
		Opcode:           OpUpdate,
		CompoundNameHash: compound,
		Proof:            badProof,
	}
	copy(badMsg.NewPublicKey[:], newPub)
	badSig, err := schnorr.Sign(newPriv, challenge[:])
	require.NoError(t, err)
	copy(badMsg.Signature[:], badSig.Serialize())

	_, _, err = VerifyUpdate(badMsg, kv)
	require.Error(t, err)
}

func TestMessageEncodeParseRoundTrip(t *testing.T) {
	compound := compoundHash(0x09)
	priv, err := btcec.NewPrivateKey()
	require.NoError(t, err)
	pub := schnorr.SerializePubKey(priv.PubKey())

	msg := &Message{
		Version:          1,
		CurrentRoot:      [32]byte{1, 2, 3},
		Opcode:           OpRegister,
		CompoundNameHash: compound,
		Proof:            [][]byte{[]byte("a"), []byte("bb")},
	}
	copy(msg.NewPublicKey[:], pub)

	enc := EncodeMessage(msg)
	require.LessOrEqual(t, len(enc), MaxMessageSize)

	got, err := ParseMessage(enc)
	require.NoError(t, err)
	require.Equal(t, msg.Version, got.Version)
	require.Equal(t, msg.CurrentRoot, got.CurrentRoot)
	require.Equal(t, msg.Opcode, got.Opcode)
	require.Equal(t, msg.CompoundNameHash, got.CompoundNameHash)
	require.Equal(t, msg.NewPublicKey, got.NewPublicKey)
	require.Equal(t, msg.Proof, got.Proof)
}

func TestParseMessageRejectsOversized(t *testing.T) {
	buf := make([]byte, MaxMessageSize+1)
	_, err := ParseMessage(buf)
	require.Error(t, err)
	require.IsType(t, &PolicyFailure{}, err)
}
