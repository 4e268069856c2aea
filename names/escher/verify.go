// Copyright (c) 2025 Shell Reserve developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package escher

import (
	"crypto/sha256"

	"github.com/btcsuite/btcd/btcec/v2/schnorr"

	"github.com/toole-brendan/shell/names/trie"
)

// VerifyRegister checks a REGISTER message's proof of non-existence
// against kv, then performs the insertion the message proposes, returning
// the sub-trie's new root (spec.md §4.5 "REGISTER"). kv must be the same
// backing store the proof was drawn from; Commit is not written until the
// caller writes the returned batch.
func VerifyRegister(msg *Message, kv trie.KV) (newRoot [32]byte, batch trie.Batch, err error) {
	if msg.Opcode != OpRegister {
		return newRoot, nil, &PolicyFailure{Reason: "VerifyRegister called on non-REGISTER message"}
	}
	result, val := trie.VerifyProof(msg.CurrentRoot, msg.CompoundNameHash[:], msg.Proof)
	if result != trie.ResultOK {
		return newRoot, nil, &trie.ProofFailure{Code: result}
	}
	if val != nil {
		return newRoot, nil, &PolicyFailure{Reason: "REGISTER: compound name already present"}
	}

	t := trie.New(kv, msg.CurrentRoot)
	if err := t.Insert(msg.CompoundNameHash[:], msg.NewPublicKey[:]); err != nil {
		return newRoot, nil, err
	}
	b := kv.NewBatch()
	newRoot, err = t.Commit(b)
	if err != nil {
		return newRoot, nil, err
	}
	return newRoot, b, nil
}

// VerifyUpdate checks an UPDATE message's proof of existence, verifies
// the embedded schnorr signature over MAGIC||currentRoot||newPublicKey
// under the existing key, then performs the replacement the message
// proposes, returning the sub-trie's new root (spec.md §4.5 "UPDATE").
func VerifyUpdate(msg *Message, kv trie.KV) (newRoot [32]byte, batch trie.Batch, err error) {
	if msg.Opcode != OpUpdate {
		return newRoot, nil, &PolicyFailure{Reason: "VerifyUpdate called on non-UPDATE message"}
	}
	result, oldKey := trie.VerifyProof(msg.CurrentRoot, msg.CompoundNameHash[:], msg.Proof)
	if result != trie.ResultOK {
		return newRoot, nil, &trie.ProofFailure{Code: result}
	}
	if oldKey == nil {
		return newRoot, nil, &PolicyFailure{Reason: "UPDATE: compound name does not exist"}
	}
	if len(oldKey) != PubKeySize {
		return newRoot, nil, &PolicyFailure{Reason: "UPDATE: committed value is not a public key"}
	}

	pubKey, err := schnorr.ParsePubKey(oldKey)
	if err != nil {
		return newRoot, nil, &PolicyFailure{Reason: "UPDATE: malformed existing public key"}
	}
	sig, err := schnorr.ParseSignature(msg.Signature[:])
	if err != nil {
		return newRoot, nil, &PolicyFailure{Reason: "UPDATE: malformed signature"}
	}
	challenge := challengeHash(msg.CurrentRoot, msg.NewPublicKey)
	if !sig.Verify(challenge[:], pubKey) {
		return newRoot, nil, &PolicyFailure{Reason: "UPDATE: signature verification failed"}
	}

	t := trie.New(kv, msg.CurrentRoot)
	if err := t.Insert(msg.CompoundNameHash[:], msg.NewPublicKey[:]); err != nil {
		return newRoot, nil, err
	}
	b := kv.NewBatch()
	newRoot, err = t.Commit(b)
	if err != nil {
		return newRoot, nil, err
	}
	return newRoot, b, nil
}

// challengeHash computes sha256(MAGIC || currentRoot || newPublicKey),
// the message an UPDATE's signature must cover (spec.md §4.5).
func challengeHash(currentRoot [32]byte, newPublicKey [PubKeySize]byte) [32]byte {
	h := sha256.New()
	h.Write(sigMagic)
	h.Write(currentRoot[:])
	h.Write(newPublicKey[:])
	var out [32]byte
	copy(out[:], h.Sum(nil))
	return out
}
