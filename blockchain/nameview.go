// Copyright (c) 2025 Shell Reserve developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package blockchain wires the name-auction core into block
// application: it dispatches each name covenant output in a block into
// the names package by covenant category, mirroring the covenant
// dispatch pattern elsewhere in this chain's validation pipeline.
package blockchain

import (
	"fmt"

	"github.com/toole-brendan/shell/chaincfg"
	"github.com/toole-brendan/shell/names"
	"github.com/toole-brendan/shell/names/escher"
	"github.com/toole-brendan/shell/names/trie"
)

// ApplyNameBlock applies every name covenant output src yields, in
// order, against view at height, and returns the undo bundle the block
// must persist to allow exact rollback (spec.md §4.3, §4.7, §5:
// "mutations are applied in transaction order, then output index
// order"). Cryptographic validation of a covenant's witness (blind-bid
// correctness, transfer/finalize signatures, proof-of-work) is handled
// upstream of this core; by the time an Operand reaches ApplyNameBlock
// its covenant-specific payload is assumed already authenticated.
func ApplyNameBlock(view *names.ChainView, height uint32, params *chaincfg.NameParams, src names.Source, kv trie.KV) (*names.NameUndo, error) {
	operands, err := src.Covenants()
	if err != nil {
		return nil, err
	}

	// Escher sub-trie mutations are staged as batches and written only
	// once every covenant in the block has applied cleanly, mirroring
	// how the main name trie's writes are deferred to ConnectNameBlock
	// rather than persisted output-by-output.
	var escherBatches []trie.Batch

	for _, op := range operands {
		rec, err := view.GetNameState(op.NameHash, op.Name)
		if err != nil {
			return nil, err
		}
		if !rec.IsNull() && rec.IsExpiredAt(height, params) && op.Covenant != names.CovenantOpen {
			// A name that lapsed since it was last touched resets to a
			// fresh OPENING before any further covenant is considered,
			// per spec.md §4.1 "Expiration". An OPEN output drives the
			// reset itself below, so it is excluded here to avoid
			// double-resetting in the same step.
			rec.ResetForReopen(height)
		}

		if err := applyCovenant(rec, height, params, op, kv, &escherBatches); err != nil {
			return nil, fmt.Errorf("blockchain: applying %s to name %x: %w", op.Covenant, op.NameHash, err)
		}
	}

	for _, b := range escherBatches {
		if err := b.Write(); err != nil {
			return nil, err
		}
	}

	return view.ToNameUndo(), nil
}

func applyCovenant(rec *names.NameRecord, height uint32, params *chaincfg.NameParams, op names.Operand, kv trie.KV, escherBatches *[]trie.Batch) error {
	switch op.Covenant {
	case names.CovenantOpen:
		switch {
		case rec.IsNull():
			rec.SetHeight(height)
		case rec.IsExpiredAt(height, params):
			rec.ResetForReopen(height)
		default:
			return fmt.Errorf("name is not open for a new auction")
		}

	case names.CovenantBid:
		// Blinded bids carry no record mutation; they are tracked only
		// by the mempool contract state until revealed.

	case names.CovenantReveal:
		value, err := decodeBidValue(op.Operands)
		if err != nil {
			return err
		}
		if value > rec.Value {
			rec.SetHighest(rec.Value)
			rec.SetValue(value)
			rec.SetOwner(op.Outpoint)
		} else if value > rec.Highest {
			rec.SetHighest(value)
		}

	case names.CovenantClaim:
		rec.SetClaimed(height)
		rec.SetOwner(op.Outpoint)
		if len(op.Operands) > 0 && op.Operands[0] != 0 {
			rec.SetWeak(true)
		}
		rec.SetRegistered(true)

	case names.CovenantRegister:
		rec.SetOwner(op.Outpoint)
		if err := applyResourceData(rec, kv, escherBatches, op.Operands); err != nil {
			return err
		}
		rec.SetRegistered(true)

	case names.CovenantRenew:
		rec.SetRenewal(height)
		rec.SetRenewals(rec.Renewals + 1)

	case names.CovenantTransfer:
		if rec.IsWeakLockedAt(height, params) {
			return fmt.Errorf("name is weak-locked")
		}
		rec.SetTransfer(height)

	case names.CovenantFinalize:
		if rec.Transfer == 0 {
			return fmt.Errorf("no pending transfer")
		}
		if height < rec.Transfer+params.TransferLockup {
			return fmt.Errorf("transfer lock-up has not elapsed")
		}
		rec.SetOwner(op.Outpoint)
		rec.SetTransfer(0)

	case names.CovenantRevoke:
		rec.SetRevoked(height)

	case names.CovenantUpdate:
		if rec.IsWeakLockedAt(height, params) {
			return fmt.Errorf("name is weak-locked")
		}
		if err := applyResourceData(rec, kv, escherBatches, op.Operands); err != nil {
			return err
		}
		rec.SetRegistered(true)

	default:
		return fmt.Errorf("unrecognized covenant %s", op.Covenant)
	}
	return nil
}

// applyResourceData commits a REGISTER or UPDATE covenant's resource
// payload to rec. A payload beginning with the Escher version byte is
// parsed as an Escher message. Once rec's committed data is an
// escher-mode root (escher.IsEscherData), every future payload is parsed as an
// Escher REGISTER/UPDATE message and must pass its proof of
// (non-)existence — and, for UPDATE, its schnorr signature — against the
// name's sub-trie before being accepted; plain opaque resource data is
// no longer permitted once that mode is entered. The verified message's
// trie batch is appended to escherBatches rather than written here, so a
// later covenant's failure in the same block leaves no partial sub-trie
// mutation behind.
func applyResourceData(rec *names.NameRecord, kv trie.KV, escherBatches *[]trie.Batch, operands []byte) error {
	wasEscher := escher.IsEscherData(rec.Data)

	if len(operands) == 0 || operands[0] != escher.CurrentVersion {
		if wasEscher {
			return &escher.PolicyFailure{Reason: "cannot exit escher mode once a name has entered it"}
		}
		rec.SetData(operands)
		return nil
	}

	msg, err := escher.ParseMessage(operands)
	if err != nil {
		return err
	}

	expectedRoot := trie.EmptyRoot()
	if wasEscher {
		expectedRoot, _ = escher.DecodeCommittedRoot(rec.Data)
	}
	if msg.CurrentRoot != expectedRoot {
		return &escher.PolicyFailure{Reason: "message currentRoot does not match the name's committed sub-trie root"}
	}

	var newRoot [32]byte
	var batch trie.Batch
	switch msg.Opcode {
	case escher.OpRegister:
		newRoot, batch, err = escher.VerifyRegister(msg, kv)
	case escher.OpUpdate:
		newRoot, batch, err = escher.VerifyUpdate(msg, kv)
	default:
		return &escher.PolicyFailure{Reason: "unrecognized escher opcode"}
	}
	if err != nil {
		return err
	}

	*escherBatches = append(*escherBatches, batch)
	rec.SetData(escher.EncodeCommittedRoot(newRoot))
	return nil
}

// decodeBidValue reads the little-endian 8-byte revealed bid amount from
// a REVEAL covenant's operand bytes.
func decodeBidValue(operands []byte) (uint64, error) {
	if len(operands) < 8 {
		return 0, fmt.Errorf("reveal operand too short")
	}
	var v uint64
	for i := 0; i < 8; i++ {
		v |= uint64(operands[i]) << (8 * uint(i))
	}
	return v, nil
}
