// Copyright (c) 2025 Shell Reserve developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package names

import "github.com/btcsuite/btcd/wire"

// Covenant identifies the auction-lifecycle operation a name-bearing
// output commits to (spec.md GLOSSARY "Covenant"). The taxonomy mirrors
// the phase transitions of §4.1: opening a name, blind-bidding on it,
// revealing a bid, finalizing the winner, renewing, transferring, and the
// reserved-name claim and revoke paths.
type Covenant uint8

const (
	// CovenantNone marks an output with no name commitment.
	CovenantNone Covenant = iota
	// CovenantOpen opens a name's OPENING window.
	CovenantOpen
	// CovenantBid commits a blinded bid during BIDDING.
	CovenantBid
	// CovenantReveal reveals a previously blinded bid during REVEAL.
	CovenantReveal
	// CovenantRegister finalizes a name's first auction winner.
	CovenantRegister
	// CovenantRenew extends a CLOSED name's renewal window.
	CovenantRenew
	// CovenantTransfer begins a pending ownership transfer.
	CovenantTransfer
	// CovenantFinalize completes a pending ownership transfer past its
	// lock-up.
	CovenantFinalize
	// CovenantRevoke revokes a name, discarding its data.
	CovenantRevoke
	// CovenantClaim claims a reserved name; a non-zero first operand
	// byte marks the claim as made via weak proof.
	CovenantClaim
	// CovenantUpdate commits new resource-record data to an owned name
	// (spec.md §4.5 "Escher" uses this category for its sub-trie
	// commitments).
	CovenantUpdate
)

func (c Covenant) String() string {
	switch c {
	case CovenantNone:
		return "NONE"
	case CovenantOpen:
		return "OPEN"
	case CovenantBid:
		return "BID"
	case CovenantReveal:
		return "REVEAL"
	case CovenantRegister:
		return "REGISTER"
	case CovenantRenew:
		return "RENEW"
	case CovenantTransfer:
		return "TRANSFER"
	case CovenantFinalize:
		return "FINALIZE"
	case CovenantRevoke:
		return "REVOKE"
	case CovenantClaim:
		return "CLAIM"
	case CovenantUpdate:
		return "UPDATE"
	default:
		return "UNKNOWN"
	}
}

// Operand is a single covenant output's parsed commitment: which name it
// touches, under which covenant, and any opaque operand bytes the
// covenant-specific opcode handler (see package escher) needs to verify
// it. Operands is the remainder of the output's commitment payload after
// the covenant tag and nameHash have been consumed.
type Operand struct {
	Covenant Covenant
	NameHash Hash
	Name     []byte
	Outpoint wire.OutPoint
	Operands []byte
}

// Source is implemented by whatever carries parsed transaction outputs
// into the name-auction core: a block's transactions, or a single
// candidate transaction under mempool evaluation (spec.md §6 "Block/tx
// source"). Iteration order must be deterministic and match the order
// outputs appear on-chain, since covenant evaluation is order-sensitive
// within a block.
type Source interface {
	// Covenants returns every name covenant output carried by the
	// source, in on-chain order.
	Covenants() ([]Operand, error)
}
