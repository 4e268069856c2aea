// Copyright (c) 2025 Shell Reserve developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package names

import "github.com/toole-brendan/shell/chaincfg"

// NameParams is the set of network parameters the phase machine and trie
// commit schedule consume (spec.md §4.1, §6).
type NameParams = chaincfg.NameParams

// Phase is one of the auction states a name can occupy at a given height
// (spec.md §4.1).
type Phase uint8

const (
	// PhaseOpening is the initial window after a name is opened, before
	// bidding starts.
	PhaseOpening Phase = iota
	// PhaseBidding is the window during which blind bids may be placed.
	PhaseBidding
	// PhaseReveal is the window during which bids are revealed.
	PhaseReveal
	// PhaseClosed means the auction has settled; the name has an owner
	// (or none, if it received no bids) and is subject to renewal.
	PhaseClosed
	// PhaseLocked means a reserved name has been claimed but is still
	// inside its lock-up window.
	PhaseLocked
	// PhaseRevoked means the name was revoked and cannot be used until
	// it expires.
	PhaseRevoked
)

func (p Phase) String() string {
	switch p {
	case PhaseOpening:
		return "OPENING"
	case PhaseBidding:
		return "BIDDING"
	case PhaseReveal:
		return "REVEAL"
	case PhaseClosed:
		return "CLOSED"
	case PhaseLocked:
		return "LOCKED"
	case PhaseRevoked:
		return "REVOKED"
	default:
		return "UNKNOWN"
	}
}

// phaseAt computes the record's phase at height h under params, per
// spec.md §4.1. Rules are evaluated in order; the first match wins.
func phaseAt(r *NameRecord, h uint32, p *NameParams) Phase {
	if r.Revoked != 0 {
		return PhaseRevoked
	}
	if r.Claimed != 0 {
		if h < r.Height+p.LockupPeriod {
			return PhaseLocked
		}
		return PhaseClosed
	}

	openEnd := r.Height + p.OpenPeriod()
	if h < openEnd {
		return PhaseOpening
	}
	biddingEnd := openEnd + p.BiddingPeriod
	if h < biddingEnd {
		return PhaseBidding
	}
	revealEnd := biddingEnd + p.RevealPeriod
	if h < revealEnd {
		return PhaseReveal
	}
	return PhaseClosed
}

// isExpiredAt reports whether r is expired at height h under params, per
// spec.md §4.1 "Expiration".
func isExpiredAt(r *NameRecord, h uint32, p *NameParams) bool {
	if r.Revoked != 0 {
		return h >= r.Revoked+p.AuctionMaturity
	}
	if phaseAt(r, h, p) != PhaseClosed {
		return false
	}
	if r.Claimed != 0 && h < r.Height+p.LockupPeriod {
		// Still in the claim-protected window; phaseAt already routes
		// this to LOCKED, but guard defensively for direct callers.
		return false
	}
	if isNullOutPoint(r.Owner) {
		return true
	}
	return h >= r.Renewal+p.RenewalWindow
}

// isWeakLocked reports whether r is still inside its weak-proof lock-up
// at height h (spec.md §4.1 "Weakness"): transfers and updates are
// disallowed while true.
func isWeakLocked(r *NameRecord, h uint32, p *NameParams) bool {
	return r.Weak && h < r.Height+p.WeakLockup
}
