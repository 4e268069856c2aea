// Copyright (c) 2014-2016 The btcsuite developers
// Copyright (c) 2025 Shell Reserve developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package chaincfg defines the network parameters consumed by the
// name-auction core: the per-network auction timing constants that drive
// the Name Record phase machine (see names.Phase) and the trie commit
// schedule.
package chaincfg

import (
	"errors"
)

// NameParams holds the network parameters the name-auction core consumes,
// per spec.md §4.1 and §6. All values are measured in blocks.
type NameParams struct {
	// Name identifies the network these parameters describe.
	Name string

	// TreeInterval is the number of blocks between trie commits, and
	// also the basis for the opening period: openPeriod = TreeInterval + 1.
	TreeInterval uint32

	// BiddingPeriod is the length of the BIDDING phase in blocks.
	BiddingPeriod uint32

	// RevealPeriod is the length of the REVEAL phase in blocks.
	RevealPeriod uint32

	// LockupPeriod gates the LOCKED phase for claimed names: a claimed
	// name stays LOCKED until height + LockupPeriod, then becomes CLOSED.
	LockupPeriod uint32

	// RenewalWindow is the bounded height interval within which an owner
	// must renew a closed name or lose it to expiration.
	RenewalWindow uint32

	// AuctionMaturity is the number of blocks after revocation before a
	// revoked name is considered expired.
	AuctionMaturity uint32

	// TransferLockup is the number of blocks a pending TRANSFER must wait
	// before it can be finalized.
	TransferLockup uint32

	// ClaimPeriod bounds how long a reserved name may be claimed for
	// before the claim path closes.
	ClaimPeriod uint32

	// WeakLockup is the number of blocks after a weak-proof claim during
	// which transfers and updates are disallowed (spec.md §4.1 "Weakness").
	WeakLockup uint32
}

// OpenPeriod returns the derived OPENING-phase length: TreeInterval + 1.
func (p *NameParams) OpenPeriod() uint32 {
	return p.TreeInterval + 1
}

// MainNetParams defines the auction timing parameters for the production
// network.
var MainNetParams = NameParams{
	Name:            "mainnet",
	TreeInterval:    36,
	BiddingPeriod:   36 * 5,
	RevealPeriod:    36 * 10,
	LockupPeriod:    36 * 365 * 2,
	RenewalWindow:   36 * 365 * 2,
	AuctionMaturity: 36 * 14,
	TransferLockup:  36 * 2,
	ClaimPeriod:     36 * 365 * 4,
	WeakLockup:      36 * 365,
}

// TestNetParams defines much shorter auction windows for integration tests
// and a public testnet, mirroring the proportions of MainNetParams at a
// faster cadence.
var TestNetParams = NameParams{
	Name:            "testnet",
	TreeInterval:    5,
	BiddingPeriod:   5 * 5,
	RevealPeriod:    5 * 10,
	LockupPeriod:    5 * 30,
	RenewalWindow:   5 * 30,
	AuctionMaturity: 5 * 2,
	TransferLockup:  5,
	ClaimPeriod:     5 * 60,
	WeakLockup:      5 * 14,
}

// RegressionNetParams defines minimal auction windows suitable for
// deterministic unit and property tests.
var RegressionNetParams = NameParams{
	Name:            "regtest",
	TreeInterval:    4,
	BiddingPeriod:   5,
	RevealPeriod:    3,
	LockupPeriod:    10,
	RenewalWindow:   10,
	AuctionMaturity: 2,
	TransferLockup:  2,
	ClaimPeriod:     20,
	WeakLockup:      8,
}

// ErrUnknownNetwork is returned by ParamsByName for an unrecognized network
// name.
var ErrUnknownNetwork = errors.New("chaincfg: unknown network name")

// ParamsByName returns the NameParams for a well-known network name.
func ParamsByName(name string) (*NameParams, error) {
	switch name {
	case MainNetParams.Name:
		return &MainNetParams, nil
	case TestNetParams.Name:
		return &TestNetParams, nil
	case RegressionNetParams.Name:
		return &RegressionNetParams, nil
	default:
		return nil, ErrUnknownNetwork
	}
}
