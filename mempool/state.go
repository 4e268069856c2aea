// Copyright (c) 2025 Shell Reserve developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package mempool implements the Mempool Contract State (spec.md §4.6):
// a reverse index from watched names to the in-flight transactions that
// reference them, and a predictor that returns the set of transactions a
// pending phase boundary would invalidate.
package mempool

import (
	"github.com/btcsuite/btcd/chaincfg/chainhash"

	"github.com/toole-brendan/shell/chaincfg"
	"github.com/toole-brendan/shell/names"
)

// category indexes the four reverse indices spec.md §4.6 requires: OPENs,
// BIDs, REVEALs (including CLAIMs), and UPDATEs (the catch-all for
// REGISTER/RENEW/TRANSFER/FINALIZE/REVOKE).
type category int

const (
	catOpen category = iota
	catBid
	catReveal
	catUpdate
	numCategories
)

// categoryOf classifies a covenant into one of the four mempool
// categories, or reports false for CovenantNone (nothing to track).
func categoryOf(c names.Covenant) (category, bool) {
	switch c {
	case names.CovenantOpen:
		return catOpen, true
	case names.CovenantBid:
		return catBid, true
	case names.CovenantReveal, names.CovenantClaim:
		return catReveal, true
	case names.CovenantRegister, names.CovenantRenew, names.CovenantTransfer,
		names.CovenantFinalize, names.CovenantRevoke, names.CovenantUpdate:
		return catUpdate, true
	default:
		return 0, false
	}
}

// State is the mempool's name-auction-aware contract state (spec.md
// §4.6). It is not safe for concurrent use; callers serialize access
// through the host mempool's own lock, same as a ChainView.
type State struct {
	store  names.Store
	params *chaincfg.NameParams

	refcount map[names.Hash]int
	nameBuf  map[names.Hash][]byte
	index    [numCategories]map[names.Hash]map[chainhash.Hash]struct{}
	txRefs   map[chainhash.Hash]map[names.Hash]category

	// shadow caches each watched name's on-chain state (the committed
	// record, data stripped) so repeated invalidation queries within the
	// same block don't re-hit the backing store (spec.md §4.6 "shadow
	// chain view").
	shadow map[names.Hash]*names.NameRecord
}

// NewState constructs a mempool contract state backed by store, whose
// GetNameRecord returns each name's last-committed on-chain record.
func NewState(store names.Store, params *chaincfg.NameParams) *State {
	s := &State{
		store:    store,
		params:   params,
		refcount: make(map[names.Hash]int),
		nameBuf:  make(map[names.Hash][]byte),
		txRefs:   make(map[chainhash.Hash]map[names.Hash]category),
		shadow:   make(map[names.Hash]*names.NameRecord),
	}
	for i := range s.index {
		s.index[i] = make(map[names.Hash]map[chainhash.Hash]struct{})
	}
	return s
}

// Track registers txHash as touching name under covenant cov, per
// spec.md §4.6 (i)-(iii). A CovenantNone commitment is not tracked.
func (s *State) Track(txHash chainhash.Hash, name []byte, cov names.Covenant) {
	cat, ok := categoryOf(cov)
	if !ok {
		return
	}
	nameHash := names.NameHash(name)

	if s.refcount[nameHash] == 0 {
		s.nameBuf[nameHash] = append([]byte(nil), name...)
	}
	s.refcount[nameHash]++

	if s.index[cat][nameHash] == nil {
		s.index[cat][nameHash] = make(map[chainhash.Hash]struct{})
	}
	s.index[cat][nameHash][txHash] = struct{}{}

	if s.txRefs[txHash] == nil {
		s.txRefs[txHash] = make(map[names.Hash]category)
	}
	s.txRefs[txHash][nameHash] = cat
}

// Untrack drops txHash from every name it referenced, decrementing each
// name's refcount and dropping the cached shadow record once a name's
// refcount reaches zero (spec.md §5 "Watched-name reference counts").
func (s *State) Untrack(txHash chainhash.Hash) {
	refs, ok := s.txRefs[txHash]
	if !ok {
		return
	}
	for nameHash, cat := range refs {
		if set := s.index[cat][nameHash]; set != nil {
			delete(set, txHash)
			if len(set) == 0 {
				delete(s.index[cat], nameHash)
			}
		}
		s.refcount[nameHash]--
		if s.refcount[nameHash] <= 0 {
			delete(s.refcount, nameHash)
			delete(s.nameBuf, nameHash)
			delete(s.shadow, nameHash)
		}
	}
	delete(s.txRefs, txHash)
}

// RefreshAfterBlock drops the cached shadow records so the next
// invalidation query re-reads the freshly committed on-chain state
// (spec.md §5: "the mempool shadow view is refreshed after each accepted
// block").
func (s *State) RefreshAfterBlock() {
	for k := range s.shadow {
		delete(s.shadow, k)
	}
}

func (s *State) getShadow(nameHash names.Hash) (*names.NameRecord, error) {
	if r, ok := s.shadow[nameHash]; ok {
		return r, nil
	}
	r, err := s.store.GetNameRecord(nameHash)
	if err != nil {
		return nil, err
	}
	if r == nil {
		r = names.NewNameRecord(s.nameBuf[nameHash])
	} else {
		r = r.Clone()
	}
	r.SetData(nil)
	r.ResetDelta()
	s.shadow[nameHash] = r
	return r, nil
}

// InvalidationSet computes the set of in-flight transaction hashes that
// would become consensus-invalid if a block landed at height, per
// spec.md §4.6 "Invalidation query". height is the confirming block's
// next height (h+1 in the spec's own terms). If hardened is set, every
// transaction touching a weak-flagged name is also evicted.
func (s *State) InvalidationSet(height uint32, hardened bool) (map[chainhash.Hash]struct{}, error) {
	evict := make(map[chainhash.Hash]struct{})
	addAll := func(set map[chainhash.Hash]struct{}) {
		for h := range set {
			evict[h] = struct{}{}
		}
	}

	for nameHash := range s.refcount {
		rec, err := s.getShadow(nameHash)
		if err != nil {
			return nil, err
		}

		if rec.IsExpiredAt(height, s.params) {
			addAll(s.index[catUpdate][nameHash])
		}

		switch rec.Phase(height, s.params) {
		case names.PhaseOpening:
			addAll(s.index[catUpdate][nameHash])
		case names.PhaseBidding:
			addAll(s.index[catOpen][nameHash])
		case names.PhaseReveal:
			addAll(s.index[catBid][nameHash])
		case names.PhaseClosed:
			addAll(s.index[catReveal][nameHash])
		}

		if hardened && rec.Weak {
			for c := category(0); c < numCategories; c++ {
				addAll(s.index[c][nameHash])
			}
		}
	}
	return evict, nil
}
