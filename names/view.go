// Copyright (c) 2025 Shell Reserve developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package names

// Store is the read side of the authenticated name trie a ChainView lazily
// loads from: GetNameRecord returns (nil, nil) for a name never committed
// (spec.md §4.4 "get").
type Store interface {
	GetNameRecord(nameHash Hash) (*NameRecord, error)
}

// ChainView is an in-memory, copy-on-touch overlay of in-flight name
// state, mirroring btcd's UTXO viewpoint pattern (spec.md §3 "Chain
// View"). It is not safe for concurrent use (spec.md §5): callers
// serialize access the same way block connection is serialized.
type ChainView struct {
	store   Store
	entries map[Hash]*NameRecord
	// touched preserves the order names were first loaded into the view,
	// so toNameUndo can emit entries in first-touch order (spec.md §4.3).
	touched []Hash
}

// NewChainView constructs a view backed by store.
func NewChainView(store Store) *ChainView {
	return &ChainView{
		store:   store,
		entries: make(map[Hash]*NameRecord),
	}
}

// GetNameState returns the record for nameHash, loading it from the
// backing store on first touch and constructing the null record if the
// store has never seen it (spec.md §4.3 "getNameState"). A loaded record
// starts with an empty delta, so HasDelta reports changes made since
// load. The returned pointer is owned by the view; callers mutate it via
// its setters.
func (v *ChainView) GetNameState(nameHash Hash, name []byte) (*NameRecord, error) {
	if r, ok := v.entries[nameHash]; ok {
		return r, nil
	}
	r, err := v.store.GetNameRecord(nameHash)
	if err != nil {
		return nil, err
	}
	if r == nil {
		r = NewNameRecord(name)
	} else {
		r.ResetDelta()
	}
	v.entries[nameHash] = r
	v.touched = append(v.touched, nameHash)
	return r, nil
}

// HasEntry reports whether nameHash has been loaded into the view this
// block, without touching the backing store.
func (v *ChainView) HasEntry(nameHash Hash) bool {
	_, ok := v.entries[nameHash]
	return ok
}

// Entries returns the view's current touched-name set, keyed by
// nameHash. The caller must not mutate the returned map.
func (v *ChainView) Entries() map[Hash]*NameRecord {
	return v.entries
}

// ToNameUndo emits a NameUndo bundle covering every record this view
// mutated, in first-touch order (spec.md §4.3 "toNameUndo"). Records that
// were loaded but never actually changed (HasDelta() == false) are
// skipped: they contribute nothing to reverting the block.
func (v *ChainView) ToNameUndo() *NameUndo {
	u := &NameUndo{}
	for _, nh := range v.touched {
		r := v.entries[nh]
		if r == nil || !r.HasDelta() {
			continue
		}
		u.Entries = append(u.Entries, UndoEntry{NameHash: nh, Delta: *r.Delta()})
	}
	return u
}

// Flush resets every touched record's accumulated delta and clears the
// touched-name ledger, leaving the view's entries in place as the new
// committed baseline. Call this after the view's entries have been
// written back to the trie (spec.md §4.3: a flushed view is ready to
// serve as the base for the next block).
func (v *ChainView) Flush() {
	for _, nh := range v.touched {
		if r := v.entries[nh]; r != nil {
			r.ResetDelta()
		}
	}
	v.touched = v.touched[:0]
}
