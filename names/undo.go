// Copyright (c) 2025 Shell Reserve developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package names

import "encoding/binary"

// UndoEntry pairs a name's hash with the delta that, applied, reverts the
// record to its state before the owning block (spec.md §3 "Name Undo
// Bundle").
type UndoEntry struct {
	NameHash Hash
	Delta    NameDelta
}

// NameUndo is the ordered list of per-name deltas produced by applying one
// block, in first-touch order (spec.md §3, §4.3 "toNameUndo"). Applying
// its entries in order, each to the record named by its NameHash, reverts
// the chain view to its pre-block state.
type NameUndo struct {
	Entries []UndoEntry
}

// GetSize returns len(u.Encode()).
func (u *NameUndo) GetSize() int {
	size := 4
	for i := range u.Entries {
		size += HashSize + u.Entries[i].Delta.GetSize()
	}
	return size
}

// Encode serializes u per spec.md §6 "Name undo bundle: u32 count then
// (nameHash || delta) pairs, in first-touch order."
func (u *NameUndo) Encode() []byte {
	buf := make([]byte, 0, u.GetSize())
	var cb [4]byte
	binary.LittleEndian.PutUint32(cb[:], uint32(len(u.Entries)))
	buf = append(buf, cb[:]...)
	for i := range u.Entries {
		buf = append(buf, u.Entries[i].NameHash[:]...)
		buf = append(buf, u.Entries[i].Delta.Encode()...)
	}
	return buf
}

// DecodeNameUndo parses a NameUndo from buf, returning the number of bytes
// consumed.
func DecodeNameUndo(buf []byte) (*NameUndo, int, error) {
	if len(buf) < 4 {
		return nil, 0, &CodecFailure{What: "undo count", Err: errShortRead("undo count", 4, len(buf))}
	}
	count := binary.LittleEndian.Uint32(buf[:4])
	off := 4
	u := &NameUndo{Entries: make([]UndoEntry, 0, count)}
	for i := uint32(0); i < count; i++ {
		if len(buf) < off+HashSize {
			return nil, 0, &CodecFailure{What: "undo entry nameHash", Err: errShortRead("undo entry nameHash", HashSize, len(buf)-off)}
		}
		var nh Hash
		copy(nh[:], buf[off:off+HashSize])
		off += HashSize

		d, n, err := DecodeNameDelta(buf[off:])
		if err != nil {
			return nil, 0, &CodecFailure{What: "undo entry delta", Err: err}
		}
		off += n
		u.Entries = append(u.Entries, UndoEntry{NameHash: nh, Delta: *d})
	}
	return u, off, nil
}

// Apply reverts the records named by u's entries, in order, using get to
// load (or construct) each record and put to write the reverted value
// back (spec.md §4.3 "apply undo"). Entries are applied in the order
// stored: since toNameUndo records first-touch order within a block and a
// single block only ever has one entry per name (the delta accumulates
// across the whole block), iteration order does not matter for
// correctness, only that every entry is applied exactly once.
func (u *NameUndo) Apply(get func(Hash) (*NameRecord, error), put func(*NameRecord) error) error {
	for i := range u.Entries {
		e := &u.Entries[i]
		r, err := get(e.NameHash)
		if err != nil {
			return err
		}
		e.Delta.ApplyTo(r)
		r.ResetDelta()
		if err := put(r); err != nil {
			return err
		}
	}
	return nil
}
