// Copyright (c) 2025 Shell Reserve developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package names

import (
	"encoding/binary"

	"github.com/btcsuite/btcd/wire"
)

// optU32, optU64, optBytes, optOutpoint and optBool are the "optional"
// wrappers spec.md §9 requires: a field that uses 0/null as a legitimate
// value must be represented as present-or-absent, never collapsed onto
// the zero value itself.
type optU32 struct {
	Set bool
	Val uint32
}

type optU64 struct {
	Set bool
	Val uint64
}

type optBytes struct {
	Set bool
	Val []byte
}

type optOutpoint struct {
	Set bool
	Val wire.OutPoint
}

type optBool struct {
	Set bool
	Val bool
}

// NameDelta is the sparse, optional-field mirror of a NameRecord (spec.md
// §3 "Name Delta"). Each field is either unset (no change captured) or set
// to the pre-mutation value.
type NameDelta struct {
	Height     optU32
	Renewal    optU32
	Owner      optOutpoint
	Value      optU64
	Highest    optU64
	Data       optBytes
	Transfer   optU32
	Revoked    optU32
	Claimed    optU32
	Renewals   optU32
	Registered optBool
	Expired    optBool
	Weak       optBool
}

// Delta field-map bit positions. Each field occupies a (present, nonzero)
// bit pair, per spec.md §4.2. The current (wide) variant committed to in
// DESIGN.md's Open Question resolution has 13 mutable fields, so the
// field map here is a full 32-bit word (spec.md §6 "Name delta: u32
// fieldMap") rather than the older 24-bit layout that lacked Renewals,
// Registered and Expired.
const (
	bitHeight = iota * 2
	bitRenewal
	bitOwner
	bitValue
	bitHighest
	bitData
	bitTransfer
	bitRevoked
	bitClaimed
	bitRenewals
	bitRegistered
	bitExpired
	bitWeak
)

func (d *NameDelta) isEmpty() bool {
	return !d.Height.Set && !d.Renewal.Set && !d.Owner.Set && !d.Value.Set &&
		!d.Highest.Set && !d.Data.Set && !d.Transfer.Set && !d.Revoked.Set &&
		!d.Claimed.Set && !d.Renewals.Set && !d.Registered.Set &&
		!d.Expired.Set && !d.Weak.Set
}

// Equal reports whether d and other encode the same set of present
// fields and values, per byte-for-byte round-trip semantics used by the
// codec property tests (spec.md §8 property 2).
func (d *NameDelta) Equal(other *NameDelta) bool {
	if d.Height != other.Height || d.Renewal != other.Renewal ||
		d.Value != other.Value || d.Highest != other.Highest ||
		d.Transfer != other.Transfer || d.Revoked != other.Revoked ||
		d.Claimed != other.Claimed || d.Renewals != other.Renewals ||
		d.Registered != other.Registered || d.Expired != other.Expired ||
		d.Weak != other.Weak {
		return false
	}
	if d.Owner.Set != other.Owner.Set || (d.Owner.Set && d.Owner.Val != other.Owner.Val) {
		return false
	}
	if d.Data.Set != other.Data.Set || !bytesEqual(d.Data.Val, other.Data.Val) {
		return false
	}
	return true
}

// fieldMap computes the present/nonzero bitmap for d.
func (d *NameDelta) fieldMap() uint32 {
	var m uint32
	setBit := func(present bool, bit int) {
		if present {
			m |= 1 << uint(bit)
		}
	}
	setBit(d.Height.Set, bitHeight)
	setBit(d.Height.Set && d.Height.Val != 0, bitHeight+1)
	setBit(d.Renewal.Set, bitRenewal)
	setBit(d.Renewal.Set && d.Renewal.Val != 0, bitRenewal+1)
	setBit(d.Owner.Set, bitOwner)
	setBit(d.Owner.Set && !isNullOutPoint(d.Owner.Val), bitOwner+1)
	setBit(d.Value.Set, bitValue)
	setBit(d.Value.Set && d.Value.Val != 0, bitValue+1)
	setBit(d.Highest.Set, bitHighest)
	setBit(d.Highest.Set && d.Highest.Val != 0, bitHighest+1)
	setBit(d.Data.Set, bitData)
	setBit(d.Data.Set && len(d.Data.Val) != 0, bitData+1)
	setBit(d.Transfer.Set, bitTransfer)
	setBit(d.Transfer.Set && d.Transfer.Val != 0, bitTransfer+1)
	setBit(d.Revoked.Set, bitRevoked)
	setBit(d.Revoked.Set && d.Revoked.Val != 0, bitRevoked+1)
	setBit(d.Claimed.Set, bitClaimed)
	setBit(d.Claimed.Set && d.Claimed.Val != 0, bitClaimed+1)
	setBit(d.Renewals.Set, bitRenewals)
	setBit(d.Renewals.Set && d.Renewals.Val != 0, bitRenewals+1)
	setBit(d.Registered.Set, bitRegistered)
	setBit(d.Registered.Set && d.Registered.Val, bitRegistered+1)
	setBit(d.Expired.Set, bitExpired)
	setBit(d.Expired.Set && d.Expired.Val, bitExpired+1)
	setBit(d.Weak.Set, bitWeak)
	setBit(d.Weak.Set && d.Weak.Val, bitWeak+1)
	return m
}

// GetSize returns len(d.Encode()).
func (d *NameDelta) GetSize() int {
	size := 4 // fieldMap
	m := d.fieldMap()
	has := func(bit int) bool { return m&(1<<uint(bit)) != 0 }

	if has(bitHeight + 1) {
		size += 4
	}
	if has(bitRenewal + 1) {
		size += 4
	}
	if has(bitOwner + 1) {
		size += outPointEncodedSize(d.Owner.Val)
	}
	if has(bitValue + 1) {
		size += varIntSize(d.Value.Val)
	}
	if has(bitHighest + 1) {
		size += varIntSize(d.Highest.Val)
	}
	if has(bitData + 1) {
		size += 2 + len(d.Data.Val)
	}
	if has(bitTransfer + 1) {
		size += 4
	}
	if has(bitRevoked + 1) {
		size += 4
	}
	if has(bitClaimed + 1) {
		size += 4
	}
	if has(bitRenewals + 1) {
		size += varIntSize(uint64(d.Renewals.Val))
	}
	return size
}

// Encode serializes d per spec.md §6 "Name delta: u32 fieldMap then
// optional fields in the same order" (bool fields carry no payload: their
// value is the bitmap bit itself).
func (d *NameDelta) Encode() []byte {
	buf := make([]byte, 0, d.GetSize())
	m := d.fieldMap()
	var fm [4]byte
	binary.LittleEndian.PutUint32(fm[:], m)
	buf = append(buf, fm[:]...)
	has := func(bit int) bool { return m&(1<<uint(bit)) != 0 }

	if has(bitHeight + 1) {
		buf = appendU32(buf, d.Height.Val)
	}
	if has(bitRenewal + 1) {
		buf = appendU32(buf, d.Renewal.Val)
	}
	if has(bitOwner + 1) {
		buf = encodeOutPoint(buf, d.Owner.Val)
	}
	if has(bitValue + 1) {
		var vb [9]byte
		n := putVarInt(vb[:], d.Value.Val)
		buf = append(buf, vb[:n]...)
	}
	if has(bitHighest + 1) {
		var vb [9]byte
		n := putVarInt(vb[:], d.Highest.Val)
		buf = append(buf, vb[:n]...)
	}
	if has(bitData + 1) {
		var lb [2]byte
		binary.LittleEndian.PutUint16(lb[:], uint16(len(d.Data.Val)))
		buf = append(buf, lb[:]...)
		buf = append(buf, d.Data.Val...)
	}
	if has(bitTransfer + 1) {
		buf = appendU32(buf, d.Transfer.Val)
	}
	if has(bitRevoked + 1) {
		buf = appendU32(buf, d.Revoked.Val)
	}
	if has(bitClaimed + 1) {
		buf = appendU32(buf, d.Claimed.Val)
	}
	if has(bitRenewals + 1) {
		var vb [9]byte
		n := putVarInt(vb[:], uint64(d.Renewals.Val))
		buf = append(buf, vb[:n]...)
	}
	return buf
}

// DecodeNameDelta parses a NameDelta from buf, returning the number of
// bytes consumed.
func DecodeNameDelta(buf []byte) (*NameDelta, int, error) {
	if len(buf) < 4 {
		return nil, 0, &CodecFailure{What: "delta fieldMap", Err: errShortRead("delta fieldMap", 4, len(buf))}
	}
	m := binary.LittleEndian.Uint32(buf[:4])
	off := 4
	has := func(bit int) bool { return m&(1<<uint(bit)) != 0 }
	d := &NameDelta{}

	d.Height.Set = has(bitHeight)
	if has(bitHeight + 1) {
		v, n, err := readU32(buf[off:])
		if err != nil {
			return nil, 0, &CodecFailure{What: "delta.Height", Err: err}
		}
		d.Height.Val = v
		off += n
	}
	d.Renewal.Set = has(bitRenewal)
	if has(bitRenewal + 1) {
		v, n, err := readU32(buf[off:])
		if err != nil {
			return nil, 0, &CodecFailure{What: "delta.Renewal", Err: err}
		}
		d.Renewal.Val = v
		off += n
	}
	d.Owner.Set = has(bitOwner)
	d.Owner.Val = nullOutPoint
	if has(bitOwner + 1) {
		op, n, err := decodeOutPoint(buf[off:])
		if err != nil {
			return nil, 0, &CodecFailure{What: "delta.Owner", Err: err}
		}
		d.Owner.Val = op
		off += n
	}
	d.Value.Set = has(bitValue)
	if has(bitValue + 1) {
		v, n, err := getVarInt(buf[off:])
		if err != nil {
			return nil, 0, &CodecFailure{What: "delta.Value", Err: err}
		}
		d.Value.Val = v
		off += n
	}
	d.Highest.Set = has(bitHighest)
	if has(bitHighest + 1) {
		v, n, err := getVarInt(buf[off:])
		if err != nil {
			return nil, 0, &CodecFailure{What: "delta.Highest", Err: err}
		}
		d.Highest.Val = v
		off += n
	}
	d.Data.Set = has(bitData)
	if has(bitData + 1) {
		if len(buf) < off+2 {
			return nil, 0, &CodecFailure{What: "delta.Data length", Err: errShortRead("delta.Data length", 2, len(buf)-off)}
		}
		dl := int(binary.LittleEndian.Uint16(buf[off : off+2]))
		off += 2
		if len(buf) < off+dl {
			return nil, 0, &CodecFailure{What: "delta.Data", Err: errShortRead("delta.Data", dl, len(buf)-off)}
		}
		d.Data.Val = append([]byte(nil), buf[off:off+dl]...)
		off += dl
	}
	d.Transfer.Set = has(bitTransfer)
	if has(bitTransfer + 1) {
		v, n, err := readU32(buf[off:])
		if err != nil {
			return nil, 0, &CodecFailure{What: "delta.Transfer", Err: err}
		}
		d.Transfer.Val = v
		off += n
	}
	d.Revoked.Set = has(bitRevoked)
	if has(bitRevoked + 1) {
		v, n, err := readU32(buf[off:])
		if err != nil {
			return nil, 0, &CodecFailure{What: "delta.Revoked", Err: err}
		}
		d.Revoked.Val = v
		off += n
	}
	d.Claimed.Set = has(bitClaimed)
	if has(bitClaimed + 1) {
		v, n, err := readU32(buf[off:])
		if err != nil {
			return nil, 0, &CodecFailure{What: "delta.Claimed", Err: err}
		}
		d.Claimed.Val = v
		off += n
	}
	d.Renewals.Set = has(bitRenewals)
	if has(bitRenewals + 1) {
		v, n, err := getVarInt(buf[off:])
		if err != nil {
			return nil, 0, &CodecFailure{What: "delta.Renewals", Err: err}
		}
		d.Renewals.Val = uint32(v)
		off += n
	}
	d.Registered = optBool{Set: has(bitRegistered), Val: has(bitRegistered + 1)}
	d.Expired = optBool{Set: has(bitExpired), Val: has(bitExpired + 1)}
	d.Weak = optBool{Set: has(bitWeak), Val: has(bitWeak + 1)}

	return d, off, nil
}

// ApplyTo reverts r's fields to the pre-mutation values captured in d,
// per spec.md §4.7 "Delta apply is total: a missing field in the delta
// means no change; present fields unconditionally overwrite." Used by
// undo processing (spec.md §4 "Name Undo Bundle").
func (d *NameDelta) ApplyTo(r *NameRecord) {
	if d.Height.Set {
		r.Height = d.Height.Val
	}
	if d.Renewal.Set {
		r.Renewal = d.Renewal.Val
	}
	if d.Owner.Set {
		r.Owner = d.Owner.Val
	}
	if d.Value.Set {
		r.Value = d.Value.Val
	}
	if d.Highest.Set {
		r.Highest = d.Highest.Val
	}
	if d.Data.Set {
		r.Data = append([]byte(nil), d.Data.Val...)
	}
	if d.Transfer.Set {
		r.Transfer = d.Transfer.Val
	}
	if d.Revoked.Set {
		r.Revoked = d.Revoked.Val
	}
	if d.Claimed.Set {
		r.Claimed = d.Claimed.Val
	}
	if d.Renewals.Set {
		r.Renewals = d.Renewals.Val
	}
	if d.Registered.Set {
		r.Registered = d.Registered.Val
	}
	if d.Expired.Set {
		r.Expired = d.Expired.Val
	}
	if d.Weak.Set {
		r.Weak = d.Weak.Val
	}
}

func appendU32(buf []byte, v uint32) []byte {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], v)
	return append(buf, b[:]...)
}

func readU32(buf []byte) (uint32, int, error) {
	if len(buf) < 4 {
		return 0, 0, errShortRead("u32", 4, len(buf))
	}
	return binary.LittleEndian.Uint32(buf[:4]), 4, nil
}
