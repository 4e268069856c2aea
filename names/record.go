// Copyright (c) 2025 Shell Reserve developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package names

import (
	"encoding/binary"

	"github.com/btcsuite/btcd/wire"
)

// MaxNameLength is the maximum length, in bytes, of a DNS label name
// (spec.md §3).
const MaxNameLength = 63

// MaxDataLength is the maximum length, in bytes, of a name's committed
// resource-record data (spec.md §3).
const MaxDataLength = 512

// NameRecord is the full authoritative state of a name (spec.md §3). Every
// setter captures the pre-mutation value into the record's owned Delta the
// first time that field changes within a block (spec.md §4.1 "Setter
// contract"); the Delta holds no pointer back to the record.
type NameRecord struct {
	Name     []byte
	NameHash Hash

	Height   uint32
	Renewal  uint32
	Owner    wire.OutPoint
	Value    uint64
	Highest  uint64
	Data     []byte
	Transfer uint32
	Revoked  uint32
	Claimed  uint32
	Renewals uint32

	Registered bool
	Expired    bool
	Weak       bool

	delta NameDelta
}

// NewNameRecord constructs the null record for name, with NameHash cached.
// This is the record a ChainView constructs on first touch of a
// never-before-seen name (spec.md §3 "Lifecycle").
func NewNameRecord(name []byte) *NameRecord {
	r := &NameRecord{
		Name:     append([]byte(nil), name...),
		NameHash: NameHash(name),
		Owner:    nullOutPoint,
	}
	return r
}

// IsNull reports whether every field of r equals its zero value (spec.md
// §3 "Invariants").
func (r *NameRecord) IsNull() bool {
	return r.Height == 0 &&
		r.Renewal == 0 &&
		isNullOutPoint(r.Owner) &&
		r.Value == 0 &&
		r.Highest == 0 &&
		len(r.Data) == 0 &&
		r.Transfer == 0 &&
		r.Revoked == 0 &&
		r.Claimed == 0 &&
		r.Renewals == 0 &&
		!r.Registered &&
		!r.Expired &&
		!r.Weak
}

// HasDelta reports whether r has been mutated since it was loaded (spec.md
// §4.3 "hasDelta predicate").
func (r *NameRecord) HasDelta() bool {
	return !r.delta.isEmpty()
}

// Delta returns the sparse pre-mutation record accumulated so far. The
// returned value must not be mutated by the caller.
func (r *NameRecord) Delta() *NameDelta {
	return &r.delta
}

// ResetDelta clears the accumulated delta, e.g. after the owning block has
// been fully committed and its undo bundle serialized.
func (r *NameRecord) ResetDelta() {
	r.delta = NameDelta{}
}

// Clone returns a deep copy of r, including its accumulated delta.
func (r *NameRecord) Clone() *NameRecord {
	c := *r
	c.Name = append([]byte(nil), r.Name...)
	c.Data = append([]byte(nil), r.Data...)
	if r.delta.Data.Set {
		c.delta.Data.Val = append([]byte(nil), r.delta.Data.Val...)
	}
	return &c
}

// Phase returns r's phase at height h under params (spec.md §4.1).
func (r *NameRecord) Phase(h uint32, p *NameParams) Phase {
	return phaseAt(r, h, p)
}

// IsExpiredAt reports whether r is expired at height h under params
// (spec.md §4.1 "Expiration").
func (r *NameRecord) IsExpiredAt(h uint32, p *NameParams) bool {
	return isExpiredAt(r, h, p)
}

// IsWeakLockedAt reports whether r is inside its weak-proof lock-up at
// height h under params (spec.md §4.1 "Weakness").
func (r *NameRecord) IsWeakLockedAt(h uint32, p *NameParams) bool {
	return isWeakLocked(r, h, p)
}

// --- setters: each captures the pre-mutation value into the delta exactly
// once, the first time the field actually changes (spec.md §4.1). ---

// SetHeight sets the auction-open height.
func (r *NameRecord) SetHeight(h uint32) {
	if r.Height == h {
		return
	}
	if !r.delta.Height.Set {
		r.delta.Height = optU32{Set: true, Val: r.Height}
	}
	r.Height = h
}

// SetRenewal sets the last-renewal height.
func (r *NameRecord) SetRenewal(h uint32) {
	if r.Renewal == h {
		return
	}
	if !r.delta.Renewal.Set {
		r.delta.Renewal = optU32{Set: true, Val: r.Renewal}
	}
	r.Renewal = h
}

// SetOwner sets the winning UTXO.
func (r *NameRecord) SetOwner(op wire.OutPoint) {
	if r.Owner == op {
		return
	}
	if !r.delta.Owner.Set {
		r.delta.Owner = optOutpoint{Set: true, Val: r.Owner}
	}
	r.Owner = op
}

// SetValue sets the winning bid amount.
func (r *NameRecord) SetValue(v uint64) {
	if r.Value == v {
		return
	}
	if !r.delta.Value.Set {
		r.delta.Value = optU64{Set: true, Val: r.Value}
	}
	r.Value = v
}

// SetHighest sets the second-highest (Vickrey) bid.
func (r *NameRecord) SetHighest(v uint64) {
	if r.Highest == v {
		return
	}
	if !r.delta.Highest.Set {
		r.delta.Highest = optU64{Set: true, Val: r.Highest}
	}
	r.Highest = v
}

// SetData sets the committed resource-record data. Panics if len(data)
// exceeds MaxDataLength, mirroring the consensus-fatal nature of an
// oversized commit (spec.md §3 "data.length <= 512" is a hard invariant,
// not a recoverable condition at this layer).
func (r *NameRecord) SetData(data []byte) {
	if len(data) > MaxDataLength {
		panic("names: data exceeds MaxDataLength")
	}
	if bytesEqual(r.Data, data) {
		return
	}
	if !r.delta.Data.Set {
		r.delta.Data = optBytes{Set: true, Val: append([]byte(nil), r.Data...)}
	}
	r.Data = append([]byte(nil), data...)
}

// SetTransfer sets the pending-transfer height (0 means none).
func (r *NameRecord) SetTransfer(h uint32) {
	if r.Transfer == h {
		return
	}
	if !r.delta.Transfer.Set {
		r.delta.Transfer = optU32{Set: true, Val: r.Transfer}
	}
	r.Transfer = h
}

// SetRevoked sets the revocation height (0 means not revoked).
func (r *NameRecord) SetRevoked(h uint32) {
	if r.Revoked == h {
		return
	}
	if !r.delta.Revoked.Set {
		r.delta.Revoked = optU32{Set: true, Val: r.Revoked}
	}
	r.Revoked = h
}

// SetClaimed sets the claim height (0 means not claimed).
func (r *NameRecord) SetClaimed(h uint32) {
	if r.Claimed == h {
		return
	}
	if !r.delta.Claimed.Set {
		r.delta.Claimed = optU32{Set: true, Val: r.Claimed}
	}
	r.Claimed = h
}

// SetRenewals sets the successful-renewal count.
func (r *NameRecord) SetRenewals(n uint32) {
	if r.Renewals == n {
		return
	}
	if !r.delta.Renewals.Set {
		r.delta.Renewals = optU32{Set: true, Val: r.Renewals}
	}
	r.Renewals = n
}

// SetRegistered sets the has-ever-been-populated flag.
func (r *NameRecord) SetRegistered(v bool) {
	if r.Registered == v {
		return
	}
	if !r.delta.Registered.Set {
		r.delta.Registered = optBool{Set: true, Val: r.Registered}
	}
	r.Registered = v
}

// SetExpired sets the marked-expired-this-height flag.
func (r *NameRecord) SetExpired(v bool) {
	if r.Expired == v {
		return
	}
	if !r.delta.Expired.Set {
		r.delta.Expired = optBool{Set: true, Val: r.Expired}
	}
	r.Expired = v
}

// SetWeak sets the claimed-via-weak-proof flag.
func (r *NameRecord) SetWeak(v bool) {
	if r.Weak == v {
		return
	}
	if !r.delta.Weak.Set {
		r.delta.Weak = optBool{Set: true, Val: r.Weak}
	}
	r.Weak = v
}

// ResetForReopen resets r to a fresh OPENING record at height h, per
// spec.md §4.1 "Expiration": "the record is reset to a new OPENING at h
// with expired = true and prior data retained (except on revocation,
// which discards data)". Renewals and Weak are reset along with the
// bidding state they gate, since a new auction cycle begins; Registered
// is not reset (it is a lifetime "has ever had data" flag, not scoped to
// one auction).
func (r *NameRecord) ResetForReopen(h uint32) {
	data := r.Data
	if r.Revoked != 0 {
		data = nil
	}
	r.SetHeight(h)
	r.SetRenewal(0)
	r.SetOwner(nullOutPoint)
	r.SetValue(0)
	r.SetHighest(0)
	r.SetData(data)
	r.SetTransfer(0)
	r.SetRevoked(0)
	r.SetClaimed(0)
	r.SetRenewals(0)
	r.SetWeak(false)
	r.SetExpired(true)
}

func bytesEqual(a, b []byte) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// Record field-map bits (spec.md §6 "Persisted formats"): the zero-valued
// groups that most records carry (no transfer pending, never revoked,
// never claimed, ...) are omitted from the wire encoding entirely rather
// than padded out, so a freshly-opened name's record stays small. Only
// Registered/Expired/Weak are unconditional single bits, since they carry
// their value directly rather than gating a payload.
const (
	rbitOwner = iota
	rbitValue
	rbitHighest
	rbitTransfer
	rbitRevoked
	rbitClaimed
	rbitRenewals
	rbitRegistered
	rbitExpired
	rbitWeak
)

func (r *NameRecord) fieldMap() uint16 {
	var m uint16
	set := func(cond bool, bit int) {
		if cond {
			m |= 1 << uint(bit)
		}
	}
	set(!isNullOutPoint(r.Owner), rbitOwner)
	set(r.Value != 0, rbitValue)
	set(r.Highest != 0, rbitHighest)
	set(r.Transfer != 0, rbitTransfer)
	set(r.Revoked != 0, rbitRevoked)
	set(r.Claimed != 0, rbitClaimed)
	set(r.Renewals != 0, rbitRenewals)
	set(r.Registered, rbitRegistered)
	set(r.Expired, rbitExpired)
	set(r.Weak, rbitWeak)
	return m
}

// GetSize returns len(r.Encode()).
func (r *NameRecord) GetSize() int {
	size := 1 + len(r.Name) + 2 + len(r.Data) + 4 + 4 + 2
	m := r.fieldMap()
	has := func(bit int) bool { return m&(1<<uint(bit)) != 0 }
	if has(rbitOwner) {
		size += outPointEncodedSize(r.Owner)
	}
	if has(rbitValue) {
		size += varIntSize(r.Value)
	}
	if has(rbitHighest) {
		size += varIntSize(r.Highest)
	}
	if has(rbitTransfer) {
		size += 4
	}
	if has(rbitRevoked) {
		size += 4
	}
	if has(rbitClaimed) {
		size += 4
	}
	if has(rbitRenewals) {
		size += varIntSize(uint64(r.Renewals))
	}
	return size
}

// Encode serializes r's full authoritative state (not its delta), per
// spec.md §4.1 "Codec" and §6 "Persisted formats": nameLen|name|
// dataLen|data|height|renewal|fieldMap|conditional groups.
func (r *NameRecord) Encode() []byte {
	if len(r.Name) > MaxNameLength {
		panic("names: name exceeds MaxNameLength")
	}
	buf := make([]byte, 0, r.GetSize())
	buf = append(buf, byte(len(r.Name)))
	buf = append(buf, r.Name...)

	var dl [2]byte
	binary.LittleEndian.PutUint16(dl[:], uint16(len(r.Data)))
	buf = append(buf, dl[:]...)
	buf = append(buf, r.Data...)

	buf = appendU32(buf, r.Height)
	buf = appendU32(buf, r.Renewal)

	m := r.fieldMap()
	var fm [2]byte
	binary.LittleEndian.PutUint16(fm[:], m)
	buf = append(buf, fm[:]...)
	has := func(bit int) bool { return m&(1<<uint(bit)) != 0 }

	if has(rbitOwner) {
		buf = encodeOutPoint(buf, r.Owner)
	}
	if has(rbitValue) {
		var vb [9]byte
		n := putVarInt(vb[:], r.Value)
		buf = append(buf, vb[:n]...)
	}
	if has(rbitHighest) {
		var vb [9]byte
		n := putVarInt(vb[:], r.Highest)
		buf = append(buf, vb[:n]...)
	}
	if has(rbitTransfer) {
		buf = appendU32(buf, r.Transfer)
	}
	if has(rbitRevoked) {
		buf = appendU32(buf, r.Revoked)
	}
	if has(rbitClaimed) {
		buf = appendU32(buf, r.Claimed)
	}
	if has(rbitRenewals) {
		var vb [9]byte
		n := putVarInt(vb[:], uint64(r.Renewals))
		buf = append(buf, vb[:n]...)
	}
	return buf
}

// DecodeNameRecord parses a NameRecord from buf, returning the number of
// bytes consumed. The record's NameHash is recomputed from the decoded
// name; its delta starts empty, matching a record freshly loaded from the
// trie (spec.md §4.3 "getNameState").
func DecodeNameRecord(buf []byte) (*NameRecord, int, error) {
	if len(buf) < 1 {
		return nil, 0, &CodecFailure{What: "record nameLen", Err: errShortRead("record nameLen", 1, len(buf))}
	}
	nameLen := int(buf[0])
	off := 1
	if len(buf) < off+nameLen {
		return nil, 0, &CodecFailure{What: "record name", Err: errShortRead("record name", nameLen, len(buf)-off)}
	}
	name := append([]byte(nil), buf[off:off+nameLen]...)
	off += nameLen

	if len(buf) < off+2 {
		return nil, 0, &CodecFailure{What: "record dataLen", Err: errShortRead("record dataLen", 2, len(buf)-off)}
	}
	dataLen := int(binary.LittleEndian.Uint16(buf[off : off+2]))
	off += 2
	if len(buf) < off+dataLen {
		return nil, 0, &CodecFailure{What: "record data", Err: errShortRead("record data", dataLen, len(buf)-off)}
	}
	data := append([]byte(nil), buf[off:off+dataLen]...)
	off += dataLen

	height, n, err := readU32(buf[off:])
	if err != nil {
		return nil, 0, &CodecFailure{What: "record.Height", Err: err}
	}
	off += n
	renewal, n, err := readU32(buf[off:])
	if err != nil {
		return nil, 0, &CodecFailure{What: "record.Renewal", Err: err}
	}
	off += n

	if len(buf) < off+2 {
		return nil, 0, &CodecFailure{What: "record fieldMap", Err: errShortRead("record fieldMap", 2, len(buf)-off)}
	}
	m := binary.LittleEndian.Uint16(buf[off : off+2])
	off += 2
	has := func(bit int) bool { return m&(1<<uint(bit)) != 0 }

	r := &NameRecord{
		Name:     name,
		NameHash: NameHash(name),
		Height:   height,
		Renewal:  renewal,
		Data:     data,
		Owner:    nullOutPoint,
	}

	if has(rbitOwner) {
		op, n, err := decodeOutPoint(buf[off:])
		if err != nil {
			return nil, 0, &CodecFailure{What: "record.Owner", Err: err}
		}
		r.Owner = op
		off += n
	}
	if has(rbitValue) {
		v, n, err := getVarInt(buf[off:])
		if err != nil {
			return nil, 0, &CodecFailure{What: "record.Value", Err: err}
		}
		r.Value = v
		off += n
	}
	if has(rbitHighest) {
		v, n, err := getVarInt(buf[off:])
		if err != nil {
			return nil, 0, &CodecFailure{What: "record.Highest", Err: err}
		}
		r.Highest = v
		off += n
	}
	if has(rbitTransfer) {
		v, n, err := readU32(buf[off:])
		if err != nil {
			return nil, 0, &CodecFailure{What: "record.Transfer", Err: err}
		}
		r.Transfer = v
		off += n
	}
	if has(rbitRevoked) {
		v, n, err := readU32(buf[off:])
		if err != nil {
			return nil, 0, &CodecFailure{What: "record.Revoked", Err: err}
		}
		r.Revoked = v
		off += n
	}
	if has(rbitClaimed) {
		v, n, err := readU32(buf[off:])
		if err != nil {
			return nil, 0, &CodecFailure{What: "record.Claimed", Err: err}
		}
		r.Claimed = v
		off += n
	}
	if has(rbitRenewals) {
		v, n, err := getVarInt(buf[off:])
		if err != nil {
			return nil, 0, &CodecFailure{What: "record.Renewals", Err: err}
		}
		r.Renewals = uint32(v)
		off += n
	}
	r.Registered = has(rbitRegistered)
	r.Expired = has(rbitExpired)
	r.Weak = has(rbitWeak)

	return r, off, nil
}
