// Copyright (c) 2025 Shell Reserve developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package names

import (
	"bytes"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/wire"
)

// nullOutPoint is the sentinel meaning "no owner yet" (spec.md §3: "owner
// is null outpoint until a reveal confirms"). It mirrors the conventional
// coinbase null outpoint: a zero hash paired with the maximum index.
var nullOutPoint = wire.OutPoint{
	Hash:  chainhash.Hash{},
	Index: ^uint32(0),
}

// isNullOutPoint reports whether op is the null-owner sentinel.
func isNullOutPoint(op wire.OutPoint) bool {
	return op == nullOutPoint
}

// encodeOutPoint appends op's 32-byte hash and CompactSize index to buf.
func encodeOutPoint(buf []byte, op wire.OutPoint) []byte {
	buf = append(buf, op.Hash[:]...)
	var sizeBuf [9]byte
	n := putVarInt(sizeBuf[:], uint64(op.Index))
	return append(buf, sizeBuf[:n]...)
}

// outPointEncodedSize returns the number of bytes encodeOutPoint would
// append for op.
func outPointEncodedSize(op wire.OutPoint) int {
	return chainhash.HashSize + varIntSize(uint64(op.Index))
}

// decodeOutPoint reads a hash+index outpoint from the front of buf and
// returns it along with the number of bytes consumed.
func decodeOutPoint(buf []byte) (wire.OutPoint, int, error) {
	if len(buf) < chainhash.HashSize {
		return wire.OutPoint{}, 0, errShortRead("outpoint hash", chainhash.HashSize, len(buf))
	}
	var op wire.OutPoint
	copy(op.Hash[:], buf[:chainhash.HashSize])
	idx, n, err := getVarInt(buf[chainhash.HashSize:])
	if err != nil {
		return wire.OutPoint{}, 0, err
	}
	op.Index = uint32(idx)
	return op, chainhash.HashSize + n, nil
}

// putVarInt writes val into buf (which must be large enough) using
// wire.WriteVarInt's CompactSize encoding and returns the number of
// bytes written, matching the framing the teacher's own wire-format code
// uses (privacy/confidential/transaction.go).
func putVarInt(buf []byte, val uint64) int {
	var b bytes.Buffer
	if err := wire.WriteVarInt(&b, 0, val); err != nil {
		panic(err) // bytes.Buffer never returns a write error
	}
	return copy(buf, b.Bytes())
}

// getVarInt reads a CompactSize integer from the front of buf via
// wire.ReadVarInt, returning the value and the number of bytes consumed.
func getVarInt(buf []byte) (uint64, int, error) {
	r := bytes.NewReader(buf)
	val, err := wire.ReadVarInt(r, 0)
	if err != nil {
		need := 1
		if len(buf) > 0 {
			switch buf[0] {
			case 0xfd:
				need = 3
			case 0xfe:
				need = 5
			case 0xff:
				need = 9
			}
		}
		return 0, 0, errShortRead("varint", need, len(buf))
	}
	return val, len(buf) - r.Len(), nil
}
