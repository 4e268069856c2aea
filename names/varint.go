// Copyright (c) 2025 Shell Reserve developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package names

import (
	"fmt"

	"github.com/btcsuite/btcd/wire"
)

// varIntSize returns the number of bytes putVarInt would emit for val,
// the classic Bitcoin CompactSize encoding used throughout the teacher's
// own wire-format code (e.g. privacy/confidential/transaction.go).
func varIntSize(val uint64) int {
	return wire.VarIntSerializeSize(val)
}

// errShortRead is returned by decoders when the input buffer is truncated.
func errShortRead(what string, need, have int) error {
	return fmt.Errorf("names: short read decoding %s: need %d bytes, have %d", what, need, have)
}
