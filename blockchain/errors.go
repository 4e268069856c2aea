// Copyright (c) 2025 Shell Reserve developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package blockchain

import "errors"

// errRecordNotFound indicates an undo bundle named a record that the
// trie no longer holds: a live-chain MissingNode-class condition that is
// always fatal (spec.md §7).
var errRecordNotFound = errors.New("blockchain: undo target record not found in trie")
