// Copyright (c) 2025 Shell Reserve developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package names

import "fmt"

// CodecFailure reports that a name record, delta, or undo bundle failed
// to decode or failed its round-trip validation (spec.md §7).
type CodecFailure struct {
	// What names the structure that failed to decode (e.g. "record",
	// "delta", "undo bundle").
	What string
	// Err is the underlying decode error, if any.
	Err error
}

func (e *CodecFailure) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("names: codec failure decoding %s: %v", e.What, e.Err)
	}
	return fmt.Sprintf("names: codec failure decoding %s", e.What)
}

func (e *CodecFailure) Unwrap() error { return e.Err }
