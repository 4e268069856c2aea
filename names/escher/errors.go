// Copyright (c) 2025 Shell Reserve developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package escher

import "fmt"

// PolicyFailure reports that an Escher message attempted to exit mode,
// exceeded the size bound, or failed its embedded proof or signature
// (spec.md §7).
type PolicyFailure struct {
	Reason string
}

func (e *PolicyFailure) Error() string {
	return fmt.Sprintf("escher: policy failure: %s", e.Reason)
}
