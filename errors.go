// Copyright 2013 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package stalloc

import "errors"

// ErrOOM is returned whenever an allocation or a grow cannot be satisfied
// because the free list holds no chunk large enough (for Grow: neither
// in place nor anywhere else in the region).
// It is the only error this package ever returns. Violating any other
// precondition of a FreeList is a programming error; New checks its
// parameters and panics, the other operations do not check theirs.
var ErrOOM = errors.New("stalloc: out of memory")
