// Copyright 2013 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package vector

// Options configure a new Buffer. The zero value is valid and selects
// DefaultInitialCapacity and DefaultAlign.
type Options struct {
	// InitialCapacity is the number of bytes reserved by New before the
	// first Append. Zero selects DefaultInitialCapacity.
	InitialCapacity int

	// Align is the byte alignment requested from the Allocator for the
	// buffer's backing allocation. Zero selects DefaultAlign. Must be a
	// power of two.
	Align int
}

// DefaultInitialCapacity and DefaultAlign are used by New when Options is
// the zero value.
const (
	DefaultInitialCapacity = 16
	DefaultAlign           = 8
)

func (o Options) withDefaults() Options {
	if o.InitialCapacity <= 0 {
		o.InitialCapacity = DefaultInitialCapacity
	}
	if o.Align <= 0 {
		o.Align = DefaultAlign
	}
	return o
}
