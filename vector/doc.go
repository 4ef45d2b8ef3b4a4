// Copyright 2013 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

/*

Package vector implements a small growable byte buffer built directly on a
stalloc.Allocator: a Buffer is what you get if you push bytes into a
bytes.Buffer whose backing store is a fixed-capacity block allocator
instead of the heap.

A Buffer never reads or writes bytes the caller didn't put there; it only
manages when to grow its own backing allocation and, on Close, returns it
to the allocator. Close must be called exactly once, and Append after
Close is a programming error.

	WARNING: A Buffer is not safe for concurrent use; pair it with a
	stalloc.SyncWrapper-backed Allocator if multiple goroutines need a
	consistent view of the same backing allocator, and hold your own
	lock around the Buffer itself.

*/
package vector
