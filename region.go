// Copyright 2013 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package stalloc

import (
	"encoding/binary"
	"unsafe"
)

const (
	// minBlockSize and maxBlockSize bound B, the byte size of a single
	// block. B must be a power of two; the lower bound leaves room for a
	// 4-byte header to be aliased onto a free block.
	minBlockSize = headerSize
	maxBlockSize = 1 << 29

	// maxBlockCount bounds L, the number of blocks in a region: block
	// indices and header.next/header.length are 16-bit, and the top value
	// is reserved as the base header's OOM marker.
	maxBlockCount = 1<<16 - 1

	// oomMarker is written to the base header's length field if and only
	// if the free list is empty. It can never collide with a genuine
	// chunk length on the base header because the base never holds a real
	// chunk; ordinary free chunks store their own length in their own
	// header, not the base's.
	oomMarker = 0xFFFF

	headerSize = 4
)

// header is the 4-byte record aliased onto the first bytes of a free block,
// or held out-of-band for the list's base anchor.
type header struct {
	next   uint16
	length uint16
}

func readHeader(b []byte) header {
	return header{
		next:   binary.LittleEndian.Uint16(b[0:2]),
		length: binary.LittleEndian.Uint16(b[2:4]),
	}
}

func writeHeader(b []byte, h header) {
	binary.LittleEndian.PutUint16(b[0:2], h.next)
	binary.LittleEndian.PutUint16(b[2:4], h.length)
}

// isPowerOfTwo reports whether n is a positive power of two.
func isPowerOfTwo(n int) bool {
	return n > 0 && n&(n-1) == 0
}

// divCeil returns ceil(a/b) for positive a, b.
func divCeil(a, b int) int {
	return (a + b - 1) / b
}

// zerobase is the shared backing for every zero-size allocation, the same
// convention the Go runtime uses for zero-byte mallocs. The resulting
// slice has length and capacity 0 and is never written through.
var zerobase byte

func zeroSize() []byte {
	return unsafe.Slice(&zerobase, 0)
}

// uintptrOf returns the address of a slice's first byte, or 0 for a
// zero-capacity slice. Apart from zeroSize's unsafe.Slice, this package
// uses unsafe only for address arithmetic.
func uintptrOf(b []byte) uintptr {
	if cap(b) == 0 {
		return 0
	}
	return uintptr(unsafe.Pointer(&b[:1][0]))
}
