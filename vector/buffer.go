// Copyright 2013 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package vector

import "github.com/cznic/stalloc"

// Buffer is a growable []byte backed by a stalloc.Allocator. It grows by
// doubling, the same policy bytes.Buffer uses, but every growth step goes
// through the Allocator's Grow (which may extend in place) rather than
// always allocating fresh and copying.
type Buffer struct {
	alloc stalloc.Allocator
	align int
	data  []byte // len == capacity of the live backing allocation
	n     int    // bytes actually in use, n <= len(data)
	freed bool
}

// New creates an empty Buffer drawing its backing storage from alloc.
func New(alloc stalloc.Allocator, opts Options) (*Buffer, error) {
	opts = opts.withDefaults()
	data, err := alloc.Allocate(opts.InitialCapacity, opts.Align)
	if err != nil {
		return nil, err
	}
	return &Buffer{alloc: alloc, align: opts.Align, data: data}, nil
}

// Len returns the number of bytes currently in the buffer.
func (b *Buffer) Len() int { return b.n }

// Cap returns the size of the current backing allocation.
func (b *Buffer) Cap() int { return len(b.data) }

// Bytes returns the buffer's contents. The slice is valid until the next
// Append or Close.
func (b *Buffer) Bytes() []byte { return b.data[:b.n] }

// Append appends p to the buffer, growing the backing allocation (by
// doubling, at minimum enough to fit p) if needed.
func (b *Buffer) Append(p []byte) error {
	if b.freed {
		panic("vector: Append on a closed Buffer")
	}
	need := b.n + len(p)
	if need > len(b.data) {
		if err := b.grow(need); err != nil {
			return err
		}
	}
	copy(b.data[b.n:need], p)
	b.n = need
	return nil
}

func (b *Buffer) grow(need int) error {
	newCap := len(b.data) * 2
	if newCap < need {
		newCap = need
	}
	grown, err := b.alloc.Grow(b.data, len(b.data), newCap, b.align)
	if err != nil {
		return err
	}
	b.data = grown
	return nil
}

// Reset empties the buffer without releasing its backing allocation.
func (b *Buffer) Reset() { b.n = 0 }

// ShrinkToFit releases any backing capacity beyond what's currently used.
// Shrinking to the same alignment the buffer was allocated at never fails,
// so the error from Shrink is not expected in practice; if it somehow
// occurs, the buffer keeps its current (over-sized) backing allocation.
func (b *Buffer) ShrinkToFit() {
	if b.n == len(b.data) {
		return
	}
	if shrunk, err := b.alloc.Shrink(b.data, len(b.data), b.n, b.align); err == nil {
		b.data = shrunk
	}
}

// Close returns the buffer's backing allocation to its allocator. After
// Close, the Buffer must not be used again.
func (b *Buffer) Close() {
	if b.freed {
		return
	}
	b.alloc.Deallocate(b.data, len(b.data), b.align)
	b.freed = true
	b.data = nil
}
