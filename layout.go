// Copyright 2013 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package stalloc

// Allocator is the host-level, byte-oriented interface satisfied by
// *FreeList, *SyncWrapper and *Chain. size is always in bytes; align must
// be a power of two. A size of 0 returns (and expects, on Deallocate) a
// zero-length dangling slice rather than touching the region at all.
type Allocator interface {
	Allocate(size, align int) ([]byte, error)
	AllocateZeroed(size, align int) ([]byte, error)
	Deallocate(ptr []byte, size, align int)
	Grow(ptr []byte, oldSize, newSize, align int) ([]byte, error)
	GrowZeroed(ptr []byte, oldSize, newSize, align int) ([]byte, error)
	Shrink(ptr []byte, oldSize, newSize, align int) ([]byte, error)
	AddrInBounds(ptr []byte) bool
}

var _ Allocator = (*FreeList)(nil)

func blocksFor(fl *FreeList, size int) int {
	if size == 0 {
		return 0
	}
	return divCeil(size, fl.blockSize)
}

// Allocate returns a slice of exactly size bytes, aligned to align, or
// ErrOOM if the region cannot satisfy the request. size == 0 returns a
// valid, non-nil, zero-length slice without touching the region.
func (fl *FreeList) Allocate(size, align int) ([]byte, error) {
	if size == 0 {
		return zeroSize(), nil
	}
	n := blocksFor(fl, size)
	alignBlocks := fl.blockAlignFor(align)
	idx, ok := fl.allocateAligned(n, alignBlocks)
	if !ok {
		return nil, ErrOOM
	}
	return fl.blockSliceBytes(idx, n)[:size], nil
}

// AllocateZeroed is like Allocate but the returned bytes are zeroed first.
func (fl *FreeList) AllocateZeroed(size, align int) ([]byte, error) {
	b, err := fl.Allocate(size, align)
	if err != nil {
		return nil, err
	}
	clearBytes(b)
	return b, nil
}

func clearBytes(b []byte) {
	for i := range b {
		b[i] = 0
	}
}

func (fl *FreeList) blockSliceBytes(idx, n int) []byte {
	off := idx * fl.blockSize
	return fl.data[off : off+n*fl.blockSize]
}

func (fl *FreeList) blockIndexOf(ptr []byte) int {
	off := int(uintptrOf(ptr) - uintptrOf(fl.data))
	return off / fl.blockSize
}

// Deallocate frees a slice previously returned by Allocate (or Grow /
// Shrink) of the same size and align. A size of 0 is a no-op.
func (fl *FreeList) Deallocate(ptr []byte, size, align int) {
	if size == 0 {
		return
	}
	n := blocksFor(fl, size)
	idx := fl.blockIndexOf(ptr)
	fl.DeallocateBlocks(idx, n)
}

// Grow resizes ptr from oldSize to newSize (newSize > oldSize), copying the
// first oldSize bytes if the allocation must move. Returns ErrOOM, leaving
// ptr valid and unmodified, if no room can be found anywhere in the region.
func (fl *FreeList) Grow(ptr []byte, oldSize, newSize, align int) ([]byte, error) {
	if oldSize == 0 {
		return fl.Allocate(newSize, align)
	}
	oldN := blocksFor(fl, oldSize)
	newN := blocksFor(fl, newSize)
	idx := fl.blockIndexOf(ptr)

	if newN <= oldN {
		return fl.shrinkBytes(ptr, idx, oldN, oldSize, newSize, align)
	}
	if fl.GrowInPlaceBlocks(idx, oldN, newN) {
		return fl.blockSliceBytes(idx, newN)[:newSize], nil
	}

	fresh, err := fl.Allocate(newSize, align)
	if err != nil {
		return nil, err
	}
	copy(fresh, ptr[:oldSize])
	fl.DeallocateBlocks(idx, oldN)
	return fresh, nil
}

// GrowZeroed is like Grow but zero-fills the newly added bytes.
func (fl *FreeList) GrowZeroed(ptr []byte, oldSize, newSize, align int) ([]byte, error) {
	b, err := fl.Grow(ptr, oldSize, newSize, align)
	if err != nil {
		return nil, err
	}
	clearBytes(b[oldSize:])
	return b, nil
}

// Shrink resizes ptr down to newSize bytes. It shrinks in place when the
// block's address still satisfies align; otherwise it allocates a fresh,
// properly aligned block, copies the surviving bytes, frees the old block,
// and fails (leaving ptr valid and unmodified) only if that fresh
// allocation itself cannot be satisfied. Shrinking to 0 frees ptr entirely
// and returns a zero-length slice.
func (fl *FreeList) Shrink(ptr []byte, oldSize, newSize, align int) ([]byte, error) {
	oldN := blocksFor(fl, oldSize)
	idx := fl.blockIndexOf(ptr)
	return fl.shrinkBytes(ptr, idx, oldN, oldSize, newSize, align)
}

// addrAligned reports whether block idx's address already satisfies
// align. An allocation obtained at a stronger alignment stays valid for
// any weaker one, so an over-aligned pointer is kept in place.
func (fl *FreeList) addrAligned(idx, align int) bool {
	addr := uintptrOf(fl.data) + uintptr(idx*fl.blockSize)
	return addr%uintptr(align) == 0
}

func (fl *FreeList) shrinkBytes(ptr []byte, idx, oldN, oldSize, newSize, align int) ([]byte, error) {
	if newSize == 0 {
		// A zero-size allocation never occupied a block, so there is
		// nothing to free.
		if oldN != 0 {
			fl.DeallocateBlocks(idx, oldN)
		}
		return zeroSize(), nil
	}

	if !fl.addrAligned(idx, align) {
		fresh, err := fl.Allocate(newSize, align)
		if err != nil {
			return nil, err
		}
		copy(fresh, ptr[:newSize])
		fl.DeallocateBlocks(idx, oldN)
		return fresh, nil
	}

	newN := blocksFor(fl, newSize)
	if newN < oldN {
		fl.ShrinkInPlaceBlocks(idx, oldN, newN)
	}
	return fl.blockSliceBytes(idx, newN)[:newSize], nil
}

// MallocLike adapts an Allocator to a malloc/realloc/free veneer that
// never returns an error: allocation failure yields nil, a zero-size free
// is a no-op, and a failed Realloc leaves the original allocation intact.
type MallocLike struct {
	A Allocator
}

// Malloc allocates size bytes aligned to align, returning nil on failure.
func (m MallocLike) Malloc(size, align int) []byte {
	b, err := m.A.Allocate(size, align)
	if err != nil {
		return nil
	}
	return b
}

// Realloc resizes ptr from oldSize to newSize, returning nil (and leaving
// ptr untouched) on failure, never freeing ptr itself in that case.
func (m MallocLike) Realloc(ptr []byte, oldSize, newSize, align int) []byte {
	if newSize <= oldSize {
		b, err := m.A.Shrink(ptr, oldSize, newSize, align)
		if err != nil {
			return nil
		}
		return b
	}
	b, err := m.A.Grow(ptr, oldSize, newSize, align)
	if err != nil {
		return nil
	}
	return b
}

// Free deallocates ptr of the given size; a size of 0 is a no-op.
func (m MallocLike) Free(ptr []byte, size, align int) {
	if size == 0 {
		return
	}
	m.A.Deallocate(ptr, size, align)
}
