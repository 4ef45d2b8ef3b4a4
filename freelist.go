// Copyright 2013 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package stalloc

import (
	"fmt"
	"strings"

	"github.com/cznic/mathutil"
)

// FreeList is a fixed-capacity, first-fit block allocator. It owns a single
// []byte of blockCount*blockSize bytes, carved out once at New and never
// grown or shrunk afterwards. Free blocks are tracked by an intrusive
// singly linked list kept in strictly ascending order of block index, with
// each link physically aliased onto the first 4 bytes of the free block it
// describes.
//
// A FreeList is not safe for concurrent use; wrap it in a SyncWrapper for
// that.
type FreeList struct {
	data       []byte
	blockCount int
	blockSize  int
	base       header
}

// New creates a FreeList managing blockCount blocks of blockSize bytes each.
// blockSize must be a power of two in [4, 2^29]; blockCount must be in
// [1, 65535]. New panics if either precondition is violated.
func New(blockCount, blockSize int) *FreeList {
	if blockCount <= 0 || blockCount > maxBlockCount {
		panic(fmt.Sprintf("stalloc: blockCount %d out of range [1, %d]", blockCount, maxBlockCount))
	}
	if blockSize < minBlockSize || blockSize > maxBlockSize || !isPowerOfTwo(blockSize) {
		panic(fmt.Sprintf("stalloc: blockSize %d must be a power of two in [%d, %d]", blockSize, minBlockSize, maxBlockSize))
	}

	// Block 0 must sit at a blockSize-aligned address or aligned
	// allocation could not be expressed in whole-block arithmetic. The
	// host allocator guarantees no more than word alignment, so
	// over-allocate by one block and slide.
	raw := make([]byte, blockCount*blockSize+blockSize)
	off := 0
	if rem := int(uintptrOf(raw) % uintptr(blockSize)); rem != 0 {
		off = blockSize - rem
	}

	fl := &FreeList{
		data:       raw[off : off+blockCount*blockSize : off+blockCount*blockSize],
		blockCount: blockCount,
		blockSize:  blockSize,
	}
	fl.Clear()
	return fl
}

// Clear resets the FreeList to its initial state: every block is free, and
// the region is described by a single free chunk. Any outstanding pointers
// into the region become invalid; Clear does not zero the underlying bytes
// beyond what writing the chunk header touches.
func (fl *FreeList) Clear() {
	fl.base = header{next: 0, length: 0}
	writeHeader(fl.blockAt(0), header{next: 0, length: uint16(fl.blockCount)})
}

// BlockCount returns L, the number of blocks in the region.
func (fl *FreeList) BlockCount() int { return fl.blockCount }

// BlockSize returns B, the byte size of a single block.
func (fl *FreeList) BlockSize() int { return fl.blockSize }

func (fl *FreeList) blockAt(idx int) []byte {
	off := idx * fl.blockSize
	return fl.data[off : off+fl.blockSize]
}

func (fl *FreeList) headerAt(idx int) header       { return readHeader(fl.blockAt(idx)) }
func (fl *FreeList) setHeaderAt(idx int, h header) { writeHeader(fl.blockAt(idx), h) }

// IsOOM reports whether the free list holds no free blocks at all.
func (fl *FreeList) IsOOM() bool { return fl.base.length == oomMarker }

// IsEmpty reports whether every block is free, i.e. nothing has been
// allocated since New or the last Clear.
func (fl *FreeList) IsEmpty() bool {
	if fl.IsOOM() || fl.base.next != 0 {
		return false
	}
	return int(fl.headerAt(0).length) == fl.blockCount
}

// String renders the free list as a sequence of [start..end) chunks, or
// reports that the allocator is out of memory.
func (fl *FreeList) String() string {
	if fl.IsOOM() {
		return "stalloc.FreeList{no free blocks}"
	}
	var b strings.Builder
	b.WriteString("stalloc.FreeList{")
	cur := int(fl.base.next)
	for first := true; ; first = false {
		h := fl.headerAt(cur)
		if !first {
			b.WriteString(", ")
		}
		fmt.Fprintf(&b, "[%d..%d)", cur, cur+int(h.length))
		if h.next == 0 {
			break
		}
		cur = int(h.next)
	}
	b.WriteString("}")
	return b.String()
}

// blockAlignFor converts a byte alignment into a block-index alignment:
// any block boundary is already a multiple of blockSize bytes, so an
// align <= blockSize is automatically satisfied, and an align > blockSize
// (necessarily a multiple of blockSize, both being powers of two) requires
// every align/blockSize-th block address.
func (fl *FreeList) blockAlignFor(align int) int {
	if align <= fl.blockSize {
		return 1
	}
	return align / fl.blockSize
}

func alignUp(x, align int) int {
	return (x + align - 1) / align * align
}

// alignedIndex returns the smallest block index >= idx whose block address
// is a multiple of alignBlocks*blockSize. Block 0 sits at a
// blockSize-aligned address, so the search runs in whole-block units.
func (fl *FreeList) alignedIndex(idx, alignBlocks int) int {
	if alignBlocks <= 1 {
		return idx
	}
	base := int(uintptrOf(fl.data)) / fl.blockSize
	return alignUp(base+idx, alignBlocks) - base
}

// AllocateBlocks reserves the first n contiguous free blocks and returns
// their starting index. It fails with ok == false, changing nothing, if no
// chunk is large enough.
func (fl *FreeList) AllocateBlocks(n int) (idx int, ok bool) {
	return fl.allocateAligned(n, 1)
}

// AllocateBlocksAligned is like AllocateBlocks but additionally requires
// the returned run to start at an address aligned to alignBlocks whole
// blocks.
func (fl *FreeList) AllocateBlocksAligned(n, alignBlocks int) (idx int, ok bool) {
	return fl.allocateAligned(n, alignBlocks)
}

func (fl *FreeList) allocateAligned(n, alignBlocks int) (idx int, ok bool) {
	if n <= 0 || fl.IsOOM() {
		return 0, false
	}

	prevIsBase := true
	prev := 0
	cur := int(fl.base.next)

	for {
		h := fl.headerAt(cur)
		chunkEnd := cur + int(h.length)
		p := fl.alignedIndex(cur, alignBlocks)

		if p+n <= chunkEnd {
			pad := p - cur
			back := chunkEnd - (p + n)
			next := int(h.next)

			switch {
			case pad == 0 && back == 0:
				// Consume the chunk whole. If it was the only one the
				// list is now empty; base.next == 0 alone cannot say
				// so (0 is also block 0's index), hence the marker.
				fl.setNext(prevIsBase, prev, next)
				if prevIsBase && next == 0 {
					fl.base.length = oomMarker
				}
			case pad == 0:
				fl.setHeaderAt(p+n, header{next: uint16(next), length: uint16(back)})
				fl.setNext(prevIsBase, prev, p+n)
			case back == 0:
				fl.setHeaderAt(cur, header{next: uint16(next), length: uint16(pad)})
			default:
				// Three-way split: front pad chunk, the allocation,
				// and a trailing remainder chunk.
				fl.setHeaderAt(p+n, header{next: uint16(next), length: uint16(back)})
				fl.setHeaderAt(cur, header{next: uint16(p + n), length: uint16(pad)})
			}
			return p, true
		}

		if h.next == 0 {
			return 0, false
		}
		prevIsBase = false
		prev = cur
		cur = int(h.next)
	}
}

func (fl *FreeList) setNext(prevIsBase bool, prev, next int) {
	if prevIsBase {
		fl.base.next = uint16(next)
		return
	}
	h := fl.headerAt(prev)
	h.next = uint16(next)
	fl.setHeaderAt(prev, h)
}

// DeallocateBlocks returns the n blocks starting at idx to the free list,
// merging with any free blocks immediately before or after the returned
// range.
func (fl *FreeList) DeallocateBlocks(idx, n int) {
	fl.insertFreeChunk(idx, n)
}

// insertFreeChunk is the shared locate-and-merge routine behind both
// DeallocateBlocks and ShrinkInPlaceBlocks: it finds the chunk's place in
// the ascending free list and merges it with whichever of its two
// neighbours (if any) are themselves free.
func (fl *FreeList) insertFreeChunk(idx, n int) {
	beforeIsBase := true
	before := 0
	afterExists := false
	after := 0

	if !fl.IsOOM() {
		cur := int(fl.base.next)
		if cur >= idx+n {
			afterExists = true
			after = cur
		} else {
			for {
				h := fl.headerAt(cur)
				next := int(h.next)
				if next == 0 {
					beforeIsBase = false
					before = cur
					break
				}
				if next >= idx+n {
					beforeIsBase = false
					before = cur
					afterExists = true
					after = next
					break
				}
				cur = next
			}
		}
	}

	// Does the new chunk touch its predecessor?
	mergeBack := false
	if !beforeIsBase {
		bh := fl.headerAt(before)
		mergeBack = before+int(bh.length) == idx
	}

	// Does the new chunk touch its successor?
	mergeFwd := afterExists && after == idx+n

	switch {
	case mergeBack && mergeFwd:
		bh := fl.headerAt(before)
		ah := fl.headerAt(after)
		bh.length += uint16(n) + ah.length
		bh.next = ah.next
		fl.setHeaderAt(before, bh)
	case mergeBack:
		bh := fl.headerAt(before)
		bh.length += uint16(n)
		fl.setHeaderAt(before, bh)
	case mergeFwd:
		ah := fl.headerAt(after)
		fl.setHeaderAt(idx, header{next: ah.next, length: uint16(n) + ah.length})
		fl.setNext(beforeIsBase, before, idx)
	default:
		next := 0
		if afterExists {
			next = after
		}
		fl.setHeaderAt(idx, header{next: uint16(next), length: uint16(n)})
		fl.setNext(beforeIsBase, before, idx)
	}

	fl.base.length = 0
}

// GrowInPlaceBlocks attempts to extend the allocation [idx, idx+oldN) to
// [idx, idx+newN) without moving it. It succeeds only if the blocks
// [idx+oldN, idx+newN) are currently the leading part of a free chunk
// immediately following the allocation; on failure the free list is
// untouched.
func (fl *FreeList) GrowInPlaceBlocks(idx, oldN, newN int) bool {
	need := newN - oldN
	if need <= 0 {
		return true
	}
	if fl.IsOOM() {
		return false
	}

	prevIsBase := true
	prev := 0
	cur := int(fl.base.next)
	for {
		if cur == idx+oldN {
			h := fl.headerAt(cur)
			if int(h.length) < need {
				return false
			}
			rem := int(h.length) - need
			if rem == 0 {
				fl.setNext(prevIsBase, prev, int(h.next))
				if prevIsBase && h.next == 0 {
					fl.base.length = oomMarker
				}
			} else {
				fl.setHeaderAt(cur+need, header{next: h.next, length: uint16(rem)})
				fl.setNext(prevIsBase, prev, cur+need)
			}
			return true
		}
		h := fl.headerAt(cur)
		if cur > idx+oldN || h.next == 0 {
			return false
		}
		prevIsBase = false
		prev = cur
		cur = int(h.next)
	}
}

// GrowUpToBlocks is the infallible counterpart to GrowInPlaceBlocks: it
// grows the allocation as far as it can, up to maxNewN blocks, and reports
// the block count actually achieved (always >= oldN).
func (fl *FreeList) GrowUpToBlocks(idx, oldN, maxNewN int) (achievedN int) {
	if maxNewN <= oldN || fl.IsOOM() {
		return oldN
	}

	prevIsBase := true
	prev := 0
	cur := int(fl.base.next)
	for {
		if cur == idx+oldN {
			h := fl.headerAt(cur)
			take := mathutil.Min(int(h.length), maxNewN-oldN)
			rem := int(h.length) - take
			if rem == 0 {
				fl.setNext(prevIsBase, prev, int(h.next))
				if prevIsBase && h.next == 0 {
					fl.base.length = oomMarker
				}
			} else {
				fl.setHeaderAt(cur+take, header{next: h.next, length: uint16(rem)})
				fl.setNext(prevIsBase, prev, cur+take)
			}
			return oldN + take
		}
		h := fl.headerAt(cur)
		if cur > idx+oldN || h.next == 0 {
			return oldN
		}
		prevIsBase = false
		prev = cur
		cur = int(h.next)
	}
}

// ShrinkInPlaceBlocks shrinks the allocation [idx, idx+oldN) down to
// [idx, idx+newN), freeing the vacated tail. It always succeeds.
func (fl *FreeList) ShrinkInPlaceBlocks(idx, oldN, newN int) {
	if newN >= oldN {
		return
	}
	fl.insertFreeChunk(idx+newN, oldN-newN)
}

// AddrInBounds reports whether ptr aliases a byte of this FreeList's
// backing region. Used by Chain to route deallocate/grow/shrink calls to
// the owning allocator.
func (fl *FreeList) AddrInBounds(ptr []byte) bool {
	if len(fl.data) == 0 {
		return false
	}
	base := uintptrOf(fl.data)
	p := uintptrOf(ptr)
	return p >= base && p < base+uintptr(len(fl.data))
}
