// Copyright 2013 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package stalloc

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"
)

// checkFreeList walks fl's free list and verifies its structural
// invariants: chunk indices strictly ascending, no two chunks adjacent,
// every chunk in bounds, and free plus live block counts summing to the
// region size.
func checkFreeList(t *testing.T, fl *FreeList, liveBlocks int) {
	t.Helper()
	if fl.IsOOM() {
		require.Equal(t, fl.blockCount, liveBlocks)
		return
	}
	free := 0
	prevEnd := -1
	cur := int(fl.base.next)
	for {
		h := fl.headerAt(cur)
		require.Greater(t, int(h.length), 0)
		require.Greater(t, cur, prevEnd)
		prevEnd = cur + int(h.length)
		require.LessOrEqual(t, prevEnd, fl.blockCount)
		free += int(h.length)
		if h.next == 0 {
			break
		}
		require.Greater(t, int(h.next), cur)
		cur = int(h.next)
	}
	require.Equal(t, fl.blockCount, free+liveBlocks)
}

func TestFreeInShuffledOrderCoalesces(t *testing.T) {
	fl := New(4, 4)
	var idx [4]int
	for i := range idx {
		j, ok := fl.AllocateBlocks(1)
		require.True(t, ok)
		require.Equal(t, i, j)
		idx[i] = j
	}
	require.True(t, fl.IsOOM())

	fl.DeallocateBlocks(idx[1], 1)
	require.Equal(t, "stalloc.FreeList{[1..2)}", fl.String())
	fl.DeallocateBlocks(idx[3], 1)
	require.Equal(t, "stalloc.FreeList{[1..2), [3..4)}", fl.String())
	fl.DeallocateBlocks(idx[0], 1)
	require.Equal(t, "stalloc.FreeList{[0..2), [3..4)}", fl.String())
	checkFreeList(t, fl, 1)

	fl.DeallocateBlocks(idx[2], 1)
	require.True(t, fl.IsEmpty())
}

func TestShrinkFullRegionThenToZero(t *testing.T) {
	fl := New(6, 4)
	b, err := fl.Allocate(24, 4)
	require.NoError(t, err)
	require.True(t, fl.IsOOM())

	b, err = fl.Shrink(b, 24, 20, 4)
	require.NoError(t, err)
	require.False(t, fl.IsOOM())
	require.Equal(t, "stalloc.FreeList{[5..6)}", fl.String())

	out, err := fl.Shrink(b, 20, 0, 4)
	require.NoError(t, err)
	require.Len(t, out, 0)
	require.True(t, fl.IsEmpty())
}

func TestShrinkMakesRoomForLaterAllocations(t *testing.T) {
	fl := New(10, 4)
	a, ok := fl.AllocateBlocks(8)
	require.True(t, ok)

	fl.ShrinkInPlaceBlocks(a, 8, 6)
	b, ok := fl.AllocateBlocks(4)
	require.True(t, ok)
	require.Equal(t, 6, b)
	require.True(t, fl.IsOOM())

	fl.ShrinkInPlaceBlocks(a, 6, 1)
	c, ok := fl.AllocateBlocks(5)
	require.True(t, ok)
	require.Equal(t, 1, c)

	fl.DeallocateBlocks(a, 1)
	fl.DeallocateBlocks(b, 4)
	fl.DeallocateBlocks(c, 5)
	require.True(t, fl.IsEmpty())
}

func TestGrowUpToTakesWholeRegion(t *testing.T) {
	fl := New(7, 4)
	idx, ok := fl.AllocateBlocks(3)
	require.True(t, ok)

	require.Equal(t, 7, fl.GrowUpToBlocks(idx, 3, 9999))
	require.True(t, fl.IsOOM())
}

func TestRepeatedGrowInPlaceFillsRegion(t *testing.T) {
	fl := New(128, 4)
	idx, ok := fl.AllocateBlocks(1)
	require.True(t, ok)

	for n := 1; n < 128; n++ {
		require.True(t, fl.GrowInPlaceBlocks(idx, n, n+1))
	}
	require.True(t, fl.IsOOM())
}

func TestChainServesOverflowFromFallback(t *testing.T) {
	primary := New(128, 4)
	fallback := New(256, 4)
	c := NewChain(primary, fallback)

	var ptrs [][]byte
	for i := 0; i < 128; i++ {
		b, err := c.Allocate(4, 4)
		require.NoError(t, err)
		require.True(t, primary.AddrInBounds(b))
		ptrs = append(ptrs, b)
	}

	extra, err := c.Allocate(4, 4)
	require.NoError(t, err)
	require.False(t, primary.AddrInBounds(extra))
	require.True(t, fallback.AddrInBounds(extra))

	c.Deallocate(extra, 4, 4)
	require.True(t, fallback.IsEmpty())

	for _, b := range ptrs {
		c.Deallocate(b, 4, 4)
	}
	require.True(t, primary.IsEmpty())
}

func TestAlignedAllocationAddresses(t *testing.T) {
	fl := New(64, 8)
	for _, align := range []int{1, 8, 16, 32, 64} {
		b, err := fl.Allocate(8, align)
		require.NoError(t, err)
		require.Zero(t, uintptrOf(b)%uintptr(align))
	}
}

func TestFailedOperationsLeaveStateUntouched(t *testing.T) {
	fl := New(8, 4)
	a, _ := fl.AllocateBlocks(3) // [0,3)
	b, _ := fl.AllocateBlocks(2) // [3,5)
	fl.DeallocateBlocks(a, 3)
	require.Equal(t, "stalloc.FreeList{[0..3), [5..8)}", fl.String())

	before := fl.String()
	_, ok := fl.AllocateBlocks(4)
	require.False(t, ok)
	require.Equal(t, before, fl.String())

	require.False(t, fl.GrowInPlaceBlocks(b, 2, 6))
	require.Equal(t, before, fl.String())
}

func TestAllocateDeallocatePairRestoresState(t *testing.T) {
	fl := New(16, 4)
	_, _ = fl.AllocateBlocks(3)
	b, _ := fl.AllocateBlocks(5)
	fl.DeallocateBlocks(b, 5)

	before := fl.String()
	c, ok := fl.AllocateBlocks(4)
	require.True(t, ok)
	fl.DeallocateBlocks(c, 4)
	require.Equal(t, before, fl.String())
}

// TestRandomOperationsPreserveInvariants drives a FreeList through a long
// pseudo-random sequence of allocations, frees, grows and shrinks,
// re-verifying the structural invariants after every step.
func TestRandomOperationsPreserveInvariants(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	fl := New(64, 8)

	type allocation struct{ idx, n int }
	var live []allocation
	liveBlocks := 0

	for step := 0; step < 4000; step++ {
		switch rng.Intn(5) {
		case 0, 1:
			n := 1 + rng.Intn(8)
			alignBlocks := 1 << rng.Intn(3)
			if idx, ok := fl.AllocateBlocksAligned(n, alignBlocks); ok {
				addr := uintptrOf(fl.data) + uintptr(idx*fl.blockSize)
				require.Zero(t, addr%uintptr(alignBlocks*fl.blockSize))
				live = append(live, allocation{idx, n})
				liveBlocks += n
			}
		case 2:
			if len(live) > 0 {
				i := rng.Intn(len(live))
				a := live[i]
				live[i] = live[len(live)-1]
				live = live[:len(live)-1]
				fl.DeallocateBlocks(a.idx, a.n)
				liveBlocks -= a.n
			}
		case 3:
			if len(live) > 0 {
				i := rng.Intn(len(live))
				want := live[i].n + rng.Intn(4)
				got := fl.GrowUpToBlocks(live[i].idx, live[i].n, want)
				require.GreaterOrEqual(t, got, live[i].n)
				require.LessOrEqual(t, got, want)
				liveBlocks += got - live[i].n
				live[i].n = got
			}
		case 4:
			if len(live) > 0 {
				i := rng.Intn(len(live))
				if live[i].n > 1 {
					newN := 1 + rng.Intn(live[i].n-1)
					fl.ShrinkInPlaceBlocks(live[i].idx, live[i].n, newN)
					liveBlocks -= live[i].n - newN
					live[i].n = newN
				}
			}
		}
		checkFreeList(t, fl, liveBlocks)
	}

	for _, a := range live {
		fl.DeallocateBlocks(a.idx, a.n)
	}
	require.True(t, fl.IsEmpty())
}
