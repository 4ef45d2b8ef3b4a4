// Copyright 2013 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package stalloc

import "sync"

// SyncWrapper serializes access to a FreeList with a single big lock:
// every exported method except AcquireLock locks, calls straight through
// to the wrapped FreeList, and unlocks. AcquireLock returns with the lock
// held; Guard.Release unlocks it.
type SyncWrapper struct {
	bkl sync.Mutex
	fl  *FreeList
}

var _ Allocator = (*SyncWrapper)(nil)

// NewSync wraps fl for concurrent use. fl must not be used directly, or by
// any other wrapper, again.
func NewSync(fl *FreeList) *SyncWrapper {
	return &SyncWrapper{fl: fl}
}

// NewSyncFreeList is a convenience constructor combining New and NewSync.
func NewSyncFreeList(blockCount, blockSize int) *SyncWrapper {
	return NewSync(New(blockCount, blockSize))
}

// Guard holds the lock for a SyncWrapper across several operations,
// avoiding one lock/unlock pair per call when a caller needs to batch
// several allocator operations atomically. Release must be called exactly
// once.
type Guard struct {
	w  *SyncWrapper
	fl *FreeList
}

// AcquireLock locks w and returns a Guard giving direct, unsynchronized
// access to the underlying FreeList until Release is called.
func (w *SyncWrapper) AcquireLock() *Guard {
	w.bkl.Lock()
	return &Guard{w: w, fl: w.fl}
}

// FreeList returns the guarded FreeList. Valid only until Release.
func (g *Guard) FreeList() *FreeList { return g.fl }

// Release unlocks the SyncWrapper this guard was acquired from.
func (g *Guard) Release() {
	g.w.bkl.Unlock()
	g.fl = nil
}

func (w *SyncWrapper) Allocate(size, align int) ([]byte, error) {
	w.bkl.Lock()
	defer w.bkl.Unlock()
	return w.fl.Allocate(size, align)
}

func (w *SyncWrapper) AllocateZeroed(size, align int) ([]byte, error) {
	w.bkl.Lock()
	defer w.bkl.Unlock()
	return w.fl.AllocateZeroed(size, align)
}

func (w *SyncWrapper) Deallocate(ptr []byte, size, align int) {
	w.bkl.Lock()
	defer w.bkl.Unlock()
	w.fl.Deallocate(ptr, size, align)
}

func (w *SyncWrapper) Grow(ptr []byte, oldSize, newSize, align int) ([]byte, error) {
	w.bkl.Lock()
	defer w.bkl.Unlock()
	return w.fl.Grow(ptr, oldSize, newSize, align)
}

func (w *SyncWrapper) GrowZeroed(ptr []byte, oldSize, newSize, align int) ([]byte, error) {
	w.bkl.Lock()
	defer w.bkl.Unlock()
	return w.fl.GrowZeroed(ptr, oldSize, newSize, align)
}

func (w *SyncWrapper) Shrink(ptr []byte, oldSize, newSize, align int) ([]byte, error) {
	w.bkl.Lock()
	defer w.bkl.Unlock()
	return w.fl.Shrink(ptr, oldSize, newSize, align)
}

func (w *SyncWrapper) AddrInBounds(ptr []byte) bool {
	w.bkl.Lock()
	defer w.bkl.Unlock()
	return w.fl.AddrInBounds(ptr)
}

// IsOOM reports whether the wrapped FreeList currently holds no free
// blocks.
func (w *SyncWrapper) IsOOM() bool {
	w.bkl.Lock()
	defer w.bkl.Unlock()
	return w.fl.IsOOM()
}

// Clear resets the wrapped FreeList, as FreeList.Clear.
func (w *SyncWrapper) Clear() {
	w.bkl.Lock()
	defer w.bkl.Unlock()
	w.fl.Clear()
}

// IsEmpty reports whether every block of the wrapped FreeList is free.
func (w *SyncWrapper) IsEmpty() bool {
	w.bkl.Lock()
	defer w.bkl.Unlock()
	return w.fl.IsEmpty()
}

// AllocateBlocks reserves n contiguous blocks, as FreeList.AllocateBlocks.
func (w *SyncWrapper) AllocateBlocks(n int) (idx int, ok bool) {
	w.bkl.Lock()
	defer w.bkl.Unlock()
	return w.fl.AllocateBlocks(n)
}

// AllocateBlocksAligned reserves n contiguous blocks at an aligned
// address, as FreeList.AllocateBlocksAligned.
func (w *SyncWrapper) AllocateBlocksAligned(n, alignBlocks int) (idx int, ok bool) {
	w.bkl.Lock()
	defer w.bkl.Unlock()
	return w.fl.AllocateBlocksAligned(n, alignBlocks)
}

// DeallocateBlocks frees n blocks starting at idx, as
// FreeList.DeallocateBlocks.
func (w *SyncWrapper) DeallocateBlocks(idx, n int) {
	w.bkl.Lock()
	defer w.bkl.Unlock()
	w.fl.DeallocateBlocks(idx, n)
}

// GrowInPlaceBlocks extends an allocation without moving it, as
// FreeList.GrowInPlaceBlocks.
func (w *SyncWrapper) GrowInPlaceBlocks(idx, oldN, newN int) bool {
	w.bkl.Lock()
	defer w.bkl.Unlock()
	return w.fl.GrowInPlaceBlocks(idx, oldN, newN)
}

// GrowUpToBlocks extends an allocation as far as possible, as
// FreeList.GrowUpToBlocks.
func (w *SyncWrapper) GrowUpToBlocks(idx, oldN, maxNewN int) (achievedN int) {
	w.bkl.Lock()
	defer w.bkl.Unlock()
	return w.fl.GrowUpToBlocks(idx, oldN, maxNewN)
}

// ShrinkInPlaceBlocks shrinks an allocation in place, as
// FreeList.ShrinkInPlaceBlocks.
func (w *SyncWrapper) ShrinkInPlaceBlocks(idx, oldN, newN int) {
	w.bkl.Lock()
	defer w.bkl.Unlock()
	w.fl.ShrinkInPlaceBlocks(idx, oldN, newN)
}
