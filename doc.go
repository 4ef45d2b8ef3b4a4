// Copyright 2013 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package stalloc is a fixed-capacity, embedded free-list allocator.
//
// A FreeList manages L fixed-size blocks of B bytes each, carved out of a
// single []byte allocated once at construction time. After construction the
// allocator never grows, never shrinks and never requests memory from the
// host again: every Allocate, Grow and Shrink call is satisfied out of the
// region it was given at New, or fails with ErrOOM.
//
// Free blocks are tracked with an intrusive singly linked list: the first
// four bytes of the first block of every free chunk double as the chunk
// header, so the
// free list itself costs no extra storage. Allocation uses first fit;
// deallocation locates the correct insertion point and merges with
// neighbouring free blocks, forwards and backwards.
//
// SyncWrapper adds a mutex around a FreeList for concurrent use. Chain
// composes two Allocators so that a small, fast FreeList can fall back to a
// larger or different allocator once it is exhausted.
package stalloc
