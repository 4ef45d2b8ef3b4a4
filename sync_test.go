// Copyright 2013 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package stalloc

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"
)

func TestSyncWrapperBasic(t *testing.T) {
	w := NewSyncFreeList(8, 8)
	b, err := w.Allocate(16, 8)
	require.NoError(t, err)
	require.Len(t, b, 16)
	w.Deallocate(b, 16, 8)
	require.False(t, w.IsOOM())
}

func TestSyncWrapperGuardBatchesOperations(t *testing.T) {
	w := NewSyncFreeList(8, 8)
	g := w.AcquireLock()
	fl := g.FreeList()
	idx, ok := fl.AllocateBlocks(4)
	require.True(t, ok)
	fl.DeallocateBlocks(idx, 4)
	g.Release()

	require.False(t, w.IsOOM())
}

// TestSyncWrapperConcurrentAllocDealloc hammers a shared SyncWrapper from
// many goroutines, each repeatedly allocating and freeing its own chunk.
// The region is sized so all goroutines' chunks fit at once, so every
// allocation must succeed, and the free list must end up empty again.
func TestSyncWrapperConcurrentAllocDealloc(t *testing.T) {
	const goroutines = 16
	const iterations = 200

	w := NewSyncFreeList(goroutines*4, 8)

	g, _ := errgroup.WithContext(context.Background())
	for i := 0; i < goroutines; i++ {
		g.Go(func() error {
			for j := 0; j < iterations; j++ {
				b, err := w.Allocate(32, 8)
				if err != nil {
					return err
				}
				for k := range b {
					b[k] = byte(j)
				}
				w.Deallocate(b, 32, 8)
			}
			return nil
		})
	}
	require.NoError(t, g.Wait())
	require.True(t, w.IsEmpty())
}
