// Copyright 2013 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package stalloc

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestChainFallsBackWhenPrimaryFull(t *testing.T) {
	primary := New(4, 4) // 16 bytes total
	fallback := New(32, 4)
	c := NewChain(primary, fallback)

	first, err := c.Allocate(16, 4)
	require.NoError(t, err)
	require.True(t, primary.AddrInBounds(first))

	second, err := c.Allocate(8, 4)
	require.NoError(t, err)
	require.False(t, primary.AddrInBounds(second))
	require.True(t, fallback.AddrInBounds(second))
}

func TestChainDeallocateRoutesByAddress(t *testing.T) {
	primary := New(4, 4)
	fallback := New(32, 4)
	c := NewChain(primary, fallback)

	first, _ := c.Allocate(16, 4) // exhausts primary
	second, _ := c.Allocate(8, 4) // falls back

	c.Deallocate(second, 8, 4)
	require.True(t, fallback.IsEmpty())

	c.Deallocate(first, 16, 4)
	require.True(t, primary.IsEmpty())
}

func TestChainGrowNeverMigratesBackToPrimary(t *testing.T) {
	primary := New(4, 4)
	fallback := New(32, 4)
	c := NewChain(primary, fallback)

	_, _ = c.Allocate(16, 4) // exhausts primary
	b, err := c.Allocate(4, 4)
	require.NoError(t, err)
	require.True(t, fallback.AddrInBounds(b))

	grown, err := c.Grow(b, 4, 12, 4)
	require.NoError(t, err)
	require.True(t, fallback.AddrInBounds(grown))
	require.False(t, primary.AddrInBounds(grown))
}

func TestChainNesting(t *testing.T) {
	a := New(2, 4)
	b := New(2, 4)
	cc := New(32, 4)
	chain := NewChain(a, b).Chain(cc)

	p1, err := chain.Allocate(8, 4) // fills a
	require.NoError(t, err)
	require.True(t, a.AddrInBounds(p1))

	p2, err := chain.Allocate(8, 4) // fills b
	require.NoError(t, err)
	require.True(t, b.AddrInBounds(p2))

	p3, err := chain.Allocate(8, 4) // falls through to cc
	require.NoError(t, err)
	require.True(t, cc.AddrInBounds(p3))
}
