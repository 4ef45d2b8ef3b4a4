// Copyright 2013 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package stalloc

// Chain composes two Allocators, A and B: A is always tried first, and B is
// used as a fallback once A is exhausted. Chain never takes ownership of
// B, which typically outlives, and is typically shared by, several chains.
//
// Deallocate, Grow and Shrink route to whichever of A or B owns the
// pointer, decided by AddrInBounds. An allocation that has fallen back to
// B is never migrated back into A even if A later frees up room: growing
// or shrinking it always stays routed to B. This avoids the copy-thrash
// that would follow from repeatedly bouncing one allocation between two
// backing stores.
type Chain struct {
	a Allocator
	b Allocator
}

var _ Allocator = (*Chain)(nil)

// NewChain returns a Chain trying a before falling back to b.
func NewChain(a, b Allocator) *Chain {
	return &Chain{a: a, b: b}
}

// Chain returns a new Chain trying c first and falling back to next,
// letting chains be built up left-to-right: NewChain(x, y).Chain(z) tries
// x, then y, then z.
func (c *Chain) Chain(next Allocator) *Chain {
	return NewChain(c, next)
}

// AddrInBounds reports whether ptr belongs to either allocator in the
// chain, letting a Chain itself be nested inside another Chain.
func (c *Chain) AddrInBounds(ptr []byte) bool {
	return c.a.AddrInBounds(ptr) || c.b.AddrInBounds(ptr)
}

func (c *Chain) Allocate(size, align int) ([]byte, error) {
	if b, err := c.a.Allocate(size, align); err == nil {
		return b, nil
	}
	return c.b.Allocate(size, align)
}

func (c *Chain) AllocateZeroed(size, align int) ([]byte, error) {
	if b, err := c.a.AllocateZeroed(size, align); err == nil {
		return b, nil
	}
	return c.b.AllocateZeroed(size, align)
}

func (c *Chain) Deallocate(ptr []byte, size, align int) {
	if c.a.AddrInBounds(ptr) {
		c.a.Deallocate(ptr, size, align)
		return
	}
	c.b.Deallocate(ptr, size, align)
}

// Grow grows ptr in place if possible, else reallocates -- from A if ptr
// belongs to A and A has room, otherwise from B, copying and freeing the
// old allocation on migration. An allocation already owned by B never
// migrates back to A.
func (c *Chain) Grow(ptr []byte, oldSize, newSize, align int) ([]byte, error) {
	if c.a.AddrInBounds(ptr) {
		if grown, err := c.a.Grow(ptr, oldSize, newSize, align); err == nil {
			return grown, nil
		}
		fresh, err := c.b.Allocate(newSize, align)
		if err != nil {
			return nil, err
		}
		copy(fresh, ptr[:oldSize])
		c.a.Deallocate(ptr, oldSize, align)
		return fresh, nil
	}
	return c.b.Grow(ptr, oldSize, newSize, align)
}

func (c *Chain) GrowZeroed(ptr []byte, oldSize, newSize, align int) ([]byte, error) {
	b, err := c.Grow(ptr, oldSize, newSize, align)
	if err != nil {
		return nil, err
	}
	clearBytes(b[oldSize:])
	return b, nil
}

// Shrink shrinks ptr in place if owned by A and A can do so, else
// reallocates from B the same way Grow does; shrinking an allocation
// already owned by B never migrates it back to A.
func (c *Chain) Shrink(ptr []byte, oldSize, newSize, align int) ([]byte, error) {
	if c.a.AddrInBounds(ptr) {
		if shrunk, err := c.a.Shrink(ptr, oldSize, newSize, align); err == nil {
			return shrunk, nil
		}
		fresh, err := c.b.Allocate(newSize, align)
		if err != nil {
			return nil, err
		}
		copy(fresh, ptr[:newSize])
		c.a.Deallocate(ptr, oldSize, align)
		return fresh, nil
	}
	return c.b.Shrink(ptr, oldSize, newSize, align)
}
