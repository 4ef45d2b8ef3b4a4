// Copyright 2013 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Stalloc chain demo: allocate and free through a small FreeList chained
// to a larger fallback, logging which allocator actually served each
// request.
package main

import (
	"flag"
	"fmt"
	"log"

	"github.com/cznic/stalloc"
)

var (
	primaryBlocks  = flag.Int("primary-blocks", 8, "block count of the primary allocator")
	fallbackBlocks = flag.Int("fallback-blocks", 256, "block count of the fallback allocator")
	blockSize      = flag.Int("block-size", 8, "byte size of a block")
	requests       = flag.Int("requests", 40, "number of allocations to perform")
	requestSize    = flag.Int("request-size", 8, "byte size of each allocation")
)

func main() {
	log.SetFlags(log.Flags() | log.Lshortfile)
	flag.Parse()

	primary := stalloc.New(*primaryBlocks, *blockSize)
	fallback := stalloc.New(*fallbackBlocks, *blockSize)
	chain := stalloc.NewChain(primary, fallback)

	var live [][]byte
	for i := 0; i < *requests; i++ {
		b, err := chain.Allocate(*requestSize, *blockSize)
		if err != nil {
			log.Fatalf("request %d: %v", i, err)
		}
		owner := "fallback"
		if primary.AddrInBounds(b) {
			owner = "primary"
		}
		fmt.Printf("request %3d: %d bytes served by %s\n", i, *requestSize, owner)
		live = append(live, b)
	}

	for _, b := range live {
		chain.Deallocate(b, *requestSize, *blockSize)
	}
	fmt.Println("all allocations freed")
}
