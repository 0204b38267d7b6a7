//                           _       _
// __      _____  __ ___   ___  __ _| |_ ___
// \ \ /\ / / _ \/ _` \ \ / / |/ _` | __/ _ \
//  \ V  V /  __/ (_| |\ V /| | (_| | ||  __/
//   \_/\_/ \___|\__,_| \_/ |_|\__,_|\__\___|
//
//  Copyright © 2016 - 2024 Weaviate B.V. All rights reserved.
//
//  CONTACT: hello@weaviate.io
//

// Package packed provides a paged, bit-packed array of unsigned values.
// Values are stored at the smallest bit width that fits them, per page, so
// a table of mostly-small values stays small even when a few values are
// large.
package packed

import "math/bits"

// GrowableArray is a fixed-size array of uint64 values. Each page packs its
// values at its own bit width, which widens on demand when a value doesn't
// fit. Pages are allocated on first write; an untouched index reads as 0.
type GrowableArray struct {
	pages     []*page
	size      int
	pageSize  int
	pageShift uint
	pageMask  int
	startBits uint8
}

type page struct {
	bits  uint8
	size  int
	words []uint64
}

// NewGrowableArray creates an array of the given logical size. pageSize must
// be a power of two. startBits is the initial bit width of new pages.
func NewGrowableArray(size, pageSize int, startBits uint8) *GrowableArray {
	if pageSize <= 0 || pageSize&(pageSize-1) != 0 {
		panic("packed: page size must be a power of two")
	}
	if startBits == 0 || startBits > 64 {
		panic("packed: start bits must be in [1, 64]")
	}

	numPages := (size + pageSize - 1) / pageSize
	return &GrowableArray{
		pages:     make([]*page, numPages),
		size:      size,
		pageSize:  pageSize,
		pageShift: uint(bits.TrailingZeros(uint(pageSize))),
		pageMask:  pageSize - 1,
		startBits: startBits,
	}
}

func (g *GrowableArray) Size() int {
	return g.size
}

func (g *GrowableArray) Get(idx int) uint64 {
	p := g.pages[idx>>g.pageShift]
	if p == nil {
		return 0
	}
	return p.get(idx & g.pageMask)
}

func (g *GrowableArray) Set(idx int, v uint64) {
	pageIdx := idx >> g.pageShift
	p := g.pages[pageIdx]
	if p == nil {
		size := g.pageSize
		if rem := g.size - pageIdx*g.pageSize; rem < size {
			size = rem
		}
		p = newPage(size, g.startBits)
		g.pages[pageIdx] = p
	}
	if required := BitsRequired(v); required > p.bits {
		p.grow(required)
	}
	p.set(idx&g.pageMask, v)
}

// BitsRequired returns the number of bits needed to represent v, at least 1.
func BitsRequired(v uint64) uint8 {
	if v == 0 {
		return 1
	}
	return uint8(bits.Len64(v))
}

func newPage(size int, bits uint8) *page {
	return &page{
		bits:  bits,
		size:  size,
		words: make([]uint64, wordsFor(size, bits)),
	}
}

func wordsFor(size int, bits uint8) int {
	return (size*int(bits) + 63) / 64
}

func (p *page) mask() uint64 {
	if p.bits == 64 {
		return ^uint64(0)
	}
	return (uint64(1) << p.bits) - 1
}

func (p *page) get(i int) uint64 {
	bitPos := uint64(i) * uint64(p.bits)
	word := int(bitPos >> 6)
	shift := uint(bitPos & 63)

	v := p.words[word] >> shift
	if shift+uint(p.bits) > 64 {
		v |= p.words[word+1] << (64 - shift)
	}
	return v & p.mask()
}

func (p *page) set(i int, v uint64) {
	bitPos := uint64(i) * uint64(p.bits)
	word := int(bitPos >> 6)
	shift := uint(bitPos & 63)
	m := p.mask()

	p.words[word] = p.words[word]&^(m<<shift) | v<<shift
	if shift+uint(p.bits) > 64 {
		overflow := shift + uint(p.bits) - 64
		overflowMask := (uint64(1) << overflow) - 1
		p.words[word+1] = p.words[word+1]&^overflowMask | v>>(64-shift)
	}
}

// grow widens the page to the new bit width, repacking every value.
func (p *page) grow(bits uint8) {
	old := *p
	p.bits = bits
	p.words = make([]uint64, wordsFor(p.size, bits))
	for i := 0; i < p.size; i++ {
		p.set(i, old.get(i))
	}
}
