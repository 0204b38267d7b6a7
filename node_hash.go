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

package fst

import (
	"github.com/pkg/errors"
	"github.com/spaolacci/murmur3"

	"github.com/ordsearch/fst/packed"
)

const (
	nodeHashInitialSize = 16
	nodeHashPageSize    = 1 << 20
)

// nodeHash dedups frozen nodes: structurally identical node shapes compile
// to one physical address, which is what makes the automaton minimal. Open
// addressing with quadratic probing over a bit-packed table; slot value 0
// means empty (no real node lives at address 0).
type nodeHash[T any] struct {
	table   *packed.GrowableArray
	count   int
	mask    uint64
	b       *Builder[T]
	scratch []byte
}

func newNodeHash[T any](b *Builder[T]) *nodeHash[T] {
	return &nodeHash[T]{
		table: packed.NewGrowableArray(nodeHashInitialSize, nodeHashPageSize, 8),
		mask:  nodeHashInitialSize - 1,
		b:     b,
	}
}

// add returns the address of a compiled node structurally identical to
// node, freezing node into the store first if no such node exists yet.
func (h *nodeHash[T]) add(node *unCompiledNode[T]) (int64, error) {
	hash := h.hashPending(node)

	pos := hash & h.mask
	c := uint64(0)
	for {
		v := h.table.Get(int(pos))
		if v == 0 {
			// not seen yet: freeze & record
			addr, err := h.b.writeFrozenNode(node)
			if err != nil {
				return 0, err
			}
			h.b.metrics.dedupMiss()
			h.count++
			h.table.Set(int(pos), uint64(addr))
			// rehash at 2/3 occupancy
			if h.count > 2*h.table.Size()/3 {
				if err := h.rehash(); err != nil {
					return 0, err
				}
			}
			return addr, nil
		}

		equal, err := h.nodesEqual(node, int64(v))
		if err != nil {
			return 0, err
		}
		if equal {
			h.b.metrics.dedupHit()
			return int64(v), nil
		}

		// quadratic probe
		c++
		pos = (pos + c) & h.mask
	}
}

// nodesEqual re-reads the compiled node's arcs from the store and compares
// them field by field. A matching hash alone is never trusted.
func (h *nodeHash[T]) nodesEqual(node *unCompiledNode[T], addr int64) (bool, error) {
	arcs, err := h.b.fst.readNode(addr)
	if err != nil {
		return false, errors.Wrap(err, "dedup equality check")
	}
	if len(arcs) != node.numArcs {
		return false, nil
	}

	outs := h.b.outs
	for i := range arcs {
		pending := &node.arcs[i]
		if arcs[i].label != pending.label ||
			arcs[i].isFinal != pending.isFinal ||
			arcs[i].target != pending.target.addr ||
			!outs.Equal(arcs[i].output, pending.output) ||
			!outs.Equal(arcs[i].nextFinalOutput, pending.nextFinalOutput) {
			return false, nil
		}
	}
	return true, nil
}

func (h *nodeHash[T]) hashPending(node *unCompiledNode[T]) uint64 {
	const prime = 31

	var hash uint64
	for i := 0; i < node.numArcs; i++ {
		a := &node.arcs[i]
		hash = prime*hash + uint64(a.label)
		if t := a.target.addr; t > 0 {
			hash = prime*hash + uint64(t^(t>>32))
		}
		if !h.b.outs.Equal(a.output, h.b.noOutput) {
			hash = prime*hash + h.hashOutput(a.output)
		}
		if !h.b.outs.Equal(a.nextFinalOutput, h.b.noOutput) {
			hash = prime*hash + h.hashOutput(a.nextFinalOutput)
		}
		if a.isFinal {
			hash += 17
		}
	}
	return hash
}

// hashCompiled recomputes a node's hash from its compiled representation.
// Must agree with hashPending for structurally identical nodes.
func (h *nodeHash[T]) hashCompiled(addr int64) (uint64, error) {
	const prime = 31

	arcs, err := h.b.fst.readNode(addr)
	if err != nil {
		return 0, errors.Wrap(err, "rehash compiled node")
	}

	var hash uint64
	for i := range arcs {
		a := &arcs[i]
		hash = prime*hash + uint64(a.label)
		if t := a.target; t > 0 {
			hash = prime*hash + uint64(t^(t>>32))
		}
		if !h.b.outs.Equal(a.output, h.b.noOutput) {
			hash = prime*hash + h.hashOutput(a.output)
		}
		if !h.b.outs.Equal(a.nextFinalOutput, h.b.noOutput) {
			hash = prime*hash + h.hashOutput(a.nextFinalOutput)
		}
		if a.isFinal {
			hash += 17
		}
	}
	return hash, nil
}

func (h *nodeHash[T]) hashOutput(v T) uint64 {
	h.scratch = h.b.outs.AppendTo(h.scratch[:0], v)
	return murmur3.Sum64(h.scratch)
}

// rehash doubles the table. Hashes are recomputed from the compiled
// representation; no uncompiled node is retained after insertion.
func (h *nodeHash[T]) rehash() error {
	old := h.table
	newSize := 2 * old.Size()

	h.table = packed.NewGrowableArray(newSize, nodeHashPageSize,
		packed.BitsRequired(uint64(h.count)))
	h.mask = uint64(newSize - 1)

	for i := 0; i < old.Size(); i++ {
		addr := old.Get(i)
		if addr == 0 {
			continue
		}
		hash, err := h.hashCompiled(int64(addr))
		if err != nil {
			return err
		}

		pos := hash & h.mask
		c := uint64(0)
		for h.table.Get(int(pos)) != 0 {
			c++
			pos = (pos + c) & h.mask
		}
		h.table.Set(int(pos), addr)
	}
	return nil
}
