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
	"sort"

	"github.com/pkg/errors"
	"github.com/willf/bloom"
)

// Addresses 0 and 1 are reserved for nodes without outgoing arcs, so they
// are never written to the store. That keeps 0 free as the empty-slot
// sentinel of the dedup table.
const (
	nonFinalEndNode = int64(0)
	finalEndNode    = int64(1)
)

const (
	arcFlagFinal          = 1 << 0
	arcFlagHasOutput      = 1 << 1
	arcFlagHasFinalOutput = 1 << 2
)

const (
	nodeEncodingList  = 0
	nodeEncodingArray = 1
)

// arrayArcsMinCount is the arc count from which a node switches to the
// fixed-width array encoding (when the layout hint allows it).
const arrayArcsMinCount = 8

// Compiled node layout
// | Offset | Len | Description                                   |
// | ------ | --- | --------------------------------------------- |
// | 0      | 1   | encoding: arc list or fixed-width arc array   |
// | 1      | dyn | uvarint arc count                             |
// | dyn    | dyn | array only: uvarint bytes per arc             |
// | dyn    | dyn | arcs; array encoding pads each to a fixed width |
//
// Each arc: flags byte, uvarint label, output and final output when
// flagged, uvarint target address.

// FST is a compiled automaton mapping sorted keys to output values. It is
// immutable once the builder returns it.
type FST[T any] struct {
	outs           Outputs[T]
	store          *bytesStore
	startNode      int64
	emptyOutput    *T
	allowArrayArcs bool
	bloom          *bloom.BloomFilter
	scratch        []byte
}

// arc is a decoded transition of a compiled node.
type arc[T any] struct {
	label           int
	isFinal         bool
	output          T
	nextFinalOutput T
	target          int64
}

func newFST[T any](outs Outputs[T], allowArrayArcs bool, blockBits uint) *FST[T] {
	f := &FST[T]{
		outs:           outs,
		store:          newBytesStore(blockBits),
		allowArrayArcs: allowArrayArcs,
	}
	// pad the reserved addresses
	f.store.writeByte(0)
	f.store.writeByte(0)
	return f
}

func (f *FST[T]) setEmptyOutput(v T) {
	if f.emptyOutput != nil {
		merged := f.outs.Merge(*f.emptyOutput, v)
		f.emptyOutput = &merged
		return
	}
	f.emptyOutput = &v
}

// addNode freezes a pending node into the store and returns its address.
// All arc targets must already be compiled.
func (f *FST[T]) addNode(node *unCompiledNode[T]) (int64, error) {
	if node.numArcs == 0 {
		if node.isFinal {
			return finalEndNode, nil
		}
		return nonFinalEndNode, nil
	}

	arcs := make([]arc[T], node.numArcs)
	for i := 0; i < node.numArcs; i++ {
		in := &node.arcs[i]
		if in.target.node != nil {
			return 0, errors.Errorf("freeze node: arc %d still has a pending target", in.label)
		}
		arcs[i] = arc[T]{
			label:           in.label,
			isFinal:         in.isFinal,
			output:          in.output,
			nextFinalOutput: in.nextFinalOutput,
			target:          in.target.addr,
		}
	}
	return f.writeArcs(arcs)
}

// writeArcs serializes one node's arc list and returns the node's address.
func (f *FST[T]) writeArcs(arcs []arc[T]) (int64, error) {
	addr := f.store.position()

	if f.allowArrayArcs && len(arcs) >= arrayArcsMinCount {
		encoded := make([][]byte, len(arcs))
		bytesPerArc := 0
		for i := range arcs {
			encoded[i] = f.encodeArc(nil, &arcs[i])
			if len(encoded[i]) > bytesPerArc {
				bytesPerArc = len(encoded[i])
			}
		}

		f.store.writeByte(nodeEncodingArray)
		f.store.writeUvarint(uint64(len(arcs)))
		f.store.writeUvarint(uint64(bytesPerArc))
		for _, e := range encoded {
			f.store.writeBytes(e)
			for pad := bytesPerArc - len(e); pad > 0; pad-- {
				f.store.writeByte(0)
			}
		}
		return addr, nil
	}

	f.store.writeByte(nodeEncodingList)
	f.store.writeUvarint(uint64(len(arcs)))
	for i := range arcs {
		f.scratch = f.encodeArc(f.scratch[:0], &arcs[i])
		f.store.writeBytes(f.scratch)
	}
	return addr, nil
}

func (f *FST[T]) encodeArc(dst []byte, a *arc[T]) []byte {
	noOutput := f.outs.Empty()

	var flags byte
	if a.isFinal {
		flags |= arcFlagFinal
	}
	hasOutput := !f.outs.Equal(a.output, noOutput)
	if hasOutput {
		flags |= arcFlagHasOutput
	}
	hasFinalOutput := !f.outs.Equal(a.nextFinalOutput, noOutput)
	if hasFinalOutput {
		flags |= arcFlagHasFinalOutput
	}

	dst = append(dst, flags)
	dst = appendUvarint(dst, uint64(a.label))
	if hasOutput {
		dst = f.outs.AppendTo(dst, a.output)
	}
	if hasFinalOutput {
		dst = f.outs.AppendTo(dst, a.nextFinalOutput)
	}
	return appendUvarint(dst, uint64(a.target))
}

func appendUvarint(dst []byte, v uint64) []byte {
	for v >= 0x80 {
		dst = append(dst, byte(v)|0x80)
		v >>= 7
	}
	return append(dst, byte(v))
}

// readNode decodes the arcs of the compiled node at addr. End-node
// addresses decode to an empty arc list.
func (f *FST[T]) readNode(addr int64) ([]arc[T], error) {
	if addr == nonFinalEndNode || addr == finalEndNode {
		return nil, nil
	}

	r := f.store.readerAt(addr)
	encoding, err := r.ReadByte()
	if err != nil {
		return nil, errors.Wrap(err, "read node encoding")
	}
	numArcs, err := r.readUvarint()
	if err != nil {
		return nil, errors.Wrap(err, "read arc count")
	}

	bytesPerArc := uint64(0)
	if encoding == nodeEncodingArray {
		if bytesPerArc, err = r.readUvarint(); err != nil {
			return nil, errors.Wrap(err, "read bytes per arc")
		}
	} else if encoding != nodeEncodingList {
		return nil, errors.Errorf("unknown node encoding %d at address %d", encoding, addr)
	}

	arcsStart := r.position()
	arcs := make([]arc[T], numArcs)
	for i := range arcs {
		if encoding == nodeEncodingArray {
			r.seek(arcsStart + int64(uint64(i)*bytesPerArc))
		}
		if err := f.readArc(r, &arcs[i]); err != nil {
			return nil, errors.Wrapf(err, "read arc %d of node %d", i, addr)
		}
	}
	return arcs, nil
}

func (f *FST[T]) readArc(r *storeReader, a *arc[T]) error {
	flags, err := r.ReadByte()
	if err != nil {
		return err
	}
	label, err := r.readUvarint()
	if err != nil {
		return err
	}

	a.label = int(label)
	a.isFinal = flags&arcFlagFinal != 0
	a.output = f.outs.Empty()
	a.nextFinalOutput = f.outs.Empty()

	if flags&arcFlagHasOutput != 0 {
		if a.output, err = f.outs.ReadFrom(r); err != nil {
			return err
		}
	}
	if flags&arcFlagHasFinalOutput != 0 {
		if a.nextFinalOutput, err = f.outs.ReadFrom(r); err != nil {
			return err
		}
	}

	target, err := r.readUvarint()
	if err != nil {
		return err
	}
	a.target = int64(target)
	return nil
}

func findArc[T any](arcs []arc[T], label int) *arc[T] {
	i := sort.Search(len(arcs), func(i int) bool {
		return arcs[i].label >= label
	})
	if i == len(arcs) || arcs[i].label != label {
		return nil
	}
	return &arcs[i]
}

// finish records the start node; the automaton is complete afterwards.
func (f *FST[T]) finish(startNode int64) {
	f.startNode = startNode
	f.store.finish()
}

// Get returns the output recorded for key. The second return value is false
// if the automaton does not accept the key.
func (f *FST[T]) Get(key []int) (T, bool, error) {
	var zero T

	if len(key) == 0 {
		if f.emptyOutput != nil {
			return *f.emptyOutput, true, nil
		}
		return zero, false, nil
	}

	output := f.outs.Empty()
	node := f.startNode
	for i, label := range key {
		arcs, err := f.readNode(node)
		if err != nil {
			return zero, false, errors.Wrap(err, "traverse")
		}
		a := findArc(arcs, label)
		if a == nil {
			return zero, false, nil
		}

		output = f.outs.Add(output, a.output)
		if i == len(key)-1 {
			if !a.isFinal {
				return zero, false, nil
			}
			return f.outs.Add(output, a.nextFinalOutput), true, nil
		}
		node = a.target
	}
	return zero, false, nil
}

// MayContain is a fast pre-check backed by the optional bloom filter. A
// false return means the key is definitely absent; true means it must be
// confirmed with Get. Without a filter it always returns true.
func (f *FST[T]) MayContain(key []int) bool {
	if f.bloom == nil {
		return true
	}
	return f.bloom.Test(encodeBloomKey(nil, key))
}

func encodeBloomKey(dst []byte, key []int) []byte {
	for _, label := range key {
		dst = appendUvarint(dst, uint64(label))
	}
	return dst
}

// Size returns the compiled automaton's byte size.
func (f *FST[T]) Size() int64 {
	return f.store.position()
}
