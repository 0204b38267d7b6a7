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
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/willf/bloom"
)

// Builder constructs a minimal FST from keys added in strictly increasing
// order, in a single pass. The automaton is written into the byte store as
// keys arrive; there is no separate minimization phase. Suffixes orphaned by
// each new key are frozen immediately, and the dedup table collapses
// structurally identical suffixes onto one compiled node.
//
// A Builder is strictly single-use and single-threaded: any error poisons
// it, and Finish is terminal.
type Builder[T any] struct {
	fst      *FST[T]
	outs     Outputs[T]
	noOutput T

	// we prune a node (and all nodes below it) if fewer than
	// minSuffixCount1 keys pass through it, or if fewer than
	// minSuffixCount2 keys pass through its parent
	minSuffixCount1          int
	minSuffixCount2          int
	doShareNonSingletonNodes bool
	shareMaxTailLength       int

	doPack                  bool
	acceptableOverheadRatio float64

	dedup *nodeHash[T]

	// frontier[i] is the pending node reached after the first i labels of
	// the key currently being inserted
	frontier  []*unCompiledNode[T]
	lastInput []int

	termCount int64
	nodeCount uint64
	arcCount  uint64

	bloomKeys *bloom.BloomFilter
	logger    logrus.FieldLogger
	metrics   *builderMetrics
	startTime time.Time

	finished bool
	err      error
}

// NewBuilder creates a builder over the given output algebra. With no
// options it builds a fully minimal, unpruned automaton.
func NewBuilder[T any](outs Outputs[T], opts ...BuilderOption) (*Builder[T], error) {
	cfg := defaultBuilderConfig()
	for _, opt := range opts {
		if err := opt(&cfg); err != nil {
			return nil, errors.Wrap(err, "apply builder option")
		}
	}

	b := &Builder[T]{
		fst:                      newFST[T](outs, cfg.allowArrayArcs, cfg.storeBlockBits),
		outs:                     outs,
		noOutput:                 outs.Empty(),
		minSuffixCount1:          cfg.minSuffixCount1,
		minSuffixCount2:          cfg.minSuffixCount2,
		doShareNonSingletonNodes: cfg.doShareNonSingletonNodes,
		shareMaxTailLength:       cfg.shareMaxTailLength,
		doPack:                   cfg.doPack,
		acceptableOverheadRatio:  cfg.acceptableOverheadRatio,
		logger:                   cfg.logger,
		metrics:                  newBuilderMetrics(cfg.metrics),
		startTime:                time.Now(),
	}

	if cfg.doShareSuffix {
		b.dedup = newNodeHash(b)
	}
	if cfg.bloomExpectedKeys > 0 {
		b.bloomKeys = bloom.NewWithEstimates(cfg.bloomExpectedKeys, cfg.bloomFPRate)
	}

	for i := 0; i < 10; i++ {
		b.frontier = append(b.frontier, newUnCompiledNode(b.noOutput, i))
	}
	return b, nil
}

// TermCount returns the number of keys added so far.
func (b *Builder[T]) TermCount() int64 {
	return b.termCount
}

// NodeCount returns the number of nodes frozen into the store so far.
func (b *Builder[T]) NodeCount() uint64 {
	return b.nodeCount
}

// ArcCount returns the number of arcs frozen into the store so far.
func (b *Builder[T]) ArcCount() uint64 {
	return b.arcCount
}

// Add inserts the next key/output pair. The key must compare strictly
// greater than the previously added key; the same key may be repeated, in
// which case outputs are combined with the algebra's Merge. The key slice is
// fully consumed and may be reused by the caller; the output value must not
// be mutated afterwards.
//
// The empty key is permitted only as the very first input.
func (b *Builder[T]) Add(key []int, output T) error {
	if b.err != nil {
		return b.err
	}
	if b.finished {
		return errors.New("add after finish")
	}
	if err := b.validateKey(key); err != nil {
		b.err = err
		return err
	}
	if err := b.add(key, output); err != nil {
		b.err = err
		return err
	}

	if b.bloomKeys != nil {
		b.bloomKeys.Add(encodeBloomKey(nil, key))
	}
	b.termCount++
	return nil
}

func (b *Builder[T]) validateKey(key []int) error {
	if compareKeys(key, b.lastInput) < 0 {
		return errors.Errorf("keys out of order: %v after %v", key, b.lastInput)
	}
	if len(key) == 0 && b.termCount > 0 {
		return errors.New("the empty key is only permitted as the very first input")
	}
	for _, label := range key {
		if label <= 0 {
			return errors.Errorf("labels must be positive, got %d", label)
		}
	}
	return nil
}

func (b *Builder[T]) add(key []int, output T) error {
	for len(b.frontier) < len(key)+1 {
		b.frontier = append(b.frontier,
			newUnCompiledNode(b.noOutput, len(b.frontier)))
	}

	if len(key) == 0 {
		// the empty key cannot be a normal path: finality lives on
		// incoming arcs and the root has none
		b.frontier[0].inputCount++
		b.frontier[0].isFinal = true
		b.fst.setEmptyOutput(output)
		return nil
	}

	// shared prefix with the previous key, counting traffic as we go
	pos := 0
	prefixStop := len(b.lastInput)
	if len(key) < prefixStop {
		prefixStop = len(key)
	}
	for {
		b.frontier[pos].inputCount++
		if pos >= prefixStop || b.lastInput[pos] != key[pos] {
			break
		}
		pos++
	}
	prefixLenPlus1 := pos + 1

	// compile the previous key's now-orphaned suffix
	if err := b.freezeTail(prefixLenPlus1); err != nil {
		return err
	}

	// extend the frontier along the divergent part of the new key
	for i := prefixLenPlus1; i <= len(key); i++ {
		b.frontier[i-1].addArc(key[i-1],
			nodeRef[T]{node: b.frontier[i]}, b.noOutput)
		b.frontier[i].inputCount++
	}

	lastIdx := len(key)
	if len(b.lastInput) != len(key) || prefixLenPlus1 != len(key)+1 {
		b.frontier[lastIdx].isFinal = true
		b.frontier[lastIdx].output = b.noOutput
	}

	// push conflicting outputs forward, only as far as needed
	for i := 1; i < prefixLenPlus1; i++ {
		node := b.frontier[i]
		parent := b.frontier[i-1]

		lastOutput := parent.lastOutput(key[i-1])
		var commonPrefix T
		if !b.outs.Equal(lastOutput, b.noOutput) {
			commonPrefix = b.outs.Common(output, lastOutput)
			wordSuffix := b.outs.Subtract(lastOutput, commonPrefix)
			node.prependOutput(wordSuffix, b.outs)
			parent.setLastOutput(key[i-1], commonPrefix)
		} else {
			commonPrefix = b.noOutput
		}
		output = b.outs.Subtract(output, commonPrefix)
	}

	if len(b.lastInput) == len(key) && prefixLenPlus1 == len(key)+1 {
		// same key repeated: combine the outputs
		b.frontier[lastIdx].output = b.outs.Merge(b.frontier[lastIdx].output, output)
	} else {
		// the divergent arc is private to this key, it carries the leftover
		b.frontier[prefixLenPlus1-1].setLastOutput(key[prefixLenPlus1-1], output)
	}

	b.lastInput = append(b.lastInput[:0], key...)
	return nil
}

// freezeTail compiles or prunes every pending node strictly below
// prefixLenPlus1, deepest first. The node at the boundary itself may stay
// pending when relative pruning leaves its fate undecided.
func (b *Builder[T]) freezeTail(prefixLenPlus1 int) error {
	downTo := prefixLenPlus1
	if downTo < 1 {
		downTo = 1
	}
	if len(b.lastInput) < downTo {
		return nil
	}

	for idx := len(b.lastInput); idx >= downTo; idx-- {
		node := b.frontier[idx]
		parent := b.frontier[idx-1]

		doPrune := false
		doCompile := false

		if node.inputCount < int64(b.minSuffixCount1) {
			doPrune = true
			doCompile = true
		} else if idx > prefixLenPlus1 {
			// relative pruning: a too-sparse parent prunes us regardless
			// of our own count. with minSuffixCount2 == 1 we keep only up
			// to the distinguished edge: once the parent's count is down
			// to 1 we are already past the divergent part.
			if parent.inputCount < int64(b.minSuffixCount2) ||
				(b.minSuffixCount2 == 1 && parent.inputCount == 1 && idx > 1) {
				doPrune = true
			}
			doCompile = true
		} else {
			// with pruning disabled we can always compile the boundary node
			doCompile = b.minSuffixCount2 == 0
		}

		if node.inputCount < int64(b.minSuffixCount2) ||
			(b.minSuffixCount2 == 1 && node.inputCount == 1 && idx > 1) {
			// not pruned itself, but too sparse to keep content: drop all
			// arcs, the node becomes a dead end
			for i := 0; i < node.numArcs; i++ {
				if t := node.arcs[i].target.node; t != nil {
					t.clear(b.noOutput)
				}
			}
			node.numArcs = 0
		}

		if doPrune {
			node.clear(b.noOutput)
			parent.deleteLast(b.lastInput[idx-1])
		} else {
			if b.minSuffixCount2 != 0 {
				if err := b.compileAllTargets(node, len(b.lastInput)-idx); err != nil {
					return err
				}
			}
			nextFinalOutput := node.output
			// dead ends are faked as final even when no key ends here:
			// traversal cannot cope with non-final states without arcs
			isFinal := node.isFinal || node.numArcs == 0

			if doCompile {
				addr, err := b.compileNode(node, 1+len(b.lastInput)-idx)
				if err != nil {
					return err
				}
				parent.replaceLast(b.lastInput[idx-1],
					nodeRef[T]{addr: addr}, nextFinalOutput, isFinal)
			} else {
				// undecided whether this node survives pruning: install
				// finality on the parent arc and keep the node pending.
				// its frontier slot is about to be reused, so it lives on
				// only through the parent's arc.
				parent.replaceLast(b.lastInput[idx-1],
					nodeRef[T]{node: node}, nextFinalOutput, isFinal)
				b.frontier[idx] = newUnCompiledNode(b.noOutput, idx)
			}
		}
	}
	return nil
}

// compileAllTargets freezes any still-pending targets of node's arcs,
// bottom-up. Deferred children without arcs are turned final first.
func (b *Builder[T]) compileAllTargets(node *unCompiledNode[T], tailLength int) error {
	for i := 0; i < node.numArcs; i++ {
		arc := &node.arcs[i]
		if arc.target.node == nil {
			continue
		}
		child := arc.target.node
		if child.numArcs == 0 {
			arc.isFinal = true
			child.isFinal = true
		}
		addr, err := b.compileNode(child, tailLength-1)
		if err != nil {
			return err
		}
		arc.target = nodeRef[T]{addr: addr}
	}
	return nil
}

// compileNode freezes node into the store, going through the dedup table
// when this node is eligible for suffix sharing. The node is cleared for
// reuse afterwards.
func (b *Builder[T]) compileNode(node *unCompiledNode[T], tailLength int) (int64, error) {
	var addr int64
	var err error

	if b.dedup != nil &&
		(b.doShareNonSingletonNodes || node.numArcs <= 1) &&
		tailLength <= b.shareMaxTailLength {
		if node.numArcs == 0 {
			// arc-less nodes freeze to a reserved address, nothing to share
			addr, err = b.writeFrozenNode(node)
		} else {
			addr, err = b.dedup.add(node)
		}
	} else {
		addr, err = b.writeFrozenNode(node)
	}
	if err != nil {
		return 0, errors.Wrap(err, "compile node")
	}

	node.clear(b.noOutput)
	return addr, nil
}

// writeFrozenNode is the single path into the store's addNode; it keeps the
// build counters and metrics in one place.
func (b *Builder[T]) writeFrozenNode(node *unCompiledNode[T]) (int64, error) {
	addr, err := b.fst.addNode(node)
	if err != nil {
		return 0, err
	}
	if addr > finalEndNode {
		b.nodeCount++
		b.arcCount += uint64(node.numArcs)
		b.metrics.nodeCompiled()
		b.metrics.arcsCompiled(node.numArcs)
		b.metrics.storeSize(b.fst.store.position())
	}
	return addr, nil
}

// Finish freezes the remaining frontier and returns the compiled automaton,
// or nil when nothing is accepted. The builder is not reusable afterwards.
func (b *Builder[T]) Finish() (*FST[T], error) {
	if b.err != nil {
		return nil, b.err
	}
	if b.finished {
		return nil, errors.New("finish called twice")
	}
	b.finished = true

	if err := b.freezeTail(0); err != nil {
		b.err = err
		return nil, err
	}

	root := b.frontier[0]
	if root.inputCount < int64(b.minSuffixCount1) ||
		root.inputCount < int64(b.minSuffixCount2) ||
		root.numArcs == 0 {
		if b.fst.emptyOutput == nil {
			return nil, nil
		}
		if b.minSuffixCount1 > 0 || b.minSuffixCount2 > 0 {
			// the empty key got pruned too
			return nil, nil
		}
	} else if b.minSuffixCount2 != 0 {
		if err := b.compileAllTargets(root, len(b.lastInput)); err != nil {
			b.err = err
			return nil, err
		}
	}

	startNode, err := b.compileNode(root, len(b.lastInput))
	if err != nil {
		b.err = err
		return nil, err
	}
	b.fst.finish(startNode)
	b.fst.bloom = b.bloomKeys

	if b.doPack {
		sizeHint := int(b.nodeCount / 4)
		if sizeHint < 10 {
			sizeHint = 10
		}
		packed, err := b.fst.pack(sizeHint, b.acceptableOverheadRatio)
		if err != nil {
			b.err = err
			return nil, errors.Wrap(err, "pack store")
		}
		b.fst = packed
	}

	b.metrics.buildDone(b.startTime)
	b.logger.WithFields(logrus.Fields{
		"action": "fst_build_finish",
		"terms":  b.termCount,
		"nodes":  b.nodeCount,
		"arcs":   b.arcCount,
		"bytes":  b.fst.Size(),
		"took":   time.Since(b.startTime),
	}).Debug("fst build finished")

	return b.fst, nil
}

func compareKeys(a, b []int) int {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	for i := 0; i < n; i++ {
		if a[i] != b[i] {
			if a[i] < b[i] {
				return -1
			}
			return 1
		}
	}
	switch {
	case len(a) < len(b):
		return -1
	case len(a) > len(b):
		return 1
	default:
		return 0
	}
}
