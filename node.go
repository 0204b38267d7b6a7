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

// nodeRef is the target of a pending arc: either an already compiled node's
// address in the byte store, or another pending node that is still mutable.
// node == nil means compiled. Keeping the pending side a plain reference
// (rather than a frontier index) matters for deferred nodes: a node whose
// prune decision is still open outlives its frontier slot and stays
// reachable only through its parent's arc.
type nodeRef[T any] struct {
	addr int64
	node *unCompiledNode[T]
}

type builderArc[T any] struct {
	label           int
	target          nodeRef[T]
	isFinal         bool
	output          T
	nextFinalOutput T
}

// unCompiledNode is a pending node: seen, mutable, not yet frozen into the
// byte store. Only the current frontier (plus deferred nodes hanging off it)
// exists at any time, so these are recycled aggressively.
type unCompiledNode[T any] struct {
	numArcs    int
	arcs       []builderArc[T]
	output     T
	isFinal    bool
	inputCount int64
	// depth is this node's level below the root; it never changes for
	// frontier nodes, even across reuse
	depth int
}

func newUnCompiledNode[T any](noOutput T, depth int) *unCompiledNode[T] {
	return &unCompiledNode[T]{
		arcs:   make([]builderArc[T], 0, 1),
		output: noOutput,
		depth:  depth,
	}
}

func (n *unCompiledNode[T]) clear(noOutput T) {
	n.numArcs = 0
	n.isFinal = false
	n.output = noOutput
	n.inputCount = 0
}

// lastOutput returns the output of the most recently added arc, which must
// carry the given label.
func (n *unCompiledNode[T]) lastOutput(label int) T {
	if n.numArcs == 0 || n.arcs[n.numArcs-1].label != label {
		panic("fst: last arc label mismatch")
	}
	return n.arcs[n.numArcs-1].output
}

func (n *unCompiledNode[T]) setLastOutput(label int, output T) {
	if n.numArcs == 0 || n.arcs[n.numArcs-1].label != label {
		panic("fst: last arc label mismatch")
	}
	n.arcs[n.numArcs-1].output = output
}

func (n *unCompiledNode[T]) addArc(label int, target nodeRef[T], noOutput T) {
	arc := builderArc[T]{
		label:           label,
		target:          target,
		output:          noOutput,
		nextFinalOutput: noOutput,
	}
	if n.numArcs == len(n.arcs) {
		n.arcs = append(n.arcs, arc)
	} else {
		n.arcs[n.numArcs] = arc
	}
	n.numArcs++
}

// replaceLast installs the compiled (or deferred) target and the finality
// info onto the most recently added arc.
func (n *unCompiledNode[T]) replaceLast(label int, target nodeRef[T], nextFinalOutput T, isFinal bool) {
	if n.numArcs == 0 || n.arcs[n.numArcs-1].label != label {
		panic("fst: last arc label mismatch")
	}
	arc := &n.arcs[n.numArcs-1]
	arc.target = target
	arc.nextFinalOutput = nextFinalOutput
	arc.isFinal = isFinal
}

func (n *unCompiledNode[T]) deleteLast(label int) {
	if n.numArcs == 0 || n.arcs[n.numArcs-1].label != label {
		panic("fst: last arc label mismatch")
	}
	n.numArcs--
}

// prependOutput pushes an output prefix onto every outgoing arc, and onto
// the node's own output if a key ends here.
func (n *unCompiledNode[T]) prependOutput(prefix T, outs Outputs[T]) {
	for i := 0; i < n.numArcs; i++ {
		n.arcs[i].output = outs.Add(prefix, n.arcs[i].output)
	}
	if n.isFinal {
		n.output = outs.Add(prefix, n.output)
	}
}
