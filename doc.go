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

// Package fst builds compact, deterministic, acyclic finite-state
// transducers mapping sorted keys to output values, the structure term
// dictionaries and ordinal maps are stored in.
//
// Keys are added one at a time, in strictly increasing order, and the
// minimal automaton is produced in that single left-to-right pass: each new
// key freezes the suffix of the previous key that it no longer shares, and
// a dedup table collapses structurally identical suffixes onto one compiled
// node. With NoOutputs the transducer degenerates into a plain FSA.
//
//	builder, _ := fst.NewBuilder[uint64](fst.IntOutputs{})
//	builder.Add([]int{'c', 'a', 'r'}, 2)
//	builder.Add([]int{'c', 'a', 't'}, 1)
//	builder.Add([]int{'d', 'o', 'g'}, 3)
//	f, _ := builder.Finish()
//	out, ok, _ := f.Get([]int{'c', 'a', 't'}) // 1, true
//
// Optional frequency-based pruning omits paths traversed by fewer keys
// than a threshold, which trades acceptance of the full key set for a much
// smaller automaton.
package fst
