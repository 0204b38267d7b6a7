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

import "github.com/pkg/errors"

// pack rewrites the whole store into a fresh one. Nodes are renumbered in
// post-order from the start node, so bytes left behind during the build
// (nodes written before a structurally identical one was found, pruned
// leftovers) are dropped and addresses shrink. sizeHint pre-sizes the
// address translation table; acceptableOverheadRatio widens it to trade
// rehashing against memory.
func (f *FST[T]) pack(sizeHint int, acceptableOverheadRatio float64) (*FST[T], error) {
	out := newFST[T](f.outs, f.allowArrayArcs, f.store.blockBits)
	out.emptyOutput = f.emptyOutput
	out.bloom = f.bloom

	capacity := sizeHint
	if acceptableOverheadRatio > 0 {
		capacity = int(float64(capacity) * (1 + acceptableOverheadRatio))
	}
	translate := make(map[int64]int64, capacity)

	var walk func(addr int64) (int64, error)
	walk = func(addr int64) (int64, error) {
		if addr == nonFinalEndNode || addr == finalEndNode {
			return addr, nil
		}
		if newAddr, ok := translate[addr]; ok {
			return newAddr, nil
		}

		arcs, err := f.readNode(addr)
		if err != nil {
			return 0, errors.Wrapf(err, "read node %d", addr)
		}
		for i := range arcs {
			newTarget, err := walk(arcs[i].target)
			if err != nil {
				return 0, err
			}
			arcs[i].target = newTarget
		}

		newAddr, err := out.writeArcs(arcs)
		if err != nil {
			return 0, errors.Wrapf(err, "rewrite node %d", addr)
		}
		translate[addr] = newAddr
		return newAddr, nil
	}

	startNode, err := walk(f.startNode)
	if err != nil {
		return nil, err
	}
	out.finish(startNode)
	return out, nil
}
