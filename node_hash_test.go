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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// pendingNode builds a pending node whose arcs all point at the reserved
// final end-node, the shape shared suffixes typically have.
func pendingNode(b *Builder[uint64], outputs map[int]uint64, labels ...int) *unCompiledNode[uint64] {
	n := newUnCompiledNode(b.noOutput, 1)
	for _, label := range labels {
		n.addArc(label, nodeRef[uint64]{addr: finalEndNode}, b.noOutput)
		n.replaceLast(label, nodeRef[uint64]{addr: finalEndNode}, b.noOutput, true)
		if out, ok := outputs[label]; ok {
			n.setLastOutput(label, out)
		}
	}
	return n
}

func TestNodeHash_Dedup(t *testing.T) {
	t.Run("identical shapes share one address", func(t *testing.T) {
		b, err := NewBuilder[uint64](IntOutputs{})
		require.Nil(t, err)

		first, err := b.dedup.add(pendingNode(b, nil, 'r', 't'))
		require.Nil(t, err)
		second, err := b.dedup.add(pendingNode(b, nil, 'r', 't'))
		require.Nil(t, err)

		assert.Equal(t, first, second)
		assert.Equal(t, 1, b.dedup.count)
		assert.Equal(t, uint64(1), b.NodeCount())
	})

	t.Run("differing labels get distinct addresses", func(t *testing.T) {
		b, err := NewBuilder[uint64](IntOutputs{})
		require.Nil(t, err)

		first, err := b.dedup.add(pendingNode(b, nil, 'r', 't'))
		require.Nil(t, err)
		second, err := b.dedup.add(pendingNode(b, nil, 'r', 'u'))
		require.Nil(t, err)

		assert.NotEqual(t, first, second)
		assert.Equal(t, 2, b.dedup.count)
	})

	t.Run("differing outputs get distinct addresses", func(t *testing.T) {
		b, err := NewBuilder[uint64](IntOutputs{})
		require.Nil(t, err)

		first, err := b.dedup.add(pendingNode(b, map[int]uint64{'r': 5}, 'r'))
		require.Nil(t, err)
		second, err := b.dedup.add(pendingNode(b, map[int]uint64{'r': 6}, 'r'))
		require.Nil(t, err)
		again, err := b.dedup.add(pendingNode(b, map[int]uint64{'r': 5}, 'r'))
		require.Nil(t, err)

		assert.NotEqual(t, first, second)
		assert.Equal(t, first, again)
	})

	t.Run("dedup survives rehashing", func(t *testing.T) {
		b, err := NewBuilder[uint64](IntOutputs{})
		require.Nil(t, err)

		addrs := make([]int64, 0, 100)
		for label := 1; label <= 100; label++ {
			addr, err := b.dedup.add(pendingNode(b, nil, label))
			require.Nil(t, err)
			addrs = append(addrs, addr)
		}

		// well past the initial capacity, so the table doubled repeatedly
		assert.Greater(t, b.dedup.table.Size(), nodeHashInitialSize)
		assert.Equal(t, 100, b.dedup.count)

		// every shape inserted before the growth still resolves to its
		// original address
		for label := 1; label <= 100; label++ {
			addr, err := b.dedup.add(pendingNode(b, nil, label))
			require.Nil(t, err)
			assert.Equal(t, addrs[label-1], addr)
		}
		assert.Equal(t, 100, b.dedup.count)
	})
}
