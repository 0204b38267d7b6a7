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

func rootEncoding[T any](t *testing.T, f *FST[T]) byte {
	t.Helper()
	b, err := f.store.readerAt(f.startNode).ReadByte()
	require.Nil(t, err)
	return b
}

func TestFST_ArrayArcs(t *testing.T) {
	// ten single-letter keys put ten arcs on the root, which is past the
	// threshold for the fixed-width array encoding
	labels := "abcdefghij"

	build := func(opts ...BuilderOption) (*FST[uint64], error) {
		builder, err := NewBuilder[uint64](IntOutputs{}, opts...)
		if err != nil {
			return nil, err
		}
		for i := 0; i < len(labels); i++ {
			if err := builder.Add(key(labels[i:i+1]), uint64(i+1)); err != nil {
				return nil, err
			}
		}
		return builder.Finish()
	}

	t.Run("wide nodes use the array encoding", func(t *testing.T) {
		f, err := build()
		require.Nil(t, err)
		assert.Equal(t, byte(nodeEncodingArray), rootEncoding(t, f))

		arcs, err := f.readNode(f.startNode)
		require.Nil(t, err)
		require.Len(t, arcs, len(labels))
		for i := range arcs {
			assert.Equal(t, int(labels[i]), arcs[i].label)
			assert.True(t, arcs[i].isFinal)
		}

		for i := 0; i < len(labels); i++ {
			requireAccepts(t, f, labels[i:i+1], uint64(i+1))
		}
		requireRejects(t, f, "k")
	})

	t.Run("array encoding can be disabled", func(t *testing.T) {
		f, err := build(WithAllowArrayArcs(false))
		require.Nil(t, err)
		assert.Equal(t, byte(nodeEncodingList), rootEncoding(t, f))

		for i := 0; i < len(labels); i++ {
			requireAccepts(t, f, labels[i:i+1], uint64(i+1))
		}
	})

	t.Run("both encodings produce the same automaton", func(t *testing.T) {
		array, err := build()
		require.Nil(t, err)
		list, err := build(WithAllowArrayArcs(false))
		require.Nil(t, err)

		arrayArcs, err := array.readNode(array.startNode)
		require.Nil(t, err)
		listArcs, err := list.readNode(list.startNode)
		require.Nil(t, err)
		assert.Equal(t, listArcs, arrayArcs)
	})

	t.Run("narrow nodes keep the list encoding", func(t *testing.T) {
		builder, err := NewBuilder[uint64](IntOutputs{})
		require.Nil(t, err)
		require.Nil(t, builder.Add(key("a"), 1))
		require.Nil(t, builder.Add(key("b"), 2))

		f, err := builder.Finish()
		require.Nil(t, err)
		assert.Equal(t, byte(nodeEncodingList), rootEncoding(t, f))
	})
}

func TestFST_FindArc(t *testing.T) {
	arcs := []arc[uint64]{
		{label: 'b'}, {label: 'd'}, {label: 'f'},
	}

	assert.NotNil(t, findArc(arcs, 'b'))
	assert.NotNil(t, findArc(arcs, 'd'))
	assert.NotNil(t, findArc(arcs, 'f'))
	assert.Nil(t, findArc(arcs, 'a'))
	assert.Nil(t, findArc(arcs, 'c'))
	assert.Nil(t, findArc(arcs, 'g'))

	var none []arc[uint64]
	assert.Nil(t, findArc(none, 'a'))
}

func TestFST_EndNodeAddresses(t *testing.T) {
	builder, err := NewBuilder[uint64](IntOutputs{})
	require.Nil(t, err)
	require.Nil(t, builder.Add(key("a"), 1))

	f, err := builder.Finish()
	require.Nil(t, err)

	t.Run("end node addresses decode to no arcs", func(t *testing.T) {
		arcs, err := f.readNode(nonFinalEndNode)
		require.Nil(t, err)
		assert.Empty(t, arcs)

		arcs, err = f.readNode(finalEndNode)
		require.Nil(t, err)
		assert.Empty(t, arcs)
	})

	t.Run("leaf arcs point at an end node", func(t *testing.T) {
		arcs, err := f.readNode(f.startNode)
		require.Nil(t, err)
		require.Len(t, arcs, 1)
		assert.True(t, arcs[0].isFinal)
		assert.LessOrEqual(t, arcs[0].target, finalEndNode)
	})
}
