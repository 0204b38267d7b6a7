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

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics(t *testing.T) {
	t.Run("instrumented build reports into the registry", func(t *testing.T) {
		reg := prometheus.NewPedanticRegistry()
		m := NewMetrics(reg, "terms")

		builder, err := NewBuilder[NoOutput](NoOutputs{}, WithMetrics(m))
		require.Nil(t, err)

		require.Nil(t, builder.Add(key("axyz"), NoOutput{}))
		require.Nil(t, builder.Add(key("bxyz"), NoOutput{}))
		require.Nil(t, builder.Add(key("cxyz"), NoOutput{}))

		f, err := builder.Finish()
		require.Nil(t, err)

		assert.Equal(t, float64(builder.NodeCount()),
			testutil.ToFloat64(m.compiledNodes))
		assert.Equal(t, float64(builder.ArcCount()),
			testutil.ToFloat64(m.compiledArcs))

		// the three shared xyz tails collapse onto one chain
		assert.Equal(t, float64(6), testutil.ToFloat64(m.dedupHits))
		assert.Equal(t, float64(4), testutil.ToFloat64(m.dedupMisses))

		assert.Greater(t, testutil.ToFloat64(m.storeSize), float64(0))
		assert.LessOrEqual(t, testutil.ToFloat64(m.storeSize), float64(f.Size()))
	})

	t.Run("uninstrumented build works", func(t *testing.T) {
		builder, err := NewBuilder[NoOutput](NoOutputs{})
		require.Nil(t, err)
		require.Nil(t, builder.Add(key("a"), NoOutput{}))
		_, err = builder.Finish()
		require.Nil(t, err)
	})
}
