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

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the prometheus collectors a build reports into. All methods
// tolerate a nil receiver, so instrumenting a build stays optional.
type Metrics struct {
	compiledNodes prometheus.Counter
	compiledArcs  prometheus.Counter
	dedupHits     prometheus.Counter
	dedupMisses   prometheus.Counter
	storeSize     prometheus.Gauge
	buildDuration prometheus.Observer
}

// NewMetrics registers the build collectors, labeled with a name so several
// dictionaries can share a registry.
func NewMetrics(reg prometheus.Registerer, name string) *Metrics {
	labels := prometheus.Labels{"name": name}

	nodes := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "fst_compiled_nodes_total",
		Help: "Nodes frozen into the byte store",
	}, []string{"name"})
	arcs := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "fst_compiled_arcs_total",
		Help: "Arcs frozen into the byte store",
	}, []string{"name"})
	hits := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "fst_dedup_hits_total",
		Help: "Nodes that collapsed onto an existing compiled node",
	}, []string{"name"})
	misses := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "fst_dedup_misses_total",
		Help: "Nodes the dedup table saw for the first time",
	}, []string{"name"})
	size := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "fst_store_size_bytes",
		Help: "Current size of the compiled byte store",
	}, []string{"name"})
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "fst_build_duration_seconds",
		Help:    "Wall time of a complete build",
		Buckets: prometheus.ExponentialBuckets(0.001, 4, 10),
	}, []string{"name"})

	reg.MustRegister(nodes, arcs, hits, misses, size, duration)

	return &Metrics{
		compiledNodes: nodes.With(labels),
		compiledArcs:  arcs.With(labels),
		dedupHits:     hits.With(labels),
		dedupMisses:   misses.With(labels),
		storeSize:     size.With(labels),
		buildDuration: duration.With(labels),
	}
}

// builderMetrics curries the prometheus-functions just once so nothing has
// to be resolved on the hot path.
type builderMetrics struct {
	nodeCompiled func()
	arcsCompiled func(n int)
	dedupHit     func()
	dedupMiss    func()
	storeSize    func(bytes int64)
	buildDone    func(start time.Time)
}

func newBuilderMetrics(m *Metrics) *builderMetrics {
	if m == nil {
		return &builderMetrics{
			nodeCompiled: func() {},
			arcsCompiled: func(int) {},
			dedupHit:     func() {},
			dedupMiss:    func() {},
			storeSize:    func(int64) {},
			buildDone:    func(time.Time) {},
		}
	}
	return &builderMetrics{
		nodeCompiled: m.compiledNodes.Inc,
		arcsCompiled: func(n int) { m.compiledArcs.Add(float64(n)) },
		dedupHit:     m.dedupHits.Inc,
		dedupMiss:    m.dedupMisses.Inc,
		storeSize:    func(bytes int64) { m.storeSize.Set(float64(bytes)) },
		buildDone: func(start time.Time) {
			m.buildDuration.Observe(time.Since(start).Seconds())
		},
	}
}
