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
	"io"
	"math"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

type builderConfig struct {
	minSuffixCount1          int
	minSuffixCount2          int
	doShareSuffix            bool
	doShareNonSingletonNodes bool
	shareMaxTailLength       int
	doPack                   bool
	acceptableOverheadRatio  float64
	allowArrayArcs           bool
	storeBlockBits           uint
	logger                   logrus.FieldLogger
	metrics                  *Metrics
	bloomExpectedKeys        uint
	bloomFPRate              float64
}

func defaultBuilderConfig() builderConfig {
	logger := logrus.New()
	logger.SetOutput(io.Discard)

	return builderConfig{
		doShareSuffix:            true,
		doShareNonSingletonNodes: true,
		shareMaxTailLength:       math.MaxInt32,
		allowArrayArcs:           true,
		storeBlockBits:           15,
		logger:                   logger,
	}
}

type BuilderOption func(cfg *builderConfig) error

// WithPruning sets the two frequency thresholds. A node is pruned when fewer
// than minSuffixCount1 keys pass through it, or when fewer than
// minSuffixCount2 keys pass through its parent. Zero disables the respective
// threshold; a pruned automaton is no longer guaranteed minimal.
func WithPruning(minSuffixCount1, minSuffixCount2 int) BuilderOption {
	return func(cfg *builderConfig) error {
		if minSuffixCount1 < 0 || minSuffixCount2 < 0 {
			return errors.Errorf("pruning thresholds must not be negative, got %d/%d",
				minSuffixCount1, minSuffixCount2)
		}
		cfg.minSuffixCount1 = minSuffixCount1
		cfg.minSuffixCount2 = minSuffixCount2
		return nil
	}
}

// WithSuffixSharing toggles the dedup table. Without it the automaton is a
// trie-shaped transducer: still correct, but not minimal.
func WithSuffixSharing(enabled bool) BuilderOption {
	return func(cfg *builderConfig) error {
		cfg.doShareSuffix = enabled
		return nil
	}
}

// WithShareNonSingletonNodes controls whether nodes with more than one arc
// are eligible for suffix sharing.
func WithShareNonSingletonNodes(enabled bool) BuilderOption {
	return func(cfg *builderConfig) error {
		cfg.doShareNonSingletonNodes = enabled
		return nil
	}
}

// WithShareMaxTailLength limits suffix sharing to tails of at most n labels.
func WithShareMaxTailLength(n int) BuilderOption {
	return func(cfg *builderConfig) error {
		if n < 0 {
			return errors.Errorf("share max tail length must not be negative, got %d", n)
		}
		cfg.shareMaxTailLength = n
		return nil
	}
}

// WithPacking repacks the whole store once the build is done, dropping dead
// bytes at the cost of a second pass.
func WithPacking(acceptableOverheadRatio float64) BuilderOption {
	return func(cfg *builderConfig) error {
		if acceptableOverheadRatio < 0 {
			return errors.Errorf("acceptable overhead ratio must not be negative, got %f",
				acceptableOverheadRatio)
		}
		cfg.doPack = true
		cfg.acceptableOverheadRatio = acceptableOverheadRatio
		return nil
	}
}

// WithAllowArrayArcs controls the layout hint that lets nodes with many
// arcs use the fixed-width array encoding.
func WithAllowArrayArcs(enabled bool) BuilderOption {
	return func(cfg *builderConfig) error {
		cfg.allowArrayArcs = enabled
		return nil
	}
}

func WithLogger(logger logrus.FieldLogger) BuilderOption {
	return func(cfg *builderConfig) error {
		cfg.logger = logger
		return nil
	}
}

func WithMetrics(metrics *Metrics) BuilderOption {
	return func(cfg *builderConfig) error {
		cfg.metrics = metrics
		return nil
	}
}

// WithBloomFilter additionally builds a bloom filter over the inserted keys,
// sized for the expected key count and false-positive rate. It backs the
// compiled automaton's MayContain fast path.
func WithBloomFilter(expectedKeys uint, fpRate float64) BuilderOption {
	return func(cfg *builderConfig) error {
		if expectedKeys == 0 {
			return errors.New("bloom filter needs an expected key count")
		}
		if fpRate <= 0 || fpRate >= 1 {
			return errors.Errorf("bloom false-positive rate must be in (0, 1), got %f", fpRate)
		}
		cfg.bloomExpectedKeys = expectedKeys
		cfg.bloomFPRate = fpRate
		return nil
	}
}
