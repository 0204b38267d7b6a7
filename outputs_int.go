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

import "encoding/binary"

// IntOutputs maps keys to non-negative integers under addition, the algebra
// used for term ordinals and file offsets. Common is the minimum, so output
// pushing keeps as much weight as possible on shared prefixes. Merge keeps
// the larger of two outputs recorded for the same key.
type IntOutputs struct{}

func (IntOutputs) Empty() uint64 {
	return 0
}

func (IntOutputs) Add(prefix, suffix uint64) uint64 {
	return prefix + suffix
}

func (IntOutputs) Subtract(output, inc uint64) uint64 {
	return output - inc
}

func (IntOutputs) Common(a, b uint64) uint64 {
	if a < b {
		return a
	}
	return b
}

func (IntOutputs) Merge(a, b uint64) uint64 {
	if a > b {
		return a
	}
	return b
}

func (IntOutputs) Equal(a, b uint64) bool {
	return a == b
}

func (IntOutputs) AppendTo(dst []byte, v uint64) []byte {
	return binary.AppendUvarint(dst, v)
}

func (IntOutputs) ReadFrom(r ValueReader) (uint64, error) {
	return binary.ReadUvarint(r)
}
