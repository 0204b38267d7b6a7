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

import "io"

// ValueReader is what an output value decodes itself from. The byte store's
// reader satisfies it.
type ValueReader interface {
	io.ByteReader
	io.Reader
}

// Outputs is the value algebra an FST maps keys to. Add combines a prefix
// output with a suffix output, Subtract is its inverse
// (Subtract(Add(a, b), a) == b), Common is the greatest shared prefix of two
// outputs under Add, and Merge combines two outputs mapped to the same key.
//
// AppendTo must produce a self-delimiting encoding that ReadFrom decodes, so
// values can round-trip through the compiled byte store.
type Outputs[T any] interface {
	Empty() T
	Add(prefix, suffix T) T
	Subtract(output, inc T) T
	Common(a, b T) T
	Merge(a, b T) T
	Equal(a, b T) bool
	AppendTo(dst []byte, v T) []byte
	ReadFrom(r ValueReader) (T, error)
}

// NoOutput is the value type of NoOutputs.
type NoOutput struct{}

// NoOutputs degenerates the FST into a plain FSA: every output is the empty
// value and nothing is written to the store.
type NoOutputs struct{}

func (NoOutputs) Empty() NoOutput { return NoOutput{} }

func (NoOutputs) Add(_, _ NoOutput) NoOutput { return NoOutput{} }

func (NoOutputs) Subtract(_, _ NoOutput) NoOutput { return NoOutput{} }

func (NoOutputs) Common(_, _ NoOutput) NoOutput { return NoOutput{} }

func (NoOutputs) Merge(_, _ NoOutput) NoOutput { return NoOutput{} }

func (NoOutputs) Equal(_, _ NoOutput) bool { return true }

func (NoOutputs) AppendTo(dst []byte, _ NoOutput) []byte { return dst }

func (NoOutputs) ReadFrom(_ ValueReader) (NoOutput, error) {
	return NoOutput{}, nil
}
