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
	"bytes"
	"encoding/binary"
	"io"

	"github.com/pkg/errors"
)

// ByteSliceOutputs maps keys to byte sequences under concatenation. Common
// is the longest common prefix, Subtract strips a known prefix. Merge keeps
// the later of two outputs recorded for the same key.
//
// Values handed to the builder must not be mutated afterwards; the algebra
// aliases its inputs where it can.
type ByteSliceOutputs struct{}

func (ByteSliceOutputs) Empty() []byte {
	return nil
}

func (ByteSliceOutputs) Add(prefix, suffix []byte) []byte {
	if len(prefix) == 0 {
		return suffix
	}
	if len(suffix) == 0 {
		return prefix
	}
	out := make([]byte, 0, len(prefix)+len(suffix))
	out = append(out, prefix...)
	return append(out, suffix...)
}

func (ByteSliceOutputs) Subtract(output, inc []byte) []byte {
	// inc is always a prefix of output here, guaranteed by how the builder
	// pairs Subtract with Common
	return output[len(inc):]
}

func (ByteSliceOutputs) Common(a, b []byte) []byte {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	i := 0
	for i < n && a[i] == b[i] {
		i++
	}
	return a[:i]
}

func (ByteSliceOutputs) Merge(_, b []byte) []byte {
	return b
}

func (ByteSliceOutputs) Equal(a, b []byte) bool {
	return bytes.Equal(a, b)
}

func (ByteSliceOutputs) AppendTo(dst []byte, v []byte) []byte {
	dst = binary.AppendUvarint(dst, uint64(len(v)))
	return append(dst, v...)
}

func (ByteSliceOutputs) ReadFrom(r ValueReader) ([]byte, error) {
	length, err := binary.ReadUvarint(r)
	if err != nil {
		return nil, errors.Wrap(err, "read output length")
	}
	if length == 0 {
		return nil, nil
	}
	out := make([]byte, length)
	if _, err := io.ReadFull(r, out); err != nil {
		return nil, errors.Wrap(err, "read output bytes")
	}
	return out, nil
}
