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
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBytesStore_WriteRead(t *testing.T) {
	t.Run("bytes round trip across block boundaries", func(t *testing.T) {
		// 16-byte blocks so a modest payload spans several of them
		s := newBytesStore(4)

		payload := make([]byte, 100)
		r := rand.New(rand.NewSource(3))
		r.Read(payload)

		for _, b := range payload[:10] {
			s.writeByte(b)
		}
		s.writeBytes(payload[10:])

		assert.Equal(t, int64(len(payload)), s.position())

		got := make([]byte, len(payload))
		n, err := s.readerAt(0).Read(got)
		require.Nil(t, err)
		assert.Equal(t, len(payload), n)
		assert.Equal(t, payload, got)
	})

	t.Run("uvarints round trip across block boundaries", func(t *testing.T) {
		s := newBytesStore(4)

		values := []uint64{0, 1, 127, 128, 300, 1 << 20, 1<<40 + 17, 1<<63 + 9}
		for i := 0; i < 8; i++ { // enough repetition to cross blocks
			for _, v := range values {
				s.writeUvarint(v)
			}
		}

		reader := s.readerAt(0)
		for i := 0; i < 8; i++ {
			for _, v := range values {
				got, err := reader.readUvarint()
				require.Nil(t, err)
				assert.Equal(t, v, got)
			}
		}
		assert.Equal(t, s.position(), reader.position())
	})

	t.Run("reader seek", func(t *testing.T) {
		s := newBytesStore(4)
		s.writeBytes([]byte{10, 11, 12, 13, 14, 15, 16, 17})

		reader := s.readerAt(5)
		b, err := reader.ReadByte()
		require.Nil(t, err)
		assert.Equal(t, byte(15), b)

		reader.seek(2)
		b, err = reader.ReadByte()
		require.Nil(t, err)
		assert.Equal(t, byte(12), b)
	})

	t.Run("reading past the end fails", func(t *testing.T) {
		s := newBytesStore(4)
		s.writeBytes([]byte{1, 2, 3})

		reader := s.readerAt(0)
		buf := make([]byte, 4)
		n, err := reader.Read(buf)
		assert.Equal(t, 3, n)
		assert.NotNil(t, err)

		reader.seek(3)
		_, err = reader.ReadByte()
		assert.NotNil(t, err)
	})

	t.Run("finish trims the last block without losing data", func(t *testing.T) {
		s := newBytesStore(4)
		s.writeBytes([]byte{1, 2, 3, 4, 5})
		s.finish()

		assert.Equal(t, int64(5), s.position())
		assert.Len(t, s.blocks[len(s.blocks)-1], 5)

		got := make([]byte, 5)
		_, err := s.readerAt(0).Read(got)
		require.Nil(t, err)
		assert.Equal(t, []byte{1, 2, 3, 4, 5}, got)
	})
}
