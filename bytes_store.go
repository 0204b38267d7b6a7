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

	"github.com/pkg/errors"
)

// bytesStore is the append-only byte storage compiled nodes are frozen into.
// Bytes are kept in fixed-size blocks so appending never copies what was
// already written; a node address is simply the store position of its first
// byte.
type bytesStore struct {
	blocks    [][]byte
	blockBits uint
	blockSize int
	blockMask int
	current   []byte
	nextWrite int
}

func newBytesStore(blockBits uint) *bytesStore {
	blockSize := 1 << blockBits
	s := &bytesStore{
		blockBits: blockBits,
		blockSize: blockSize,
		blockMask: blockSize - 1,
	}
	s.current = make([]byte, blockSize)
	s.blocks = append(s.blocks, s.current)
	return s
}

func (s *bytesStore) position() int64 {
	return int64(len(s.blocks)-1)*int64(s.blockSize) + int64(s.nextWrite)
}

func (s *bytesStore) writeByte(b byte) {
	if s.nextWrite == s.blockSize {
		s.current = make([]byte, s.blockSize)
		s.blocks = append(s.blocks, s.current)
		s.nextWrite = 0
	}
	s.current[s.nextWrite] = b
	s.nextWrite++
}

func (s *bytesStore) writeBytes(p []byte) {
	for len(p) > 0 {
		if s.nextWrite == s.blockSize {
			s.current = make([]byte, s.blockSize)
			s.blocks = append(s.blocks, s.current)
			s.nextWrite = 0
		}
		n := copy(s.current[s.nextWrite:], p)
		s.nextWrite += n
		p = p[n:]
	}
}

func (s *bytesStore) writeUvarint(v uint64) {
	for v >= 0x80 {
		s.writeByte(byte(v) | 0x80)
		v >>= 7
	}
	s.writeByte(byte(v))
}

// finish trims the unused tail of the last block so the store's memory
// footprint matches its logical size.
func (s *bytesStore) finish() {
	trimmed := make([]byte, s.nextWrite)
	copy(trimmed, s.current[:s.nextWrite])
	s.current = trimmed
	s.blocks[len(s.blocks)-1] = trimmed
}

// readerAt returns a position-tracked reader starting at pos.
func (s *bytesStore) readerAt(pos int64) *storeReader {
	return &storeReader{s: s, pos: pos}
}

// storeReader reads the store sequentially from a position. It satisfies
// ValueReader so output values can decode themselves from it.
type storeReader struct {
	s   *bytesStore
	pos int64
}

func (r *storeReader) position() int64 {
	return r.pos
}

func (r *storeReader) seek(pos int64) {
	r.pos = pos
}

func (r *storeReader) ReadByte() (byte, error) {
	if r.pos >= r.s.position() {
		return 0, errors.Wrap(io.ErrUnexpectedEOF, "read past end of byte store")
	}
	block := r.s.blocks[r.pos>>int64(r.s.blockBits)]
	b := block[int(r.pos)&r.s.blockMask]
	r.pos++
	return b, nil
}

func (r *storeReader) Read(p []byte) (int, error) {
	read := 0
	for read < len(p) {
		if r.pos >= r.s.position() {
			return read, errors.Wrap(io.ErrUnexpectedEOF, "read past end of byte store")
		}
		block := r.s.blocks[r.pos>>int64(r.s.blockBits)]
		offset := int(r.pos) & r.s.blockMask

		avail := len(block) - offset
		if remaining := r.s.position() - r.pos; int64(avail) > remaining {
			avail = int(remaining)
		}
		n := copy(p[read:], block[offset:offset+avail])
		read += n
		r.pos += int64(n)
	}
	return read, nil
}

func (r *storeReader) readUvarint() (uint64, error) {
	var v uint64
	var shift uint
	for {
		b, err := r.ReadByte()
		if err != nil {
			return 0, err
		}
		if b < 0x80 {
			return v | uint64(b)<<shift, nil
		}
		v |= uint64(b&0x7f) << shift
		shift += 7
		if shift >= 64 {
			return 0, errors.New("uvarint overflows 64 bits")
		}
	}
}
