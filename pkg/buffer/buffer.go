// Copyright 2024 Dolthub, Inc.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package buffer provides the owning/borrowing byte buffer primitives the
// filter pipeline builds on: a single contiguous Buffer with a read/write
// cursor, and a FilterBuffer that stitches several Buffers (each either
// owned or merely viewed) into one logical stream without copying views.
package buffer

import (
	"encoding/binary"
	"io"

	"github.com/tiledb-go/filterpipeline/internal/d"
)

// Buffer is a single contiguous byte region with a cursor for sequential
// reads and writes. A Buffer is either owning (it allocated its own
// backing array) or a view over another Buffer's backing array; views
// never copy and become invalid if their source's backing array is
// replaced.
type Buffer struct {
	data     []byte
	cursor   int
	readOnly bool
	owning   bool
}

// New allocates a new owning Buffer with the given capacity, length 0.
func New(capacity int) *Buffer {
	return &Buffer{data: make([]byte, 0, capacity), owning: true}
}

// NewFromBytes wraps an existing slice as an owning Buffer without
// copying; the caller must not mutate data concurrently.
func NewFromBytes(data []byte) *Buffer {
	return &Buffer{data: data, owning: true}
}

// View returns a new non-owning Buffer over src's backing array in
// [offset, offset+length). Mutating through the view touches src's bytes
// directly unless src is read-only, in which case writes panic.
func View(src *Buffer, offset, length int) *Buffer {
	d.PanicIfFalse(offset >= 0 && length >= 0 && offset+length <= len(src.data), "buffer: view out of range")
	return &Buffer{data: src.data[offset : offset+length : offset+length], readOnly: src.readOnly, owning: false}
}

// Len returns the number of bytes currently stored.
func (b *Buffer) Len() int { return len(b.data) }

// Cap returns the allocated capacity.
func (b *Buffer) Cap() int { return cap(b.data) }

// Bytes returns the buffer's backing bytes. Callers must not retain the
// slice past the buffer's lifetime if the buffer is later reused.
func (b *Buffer) Bytes() []byte { return b.data }

// IsReadOnly reports whether mutation is currently disallowed.
func (b *Buffer) IsReadOnly() bool { return b.readOnly }

// SetReadOnly marks the buffer immutable; further writes panic. Used once
// a filter stage has finished producing a segment that will be exposed to
// downstream readers as a view.
func (b *Buffer) SetReadOnly() { b.readOnly = true }

// Pos returns the current cursor position.
func (b *Buffer) Pos() int { return b.cursor }

// SetPos repositions the cursor.
func (b *Buffer) SetPos(p int) {
	d.PanicIfFalse(p >= 0 && p <= len(b.data), "buffer: cursor out of range")
	b.cursor = p
}

// Advance moves the cursor forward by n bytes.
func (b *Buffer) Advance(n int) { b.SetPos(b.cursor + n) }

// Append writes p to the end of the buffer, growing it. Panics if the
// buffer is read-only.
func (b *Buffer) Append(p []byte) {
	d.PanicIfTrue(b.readOnly, "buffer: append to read-only buffer")
	b.data = append(b.data, p...)
}

// Write implements io.Writer by appending at the end (not at the cursor).
func (b *Buffer) Write(p []byte) (int, error) {
	b.Append(p)
	return len(p), nil
}

// PeekAt reads up to len(p) bytes starting at the cursor without
// advancing it.
func (b *Buffer) PeekAt(p []byte) (int, error) {
	if b.cursor >= len(b.data) {
		return 0, io.EOF
	}
	n := copy(p, b.data[b.cursor:])
	return n, nil
}

// Read implements io.Reader, reading from and advancing the cursor.
func (b *Buffer) Read(p []byte) (int, error) {
	n, err := b.PeekAt(p)
	b.cursor += n
	return n, err
}

// ReadExact reads exactly n bytes from the cursor, returning FormatCorrupt
// semantics to the caller via a plain error (callers translate to ferr).
func (b *Buffer) ReadExact(n int) ([]byte, error) {
	if b.cursor+n > len(b.data) {
		return nil, io.ErrUnexpectedEOF
	}
	out := b.data[b.cursor : b.cursor+n]
	b.cursor += n
	return out, nil
}

// WriteUint32 appends a little-endian uint32 at the end of the buffer.
func (b *Buffer) WriteUint32(v uint32) {
	var tmp [4]byte
	binary.LittleEndian.PutUint32(tmp[:], v)
	b.Append(tmp[:])
}

// WriteUint64 appends a little-endian uint64 at the end of the buffer.
func (b *Buffer) WriteUint64(v uint64) {
	var tmp [8]byte
	binary.LittleEndian.PutUint64(tmp[:], v)
	b.Append(tmp[:])
}

// ReadUint32 reads a little-endian uint32 from the cursor, advancing it.
func (b *Buffer) ReadUint32() (uint32, error) {
	p, err := b.ReadExact(4)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(p), nil
}

// ReadUint64 reads a little-endian uint64 from the cursor, advancing it.
func (b *Buffer) ReadUint64() (uint64, error) {
	p, err := b.ReadExact(8)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint64(p), nil
}

// Swap exchanges the contents of b and other in place, used by the
// pipeline runner to hand a stage's output to the next stage as its input
// without copying.
func (b *Buffer) Swap(other *Buffer) {
	*b, *other = *other, *b
}

// Clone returns a new owning Buffer holding a copy of b's bytes.
func (b *Buffer) Clone() *Buffer {
	cp := make([]byte, len(b.data))
	copy(cp, b.data)
	return &Buffer{data: cp, owning: true}
}
