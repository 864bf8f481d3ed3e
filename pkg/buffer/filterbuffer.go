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

package buffer

import (
	"io"

	"github.com/tiledb-go/filterpipeline/internal/d"
)

// segment is one piece of a FilterBuffer's logical stream: either an
// owning allocation or a view into some other Buffer.
type segment struct {
	buf    *Buffer
	owning bool
}

// FilterBuffer stitches together multiple segments — some owned outright,
// some merely viewing another buffer's bytes — into a single logical byte
// stream a filter stage reads and writes against. This lets a filter
// forward its predecessor's metadata by reference (AppendView) while
// prepending its own freshly allocated metadata (PrependNew), without
// ever copying data it does not need to transform.
type FilterBuffer struct {
	segments []segment
	readOnly bool
	pos      int // logical cursor across all segments
}

// NewFilterBuffer returns an empty FilterBuffer.
func NewFilterBuffer() *FilterBuffer {
	return &FilterBuffer{}
}

// Len returns the total logical length across all segments.
func (fb *FilterBuffer) Len() int {
	n := 0
	for _, s := range fb.segments {
		n += s.buf.Len()
	}
	return n
}

// SetReadOnly marks every owning segment read-only, preventing further
// mutation once this FilterBuffer is exposed as another stage's input.
func (fb *FilterBuffer) SetReadOnly() {
	fb.readOnly = true
	for _, s := range fb.segments {
		s.buf.SetReadOnly()
	}
}

// AppendOwned copies data into a new owning segment at the logical end.
func (fb *FilterBuffer) AppendOwned(data []byte) {
	d.PanicIfTrue(fb.readOnly, "filterbuffer: append to read-only buffer")
	b := New(len(data))
	b.Append(data)
	fb.segments = append(fb.segments, segment{buf: b, owning: true})
}

// PrependNew inserts a new owning segment of exact capacity n at the
// logical front of the stream and returns it so the caller can write into
// it directly (used by filters that emit a metadata header before their
// transformed payload).
func (fb *FilterBuffer) PrependNew(n int) *Buffer {
	d.PanicIfTrue(fb.readOnly, "filterbuffer: prepend to read-only buffer")
	b := New(n)
	fb.segments = append([]segment{{buf: b, owning: true}}, fb.segments...)
	return b
}

// AppendView appends a zero-copy view over src's [offset, offset+length)
// range at the logical end of the stream.
func (fb *FilterBuffer) AppendView(src *Buffer, offset, length int) {
	d.PanicIfTrue(fb.readOnly, "filterbuffer: append to read-only buffer")
	fb.segments = append(fb.segments, segment{buf: View(src, offset, length), owning: false})
}

// AppendBuffer appends an existing Buffer as a segment outright (taking
// ownership semantics from the buffer itself).
func (fb *FilterBuffer) AppendBuffer(b *Buffer) {
	d.PanicIfTrue(fb.readOnly, "filterbuffer: append to read-only buffer")
	fb.segments = append(fb.segments, segment{buf: b, owning: b.owning})
}

// AppendAllFrom appends every remaining segment (from other's current
// cursor onward) of other into fb by reference, without copying any
// segment's backing bytes. Used by pass-through filters to forward an
// entire input stream untouched.
func (fb *FilterBuffer) AppendAllFrom(other *FilterBuffer) {
	d.PanicIfTrue(fb.readOnly, "filterbuffer: append to read-only buffer")
	offset := 0
	for _, s := range other.segments {
		segLen := s.buf.Len()
		if offset+segLen <= other.pos {
			offset += segLen
			continue
		}
		start := 0
		if other.pos > offset {
			start = other.pos - offset
		}
		if start == 0 {
			fb.segments = append(fb.segments, s)
		} else {
			fb.segments = append(fb.segments, segment{buf: View(s.buf, start, segLen-start), owning: false})
		}
		offset += segLen
	}
	other.pos = other.Len()
}

// Bytes materializes the full logical stream as a single contiguous
// slice, copying across segment boundaries. Used at the point a chunk's
// final framed bytes are written out.
func (fb *FilterBuffer) Bytes() []byte {
	out := make([]byte, 0, fb.Len())
	for _, s := range fb.segments {
		out = append(out, s.buf.Bytes()...)
	}
	return out
}

// SetPos repositions the logical read cursor.
func (fb *FilterBuffer) SetPos(p int) {
	d.PanicIfFalse(p >= 0 && p <= fb.Len(), "filterbuffer: cursor out of range")
	fb.pos = p
}

// Pos returns the logical read cursor.
func (fb *FilterBuffer) Pos() int { return fb.pos }

// Read implements io.Reader across segment boundaries, returning a short
// read only at true end-of-stream (never a spurious short read while
// bytes remain in a later segment).
func (fb *FilterBuffer) Read(p []byte) (int, error) {
	total := 0
	offset := 0
	for _, s := range fb.segments {
		segLen := s.buf.Len()
		if offset+segLen <= fb.pos {
			offset += segLen
			continue
		}
		start := fb.pos - offset
		avail := segLen - start
		n := copy(p[total:], s.buf.Bytes()[start:start+avail])
		total += n
		fb.pos += n
		offset += segLen
		if total == len(p) {
			return total, nil
		}
	}
	if total == 0 {
		return 0, io.EOF
	}
	return total, nil
}

// ReadExact reads exactly n bytes from the logical cursor, returning an
// error if fewer remain.
func (fb *FilterBuffer) ReadExact(n int) ([]byte, error) {
	out := make([]byte, n)
	read := 0
	for read < n {
		m, err := fb.Read(out[read:])
		read += m
		if err != nil && read < n {
			return nil, io.ErrUnexpectedEOF
		}
		if m == 0 {
			break
		}
	}
	if read != n {
		return nil, io.ErrUnexpectedEOF
	}
	return out, nil
}

// Swap exchanges the contents of fb and other in place.
func (fb *FilterBuffer) Swap(other *FilterBuffer) {
	*fb, *other = *other, *fb
}

// Reset clears all segments, readying the buffer for reuse by the next
// chunk in a worker's processing loop.
func (fb *FilterBuffer) Reset() {
	fb.segments = nil
	fb.readOnly = false
	fb.pos = 0
}
