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

package filter

import (
	"encoding/binary"

	"github.com/tiledb-go/filterpipeline/pkg/buffer"
	"github.com/tiledb-go/filterpipeline/pkg/datatype"
	"github.com/tiledb-go/filterpipeline/pkg/ferr"
)

// PositiveDeltaFilter implements windowed positive-delta coding:
// each window stores its base value plus successive deltas, which must
// all be non-negative — a negative delta aborts forward with
// NonPositiveDelta.
//
// Pre-format-version-20 tiles applied this filter to datetime types
// using legacy identity semantics, so format versions 1 through 19 are a
// pass-through for datetime datatypes; a FormatVersion of 0 (unset) runs
// the coder.
type PositiveDeltaFilter struct {
	maxWindow uint32
}

func NewPositiveDelta() *PositiveDeltaFilter {
	return &PositiveDeltaFilter{maxWindow: defaultMaxWindow}
}

func (f *PositiveDeltaFilter) Type() Type    { return PositiveDelta }
func (f *PositiveDeltaFilter) Clone() Filter { cp := *f; return &cp }

func (f *PositiveDeltaFilter) Accepts(in datatype.Type) bool { return in.IsInteger() }
func (f *PositiveDeltaFilter) OutputDatatype(in datatype.Type) datatype.Type { return in }

func (f *PositiveDeltaFilter) GetOption(opt Option) (interface{}, error) {
	if opt == OptPositiveDeltaMaxWindow {
		return f.maxWindow, nil
	}
	return nil, unknownOption(f.Type(), opt)
}

func (f *PositiveDeltaFilter) SetOption(opt Option, value interface{}) error {
	if opt != OptPositiveDeltaMaxWindow {
		return unknownOption(f.Type(), opt)
	}
	w, ok := value.(uint32)
	if !ok || w == 0 {
		return invalidOption(f.Type(), opt, "expected positive uint32")
	}
	f.maxWindow = w
	return nil
}

func (f *PositiveDeltaFilter) MarshalMetadata() []byte {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], f.maxWindow)
	return b[:]
}

func (f *PositiveDeltaFilter) UnmarshalMetadata(data []byte) error {
	if len(data) < 4 {
		return ferr.New(ferr.FormatCorrupt, "positive_delta metadata too short")
	}
	f.maxWindow = binary.LittleEndian.Uint32(data)
	return nil
}

func isLegacyDateTimePassthrough(ctx *Context, dt datatype.Type) bool {
	return dt.IsDateTime() && ctx != nil && ctx.FormatVersion != 0 && ctx.FormatVersion < 20
}

func (f *PositiveDeltaFilter) Forward(ctx *Context, dt datatype.Type, inMeta, inData, outMeta, outData *buffer.FilterBuffer) error {
	outMeta.AppendAllFrom(inMeta)

	if isLegacyDateTimePassthrough(ctx, dt) {
		passThrough(inData, outData)
		return nil
	}

	w := dt.ByteWidth()
	raw, err := inData.ReadExact(inData.Len() - inData.Pos())
	if err != nil {
		return ferr.Wrap(ferr.FormatCorrupt, "positive_delta: read input", err)
	}

	header := outMeta.PrependNew(8)
	header.WriteUint32(uint32(len(raw)))

	windowBytes := int(f.maxWindow) - (int(f.maxWindow) % w)
	if windowBytes <= 0 {
		windowBytes = w
	}

	var numWindows uint32
	var payload []byte
	for off := 0; off < len(raw); off += windowBytes {
		end := off + windowBytes
		if end > len(raw) {
			end = len(raw)
		}
		window := raw[off:end]
		numWindows++
		encoded, err := encodePositiveDeltaWindow(window, w)
		if err != nil {
			return err
		}
		payload = append(payload, encoded...)
	}
	header.WriteUint32(numWindows)

	outData.AppendOwned(payload)
	return nil
}

func encodePositiveDeltaWindow(window []byte, width int) ([]byte, error) {
	if len(window)%width != 0 {
		out := make([]byte, 0, 13+len(window))
		out = append(out, 0, 0, 0, 0, 0, 0, 0, 0) // base=0, marked verbatim below
		var wb [4]byte
		binary.LittleEndian.PutUint32(wb[:], uint32(len(window))|0x80000000)
		out = append(out, wb[:]...)
		return append(out, window...), nil
	}

	n := len(window) / width
	base := readElem(window[0:width], width)
	out := make([]byte, 8)
	binary.LittleEndian.PutUint64(out, base)

	deltas := make([]byte, len(window)-width)
	prev := base
	for i := 1; i < n; i++ {
		v := readElem(window[i*width:(i+1)*width], width)
		if v < prev {
			return nil, ferr.New(ferr.NonPositiveDelta, "positive_delta: decreasing value in window")
		}
		writeElem(deltas[(i-1)*width:i*width], v-prev, width)
		prev = v
	}

	var wb [4]byte
	binary.LittleEndian.PutUint32(wb[:], uint32(len(deltas)))
	out = append(out, wb[:]...)
	return append(out, deltas...), nil
}

func (f *PositiveDeltaFilter) Reverse(ctx *Context, dt datatype.Type, inMeta, inData, outMeta, outData *buffer.FilterBuffer) error {
	if isLegacyDateTimePassthrough(ctx, dt) {
		outMeta.AppendAllFrom(inMeta)
		passThrough(inData, outData)
		return nil
	}

	hdr, err := inMeta.ReadExact(8)
	if err != nil {
		return ferr.Wrap(ferr.FormatCorrupt, "positive_delta: read header", err)
	}
	originalLen := binary.LittleEndian.Uint32(hdr[0:4])
	numWindows := binary.LittleEndian.Uint32(hdr[4:8])
	outMeta.AppendAllFrom(inMeta)

	w := dt.ByteWidth()
	payload, err := inData.ReadExact(inData.Len() - inData.Pos())
	if err != nil {
		return ferr.Wrap(ferr.FormatCorrupt, "positive_delta: read input", err)
	}

	out := make([]byte, 0, originalLen)
	pos := 0
	for i := uint32(0); i < numWindows; i++ {
		base := binary.LittleEndian.Uint64(payload[pos : pos+8])
		pos += 8
		lenField := binary.LittleEndian.Uint32(payload[pos : pos+4])
		pos += 4
		verbatim := lenField&0x80000000 != 0
		length := int(lenField &^ 0x80000000)
		data := payload[pos : pos+length]
		pos += length

		if verbatim {
			out = append(out, data...)
			continue
		}

		n := length/w + 1
		elem := make([]byte, w)
		writeElem(elem, base, w)
		out = append(out, elem...)
		prev := base
		for j := 0; j < n-1; j++ {
			d := readElem(data[j*w:(j+1)*w], w)
			v := prev + d
			writeElem(elem, v, w)
			out = append(out, elem...)
			prev = v
		}
	}

	outData.AppendOwned(out)
	return nil
}
