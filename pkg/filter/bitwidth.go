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

const defaultMaxWindow = 256 * 1024

// BitWidthReductionFilter implements windowed bit-width reduction:
// per window it subtracts the window minimum and re-emits at the
// smallest power-of-two width in {8,16,32,64} that represents the range,
// falling back to verbatim storage when that wouldn't shrink anything.
type BitWidthReductionFilter struct {
	maxWindow uint32
}

func NewBitWidthReduction() *BitWidthReductionFilter {
	return &BitWidthReductionFilter{maxWindow: defaultMaxWindow}
}

func (f *BitWidthReductionFilter) Type() Type    { return BitWidthReduction }
func (f *BitWidthReductionFilter) Clone() Filter { cp := *f; return &cp }

func (f *BitWidthReductionFilter) Accepts(in datatype.Type) bool { return in.IsInteger() }
func (f *BitWidthReductionFilter) OutputDatatype(in datatype.Type) datatype.Type { return in }

func (f *BitWidthReductionFilter) GetOption(opt Option) (interface{}, error) {
	if opt == OptBitWidthMaxWindow {
		return f.maxWindow, nil
	}
	return nil, unknownOption(f.Type(), opt)
}

func (f *BitWidthReductionFilter) SetOption(opt Option, value interface{}) error {
	if opt != OptBitWidthMaxWindow {
		return unknownOption(f.Type(), opt)
	}
	w, ok := value.(uint32)
	if !ok || w == 0 {
		return invalidOption(f.Type(), opt, "expected positive uint32")
	}
	f.maxWindow = w
	return nil
}

func (f *BitWidthReductionFilter) MarshalMetadata() []byte {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], f.maxWindow)
	return b[:]
}

func (f *BitWidthReductionFilter) UnmarshalMetadata(data []byte) error {
	if len(data) < 4 {
		return ferr.New(ferr.FormatCorrupt, "bit_width_reduction metadata too short")
	}
	f.maxWindow = binary.LittleEndian.Uint32(data)
	return nil
}

// reducedBitWidth returns the smallest width in {8,16,32,64} that can
// represent values in [0, rangeVal].
func reducedBitWidth(rangeVal uint64, originalWidth int) int {
	widths := [4]int{8, 16, 32, 64}
	for _, w := range widths {
		if w >= originalWidth*8 {
			return originalWidth * 8
		}
		if w == 64 {
			return w
		}
		if rangeVal < (uint64(1) << uint(w)) {
			return w
		}
	}
	return originalWidth * 8
}

func (f *BitWidthReductionFilter) Forward(ctx *Context, dt datatype.Type, inMeta, inData, outMeta, outData *buffer.FilterBuffer) error {
	outMeta.AppendAllFrom(inMeta)
	w := dt.ByteWidth()
	raw, err := inData.ReadExact(inData.Len() - inData.Pos())
	if err != nil {
		return ferr.Wrap(ferr.FormatCorrupt, "bit_width_reduction: read input", err)
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
		payload = append(payload, encodeWindow(window, w, dt.IsSigned())...)
	}
	header.WriteUint32(numWindows)

	outData.AppendOwned(payload)
	return nil
}

func encodeWindow(window []byte, width int, signed bool) []byte {
	if len(window)%width != 0 {
		// not a multiple of the element width: emit verbatim
		return encodeVerbatimWindow(window, width)
	}

	n := len(window) / width
	minV, maxV := readElem(window[0:width], width), readElem(window[0:width], width)
	for i := 1; i < n; i++ {
		v := readElem(window[i*width:(i+1)*width], width)
		if v < minV {
			minV = v
		}
		if v > maxV {
			maxV = v
		}
	}
	rangeVal := maxV - minV
	reduced := reducedBitWidth(rangeVal, width)

	out := make([]byte, 0, width+9)
	minBytes := make([]byte, width)
	writeElem(minBytes, minV, width)
	out = append(out, minBytes...)
	out = append(out, byte(reduced))

	if reduced >= width*8 {
		var wb [4]byte
		binary.LittleEndian.PutUint32(wb[:], uint32(len(window)))
		out = append(out, wb[:]...)
		return append(out, window...)
	}

	reducedBytes := reduced / 8
	payload := make([]byte, n*reducedBytes)
	for i := 0; i < n; i++ {
		v := readElem(window[i*width:(i+1)*width], width) - minV
		writeElem(payload[i*reducedBytes:(i+1)*reducedBytes], v, reducedBytes)
	}
	var wb [4]byte
	binary.LittleEndian.PutUint32(wb[:], uint32(len(payload)))
	out = append(out, wb[:]...)
	return append(out, payload...)
}

func encodeVerbatimWindow(window []byte, width int) []byte {
	out := make([]byte, width) // zero minValue
	out = append(out, byte(width*8))
	var wb [4]byte
	binary.LittleEndian.PutUint32(wb[:], uint32(len(window)))
	out = append(out, wb[:]...)
	return append(out, window...)
}

func readElem(b []byte, width int) uint64 {
	switch width {
	case 1:
		return uint64(b[0])
	case 2:
		return uint64(binary.LittleEndian.Uint16(b))
	case 4:
		return uint64(binary.LittleEndian.Uint32(b))
	default:
		return binary.LittleEndian.Uint64(b)
	}
}

func writeElem(b []byte, v uint64, width int) {
	switch width {
	case 1:
		b[0] = byte(v)
	case 2:
		binary.LittleEndian.PutUint16(b, uint16(v))
	case 4:
		binary.LittleEndian.PutUint32(b, uint32(v))
	default:
		binary.LittleEndian.PutUint64(b, v)
	}
}

func (f *BitWidthReductionFilter) Reverse(ctx *Context, dt datatype.Type, inMeta, inData, outMeta, outData *buffer.FilterBuffer) error {
	hdr, err := inMeta.ReadExact(8)
	if err != nil {
		return ferr.Wrap(ferr.FormatCorrupt, "bit_width_reduction: read header", err)
	}
	originalLen := binary.LittleEndian.Uint32(hdr[0:4])
	numWindows := binary.LittleEndian.Uint32(hdr[4:8])
	outMeta.AppendAllFrom(inMeta)

	w := dt.ByteWidth()
	payload, err := inData.ReadExact(inData.Len() - inData.Pos())
	if err != nil {
		return ferr.Wrap(ferr.FormatCorrupt, "bit_width_reduction: read input", err)
	}

	out := make([]byte, 0, originalLen)
	pos := 0
	for i := uint32(0); i < numWindows; i++ {
		minBytes := payload[pos : pos+w]
		pos += w
		reduced := int(payload[pos])
		pos++
		windowLen := binary.LittleEndian.Uint32(payload[pos : pos+4])
		pos += 4
		data := payload[pos : pos+int(windowLen)]
		pos += int(windowLen)

		if reduced >= w*8 {
			out = append(out, data...)
			continue
		}

		minV := readElem(minBytes, w)
		reducedBytes := reduced / 8
		n := len(data) / reducedBytes
		for j := 0; j < n; j++ {
			v := readElem(data[j*reducedBytes:(j+1)*reducedBytes], reducedBytes) + minV
			elem := make([]byte, w)
			writeElem(elem, v, w)
			out = append(out, elem...)
		}
	}

	outData.AppendOwned(out)
	return nil
}
