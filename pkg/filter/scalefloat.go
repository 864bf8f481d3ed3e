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
	"math"

	"github.com/tiledb-go/filterpipeline/pkg/buffer"
	"github.com/tiledb-go/filterpipeline/pkg/datatype"
	"github.com/tiledb-go/filterpipeline/pkg/ferr"
)

// ScaleFloatFilter quantizes floats to integers: forward maps
// x -> round((x-offset)/factor) cast to a signed integer of byteWidth;
// reverse maps y -> factor*y + offset. Its OutputDatatype is the
// signed integer of byteWidth, letting a downstream integer filter (a
// delta or bit-width-reduction stage) run against the quantized stream.
type ScaleFloatFilter struct {
	factor    float64
	offset    float64
	byteWidth uint64
}

func NewScaleFloat() *ScaleFloatFilter {
	return &ScaleFloatFilter{factor: 1.0, offset: 0.0, byteWidth: 8}
}

func (f *ScaleFloatFilter) Type() Type    { return ScaleFloat }
func (f *ScaleFloatFilter) Clone() Filter { cp := *f; return &cp }

func (f *ScaleFloatFilter) Accepts(in datatype.Type) bool { return in.IsFloat() }

func (f *ScaleFloatFilter) OutputDatatype(in datatype.Type) datatype.Type {
	return datatype.SignedOfWidth(int(f.byteWidth))
}

func (f *ScaleFloatFilter) GetOption(opt Option) (interface{}, error) {
	switch opt {
	case OptScaleFloatFactor:
		return f.factor, nil
	case OptScaleFloatOffset:
		return f.offset, nil
	case OptScaleFloatByteWidth:
		return f.byteWidth, nil
	default:
		return nil, unknownOption(f.Type(), opt)
	}
}

func (f *ScaleFloatFilter) SetOption(opt Option, value interface{}) error {
	switch opt {
	case OptScaleFloatFactor:
		v, ok := value.(float64)
		if !ok || v == 0 {
			return invalidOption(f.Type(), opt, "expected non-zero float64")
		}
		f.factor = v
		return nil
	case OptScaleFloatOffset:
		v, ok := value.(float64)
		if !ok {
			return invalidOption(f.Type(), opt, "expected float64")
		}
		f.offset = v
		return nil
	case OptScaleFloatByteWidth:
		v, ok := value.(uint64)
		if !ok || (v != 1 && v != 2 && v != 4 && v != 8) {
			return invalidOption(f.Type(), opt, "expected byte width in {1,2,4,8}")
		}
		f.byteWidth = v
		return nil
	default:
		return unknownOption(f.Type(), opt)
	}
}

func (f *ScaleFloatFilter) MarshalMetadata() []byte {
	b := buffer.New(20)
	var factorBytes, offsetBytes [8]byte
	binary.LittleEndian.PutUint64(factorBytes[:], math.Float64bits(f.factor))
	binary.LittleEndian.PutUint64(offsetBytes[:], math.Float64bits(f.offset))
	b.Append(factorBytes[:])
	b.Append(offsetBytes[:])
	var wb [8]byte
	binary.LittleEndian.PutUint64(wb[:], f.byteWidth)
	b.Append(wb[:])
	return b.Bytes()
}

func (f *ScaleFloatFilter) UnmarshalMetadata(data []byte) error {
	if len(data) < 24 {
		return ferr.New(ferr.FormatCorrupt, "scale_float metadata too short")
	}
	f.factor = math.Float64frombits(binary.LittleEndian.Uint64(data[0:8]))
	f.offset = math.Float64frombits(binary.LittleEndian.Uint64(data[8:16]))
	f.byteWidth = binary.LittleEndian.Uint64(data[16:24])
	return nil
}

func readFloat(raw []byte, width int) float64 {
	if width == 4 {
		return float64(math.Float32frombits(binary.LittleEndian.Uint32(raw)))
	}
	return math.Float64frombits(binary.LittleEndian.Uint64(raw))
}

func (f *ScaleFloatFilter) Forward(ctx *Context, dt datatype.Type, inMeta, inData, outMeta, outData *buffer.FilterBuffer) error {
	outMeta.AppendAllFrom(inMeta)
	inWidth := dt.ByteWidth()
	raw, err := inData.ReadExact(inData.Len() - inData.Pos())
	if err != nil {
		return ferr.Wrap(ferr.FormatCorrupt, "scale_float: read input", err)
	}

	n := len(raw) / inWidth
	outWidth := int(f.byteWidth)
	out := make([]byte, n*outWidth)
	for i := 0; i < n; i++ {
		x := readFloat(raw[i*inWidth:(i+1)*inWidth], inWidth)
		y := math.Round((x - f.offset) / f.factor)
		writeElem(out[i*outWidth:(i+1)*outWidth], uint64(int64(y)), outWidth)
	}
	outData.AppendOwned(out)
	return nil
}

func (f *ScaleFloatFilter) Reverse(ctx *Context, dt datatype.Type, inMeta, inData, outMeta, outData *buffer.FilterBuffer) error {
	outMeta.AppendAllFrom(inMeta)
	outWidth := dt.ByteWidth() // datatype here is the filter's declared input (float) type, per the runner contract
	inWidth := int(f.byteWidth)

	raw, err := inData.ReadExact(inData.Len() - inData.Pos())
	if err != nil {
		return ferr.Wrap(ferr.FormatCorrupt, "scale_float: read input", err)
	}

	n := len(raw) / inWidth
	out := make([]byte, n*outWidth)
	for i := 0; i < n; i++ {
		y := int64(signExtend(readElem(raw[i*inWidth:(i+1)*inWidth], inWidth), inWidth))
		x := f.factor*float64(y) + f.offset
		if outWidth == 4 {
			binary.LittleEndian.PutUint32(out[i*outWidth:(i+1)*outWidth], math.Float32bits(float32(x)))
		} else {
			binary.LittleEndian.PutUint64(out[i*outWidth:(i+1)*outWidth], math.Float64bits(x))
		}
	}
	outData.AppendOwned(out)
	return nil
}

// signExtend interprets v's low width*8 bits as a signed integer of that
// width, sign-extended to 64 bits.
func signExtend(v uint64, width int) int64 {
	shift := uint(64 - width*8)
	return int64(v<<shift) >> shift
}
