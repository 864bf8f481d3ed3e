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
	"github.com/tiledb-go/filterpipeline/pkg/buffer"
	"github.com/tiledb-go/filterpipeline/pkg/datatype"
	"github.com/tiledb-go/filterpipeline/pkg/ferr"
)

// XORFilter encodes consecutive differences as XOR: v[0] passes
// through and v[i] = value[i] XOR value[i-1] for i>=1 on forward;
// reverse runs the XOR prefix scan to reconstruct the original stream.
// Its OutputDatatype is the signed integer of the same width as its
// input element.
type XORFilter struct{}

func NewXOR() *XORFilter { return &XORFilter{} }

func (f *XORFilter) Type() Type    { return Xor }
func (f *XORFilter) Clone() Filter { return &XORFilter{} }

func (f *XORFilter) Accepts(in datatype.Type) bool { return in.IsInteger() }

func (f *XORFilter) OutputDatatype(in datatype.Type) datatype.Type {
	return datatype.SignedOfWidth(in.ByteWidth())
}

func (f *XORFilter) GetOption(opt Option) (interface{}, error) {
	return nil, unknownOption(f.Type(), opt)
}
func (f *XORFilter) SetOption(opt Option, value interface{}) error {
	return unknownOption(f.Type(), opt)
}
func (f *XORFilter) MarshalMetadata() []byte            { return nil }
func (f *XORFilter) UnmarshalMetadata(data []byte) error { return nil }

func (f *XORFilter) Forward(ctx *Context, dt datatype.Type, inMeta, inData, outMeta, outData *buffer.FilterBuffer) error {
	outMeta.AppendAllFrom(inMeta)
	w := dt.ByteWidth()
	raw, err := inData.ReadExact(inData.Len() - inData.Pos())
	if err != nil {
		return ferr.Wrap(ferr.FormatCorrupt, "xor: read input", err)
	}
	if w <= 0 || len(raw)%w != 0 {
		outData.AppendOwned(raw)
		return nil
	}

	n := len(raw) / w
	out := make([]byte, len(raw))
	copy(out[0:w], raw[0:w])
	prev := readElem(raw[0:w], w)
	for i := 1; i < n; i++ {
		v := readElem(raw[i*w:(i+1)*w], w)
		writeElem(out[i*w:(i+1)*w], v^prev, w)
		prev = v
	}
	outData.AppendOwned(out)
	return nil
}

func (f *XORFilter) Reverse(ctx *Context, dt datatype.Type, inMeta, inData, outMeta, outData *buffer.FilterBuffer) error {
	outMeta.AppendAllFrom(inMeta)
	w := dt.ByteWidth()
	raw, err := inData.ReadExact(inData.Len() - inData.Pos())
	if err != nil {
		return ferr.Wrap(ferr.FormatCorrupt, "xor: read input", err)
	}
	if w <= 0 || len(raw)%w != 0 {
		outData.AppendOwned(raw)
		return nil
	}

	n := len(raw) / w
	out := make([]byte, len(raw))
	copy(out[0:w], raw[0:w])
	prev := readElem(raw[0:w], w)
	for i := 1; i < n; i++ {
		xv := readElem(raw[i*w:(i+1)*w], w)
		v := xv ^ prev
		writeElem(out[i*w:(i+1)*w], v, w)
		prev = v
	}
	outData.AppendOwned(out)
	return nil
}
