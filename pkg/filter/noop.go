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
)

// NoOpFilter passes data and metadata through unchanged in both
// directions. It is also the filter UnmarshalMetadata/serialization falls
// back to for the Compression(NoCompression) backward-compatibility
// quirk.
type NoOpFilter struct{}

func NewNoOp() *NoOpFilter { return &NoOpFilter{} }

func (f *NoOpFilter) Type() Type    { return NoOp }
func (f *NoOpFilter) Clone() Filter { return &NoOpFilter{} }

func (f *NoOpFilter) Accepts(datatype.Type) bool { return true }

func (f *NoOpFilter) OutputDatatype(in datatype.Type) datatype.Type { return in }

func (f *NoOpFilter) Forward(ctx *Context, dt datatype.Type, inMeta, inData, outMeta, outData *buffer.FilterBuffer) error {
	outMeta.AppendAllFrom(inMeta)
	passThrough(inData, outData)
	return nil
}

func (f *NoOpFilter) Reverse(ctx *Context, dt datatype.Type, inMeta, inData, outMeta, outData *buffer.FilterBuffer) error {
	outMeta.AppendAllFrom(inMeta)
	passThrough(inData, outData)
	return nil
}

func (f *NoOpFilter) GetOption(opt Option) (interface{}, error) {
	return nil, unknownOption(f.Type(), opt)
}

func (f *NoOpFilter) SetOption(opt Option, value interface{}) error {
	return unknownOption(f.Type(), opt)
}

func (f *NoOpFilter) MarshalMetadata() []byte        { return nil }
func (f *NoOpFilter) UnmarshalMetadata([]byte) error { return nil }
