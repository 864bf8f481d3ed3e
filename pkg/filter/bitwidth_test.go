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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tiledb-go/filterpipeline/pkg/buffer"
	"github.com/tiledb-go/filterpipeline/pkg/datatype"
)

func u64sToBytes(vals []uint64) []byte {
	out := make([]byte, len(vals)*8)
	for i, v := range vals {
		binary.LittleEndian.PutUint64(out[i*8:(i+1)*8], v)
	}
	return out
}

// TestBitWidthReductionReduces: values [0..999] mod 257 reduce to
// fewer than 8000 bytes and round-trip exactly.
func TestBitWidthReductionReduces(t *testing.T) {
	vals := make([]uint64, 1000)
	for i := range vals {
		vals[i] = uint64(i % 257)
	}
	raw := u64sToBytes(vals)
	require.Equal(t, 8000, len(raw))

	f := NewBitWidthReduction()
	require.NoError(t, f.SetOption(OptBitWidthMaxWindow, uint32(2000)))

	inMeta, inData := buffer.NewFilterBuffer(), buffer.NewFilterBuffer()
	inData.AppendOwned(raw)
	outMeta, outData := buffer.NewFilterBuffer(), buffer.NewFilterBuffer()
	require.NoError(t, f.Forward(&Context{}, datatype.Uint64, inMeta, inData, outMeta, outData))

	assert.Less(t, outData.Len(), 8000)

	rOutMeta, rOutData := buffer.NewFilterBuffer(), buffer.NewFilterBuffer()
	require.NoError(t, f.Reverse(&Context{}, datatype.Uint64, outMeta, outData, rOutMeta, rOutData))
	assert.Equal(t, raw, rOutData.Bytes())
}

func TestBitWidthReductionSmallRange(t *testing.T) {
	vals := []uint64{10, 11, 12, 13, 14, 15, 16, 17}
	raw := u64sToBytes(vals)

	f := NewBitWidthReduction()
	require.NoError(t, f.SetOption(OptBitWidthMaxWindow, uint32(64)))

	inMeta, inData := buffer.NewFilterBuffer(), buffer.NewFilterBuffer()
	inData.AppendOwned(raw)
	outMeta, outData := buffer.NewFilterBuffer(), buffer.NewFilterBuffer()
	require.NoError(t, f.Forward(&Context{}, datatype.Uint64, inMeta, inData, outMeta, outData))

	rOutMeta, rOutData := buffer.NewFilterBuffer(), buffer.NewFilterBuffer()
	require.NoError(t, f.Reverse(&Context{}, datatype.Uint64, outMeta, outData, rOutMeta, rOutData))
	assert.Equal(t, raw, rOutData.Bytes())
}

func TestReducedBitWidthMonotonicity(t *testing.T) {
	assert.Equal(t, 8, reducedBitWidth(200, 8))
	assert.Equal(t, 16, reducedBitWidth(60000, 8))
	assert.Equal(t, 64, reducedBitWidth(1<<40, 8))
}
