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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tiledb-go/filterpipeline/pkg/buffer"
	"github.com/tiledb-go/filterpipeline/pkg/datatype"
)

func TestByteShuffleRoundTrip(t *testing.T) {
	vals := make([]uint64, 50)
	for i := range vals {
		vals[i] = uint64(i * i)
	}
	raw := u64sToBytes(vals)

	f := NewByteShuffle()
	inMeta, inData := buffer.NewFilterBuffer(), buffer.NewFilterBuffer()
	inData.AppendOwned(raw)
	outMeta, outData := buffer.NewFilterBuffer(), buffer.NewFilterBuffer()
	require.NoError(t, f.Forward(&Context{}, datatype.Uint64, inMeta, inData, outMeta, outData))
	assert.NotEqual(t, raw, outData.Bytes())

	rOutMeta, rOutData := buffer.NewFilterBuffer(), buffer.NewFilterBuffer()
	require.NoError(t, f.Reverse(&Context{}, datatype.Uint64, outMeta, outData, rOutMeta, rOutData))
	assert.Equal(t, raw, rOutData.Bytes())
}

func TestBitShuffleRoundTrip(t *testing.T) {
	vals := make([]uint64, 37)
	for i := range vals {
		vals[i] = uint64(i) * 0x0102030405
	}
	raw := u64sToBytes(vals)

	f := NewBitShuffle()
	inMeta, inData := buffer.NewFilterBuffer(), buffer.NewFilterBuffer()
	inData.AppendOwned(raw)
	outMeta, outData := buffer.NewFilterBuffer(), buffer.NewFilterBuffer()
	require.NoError(t, f.Forward(&Context{}, datatype.Uint64, inMeta, inData, outMeta, outData))

	rOutMeta, rOutData := buffer.NewFilterBuffer(), buffer.NewFilterBuffer()
	require.NoError(t, f.Reverse(&Context{}, datatype.Uint64, outMeta, outData, rOutMeta, rOutData))
	assert.Equal(t, raw, rOutData.Bytes())
}
