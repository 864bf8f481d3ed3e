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
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tiledb-go/filterpipeline/pkg/buffer"
	"github.com/tiledb-go/filterpipeline/pkg/datatype"
	"github.com/tiledb-go/filterpipeline/pkg/ferr"
)

func TestPositiveDeltaRoundTrip(t *testing.T) {
	vals := make([]uint64, 50)
	for i := range vals {
		vals[i] = uint64(i * 3)
	}
	raw := u64sToBytes(vals)

	f := NewPositiveDelta()
	inMeta, inData := buffer.NewFilterBuffer(), buffer.NewFilterBuffer()
	inData.AppendOwned(raw)
	outMeta, outData := buffer.NewFilterBuffer(), buffer.NewFilterBuffer()
	require.NoError(t, f.Forward(&Context{}, datatype.Uint64, inMeta, inData, outMeta, outData))

	rOutMeta, rOutData := buffer.NewFilterBuffer(), buffer.NewFilterBuffer()
	require.NoError(t, f.Reverse(&Context{}, datatype.Uint64, outMeta, outData, rOutMeta, rOutData))
	assert.Equal(t, raw, rOutData.Bytes())
}

// TestPositiveDeltaNonMonotone: a decreasing input must fail forward
// with NonPositiveDelta.
func TestPositiveDeltaNonMonotone(t *testing.T) {
	vals := []uint64{1000, 999, 998, 500}
	raw := u64sToBytes(vals)

	f := NewPositiveDelta()
	inMeta, inData := buffer.NewFilterBuffer(), buffer.NewFilterBuffer()
	inData.AppendOwned(raw)
	outMeta, outData := buffer.NewFilterBuffer(), buffer.NewFilterBuffer()
	err := f.Forward(&Context{}, datatype.Uint64, inMeta, inData, outMeta, outData)
	require.Error(t, err)
	var fe *ferr.Error
	require.True(t, errors.As(err, &fe))
	assert.Equal(t, ferr.NonPositiveDelta, fe.Kind)
}

func TestPositiveDeltaLegacyDateTimePassthrough(t *testing.T) {
	raw := []byte{1, 2, 3, 4, 5, 6, 7, 8}
	f := NewPositiveDelta()

	ctx := &Context{FormatVersion: 10}
	inMeta, inData := buffer.NewFilterBuffer(), buffer.NewFilterBuffer()
	inData.AppendOwned(raw)
	outMeta, outData := buffer.NewFilterBuffer(), buffer.NewFilterBuffer()
	require.NoError(t, f.Forward(ctx, datatype.DateTimeSecond, inMeta, inData, outMeta, outData))
	assert.Equal(t, raw, outData.Bytes())
}
