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

package pipeline

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tiledb-go/filterpipeline/pkg/datatype"
	"github.com/tiledb-go/filterpipeline/pkg/ferr"
	"github.com/tiledb-go/filterpipeline/pkg/filter"
)

// TestMarshalUnmarshalRoundTrip: a pipeline serialized then
// deserialized has the same ordered filter chain, same options, and
// validates against the same datatype.
func TestMarshalUnmarshalRoundTrip(t *testing.T) {
	p := New(datatype.Int32, 65536)
	bw := filter.NewBitWidthReduction()
	require.NoError(t, bw.SetOption(filter.OptBitWidthMaxWindow, uint32(4096)))
	require.NoError(t, p.Add(bw))
	require.NoError(t, p.Add(newFilter(t, filter.ZStd)))

	data := Marshal(p)
	got, err := Unmarshal(data, datatype.Int32)
	require.NoError(t, err)
	require.NoError(t, got.Validate())

	assert.Equal(t, p.MaxChunkSize(), got.MaxChunkSize())
	require.Equal(t, p.Len(), got.Len())
	assert.Equal(t, filter.BitWidthReduction, got.Filters()[0].Type())
	assert.Equal(t, filter.ZStd, got.Filters()[1].Type())

	gotWindow, err := got.Filters()[0].GetOption(filter.OptBitWidthMaxWindow)
	require.NoError(t, err)
	assert.Equal(t, uint32(4096), gotWindow)
}

func TestUnmarshalUnknownFilterTag(t *testing.T) {
	p := New(datatype.Uint8, 1024)
	require.NoError(t, p.Add(newFilter(t, filter.NoOp)))
	data := Marshal(p)
	// Corrupt the single filter's type tag byte (right after the 8-byte
	// header) to a value past the registry's highest tag.
	data[8] = 250

	_, err := Unmarshal(data, datatype.Uint8)
	require.Error(t, err)
	fe, ok := err.(*ferr.Error)
	require.True(t, ok)
	assert.Equal(t, ferr.UnknownFilter, fe.Kind)
}

// TestUnmarshalNoCompressionQuirk covers the backward-compat rule:
// a compression-family entry whose metadata's compressor-kind
// byte is the NoOp tag deserializes as NoOp, not as that compressor.
func TestUnmarshalNoCompressionQuirk(t *testing.T) {
	p := New(datatype.Uint8, 1024)
	gz := newFilter(t, filter.GZip)
	require.NoError(t, p.Add(gz))
	data := Marshal(p)

	// The compression filter's marshaled metadata begins with its own
	// kind byte; rewrite it to NoOp's tag (0) to
	// simulate the legacy Compression(NoCompression) encoding.
	metaStart := 8 + 1 + 4 // header + filter_type + metadata_len
	data[metaStart] = byte(filter.NoOp)

	got, err := Unmarshal(data, datatype.Uint8)
	require.NoError(t, err)
	require.Equal(t, 1, got.Len())
	assert.Equal(t, filter.NoOp, got.Filters()[0].Type())
}

func TestMarshalEmptyPipeline(t *testing.T) {
	p := New(datatype.Int8, 0)
	data := Marshal(p)
	got, err := Unmarshal(data, datatype.Int8)
	require.NoError(t, err)
	assert.Equal(t, 0, got.Len())
	assert.Equal(t, uint32(0), got.MaxChunkSize())
}
