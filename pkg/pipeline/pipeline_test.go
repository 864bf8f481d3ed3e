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

func newFilter(t *testing.T, typ filter.Type) filter.Filter {
	t.Helper()
	f, err := filter.New(typ)
	require.NoError(t, err)
	return f
}

func TestAddRejectsIncompatibleChain(t *testing.T) {
	p := New(datatype.Uint64, 1024)
	require.NoError(t, p.Add(newFilter(t, filter.BitShuffle)))

	// BitShuffle emits bit-shuffled bytes still typed as the input dt;
	// ScaleFloat only accepts floating-point datatypes, so appending it
	// here must fail.
	err := p.Add(filter.NewScaleFloat())
	require.Error(t, err)
	fe, ok := err.(*ferr.Error)
	require.True(t, ok)
	assert.Equal(t, ferr.FilterChainIncompatible, fe.Kind)
	assert.Equal(t, 1, p.Len(), "a rejected Add must not mutate the pipeline")
}

func TestAddAcceptsCompatibleChain(t *testing.T) {
	p := New(datatype.Int64, 1024)
	require.NoError(t, p.Add(newFilter(t, filter.Delta)))
	require.NoError(t, p.Add(newFilter(t, filter.BitWidthReduction)))
	require.NoError(t, p.Add(newFilter(t, filter.ZStd)))
	assert.Equal(t, 3, p.Len())
	assert.NoError(t, p.Validate())
}

// TestStringRLEMustComeFirst: on a string attribute, RLE (and
// Dictionary) consume the whole value stream and are only valid as the
// chain's first filter; adding one behind another filter must fail
// with FilterChainIncompatible and leave the pipeline untouched.
func TestStringRLEMustComeFirst(t *testing.T) {
	for _, tag := range []filter.Type{filter.RLE, filter.Dictionary} {
		p := New(datatype.Char, 1024)
		require.NoError(t, p.Add(newFilter(t, filter.GZip)))

		err := p.Add(newFilter(t, tag))
		require.Error(t, err, "%s behind gzip on a string attribute", tag)
		fe, ok := err.(*ferr.Error)
		require.True(t, ok)
		assert.Equal(t, ferr.FilterChainIncompatible, fe.Kind)
		assert.Equal(t, 1, p.Len(), "a rejected Add must not mutate the pipeline")
	}
}

func TestStringRLEFirstIsAccepted(t *testing.T) {
	p := New(datatype.Char, 1024)
	require.NoError(t, p.Add(newFilter(t, filter.RLE)))
	require.NoError(t, p.Add(newFilter(t, filter.GZip)))
	assert.NoError(t, p.Validate())
}

// Non-string attributes carry no ordering restriction: RLE may sit
// anywhere in the chain.
func TestNonStringRLEAnywhere(t *testing.T) {
	p := New(datatype.Uint64, 1024)
	require.NoError(t, p.Add(newFilter(t, filter.ByteShuffle)))
	require.NoError(t, p.Add(newFilter(t, filter.RLE)))
	assert.NoError(t, p.Validate())
}

func TestValidateCatchesStringRLEOrder(t *testing.T) {
	p := New(datatype.Char, 1024)
	p.filters = []filter.Filter{newFilter(t, filter.GZip), newFilter(t, filter.Dictionary)}

	err := p.Validate()
	require.Error(t, err)
	fe, ok := err.(*ferr.Error)
	require.True(t, ok)
	assert.Equal(t, ferr.FilterChainIncompatible, fe.Kind)
}

func TestCloneIsIndependent(t *testing.T) {
	p := New(datatype.Float64, 4096)
	sf := filter.NewScaleFloat()
	require.NoError(t, sf.SetOption(filter.OptScaleFloatFactor, 0.5))
	require.NoError(t, p.Add(sf))

	clone := p.Clone()
	clonedSF := clone.Filters()[0]
	require.NoError(t, clonedSF.SetOption(filter.OptScaleFloatFactor, 2.0))

	orig, err := p.Filters()[0].GetOption(filter.OptScaleFloatFactor)
	require.NoError(t, err)
	assert.Equal(t, 0.5, orig, "cloning must deep-copy filter state")
}

func TestSetMaxChunkSizeZeroDisablesChunking(t *testing.T) {
	p := New(datatype.Uint8, 1024)
	p.SetMaxChunkSize(0)
	assert.Equal(t, uint32(0), p.MaxChunkSize())
}

func TestSetUseTileChunkingForcesSingleChunk(t *testing.T) {
	p := New(datatype.Uint8, 16)
	p.SetUseTileChunking(false)
	assert.False(t, p.resolvesChunking(false, 20))
}

func TestWebPForcesNonChunked(t *testing.T) {
	p := New(datatype.Uint8, 16)
	require.NoError(t, p.Add(newFilter(t, filter.Webp)))
	assert.False(t, p.resolvesChunking(false, 20))
}
