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

package chunk

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFixedWidth(t *testing.T) {
	chunks := FixedWidth(800, 8, 80)
	require.Len(t, chunks, 10)
	for _, c := range chunks {
		require.Equal(t, 80, c.Length)
	}
	require.Equal(t, 0, chunks[0].Offset)
	require.Equal(t, 720, chunks[9].Offset)
}

func TestFixedWidthRemainder(t *testing.T) {
	chunks := FixedWidth(100, 8, 80)
	require.Len(t, chunks, 2)
	require.Equal(t, 80, chunks[0].Length)
	require.Equal(t, 20, chunks[1].Length)
}

func TestFixedWidthNoChunking(t *testing.T) {
	chunks := FixedWidth(800, 8, 0)
	require.Len(t, chunks, 1)
	require.Equal(t, 800, chunks[0].Length)
}

// TestVariableLengthIrregularCells is ported from TileDB's
// "Filter: Test empty pipeline var sized" unit test: a 15-cell,
// 800-byte values buffer with an irregular cell-size sequence and
// target chunk size 80 must split into exactly the nine chunks below.
func TestVariableLengthIrregularCells(t *testing.T) {
	cellSizes := []uint64{32, 80, 48, 88, 56, 72, 8, 80, 160, 16, 16, 16, 16, 16, 96}
	cellStarts := make([]uint64, len(cellSizes))
	var offset uint64
	for i, sz := range cellSizes {
		cellStarts[i] = offset
		offset += sz
	}
	require.EqualValues(t, 800, offset)

	chunks, err := VariableLength(cellStarts, 800, 80)
	require.NoError(t, err)

	wantSizes := []int{112, 48, 88, 56, 80, 80, 160, 80, 96}
	require.Len(t, chunks, len(wantSizes))
	total := 0
	for i, c := range chunks {
		require.Equal(t, wantSizes[i], c.Length, "chunk %d", i)
		require.Equal(t, total, c.Offset, "chunk %d offset", i)
		total += c.Length
	}
	require.Equal(t, 800, total)
}

func TestVariableLengthNoChunking(t *testing.T) {
	chunks, err := VariableLength([]uint64{0, 10, 20}, 30, 0)
	require.NoError(t, err)
	require.Len(t, chunks, 1)
	require.Equal(t, 30, chunks[0].Length)
}

func TestVariableLengthOverflow(t *testing.T) {
	_, err := VariableLength([]uint64{0}, 1<<40, 80)
	require.Error(t, err)
}
