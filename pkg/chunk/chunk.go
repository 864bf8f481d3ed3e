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

// Package chunk computes the chunk boundaries a tile is split into
// before filtering: deterministic functions of tile size, cell size,
// and, for variable-length cells, the offsets tile.
package chunk

import (
	"math"

	"github.com/tiledb-go/filterpipeline/pkg/ferr"
)

// Chunk is a single boundary: [Offset, Offset+Length) into the plain
// tile it was cut from.
type Chunk struct {
	Offset int
	Length int
}

// FixedWidth cuts a fixed-cell-size tile: with maxChunkSize==0 the whole
// tile is one chunk; otherwise the nominal chunk size is the largest
// multiple of cellSize not exceeding maxChunkSize, and the tile is cut
// into chunks of that size with the remainder in the final chunk.
func FixedWidth(totalSize, cellSize int, maxChunkSize uint32) []Chunk {
	if totalSize == 0 {
		return nil
	}
	if maxChunkSize == 0 || cellSize <= 0 {
		return []Chunk{{Offset: 0, Length: totalSize}}
	}

	nominal := int(maxChunkSize) - (int(maxChunkSize) % cellSize)
	if nominal <= 0 {
		nominal = cellSize
	}

	var chunks []Chunk
	for off := 0; off < totalSize; off += nominal {
		length := nominal
		if off+length > totalSize {
			length = totalSize - off
		}
		chunks = append(chunks, Chunk{Offset: off, Length: length})
	}
	return chunks
}

// VariableLength computes cell-atomic boundaries for a
// variable-length tile, walking cells in order and accumulating a
// running chunk size against target (the pipeline's max_chunk_size),
// min (target/2), and max (target + target/2):
//
//   - a cell that would push the running size over target joins the
//     current chunk anyway (closing it immediately after) when the
//     running size is already small (<= min) or the joined size still
//     fits under max;
//   - otherwise a new chunk starts with that cell; if the cell alone
//     exceeds target it becomes its own chunk.
//
// cellStarts holds each cell's byte offset into the values buffer (its
// length is the cell count); totalSize is the values buffer's total
// length. This mirrors TileDB's get_var_chunk_sizes exactly, including
// its treatment of the final cell.
func VariableLength(cellStarts []uint64, totalSize int, target uint32) ([]Chunk, error) {
	if totalSize == 0 || len(cellStarts) == 0 {
		return nil, nil
	}
	if target == 0 {
		return []Chunk{{Offset: 0, Length: totalSize}}, nil
	}

	minSize := uint64(target) / 2
	maxSize := uint64(target) + uint64(target)/2

	cellSize := func(c int) uint64 {
		if c == len(cellStarts)-1 {
			return uint64(totalSize) - cellStarts[c]
		}
		return cellStarts[c+1] - cellStarts[c]
	}

	splits := []uint64{0}
	var current uint64
	for c := range cellStarts {
		cs := cellSize(c)
		if cs > math.MaxUint32 {
			return nil, ferr.New(ferr.ChunkSizeOverflow, "chunk: cell exceeds uint32 range")
		}
		newSize := current + cs
		if newSize <= uint64(target) {
			current = newSize
			continue
		}
		if newSize > math.MaxUint32 {
			return nil, ferr.New(ferr.ChunkSizeOverflow, "chunk: chunk size exceeds uint32 range")
		}
		if current <= minSize || newSize <= maxSize {
			splits = append(splits, cellStarts[c]+cs)
			current = 0
			continue
		}
		// start a new chunk with this cell
		splits = append(splits, cellStarts[c])
		if cs > uint64(target) {
			if c != len(cellStarts)-1 {
				splits = append(splits, cellStarts[c]+cs)
			}
			current = 0
		} else {
			current = cs
		}
	}

	chunks := make([]Chunk, 0, len(splits))
	for i := 0; i < len(splits)-1; i++ {
		chunks = append(chunks, Chunk{Offset: int(splits[i]), Length: int(splits[i+1] - splits[i])})
	}
	last := splits[len(splits)-1]
	if int(last) < totalSize {
		chunks = append(chunks, Chunk{Offset: int(last), Length: totalSize - int(last)})
	}
	return chunks, nil
}
