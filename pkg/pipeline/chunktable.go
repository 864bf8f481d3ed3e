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
	"github.com/tiledb-go/filterpipeline/pkg/buffer"
	"github.com/tiledb-go/filterpipeline/pkg/ferr"
)

// ChunkEntry is one row of the reverse-side chunk data table: the
// byte spans of a chunk's metadata and filtered data within the framed
// buffer, its original (plain) size, and the offset that size is
// targeted at in the reconstituted plain tile.
type ChunkEntry struct {
	OriginalSize  uint32
	FilteredSize  uint32
	MetadataSize  uint32
	MetadataStart int
	DataStart     int
	PlainOffset   int
}

// ChunkTable is the parsed index of a framed filtered buffer, built by
// a single sequential scan before any chunk content is touched.
type ChunkTable struct {
	Entries    []ChunkEntry
	PlainTotal int
}

// BuildChunkTable scans framed (the chunked layout emitted by Forward)
// and returns its chunk table, or FormatCorrupt
// if the leading count or any chunk header doesn't fit within framed.
func BuildChunkTable(framed []byte) (*ChunkTable, error) {
	src := buffer.NewFromBytes(framed)
	numChunks, err := src.ReadUint64()
	if err != nil {
		return nil, ferr.Wrap(ferr.FormatCorrupt, "chunk table: read num_chunks", err)
	}

	table := &ChunkTable{Entries: make([]ChunkEntry, 0, numChunks)}
	plainOffset := 0
	for i := uint64(0); i < numChunks; i++ {
		hdr, err := src.ReadExact(12)
		if err != nil {
			return nil, ferr.Wrap(ferr.FormatCorrupt, "chunk table: truncated chunk header", err)
		}
		origSize := leUint32(hdr[0:4])
		filteredSize := leUint32(hdr[4:8])
		metaSize := leUint32(hdr[8:12])

		metaStart := src.Pos()
		if _, err := src.ReadExact(int(metaSize)); err != nil {
			return nil, ferr.Wrap(ferr.FormatCorrupt, "chunk table: truncated metadata", err)
		}
		dataStart := src.Pos()
		if _, err := src.ReadExact(int(filteredSize)); err != nil {
			return nil, ferr.Wrap(ferr.FormatCorrupt, "chunk table: truncated data", err)
		}

		table.Entries = append(table.Entries, ChunkEntry{
			OriginalSize:  origSize,
			FilteredSize:  filteredSize,
			MetadataSize:  metaSize,
			MetadataStart: metaStart,
			DataStart:     dataStart,
			PlainOffset:   plainOffset,
		})
		plainOffset += int(origSize)
	}
	table.PlainTotal = plainOffset
	return table, nil
}

func leUint32(b []byte) uint32 {
	return uint32(b[0]) | uint32(b[1])<<8 | uint32(b[2])<<16 | uint32(b[3])<<24
}
