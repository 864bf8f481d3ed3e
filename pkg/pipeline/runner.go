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
	"context"
	"math"

	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/tiledb-go/filterpipeline/pkg/buffer"
	"github.com/tiledb-go/filterpipeline/pkg/chunk"
	"github.com/tiledb-go/filterpipeline/pkg/datatype"
	"github.com/tiledb-go/filterpipeline/pkg/ferr"
	"github.com/tiledb-go/filterpipeline/pkg/filter"
)

// Tile is the minimal collaborator contract this package needs from
// the array-schema/tile-object layer: the plain bytes to filter, plus
// either a fixed cell size or, for a
// variable-length attribute, the byte offset of every cell's start
// within Plain.
type Tile struct {
	Plain      []byte
	CellSize   int      // fixed-width cell size in bytes; ignored when CellStarts != nil
	CellStarts []uint64 // nil for fixed-width tiles
}

func (t *Tile) variable() bool { return t.CellStarts != nil }

type chunkResult struct {
	origSize     uint32
	filteredSize uint32
	metaSize     uint32
	meta         []byte
	data         []byte
}

func computeChunks(p *Pipeline, t *Tile, formatVersion uint32) ([]chunk.Chunk, error) {
	if len(t.Plain) == 0 {
		return nil, nil
	}
	if !p.resolvesChunking(t.variable(), formatVersion) {
		return []chunk.Chunk{{Offset: 0, Length: len(t.Plain)}}, nil
	}
	if t.variable() {
		return chunk.VariableLength(t.CellStarts, len(t.Plain), p.maxChunkSize)
	}
	return chunk.FixedWidth(len(t.Plain), t.CellSize, p.maxChunkSize), nil
}

// dtChain returns dtChain[i], the datatype filter i observes on its
// input, for i in [0, len(filters)]; dtChain[len(filters)] is the
// datatype the last filter emits.
func dtChain(p *Pipeline) []datatype.Type {
	chain := make([]datatype.Type, len(p.filters)+1)
	chain[0] = p.datatype
	for i, f := range p.filters {
		chain[i+1] = f.OutputDatatype(chain[i])
	}
	return chain
}

func runChunkForward(cfg *Config, p *Pipeline, chain []datatype.Type, plainBuf *buffer.Buffer, c chunk.Chunk, idx int) (chunkResult, error) {
	curData := buffer.NewFilterBuffer()
	curData.AppendView(plainBuf, c.Offset, c.Length)
	curMeta := buffer.NewFilterBuffer()

	for i, f := range p.filters {
		nextMeta := buffer.NewFilterBuffer()
		nextData := buffer.NewFilterBuffer()
		ctx := &filter.Context{
			SkipChecksumValidation: cfg.SkipChecksumValidation,
			FormatVersion:          cfg.FormatVersion,
			ChunkIndex:             idx,
		}
		if err := f.Forward(ctx, chain[i], curMeta, curData, nextMeta, nextData); err != nil {
			log.WithFields(log.Fields{"filter": f.Type().String(), "chunk_index": idx}).
				Warn("filter forward failed")
			return chunkResult{}, err
		}
		curMeta, curData = nextMeta, nextData
	}

	metaBytes := curMeta.Bytes()
	dataBytes := curData.Bytes()
	if len(metaBytes) > math.MaxUint32 || len(dataBytes) > math.MaxUint32 {
		return chunkResult{}, ferr.New(ferr.ChunkSizeOverflow, "pipeline: filtered chunk exceeds uint32")
	}

	return chunkResult{
		origSize:     uint32(c.Length),
		filteredSize: uint32(len(dataBytes)),
		metaSize:     uint32(len(metaBytes)),
		meta:         metaBytes,
		data:         dataBytes,
	}, nil
}

// Forward filters a tile for writing: it computes chunk boundaries,
// runs every chunk's filter chain in parallel via errgroup, and
// concatenates the results into the chunked framed layout. On success
// t.Plain is cleared — the tile now exposes only the filtered region.
func Forward(cfg *Config, p *Pipeline, t *Tile) ([]byte, error) {
	chunks, err := computeChunks(p, t, cfg.FormatVersion)
	if err != nil {
		return nil, err
	}
	if len(chunks) == 0 {
		out := buffer.New(8)
		out.WriteUint64(0)
		return out.Bytes(), nil
	}

	plainBuf := buffer.NewFromBytes(t.Plain)
	plainBuf.SetReadOnly()
	chain := dtChain(p)

	results := make([]chunkResult, len(chunks))
	eg, _ := errgroup.WithContext(context.Background())
	if cfg.WorkerCount > 0 {
		eg.SetLimit(cfg.WorkerCount)
	}
	for i, c := range chunks {
		i, c := i, c
		eg.Go(func() error {
			res, err := runChunkForward(cfg, p, chain, plainBuf, c, i)
			if err != nil {
				return err
			}
			results[i] = res
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}

	total := 8
	for _, r := range results {
		total += 12 + len(r.meta) + len(r.data)
	}
	out := buffer.New(total)
	out.WriteUint64(uint64(len(results)))
	for _, r := range results {
		out.WriteUint32(r.origSize)
		out.WriteUint32(r.filteredSize)
		out.WriteUint32(r.metaSize)
		if len(r.meta) > 0 {
			out.Append(r.meta)
		}
		if len(r.data) > 0 {
			out.Append(r.data)
		}
	}

	t.Plain = nil
	return out.Bytes(), nil
}

func runChunkReverse(cfg *Config, p *Pipeline, chain []datatype.Type, framedBuf *buffer.Buffer, e ChunkEntry, idx int, out []byte) error {
	curData := buffer.NewFilterBuffer()
	curData.AppendView(framedBuf, e.DataStart, int(e.FilteredSize))
	curMeta := buffer.NewFilterBuffer()
	curMeta.AppendView(framedBuf, e.MetadataStart, int(e.MetadataSize))

	for i := len(p.filters) - 1; i >= 0; i-- {
		f := p.filters[i]
		nextMeta := buffer.NewFilterBuffer()
		nextData := buffer.NewFilterBuffer()
		ctx := &filter.Context{
			SkipChecksumValidation: cfg.SkipChecksumValidation,
			FormatVersion:          cfg.FormatVersion,
			ChunkIndex:             idx,
		}
		if err := f.Reverse(ctx, chain[i], curMeta, curData, nextMeta, nextData); err != nil {
			return err
		}
		curMeta, curData = nextMeta, nextData
	}

	final := curData.Bytes()
	if uint32(len(final)) != e.OriginalSize {
		return ferr.New(ferr.FormatCorrupt, "pipeline: reverse produced unexpected chunk length")
	}
	copy(out[e.PlainOffset:e.PlainOffset+int(e.OriginalSize)], final)
	return nil
}

// Reverse unfilters a framed buffer: it parses the chunk data table,
// preallocates the plain tile, and runs every chunk's filters in
// reverse order in
// parallel. A failure in any chunk (e.g. ChecksumMismatch) is reported
// after all chunks finish, and the plain tile is never returned
// partially written — the caller gets either the full reconstructed
// tile or no tile at all.
func Reverse(cfg *Config, p *Pipeline, framed []byte) ([]byte, error) {
	table, err := BuildChunkTable(framed)
	if err != nil {
		return nil, err
	}
	if len(table.Entries) == 0 {
		return nil, nil
	}

	framedBuf := buffer.NewFromBytes(framed)
	framedBuf.SetReadOnly()
	chain := dtChain(p)

	out := make([]byte, table.PlainTotal)
	eg, _ := errgroup.WithContext(context.Background())
	if cfg.WorkerCount > 0 {
		eg.SetLimit(cfg.WorkerCount)
	}
	for i, e := range table.Entries {
		i, e := i, e
		eg.Go(func() error {
			return runChunkReverse(cfg, p, chain, framedBuf, e, i, out)
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}
