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
	"github.com/tiledb-go/filterpipeline/pkg/datatype"
	"github.com/tiledb-go/filterpipeline/pkg/ferr"
	"github.com/tiledb-go/filterpipeline/pkg/filter"
)

// inCompressionFamily reports the filter type tags whose metadata's first
// byte is itself a redundant copy of the compressor kind — the field the
// legacy Compression(NoCompression)/NoOp quirk below inspects.
func inCompressionFamily(t filter.Type) bool {
	switch t {
	case filter.GZip, filter.ZStd, filter.LZ4, filter.RLE, filter.BZip2,
		filter.DoubleDelta, filter.Dictionary, filter.Delta:
		return true
	default:
		return false
	}
}

// Marshal serializes a pipeline to its on-disk form: a
// max_chunk_size header, a filter count, then one filter_entry per
// filter in order.
func Marshal(p *Pipeline) []byte {
	b := buffer.New(16 + 8*len(p.filters))
	b.WriteUint32(p.maxChunkSize)
	b.WriteUint32(uint32(len(p.filters)))
	for _, f := range p.filters {
		b.Append([]byte{byte(f.Type())})
		meta := f.MarshalMetadata()
		b.WriteUint32(uint32(len(meta)))
		if len(meta) > 0 {
			b.Append(meta)
		}
	}
	return b.Bytes()
}

// Unmarshal deserializes a pipeline from its on-disk form, enforcing
// the exact-consumption rule (a filter must consume precisely its
// declared metadata_len) and the UnknownFilter failure for tags outside
// the registry. dt is the attribute datatype the reconstituted pipeline
// is validated against.
func Unmarshal(data []byte, dt datatype.Type) (*Pipeline, error) {
	src := buffer.NewFromBytes(data)

	maxChunkSize, err := src.ReadUint32()
	if err != nil {
		return nil, ferr.Wrap(ferr.FormatCorrupt, "pipeline: read max_chunk_size", err)
	}
	numFilters, err := src.ReadUint32()
	if err != nil {
		return nil, ferr.Wrap(ferr.FormatCorrupt, "pipeline: read num_filters", err)
	}

	p := New(dt, maxChunkSize)
	for i := uint32(0); i < numFilters; i++ {
		tagByte, err := src.ReadExact(1)
		if err != nil {
			return nil, ferr.Wrap(ferr.FormatCorrupt, "pipeline: read filter_type", err)
		}
		tag := filter.Type(tagByte[0])

		metaLen, err := src.ReadUint32()
		if err != nil {
			return nil, ferr.Wrap(ferr.FormatCorrupt, "pipeline: read metadata_len", err)
		}
		meta, err := src.ReadExact(int(metaLen))
		if err != nil {
			return nil, ferr.Wrap(ferr.FormatCorrupt, "pipeline: truncated filter_metadata", err)
		}

		// Backward-compatibility quirk: a Compression(NoCompression)
		// entry written by an older format version — a compression-family
		// tag whose internal compressor-kind byte is the NoOp tag itself —
		// is read back as NoOp.
		if inCompressionFamily(tag) && len(meta) > 0 && filter.Type(meta[0]) == filter.NoOp {
			p.filters = append(p.filters, filter.NewNoOp())
			continue
		}

		f, err := filter.New(tag)
		if err != nil {
			return nil, err
		}
		if err := f.UnmarshalMetadata(meta); err != nil {
			return nil, err
		}
		// Bytes past what the filter's own layout re-encodes to were not
		// consumed by it.
		if len(meta) > len(f.MarshalMetadata()) {
			return nil, ferr.New(ferr.FormatCorrupt, "pipeline: filter_metadata has unconsumed trailing bytes")
		}
		p.filters = append(p.filters, f)
	}
	return p, nil
}
