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
	"fmt"

	"github.com/tiledb-go/filterpipeline/pkg/datatype"
	"github.com/tiledb-go/filterpipeline/pkg/ferr"
	"github.com/tiledb-go/filterpipeline/pkg/filter"
)

// Pipeline is an ordered sequence of filters plus a max_chunk_size
// parameter. It is cheap to clone (Clone deep-copies every filter's
// parameters) and records the nominal datatype each filter in the
// chain is validated against.
type Pipeline struct {
	filters      []filter.Filter
	maxChunkSize uint32
	datatype     datatype.Type
	useChunking  bool
}

// New constructs an empty pipeline over the given nominal datatype with
// the default chunking behavior enabled.
func New(dt datatype.Type, maxChunkSize uint32) *Pipeline {
	return &Pipeline{datatype: dt, maxChunkSize: maxChunkSize, useChunking: true}
}

// Datatype returns the pipeline's nominal (attribute) datatype.
func (p *Pipeline) Datatype() datatype.Type { return p.datatype }

// MaxChunkSize returns the configured max_tile_chunk_size.
func (p *Pipeline) MaxChunkSize() uint32 { return p.maxChunkSize }

// SetMaxChunkSize updates max_tile_chunk_size; 0 disables chunking.
func (p *Pipeline) SetMaxChunkSize(n uint32) { p.maxChunkSize = n }

// SetUseTileChunking implements the use_tile_chunking=false escape hatch
// when false, the runner is forced to a single chunk regardless
// of MaxChunkSize.
func (p *Pipeline) SetUseTileChunking(use bool) { p.useChunking = use }

// Filters returns the pipeline's filters in order. Callers must not
// mutate the returned slice.
func (p *Pipeline) Filters() []filter.Filter { return p.filters }

// Len reports the number of filters in the pipeline.
func (p *Pipeline) Len() int { return len(p.filters) }

// checkStringFilterOrder enforces the chain-position rule for string
// pipelines: when a string attribute's chain contains RLE or
// Dictionary, that filter must be the first one applied — it consumes
// the whole value stream, so running it after another transform has
// already rewritten the bytes is rejected outright.
func checkStringFilterOrder(dt datatype.Type, filters []filter.Filter) error {
	if dt != datatype.Char || len(filters) < 2 {
		return nil
	}
	for _, t := range []filter.Type{filter.RLE, filter.Dictionary} {
		if filters[0].Type() == t {
			continue
		}
		for _, f := range filters[1:] {
			if f.Type() == t {
				return ferr.New(ferr.FilterChainIncompatible,
					fmt.Sprintf("%s filter must be the first filter to apply when used on a variable length string attribute", t))
			}
		}
	}
	return nil
}

// Add appends f to the pipeline and validates the resulting chain:
// each successive filter must accept the datatype its predecessor
// emits via OutputDatatype, and string pipelines keep RLE/Dictionary at
// the front. Returns FilterChainIncompatible without mutating the
// pipeline if the chain would become invalid.
func (p *Pipeline) Add(f filter.Filter) error {
	in := p.datatype
	for _, existing := range p.filters {
		in = existing.OutputDatatype(in)
	}
	if !f.Accepts(in) {
		return ferr.New(ferr.FilterChainIncompatible,
			fmt.Sprintf("%s does not accept %s", f.Type(), in))
	}
	p.filters = append(p.filters, f)
	if err := checkStringFilterOrder(p.datatype, p.filters); err != nil {
		p.filters = p.filters[:len(p.filters)-1]
		return err
	}
	return nil
}

// Validate re-checks the entire chain against the pipeline's nominal
// datatype, useful after deserialization.
func (p *Pipeline) Validate() error {
	if err := checkStringFilterOrder(p.datatype, p.filters); err != nil {
		return err
	}
	in := p.datatype
	for _, f := range p.filters {
		if !f.Accepts(in) {
			return ferr.New(ferr.FilterChainIncompatible,
				fmt.Sprintf("%s does not accept %s", f.Type(), in))
		}
		in = f.OutputDatatype(in)
	}
	return nil
}

// Clone deep-copies the pipeline: every filter is cloned via its own
// Clone, so mutating the clone's filter options never affects p.
func (p *Pipeline) Clone() *Pipeline {
	cp := &Pipeline{
		maxChunkSize: p.maxChunkSize,
		datatype:     p.datatype,
		useChunking:  p.useChunking,
		filters:      make([]filter.Filter, len(p.filters)),
	}
	for i, f := range p.filters {
		cp.filters[i] = f.Clone()
	}
	return cp
}

// resolvesChunking decides whether the tile may be split: WebP and,
// for format versions gated at 12/13, string-RLE/dictionary on
// variable-length
// strings require the non-chunked mode (a whole image or string stream
// must land in a single chunk).
func (p *Pipeline) resolvesChunking(variableLength bool, formatVersion uint32) bool {
	if !p.useChunking {
		return false
	}
	for _, f := range p.filters {
		switch f.Type() {
		case filter.Webp:
			return false
		case filter.RLE, filter.Dictionary:
			if variableLength && p.datatype == datatype.Char {
				threshold := uint32(12)
				if f.Type() == filter.Dictionary {
					threshold = 13
				}
				if formatVersion >= threshold {
					return false
				}
			}
		}
	}
	return true
}
