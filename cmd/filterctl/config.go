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

package main

import (
	"fmt"

	"github.com/BurntSushi/toml"

	"github.com/tiledb-go/filterpipeline/pkg/datatype"
	"github.com/tiledb-go/filterpipeline/pkg/filter"
)

// runConfig is filterctl's TOML run file: the attribute datatype and
// chunking parameters for a Pipeline, its ordered filter chain, and the
// optional AES-256-GCM key material a filter in that chain may need.
type runConfig struct {
	Datatype               string       `toml:"datatype"`
	CellSize               int          `toml:"cell_size"`
	MaxChunkSize           uint32       `toml:"max_chunk_size"`
	WorkerCount            int          `toml:"worker_count"`
	FormatVersion          uint32       `toml:"format_version"`
	SkipChecksumValidation bool         `toml:"skip_checksum_validation"`
	KeyFile                string       `toml:"key_file"`
	Filters                []filterSpec `toml:"filter"`
}

type filterSpec struct {
	Name string `toml:"name"`

	CompressionLevel int32 `toml:"compression_level"`

	BitWidthMaxWindow      uint32  `toml:"bit_width_max_window"`
	PositiveDeltaMaxWindow uint32  `toml:"positive_delta_max_window"`
	ScaleFloatFactor       float64 `toml:"scale_float_factor"`
	ScaleFloatOffset       float64 `toml:"scale_float_offset"`
	ScaleFloatByteWidth    uint64  `toml:"scale_float_byte_width"`
}

func loadRunConfig(path string) (*runConfig, error) {
	var cfg runConfig
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return nil, fmt.Errorf("filterctl: decode config %s: %w", path, err)
	}
	return &cfg, nil
}

var datatypesByName = map[string]datatype.Type{
	"int8": datatype.Int8, "uint8": datatype.Uint8,
	"int16": datatype.Int16, "uint16": datatype.Uint16,
	"int32": datatype.Int32, "uint32": datatype.Uint32,
	"int64": datatype.Int64, "uint64": datatype.Uint64,
	"float32": datatype.Float32, "float64": datatype.Float64,
	"char": datatype.Char,
}

func parseDatatype(name string) (datatype.Type, error) {
	dt, ok := datatypesByName[name]
	if !ok {
		return 0, fmt.Errorf("filterctl: unknown datatype %q", name)
	}
	return dt, nil
}

var filterConstructorsByName = map[string]filter.Type{
	"noop": filter.NoOp, "gzip": filter.GZip, "zstd": filter.ZStd, "lz4": filter.LZ4,
	"rle": filter.RLE, "bzip2": filter.BZip2, "double_delta": filter.DoubleDelta,
	"bit_width_reduction": filter.BitWidthReduction, "bit_shuffle": filter.BitShuffle,
	"byte_shuffle": filter.ByteShuffle, "positive_delta": filter.PositiveDelta,
	"aes256gcm": filter.InternalAES256GCM, "checksum_md5": filter.ChecksumMD5,
	"checksum_sha256": filter.ChecksumSHA256, "dictionary": filter.Dictionary,
	"scale_float": filter.ScaleFloat, "xor": filter.Xor, "webp": filter.Webp,
	"delta": filter.Delta,
}

// buildFilter constructs and configures the filter named in spec from
// the registry, applying whichever options spec sets.
func buildFilter(spec filterSpec, key []byte) (filter.Filter, error) {
	tag, ok := filterConstructorsByName[spec.Name]
	if !ok {
		return nil, fmt.Errorf("filterctl: unknown filter %q", spec.Name)
	}

	var f filter.Filter
	var err error
	if tag == filter.InternalAES256GCM {
		f = filter.NewAES256GCM(key)
	} else {
		f, err = filter.New(tag)
		if err != nil {
			return nil, err
		}
	}

	switch tag {
	case filter.GZip, filter.ZStd, filter.LZ4, filter.BZip2, filter.RLE, filter.Dictionary, filter.Delta, filter.DoubleDelta:
		if spec.CompressionLevel != 0 {
			if err := f.SetOption(filter.OptCompressionLevel, spec.CompressionLevel); err != nil {
				return nil, err
			}
		}
	case filter.BitWidthReduction:
		if spec.BitWidthMaxWindow != 0 {
			if err := f.SetOption(filter.OptBitWidthMaxWindow, spec.BitWidthMaxWindow); err != nil {
				return nil, err
			}
		}
	case filter.PositiveDelta:
		if spec.PositiveDeltaMaxWindow != 0 {
			if err := f.SetOption(filter.OptPositiveDeltaMaxWindow, spec.PositiveDeltaMaxWindow); err != nil {
				return nil, err
			}
		}
	case filter.ScaleFloat:
		if spec.ScaleFloatFactor != 0 {
			if err := f.SetOption(filter.OptScaleFloatFactor, spec.ScaleFloatFactor); err != nil {
				return nil, err
			}
		}
		if err := f.SetOption(filter.OptScaleFloatOffset, spec.ScaleFloatOffset); err != nil {
			return nil, err
		}
		if spec.ScaleFloatByteWidth != 0 {
			if err := f.SetOption(filter.OptScaleFloatByteWidth, spec.ScaleFloatByteWidth); err != nil {
				return nil, err
			}
		}
	}

	return f, nil
}
