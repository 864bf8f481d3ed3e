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

// Package filter implements the individual pipeline transforms: the
// shared Filter contract, the type-tag registry, and one file per
// transform family.
package filter

import (
	"github.com/tiledb-go/filterpipeline/pkg/buffer"
	"github.com/tiledb-go/filterpipeline/pkg/datatype"
)

// Type is the on-disk filter type tag. Values are stable; never
// renumber an existing entry.
type Type uint8

const (
	NoOp Type = iota
	GZip
	ZStd
	LZ4
	RLE
	BZip2
	DoubleDelta
	BitWidthReduction
	BitShuffle
	ByteShuffle
	PositiveDelta
	InternalAES256GCM
	ChecksumMD5
	ChecksumSHA256
	Dictionary
	ScaleFloat
	Xor
	Deprecated
	Webp
	Delta
	typeCount // sentinel; any tag >= typeCount is invalid
)

// Valid reports whether t is a recognized filter type tag.
func (t Type) Valid() bool { return t < typeCount }

func (t Type) String() string {
	switch t {
	case NoOp:
		return "noop"
	case GZip:
		return "gzip"
	case ZStd:
		return "zstd"
	case LZ4:
		return "lz4"
	case RLE:
		return "rle"
	case BZip2:
		return "bzip2"
	case DoubleDelta:
		return "double_delta"
	case BitWidthReduction:
		return "bit_width_reduction"
	case BitShuffle:
		return "bit_shuffle"
	case ByteShuffle:
		return "byte_shuffle"
	case PositiveDelta:
		return "positive_delta"
	case InternalAES256GCM:
		return "aes256gcm"
	case ChecksumMD5:
		return "checksum_md5"
	case ChecksumSHA256:
		return "checksum_sha256"
	case Dictionary:
		return "dictionary"
	case ScaleFloat:
		return "scale_float"
	case Xor:
		return "xor"
	case Deprecated:
		return "deprecated"
	case Webp:
		return "webp"
	case Delta:
		return "delta"
	default:
		return "unknown"
	}
}

// Option identifies a filter-specific tunable.
type Option string

const (
	OptBitWidthMaxWindow         Option = "bit_width_max_window"
	OptPositiveDeltaMaxWindow    Option = "positive_delta_max_window"
	OptCompressionLevel          Option = "compression_level"
	OptCompressionReinterpretDT  Option = "compression_reinterpret_datatype"
	OptScaleFloatFactor          Option = "scale_float_factor"
	OptScaleFloatOffset          Option = "scale_float_offset"
	OptScaleFloatByteWidth       Option = "scale_float_byte_width"
	OptWebpQuality               Option = "webp_quality"
	OptWebpInputFormat           Option = "webp_input_format"
	OptWebpLossless              Option = "webp_lossless"
)

// Context carries per-run configuration and diagnostics visible to every
// filter invocation: whether checksum validation may be skipped on
// reverse, the chunk index (for logging), and the format version the
// tile was written under (filters gate legacy behavior on this).
type Context struct {
	SkipChecksumValidation bool
	FormatVersion          uint32
	ChunkIndex             int
}

// Filter is the uniform forward/reverse contract every transform
// implements. Forward consumes (inputMetadata, inputData) and produces
// (outputMetadata, outputData); Reverse exactly inverts it. Implementions
// must not mutate their input buffers — outputs may be zero-copy views
// over the input when the transform is a pass-through.
type Filter interface {
	Type() Type
	Clone() Filter

	// Accepts reports whether this filter can consume the given input
	// datatype.
	Accepts(in datatype.Type) bool

	// OutputDatatype reports the datatype the next filter in the chain
	// will observe; defaults to identity for data-preserving
	// filters.
	OutputDatatype(in datatype.Type) datatype.Type

	Forward(ctx *Context, dt datatype.Type, inMeta, inData, outMeta, outData *buffer.FilterBuffer) error
	Reverse(ctx *Context, dt datatype.Type, inMeta, inData, outMeta, outData *buffer.FilterBuffer) error

	GetOption(opt Option) (interface{}, error)
	SetOption(opt Option, value interface{}) error

	// MarshalMetadata returns this filter's on-disk metadata bytes;
	// UnmarshalMetadata restores a filter's configuration from them.
	MarshalMetadata() []byte
	UnmarshalMetadata(data []byte) error
}

// passThrough forwards the entirety of inData into outData as zero-copy
// views; used by filters that decline to act on an unsupported datatype
// and by NoOp.
func passThrough(inData, outData *buffer.FilterBuffer) {
	outData.AppendAllFrom(inData)
}
