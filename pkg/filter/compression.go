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

package filter

import (
	"bytes"
	"encoding/binary"
	"io"

	"github.com/dolthub/gozstd"
	"github.com/dsnet/compress/bzip2"
	"github.com/klauspost/compress/gzip"
	"github.com/pierrec/lz4/v4"

	"github.com/tiledb-go/filterpipeline/pkg/buffer"
	"github.com/tiledb-go/filterpipeline/pkg/datatype"
	"github.com/tiledb-go/filterpipeline/pkg/ferr"
)

// kindForType maps a registry Type tag onto the compressor kind a
// compressionFilter dispatches on. Every compressor-family filter in the
// registry shares this one implementation, mirroring how TileDB
// enumerates compressor kinds under a single Compression filter family.
func kindForType(t Type) Type { return t }

const defaultCompressionLevel = -1 // sentinel meaning "codec default"

// compressionFilter implements the compressor family: gzip, zstd, lz4,
// bzip2, RLE, dictionary, delta, and double-delta. Kind selects which
// codec this instance runs; level and the reinterpret datatype are the
// only per-instance tunables.
type compressionFilter struct {
	kind        Type
	level       int32
	reinterpret datatype.Type
	hasReinterp bool
}

func newCompressionFilter(kind Type) *compressionFilter {
	return &compressionFilter{kind: kind, level: defaultCompressionLevel}
}

func (f *compressionFilter) Type() Type { return f.kind }

func (f *compressionFilter) Clone() Filter {
	cp := *f
	return &cp
}

func (f *compressionFilter) Accepts(in datatype.Type) bool {
	switch f.kind {
	case Delta, DoubleDelta:
		dt := in
		if f.hasReinterp {
			dt = f.reinterpret
		}
		return dt.IsInteger()
	case Dictionary, RLE:
		return true // operate over raw bytes; offsets are never consumed here
	default:
		return true
	}
}

func (f *compressionFilter) OutputDatatype(in datatype.Type) datatype.Type {
	if f.hasReinterp {
		return f.reinterpret
	}
	return in
}

func (f *compressionFilter) GetOption(opt Option) (interface{}, error) {
	switch opt {
	case OptCompressionLevel:
		return f.level, nil
	case OptCompressionReinterpretDT:
		return f.reinterpret, nil
	default:
		return nil, unknownOption(f.kind, opt)
	}
}

func (f *compressionFilter) SetOption(opt Option, value interface{}) error {
	switch opt {
	case OptCompressionLevel:
		lvl, ok := value.(int32)
		if !ok {
			return invalidOption(f.kind, opt, "expected int32")
		}
		f.level = lvl
		return nil
	case OptCompressionReinterpretDT:
		dt, ok := value.(datatype.Type)
		if !ok {
			return invalidOption(f.kind, opt, "expected datatype.Type")
		}
		if f.kind != Delta && f.kind != DoubleDelta {
			return invalidOption(f.kind, opt, "reinterpret datatype only applies to delta/double-delta")
		}
		f.reinterpret = dt
		f.hasReinterp = true
		return nil
	default:
		return unknownOption(f.kind, opt)
	}
}

// noReinterpretDT marks an absent reinterpret datatype on disk, the
// counterpart of the reference format's ANY datatype value.
const noReinterpretDT = 0xFF

func (f *compressionFilter) MarshalMetadata() []byte {
	b := buffer.New(16)
	b.Append([]byte{byte(f.kind)})
	var lvl [4]byte
	binary.LittleEndian.PutUint32(lvl[:], uint32(f.level))
	b.Append(lvl[:])
	if f.kind == Delta || f.kind == DoubleDelta {
		rdt := byte(noReinterpretDT)
		if f.hasReinterp {
			rdt = byte(f.reinterpret)
		}
		b.Append([]byte{rdt})
	}
	return b.Bytes()
}

func (f *compressionFilter) UnmarshalMetadata(data []byte) error {
	if len(data) < 5 {
		return ferr.New(ferr.FormatCorrupt, "compression filter metadata too short")
	}
	f.kind = Type(data[0])
	f.level = int32(binary.LittleEndian.Uint32(data[1:5]))
	// older writers omit the reinterpret byte entirely; absent or
	// sentinel means no reinterpretation
	if (f.kind == Delta || f.kind == DoubleDelta) && len(data) >= 6 && data[5] != noReinterpretDT {
		f.hasReinterp = true
		f.reinterpret = datatype.Type(data[5])
	}
	return nil
}

func (f *compressionFilter) Forward(ctx *Context, dt datatype.Type, inMeta, inData, outMeta, outData *buffer.FilterBuffer) error {
	outMeta.AppendAllFrom(inMeta)
	raw, err := inData.ReadExact(inData.Len() - inData.Pos())
	if err != nil {
		return ferr.Wrap(ferr.FormatCorrupt, "compression forward: read input", err)
	}

	header := outMeta.PrependNew(4)
	header.WriteUint32(uint32(len(raw)))

	effectiveDT := dt
	if f.hasReinterp {
		effectiveDT = f.reinterpret
	}

	var encoded []byte
	switch f.kind {
	case GZip:
		encoded, err = gzipCompress(raw, int(f.level))
	case ZStd:
		encoded = zstdCompress(raw, int(f.level))
	case LZ4:
		encoded, err = lz4Compress(raw)
	case BZip2:
		encoded, err = bzip2Compress(raw, int(f.level))
	case RLE:
		encoded = rleEncode(raw)
	case Dictionary:
		encoded = dictionaryEncode(raw, effectiveDT.ByteWidth())
	case Delta:
		encoded, err = deltaEncode(raw, effectiveDT)
	case DoubleDelta:
		encoded, err = doubleDeltaEncode(raw, effectiveDT)
	default:
		encoded = raw
	}
	if err != nil {
		return ferr.Wrap(ferr.CodecFailure, f.kind.String(), err)
	}

	outData.AppendOwned(encoded)
	return nil
}

func (f *compressionFilter) Reverse(ctx *Context, dt datatype.Type, inMeta, inData, outMeta, outData *buffer.FilterBuffer) error {
	hdr, err := inMeta.ReadExact(4)
	if err != nil {
		return ferr.Wrap(ferr.FormatCorrupt, "compression reverse: read header", err)
	}
	origLen := binary.LittleEndian.Uint32(hdr)
	outMeta.AppendAllFrom(inMeta)

	raw, err := inData.ReadExact(inData.Len() - inData.Pos())
	if err != nil {
		return ferr.Wrap(ferr.FormatCorrupt, "compression reverse: read input", err)
	}

	effectiveDT := dt
	if f.hasReinterp {
		effectiveDT = f.reinterpret
	}

	var decoded []byte
	switch f.kind {
	case GZip:
		decoded, err = gzipDecompress(raw, int(origLen))
	case ZStd:
		decoded, err = zstdDecompress(raw, int(origLen))
	case LZ4:
		decoded, err = lz4Decompress(raw, int(origLen))
	case BZip2:
		decoded, err = bzip2Decompress(raw, int(origLen))
	case RLE:
		decoded = rleDecode(raw, int(origLen))
	case Dictionary:
		decoded = dictionaryDecode(raw, effectiveDT.ByteWidth(), int(origLen))
	case Delta:
		decoded, err = deltaDecode(raw, effectiveDT, int(origLen))
	case DoubleDelta:
		decoded, err = doubleDeltaDecode(raw, effectiveDT, int(origLen))
	default:
		decoded = raw
	}
	if err != nil {
		return ferr.Wrap(ferr.CodecFailure, f.kind.String(), err)
	}

	outData.AppendOwned(decoded)
	return nil
}

// --- gzip (github.com/klauspost/compress/gzip) ---

func gzipCompress(raw []byte, level int) ([]byte, error) {
	if level == defaultCompressionLevel {
		level = gzip.DefaultCompression
	}
	var buf bytes.Buffer
	w, err := gzip.NewWriterLevel(&buf, level)
	if err != nil {
		return nil, err
	}
	if _, err := w.Write(raw); err != nil {
		return nil, err
	}
	if err := w.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func gzipDecompress(data []byte, origLen int) ([]byte, error) {
	r, err := gzip.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	defer r.Close()
	out := make([]byte, origLen)
	if _, err := io.ReadFull(r, out); err != nil && err != io.EOF {
		return nil, err
	}
	return out, nil
}

// --- zstd (github.com/dolthub/gozstd) ---

func zstdCompress(raw []byte, level int) []byte {
	if level == defaultCompressionLevel {
		return gozstd.Compress(nil, raw)
	}
	return gozstd.CompressLevel(nil, raw, level)
}

func zstdDecompress(data []byte, origLen int) ([]byte, error) {
	return gozstd.Decompress(make([]byte, 0, origLen), data)
}

// --- lz4 (github.com/pierrec/lz4/v4) ---

func lz4Compress(raw []byte) ([]byte, error) {
	var c lz4.Compressor
	dst := make([]byte, lz4.CompressBlockBound(len(raw)))
	n, err := c.CompressBlock(raw, dst)
	if err != nil {
		return nil, err
	}
	if n == 0 {
		// incompressible per lz4's own definition; store raw with a
		// sentinel length prefix of 0 so Decompress knows to copy through
		return append([]byte{0}, raw...), nil
	}
	return append([]byte{1}, dst[:n]...), nil
}

func lz4Decompress(data []byte, origLen int) ([]byte, error) {
	if len(data) == 0 {
		return nil, nil
	}
	if data[0] == 0 {
		return data[1:], nil
	}
	dst := make([]byte, origLen)
	n, err := lz4.UncompressBlock(data[1:], dst)
	if err != nil {
		return nil, err
	}
	return dst[:n], nil
}

// --- bzip2 (github.com/dsnet/compress/bzip2) ---

func bzip2Compress(raw []byte, level int) ([]byte, error) {
	var buf bytes.Buffer
	cfg := &bzip2.WriterConfig{}
	if level != defaultCompressionLevel {
		cfg.Level = level
	}
	w, err := bzip2.NewWriter(&buf, cfg)
	if err != nil {
		return nil, err
	}
	if _, err := w.Write(raw); err != nil {
		return nil, err
	}
	if err := w.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func bzip2Decompress(data []byte, origLen int) ([]byte, error) {
	r, err := bzip2.NewReader(bytes.NewReader(data), nil)
	if err != nil {
		return nil, err
	}
	defer r.Close()
	out := make([]byte, origLen)
	if _, err := io.ReadFull(r, out); err != nil && err != io.EOF {
		return nil, err
	}
	return out, nil
}
