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
	"crypto/md5"
	"crypto/sha256"
	"crypto/subtle"

	log "github.com/sirupsen/logrus"

	"github.com/tiledb-go/filterpipeline/pkg/buffer"
	"github.com/tiledb-go/filterpipeline/pkg/datatype"
	"github.com/tiledb-go/filterpipeline/pkg/ferr"
)

// ChecksumFilter passes data through unchanged on forward while
// prepending a digest as metadata; reverse recomputes and
// compares, returning ChecksumMismatch on a miss unless the pipeline
// configuration's sm.skip_checksum_validation bypasses it. Both MD5 and
// SHA-256 variants share this implementation, dispatching on kind; the
// digest algorithms themselves are stdlib (crypto/md5, crypto/sha256):
// the two digest identities are baked into the on-disk format, so a
// faster general-purpose hash is not substitutable here.
type ChecksumFilter struct {
	kind Type
}

func NewChecksum(kind Type) *ChecksumFilter { return &ChecksumFilter{kind: kind} }

func (f *ChecksumFilter) Type() Type    { return f.kind }
func (f *ChecksumFilter) Clone() Filter { cp := *f; return &cp }

func (f *ChecksumFilter) Accepts(datatype.Type) bool { return true }
func (f *ChecksumFilter) OutputDatatype(in datatype.Type) datatype.Type { return in }

func (f *ChecksumFilter) GetOption(opt Option) (interface{}, error) {
	return nil, unknownOption(f.kind, opt)
}
func (f *ChecksumFilter) SetOption(opt Option, value interface{}) error {
	return unknownOption(f.kind, opt)
}
func (f *ChecksumFilter) MarshalMetadata() []byte            { return nil }
func (f *ChecksumFilter) UnmarshalMetadata(data []byte) error { return nil }

func (f *ChecksumFilter) digest(raw []byte) []byte {
	switch f.kind {
	case ChecksumSHA256:
		sum := sha256.Sum256(raw)
		return sum[:]
	default:
		sum := md5.Sum(raw)
		return sum[:]
	}
}

func (f *ChecksumFilter) Forward(ctx *Context, dt datatype.Type, inMeta, inData, outMeta, outData *buffer.FilterBuffer) error {
	outMeta.AppendAllFrom(inMeta)
	raw, err := inData.ReadExact(inData.Len() - inData.Pos())
	if err != nil {
		return ferr.Wrap(ferr.FormatCorrupt, f.kind.String()+": read input", err)
	}

	sum := f.digest(raw)
	hdr := outMeta.PrependNew(len(sum))
	hdr.Append(sum)

	outData.AppendOwned(raw)
	return nil
}

func (f *ChecksumFilter) Reverse(ctx *Context, dt datatype.Type, inMeta, inData, outMeta, outData *buffer.FilterBuffer) error {
	digestLen := md5.Size
	if f.kind == ChecksumSHA256 {
		digestLen = sha256.Size
	}
	want, err := inMeta.ReadExact(digestLen)
	if err != nil {
		return ferr.Wrap(ferr.FormatCorrupt, f.kind.String()+": read digest", err)
	}
	outMeta.AppendAllFrom(inMeta)

	raw, err := inData.ReadExact(inData.Len() - inData.Pos())
	if err != nil {
		return ferr.Wrap(ferr.FormatCorrupt, f.kind.String()+": read input", err)
	}

	if ctx != nil && ctx.SkipChecksumValidation {
		log.WithFields(log.Fields{"filter": f.kind.String(), "chunk_index": ctx.ChunkIndex}).
			Debug("skipping checksum validation per sm.skip_checksum_validation")
		outData.AppendOwned(raw)
		return nil
	}

	got := f.digest(raw)
	if subtle.ConstantTimeCompare(got, want) != 1 {
		if ctx != nil {
			log.WithFields(log.Fields{"filter": f.kind.String(), "chunk_index": ctx.ChunkIndex}).
				Warn("checksum mismatch on reverse")
		}
		return ferr.New(ferr.ChecksumMismatch, f.kind.String())
	}

	outData.AppendOwned(raw)
	return nil
}
