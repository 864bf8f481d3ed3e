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
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/binary"
	"io"

	"github.com/tiledb-go/filterpipeline/pkg/buffer"
	"github.com/tiledb-go/filterpipeline/pkg/datatype"
	"github.com/tiledb-go/filterpipeline/pkg/ferr"
)

const (
	aesGCMIVLen    = 12
	aesGCMTagLen   = 16
	aesGCMMaxPlain = 32 << 20 // cap per sub-part, well under the AEAD's practical limit
)

// AES256GCMFilter is the authenticated-encryption stage. The
// key is held by reference on the filter instance and is never
// serialized into the pipeline's on-disk metadata, which stays empty —
// a caller must supply the same key on both the
// writing and the reading pipeline. Forward splits the chunk into
// sub-parts bounded by aesGCMMaxPlain and emits, per sub-part,
// plaintext/ciphertext lengths, a fresh random IV, and the GCM tag.
type AES256GCMFilter struct {
	key []byte
}

func NewAES256GCM(key []byte) *AES256GCMFilter { return &AES256GCMFilter{key: key} }

func (f *AES256GCMFilter) Type() Type { return InternalAES256GCM }

func (f *AES256GCMFilter) Clone() Filter {
	cp := &AES256GCMFilter{key: make([]byte, len(f.key))}
	copy(cp.key, f.key)
	return cp
}

func (f *AES256GCMFilter) Accepts(datatype.Type) bool { return true }
func (f *AES256GCMFilter) OutputDatatype(in datatype.Type) datatype.Type { return in }

func (f *AES256GCMFilter) GetOption(opt Option) (interface{}, error) {
	return nil, unknownOption(f.Type(), opt)
}
func (f *AES256GCMFilter) SetOption(opt Option, value interface{}) error {
	return unknownOption(f.Type(), opt)
}
func (f *AES256GCMFilter) MarshalMetadata() []byte            { return nil }
func (f *AES256GCMFilter) UnmarshalMetadata(data []byte) error { return nil }

// SetKey installs the 32-byte AES-256 key this filter instance uses.
// Keys never travel through MarshalMetadata/UnmarshalMetadata; a
// caller building a pipeline from deserialized metadata must call this
// explicitly before running it.
func (f *AES256GCMFilter) SetKey(key []byte) error {
	if len(key) != 32 {
		return ferr.New(ferr.InvalidOption, "aes256gcm: key must be 32 bytes")
	}
	f.key = key
	return nil
}

func (f *AES256GCMFilter) gcm() (cipher.AEAD, error) {
	block, err := aes.NewCipher(f.key)
	if err != nil {
		return nil, err
	}
	return cipher.NewGCMWithNonceSize(block, aesGCMIVLen)
}

func (f *AES256GCMFilter) Forward(ctx *Context, dt datatype.Type, inMeta, inData, outMeta, outData *buffer.FilterBuffer) error {
	outMeta.AppendAllFrom(inMeta)
	gcm, err := f.gcm()
	if err != nil {
		return ferr.Wrap(ferr.CodecFailure, "aes256gcm: init", err)
	}

	raw, err := inData.ReadExact(inData.Len() - inData.Pos())
	if err != nil {
		return ferr.Wrap(ferr.FormatCorrupt, "aes256gcm: read input", err)
	}

	var out []byte
	for off := 0; off < len(raw) || (len(raw) == 0 && off == 0); off += aesGCMMaxPlain {
		end := off + aesGCMMaxPlain
		if end > len(raw) {
			end = len(raw)
		}
		part := raw[off:end]

		iv := make([]byte, aesGCMIVLen)
		if _, err := io.ReadFull(rand.Reader, iv); err != nil {
			return ferr.Wrap(ferr.CodecFailure, "aes256gcm: iv", err)
		}
		sealed := gcm.Seal(nil, iv, part, nil)
		ciphertext, tag := sealed[:len(sealed)-aesGCMTagLen], sealed[len(sealed)-aesGCMTagLen:]

		var hdr [8]byte
		binary.LittleEndian.PutUint32(hdr[0:4], uint32(len(part)))
		binary.LittleEndian.PutUint32(hdr[4:8], uint32(len(ciphertext)))
		out = append(out, hdr[:]...)
		out = append(out, iv...)
		out = append(out, tag...)
		out = append(out, ciphertext...)

		if len(raw) == 0 {
			break
		}
	}

	outData.AppendOwned(out)
	return nil
}

func (f *AES256GCMFilter) Reverse(ctx *Context, dt datatype.Type, inMeta, inData, outMeta, outData *buffer.FilterBuffer) error {
	outMeta.AppendAllFrom(inMeta)
	gcm, err := f.gcm()
	if err != nil {
		return ferr.Wrap(ferr.CodecFailure, "aes256gcm: init", err)
	}

	raw, err := inData.ReadExact(inData.Len() - inData.Pos())
	if err != nil {
		return ferr.Wrap(ferr.FormatCorrupt, "aes256gcm: read input", err)
	}

	var out []byte
	pos := 0
	for pos < len(raw) {
		if pos+8 > len(raw) {
			return ferr.New(ferr.FormatCorrupt, "aes256gcm: truncated sub-part header")
		}
		plainLen := binary.LittleEndian.Uint32(raw[pos : pos+4])
		cipherLen := binary.LittleEndian.Uint32(raw[pos+4 : pos+8])
		pos += 8
		if pos+aesGCMIVLen+aesGCMTagLen+int(cipherLen) > len(raw) {
			return ferr.New(ferr.FormatCorrupt, "aes256gcm: truncated sub-part")
		}
		iv := raw[pos : pos+aesGCMIVLen]
		pos += aesGCMIVLen
		tag := raw[pos : pos+aesGCMTagLen]
		pos += aesGCMTagLen
		ciphertext := raw[pos : pos+int(cipherLen)]
		pos += int(cipherLen)

		sealed := append(append([]byte(nil), ciphertext...), tag...)
		plain, err := gcm.Open(nil, iv, sealed, nil)
		if err != nil {
			return ferr.Wrap(ferr.AuthTagInvalid, "aes256gcm: authentication failed", err)
		}
		if uint32(len(plain)) != plainLen {
			return ferr.New(ferr.FormatCorrupt, "aes256gcm: plaintext length mismatch")
		}
		out = append(out, plain...)
	}

	outData.AppendOwned(out)
	return nil
}
