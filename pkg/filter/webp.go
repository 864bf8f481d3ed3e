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
	"image"
	"math"

	"github.com/chai2010/webp"

	"github.com/tiledb-go/filterpipeline/pkg/buffer"
	"github.com/tiledb-go/filterpipeline/pkg/datatype"
	"github.com/tiledb-go/filterpipeline/pkg/ferr"
)

// WebPInputFormat enumerates the pixel layouts the WebP filter's
// metadata can carry.
type WebPInputFormat uint8

const (
	WebPFormatRGB WebPInputFormat = iota
	WebPFormatBGR
	WebPFormatRGBA
	WebPFormatBGRA
)

func (f WebPInputFormat) channels() int {
	switch f {
	case WebPFormatRGBA, WebPFormatBGRA:
		return 4
	default:
		return 3
	}
}

// WebPFilter applies the WebP image codec to 2-D dense uint8
// imagery via the cgo libwebp binding github.com/chai2010/webp. It
// requires non-chunked mode so a whole image's rows are available in a
// single chunk.
type WebPFilter struct {
	quality     float32
	lossless    bool
	inputFormat WebPInputFormat
	yExtent     uint16
	xExtent     uint16
}

func NewWebP() *WebPFilter {
	return &WebPFilter{quality: 75, inputFormat: WebPFormatRGB}
}

func (f *WebPFilter) Type() Type    { return Webp }
func (f *WebPFilter) Clone() Filter { cp := *f; return &cp }

func (f *WebPFilter) Accepts(in datatype.Type) bool { return in == datatype.Uint8 }
func (f *WebPFilter) OutputDatatype(in datatype.Type) datatype.Type { return in }

func (f *WebPFilter) GetOption(opt Option) (interface{}, error) {
	switch opt {
	case OptWebpQuality:
		return f.quality, nil
	case OptWebpInputFormat:
		return uint8(f.inputFormat), nil
	case OptWebpLossless:
		if f.lossless {
			return uint8(1), nil
		}
		return uint8(0), nil
	default:
		return nil, unknownOption(f.Type(), opt)
	}
}

func (f *WebPFilter) SetOption(opt Option, value interface{}) error {
	switch opt {
	case OptWebpQuality:
		v, ok := value.(float32)
		if !ok || v < 0 || v > 100 {
			return invalidOption(f.Type(), opt, "expected quality in [0,100]")
		}
		f.quality = v
		return nil
	case OptWebpInputFormat:
		v, ok := value.(uint8)
		if !ok || v > uint8(WebPFormatBGRA) {
			return invalidOption(f.Type(), opt, "expected a valid input format")
		}
		f.inputFormat = WebPInputFormat(v)
		return nil
	case OptWebpLossless:
		v, ok := value.(uint8)
		if !ok || v > 1 {
			return invalidOption(f.Type(), opt, "expected 0 or 1")
		}
		f.lossless = v != 0
		return nil
	default:
		return unknownOption(f.Type(), opt)
	}
}

// SetExtents records the Y/X dimensions captured from the array schema;
// a caller must call this before running the filter (the pipeline
// package does not), since the filter itself never sees the schema.
func (f *WebPFilter) SetExtents(y, x uint16) {
	f.yExtent, f.xExtent = y, x
}

func (f *WebPFilter) MarshalMetadata() []byte {
	b := buffer.New(12)
	var qb [4]byte
	binary.LittleEndian.PutUint32(qb[:], math.Float32bits(f.quality))
	b.Append(qb[:])
	lossless := byte(0)
	if f.lossless {
		lossless = 1
	}
	b.Append([]byte{byte(f.inputFormat), lossless})
	var yb, xb, pad [2]byte
	binary.LittleEndian.PutUint16(yb[:], f.yExtent)
	binary.LittleEndian.PutUint16(xb[:], f.xExtent)
	b.Append(yb[:])
	b.Append(xb[:])
	b.Append(pad[:])
	return b.Bytes()
}

func (f *WebPFilter) UnmarshalMetadata(data []byte) error {
	if len(data) < 12 {
		return ferr.New(ferr.FormatCorrupt, "webp metadata too short")
	}
	f.quality = math.Float32frombits(binary.LittleEndian.Uint32(data[0:4]))
	f.inputFormat = WebPInputFormat(data[4])
	f.lossless = data[5] != 0
	f.yExtent = binary.LittleEndian.Uint16(data[6:8])
	f.xExtent = binary.LittleEndian.Uint16(data[8:10])
	return nil
}

// toNRGBA reinterprets raw pixel bytes under f.inputFormat into an
// image.NRGBA of f.xExtent x f.yExtent, the layout chai2010/webp encodes
// from.
func (f *WebPFilter) toNRGBA(raw []byte) *image.NRGBA {
	w, h := int(f.xExtent), int(f.yExtent)
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	ch := f.inputFormat.channels()
	for i := 0; i < w*h; i++ {
		px := raw[i*ch : i*ch+ch]
		var r, g, b, a byte
		switch f.inputFormat {
		case WebPFormatRGB:
			r, g, b, a = px[0], px[1], px[2], 255
		case WebPFormatBGR:
			b, g, r, a = px[0], px[1], px[2], 255
		case WebPFormatRGBA:
			r, g, b, a = px[0], px[1], px[2], px[3]
		case WebPFormatBGRA:
			b, g, r, a = px[0], px[1], px[2], px[3]
		}
		o := i * 4
		img.Pix[o], img.Pix[o+1], img.Pix[o+2], img.Pix[o+3] = r, g, b, a
	}
	return img
}

func (f *WebPFilter) fromNRGBA(img *image.NRGBA) []byte {
	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	ch := f.inputFormat.channels()
	out := make([]byte, w*h*ch)
	for i := 0; i < w*h; i++ {
		o := i * 4
		r, g, b, a := img.Pix[o], img.Pix[o+1], img.Pix[o+2], img.Pix[o+3]
		px := out[i*ch : i*ch+ch]
		switch f.inputFormat {
		case WebPFormatRGB:
			px[0], px[1], px[2] = r, g, b
		case WebPFormatBGR:
			px[0], px[1], px[2] = b, g, r
		case WebPFormatRGBA:
			px[0], px[1], px[2], px[3] = r, g, b, a
		case WebPFormatBGRA:
			px[0], px[1], px[2], px[3] = b, g, r, a
		}
	}
	return out
}

func (f *WebPFilter) Forward(ctx *Context, dt datatype.Type, inMeta, inData, outMeta, outData *buffer.FilterBuffer) error {
	outMeta.AppendAllFrom(inMeta)
	raw, err := inData.ReadExact(inData.Len() - inData.Pos())
	if err != nil {
		return ferr.Wrap(ferr.FormatCorrupt, "webp: read input", err)
	}

	img := f.toNRGBA(raw)
	var buf bytes.Buffer
	if err := webp.Encode(&buf, img, &webp.Options{Lossless: f.lossless, Quality: f.quality}); err != nil {
		return ferr.Wrap(ferr.CodecFailure, "webp: encode", err)
	}

	outData.AppendOwned(buf.Bytes())
	return nil
}

func (f *WebPFilter) Reverse(ctx *Context, dt datatype.Type, inMeta, inData, outMeta, outData *buffer.FilterBuffer) error {
	outMeta.AppendAllFrom(inMeta)
	raw, err := inData.ReadExact(inData.Len() - inData.Pos())
	if err != nil {
		return ferr.Wrap(ferr.FormatCorrupt, "webp: read input", err)
	}

	decoded, err := webp.Decode(bytes.NewReader(raw))
	if err != nil {
		return ferr.Wrap(ferr.CodecFailure, "webp: decode", err)
	}
	nrgba, ok := decoded.(*image.NRGBA)
	if !ok {
		b := decoded.Bounds()
		conv := image.NewNRGBA(b)
		for y := b.Min.Y; y < b.Max.Y; y++ {
			for x := b.Min.X; x < b.Max.X; x++ {
				conv.Set(x, y, decoded.At(x, y))
			}
		}
		nrgba = conv
	}

	outData.AppendOwned(f.fromNRGBA(nrgba))
	return nil
}
