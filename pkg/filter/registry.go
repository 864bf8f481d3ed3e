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
	"fmt"

	"github.com/tiledb-go/filterpipeline/pkg/ferr"
)

func unknownOption(t Type, opt Option) error {
	return ferr.New(ferr.InvalidOption, fmt.Sprintf("%s: unsupported option %q", t, opt))
}

func invalidOption(t Type, opt Option, reason string) error {
	return ferr.New(ferr.InvalidOption, fmt.Sprintf("%s: option %q: %s", t, opt, reason))
}

// New constructs the zero-value filter for a given type tag, ready for
// UnmarshalMetadata to populate it. Returns UnknownFilter for tags outside
// the registry.
func New(t Type) (Filter, error) {
	switch t {
	case NoOp:
		return NewNoOp(), nil
	case GZip, ZStd, LZ4, RLE, BZip2, DoubleDelta, Dictionary, Delta:
		return newCompressionFilter(kindForType(t)), nil
	case BitWidthReduction:
		return NewBitWidthReduction(), nil
	case PositiveDelta:
		return NewPositiveDelta(), nil
	case BitShuffle:
		return NewBitShuffle(), nil
	case ByteShuffle:
		return NewByteShuffle(), nil
	case ChecksumMD5:
		return NewChecksum(ChecksumMD5), nil
	case ChecksumSHA256:
		return NewChecksum(ChecksumSHA256), nil
	case InternalAES256GCM:
		return NewAES256GCM(nil), nil
	case ScaleFloat:
		return NewScaleFloat(), nil
	case Xor:
		return NewXOR(), nil
	case Webp:
		return NewWebP(), nil
	case Deprecated:
		// retired tag still present in the registry; old pipelines that
		// carry it behave as a pass-through
		return NewNoOp(), nil
	default:
		return nil, ferr.New(ferr.UnknownFilter, fmt.Sprintf("filter type tag %d", t))
	}
}
