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

package ferr

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorIsDispatch(t *testing.T) {
	err := New(ChecksumMismatch, "chunk 3")
	assert.True(t, errors.Is(err, Sentinel(ChecksumMismatch)))
	assert.False(t, errors.Is(err, Sentinel(AuthTagInvalid)))
}

func TestWrapPreservesCause(t *testing.T) {
	cause := errors.New("zstd: corrupt frame")
	err := Wrap(CodecFailure, "chunk 0", cause)
	assert.Contains(t, err.Error(), "corrupt frame")
	assert.True(t, errors.Is(err, Sentinel(CodecFailure)))
}

func TestKindString(t *testing.T) {
	assert.Equal(t, "checksum mismatch", ChecksumMismatch.String())
	assert.Equal(t, "authentication tag invalid", AuthTagInvalid.String())
}
