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

package buffer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFilterBufferAppendOwnedAndView(t *testing.T) {
	src := New(4)
	src.Append([]byte{1, 2, 3, 4})
	src.SetReadOnly()

	fb := NewFilterBuffer()
	fb.AppendView(src, 0, 2)
	fb.AppendOwned([]byte{9, 9})

	assert.Equal(t, 4, fb.Len())
	assert.Equal(t, []byte{1, 2, 9, 9}, fb.Bytes())
}

func TestFilterBufferPrependNew(t *testing.T) {
	fb := NewFilterBuffer()
	fb.AppendOwned([]byte{5, 6})

	header := fb.PrependNew(2)
	header.Append([]byte{1, 0})

	assert.Equal(t, []byte{1, 0, 5, 6}, fb.Bytes())
}

func TestFilterBufferSequentialReadAcrossSegments(t *testing.T) {
	fb := NewFilterBuffer()
	fb.AppendOwned([]byte{1, 2, 3})
	fb.AppendOwned([]byte{4, 5})
	fb.AppendOwned([]byte{6, 7, 8, 9})

	out, err := fb.ReadExact(9)
	require.NoError(t, err)
	assert.Equal(t, []byte{1, 2, 3, 4, 5, 6, 7, 8, 9}, out)
}

func TestFilterBufferReadExactPastEndErrors(t *testing.T) {
	fb := NewFilterBuffer()
	fb.AppendOwned([]byte{1, 2})
	_, err := fb.ReadExact(3)
	assert.Error(t, err)
}

func TestFilterBufferSetReadOnlyPropagates(t *testing.T) {
	fb := NewFilterBuffer()
	fb.AppendOwned([]byte{1})
	fb.SetReadOnly()
	assert.Panics(t, func() { fb.AppendOwned([]byte{2}) })
}

func TestFilterBufferSwap(t *testing.T) {
	a := NewFilterBuffer()
	a.AppendOwned([]byte{1})
	b := NewFilterBuffer()
	b.AppendOwned([]byte{2, 3})

	a.Swap(b)
	assert.Equal(t, []byte{2, 3}, a.Bytes())
	assert.Equal(t, []byte{1}, b.Bytes())
}
