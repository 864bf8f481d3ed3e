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

package datatype

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestByteWidth(t *testing.T) {
	assert.Equal(t, 1, Uint8.ByteWidth())
	assert.Equal(t, 8, Float64.ByteWidth())
	assert.Equal(t, 8, DateTimeNanosecond.ByteWidth())
}

func TestIsInteger(t *testing.T) {
	assert.True(t, Int32.IsInteger())
	assert.True(t, DateTimeSecond.IsInteger())
	assert.False(t, Float32.IsInteger())
}

func TestSignedOfWidth(t *testing.T) {
	assert.Equal(t, Int8, SignedOfWidth(1))
	assert.Equal(t, Int16, SignedOfWidth(2))
	assert.Equal(t, Int32, SignedOfWidth(4))
	assert.Equal(t, Int64, SignedOfWidth(8))
}

func TestIsFloatSignedDateTime(t *testing.T) {
	assert.True(t, Float64.IsFloat())
	assert.True(t, Int64.IsSigned())
	assert.False(t, Uint64.IsSigned())
	assert.True(t, DateTimeMillisecond.IsDateTime())
}
