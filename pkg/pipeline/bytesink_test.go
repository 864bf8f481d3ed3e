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

package pipeline

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFramedByteSinkStaysInMemoryUnderThreshold(t *testing.T) {
	sink := NewFramedByteSink(t.TempDir(), 1024)
	defer sink.Close()

	n, err := sink.Write([]byte("hello world"))
	require.NoError(t, err)
	assert.Equal(t, 11, n)
	assert.Empty(t, sink.path)

	var out bytes.Buffer
	require.NoError(t, sink.Flush(&out))
	assert.Equal(t, "hello world", out.String())
}

func TestFramedByteSinkSpillsToTempFile(t *testing.T) {
	dir := t.TempDir()
	sink := NewFramedByteSink(dir, 8)
	defer sink.Close()

	_, err := sink.Write([]byte("0123456789"))
	require.NoError(t, err)
	require.NotEmpty(t, sink.path)
	assert.Equal(t, dir, filepath.Dir(sink.path))

	var out bytes.Buffer
	require.NoError(t, sink.Flush(&out))
	assert.Equal(t, "0123456789", out.String())
}

func TestFramedByteSinkReaderTwice(t *testing.T) {
	sink := NewFramedByteSink(t.TempDir(), 4)
	defer sink.Close()

	_, err := sink.Write([]byte{1, 2, 3, 4, 5})
	require.NoError(t, err)

	for i := 0; i < 2; i++ {
		r, err := sink.Reader()
		require.NoError(t, err)
		got, err := io.ReadAll(r)
		require.NoError(t, err)
		r.Close()
		assert.Equal(t, []byte{1, 2, 3, 4, 5}, got)
	}
}

func TestFramedByteSinkFlushToFile(t *testing.T) {
	sink := NewFramedByteSink(t.TempDir(), 4)
	defer sink.Close()
	_, err := sink.Write([]byte("spill me"))
	require.NoError(t, err)

	dst := filepath.Join(t.TempDir(), "out.bin")
	require.NoError(t, sink.FlushToFile(dst))

	got, err := os.ReadFile(dst)
	require.NoError(t, err)
	assert.Equal(t, "spill me", string(got))
}

func TestFramedByteSinkCloseRemovesSpillFile(t *testing.T) {
	sink := NewFramedByteSink(t.TempDir(), 2)
	_, err := sink.Write([]byte("overflow"))
	require.NoError(t, err)
	path := sink.path
	require.NotEmpty(t, path)

	require.NoError(t, sink.Close())
	_, err = os.Stat(path)
	assert.True(t, os.IsNotExist(err))
}
