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

	"github.com/google/uuid"
)

// FramedByteSink accumulates a tile's framed bytes (the output of
// Forward) in memory up to threshold, then spills to a uniquely named
// temp file once that threshold is crossed. Spill files are named with
// a fresh uuid.New() so concurrent callers writing to the same dir
// never collide.
type FramedByteSink struct {
	dir       string
	threshold int
	buf       []byte
	file      *os.File
	path      string
}

// NewFramedByteSink returns a sink that buffers up to threshold bytes
// in memory before spilling to a temp file under dir (os.TempDir() if
// dir is empty).
func NewFramedByteSink(dir string, threshold int) *FramedByteSink {
	if dir == "" {
		dir = os.TempDir()
	}
	return &FramedByteSink{dir: dir, threshold: threshold}
}

func (s *FramedByteSink) Write(p []byte) (int, error) {
	if s.file != nil {
		return s.file.Write(p)
	}
	if len(s.buf)+len(p) <= s.threshold {
		s.buf = append(s.buf, p...)
		return len(p), nil
	}
	if err := s.spill(); err != nil {
		return 0, err
	}
	return s.file.Write(p)
}

func (s *FramedByteSink) spill() error {
	path := filepath.Join(s.dir, uuid.New().String())
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if len(s.buf) > 0 {
		if _, err := f.Write(s.buf); err != nil {
			f.Close()
			os.Remove(path)
			return err
		}
	}
	s.file, s.path, s.buf = f, path, nil
	return nil
}

// Flush writes the sink's full contents to w.
func (s *FramedByteSink) Flush(w io.Writer) error {
	if s.file == nil {
		_, err := w.Write(s.buf)
		return err
	}
	if err := s.file.Sync(); err != nil {
		return err
	}
	r, err := os.Open(s.path)
	if err != nil {
		return err
	}
	defer r.Close()
	_, err = io.Copy(w, r)
	return err
}

// FlushToFile writes the sink's full contents to a new file at path.
func (s *FramedByteSink) FlushToFile(path string) error {
	var buf bytes.Buffer
	if err := s.Flush(&buf); err != nil {
		return err
	}
	return os.WriteFile(path, buf.Bytes(), 0o644)
}

// Reader returns a fresh reader over the sink's full contents; it may
// be called more than once.
func (s *FramedByteSink) Reader() (io.ReadCloser, error) {
	if s.file == nil {
		return io.NopCloser(bytes.NewReader(s.buf)), nil
	}
	return os.Open(s.path)
}

// Close releases any spill file on disk. The sink must not be used
// afterward.
func (s *FramedByteSink) Close() error {
	if s.file == nil {
		return nil
	}
	err := s.file.Close()
	os.Remove(s.path)
	s.file = nil
	return err
}
