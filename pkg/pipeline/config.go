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

// Package pipeline sequences a tile's filters per chunk: it owns the
// chunked framing layout, the on-disk format codec, and the parallel
// forward/reverse chunk runner built atop golang.org/x/sync/errgroup.
package pipeline

// Config carries the runner's environment-facing knobs, chiefly
// sm.skip_checksum_validation. Config-file parsing itself lives with
// the caller (e.g. cmd/filterctl), which assembles this struct from
// whatever configuration source it owns.
type Config struct {
	// SkipChecksumValidation makes checksum filters succeed
	// unconditionally on reverse.
	SkipChecksumValidation bool

	// FormatVersion accompanies every tile and gates legacy filter
	// behavior localized to each filter.
	FormatVersion uint32

	// WorkerCount bounds how many chunk tasks run concurrently; 0 means
	// "let errgroup schedule without a limit".
	WorkerCount int
}
