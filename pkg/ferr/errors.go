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

// Package ferr defines the typed errors the filter pipeline returns to
// callers. Every error returned across a package boundary in pipeline and
// filter is a *ferr.Error so callers can branch with errors.Is against the
// sentinel Kind values below.
package ferr

import (
	"fmt"

	"github.com/pkg/errors"
)

// Kind enumerates the ways a filter or the pipeline runner can fail.
type Kind int

const (
	InvalidOption Kind = iota
	FilterChainIncompatible
	ChunkSizeOverflow
	NonPositiveDelta
	ChecksumMismatch
	AuthTagInvalid
	UnknownFilter
	FormatCorrupt
	CodecFailure
)

func (k Kind) String() string {
	switch k {
	case InvalidOption:
		return "invalid option"
	case FilterChainIncompatible:
		return "filter chain incompatible"
	case ChunkSizeOverflow:
		return "chunk size overflow"
	case NonPositiveDelta:
		return "non-positive delta"
	case ChecksumMismatch:
		return "checksum mismatch"
	case AuthTagInvalid:
		return "authentication tag invalid"
	case UnknownFilter:
		return "unknown filter"
	case FormatCorrupt:
		return "format corrupt"
	case CodecFailure:
		return "codec failure"
	default:
		return "unknown error kind"
	}
}

// Error is the typed error surfaced by this module. It wraps an optional
// underlying cause (e.g. a third-party codec error) while always exposing
// a stable Kind for errors.Is-style dispatch.
type Error struct {
	Kind    Kind
	Context string
	cause   error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Context, e.cause)
	}
	if e.Context != "" {
		return fmt.Sprintf("%s: %s", e.Kind, e.Context)
	}
	return e.Kind.String()
}

// Unwrap allows errors.Is/errors.As to see through to the underlying cause.
func (e *Error) Unwrap() error { return e.cause }

// Is reports whether target is a *Error with the same Kind, so callers can
// write errors.Is(err, ferr.New(ferr.ChecksumMismatch, "")).
func (e *Error) Is(target error) bool {
	other, ok := target.(*Error)
	if !ok {
		return false
	}
	return other.Kind == e.Kind
}

// New constructs a *Error of the given kind with a human-readable context.
func New(kind Kind, context string) *Error {
	return &Error{Kind: kind, Context: context}
}

// Wrap constructs a *Error of the given kind wrapping cause, preserving
// cause in the error chain.
func Wrap(kind Kind, context string, cause error) *Error {
	return &Error{Kind: kind, Context: context, cause: errors.WithStack(cause)}
}

// Sentinel is a zero-context *Error usable with errors.Is to test Kind:
//
//	if errors.Is(err, ferr.Sentinel(ferr.ChecksumMismatch)) { ... }
func Sentinel(kind Kind) *Error { return &Error{Kind: kind} }
