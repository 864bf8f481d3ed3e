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

// Package d provides low-level assertion helpers for invariants that
// indicate a bug in this module, as distinct from the typed, caller-facing
// errors in package ferr. Nothing in this package should ever surface to a
// caller of the public API.
package d

import (
	"fmt"
	"reflect"

	"github.com/pkg/errors"
)

// PanicIfError panics with err if err is non-nil.
func PanicIfError(err error) {
	if err != nil {
		panic(err)
	}
}

// PanicIfTrue panics if b is true.
func PanicIfTrue(b bool, msg ...interface{}) {
	if b {
		panic(fmt.Sprint(msg...))
	}
}

// PanicIfFalse panics if b is false.
func PanicIfFalse(b bool, msg ...interface{}) {
	if !b {
		panic(fmt.Sprint(msg...))
	}
}

// PanicIfNotType panics unless v's concrete type matches example's.
func PanicIfNotType(example, v interface{}) {
	et, vt := reflect.TypeOf(example), reflect.TypeOf(v)
	if et != vt {
		panic(fmt.Sprintf("expected type %s, got %s", et, vt))
	}
}

// Wrap annotates err with message, preserving the original cause for
// Unwrap/Cause. Returns nil if err is nil.
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return &wrappedError{cause: err, msg: message + ": " + err.Error()}
}

// Unwrap returns the cause of a wrapped error, or err itself if it was not
// wrapped by this package.
func Unwrap(err error) error {
	type causer interface{ Cause() error }
	if we, ok := err.(causer); ok {
		return we.Cause()
	}
	return err
}

type wrappedError struct {
	cause error
	msg   string
}

func (w *wrappedError) Error() string { return w.msg }
func (w *wrappedError) Cause() error  { return w.cause }
func (w *wrappedError) Unwrap() error { return w.cause }

// causeInTypes reports whether err's ultimate cause has one of the given
// concrete types.
func causeInTypes(err error, types ...interface{}) bool {
	cause := errors.Cause(err)
	ct := reflect.TypeOf(cause)
	for _, t := range types {
		if reflect.TypeOf(t) == ct {
			return true
		}
	}
	return false
}

// PanicIfErrorNotIn panics with err unless its root cause matches one of
// the given example error types. Used at package boundaries that are only
// ever expected to fail in specific, already-handled ways.
func PanicIfErrorNotIn(err error, types ...interface{}) {
	if err == nil {
		return
	}
	if !causeInTypes(err, types...) {
		panic(err)
	}
}
