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

package d

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

type customErr struct{ msg string }

func (e customErr) Error() string { return e.msg }

func TestPanicIfError(t *testing.T) {
	assert.NotPanics(t, func() { PanicIfError(nil) })
	assert.Panics(t, func() { PanicIfError(errors.New("boom")) })
}

func TestPanicIfTrueFalse(t *testing.T) {
	assert.Panics(t, func() { PanicIfTrue(true, "nope") })
	assert.NotPanics(t, func() { PanicIfTrue(false, "fine") })
	assert.Panics(t, func() { PanicIfFalse(false, "nope") })
	assert.NotPanics(t, func() { PanicIfFalse(true, "fine") })
}

func TestPanicIfNotType(t *testing.T) {
	assert.NotPanics(t, func() { PanicIfNotType(0, 1) })
	assert.Panics(t, func() { PanicIfNotType(0, "x") })
}

func TestWrapUnwrap(t *testing.T) {
	cause := errors.New("underlying")
	wrapped := Wrap(cause, "context")
	assert.Error(t, wrapped)
	assert.Equal(t, "context: underlying", wrapped.Error())
	assert.Equal(t, cause, Unwrap(wrapped))

	assert.Nil(t, Wrap(nil, "context"))
}

func TestPanicIfErrorNotIn(t *testing.T) {
	assert.NotPanics(t, func() {
		PanicIfErrorNotIn(customErr{"expected"}, customErr{})
	})
	assert.Panics(t, func() {
		PanicIfErrorNotIn(errors.New("unexpected"), customErr{})
	})
	assert.NotPanics(t, func() {
		PanicIfErrorNotIn(nil, customErr{})
	})
}
