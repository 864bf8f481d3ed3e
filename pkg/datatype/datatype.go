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

// Package datatype describes the element datatypes a tile may carry and
// the byte-width/signedness facts filters need to interpret raw chunk
// bytes correctly.
package datatype

// Type identifies the logical element type of a tile's cells.
type Type uint8

const (
	Int8 Type = iota
	Uint8
	Int16
	Uint16
	Int32
	Uint32
	Int64
	Uint64
	Float32
	Float64
	Char
	DateTimeSecond
	DateTimeMillisecond
	DateTimeNanosecond
)

// ByteWidth returns the size in bytes of one element of t.
func (t Type) ByteWidth() int {
	switch t {
	case Int8, Uint8, Char:
		return 1
	case Int16, Uint16:
		return 2
	case Int32, Uint32, Float32:
		return 4
	case Int64, Uint64, Float64, DateTimeSecond, DateTimeMillisecond, DateTimeNanosecond:
		return 8
	default:
		return 0
	}
}

// IsInteger reports whether t is a fixed-width signed or unsigned integer
// (datetime types count as integers for bit-packing purposes).
func (t Type) IsInteger() bool {
	switch t {
	case Int8, Uint8, Int16, Uint16, Int32, Uint32, Int64, Uint64,
		DateTimeSecond, DateTimeMillisecond, DateTimeNanosecond:
		return true
	default:
		return false
	}
}

// IsSigned reports whether t is a signed integer type.
func (t Type) IsSigned() bool {
	switch t {
	case Int8, Int16, Int32, Int64:
		return true
	default:
		return false
	}
}

// IsFloat reports whether t is a floating point type.
func (t Type) IsFloat() bool {
	return t == Float32 || t == Float64
}

// IsDateTime reports whether t is one of the datetime family.
func (t Type) IsDateTime() bool {
	switch t {
	case DateTimeSecond, DateTimeMillisecond, DateTimeNanosecond:
		return true
	default:
		return false
	}
}

// SignedOfWidth returns the signed integer Type of the given byte width,
// used by filters (float scaling, XOR) that report a transformed output
// datatype based solely on width.
func SignedOfWidth(width int) Type {
	switch width {
	case 1:
		return Int8
	case 2:
		return Int16
	case 4:
		return Int32
	case 8:
		return Int64
	default:
		return Int64
	}
}

func (t Type) String() string {
	switch t {
	case Int8:
		return "int8"
	case Uint8:
		return "uint8"
	case Int16:
		return "int16"
	case Uint16:
		return "uint16"
	case Int32:
		return "int32"
	case Uint32:
		return "uint32"
	case Int64:
		return "int64"
	case Uint64:
		return "uint64"
	case Float32:
		return "float32"
	case Float64:
		return "float64"
	case Char:
		return "char"
	case DateTimeSecond:
		return "datetime_second"
	case DateTimeMillisecond:
		return "datetime_millisecond"
	case DateTimeNanosecond:
		return "datetime_nanosecond"
	default:
		return "unknown"
	}
}
