// Copyright © 2023 Meroxa, Inc. & Yalantis
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

package schema

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
)

// Kind defines the kind of a [Value].
type Kind uint8

// The available value kinds are listed below.
const (
	KindNull Kind = iota
	KindString
	KindInt
	KindBool
	KindFloat
	KindList
	KindRaw
)

func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindString:
		return "string"
	case KindInt:
		return "int"
	case KindBool:
		return "bool"
	case KindFloat:
		return "float"
	case KindList:
		return "list"
	case KindRaw:
		return "raw"
	default:
		return "Kind(" + strconv.Itoa(int(k)) + ")"
	}
}

// Value is a single field value of a [Row].
// The zero Value is null.
type Value struct {
	kind Kind
	str  string
	num  int64
	flt  float64
	flag bool
	list []Value
}

// Null returns a null [Value].
func Null() Value { return Value{} }

// String returns a string [Value].
func String(s string) Value { return Value{kind: KindString, str: s} }

// Int returns an integer [Value].
func Int(n int64) Value { return Value{kind: KindInt, num: n} }

// Bool returns a boolean [Value].
func Bool(b bool) Value { return Value{kind: KindBool, flag: b} }

// Float returns a floating point [Value].
func Float(f float64) Value { return Value{kind: KindFloat, flt: f} }

// List returns a list [Value] holding the provided elements.
func List(elems ...Value) Value {
	list := make([]Value, len(elems))
	copy(list, elems)

	return Value{kind: KindList, list: list}
}

// Strings is a shortcut for a list of string values.
func Strings(elems ...string) Value {
	list := make([]Value, 0, len(elems))
	for _, elem := range elems {
		list = append(list, String(elem))
	}

	return Value{kind: KindList, list: list}
}

// Raw returns a [Value] derived from binary data, such as a security identifier or a GUID.
// The bytes are kept as standard base64 text so they can be stored and matched as a string.
func Raw(b []byte) Value {
	return Value{kind: KindRaw, str: base64.StdEncoding.EncodeToString(b)}
}

// Kind returns the kind of the value.
func (v Value) Kind() Kind { return v.kind }

// IsNull reports whether the value is null.
func (v Value) IsNull() bool { return v.kind == KindNull }

// Len returns the number of elements of a list value and zero for any other kind.
func (v Value) Len() int { return len(v.list) }

// Elems returns the elements of a list value.
func (v Value) Elems() []Value { return v.list }

// Any returns the value in the form expected by the graph store parameters.
func (v Value) Any() any {
	switch v.kind {
	case KindString, KindRaw:
		return v.str
	case KindInt:
		return v.num
	case KindBool:
		return v.flag
	case KindFloat:
		return v.flt
	case KindList:
		elems := make([]any, 0, len(v.list))
		for _, elem := range v.list {
			elems = append(elems, elem.Any())
		}

		return elems
	default:
		return nil
	}
}

func (v Value) String() string {
	switch v.kind {
	case KindString, KindRaw:
		return strconv.Quote(v.str)
	default:
		return fmt.Sprint(v.Any())
	}
}

// FromAny converts decoded data into a [Value].
// Integral floats and [json.Number] values become integers.
func FromAny(raw any) (Value, error) {
	switch val := raw.(type) {
	case nil:
		return Null(), nil
	case Value:
		return val, nil
	case string:
		return String(val), nil
	case bool:
		return Bool(val), nil
	case int:
		return Int(int64(val)), nil
	case int8:
		return Int(int64(val)), nil
	case int16:
		return Int(int64(val)), nil
	case int32:
		return Int(int64(val)), nil
	case int64:
		return Int(val), nil
	case uint8:
		return Int(int64(val)), nil
	case uint16:
		return Int(int64(val)), nil
	case uint32:
		return Int(int64(val)), nil
	case uint:
		if uint64(val) > math.MaxInt64 {
			return Value{}, fmt.Errorf("%w: %d overflows int64", ErrUnsupportedValue, val)
		}

		return Int(int64(val)), nil
	case uint64:
		if val > math.MaxInt64 {
			return Value{}, fmt.Errorf("%w: %d overflows int64", ErrUnsupportedValue, val)
		}

		return Int(int64(val)), nil
	case float32:
		return fromFloat(float64(val)), nil
	case float64:
		return fromFloat(val), nil
	case json.Number:
		if n, err := val.Int64(); err == nil {
			return Int(n), nil
		}

		f, err := val.Float64()
		if err != nil {
			return Value{}, fmt.Errorf("%w: %q is not a number", ErrUnsupportedValue, val)
		}

		return fromFloat(f), nil
	case []byte:
		return Raw(val), nil
	case []string:
		return Strings(val...), nil
	case []any:
		return listFromAny(val)
	default:
		return Value{}, fmt.Errorf("%w: %T", ErrUnsupportedValue, raw)
	}
}

// listFromAny converts the elements of a list. The store keeps only homogeneous lists without
// nulls, so mixed kinds are rejected. Integers mixed with floats become floats.
func listFromAny(raw []any) (Value, error) {
	var (
		list      = make([]Value, 0, len(raw))
		elemKind  = KindNull
		hasFloats bool
	)

	for i, elem := range raw {
		v, err := FromAny(elem)
		if err != nil {
			return Value{}, fmt.Errorf("list element %d: %w", i, err)
		}

		kind := storedKind(v.kind)

		switch {
		case kind == KindNull:
			return Value{}, fmt.Errorf("%w: null at element %d", ErrUnsupportedValue, i)
		case kind == KindList:
			return Value{}, fmt.Errorf("%w: nested list at element %d", ErrUnsupportedValue, i)
		case elemKind != KindNull && kind != elemKind:
			return Value{}, fmt.Errorf("%w: %s at element %d of a %s list", ErrUnsupportedValue, v.kind, i, elemKind)
		}

		elemKind = kind
		hasFloats = hasFloats || v.kind == KindFloat

		list = append(list, v)
	}

	if hasFloats {
		for i, v := range list {
			if v.kind == KindInt {
				list[i] = Float(float64(v.num))
			}
		}
	}

	return Value{kind: KindList, list: list}, nil
}

// storedKind groups the kinds the store keeps alike: raw values are strings,
// integers and floats are numbers.
func storedKind(kind Kind) Kind {
	switch kind {
	case KindRaw:
		return KindString
	case KindFloat:
		return KindInt
	default:
		return kind
	}
}

func fromFloat(f float64) Value {
	if f == math.Trunc(f) && math.Abs(f) < 1<<53 {
		return Int(int64(f))
	}

	return Float(f)
}
