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
	"encoding/json"
	"errors"
	"math"
	"testing"

	"github.com/matryer/is"
)

func TestFromAny(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		raw     any
		want    Value
		wantErr bool
	}{
		{name: "nil", raw: nil, want: Null()},
		{name: "string", raw: "acct-1", want: String("acct-1")},
		{name: "bool", raw: true, want: Bool(true)},
		{name: "int", raw: 42, want: Int(42)},
		{name: "uint32", raw: uint32(7), want: Int(7)},
		{name: "integral float", raw: float64(3), want: Int(3)},
		{name: "fractional float", raw: 1.5, want: Float(1.5)},
		{name: "json integer", raw: json.Number("123"), want: Int(123)},
		{name: "json float", raw: json.Number("0.25"), want: Float(0.25)},
		{name: "bytes", raw: []byte{0x01, 0x05}, want: Raw([]byte{0x01, 0x05})},
		{name: "strings", raw: []string{"a", "b"}, want: Strings("a", "b")},
		{name: "list", raw: []any{"a", "b"}, want: Strings("a", "b")},
		{name: "numbers list", raw: []any{float64(1), 1.5, json.Number("2")}, want: List(Float(1), Float(1.5), Float(2))},
		{name: "strings and raw", raw: []any{"a", []byte{0x01}}, want: List(String("a"), Raw([]byte{0x01}))},
		{name: "empty list", raw: []any{}, want: List()},
		{name: "mixed list", raw: []any{"a", 1}, wantErr: true},
		{name: "list with null", raw: []any{"a", nil}, wantErr: true},
		{name: "mixed list with null", raw: []any{"a", 1, nil, true}, wantErr: true},
		{name: "uint64 overflow", raw: uint64(math.MaxUint64), wantErr: true},
		{name: "nested list", raw: []any{[]any{"a"}}, wantErr: true},
		{name: "map", raw: map[string]any{"a": 1}, wantErr: true},
		{name: "bad json number", raw: json.Number("x"), wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			is := is.New(t)

			got, err := FromAny(tt.raw)
			if tt.wantErr {
				is.True(errors.Is(err, ErrUnsupportedValue))

				return
			}

			is.NoErr(err)
			is.Equal(got, tt.want)
		})
	}
}

func TestValue_Any(t *testing.T) {
	t.Parallel()

	is := is.New(t)

	is.Equal(Null().Any(), nil)
	is.Equal(String("x").Any(), "x")
	is.Equal(Int(5).Any(), int64(5))
	is.Equal(Bool(false).Any(), false)
	is.Equal(Float(0.5).Any(), 0.5)
	is.Equal(Raw([]byte("hi")).Any(), "aGk=")
	is.Equal(List(String("x"), Int(1)).Any(), []any{"x", int64(1)})
}

func TestValue_kinds(t *testing.T) {
	t.Parallel()

	is := is.New(t)

	var zero Value
	is.True(zero.IsNull())
	is.Equal(zero.Kind(), KindNull)

	list := Strings("a", "b", "c")
	is.Equal(list.Kind(), KindList)
	is.Equal(list.Len(), 3)
	is.Equal(list.Elems()[1], String("b"))
	is.Equal(String("a").Len(), 0)

	is.Equal(KindRaw.String(), "raw")
	is.Equal(Kind(42).String(), "Kind(42)")
	is.Equal(String("a").String(), `"a"`)
	is.Equal(Int(3).String(), "3")
}

func TestList_copiesElements(t *testing.T) {
	t.Parallel()

	is := is.New(t)

	elems := []Value{String("a")}
	list := List(elems...)
	elems[0] = String("b")

	is.Equal(list.Elems()[0], String("a"))
}
