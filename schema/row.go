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
	"fmt"
	"sort"
)

// Field is a named value used to build a [Row].
type Field struct {
	Name  string
	Value Value
}

// Row is one flat record produced by a connector's transform step.
// It keeps the order in which fields were set.
type Row struct {
	names  []string
	values map[string]Value
}

// NewRow creates a [Row] from the provided fields.
// A repeated field name overwrites the earlier value but keeps its position.
func NewRow(fields ...Field) Row {
	row := Row{
		names:  make([]string, 0, len(fields)),
		values: make(map[string]Value, len(fields)),
	}

	for _, field := range fields {
		row.Set(field.Name, field.Value)
	}

	return row
}

// RowFromMap converts a decoded record into a [Row]. Field order follows sorted keys.
func RowFromMap(data map[string]any) (Row, error) {
	names := make([]string, 0, len(data))
	for name := range data {
		names = append(names, name)
	}

	sort.Strings(names)

	row := Row{
		names:  make([]string, 0, len(names)),
		values: make(map[string]Value, len(names)),
	}

	for _, name := range names {
		value, err := FromAny(data[name])
		if err != nil {
			return Row{}, fmt.Errorf("field %q: %w", name, err)
		}

		row.Set(name, value)
	}

	return row, nil
}

// Set sets the field to the value.
func (r *Row) Set(name string, value Value) {
	if r.values == nil {
		r.values = make(map[string]Value)
	}

	if _, ok := r.values[name]; !ok {
		r.names = append(r.names, name)
	}

	r.values[name] = value
}

// Get returns the value of the field and whether the row contains it.
func (r Row) Get(name string) (Value, bool) {
	value, ok := r.values[name]

	return value, ok
}

// Names returns the field names in insertion order.
func (r Row) Names() []string {
	names := make([]string, len(r.names))
	copy(names, r.names)

	return names
}

// Len returns the number of fields.
func (r Row) Len() int { return len(r.names) }

// Map returns the row as store parameters keyed by field name.
func (r Row) Map() map[string]any {
	m := make(map[string]any, len(r.names))
	for _, name := range r.names {
		m[name] = r.values[name].Any()
	}

	return m
}
