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

// PropertyRef describes where the value of one node or relationship property comes from.
//
// By default the value is read from the row field called Name. When FromScope is set,
// the value is supplied once per Load call through the scope parameters under Name,
// which is how every row of a batch gets attached to the same parent.
type PropertyRef struct {
	Name string
	// FromScope marks the value as supplied by the caller at load time, not per row.
	FromScope bool
	// Indexed requests a secondary index on the property.
	Indexed bool
	// FanOut marks the row field as a list: a matcher produces one relationship per element.
	FanOut bool
	// Optional allows rows without the field; the property is then written as null.
	Optional bool
	// IgnoreCase matches an edge endpoint case-insensitively.
	IgnoreCase bool
	// FuzzyIgnoreCase matches an edge endpoint whose property contains the value, ignoring case.
	FuzzyIgnoreCase bool
}

// FromField returns a [PropertyRef] reading the named row field.
func FromField(name string) PropertyRef {
	return PropertyRef{Name: name}
}

// FromScope returns a [PropertyRef] reading the named scope parameter.
func FromScope(name string) PropertyRef {
	return PropertyRef{Name: name, FromScope: true}
}

// WithIndex returns a copy of the ref that requests a secondary index.
func (p PropertyRef) WithIndex() PropertyRef {
	p.Indexed = true

	return p
}

// AsFanOut returns a copy of the ref that reads a list and fans out one relationship per element.
func (p PropertyRef) AsFanOut() PropertyRef {
	p.FanOut = true

	return p
}

// AsOptional returns a copy of the ref that tolerates rows without the field.
func (p PropertyRef) AsOptional() PropertyRef {
	p.Optional = true

	return p
}

// CaseInsensitive returns a copy of the ref that matches ignoring case.
func (p PropertyRef) CaseInsensitive() PropertyRef {
	p.IgnoreCase = true

	return p
}

// FuzzyCaseInsensitive returns a copy of the ref that matches by substring ignoring case.
func (p PropertyRef) FuzzyCaseInsensitive() PropertyRef {
	p.FuzzyIgnoreCase = true

	return p
}

// requiresRowField reports whether every row must contain the field.
func (p PropertyRef) requiresRowField() bool {
	return !p.FromScope && !p.Optional
}
