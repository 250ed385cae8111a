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

// Package schema holds the declarative models the sync engine compiles into graph writes:
// rows of input data, node schemas, and relationship schemas.
package schema

import "sort"

// Property names the engine writes on every node or relationship.
// Schemas cannot bind them.
const (
	PropertyID               = "id"
	PropertyFirstSeen        = "firstseen"
	PropertyLastUpdated      = "lastupdated"
	PropertyStub             = "_stub"
	PropertySubResourceLabel = "_sub_resource_label"
	PropertySubResourceID    = "_sub_resource_id"
)

// Reserved parameter names of compiled statements.
const (
	// ScopeUpdateTag is the scope key holding the sync generation.
	ScopeUpdateTag = "UPDATE_TAG"
	// ScopeSubResourceLabel is the scope key holding the label of the match link scope.
	ScopeSubResourceLabel = "_sub_resource_label"
	// ScopeSubResourceID is the scope key holding the id of the match link scope.
	ScopeSubResourceID = "_sub_resource_id"
	// ParamRows is the parameter holding the batch of rows.
	ParamRows = "DictList"
	// ParamLimitSize is the parameter bounding one cleanup slice.
	ParamLimitSize = "LIMIT_SIZE"
)

// Schema is either a [*NodeSchema] or a [*RelSchema] used standalone as a match link.
// The set of implementations is closed.
type Schema interface {
	// Name returns the label the schema writes, used in logs and errors.
	Name() string
	// Validate reports whether the schema can be compiled.
	Validate() error
	// RequiredScopeKeys returns the scope parameters a load must supply, sorted.
	RequiredScopeKeys() []string
	// RequiredFields returns the row fields every row must contain, sorted.
	RequiredFields() []string
	// FanOutFields returns the row fields that must hold lists, sorted.
	FanOutFields() []string

	isSchema()
}

// bindings collects property refs and answers the questions the loader asks before a write.
type bindings []PropertyRef

func (b bindings) scopeKeys(extra ...string) []string {
	set := make(map[string]struct{}, len(b)+len(extra))
	for _, key := range extra {
		set[key] = struct{}{}
	}

	for _, ref := range b {
		if ref.FromScope {
			set[ref.Name] = struct{}{}
		}
	}

	return sortedKeys(set)
}

func (b bindings) requiredFields() []string {
	set := make(map[string]struct{}, len(b))
	for _, ref := range b {
		if ref.requiresRowField() {
			set[ref.Name] = struct{}{}
		}
	}

	return sortedKeys(set)
}

func (b bindings) fanOutFields() []string {
	set := make(map[string]struct{})
	for _, ref := range b {
		if ref.FanOut && !ref.FromScope {
			set[ref.Name] = struct{}{}
		}
	}

	return sortedKeys(set)
}

func sortedKeys(set map[string]struct{}) []string {
	keys := make([]string, 0, len(set))
	for key := range set {
		keys = append(keys, key)
	}

	sort.Strings(keys)

	return keys
}

// SortedNames returns the keys of a property map in a stable order.
func SortedNames(props map[string]PropertyRef) []string {
	names := make([]string, 0, len(props))
	for name := range props {
		names = append(names, name)
	}

	sort.Strings(names)

	return names
}
