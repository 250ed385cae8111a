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
	"strings"
)

// Direction defines which way a relationship points, seen from the source node.
type Direction int

// The available directions are listed below.
const (
	// Outward draws (source)-[:REL]->(target).
	Outward Direction = iota
	// Inward draws (source)<-[:REL]-(target).
	Inward
)

func (d Direction) String() string {
	if d == Inward {
		return "inward"
	}

	return "outward"
}

// ParseDirection converts "inward" or "outward" into a [Direction].
func ParseDirection(s string) (Direction, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "outward", "out":
		return Outward, nil
	case "inward", "in":
		return Inward, nil
	default:
		return Outward, fmt.Errorf("unknown direction %q", s)
	}
}

// Matcher maps an endpoint property name to the ref that supplies the value to look it up by.
type Matcher map[string]PropertyRef

// RelSchema describes a relationship. Attached to a [NodeSchema] the node is the source.
// Used standalone it is a match link between two node types that must already exist,
// and SourceLabel and SourceMatcher are required.
type RelSchema struct {
	// Label is the relationship type.
	Label     string
	Direction Direction
	// TargetLabel and TargetMatcher find the other endpoint.
	TargetLabel   string
	TargetMatcher Matcher
	// SourceLabel and SourceMatcher find the source endpoint of a match link.
	SourceLabel   string
	SourceMatcher Matcher
	// Properties maps relationship property names to their sources.
	Properties map[string]PropertyRef
	// CreateStub creates a placeholder target node holding only its id when none exists,
	// instead of skipping the relationship. The placeholder is marked with the _stub property
	// until the node type's own load overwrites it.
	CreateStub bool
}

// Name returns the relationship label.
func (r *RelSchema) Name() string { return r.Label }

// RequiredScopeKeys returns the scope parameters a match link load must supply.
func (r *RelSchema) RequiredScopeKeys() []string {
	return r.bindings().scopeKeys(ScopeUpdateTag, ScopeSubResourceLabel, ScopeSubResourceID)
}

// RequiredFields returns the row fields every row must contain.
func (r *RelSchema) RequiredFields() []string {
	return r.bindings().requiredFields()
}

// FanOutFields returns the row fields that must hold lists.
func (r *RelSchema) FanOutFields() []string {
	return r.bindings().fanOutFields()
}

func (r *RelSchema) bindings() bindings {
	refs := bindings(r.matcherRefs())
	for _, ref := range r.SourceMatcher {
		refs = append(refs, ref)
	}

	for _, ref := range r.Properties {
		refs = append(refs, ref)
	}

	return refs
}

// matcherRefs returns the target matcher refs.
func (r *RelSchema) matcherRefs() []PropertyRef {
	refs := make([]PropertyRef, 0, len(r.TargetMatcher))
	for _, ref := range r.TargetMatcher {
		refs = append(refs, ref)
	}

	return refs
}

func (*RelSchema) isSchema() {}
