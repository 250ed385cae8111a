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

// NodeSchema describes one node type and every relationship written together with it.
type NodeSchema struct {
	// Label is the primary label, used to MERGE nodes by id.
	Label string
	// ID binds the node's id property. Every written node carries it.
	ID PropertyRef
	// Properties maps node property names to their sources.
	Properties map[string]PropertyRef
	// Owner is the relationship to the scoping parent, e.g. the account a resource belongs to.
	// It is written in the same statement as the node.
	Owner *RelSchema
	// Relationships are the other relationships written with the node.
	Relationships []RelSchema
	// ExtraLabels are set on every node in addition to Label.
	ExtraLabels []string
	// ScopedCleanup restricts cleanup to nodes attached to the owner given in the scope.
	// Without it stale nodes are deleted graph-wide.
	ScopedCleanup bool
}

// Name returns the node label.
func (n *NodeSchema) Name() string { return n.Label }

// RequiredScopeKeys returns the scope parameters a load of this schema must supply.
func (n *NodeSchema) RequiredScopeKeys() []string {
	return n.bindings().scopeKeys(ScopeUpdateTag)
}

// RequiredFields returns the row fields every row must contain.
func (n *NodeSchema) RequiredFields() []string {
	return n.bindings().requiredFields()
}

// FanOutFields returns the row fields that must hold lists.
func (n *NodeSchema) FanOutFields() []string {
	return n.bindings().fanOutFields()
}

// CleanupScopeKeys returns the scope parameters a scoped cleanup needs to find the owner.
func (n *NodeSchema) CleanupScopeKeys() []string {
	if n.Owner == nil || !n.ScopedCleanup {
		return []string{ScopeUpdateTag}
	}

	return bindings(n.Owner.matcherRefs()).scopeKeys(ScopeUpdateTag)
}

// AllRelationships returns the owner relationship, if any, followed by the other relationships.
func (n *NodeSchema) AllRelationships() []RelSchema {
	rels := make([]RelSchema, 0, len(n.Relationships)+1)
	if n.Owner != nil {
		rels = append(rels, *n.Owner)
	}

	return append(rels, n.Relationships...)
}

func (n *NodeSchema) bindings() bindings {
	refs := bindings{n.ID}
	for _, ref := range n.Properties {
		refs = append(refs, ref)
	}

	for _, rel := range n.AllRelationships() {
		refs = append(refs, rel.matcherRefs()...)
		for _, ref := range rel.Properties {
			refs = append(refs, ref)
		}
	}

	return refs
}

func (*NodeSchema) isSchema() {}
