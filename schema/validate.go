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

import "strings"

var (
	reservedNodeProperties = map[string]struct{}{
		PropertyID:          {},
		PropertyFirstSeen:   {},
		PropertyLastUpdated: {},
		PropertyStub:        {},
	}

	reservedRelProperties = map[string]struct{}{
		PropertyFirstSeen:        {},
		PropertyLastUpdated:      {},
		PropertySubResourceLabel: {},
		PropertySubResourceID:    {},
	}

	// scope names that would collide with statement parameters.
	reservedScopeNames = map[string]struct{}{
		ParamRows:      {},
		ParamLimitSize: {},
	}
)

// Validate reports whether the node schema can be compiled into a load and a cleanup.
func (n *NodeSchema) Validate() error {
	if strings.TrimSpace(n.Label) == "" {
		return invalid(n.Label, "empty label")
	}

	if err := validateRef(n.Label, "id", n.ID); err != nil {
		return err
	}

	switch {
	case n.ID.FanOut, n.ID.IgnoreCase, n.ID.FuzzyIgnoreCase:
		return invalid(n.Label, "id can only be a plain field or scope value")
	case n.ID.Optional:
		return invalid(n.Label, "id cannot be optional")
	}

	for _, name := range SortedNames(n.Properties) {
		if _, ok := reservedNodeProperties[name]; ok {
			return invalid(n.Label, "property %q is set by the engine", name)
		}

		ref := n.Properties[name]
		if err := validateRef(n.Label, name, ref); err != nil {
			return err
		}

		if ref.FanOut || ref.IgnoreCase || ref.FuzzyIgnoreCase {
			return invalid(n.Label, "property %q: fan-out and case folding only apply to matchers", name)
		}
	}

	for _, label := range n.ExtraLabels {
		if strings.TrimSpace(label) == "" {
			return invalid(n.Label, "empty extra label")
		}

		if label == n.Label {
			return invalid(n.Label, "extra label repeats the primary label")
		}
	}

	if n.Owner != nil {
		if !n.ScopedCleanup {
			return invalid(n.Label, "an owner relationship requires scoped cleanup, "+
				"otherwise stale nodes of every owner would be deleted")
		}

		if err := n.Owner.validate(n.Label, false); err != nil {
			return err
		}

		for _, key := range SortedNames(n.Owner.TargetMatcher) {
			ref := n.Owner.TargetMatcher[key]
			if !ref.FromScope {
				return invalid(n.Label, "owner matcher %q must read a scope value", key)
			}

			if ref.FanOut || ref.IgnoreCase || ref.FuzzyIgnoreCase {
				return invalid(n.Label, "owner matcher %q must be an exact match", key)
			}
		}
	}

	for i := range n.Relationships {
		if err := n.Relationships[i].validate(n.Label, false); err != nil {
			return err
		}
	}

	return nil
}

// Validate reports whether the relationship schema can be compiled into a match link.
func (r *RelSchema) Validate() error {
	return r.validate(r.Label, true)
}

func (r *RelSchema) validate(owner string, standalone bool) error {
	if strings.TrimSpace(r.Label) == "" {
		return invalid(owner, "relationship with empty label")
	}

	if strings.TrimSpace(r.TargetLabel) == "" {
		return invalid(owner, "relationship %q has no target label", r.Label)
	}

	if err := validateMatcher(owner, r.Label, r.TargetMatcher, standalone); err != nil {
		return err
	}

	switch {
	case standalone:
		if strings.TrimSpace(r.SourceLabel) == "" {
			return invalid(owner, "match link %q has no source label", r.Label)
		}

		if err := validateMatcher(owner, r.Label, r.SourceMatcher, true); err != nil {
			return err
		}

	case r.SourceLabel != "" || len(r.SourceMatcher) > 0:
		return invalid(owner, "relationship %q: the node is the source, drop the source matcher", r.Label)
	}

	if r.CreateStub {
		ref, ok := r.TargetMatcher[PropertyID]
		if !ok || len(r.TargetMatcher) != 1 {
			return invalid(owner, "relationship %q: stub creation needs a matcher on %q only", r.Label, PropertyID)
		}

		if ref.IgnoreCase || ref.FuzzyIgnoreCase || ref.Optional {
			return invalid(owner, "relationship %q: stub creation needs an exact, required match", r.Label)
		}
	}

	for _, name := range SortedNames(r.Properties) {
		if _, ok := reservedRelProperties[name]; ok {
			return invalid(owner, "relationship %q: property %q is set by the engine", r.Label, name)
		}

		ref := r.Properties[name]
		if err := validateRef(owner, name, ref); err != nil {
			return err
		}

		if ref.FanOut || ref.IgnoreCase || ref.FuzzyIgnoreCase {
			return invalid(owner, "relationship %q: property %q: fan-out and case folding only apply to matchers",
				r.Label, name)
		}
	}

	return nil
}

func validateMatcher(owner, rel string, matcher Matcher, standalone bool) error {
	if len(matcher) == 0 {
		return invalid(owner, "relationship %q has an empty matcher", rel)
	}

	var fanOuts int
	for _, key := range SortedNames(matcher) {
		if strings.TrimSpace(key) == "" {
			return invalid(owner, "relationship %q: matcher with empty key", rel)
		}

		ref := matcher[key]
		if err := validateRef(owner, key, ref); err != nil {
			return err
		}

		if ref.IgnoreCase && ref.FuzzyIgnoreCase {
			return invalid(owner, "relationship %q: matcher %q: pick either ignore case or fuzzy ignore case", rel, key)
		}

		if !ref.FanOut {
			continue
		}

		switch {
		case standalone:
			return invalid(owner, "match link %q: matcher %q cannot fan out", rel, key)
		case ref.FromScope:
			return invalid(owner, "relationship %q: matcher %q: scope values cannot fan out", rel, key)
		case ref.IgnoreCase || ref.FuzzyIgnoreCase:
			return invalid(owner, "relationship %q: matcher %q: fan-out cannot be combined with case folding", rel, key)
		}

		fanOuts++
	}

	if fanOuts > 1 {
		return invalid(owner, "relationship %q: at most one matcher key can fan out", rel)
	}

	return nil
}

func validateRef(owner, prop string, ref PropertyRef) error {
	if strings.TrimSpace(ref.Name) == "" {
		return invalid(owner, "%q has no source name", prop)
	}

	if _, ok := reservedScopeNames[ref.Name]; ok && ref.FromScope {
		return invalid(owner, "%q reads the reserved parameter %q", prop, ref.Name)
	}

	return nil
}
