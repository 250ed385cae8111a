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
	"errors"
	"fmt"
	"os"
	"sort"

	"github.com/mitchellh/mapstructure"
	"gopkg.in/yaml.v3"
)

// Definitions holds named node schemas and match links declared in a YAML or JSON document:
//
//	nodes:
//	  AWSUser:
//	    id: {field: Arn}
//	    properties:
//	      name: {field: UserName, optional: true}
//	    owner:
//	      label: RESOURCE
//	      direction: inward
//	      target: AWSAccount
//	      match: {id: {scope: AWS_ID}}
//	matchLinks:
//	  role-trust:
//	    label: TRUSTS
//	    source: AWSRole
//	    sourceMatch: {arn: {field: RoleArn}}
//	    target: AWSPrincipal
//	    match: {arn: {field: PrincipalArn}}
type Definitions struct {
	nodes      map[string]*NodeSchema
	matchLinks map[string]*RelSchema
}

type definitionsDoc struct {
	Nodes      map[string]nodeDef `mapstructure:"nodes"`
	MatchLinks map[string]relDef  `mapstructure:"matchLinks"`
}

type nodeDef struct {
	Label         string            `mapstructure:"label"`
	ID            refDef            `mapstructure:"id"`
	Properties    map[string]refDef `mapstructure:"properties"`
	Owner         *relDef           `mapstructure:"owner"`
	Relationships []relDef          `mapstructure:"relationships"`
	ExtraLabels   []string          `mapstructure:"extraLabels"`
	ScopedCleanup *bool             `mapstructure:"scopedCleanup"`
}

type relDef struct {
	Label       string            `mapstructure:"label"`
	Direction   string            `mapstructure:"direction"`
	Target      string            `mapstructure:"target"`
	Match       map[string]refDef `mapstructure:"match"`
	Source      string            `mapstructure:"source"`
	SourceMatch map[string]refDef `mapstructure:"sourceMatch"`
	Properties  map[string]refDef `mapstructure:"properties"`
	CreateStub  bool              `mapstructure:"createStub"`
}

type refDef struct {
	Field           string `mapstructure:"field"`
	Scope           string `mapstructure:"scope"`
	Indexed         bool   `mapstructure:"indexed"`
	FanOut          bool   `mapstructure:"fanOut"`
	Optional        bool   `mapstructure:"optional"`
	IgnoreCase      bool   `mapstructure:"ignoreCase"`
	FuzzyIgnoreCase bool   `mapstructure:"fuzzyIgnoreCase"`
}

// LoadDefinitions reads and parses a definitions file.
func LoadDefinitions(path string) (*Definitions, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read definitions file: %w", err)
	}

	defs, err := ParseDefinitions(data)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}

	return defs, nil
}

// ParseDefinitions parses a YAML or JSON definitions document and validates every schema in it.
func ParseDefinitions(data []byte) (*Definitions, error) {
	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("unmarshal definitions: %w", err)
	}

	var doc definitionsDoc

	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		ErrorUnused: true,
		Result:      &doc,
	})
	if err != nil {
		return nil, fmt.Errorf("create decoder: %w", err)
	}

	if err := decoder.Decode(raw); err != nil {
		return nil, fmt.Errorf("decode definitions: %w", err)
	}

	defs := &Definitions{
		nodes:      make(map[string]*NodeSchema, len(doc.Nodes)),
		matchLinks: make(map[string]*RelSchema, len(doc.MatchLinks)),
	}

	for name, def := range doc.Nodes {
		node, err := def.build(name)
		if err != nil {
			return nil, fmt.Errorf("node %q: %w", name, err)
		}

		if err := node.Validate(); err != nil {
			return nil, fmt.Errorf("node %q: %w", name, err)
		}

		defs.nodes[name] = node
	}

	for name, def := range doc.MatchLinks {
		rel, err := def.build()
		if err != nil {
			return nil, fmt.Errorf("match link %q: %w", name, err)
		}

		if err := rel.Validate(); err != nil {
			return nil, fmt.Errorf("match link %q: %w", name, err)
		}

		defs.matchLinks[name] = rel
	}

	return defs, nil
}

// Node returns the named node schema.
func (d *Definitions) Node(name string) (*NodeSchema, error) {
	node, ok := d.nodes[name]
	if !ok {
		return nil, fmt.Errorf("%w: node %q", ErrUnknownSchema, name)
	}

	return node, nil
}

// MatchLink returns the named match link.
func (d *Definitions) MatchLink(name string) (*RelSchema, error) {
	rel, ok := d.matchLinks[name]
	if !ok {
		return nil, fmt.Errorf("%w: match link %q", ErrUnknownSchema, name)
	}

	return rel, nil
}

// Lookup returns the named node schema or, failing that, the named match link.
func (d *Definitions) Lookup(name string) (Schema, error) {
	if node, ok := d.nodes[name]; ok {
		return node, nil
	}

	if rel, ok := d.matchLinks[name]; ok {
		return rel, nil
	}

	return nil, fmt.Errorf("%w: %q", ErrUnknownSchema, name)
}

// NodeNames returns the names of all node schemas, sorted.
func (d *Definitions) NodeNames() []string {
	return sortedMapKeys(d.nodes)
}

// MatchLinkNames returns the names of all match links, sorted.
func (d *Definitions) MatchLinkNames() []string {
	return sortedMapKeys(d.matchLinks)
}

func sortedMapKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for key := range m {
		keys = append(keys, key)
	}

	sort.Strings(keys)

	return keys
}

func (d nodeDef) build(name string) (*NodeSchema, error) {
	id, err := d.ID.build()
	if err != nil {
		return nil, fmt.Errorf("id: %w", err)
	}

	props, err := buildRefs(d.Properties)
	if err != nil {
		return nil, fmt.Errorf("properties: %w", err)
	}

	node := &NodeSchema{
		Label:         d.Label,
		ID:            id,
		Properties:    props,
		ExtraLabels:   d.ExtraLabels,
		ScopedCleanup: true,
	}

	if node.Label == "" {
		node.Label = name
	}

	if d.ScopedCleanup != nil {
		node.ScopedCleanup = *d.ScopedCleanup
	}

	if d.Owner != nil {
		owner, err := d.Owner.build()
		if err != nil {
			return nil, fmt.Errorf("owner: %w", err)
		}

		node.Owner = owner
	}

	for i, relDef := range d.Relationships {
		rel, err := relDef.build()
		if err != nil {
			return nil, fmt.Errorf("relationship %d: %w", i, err)
		}

		node.Relationships = append(node.Relationships, *rel)
	}

	return node, nil
}

func (d relDef) build() (*RelSchema, error) {
	direction, err := ParseDirection(d.Direction)
	if err != nil {
		return nil, err
	}

	target, err := buildRefs(d.Match)
	if err != nil {
		return nil, fmt.Errorf("match: %w", err)
	}

	source, err := buildRefs(d.SourceMatch)
	if err != nil {
		return nil, fmt.Errorf("source match: %w", err)
	}

	props, err := buildRefs(d.Properties)
	if err != nil {
		return nil, fmt.Errorf("properties: %w", err)
	}

	return &RelSchema{
		Label:         d.Label,
		Direction:     direction,
		TargetLabel:   d.Target,
		TargetMatcher: target,
		SourceLabel:   d.Source,
		SourceMatcher: source,
		Properties:    props,
		CreateStub:    d.CreateStub,
	}, nil
}

func buildRefs(defs map[string]refDef) (map[string]PropertyRef, error) {
	if len(defs) == 0 {
		return nil, nil
	}

	refs := make(map[string]PropertyRef, len(defs))
	for name, def := range defs {
		ref, err := def.build()
		if err != nil {
			return nil, fmt.Errorf("%q: %w", name, err)
		}

		refs[name] = ref
	}

	return refs, nil
}

func (d refDef) build() (PropertyRef, error) {
	var ref PropertyRef

	switch {
	case d.Field != "" && d.Scope != "":
		return PropertyRef{}, errors.New("set either field or scope, not both")
	case d.Field != "":
		ref = FromField(d.Field)
	case d.Scope != "":
		ref = FromScope(d.Scope)
	default:
		return PropertyRef{}, errors.New("set either field or scope")
	}

	ref.Indexed = d.Indexed
	ref.FanOut = d.FanOut
	ref.Optional = d.Optional
	ref.IgnoreCase = d.IgnoreCase
	ref.FuzzyIgnoreCase = d.FuzzyIgnoreCase

	return ref, nil
}
