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

package querybuilder

import (
	"fmt"
	"strings"

	"github.com/conduitio-labs/conduit-connector-graphsync/schema"
)

const (
	// createNodeIndexTemplate is a template for creating a node property index,
	// e.g.: "CREATE INDEX IF NOT EXISTS FOR (n:AWSUser) ON (n.id)".
	createNodeIndexTemplate = "CREATE INDEX IF NOT EXISTS FOR (n:%s) ON (n.%s)"
	// createRelIndexTemplate is a template for creating a relationship property index.
	createRelIndexTemplate = "CREATE INDEX IF NOT EXISTS FOR ()-[r:%s]-() ON (%s)"
)

// BuildIndexQueries returns the index statements a node schema needs for fast merges,
// endpoint lookups and cleanup: the id and lastupdated of every label it writes,
// the indexed properties, and the matcher keys of every relationship target.
func BuildIndexQueries(node *schema.NodeSchema) ([]string, error) {
	if err := node.Validate(); err != nil {
		return nil, fmt.Errorf("validate node schema: %w", err)
	}

	var idx indexSet

	idx.node(node.Label, schema.PropertyID, schema.PropertyLastUpdated)

	for _, label := range node.ExtraLabels {
		idx.node(label, schema.PropertyID)
	}

	for _, name := range schema.SortedNames(node.Properties) {
		if node.Properties[name].Indexed {
			idx.node(node.Label, name)
		}
	}

	for _, rel := range node.AllRelationships() {
		idx.node(rel.TargetLabel, schema.SortedNames(rel.TargetMatcher)...)
	}

	return idx.queries, nil
}

// BuildMatchLinkIndexQueries returns the index statements a match link needs:
// the matcher keys of both endpoints, and a composite relationship index on the
// properties its cleanup filters by.
func BuildMatchLinkIndexQueries(rel *schema.RelSchema) ([]string, error) {
	if err := rel.Validate(); err != nil {
		return nil, fmt.Errorf("validate match link: %w", err)
	}

	var idx indexSet

	idx.node(rel.SourceLabel, schema.SortedNames(rel.SourceMatcher)...)
	idx.node(rel.TargetLabel, schema.SortedNames(rel.TargetMatcher)...)

	props := []string{
		staleVar + "." + schema.PropertyLastUpdated,
		staleVar + "." + schema.PropertySubResourceLabel,
		staleVar + "." + schema.PropertySubResourceID,
	}
	idx.add(fmt.Sprintf(createRelIndexTemplate, quote(rel.Label), strings.Join(props, ", ")))

	return idx.queries, nil
}

// indexSet collects index statements in order, without duplicates.
type indexSet struct {
	seen    map[string]struct{}
	queries []string
}

func (s *indexSet) node(label string, props ...string) {
	for _, prop := range props {
		s.add(fmt.Sprintf(createNodeIndexTemplate, quote(label), quote(prop)))
	}
}

func (s *indexSet) add(query string) {
	if s.seen == nil {
		s.seen = make(map[string]struct{})
	}

	if _, ok := s.seen[query]; ok {
		return
	}

	s.seen[query] = struct{}{}
	s.queries = append(s.queries, query)
}
