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
	"errors"
	"fmt"
	"strings"

	"github.com/conduitio-labs/conduit-connector-graphsync/schema"
)

// ErrOwnerWithoutScope occurs when a node schema has an owner but unscoped cleanup,
// which would delete the stale nodes of every owner.
var ErrOwnerWithoutScope = errors.New("owner relationship with unscoped cleanup")

const (
	cleanupVar = "n"
	ownerVar   = "s"
	staleVar   = "r"

	// staleCondition selects entities the current generation did not write.
	staleCondition = "WHERE %s." + schema.PropertyLastUpdated + " <> $" + schema.ScopeUpdateTag
	// limitClause bounds one slice of a sweep.
	limitClause = "WITH %s LIMIT $" + schema.ParamLimitSize

	deleteNodeClause = "DETACH DELETE %s"
	deleteRelClause  = "DELETE %s"
)

// BuildCleanupQueries compiles the statements sweeping stale entities of a node schema.
// Every statement deletes at most $LIMIT_SIZE entities and must be repeated until it
// changes nothing.
//
// With an owner and scoped cleanup the statements delete the stale nodes attached to the
// owner found through the scope, then the stale relationships of those nodes.
// With scoped cleanup and no owner only stale relationships are deleted.
// With unscoped cleanup stale nodes are deleted graph-wide, then stale relationships.
func BuildCleanupQueries(node *schema.NodeSchema) ([]string, error) {
	if node.Owner != nil && !node.ScopedCleanup {
		return nil, fmt.Errorf("%s: %w", node.Label, ErrOwnerWithoutScope)
	}

	if err := node.Validate(); err != nil {
		return nil, fmt.Errorf("validate node schema: %w", err)
	}

	base := fmt.Sprintf(matchClause, cleanupVar, quote(node.Label))

	var queries []string

	switch {
	case node.Owner != nil:
		owner := node.Owner
		base = "MATCH " + relPattern(
			cleanupVar+labelSeparator+quote(node.Label),
			ownerVar,
			owner.Label,
			labelSeparator+quote(owner.TargetLabel)+" "+matchMap(owner.TargetMatcher, ""),
			owner.Direction,
		)

		queries = append(queries,
			sweep(base, cleanupVar, deleteNodeClause),
			sweep(base, ownerVar, deleteRelClause),
		)

	case !node.ScopedCleanup:
		queries = append(queries, sweep(base, cleanupVar, deleteNodeClause))
	}

	for _, rel := range node.Relationships {
		match := base + "\nMATCH " + relPattern(
			cleanupVar, staleVar, rel.Label, labelSeparator+quote(rel.TargetLabel), rel.Direction)

		queries = append(queries, sweep(match, staleVar, deleteRelClause))
	}

	return queries, nil
}

// BuildMatchLinkCleanupQuery compiles the statement sweeping stale relationships of a match link
// written under the _sub_resource_label and _sub_resource_id scope values. Endpoints are never deleted.
func BuildMatchLinkCleanupQuery(rel *schema.RelSchema) (string, error) {
	if err := rel.Validate(); err != nil {
		return "", fmt.Errorf("validate match link: %w", err)
	}

	match := "MATCH " + relPattern(
		fromVar+labelSeparator+quote(rel.SourceLabel),
		linkVar,
		rel.Label,
		toVar+labelSeparator+quote(rel.TargetLabel),
		rel.Direction,
	)

	lines := []string{
		match,
		fmt.Sprintf(staleCondition, linkVar),
		tab + "AND " + linkVar + "." + schema.PropertySubResourceLabel + " = $" + schema.ScopeSubResourceLabel,
		tab + "AND " + linkVar + "." + schema.PropertySubResourceID + " = $" + schema.ScopeSubResourceID,
		fmt.Sprintf(limitClause, linkVar),
		fmt.Sprintf(deleteRelClause, linkVar),
	}

	return strings.Join(lines, "\n"), nil
}

// sweep appends the stale filter, the slice bound, and the delete to a match.
func sweep(match, variable, deleteClause string) string {
	return strings.Join([]string{
		match,
		fmt.Sprintf(staleCondition, variable),
		fmt.Sprintf(limitClause, variable),
		fmt.Sprintf(deleteClause, variable),
	}, "\n")
}
