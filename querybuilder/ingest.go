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
	// tab indents nested clauses.
	tab = "    "

	// unwindRowsClause iterates over the batch, e.g.: "UNWIND $DictList AS item".
	unwindRowsClause = "UNWIND $%s AS %s"
	// mergeNodeClause finds or creates a node by id, e.g.: "MERGE (i:AWSUser {id: item.Arn})".
	mergeNodeClause = "MERGE (%s:%s {%s: %s})"
	// onCreateClause stamps the first time an entity was written.
	onCreateClause = "ON CREATE SET %s.%s = %s"
	// removeClause drops a property, e.g.: "REMOVE i._stub".
	removeClause = "REMOVE %s.%s"
	// unwindFanOutClause iterates over the non-null elements of a list field.
	unwindFanOutClause = "UNWIND [x IN coalesce(%s, []) WHERE x IS NOT NULL] AS %s"
	// optionalMatchClause looks an endpoint up without failing the row when it is absent.
	optionalMatchClause = "OPTIONAL MATCH (%s:%s)"
	// skipUnresolvedClause drops the rows whose endpoint was not found.
	skipUnresolvedClause = "WITH %s, %s, %s WHERE %s IS NOT NULL"
	// mergeStubClause finds or creates a placeholder endpoint, e.g.: "MERGE (n0:AWSAccount {id: item.Id})".
	mergeStubClause = "MERGE (%s:%s %s)"
	// stubOnCreateClause marks a placeholder endpoint created by a relationship.
	stubOnCreateClause = "ON CREATE SET %s.%s = %s, %s.%s = %s, %s.%s = true"
	// carryClause passes the node and the row into a subquery.
	carryClause = "WITH %s, %s"
	// mergeRelClause finds or creates a relationship, e.g.: "MERGE (i)-[r0:MEMBER_OF]->(n0)".
	mergeRelClause = "MERGE %s"

	setKeyword   = "SET"
	whereKeyword = "WHERE "
	callOpen     = "CALL {"
	callClose    = "}"
	unionJoiner  = "\nUNION\n"
)

// BuildIngestionQuery compiles a node schema into one statement that upserts every row
// of the $DictList batch together with all of its relationships.
//
// Nodes are merged by id. Each relationship is folded into the same statement as one
// branch of a CALL subquery, so the statement count does not grow with the number of
// relationships.
func BuildIngestionQuery(node *schema.NodeSchema) (string, error) {
	if err := node.Validate(); err != nil {
		return "", fmt.Errorf("validate node schema: %w", err)
	}

	lines := []string{
		fmt.Sprintf(unwindRowsClause, schema.ParamRows, itemVar),
		fmt.Sprintf(mergeNodeClause, nodeVar, quote(node.Label), schema.PropertyID, valueExpr(node.ID)),
		fmt.Sprintf(onCreateClause, nodeVar, schema.PropertyFirstSeen, firstSeenExpr),
		setKeyword,
		indent(strings.Join(nodeAssignments(node), propertySeparator), tab),
		fmt.Sprintf(removeClause, nodeVar, schema.PropertyStub),
	}

	rels := node.AllRelationships()
	if len(rels) == 0 {
		return strings.Join(lines, "\n"), nil
	}

	branches := make([]string, 0, len(rels))
	for idx := range rels {
		branches = append(branches, relBranch(&rels[idx], idx))
	}

	lines = append(lines,
		fmt.Sprintf(carryClause, nodeVar, itemVar),
		callOpen,
		indent(strings.Join(branches, unionJoiner), tab),
		callClose,
	)

	return strings.Join(lines, "\n"), nil
}

// nodeAssignments returns the SET list of a node: the update tag, the bound properties,
// and the extra labels.
func nodeAssignments(node *schema.NodeSchema) []string {
	assignments := []string{nodeVar + "." + schema.PropertyLastUpdated + " = " + updateTagExpr}
	assignments = append(assignments, setProperties(nodeVar, node.Properties)...)

	if len(node.ExtraLabels) > 0 {
		assignments = append(assignments, nodeVar+labelSeparator+labels(node.ExtraLabels...))
	}

	return assignments
}

// relAssignments returns the SET list of a relationship.
func relAssignments(relVar string, rel *schema.RelSchema, subResource bool) []string {
	assignments := []string{relVar + "." + schema.PropertyLastUpdated + " = " + updateTagExpr}

	if subResource {
		assignments = append(assignments,
			relVar+"."+schema.PropertySubResourceLabel+" = "+interpolationSign+schema.ScopeSubResourceLabel,
			relVar+"."+schema.PropertySubResourceID+" = "+interpolationSign+schema.ScopeSubResourceID,
		)
	}

	return append(assignments, setProperties(relVar, rel.Properties)...)
}

// relBranch compiles one relationship of a node schema into a CALL subquery branch.
func relBranch(rel *schema.RelSchema, idx int) string {
	var (
		target = fmt.Sprintf("n%d", idx)
		relVar = fmt.Sprintf("r%d", idx)
		fanVar = fmt.Sprintf("v%d", idx)
	)

	lines := []string{fmt.Sprintf(carryClause, nodeVar, itemVar)}

	if ref, ok := fanOutKey(rel.TargetMatcher); ok {
		lines = append(lines, fmt.Sprintf(unwindFanOutClause, valueExpr(ref), fanVar))
	}

	if rel.CreateStub {
		lines = append(lines, stubClauses(target, rel.TargetLabel, rel.TargetMatcher, fanVar)...)
	} else {
		lines = append(lines,
			fmt.Sprintf(optionalMatchClause, target, quote(rel.TargetLabel)),
			whereKeyword+strings.Join(matchConditions(target, rel.TargetMatcher, fanVar), conditionJoiner),
			fmt.Sprintf(skipUnresolvedClause, nodeVar, itemVar, target, target),
		)
	}

	lines = append(lines,
		fmt.Sprintf(mergeRelClause, relPattern(nodeVar, relVar, rel.Label, target, rel.Direction)),
		fmt.Sprintf(onCreateClause, relVar, schema.PropertyFirstSeen, firstSeenExpr),
		setKeyword,
		indent(strings.Join(relAssignments(relVar, rel, false), propertySeparator), tab),
	)

	return strings.Join(lines, "\n")
}

// stubClauses merges a placeholder endpoint by its matcher and marks it when it is created.
func stubClauses(variable, label string, matcher schema.Matcher, fanVar string) []string {
	return []string{
		fmt.Sprintf(mergeStubClause, variable, quote(label), matchMap(matcher, fanVar)),
		fmt.Sprintf(stubOnCreateClause,
			variable, schema.PropertyFirstSeen, firstSeenExpr,
			variable, schema.PropertyLastUpdated, updateTagExpr,
			variable, schema.PropertyStub),
	}
}
