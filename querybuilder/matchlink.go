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
	fromVar = "from"
	toVar   = "to"
	linkVar = "r"

	// matchClause requires an endpoint to exist, e.g.: "MATCH (from:AWSRole)".
	matchClause = "MATCH (%s:%s)"
)

// BuildMatchLinkQuery compiles a relationship schema into one statement that connects
// pairs of existing nodes for every row of the $DictList batch.
//
// Rows whose endpoints cannot both be found are skipped. Every relationship is tagged
// with the _sub_resource_label and _sub_resource_id scope values, which bound its cleanup.
func BuildMatchLinkQuery(rel *schema.RelSchema) (string, error) {
	if err := rel.Validate(); err != nil {
		return "", fmt.Errorf("validate match link: %w", err)
	}

	lines := []string{
		fmt.Sprintf(unwindRowsClause, schema.ParamRows, itemVar),
		fmt.Sprintf(matchClause, fromVar, quote(rel.SourceLabel)),
		whereKeyword + strings.Join(matchConditions(fromVar, rel.SourceMatcher, ""), conditionJoiner),
	}

	if rel.CreateStub {
		lines = append(lines, stubClauses(toVar, rel.TargetLabel, rel.TargetMatcher, "")...)
	} else {
		lines = append(lines,
			fmt.Sprintf(matchClause, toVar, quote(rel.TargetLabel)),
			whereKeyword+strings.Join(matchConditions(toVar, rel.TargetMatcher, ""), conditionJoiner),
		)
	}

	lines = append(lines,
		fmt.Sprintf(mergeRelClause, relPattern(fromVar, linkVar, rel.Label, toVar, rel.Direction)),
		fmt.Sprintf(onCreateClause, linkVar, schema.PropertyFirstSeen, firstSeenExpr),
		setKeyword,
		indent(strings.Join(relAssignments(linkVar, rel, true), propertySeparator), tab),
	)

	return strings.Join(lines, "\n"), nil
}
