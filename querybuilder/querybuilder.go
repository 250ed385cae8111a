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

// Package querybuilder compiles node schemas and relationship schemas into batched,
// parameterized Cypher statements: one ingestion statement per batch of rows,
// and bounded delete statements for cleanup.
package querybuilder

import (
	"regexp"
	"strings"

	"github.com/conduitio-labs/conduit-connector-graphsync/schema"
)

const (
	// some helper symbols for Cypher queries.
	itemVar           = "item"
	nodeVar           = "i"
	interpolationSign = "$"
	propertySeparator = ",\n"
	conditionJoiner   = " AND "
	labelSeparator    = ":"

	// expressions the engine sets on every entity.
	firstSeenExpr = "timestamp()"
	updateTagExpr = interpolationSign + schema.ScopeUpdateTag
)

var identifierPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// quote escapes a label, property, or parameter name when it is not a plain identifier.
func quote(name string) string {
	if identifierPattern.MatchString(name) {
		return name
	}

	return "`" + strings.ReplaceAll(name, "`", "``") + "`"
}

// labels joins labels the way Cypher expects them after a variable, e.g.: "AWSUser:Principal".
func labels(names ...string) string {
	quoted := make([]string, 0, len(names))
	for _, name := range names {
		quoted = append(quoted, quote(name))
	}

	return strings.Join(quoted, labelSeparator)
}

// valueExpr returns the expression reading the ref, e.g.: "item.Arn" or "$AWS_ID".
func valueExpr(ref schema.PropertyRef) string {
	if ref.FromScope {
		return interpolationSign + quote(ref.Name)
	}

	return itemVar + "." + quote(ref.Name)
}

// setProperties constructs a set of assignments
// according to the Cypher SET syntax, e.g.: "r.prop = item.prop".
func setProperties(variable string, props map[string]schema.PropertyRef) []string {
	assignments := make([]string, 0, len(props))
	for _, name := range schema.SortedNames(props) {
		assignments = append(assignments, variable+"."+quote(name)+" = "+valueExpr(props[name]))
	}

	return assignments
}

// matchConditions constructs the WHERE conditions finding an endpoint, e.g.: "n0.arn = item.RoleArn".
// fanOutVar replaces the value expression of the fan-out key.
func matchConditions(variable string, matcher schema.Matcher, fanOutVar string) []string {
	conditions := make([]string, 0, len(matcher))
	for _, key := range schema.SortedNames(matcher) {
		ref := matcher[key]
		prop := variable + "." + quote(key)
		value := valueExpr(ref)

		switch {
		case ref.FanOut:
			conditions = append(conditions, prop+" = "+fanOutVar)
		case ref.IgnoreCase:
			conditions = append(conditions, "toLower("+prop+") = toLower("+value+")")
		case ref.FuzzyIgnoreCase:
			conditions = append(conditions, "toLower("+prop+") CONTAINS toLower("+value+")")
		default:
			conditions = append(conditions, prop+" = "+value)
		}
	}

	return conditions
}

// matchMap constructs an inline property map, e.g.: "{id: $AWS_ID}".
func matchMap(matcher schema.Matcher, fanOutVar string) string {
	pairs := make([]string, 0, len(matcher))
	for _, key := range schema.SortedNames(matcher) {
		ref := matcher[key]

		value := valueExpr(ref)
		if ref.FanOut {
			value = fanOutVar
		}

		pairs = append(pairs, quote(key)+": "+value)
	}

	return "{" + strings.Join(pairs, ", ") + "}"
}

// fanOutKey returns the matcher ref that fans out, if any.
func fanOutKey(matcher schema.Matcher) (schema.PropertyRef, bool) {
	for _, key := range schema.SortedNames(matcher) {
		if ref := matcher[key]; ref.FanOut {
			return ref, true
		}
	}

	return schema.PropertyRef{}, false
}

// relPattern draws the relationship between two variables in the schema's direction.
func relPattern(from, relVar, relLabel, to string, direction schema.Direction) string {
	if direction == schema.Inward {
		return "(" + from + ")<-[" + relVar + ":" + quote(relLabel) + "]-(" + to + ")"
	}

	return "(" + from + ")-[" + relVar + ":" + quote(relLabel) + "]->(" + to + ")"
}

// indent prefixes every non-empty line.
func indent(text, prefix string) string {
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		if line != "" {
			lines[i] = prefix + line
		}
	}

	return strings.Join(lines, "\n")
}
