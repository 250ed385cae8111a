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

package graph

import (
	"context"
	"fmt"

	"github.com/conduitio-labs/conduit-connector-graphsync/querybuilder"
	"github.com/conduitio-labs/conduit-connector-graphsync/schema"
)

// JobFromNodeSchema builds the job sweeping the stale entities of a node schema.
// The scope must carry the sync generation and, for a scoped cleanup, the values the
// owner matcher reads, or a [ScopeError] is returned.
func JobFromNodeSchema(node *schema.NodeSchema, scope Scope, batchSize int) (*Job, error) {
	if node == nil {
		return nil, ErrUnsupportedSchema
	}

	queries, err := querybuilder.BuildCleanupQueries(node)
	if err != nil {
		return nil, fmt.Errorf("build cleanup queries: %w", err)
	}

	if err := checkCleanupScope(node.Label, node.CleanupScopeKeys(), scope); err != nil {
		return nil, err
	}

	job := &Job{Name: "cleanup " + node.Label}
	for _, query := range queries {
		job.Statements = append(job.Statements, Statement{
			Query:         query,
			Iterative:     true,
			IterationSize: batchSize,
		})
	}

	job.MergeParameters(scope.params())

	return job, nil
}

// JobFromMatchLink builds the job sweeping the stale relationships of a match link
// written under the scope label and id. Endpoint nodes are never deleted.
func JobFromMatchLink(
	rel *schema.RelSchema,
	scopeLabel, scopeID string,
	generation int64,
	batchSize int,
) (*Job, error) {
	if rel == nil {
		return nil, ErrUnsupportedSchema
	}

	query, err := querybuilder.BuildMatchLinkCleanupQuery(rel)
	if err != nil {
		return nil, fmt.Errorf("build match link cleanup query: %w", err)
	}

	var missing []string
	if scopeLabel == "" {
		missing = append(missing, schema.ScopeSubResourceLabel)
	}

	if scopeID == "" {
		missing = append(missing, schema.ScopeSubResourceID)
	}

	if len(missing) > 0 {
		return nil, &ScopeError{Schema: rel.Label, Keys: missing}
	}

	job := &Job{
		Name: fmt.Sprintf("cleanup %s from %s to %s", rel.Label, rel.SourceLabel, rel.TargetLabel),
		Statements: []Statement{{
			Query:         query,
			Iterative:     true,
			IterationSize: batchSize,
		}},
	}

	job.MergeParameters(NewScope(generation).WithSubResource(scopeLabel, scopeID).params())

	return job, nil
}

// Cleanup deletes the entities of a node schema that the scope's sync generation did not write.
//
// A scoped cleanup only sees nodes attached to the owner the scope identifies, so it never
// touches what another scope owns. An unscoped cleanup sweeps graph-wide. Nodes are deleted
// together with their relationships, in bounded slices until none is left.
// Scope errors are returned before anything is deleted.
func (e *Engine) Cleanup(ctx context.Context, node *schema.NodeSchema, scope Scope) error {
	job, err := JobFromNodeSchema(node, scope, e.cleanupBatchSize)
	if err != nil {
		return err
	}

	return e.RunJob(ctx, job)
}

// CleanupMatchLink deletes the relationships of a match link written under the scope label
// and id by an earlier generation. Endpoint nodes are left untouched.
func (e *Engine) CleanupMatchLink(
	ctx context.Context,
	rel *schema.RelSchema,
	scopeLabel, scopeID string,
	generation int64,
) error {
	job, err := JobFromMatchLink(rel, scopeLabel, scopeID, generation, e.cleanupBatchSize)
	if err != nil {
		return err
	}

	return e.RunJob(ctx, job)
}

// RunJob runs a job through the engine's runner and statistics.
func (e *Engine) RunJob(ctx context.Context, job *Job) error {
	if err := job.Run(ctx, e.runner, e.stats); err != nil {
		return fmt.Errorf("run job: %w", err)
	}

	return nil
}

func checkCleanupScope(name string, keys []string, scope Scope) error {
	if missing := scope.missing(keys); len(missing) > 0 {
		return &ScopeError{Schema: name, Keys: missing}
	}

	if _, ok := scope.UpdateTag(); !ok {
		return &ScopeError{Schema: name, Keys: []string{schema.ScopeUpdateTag}}
	}

	return nil
}
