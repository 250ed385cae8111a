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
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/conduitio-labs/conduit-connector-graphsync/schema"
	"github.com/conduitio-labs/conduit-connector-graphsync/stats"
	"github.com/conduitio-labs/conduit-connector-graphsync/store"
	"github.com/rs/zerolog"
)

// Job is an ordered list of statements run against the graph store, usually a cleanup.
//
// Jobs are built from schemas (see [JobFromNodeSchema] and [JobFromMatchLink]) or read
// from JSON documents of the form:
//
//	{
//	  "name": "cleanup stale users",
//	  "statements": [
//	    {"query": "MATCH (n:AWSUser) WHERE n.lastupdated <> $UPDATE_TAG WITH n LIMIT $LIMIT_SIZE DETACH DELETE n",
//	     "iterative": true, "iterationsize": 100}
//	  ]
//	}
type Job struct {
	Name       string
	Statements []Statement
}

type jobJSON struct {
	Name       string          `json:"name"`
	Statements []statementJSON `json:"statements"`
}

type statementJSON struct {
	Query         string         `json:"query"`
	Parameters    map[string]any `json:"parameters,omitempty"`
	Iterative     bool           `json:"iterative,omitempty"`
	IterationSize int            `json:"iterationsize,omitempty"`
}

// MergeParameters adds params to every statement, overriding values already set.
func (j *Job) MergeParameters(params map[string]any) {
	for i := range j.Statements {
		j.Statements[i] = j.Statements[i].MergeParameters(params)
	}
}

// Run executes the statements in order and stops at the first failure, which is logged
// and returned. Store failures are returned as a [TransactionError].
func (j *Job) Run(ctx context.Context, runner store.Runner, collector stats.Collector) error {
	logger := zerolog.Ctx(ctx).With().Str("job", j.Name).Logger()

	if collector == nil {
		collector = stats.Discard
	}

	var total store.Counters

	for i, statement := range j.Statements {
		counters, runs, err := statement.run(ctx, runner)
		total = total.Add(counters)

		if err != nil {
			logger.Error().Err(err).
				Int("statement", i).
				Int("runs", runs).
				Msg("job statement failed")

			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return fmt.Errorf("run statement %d of %q: %w", i, j.Name, err)
			}

			return &TransactionError{Schema: j.Name, Err: fmt.Errorf("statement %d: %w", i, err)}
		}

		logger.Debug().
			Int("statement", i).
			Int("runs", runs).
			Int("nodes_deleted", counters.NodesDeleted).
			Int("relationships_deleted", counters.RelationshipsDeleted).
			Msg("job statement finished")
	}

	report(collector, "job."+j.Name, total)

	logger.Info().
		Int("statements", len(j.Statements)).
		Int("nodes_deleted", total.NodesDeleted).
		Int("relationships_deleted", total.RelationshipsDeleted).
		Msg("job finished")

	return nil
}

// MarshalJSON encodes the job in the format [JobFromJSON] reads.
func (j *Job) MarshalJSON() ([]byte, error) {
	doc := jobJSON{
		Name:       j.Name,
		Statements: make([]statementJSON, 0, len(j.Statements)),
	}

	for _, statement := range j.Statements {
		doc.Statements = append(doc.Statements, statementJSON{
			Query:         statement.Query,
			Parameters:    statement.Parameters,
			Iterative:     statement.Iterative,
			IterationSize: statement.IterationSize,
		})
	}

	data, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("marshal job: %w", err)
	}

	return data, nil
}

// JobFromJSON reads a job document. Integral numbers in parameters become integers.
func JobFromJSON(data []byte) (*Job, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	dec.DisallowUnknownFields()

	var doc jobJSON
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("unmarshal job: %w", err)
	}

	if len(doc.Statements) == 0 {
		return nil, fmt.Errorf("%w: %q has no statements", ErrInvalidJob, doc.Name)
	}

	job := &Job{
		Name:       doc.Name,
		Statements: make([]Statement, 0, len(doc.Statements)),
	}

	for i, statement := range doc.Statements {
		if strings.TrimSpace(statement.Query) == "" {
			return nil, fmt.Errorf("%w: %q: statement %d has no query", ErrInvalidJob, doc.Name, i)
		}

		job.Statements = append(job.Statements, Statement{
			Query:         statement.Query,
			Parameters:    normalizeParams(statement.Parameters),
			Iterative:     statement.Iterative,
			IterationSize: statement.IterationSize,
		})
	}

	return job, nil
}

// JobFromJSONFile reads a job document from a file. A job without a name is named after the file.
func JobFromJSONFile(path string) (*Job, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read job file: %w", err)
	}

	job, err := JobFromJSON(data)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}

	if job.Name == "" {
		job.Name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}

	return job, nil
}

// normalizeParams converts decoded JSON numbers into the values the store expects.
func normalizeParams(params map[string]any) map[string]any {
	if len(params) == 0 {
		return nil
	}

	normalized := make(map[string]any, len(params))
	for key, raw := range params {
		value, err := schema.FromAny(raw)
		if err != nil {
			normalized[key] = raw

			continue
		}

		normalized[key] = value.Any()
	}

	return normalized
}
