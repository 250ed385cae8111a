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

	"github.com/conduitio-labs/conduit-connector-graphsync/schema"
	"github.com/conduitio-labs/conduit-connector-graphsync/store"
)

// Statement is one step of a [Job].
//
// An iterative statement deletes at most IterationSize entities per run, bound to
// $LIMIT_SIZE, and is run again until a run changes nothing.
type Statement struct {
	Query         string
	Parameters    map[string]any
	Iterative     bool
	IterationSize int
}

// MergeParameters returns a copy of the statement whose parameters are overridden by params.
func (s Statement) MergeParameters(params map[string]any) Statement {
	merged := make(map[string]any, len(s.Parameters)+len(params))
	for key, value := range s.Parameters {
		merged[key] = value
	}

	for key, value := range params {
		merged[key] = value
	}

	s.Parameters = merged

	return s
}

// run executes the statement once or, when iterative, slice by slice until nothing is left.
// Cancellation is checked between slices, a slice itself always completes or fails as a unit.
func (s Statement) run(ctx context.Context, runner store.Runner) (store.Counters, int, error) {
	if !s.Iterative {
		counters, err := runner.RunWrite(ctx, s.Query, s.Parameters)
		if err != nil {
			return store.Counters{}, 0, fmt.Errorf("run write: %w", err)
		}

		return counters, 1, nil
	}

	size := s.IterationSize
	if size <= 0 {
		size = DefaultCleanupBatchSize
	}

	params := s.MergeParameters(map[string]any{schema.ParamLimitSize: size}).Parameters

	var (
		total store.Counters
		runs  int
	)

	for {
		if err := ctx.Err(); err != nil {
			return total, runs, fmt.Errorf("sweep interrupted: %w", err)
		}

		counters, err := runner.RunWrite(ctx, s.Query, params)
		if err != nil {
			return total, runs, fmt.Errorf("run write: %w", err)
		}

		runs++
		total = total.Add(counters)

		if !counters.ContainsUpdates() {
			return total, runs, nil
		}
	}
}
