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

// Package fanout fetches rows from several sources concurrently ahead of a single load.
package fanout

import (
	"context"
	"fmt"

	"github.com/conduitio-labs/conduit-connector-graphsync/schema"
	"golang.org/x/sync/errgroup"
)

// Task fetches one slice of the rows to load, for example one region or one page.
type Task func(ctx context.Context) ([]schema.Row, error)

// Gather runs the tasks with at most limit of them in flight and returns their rows
// concatenated in task order. A limit below one runs all tasks at once.
// The first failure cancels the context of the remaining tasks and is returned.
func Gather(ctx context.Context, limit int, tasks ...Task) ([]schema.Row, error) {
	results := make([][]schema.Row, len(tasks))

	group, groupCtx := errgroup.WithContext(ctx)
	if limit > 0 {
		group.SetLimit(limit)
	}

	for i, task := range tasks {
		group.Go(func() error {
			if err := groupCtx.Err(); err != nil {
				return fmt.Errorf("task %d: %w", i, err)
			}

			rows, err := task(groupCtx)
			if err != nil {
				return fmt.Errorf("task %d: %w", i, err)
			}

			results[i] = rows

			return nil
		})
	}

	if err := group.Wait(); err != nil {
		return nil, fmt.Errorf("gather rows: %w", err)
	}

	var total int
	for _, rows := range results {
		total += len(rows)
	}

	merged := make([]schema.Row, 0, total)
	for _, rows := range results {
		merged = append(merged, rows...)
	}

	return merged, nil
}
