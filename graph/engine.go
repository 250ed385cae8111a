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

// Package graph implements the schema-driven sync engine: batched loads of nodes and match links,
// and the cleanup jobs sweeping what the current sync generation did not write.
//
// The engine issues one statement at a time through its [store.Runner] and never parallelizes
// internally. Callers fetch with bounded parallelism, merge the rows, and load once.
package graph

import (
	"context"
	"fmt"
	"sync"

	"github.com/conduitio-labs/conduit-connector-graphsync/querybuilder"
	"github.com/conduitio-labs/conduit-connector-graphsync/schema"
	"github.com/conduitio-labs/conduit-connector-graphsync/stats"
	"github.com/conduitio-labs/conduit-connector-graphsync/store"
	"github.com/rs/zerolog"
)

// DefaultCleanupBatchSize bounds the number of entities one cleanup slice deletes.
const DefaultCleanupBatchSize = 100

// Engine loads rows through schemas and sweeps stale entities.
type Engine struct {
	runner           store.Runner
	stats            stats.Collector
	cleanupBatchSize int
	ensureIndexes    bool

	mu      sync.Mutex
	indexed map[string]struct{}
}

// EngineParams holds incoming params for the [Engine].
type EngineParams struct {
	// Runner executes the compiled statements.
	Runner store.Runner
	// Stats receives write statistics. Nil discards them.
	Stats stats.Collector
	// CleanupBatchSize bounds one cleanup slice. Zero uses [DefaultCleanupBatchSize].
	CleanupBatchSize int
	// EnsureIndexes creates the indexes of a schema before its first load.
	EnsureIndexes bool
}

// New creates a new instance of the [Engine].
func New(params EngineParams) *Engine {
	engine := &Engine{
		runner:           params.Runner,
		stats:            params.Stats,
		cleanupBatchSize: params.CleanupBatchSize,
		ensureIndexes:    params.EnsureIndexes,
		indexed:          make(map[string]struct{}),
	}

	if engine.stats == nil {
		engine.stats = stats.Discard
	}

	if engine.cleanupBatchSize <= 0 {
		engine.cleanupBatchSize = DefaultCleanupBatchSize
	}

	return engine
}

// EnsureIndexes creates the indexes a schema needs. Existing indexes are left untouched.
func (e *Engine) EnsureIndexes(ctx context.Context, s schema.Schema) error {
	var (
		queries []string
		key     string
		err     error
	)

	switch s := s.(type) {
	case *schema.NodeSchema:
		if s == nil {
			return ErrUnsupportedSchema
		}

		key = "node." + s.Label
		queries, err = querybuilder.BuildIndexQueries(s)

	case *schema.RelSchema:
		if s == nil {
			return ErrUnsupportedSchema
		}

		key = "matchlink." + s.Label
		queries, err = querybuilder.BuildMatchLinkIndexQueries(s)

	default:
		return fmt.Errorf("%w: %T", ErrUnsupportedSchema, s)
	}

	if err != nil {
		return fmt.Errorf("build index queries: %w", err)
	}

	for _, query := range queries {
		if err := e.write(ctx, key, query, nil); err != nil {
			return fmt.Errorf("create index: %w", err)
		}
	}

	zerolog.Ctx(ctx).Debug().
		Str("schema", s.Name()).
		Int("indexes", len(queries)).
		Msg("ensured indexes")

	e.mu.Lock()
	e.indexed[key] = struct{}{}
	e.mu.Unlock()

	return nil
}

// ensureIndexesOnce runs [Engine.EnsureIndexes] for a schema the first time it is loaded,
// when the engine is configured to.
func (e *Engine) ensureIndexesOnce(ctx context.Context, key string, s schema.Schema) error {
	if !e.ensureIndexes {
		return nil
	}

	e.mu.Lock()
	_, done := e.indexed[key]
	e.mu.Unlock()

	if done {
		return nil
	}

	return e.EnsureIndexes(ctx, s)
}

// write runs one statement and reports its counters under the statistics name.
func (e *Engine) write(ctx context.Context, name, query string, params map[string]any) error {
	counters, err := e.runner.RunWrite(ctx, query, params)
	if err != nil {
		return &TransactionError{Schema: name, Err: err}
	}

	report(e.stats, name, counters)

	return nil
}

func report(collector stats.Collector, name string, counters store.Counters) {
	scoped := stats.WithPrefix(collector, name+".")
	for counter, value := range counters.Map() {
		scoped.Incr(counter, int64(value))
	}
}
