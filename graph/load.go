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
	"github.com/rs/zerolog"
)

// Load upserts the rows through the schema in a single write transaction.
//
// A [*schema.NodeSchema] merges one node per row by id together with its owner and other
// relationships. A [*schema.RelSchema] is loaded as a match link, see [Engine.LoadMatchLinks].
//
// The schema, the scope, and every row are checked before anything is written, so a
// [MissingFieldError], a [FieldTypeError], a [BindingError], or a [ScopeError] never
// leaves a partial write behind. Store failures are returned as a [TransactionError].
// An empty batch writes nothing.
func (e *Engine) Load(ctx context.Context, s schema.Schema, rows []schema.Row, scope Scope) error {
	switch s := s.(type) {
	case *schema.NodeSchema:
		return e.loadNodes(ctx, s, rows, scope)
	case *schema.RelSchema:
		return e.LoadMatchLinks(ctx, s, rows, scope)
	default:
		return fmt.Errorf("%w: %T", ErrUnsupportedSchema, s)
	}
}

func (e *Engine) loadNodes(ctx context.Context, node *schema.NodeSchema, rows []schema.Row, scope Scope) error {
	if node == nil {
		return ErrUnsupportedSchema
	}

	query, err := querybuilder.BuildIngestionQuery(node)
	if err != nil {
		return fmt.Errorf("build ingestion query: %w", err)
	}

	if err := checkBindings(node.Label, node.RequiredScopeKeys(), scope); err != nil {
		return err
	}

	if err := checkRows(node, rows); err != nil {
		return err
	}

	logger := zerolog.Ctx(ctx).With().Str("schema", node.Label).Logger()

	if len(rows) == 0 {
		logger.Debug().Msg("empty batch, nothing to load")

		return nil
	}

	key := "node." + node.Label
	if err := e.ensureIndexesOnce(ctx, key, node); err != nil {
		return err
	}

	if err := e.write(ctx, key, query, batchParams(scope, rows)); err != nil {
		return fmt.Errorf("load nodes: %w", err)
	}

	logger.Debug().Int("rows", len(rows)).Msg("loaded nodes")

	return nil
}

// checkBindings makes sure the scope carries the sync generation and every bound value.
func checkBindings(name string, keys []string, scope Scope) error {
	if missing := scope.missing(keys); len(missing) > 0 {
		return &BindingError{Schema: name, Keys: missing}
	}

	if _, ok := scope.UpdateTag(); !ok {
		return &BindingError{Schema: name, Keys: []string{schema.ScopeUpdateTag}}
	}

	return nil
}

// checkRows makes sure every row has the fields the schema requires,
// and that fan-out fields hold lists. A null fan-out field is an empty list.
func checkRows(s schema.Schema, rows []schema.Row) error {
	var (
		required = s.RequiredFields()
		fanOuts  = s.FanOutFields()
	)

	isFanOut := make(map[string]bool, len(fanOuts))
	for _, field := range fanOuts {
		isFanOut[field] = true
	}

	for i, row := range rows {
		for _, field := range required {
			value, ok := row.Get(field)
			if ok && (!value.IsNull() || isFanOut[field]) {
				continue
			}

			return &MissingFieldError{Schema: s.Name(), Row: i, Field: field}
		}

		for _, field := range fanOuts {
			value, ok := row.Get(field)
			if !ok || value.IsNull() || value.Kind() == schema.KindList {
				continue
			}

			return &FieldTypeError{Schema: s.Name(), Row: i, Field: field, Kind: value.Kind()}
		}
	}

	return nil
}

// batchParams returns the statement parameters: the scope values and the rows under $DictList.
func batchParams(scope Scope, rows []schema.Row) map[string]any {
	items := make([]any, 0, len(rows))
	for _, row := range rows {
		items = append(items, row.Map())
	}

	params := scope.params()
	params[schema.ParamRows] = items

	return params
}
