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

// LoadMatchLinks connects pairs of existing nodes, one relationship per row, in a single
// write transaction.
//
// Match links have no owning node to scope their cleanup by, so the scope must carry the
// sub-resource label and id (see [Scope.WithSubResource]); a [ScopeError] is returned otherwise.
// The rest of the contract is the one of [Engine.Load].
func (e *Engine) LoadMatchLinks(ctx context.Context, rel *schema.RelSchema, rows []schema.Row, scope Scope) error {
	if rel == nil {
		return ErrUnsupportedSchema
	}

	query, err := querybuilder.BuildMatchLinkQuery(rel)
	if err != nil {
		return fmt.Errorf("build match link query: %w", err)
	}

	if missing := scope.missing([]string{schema.ScopeSubResourceLabel, schema.ScopeSubResourceID}); len(missing) > 0 {
		return &ScopeError{Schema: rel.Label, Keys: missing}
	}

	if err := checkBindings(rel.Label, rel.RequiredScopeKeys(), scope); err != nil {
		return err
	}

	if err := checkRows(rel, rows); err != nil {
		return err
	}

	logger := zerolog.Ctx(ctx).With().
		Str("schema", rel.Label).
		Interface("sub_resource_label", scope[schema.ScopeSubResourceLabel]).
		Interface("sub_resource_id", scope[schema.ScopeSubResourceID]).
		Logger()

	if len(rows) == 0 {
		logger.Debug().Msg("empty batch, nothing to load")

		return nil
	}

	key := "matchlink." + rel.Label
	if err := e.ensureIndexesOnce(ctx, key, rel); err != nil {
		return err
	}

	if err := e.write(ctx, key, query, batchParams(scope, rows)); err != nil {
		return fmt.Errorf("load match links: %w", err)
	}

	logger.Debug().Int("rows", len(rows)).Msg("loaded match links")

	return nil
}
