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

package graph_test

import (
	"context"
	"errors"
	"testing"

	"github.com/conduitio-labs/conduit-connector-graphsync/graph"
	"github.com/conduitio-labs/conduit-connector-graphsync/querybuilder"
	"github.com/conduitio-labs/conduit-connector-graphsync/schema"
	"github.com/conduitio-labs/conduit-connector-graphsync/store"
	"github.com/conduitio-labs/conduit-connector-graphsync/store/mock"
	"github.com/matryer/is"
	"go.uber.org/mock/gomock"
)

func trustLink() *schema.RelSchema {
	return &schema.RelSchema{
		Label:         "TRUSTS",
		TargetLabel:   "AWSPrincipal",
		TargetMatcher: schema.Matcher{"arn": schema.FromField("PrincipalArn")},
		SourceLabel:   "AWSRole",
		SourceMatcher: schema.Matcher{"arn": schema.FromField("RoleArn")},
	}
}

func trustRow(role, principal string) schema.Row {
	return schema.NewRow(
		schema.Field{Name: "RoleArn", Value: schema.String(role)},
		schema.Field{Name: "PrincipalArn", Value: schema.String(principal)},
	)
}

func TestEngine_LoadMatchLinks_success(t *testing.T) {
	t.Parallel()

	is := is.New(t)

	ctrl := gomock.NewController(t)
	ctx := context.Background()

	rel := trustLink()
	query, err := querybuilder.BuildMatchLinkQuery(rel)
	is.NoErr(err)

	runner := mock.NewMockRunner(ctrl)
	runner.EXPECT().RunWrite(ctx, query, map[string]any{
		schema.ScopeUpdateTag:        int64(4),
		schema.ScopeSubResourceLabel: "AWSAccount",
		schema.ScopeSubResourceID:    "123456789012",
		schema.ParamRows: []any{
			map[string]any{"RoleArn": "role:1", "PrincipalArn": "user:1"},
		},
	}).Return(store.Counters{RelationshipsCreated: 1}, nil)

	engine := graph.New(graph.EngineParams{Runner: runner})
	scope := graph.NewScope(4).WithSubResource("AWSAccount", "123456789012")

	// dispatched through Load as well
	is.NoErr(engine.Load(ctx, rel, []schema.Row{trustRow("role:1", "user:1")}, scope))
}

func TestEngine_LoadMatchLinks_requiresSubResource(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		scope    graph.Scope
		wantKeys []string
	}{
		{
			name:     "both",
			scope:    graph.NewScope(4),
			wantKeys: []string{schema.ScopeSubResourceLabel, schema.ScopeSubResourceID},
		},
		{
			name:     "id",
			scope:    graph.NewScope(4).With(schema.ScopeSubResourceLabel, "AWSAccount"),
			wantKeys: []string{schema.ScopeSubResourceID},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			is := is.New(t)

			runner := mock.NewMockRunner(gomock.NewController(t))
			engine := graph.New(graph.EngineParams{Runner: runner})

			err := engine.LoadMatchLinks(context.Background(), trustLink(),
				[]schema.Row{trustRow("role:1", "user:1")}, tt.scope)
			is.True(errors.Is(err, graph.ErrCleanupScopeMissing))

			var scopeErr *graph.ScopeError
			is.True(errors.As(err, &scopeErr))
			is.Equal(scopeErr.Keys, tt.wantKeys)
		})
	}
}

func TestEngine_LoadMatchLinks_missingField(t *testing.T) {
	t.Parallel()

	is := is.New(t)

	runner := mock.NewMockRunner(gomock.NewController(t))
	engine := graph.New(graph.EngineParams{Runner: runner})

	row := schema.NewRow(schema.Field{Name: "RoleArn", Value: schema.String("role:1")})

	err := engine.LoadMatchLinks(context.Background(), trustLink(), []schema.Row{row},
		graph.NewScope(4).WithSubResource("AWSAccount", "1"))
	is.True(errors.Is(err, graph.ErrMissingField))
}
