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
	"github.com/conduitio-labs/conduit-connector-graphsync/stats"
	"github.com/conduitio-labs/conduit-connector-graphsync/store"
	"github.com/conduitio-labs/conduit-connector-graphsync/store/mock"
	"github.com/matryer/is"
	"go.uber.org/mock/gomock"
)

func TestEngine_MergeSyncMetadata(t *testing.T) {
	t.Parallel()

	is := is.New(t)

	ctrl := gomock.NewController(t)
	ctx := context.Background()

	runner := mock.NewMockRunner(ctrl)
	runner.EXPECT().RunWrite(ctx, querybuilder.BuildSyncMetadataQuery(), map[string]any{
		schema.ScopeUpdateTag:            int64(11),
		querybuilder.ParamSyncMetadataID: "AWSAccount_123456789012_S3Bucket",
		querybuilder.ParamGroupType:      "AWSAccount",
		querybuilder.ParamGroupID:        "123456789012",
		querybuilder.ParamSyncedType:     "S3Bucket",
	}).Return(store.Counters{NodesCreated: 1, PropertiesSet: 6}, nil)

	counter := stats.NewCounter()
	engine := graph.New(graph.EngineParams{Runner: runner, Stats: counter})

	is.NoErr(engine.MergeSyncMetadata(ctx, "AWSAccount", "123456789012", "S3Bucket", graph.NewScope(11)))
	is.Equal(counter.Get("syncmetadata.S3Bucket.nodes_created"), int64(1))
}

func TestEngine_MergeSyncMetadata_fail(t *testing.T) {
	t.Parallel()

	storeErr := errors.New("connection refused")

	tests := []struct {
		name        string
		groupLabel  string
		groupID     string
		syncedLabel string
		scope       graph.Scope
		storeErr    error
		wantErr     error
	}{
		{
			name:        "no update tag",
			groupLabel:  "AWSAccount",
			groupID:     "1",
			syncedLabel: "S3Bucket",
			scope:       graph.Scope{},
			wantErr:     graph.ErrSchemaBinding,
		},
		{
			name:        "no group id",
			groupLabel:  "AWSAccount",
			syncedLabel: "S3Bucket",
			scope:       graph.NewScope(1),
			wantErr:     graph.ErrInvalidSyncMetadata,
		},
		{
			name:       "no synced label",
			groupLabel: "AWSAccount",
			groupID:    "1",
			scope:      graph.NewScope(1),
			wantErr:    graph.ErrInvalidSyncMetadata,
		},
		{
			name:        "store failure",
			groupLabel:  "AWSAccount",
			groupID:     "1",
			syncedLabel: "S3Bucket",
			scope:       graph.NewScope(1),
			storeErr:    storeErr,
			wantErr:     graph.ErrTransaction,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			is := is.New(t)

			runner := mock.NewMockRunner(gomock.NewController(t))
			if tt.storeErr != nil {
				runner.EXPECT().RunWrite(gomock.Any(), gomock.Any(), gomock.Any()).Return(store.Counters{}, tt.storeErr)
			}

			engine := graph.New(graph.EngineParams{Runner: runner})

			err := engine.MergeSyncMetadata(context.Background(), tt.groupLabel, tt.groupID, tt.syncedLabel, tt.scope)
			is.True(errors.Is(err, tt.wantErr))

			if tt.storeErr != nil {
				is.True(errors.Is(err, tt.storeErr))
			}
		})
	}
}
