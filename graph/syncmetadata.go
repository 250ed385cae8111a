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

// MergeSyncMetadata records that the nodes of syncedLabel were synced under the group node
// at the generation of the scope, e.g. the S3Bucket nodes of one AWSAccount.
// The record is a ModuleSyncMetadata node stamped with the update tag.
func (e *Engine) MergeSyncMetadata(
	ctx context.Context,
	groupLabel, groupID, syncedLabel string,
	scope Scope,
) error {
	tag, ok := scope.UpdateTag()
	if !ok {
		return &BindingError{Schema: querybuilder.SyncMetadataLabel, Keys: []string{schema.ScopeUpdateTag}}
	}

	if groupLabel == "" || groupID == "" || syncedLabel == "" {
		return fmt.Errorf("%w: group %q, id %q, synced %q", ErrInvalidSyncMetadata, groupLabel, groupID, syncedLabel)
	}

	params := map[string]any{
		schema.ScopeUpdateTag:            tag,
		querybuilder.ParamSyncMetadataID: querybuilder.SyncMetadataID(groupLabel, groupID, syncedLabel),
		querybuilder.ParamGroupType:      groupLabel,
		querybuilder.ParamGroupID:        groupID,
		querybuilder.ParamSyncedType:     syncedLabel,
	}

	if err := e.write(ctx, "syncmetadata."+syncedLabel, querybuilder.BuildSyncMetadataQuery(), params); err != nil {
		return fmt.Errorf("merge sync metadata: %w", err)
	}

	zerolog.Ctx(ctx).Debug().
		Str("group", groupLabel).
		Str("groupID", groupID).
		Str("synced", syncedLabel).
		Int64("updateTag", tag).
		Msg("merged sync metadata")

	return nil
}
