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

package querybuilder

import (
	"fmt"

	"github.com/conduitio-labs/conduit-connector-graphsync/schema"
)

const (
	// SyncMetadataLabel is the label of the nodes recording when a label was synced under a group.
	SyncMetadataLabel = "ModuleSyncMetadata"
	// syncMetadataExtraLabel is set on creation next to [SyncMetadataLabel].
	syncMetadataExtraLabel = "SyncMetadata"

	// The sync metadata statement parameters.
	ParamSyncMetadataID = "_sync_metadata_id"
	ParamGroupType      = "_group_type"
	ParamGroupID        = "_group_id"
	ParamSyncedType     = "_synced_type"

	// syncMetadataIDTemplate builds the id of a sync metadata node, e.g.: "AWSAccount_1234_S3Bucket".
	syncMetadataIDTemplate = "%s_%s_%s"
)

// syncMetadataQuery merges the sync metadata node of a group and a synced label.
var syncMetadataQuery = fmt.Sprintf(`MERGE (n:%s {%s: $%s})
ON CREATE SET n:%s, n.%s = %s
SET n.syncedtype = $%s,
    n.grouptype = $%s,
    n.groupid = $%s,
    n.%s = %s`,
	SyncMetadataLabel, schema.PropertyID, ParamSyncMetadataID,
	syncMetadataExtraLabel, schema.PropertyFirstSeen, firstSeenExpr,
	ParamSyncedType,
	ParamGroupType,
	ParamGroupID,
	schema.PropertyLastUpdated, updateTagExpr,
)

// BuildSyncMetadataQuery returns the statement recording that the nodes of a label were synced
// under a group node at $UPDATE_TAG. The group and synced labels are passed as parameters.
func BuildSyncMetadataQuery() string {
	return syncMetadataQuery
}

// SyncMetadataID returns the id of the sync metadata node of a group and a synced label.
func SyncMetadataID(groupLabel, groupID, syncedLabel string) string {
	return fmt.Sprintf(syncMetadataIDTemplate, groupLabel, groupID, syncedLabel)
}
