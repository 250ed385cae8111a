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

package destination

//go:generate paramgen -output=paramgen_dest.go Config

import (
	"fmt"

	"github.com/conduitio-labs/conduit-connector-graphsync/config"
	"github.com/conduitio-labs/conduit-connector-graphsync/graph"
)

// Config holds configurable values specific to destination.
type Config struct {
	config.Config

	// The path to a YAML or JSON file with node and match link definitions.
	SchemaFile string `json:"schemaFile" validate:"required"`
	// The name of the node schema or match link in the definitions file that records are loaded through.
	Schema string `json:"schema" validate:"required"`
	// The sync generation stamped on every written entity. Zero uses the time the connector opens, in seconds.
	UpdateTag int64 `json:"updateTag"`
	// Values bound by the schema, as a comma-separated list of NAME=value entries, e.g. AWS_ID=123456789012. Write NAME:int=value to bind an integer.
	Scope []string `json:"scope"`
	// The label of the node that bounds the cleanup of match links and groups sync metadata.
	ScopeLabel string `json:"scopeLabel"`
	// The id of the node that bounds the cleanup of match links and groups sync metadata.
	ScopeID string `json:"scopeID"`
	// Determines whether stale entities are swept once the connector stops.
	Cleanup bool `json:"cleanup" default:"false"`
	// The maximum number of entities one cleanup statement deletes at a time.
	CleanupBatchSize int `json:"cleanupBatchSize" validate:"gt=0" default:"100"`
	// Determines whether a failing batch stops the connector or is logged and skipped.
	FailFast bool `json:"failFast" default:"true"`
	// Determines whether the indexes of the schema are created before the first write.
	EnsureIndexes bool `json:"ensureIndexes" default:"true"`
	// Determines whether a ModuleSyncMetadata node records the sync under the node named by scopeLabel and scopeID.
	SyncMetadata bool `json:"syncMetadata" default:"true"`
}

// scope builds the load scope from the configured values.
func (c Config) scope(updateTag int64) (graph.Scope, error) {
	scope, err := graph.NewScope(updateTag).WithEntries(c.Scope)
	if err != nil {
		return nil, fmt.Errorf("parse scope entries: %w", err)
	}

	if c.ScopeLabel != "" || c.ScopeID != "" {
		scope = scope.WithSubResource(c.ScopeLabel, c.ScopeID)
	}

	return scope, nil
}
