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

//go:generate mockgen -package mock -destination mock/runner.go . Runner

// Package store is the boundary between the sync engine and the graph store.
package store

import (
	"context"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
)

// Runner executes one parameterized write statement in its own transaction.
type Runner interface {
	RunWrite(ctx context.Context, query string, params map[string]any) (Counters, error)
}

// Counters holds what a write statement changed.
type Counters struct {
	NodesCreated         int
	NodesDeleted         int
	RelationshipsCreated int
	RelationshipsDeleted int
	PropertiesSet        int
	LabelsAdded          int
	LabelsRemoved        int
	IndexesAdded         int
	IndexesRemoved       int
	ConstraintsAdded     int
	ConstraintsRemoved   int
}

// ContainsUpdates reports whether the statement changed anything.
func (c Counters) ContainsUpdates() bool {
	return c.NodesCreated > 0 ||
		c.NodesDeleted > 0 ||
		c.RelationshipsCreated > 0 ||
		c.RelationshipsDeleted > 0 ||
		c.PropertiesSet > 0 ||
		c.LabelsAdded > 0 ||
		c.LabelsRemoved > 0 ||
		c.IndexesAdded > 0 ||
		c.IndexesRemoved > 0 ||
		c.ConstraintsAdded > 0 ||
		c.ConstraintsRemoved > 0
}

// Add returns the sum of both counters.
func (c Counters) Add(other Counters) Counters {
	return Counters{
		NodesCreated:         c.NodesCreated + other.NodesCreated,
		NodesDeleted:         c.NodesDeleted + other.NodesDeleted,
		RelationshipsCreated: c.RelationshipsCreated + other.RelationshipsCreated,
		RelationshipsDeleted: c.RelationshipsDeleted + other.RelationshipsDeleted,
		PropertiesSet:        c.PropertiesSet + other.PropertiesSet,
		LabelsAdded:          c.LabelsAdded + other.LabelsAdded,
		LabelsRemoved:        c.LabelsRemoved + other.LabelsRemoved,
		IndexesAdded:         c.IndexesAdded + other.IndexesAdded,
		IndexesRemoved:       c.IndexesRemoved + other.IndexesRemoved,
		ConstraintsAdded:     c.ConstraintsAdded + other.ConstraintsAdded,
		ConstraintsRemoved:   c.ConstraintsRemoved + other.ConstraintsRemoved,
	}
}

// Map returns the non-zero counters keyed by their statistics name.
func (c Counters) Map() map[string]int {
	all := map[string]int{
		"nodes_created":         c.NodesCreated,
		"nodes_deleted":         c.NodesDeleted,
		"relationships_created": c.RelationshipsCreated,
		"relationships_deleted": c.RelationshipsDeleted,
		"properties_set":        c.PropertiesSet,
		"labels_added":          c.LabelsAdded,
		"labels_removed":        c.LabelsRemoved,
		"indexes_added":         c.IndexesAdded,
		"indexes_removed":       c.IndexesRemoved,
		"constraints_added":     c.ConstraintsAdded,
		"constraints_removed":   c.ConstraintsRemoved,
	}

	for name, value := range all {
		if value == 0 {
			delete(all, name)
		}
	}

	return all
}

// countersFrom copies the driver summary counters.
func countersFrom(counters neo4j.Counters) Counters {
	return Counters{
		NodesCreated:         counters.NodesCreated(),
		NodesDeleted:         counters.NodesDeleted(),
		RelationshipsCreated: counters.RelationshipsCreated(),
		RelationshipsDeleted: counters.RelationshipsDeleted(),
		PropertiesSet:        counters.PropertiesSet(),
		LabelsAdded:          counters.LabelsAdded(),
		LabelsRemoved:        counters.LabelsRemoved(),
		IndexesAdded:         counters.IndexesAdded(),
		IndexesRemoved:       counters.IndexesRemoved(),
		ConstraintsAdded:     counters.ConstraintsAdded(),
		ConstraintsRemoved:   counters.ConstraintsRemoved(),
	}
}
