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

//go:generate mockgen -package mock -destination mock/destination.go . Writer

// Package destination implements the destination logic of the graph sync connector.
//
// Every batch of records is decoded into rows and loaded through one schema from a
// definitions file, stamping the configured sync generation. Once the connector stops,
// the entities of the schema that this generation did not write can be swept.
package destination

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/conduitio-labs/conduit-connector-graphsync/destination/writer"
	"github.com/conduitio-labs/conduit-connector-graphsync/graph"
	"github.com/conduitio-labs/conduit-connector-graphsync/pipeline"
	"github.com/conduitio-labs/conduit-connector-graphsync/schema"
	"github.com/conduitio-labs/conduit-connector-graphsync/stats"
	"github.com/conduitio-labs/conduit-connector-graphsync/store"
	"github.com/conduitio/conduit-commons/config"
	"github.com/conduitio/conduit-commons/opencdc"
	sdk "github.com/conduitio/conduit-connector-sdk"
	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
)

// Writer is a writer interface needed for the [Destination].
type Writer interface {
	Write(ctx context.Context, records []opencdc.Record) error
	Cleanup(ctx context.Context) error
	Err() error
}

// Destination graph sync Connector loads records into a Neo4j graph.
type Destination struct {
	sdk.UnimplementedDestination

	config  Config
	writer  Writer
	driver  neo4j.DriverWithContext
	session *store.Session
	stats   *stats.Counter
}

// New creates a new instance of the [Destination].
func New() sdk.Destination {
	return sdk.DestinationWithMiddleware(&Destination{}, sdk.DefaultDestinationMiddleware()...)
}

// Parameters is a map of named [config.Parameter] that describe how to configure the [Destination].
func (d *Destination) Parameters() config.Parameters {
	return d.config.Parameters()
}

// Configure parses and initializes the [Destination] config.
func (d *Destination) Configure(ctx context.Context, raw config.Config) error {
	if err := sdk.Util.ParseConfig(ctx, raw, &d.config, New().Parameters()); err != nil {
		return fmt.Errorf("parse config: %w", err)
	}

	if _, err := d.config.scope(0); err != nil {
		return fmt.Errorf("parse scope: %w", err)
	}

	return nil
}

// Open makes sure everything is prepared to receive records.
func (d *Destination) Open(ctx context.Context) error {
	defs, err := schema.LoadDefinitions(d.config.SchemaFile)
	if err != nil {
		return fmt.Errorf("load definitions: %w", err)
	}

	s, err := defs.Lookup(d.config.Schema)
	if err != nil {
		return fmt.Errorf("lookup schema: %w", err)
	}

	updateTag := d.config.UpdateTag
	if updateTag == 0 {
		updateTag = time.Now().Unix()
	}

	scope, err := d.config.scope(updateTag)
	if err != nil {
		return fmt.Errorf("parse scope: %w", err)
	}

	driver, err := store.Connect(ctx, d.config.Config)
	if err != nil {
		return fmt.Errorf("connect: %w", err)
	}

	policy := pipeline.ContinueOnError
	if d.config.FailFast {
		policy = pipeline.FailFast
	}

	d.driver = driver
	d.session = store.NewSession(ctx, driver, d.config.Database)
	d.stats = stats.NewCounter()
	d.writer = writer.New(writer.Params{
		Engine: graph.New(graph.EngineParams{
			Runner:           d.session,
			Stats:            d.stats,
			CleanupBatchSize: d.config.CleanupBatchSize,
			EnsureIndexes:    d.config.EnsureIndexes,
		}),
		Schema:       s,
		Scope:        scope,
		Pipeline:     pipeline.New(policy),
		SyncMetadata: d.config.SyncMetadata,
	})

	sdk.Logger(ctx).Info().
		Str("schema", s.Name()).
		Int64("updateTag", updateTag).
		Stringer("policy", policy).
		Msg("graph sync destination opened")

	return nil
}

// Write loads a batch of records into a [Destination] in a single transaction.
func (d *Destination) Write(ctx context.Context, records []opencdc.Record) (int, error) {
	if err := d.writer.Write(ctx, records); err != nil {
		return 0, fmt.Errorf("write records: %w", err)
	}

	return len(records), nil
}

// Teardown runs the configured cleanup, reports the failures collected during the run
// and gracefully closes connections.
func (d *Destination) Teardown(ctx context.Context) error {
	var errs []error

	if d.writer != nil {
		if d.config.Cleanup {
			if err := d.writer.Cleanup(ctx); err != nil {
				errs = append(errs, fmt.Errorf("cleanup: %w", err))
			}
		}

		if err := d.writer.Err(); err != nil {
			errs = append(errs, fmt.Errorf("sync run: %w", err))
		}
	}

	if d.stats != nil {
		event := sdk.Logger(ctx).Info()
		for name, value := range d.stats.Snapshot() {
			event = event.Int64(name, value)
		}

		event.Msg("graph sync statistics")
	}

	if d.session != nil {
		if err := d.session.Close(ctx); err != nil {
			errs = append(errs, fmt.Errorf("close session: %w", err))
		}
	}

	if d.driver != nil {
		if err := d.driver.Close(ctx); err != nil {
			errs = append(errs, fmt.Errorf("close neo4j driver: %w", err))
		}
	}

	return errors.Join(errs...)
}
