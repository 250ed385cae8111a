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

// Package writer implements a writer logic for the graph sync Destination.
package writer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"github.com/conduitio-labs/conduit-connector-graphsync/graph"
	"github.com/conduitio-labs/conduit-connector-graphsync/pipeline"
	"github.com/conduitio-labs/conduit-connector-graphsync/schema"
	"github.com/conduitio/conduit-commons/opencdc"
	sdk "github.com/conduitio/conduit-connector-sdk"
	"github.com/rs/zerolog"
)

const (
	loadStagePrefix         = "load "
	cleanupStagePrefix      = "cleanup "
	syncMetadataStagePrefix = "sync metadata "
)

// Writer loads record batches through one schema.
type Writer struct {
	engine   *graph.Engine
	schema   schema.Schema
	scope    graph.Scope
	pipeline *pipeline.Pipeline

	syncMetadata bool
	synced       bool
	failed       bool
}

// Params holds incoming params for the [Writer].
type Params struct {
	Engine   *graph.Engine
	Schema   schema.Schema
	Scope    graph.Scope
	Pipeline *pipeline.Pipeline
	// SyncMetadata records the sync under the sub-resource node of the scope
	// once the first batch is loaded.
	SyncMetadata bool
}

// New creates a new instance of the [Writer].
func New(params Params) *Writer {
	p := params.Pipeline
	if p == nil {
		p = pipeline.New(pipeline.FailFast)
	}

	return &Writer{
		engine:   params.Engine,
		schema:   params.Schema,
		scope:    params.Scope,
		pipeline:     p,
		syncMetadata: params.SyncMetadata,
	}
}

// Write decodes the records into rows and loads them in a single transaction.
// Deleted records are skipped, stale entities are removed by [Writer.Cleanup].
func (w *Writer) Write(ctx context.Context, records []opencdc.Record) error {
	rows := make([]schema.Row, 0, len(records))

	appendRow := func(_ context.Context, record opencdc.Record) error {
		row, err := w.rowFromRecord(record)
		if err != nil {
			return err
		}

		rows = append(rows, row)

		return nil
	}

	skip := func(ctx context.Context, record opencdc.Record) error {
		zerolog.Ctx(ctx).Debug().
			Str("position", string(record.Position)).
			Msg("skipping delete, left to cleanup")

		return nil
	}

	for i, record := range records {
		if err := sdk.Util.Destination.Route(ctx, record, appendRow, appendRow, skip, appendRow); err != nil {
			return fmt.Errorf("route record %d: %w", i, err)
		}
	}

	if len(rows) == 0 {
		return nil
	}

	err := w.pipeline.Stage(ctx, loadStagePrefix+w.schema.Name(), func(ctx context.Context) error {
		if err := w.engine.Load(ctx, w.schema, rows, w.scope); err != nil {
			w.failed = true

			return fmt.Errorf("load %d rows: %w", len(rows), err)
		}

		return nil
	})
	if err != nil {
		return fmt.Errorf("write batch: %w", err)
	}

	if w.failed {
		return nil
	}

	return w.mergeSyncMetadata(ctx)
}

// mergeSyncMetadata records the sync of the schema under the sub-resource node of the scope.
// It runs once per writer and is skipped when the scope names no sub-resource.
func (w *Writer) mergeSyncMetadata(ctx context.Context) error {
	if !w.syncMetadata || w.synced {
		return nil
	}

	label, _ := w.scope[schema.ScopeSubResourceLabel].(string)
	id, _ := w.scope[schema.ScopeSubResourceID].(string)

	if label == "" || id == "" {
		zerolog.Ctx(ctx).Debug().Str("schema", w.schema.Name()).Msg("no sub-resource in scope, skipping sync metadata")

		w.synced = true

		return nil
	}

	err := w.pipeline.Stage(ctx, syncMetadataStagePrefix+w.schema.Name(), func(ctx context.Context) error {
		return w.engine.MergeSyncMetadata(ctx, label, id, w.schema.Name(), w.scope)
	})
	if err != nil {
		return fmt.Errorf("write batch: %w", err)
	}

	w.synced = true

	return nil
}

// Cleanup sweeps the entities the schema owns that the current generation did not touch.
// It is skipped once a load has failed, since entities of that batch were not refreshed.
func (w *Writer) Cleanup(ctx context.Context) error {
	logger := zerolog.Ctx(ctx)

	if w.failed {
		logger.Warn().Str("schema", w.schema.Name()).Msg("skipping cleanup after a failed load")

		return nil
	}

	var sweep func(context.Context) error

	switch s := w.schema.(type) {
	case *schema.NodeSchema:
		sweep = func(ctx context.Context) error {
			return w.engine.Cleanup(ctx, s, w.scope)
		}

	case *schema.RelSchema:
		label, _ := w.scope[schema.ScopeSubResourceLabel].(string)
		id, _ := w.scope[schema.ScopeSubResourceID].(string)

		tag, ok := w.scope.UpdateTag()
		if !ok {
			return fmt.Errorf("cleanup %s: %w", s.Name(), graph.ErrSchemaBinding)
		}

		sweep = func(ctx context.Context) error {
			return w.engine.CleanupMatchLink(ctx, s, label, id, tag)
		}

	default:
		return fmt.Errorf("%w: %T", ErrUnsupportedSchema, w.schema)
	}

	w.pipeline.Cleanup(ctx, cleanupStagePrefix+w.schema.Name(), sweep)

	return nil
}

// Err returns the failures collected while writing and cleaning up.
func (w *Writer) Err() error {
	return w.pipeline.Err()
}

// rowFromRecord decodes the payload of the record into a [schema.Row].
func (w *Writer) rowFromRecord(record opencdc.Record) (schema.Row, error) {
	var data map[string]any

	switch payload := record.Payload.After.(type) {
	case nil:
		return schema.Row{}, ErrEmptyRawData

	case opencdc.StructuredData:
		data = payload

	default:
		var err error

		data, err = w.structurizeRawData(record.Payload.After.Bytes())
		if err != nil {
			return schema.Row{}, fmt.Errorf("structurize record payload: %w", err)
		}
	}

	row, err := schema.RowFromMap(data)
	if err != nil {
		return schema.Row{}, fmt.Errorf("convert payload: %w", err)
	}

	return row, nil
}

// structurizeRawData tries to unmarshal the raw data, keeping numbers as [json.Number],
// and if the process fails or the data is empty the method returns an error.
func (w *Writer) structurizeRawData(rawData []byte) (map[string]any, error) {
	if len(rawData) == 0 {
		return nil, ErrEmptyRawData
	}

	dec := json.NewDecoder(bytes.NewReader(rawData))
	dec.UseNumber()

	var structurizedData map[string]any
	if err := dec.Decode(&structurizedData); err != nil {
		return nil, fmt.Errorf("unmarshal raw data: %w", err)
	}

	return structurizedData, nil
}
