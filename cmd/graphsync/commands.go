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

package main

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/conduitio-labs/conduit-connector-graphsync/fanout"
	"github.com/conduitio-labs/conduit-connector-graphsync/graph"
	"github.com/conduitio-labs/conduit-connector-graphsync/pipeline"
	"github.com/conduitio-labs/conduit-connector-graphsync/schema"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

const (
	flagSchema      = "schema"
	flagUpdateTag   = "update-tag"
	flagScope       = "scope"
	flagScopeLabel  = "scope-label"
	flagScopeID     = "scope-id"
	flagParam       = "param"
	flagConcurrency = "concurrency"
	flagCleanup     = "cleanup"
)

func newIndexesCmd(a *app) *cobra.Command {
	var names []string

	cmd := &cobra.Command{
		Use:   "indexes",
		Short: "Create the indexes of the defined node schemas and match links",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			defs, err := a.definitions()
			if err != nil {
				return err
			}

			schemas, err := selectSchemas(defs, names)
			if err != nil {
				return err
			}

			return a.withEngine(ctx, false, func(engine *graph.Engine) error {
				for _, s := range schemas {
					if err := engine.EnsureIndexes(ctx, s); err != nil {
						return fmt.Errorf("ensure indexes of %s: %w", s.Name(), err)
					}

					zerolog.Ctx(ctx).Info().Str("schema", s.Name()).Msg("indexes ensured")
				}

				return nil
			})
		},
	}

	cmd.Flags().StringSliceVar(&names, flagSchema, nil, "limit to the named schemas")

	return cmd
}

func newCleanupCmd(a *app) *cobra.Command {
	var (
		updateTag  int64
		entries    []string
		scopeLabel string
		scopeID    string
	)

	cmd := &cobra.Command{
		Use:   "cleanup SCHEMA",
		Short: "Delete what an earlier sync generation wrote through a node schema or match link",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			defs, err := a.definitions()
			if err != nil {
				return err
			}

			s, err := defs.Lookup(args[0])
			if err != nil {
				return fmt.Errorf("lookup schema: %w", err)
			}

			scope, err := buildScope(updateTag, entries, scopeLabel, scopeID)
			if err != nil {
				return err
			}

			return a.withEngine(ctx, false, func(engine *graph.Engine) error {
				return sweep(ctx, engine, s, scope)
			})
		},
	}

	cmd.Flags().Int64Var(&updateTag, flagUpdateTag, 0, "the current sync generation")
	cmd.Flags().StringSliceVar(&entries, flagScope, nil, "scope values as NAME=value, or NAME:int=value for integers")
	cmd.Flags().StringVar(&scopeLabel, flagScopeLabel, "", "label of the node bounding a match link cleanup")
	cmd.Flags().StringVar(&scopeID, flagScopeID, "", "id of the node bounding a match link cleanup")

	_ = cmd.MarkFlagRequired(flagUpdateTag)

	return cmd
}

func newLoadCmd(a *app) *cobra.Command {
	var (
		updateTag   int64
		entries     []string
		scopeLabel  string
		scopeID     string
		concurrency int
		cleanup     bool
	)

	cmd := &cobra.Command{
		Use:   "load SCHEMA FILE...",
		Short: "Load rows from JSON files through a schema in one write, then optionally sweep stale data",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			defs, err := a.definitions()
			if err != nil {
				return err
			}

			s, err := defs.Lookup(args[0])
			if err != nil {
				return fmt.Errorf("lookup schema: %w", err)
			}

			if updateTag == 0 {
				updateTag = time.Now().Unix()
			}

			scope, err := buildScope(updateTag, entries, scopeLabel, scopeID)
			if err != nil {
				return err
			}

			tasks := make([]fanout.Task, 0, len(args)-1)
			for _, path := range args[1:] {
				tasks = append(tasks, fanout.JSONFile(path))
			}

			rows, err := fanout.Gather(ctx, concurrency, tasks...)
			if err != nil {
				return err
			}

			zerolog.Ctx(ctx).Info().
				Str("schema", s.Name()).
				Int("files", len(tasks)).
				Int("rows", len(rows)).
				Int64("updateTag", updateTag).
				Msg("rows gathered")

			return a.withEngine(ctx, true, func(engine *graph.Engine) error {
				p := pipeline.New(pipeline.FailFast)

				err := p.Stage(ctx, "load "+s.Name(), func(ctx context.Context) error {
					return engine.Load(ctx, s, rows, scope)
				})
				if err != nil {
					return err
				}

				if cleanup {
					p.Cleanup(ctx, "cleanup "+s.Name(), func(ctx context.Context) error {
						return sweep(ctx, engine, s, scope)
					})
				}

				return p.Err()
			})
		},
	}

	cmd.Flags().Int64Var(&updateTag, flagUpdateTag, 0, "the current sync generation, defaults to the current unix time")
	cmd.Flags().StringSliceVar(&entries, flagScope, nil, "scope values as NAME=value, or NAME:int=value for integers")
	cmd.Flags().StringVar(&scopeLabel, flagScopeLabel, "", "label of the node bounding a match link load")
	cmd.Flags().StringVar(&scopeID, flagScopeID, "", "id of the node bounding a match link load")
	cmd.Flags().IntVar(&concurrency, flagConcurrency, 4, "maximum files read at once")
	cmd.Flags().BoolVar(&cleanup, flagCleanup, false, "sweep what earlier generations wrote after the load")

	return cmd
}

func newJobCmd(a *app) *cobra.Command {
	var (
		updateTag int64
		entries   []string
	)

	cmd := &cobra.Command{
		Use:   "job FILE",
		Short: "Run a JSON cleanup job",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			job, err := graph.JobFromJSONFile(args[0])
			if err != nil {
				return fmt.Errorf("read job: %w", err)
			}

			params, err := jobParams(entries, updateTag)
			if err != nil {
				return err
			}

			job.MergeParameters(params)

			return a.withEngine(ctx, false, func(engine *graph.Engine) error {
				return engine.RunJob(ctx, job)
			})
		},
	}

	cmd.Flags().Int64Var(&updateTag, flagUpdateTag, 0, "the current sync generation, bound to $UPDATE_TAG")
	cmd.Flags().StringSliceVar(&entries, flagParam, nil, "statement parameters as NAME=value, integers are passed as numbers")

	return cmd
}

// definitions loads the configured definitions file.
func (a *app) definitions() (*schema.Definitions, error) {
	path := a.v.GetString(keyDefinitions)
	if path == "" {
		return nil, errNoDefinitions
	}

	defs, err := schema.LoadDefinitions(path)
	if err != nil {
		return nil, fmt.Errorf("load definitions: %w", err)
	}

	return defs, nil
}

// selectSchemas returns the named schemas, or every node schema followed by every match link.
func selectSchemas(defs *schema.Definitions, names []string) ([]schema.Schema, error) {
	if len(names) == 0 {
		names = append(defs.NodeNames(), defs.MatchLinkNames()...)
	}

	schemas := make([]schema.Schema, 0, len(names))
	for _, name := range names {
		s, err := defs.Lookup(name)
		if err != nil {
			return nil, fmt.Errorf("lookup schema: %w", err)
		}

		schemas = append(schemas, s)
	}

	return schemas, nil
}

// buildScope parses the scope flags shared by the load and cleanup commands.
func buildScope(updateTag int64, entries []string, scopeLabel, scopeID string) (graph.Scope, error) {
	scope, err := graph.NewScope(updateTag).WithEntries(entries)
	if err != nil {
		return nil, fmt.Errorf("parse scope: %w", err)
	}

	if scopeLabel != "" || scopeID != "" {
		scope = scope.WithSubResource(scopeLabel, scopeID)
	}

	return scope, nil
}

// sweep runs the cleanup of a node schema or a match link.
func sweep(ctx context.Context, engine *graph.Engine, s schema.Schema, scope graph.Scope) error {
	switch s := s.(type) {
	case *schema.NodeSchema:
		return engine.Cleanup(ctx, s, scope)
	case *schema.RelSchema:
		label, _ := scope[schema.ScopeSubResourceLabel].(string)
		id, _ := scope[schema.ScopeSubResourceID].(string)
		tag, _ := scope.UpdateTag()

		return engine.CleanupMatchLink(ctx, s, label, id, tag)
	default:
		return fmt.Errorf("%w: %T", graph.ErrUnsupportedSchema, s)
	}
}

// jobParams parses NAME=value parameters. Values written as canonical integers become int64,
// so ids with leading zeros stay strings.
func jobParams(entries []string, updateTag int64) (map[string]any, error) {
	parsed, err := graph.Scope{}.WithEntries(entries)
	if err != nil {
		return nil, fmt.Errorf("parse parameters: %w", err)
	}

	params := make(map[string]any, len(parsed)+1)
	for name, value := range parsed {
		s, ok := value.(string)
		if !ok {
			params[name] = value

			continue
		}

		if n, err := strconv.ParseInt(s, 10, 64); err == nil && strconv.FormatInt(n, 10) == s {
			params[name] = n

			continue
		}

		params[name] = s
	}

	if updateTag != 0 {
		params[schema.ScopeUpdateTag] = updateTag
	}

	return params, nil
}
