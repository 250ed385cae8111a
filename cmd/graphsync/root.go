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
	"errors"
	"fmt"
	"strings"

	"github.com/conduitio-labs/conduit-connector-graphsync/config"
	"github.com/conduitio-labs/conduit-connector-graphsync/graph"
	"github.com/conduitio-labs/conduit-connector-graphsync/stats"
	"github.com/conduitio-labs/conduit-connector-graphsync/store"
	"github.com/mitchellh/mapstructure"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	envPrefix = "GRAPHSYNC"

	keyConfigFile  = "config"
	keyDefinitions = "definitions"
	keyLogLevel    = "logLevel"
	keyBatchSize   = "cleanupBatchSize"
	keyMetricsFile = "metricsFile"
)

// connectFunc opens a runner on the graph store and returns the function closing it.
type connectFunc func(ctx context.Context, cfg config.Config) (store.Runner, func(context.Context) error, error)

// app holds what every command shares.
type app struct {
	v       *viper.Viper
	connect connectFunc
	stats   *stats.Counter
}

func newRootCmd(v *viper.Viper, connect connectFunc) *cobra.Command {
	a := &app{v: v, connect: connect, stats: stats.NewCounter()}

	cmd := &cobra.Command{
		Use:           "graphsync",
		Short:         "Maintain a graph kept in sync by schema-driven loads",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if err := a.readConfig(); err != nil {
				return err
			}

			logger, err := a.logger(cmd)
			if err != nil {
				return err
			}

			cmd.SetContext(logger.WithContext(cmd.Context()))

			return nil
		},
		PersistentPostRunE: func(cmd *cobra.Command, _ []string) error {
			event := zerolog.Ctx(cmd.Context()).Info()
			for name, value := range a.stats.Snapshot() {
				event = event.Int64(name, value)
			}

			event.Msg("statistics")

			path := a.v.GetString(keyMetricsFile)
			if path == "" {
				return nil
			}

			if err := prometheus.WriteToTextfile(path, a.stats.Gatherer()); err != nil {
				return fmt.Errorf("write metrics file: %w", err)
			}

			return nil
		},
	}

	flags := cmd.PersistentFlags()
	flags.StringP(keyConfigFile, "c", "", "config file (YAML, JSON or TOML)")
	flags.String(config.KeyURI, "bolt://localhost:7687", "connection URI of the graph store")
	flags.String(config.KeyDatabase, "neo4j", "database name")
	flags.String("username", "", "basic auth username")
	flags.String("password", "", "basic auth password")
	flags.String(keyDefinitions, "", "path to the node and match link definitions file")
	flags.String(keyLogLevel, zerolog.InfoLevel.String(), "log level")
	flags.Int(keyBatchSize, graph.DefaultCleanupBatchSize, "maximum entities one cleanup statement deletes at a time")
	flags.String(keyMetricsFile, "", "write the write statistics to this file in the Prometheus text format")

	mustBind(v, keyConfigFile, flags.Lookup(keyConfigFile))
	mustBind(v, config.KeyURI, flags.Lookup(config.KeyURI))
	mustBind(v, config.KeyDatabase, flags.Lookup(config.KeyDatabase))
	mustBind(v, config.KeyAuthUsername, flags.Lookup("username"))
	mustBind(v, config.KeyAuthPassword, flags.Lookup("password"))
	mustBind(v, keyDefinitions, flags.Lookup(keyDefinitions))
	mustBind(v, keyLogLevel, flags.Lookup(keyLogLevel))
	mustBind(v, keyBatchSize, flags.Lookup(keyBatchSize))
	mustBind(v, keyMetricsFile, flags.Lookup(keyMetricsFile))

	v.SetDefault(config.KeyAuthRealm, "")
	v.SetDefault(config.KeyMaxConnectionPoolSize, 100)
	v.SetDefault(config.KeyConnectTimeout, "5s")

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	cmd.AddCommand(
		newIndexesCmd(a),
		newCleanupCmd(a),
		newLoadCmd(a),
		newJobCmd(a),
	)

	return cmd
}

func mustBind(v *viper.Viper, key string, flag *pflag.Flag) {
	if err := v.BindPFlag(key, flag); err != nil {
		panic(fmt.Sprintf("bind flag %q: %v", key, err))
	}
}

// readConfig reads the config file when one is given.
func (a *app) readConfig() error {
	path := a.v.GetString(keyConfigFile)
	if path == "" {
		return nil
	}

	a.v.SetConfigFile(path)

	if err := a.v.ReadInConfig(); err != nil {
		return fmt.Errorf("read config file: %w", err)
	}

	return nil
}

func (a *app) logger(cmd *cobra.Command) (zerolog.Logger, error) {
	level, err := zerolog.ParseLevel(a.v.GetString(keyLogLevel))
	if err != nil {
		return zerolog.Logger{}, fmt.Errorf("parse log level: %w", err)
	}

	return zerolog.New(zerolog.ConsoleWriter{Out: cmd.ErrOrStderr()}).
		Level(level).
		With().
		Timestamp().
		Logger(), nil
}

// storeConfig decodes the connection settings.
func (a *app) storeConfig() (config.Config, error) {
	var cfg config.Config

	err := a.v.Unmarshal(&cfg, func(dc *mapstructure.DecoderConfig) {
		dc.TagName = "json"
	})
	if err != nil {
		return config.Config{}, fmt.Errorf("decode config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return config.Config{}, fmt.Errorf("validate config: %w", err)
	}

	return cfg, nil
}

// withEngine connects to the graph store, runs fn with an engine and closes the connection.
func (a *app) withEngine(ctx context.Context, ensureIndexes bool, fn func(*graph.Engine) error) (err error) {
	cfg, err := a.storeConfig()
	if err != nil {
		return err
	}

	runner, closeFn, err := a.connect(ctx, cfg)
	if err != nil {
		return fmt.Errorf("connect: %w", err)
	}

	defer func() {
		if closeErr := closeFn(ctx); closeErr != nil {
			err = errors.Join(err, fmt.Errorf("close connection: %w", closeErr))
		}
	}()

	return fn(graph.New(graph.EngineParams{
		Runner:           runner,
		Stats:            a.stats,
		CleanupBatchSize: a.v.GetInt(keyBatchSize),
		EnsureIndexes:    ensureIndexes,
	}))
}

// connectStore connects to a Neo4j instance and opens a write session.
func connectStore(ctx context.Context, cfg config.Config) (store.Runner, func(context.Context) error, error) {
	driver, err := store.Connect(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}

	session := store.NewSession(ctx, driver, cfg.Database)

	return session, func(ctx context.Context) error {
		return errors.Join(session.Close(ctx), driver.Close(ctx))
	}, nil
}
