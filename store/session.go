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

package store

import (
	"context"
	"fmt"

	"github.com/conduitio-labs/conduit-connector-graphsync/config"
	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
)

// Connect creates a Neo4j driver from the config and makes sure the instance is reachable.
func Connect(ctx context.Context, cfg config.Config) (neo4j.DriverWithContext, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	driver, err := neo4j.NewDriverWithContext(cfg.URI, cfg.Auth.AuthToken(), cfg.DriverConfig)
	if err != nil {
		return nil, fmt.Errorf("create neo4j driver: %w", err)
	}

	if err := driver.VerifyConnectivity(ctx); err != nil {
		_ = driver.Close(ctx)

		return nil, fmt.Errorf("ping neo4j instance: %w", err)
	}

	return driver, nil
}

// Session is a [Runner] over one Neo4j session.
// Statements run one at a time, a Session must not be shared between goroutines.
type Session struct {
	session neo4j.SessionWithContext
}

// NewSession opens a write session on the database.
func NewSession(ctx context.Context, driver neo4j.DriverWithContext, database string) *Session {
	return &Session{
		session: driver.NewSession(ctx, neo4j.SessionConfig{
			DatabaseName: database,
			AccessMode:   neo4j.AccessModeWrite,
		}),
	}
}

// RunWrite executes the statement in a managed write transaction and returns its counters.
// The transaction is retried by the driver on transient failures only.
func (s *Session) RunWrite(ctx context.Context, query string, params map[string]any) (Counters, error) {
	summary, err := neo4j.ExecuteWrite(ctx, s.session, func(tx neo4j.ManagedTransaction) (neo4j.ResultSummary, error) {
		result, err := tx.Run(ctx, query, params)
		if err != nil {
			return nil, fmt.Errorf("run tx: %w", err)
		}

		summary, err := result.Consume(ctx)
		if err != nil {
			return nil, fmt.Errorf("consume result: %w", err)
		}

		return summary, nil
	})
	if err != nil {
		return Counters{}, fmt.Errorf("execute write: %w", err)
	}

	return countersFrom(summary.Counters()), nil
}

// Close closes the underlying session.
func (s *Session) Close(ctx context.Context) error {
	if err := s.session.Close(ctx); err != nil {
		return fmt.Errorf("close neo4j session: %w", err)
	}

	return nil
}
