//go:build integration

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

package graphsync

import (
	"fmt"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/brianvoe/gofakeit"
	"github.com/conduitio-labs/conduit-connector-graphsync/destination"
	"github.com/conduitio/conduit-commons/opencdc"
	sdk "github.com/conduitio/conduit-connector-sdk"
)

const (
	// testURI is a connection URI pointed to a local Neo4j instance.
	testURI = "bolt://localhost:7687"
	// testLabelPrefix is a label prefix
	// that is used for acceptance tests to construct label names.
	testLabelPrefix = "test_label"
	testDatabase    = "neo4j"
	testSchema      = "record"
	// test credentials that are used in a Neo4j Docker container.
	testUsername = "neo4j"
	testPassword = "supersecret"
)

const definitionsTemplate = `nodes:
  %s:
    label: %s
    id: {field: id}
    properties:
      name: {field: name}
    scopedCleanup: false
`

type driver struct {
	sdk.ConfigurableAcceptanceTestDriver

	idCounter int64
}

// GenerateRecord overrides the [sdk.ConfigurableAcceptanceTestDriver] GenerateRecord method.
func (d *driver) GenerateRecord(t *testing.T, operation opencdc.Operation) opencdc.Record {
	t.Helper()

	id := atomic.AddInt64(&d.idCounter, 1)

	return opencdc.Record{
		Operation: operation,
		Key:       opencdc.StructuredData{"id": id},
		Payload: opencdc.Change{
			After: opencdc.RawData(fmt.Sprintf(`{"id":%d,"name":"%s"}`, id, gofakeit.Name())),
		},
	}
}

func TestAcceptance(t *testing.T) {
	destCfg := map[string]string{
		destination.ConfigUri:          testURI,
		destination.ConfigDatabase:     testDatabase,
		destination.ConfigAuthUsername: testUsername,
		destination.ConfigAuthPassword: testPassword,
		destination.ConfigSchema:       testSchema,
		destination.ConfigUpdateTag:    "1",
	}

	sdk.AcceptanceTest(t, &driver{
		ConfigurableAcceptanceTestDriver: sdk.ConfigurableAcceptanceTestDriver{
			Config: sdk.ConfigurableAcceptanceTestDriverConfig{
				Connector:         Connector,
				DestinationConfig: destCfg,
				BeforeTest:        beforeTest(destCfg),
				Skip:              []string{`.*_Configure_RequiredParams`},
			},
		},
	})
}

// beforeTest writes a definitions file whose label is a unique name prefixed with the testLabelPrefix.
func beforeTest(destCfg map[string]string) func(*testing.T) {
	return func(t *testing.T) {
		t.Helper()

		label := fmt.Sprintf("%s_%d", testLabelPrefix, time.Now().UnixNano())
		path := filepath.Join(t.TempDir(), "definitions.yaml")

		if err := os.WriteFile(path, []byte(fmt.Sprintf(definitionsTemplate, testSchema, label)), 0o600); err != nil {
			t.Fatalf("write definitions: %v", err)
		}

		destCfg[destination.ConfigSchemaFile] = path
	}
}
