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

package fanout

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/conduitio-labs/conduit-connector-graphsync/schema"
)

// JSONFile returns a task reading rows from a file holding a JSON array of objects.
// Numbers are kept exact, so ids larger than 2^53 survive.
func JSONFile(path string) Task {
	return func(ctx context.Context) ([]schema.Row, error) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read rows file: %w", err)
		}

		rows, err := DecodeRows(data)
		if err != nil {
			return nil, fmt.Errorf("decode %s: %w", path, err)
		}

		return rows, nil
	}
}

// DecodeRows decodes a JSON array of objects into rows.
func DecodeRows(data []byte) ([]schema.Row, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var objects []map[string]any
	if err := dec.Decode(&objects); err != nil {
		return nil, fmt.Errorf("unmarshal rows: %w", err)
	}

	rows := make([]schema.Row, 0, len(objects))
	for i, object := range objects {
		row, err := schema.RowFromMap(object)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i, err)
		}

		rows = append(rows, row)
	}

	return rows, nil
}
