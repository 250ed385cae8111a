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

package schema

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidSchema occurs when a node schema or a relationship schema
	// cannot be compiled into a query.
	ErrInvalidSchema = errors.New("invalid schema")

	// ErrUnsupportedValue occurs when decoded data cannot be represented as a [Value].
	ErrUnsupportedValue = errors.New("unsupported value")

	// ErrUnknownSchema occurs when a definitions file has no schema with the requested name.
	ErrUnknownSchema = errors.New("unknown schema")
)

// InvalidSchemaError describes why a schema was rejected.
type InvalidSchemaError struct {
	// Schema is the label of the rejected node schema or relationship schema.
	Schema string
	Reason string
}

func (e *InvalidSchemaError) Error() string {
	return fmt.Sprintf("invalid schema %q: %s", e.Schema, e.Reason)
}

// Unwrap returns [ErrInvalidSchema].
func (e *InvalidSchemaError) Unwrap() error {
	return ErrInvalidSchema
}

func invalid(schema, format string, args ...any) error {
	return &InvalidSchemaError{Schema: schema, Reason: fmt.Sprintf(format, args...)}
}
