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

package graph

import (
	"errors"
	"fmt"
	"strings"

	"github.com/conduitio-labs/conduit-connector-graphsync/schema"
)

var (
	// ErrMissingField occurs when a row lacks a field a required binding reads.
	ErrMissingField = errors.New("missing field")
	// ErrFieldType occurs when a fan-out field does not hold a list.
	ErrFieldType = errors.New("unexpected field type")
	// ErrSchemaBinding occurs when a scope value a schema binds was not supplied.
	ErrSchemaBinding = errors.New("schema binding not supplied")
	// ErrCleanupScopeMissing occurs when the scope ids a cleanup, or a match link load, needs were not supplied.
	ErrCleanupScopeMissing = errors.New("cleanup scope missing")
	// ErrTransaction occurs when the graph store fails a write.
	ErrTransaction = errors.New("transaction failure")
	// ErrUnsupportedSchema occurs when a nil schema is passed to the engine.
	ErrUnsupportedSchema = errors.New("unsupported schema")
	// ErrInvalidJob occurs when a JSON job cannot be used.
	ErrInvalidJob = errors.New("invalid job")
	// ErrInvalidScopeEntry occurs when a scope entry is not of the form NAME=value.
	ErrInvalidScopeEntry = errors.New("invalid scope entry")
	// ErrInvalidSyncMetadata occurs when the group or the synced label of sync metadata is empty.
	ErrInvalidSyncMetadata = errors.New("invalid sync metadata")
)

// MissingFieldError names the row and the field a required binding could not read.
type MissingFieldError struct {
	Schema string
	Row    int
	Field  string
}

func (e *MissingFieldError) Error() string {
	return fmt.Sprintf("%s: row %d: %s %q", e.Schema, e.Row, ErrMissingField, e.Field)
}

// Unwrap returns [ErrMissingField].
func (e *MissingFieldError) Unwrap() error { return ErrMissingField }

// FieldTypeError names the row and the fan-out field that does not hold a list.
type FieldTypeError struct {
	Schema string
	Row    int
	Field  string
	Kind   schema.Kind
}

func (e *FieldTypeError) Error() string {
	return fmt.Sprintf("%s: row %d: field %q must be a list, got %s", e.Schema, e.Row, e.Field, e.Kind)
}

// Unwrap returns [ErrFieldType].
func (e *FieldTypeError) Unwrap() error { return ErrFieldType }

// BindingError lists the scope values a schema binds that the caller did not supply.
type BindingError struct {
	Schema string
	Keys   []string
}

func (e *BindingError) Error() string {
	return fmt.Sprintf("%s: %s: %s", e.Schema, ErrSchemaBinding, strings.Join(e.Keys, ", "))
}

// Unwrap returns [ErrSchemaBinding].
func (e *BindingError) Unwrap() error { return ErrSchemaBinding }

// ScopeError lists the scope ids a cleanup or a match link load is missing.
type ScopeError struct {
	Schema string
	Keys   []string
}

func (e *ScopeError) Error() string {
	return fmt.Sprintf("%s: %s: %s", e.Schema, ErrCleanupScopeMissing, strings.Join(e.Keys, ", "))
}

// Unwrap returns [ErrCleanupScopeMissing].
func (e *ScopeError) Unwrap() error { return ErrCleanupScopeMissing }

// TransactionError is a graph store failure during a load or a cleanup.
// It unwraps to the error the store returned.
type TransactionError struct {
	Schema string
	Err    error
}

func (e *TransactionError) Error() string {
	return fmt.Sprintf("%s: %s: %v", e.Schema, ErrTransaction, e.Err)
}

// Unwrap returns the store error.
func (e *TransactionError) Unwrap() error { return e.Err }

// Is reports whether target is [ErrTransaction].
func (e *TransactionError) Is(target error) bool { return target == ErrTransaction }
