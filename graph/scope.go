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
	"fmt"
	"strconv"
	"strings"

	"github.com/conduitio-labs/conduit-connector-graphsync/schema"
)

const (
	entrySeparator = "="
	typeSeparator  = ":"

	entryTypeString = "string"
	entryTypeInt    = "int"
)

// Scope holds the values supplied once per load or cleanup call: the sync generation
// under [schema.ScopeUpdateTag], plus the named ids the schema binds, such as an account id.
type Scope map[string]any

// NewScope creates a [Scope] for the sync generation.
func NewScope(updateTag int64) Scope {
	return Scope{schema.ScopeUpdateTag: updateTag}
}

// With returns a copy of the scope with the named value set.
func (s Scope) With(name string, value any) Scope {
	scope := make(Scope, len(s)+1)
	for key, v := range s {
		scope[key] = v
	}

	scope[name] = value

	return scope
}

// WithSubResource returns a copy of the scope carrying the label and the id
// that bound the cleanup of match links.
func (s Scope) WithSubResource(label, id string) Scope {
	return s.With(schema.ScopeSubResourceLabel, label).With(schema.ScopeSubResourceID, id)
}

// WithEntries returns a copy of the scope with the NAME=value entries set.
// Values are strings unless the name carries a type, e.g.: "AWS_ID:int=1234".
// The supported types are "string" and "int".
func (s Scope) WithEntries(entries []string) (Scope, error) {
	scope := make(Scope, len(s)+len(entries))
	for key, value := range s {
		scope[key] = value
	}

	for _, entry := range entries {
		name, raw, ok := strings.Cut(strings.TrimSpace(entry), entrySeparator)
		if !ok {
			return nil, fmt.Errorf("%w: %q", ErrInvalidScopeEntry, entry)
		}

		name, typ, _ := strings.Cut(name, typeSeparator)
		name = strings.TrimSpace(name)

		if name == "" {
			return nil, fmt.Errorf("%w: %q", ErrInvalidScopeEntry, entry)
		}

		value, err := entryValue(strings.TrimSpace(typ), strings.TrimSpace(raw))
		if err != nil {
			return nil, fmt.Errorf("%w: %q: %w", ErrInvalidScopeEntry, entry, err)
		}

		scope[name] = value
	}

	return scope, nil
}

func entryValue(typ, raw string) (any, error) {
	switch typ {
	case "", entryTypeString:
		return raw, nil
	case entryTypeInt:
		n, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("parse int: %w", err)
		}

		return n, nil
	default:
		return nil, fmt.Errorf("unknown type %q", typ)
	}
}

// UpdateTag returns the sync generation and whether it is set.
func (s Scope) UpdateTag() (int64, bool) {
	switch tag := s[schema.ScopeUpdateTag].(type) {
	case int64:
		return tag, true
	case int:
		return int64(tag), true
	case int32:
		return int64(tag), true
	default:
		return 0, false
	}
}

// missing returns the keys that are absent or null, in the given order.
func (s Scope) missing(keys []string) []string {
	var absent []string
	for _, key := range keys {
		if value, ok := s[key]; !ok || value == nil {
			absent = append(absent, key)
		}
	}

	return absent
}

// params copies the scope into statement parameters.
func (s Scope) params() map[string]any {
	params := make(map[string]any, len(s)+1)
	for key, value := range s {
		params[key] = value
	}

	return params
}
