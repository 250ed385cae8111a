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
	"os"
	"path/filepath"
	"testing"

	"github.com/matryer/is"
)

const testDefinitions = `
nodes:
  AWSUser:
    id: {field: Arn}
    extraLabels: [Principal]
    properties:
      name: {field: UserName, optional: true}
      path: {field: Path, indexed: true}
    owner:
      label: RESOURCE
      direction: inward
      target: AWSAccount
      match:
        id: {scope: AWS_ID}
    relationships:
      - label: MEMBER_OF
        target: AWSGroup
        match:
          arn: {field: GroupArns, fanOut: true}
  Region:
    label: AWSRegion
    id: {field: name}
    scopedCleanup: false
matchLinks:
  role-trust:
    label: TRUSTS
    source: AWSRole
    sourceMatch:
      arn: {field: RoleArn}
    target: AWSPrincipal
    match:
      id: {field: PrincipalArn}
    createStub: true
    properties:
      condition: {field: Condition, optional: true}
`

func TestParseDefinitions(t *testing.T) {
	t.Parallel()

	is := is.New(t)

	defs, err := ParseDefinitions([]byte(testDefinitions))
	is.NoErr(err)

	is.Equal(defs.NodeNames(), []string{"AWSUser", "Region"})
	is.Equal(defs.MatchLinkNames(), []string{"role-trust"})

	user, err := defs.Node("AWSUser")
	is.NoErr(err)
	is.Equal(user.Label, "AWSUser")
	is.Equal(user.ID, FromField("Arn"))
	is.Equal(user.ExtraLabels, []string{"Principal"})
	is.Equal(user.Properties["name"], FromField("UserName").AsOptional())
	is.Equal(user.Properties["path"], FromField("Path").WithIndex())
	is.True(user.ScopedCleanup)
	is.Equal(user.Owner.Direction, Inward)
	is.Equal(user.Owner.TargetMatcher["id"], FromScope("AWS_ID"))
	is.Equal(user.Relationships[0].TargetMatcher["arn"], FromField("GroupArns").AsFanOut())

	region, err := defs.Node("Region")
	is.NoErr(err)
	is.Equal(region.Label, "AWSRegion")
	is.True(!region.ScopedCleanup)

	link, err := defs.MatchLink("role-trust")
	is.NoErr(err)
	is.Equal(link.SourceLabel, "AWSRole")
	is.True(link.CreateStub)

	found, err := defs.Lookup("role-trust")
	is.NoErr(err)
	is.Equal(found.Name(), "TRUSTS")

	_, err = defs.Lookup("nope")
	is.True(errors.Is(err, ErrUnknownSchema))

	_, err = defs.Node("role-trust")
	is.True(errors.Is(err, ErrUnknownSchema))
}

func TestParseDefinitions_JSON(t *testing.T) {
	t.Parallel()

	is := is.New(t)

	defs, err := ParseDefinitions([]byte(`{"nodes": {"Tag": {"id": {"field": "key"}, "scopedCleanup": false}}}`))
	is.NoErr(err)

	tag, err := defs.Node("Tag")
	is.NoErr(err)
	is.Equal(tag.ID, FromField("key"))
}

func TestParseDefinitions_errors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		doc  string
	}{
		{name: "not yaml", doc: "nodes: ["},
		{name: "unknown key", doc: "nodes: {A: {id: {field: x}, colour: red}}"},
		{name: "field and scope", doc: "nodes: {A: {id: {field: x, scope: Y}}}"},
		{name: "no source", doc: "nodes: {A: {id: {}}}"},
		{name: "bad direction", doc: "matchLinks: {l: {label: L, direction: up, target: T, match: {id: {field: x}}}}"},
		{name: "invalid schema", doc: "matchLinks: {l: {label: L, target: T, match: {id: {field: x}}}}"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			is := is.New(t)

			_, err := ParseDefinitions([]byte(tt.doc))
			is.True(err != nil)
		})
	}
}

func TestLoadDefinitions(t *testing.T) {
	t.Parallel()

	is := is.New(t)

	path := filepath.Join(t.TempDir(), "schemas.yaml")
	is.NoErr(os.WriteFile(path, []byte(testDefinitions), 0o600))

	defs, err := LoadDefinitions(path)
	is.NoErr(err)
	is.Equal(len(defs.NodeNames()), 2)

	_, err = LoadDefinitions(filepath.Join(t.TempDir(), "missing.yaml"))
	is.True(errors.Is(err, os.ErrNotExist))
}
