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

package graph_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/brianvoe/gofakeit"
	"github.com/conduitio-labs/conduit-connector-graphsync/config"
	"github.com/conduitio-labs/conduit-connector-graphsync/graph"
	"github.com/conduitio-labs/conduit-connector-graphsync/schema"
	"github.com/conduitio-labs/conduit-connector-graphsync/stats"
	"github.com/conduitio-labs/conduit-connector-graphsync/store"
	"github.com/matryer/is"
	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
)

const (
	// testURI is a connection URI pointed to a local Neo4j instance.
	testURI = "bolt://localhost:7687"
	// test credentials that are used in a Neo4j Docker container.
	testUsername = "neo4j"
	testPassword = "supersecret"
)

// testLabels holds the labels of one test, suffixed so tests do not see each other's data.
type testLabels struct {
	account string
	user    string
	group   string
	role    string
}

func newTestLabels() testLabels {
	suffix := time.Now().UnixNano()

	return testLabels{
		account: fmt.Sprintf("AWSAccount_%d", suffix),
		user:    fmt.Sprintf("AWSUser_%d", suffix),
		group:   fmt.Sprintf("AWSGroup_%d", suffix),
		role:    fmt.Sprintf("AWSRole_%d", suffix),
	}
}

func (l testLabels) userSchema() *schema.NodeSchema {
	return &schema.NodeSchema{
		Label: l.user,
		ID:    schema.FromField("Arn"),
		Properties: map[string]schema.PropertyRef{
			"name": schema.FromField("UserName").AsOptional(),
		},
		Owner: &schema.RelSchema{
			Label:         "RESOURCE",
			Direction:     schema.Inward,
			TargetLabel:   l.account,
			TargetMatcher: schema.Matcher{"id": schema.FromScope("AWS_ID")},
		},
		Relationships: []schema.RelSchema{{
			Label:         "MEMBER_OF",
			TargetLabel:   l.group,
			TargetMatcher: schema.Matcher{"id": schema.FromField("GroupArns").AsFanOut()},
			CreateStub:    true,
		}},
		ScopedCleanup: true,
	}
}

// groupSchema is a global dimension node: every account's users link to the same groups.
func (l testLabels) groupSchema() *schema.NodeSchema {
	return &schema.NodeSchema{
		Label: l.group,
		ID:    schema.FromField("Arn"),
	}
}

func (l testLabels) trustLink() *schema.RelSchema {
	return &schema.RelSchema{
		Label:         "TRUSTS",
		SourceLabel:   l.role,
		SourceMatcher: schema.Matcher{"id": schema.FromField("RoleArn")},
		TargetLabel:   l.user,
		TargetMatcher: schema.Matcher{"id": schema.FromField("UserArn")},
	}
}

// integrationEnv holds an engine connected to the local instance and a driver for assertions.
type integrationEnv struct {
	engine *graph.Engine
	driver neo4j.DriverWithContext
	stats  *stats.Counter
	labels testLabels
}

func newIntegrationEnv(t *testing.T) *integrationEnv {
	t.Helper()

	is := is.New(t)
	ctx := context.Background()

	driver, err := store.Connect(ctx, config.Config{
		URI:  testURI,
		Auth: config.AuthConfig{Username: testUsername, Password: testPassword},
	})
	is.NoErr(err)

	session := store.NewSession(ctx, driver, "neo4j")
	counter := stats.NewCounter()

	env := &integrationEnv{
		engine: graph.New(graph.EngineParams{Runner: session, Stats: counter, CleanupBatchSize: 2, EnsureIndexes: true}),
		driver: driver,
		stats:  counter,
		labels: newTestLabels(),
	}

	t.Cleanup(func() {
		l := env.labels
		env.exec(t, fmt.Sprintf("MATCH (n) WHERE n:%s OR n:%s OR n:%s OR n:%s DETACH DELETE n",
			l.account, l.user, l.group, l.role), nil)
		is.NoErr(session.Close(ctx))
		is.NoErr(driver.Close(ctx))
	})

	return env
}

func (e *integrationEnv) exec(t *testing.T, query string, params map[string]any) {
	t.Helper()

	_, err := neo4j.ExecuteQuery(context.Background(), e.driver, query, params, neo4j.EagerResultTransformer)
	is.New(t).NoErr(err)
}

func (e *integrationEnv) count(t *testing.T, query string, params map[string]any) int64 {
	t.Helper()

	is := is.New(t)

	result, err := neo4j.ExecuteQuery(context.Background(), e.driver, query, params, neo4j.EagerResultTransformer)
	is.NoErr(err)
	is.Equal(len(result.Records), 1)

	total, ok := result.Records[0].Values[0].(int64)
	is.True(ok)

	return total
}

func (e *integrationEnv) createAccounts(t *testing.T, ids ...string) {
	t.Helper()

	for _, id := range ids {
		e.exec(t, fmt.Sprintf("CREATE (:%s {id: $id})", e.labels.account), map[string]any{"id": id})
	}
}

func (e *integrationEnv) users(t *testing.T) int64 {
	t.Helper()

	return e.count(t, fmt.Sprintf("MATCH (u:%s) RETURN count(u)", e.labels.user), nil)
}

func (e *integrationEnv) usersOf(t *testing.T, account string) int64 {
	t.Helper()

	return e.count(t, fmt.Sprintf("MATCH (:%s {id: $id})-[:RESOURCE]->(u:%s) RETURN count(u)",
		e.labels.account, e.labels.user), map[string]any{"id": account})
}

func awsUser(arn string, groups ...string) schema.Row {
	return schema.NewRow(
		schema.Field{Name: "Arn", Value: schema.String(arn)},
		schema.Field{Name: "UserName", Value: schema.String(gofakeit.Name())},
		schema.Field{Name: "GroupArns", Value: schema.Strings(groups...)},
	)
}

func TestEngine_Load_idempotent(t *testing.T) {
	is := is.New(t)
	ctx := context.Background()

	env := newIntegrationEnv(t)
	env.createAccounts(t, "111111111111")

	node := env.labels.userSchema()
	rows := []schema.Row{awsUser("arn:u1", "arn:g1"), awsUser("arn:u2")}
	scope := graph.NewScope(1).With("AWS_ID", "111111111111")

	is.NoErr(env.engine.Load(ctx, node, rows, scope))
	is.NoErr(env.engine.Load(ctx, node, rows, scope))

	is.Equal(env.users(t), int64(2))
	is.Equal(env.usersOf(t, "111111111111"), int64(2))
	is.Equal(env.count(t, fmt.Sprintf("MATCH (:%s)-[r:MEMBER_OF]->() RETURN count(r)", env.labels.user), nil), int64(1))
}

func TestEngine_Cleanup_freshness(t *testing.T) {
	is := is.New(t)
	ctx := context.Background()

	env := newIntegrationEnv(t)
	env.createAccounts(t, "111111111111")

	node := env.labels.userSchema()
	first := graph.NewScope(1).With("AWS_ID", "111111111111")
	second := graph.NewScope(2).With("AWS_ID", "111111111111")

	is.NoErr(env.engine.Load(ctx, node, []schema.Row{
		awsUser("arn:u1"), awsUser("arn:u2"), awsUser("arn:u3"), awsUser("arn:u4"), awsUser("arn:u5"),
	}, first))

	firstSeen := env.count(t, fmt.Sprintf("MATCH (u:%s {id: 'arn:u1'}) RETURN u.firstseen", env.labels.user), nil)

	is.NoErr(env.engine.Load(ctx, node, []schema.Row{awsUser("arn:u1")}, second))
	is.NoErr(env.engine.Cleanup(ctx, node, second))

	is.Equal(env.users(t), int64(1))
	is.Equal(env.count(t, fmt.Sprintf("MATCH (u:%s {id: 'arn:u1'}) RETURN u.lastupdated", env.labels.user), nil), int64(2))
	is.Equal(env.count(t, fmt.Sprintf("MATCH (u:%s {id: 'arn:u1'}) RETURN u.firstseen", env.labels.user), nil), firstSeen)

	// four stale users, swept two at a time
	is.Equal(env.stats.Get("job.cleanup "+env.labels.user+".nodes_deleted"), int64(4))
}

func TestEngine_Cleanup_tenantIsolation(t *testing.T) {
	is := is.New(t)
	ctx := context.Background()

	env := newIntegrationEnv(t)
	env.createAccounts(t, "111111111111", "222222222222")

	node := env.labels.userSchema()

	is.NoErr(env.engine.Load(ctx, node, []schema.Row{awsUser("arn:a1"), awsUser("arn:a2")},
		graph.NewScope(1).With("AWS_ID", "111111111111")))
	is.NoErr(env.engine.Load(ctx, node, []schema.Row{awsUser("arn:b1"), awsUser("arn:b2")},
		graph.NewScope(1).With("AWS_ID", "222222222222")))

	// the next generation only syncs the first account
	scope := graph.NewScope(2).With("AWS_ID", "111111111111")
	is.NoErr(env.engine.Load(ctx, node, []schema.Row{awsUser("arn:a1")}, scope))
	is.NoErr(env.engine.Cleanup(ctx, node, scope))

	is.Equal(env.usersOf(t, "111111111111"), int64(1))
	is.Equal(env.usersOf(t, "222222222222"), int64(2))
}

func TestEngine_Cleanup_tenantIsolationSharedDimension(t *testing.T) {
	is := is.New(t)
	ctx := context.Background()

	env := newIntegrationEnv(t)
	env.createAccounts(t, "111111111111", "222222222222")

	users := env.labels.userSchema()
	groups := env.labels.groupSchema()

	groupRow := func(arn string) schema.Row {
		return schema.NewRow(schema.Field{Name: "Arn", Value: schema.String(arn)})
	}

	is.NoErr(env.engine.Load(ctx, groups, []schema.Row{groupRow("arn:g1"), groupRow("arn:g2")}, graph.NewScope(1)))
	is.NoErr(env.engine.Load(ctx, users, []schema.Row{awsUser("arn:a1", "arn:g1"), awsUser("arn:a2", "arn:g1")},
		graph.NewScope(1).With("AWS_ID", "111111111111")))
	is.NoErr(env.engine.Load(ctx, users, []schema.Row{awsUser("arn:b1", "arn:g1")},
		graph.NewScope(1).With("AWS_ID", "222222222222")))

	membersOf := func(group string) int64 {
		return env.count(t, fmt.Sprintf("MATCH (u:%s)-[:MEMBER_OF]->(:%s {id: $id}) RETURN count(u)",
			env.labels.user, env.labels.group), map[string]any{"id": group})
	}

	is.Equal(membersOf("arn:g1"), int64(3))

	// the next generation syncs the first account only
	scope := graph.NewScope(2).With("AWS_ID", "111111111111")
	is.NoErr(env.engine.Load(ctx, users, []schema.Row{awsUser("arn:a1", "arn:g1")}, scope))
	is.NoErr(env.engine.Cleanup(ctx, users, scope))

	is.Equal(env.usersOf(t, "111111111111"), int64(1))
	is.Equal(env.usersOf(t, "222222222222"), int64(1))
	is.Equal(membersOf("arn:g1"), int64(2)) // a1 and b1
	is.Equal(env.count(t, fmt.Sprintf("MATCH (:%s {id: 'arn:b1'})-[r:MEMBER_OF]->() RETURN r.lastupdated",
		env.labels.user), nil), int64(1))

	groupsLeft := func() int64 {
		return env.count(t, fmt.Sprintf("MATCH (g:%s) RETURN count(g)", env.labels.group), nil)
	}

	// the scoped user cleanup never sweeps the shared groups
	is.Equal(groupsLeft(), int64(2))

	// the groups are swept by their own unscoped cleanup
	is.NoErr(env.engine.Load(ctx, groups, []schema.Row{groupRow("arn:g1")}, graph.NewScope(2)))
	is.NoErr(env.engine.Cleanup(ctx, groups, graph.NewScope(2)))

	is.Equal(groupsLeft(), int64(1))
	is.Equal(membersOf("arn:g1"), int64(2))
}

func TestEngine_Load_fanOutCardinality(t *testing.T) {
	is := is.New(t)
	ctx := context.Background()

	env := newIntegrationEnv(t)
	env.createAccounts(t, "111111111111")

	env.exec(t, fmt.Sprintf("CREATE (:%s {id: 'arn:g1', name: 'admins'})", env.labels.group), nil)

	node := env.labels.userSchema()
	scope := graph.NewScope(1).With("AWS_ID", "111111111111")

	is.NoErr(env.engine.Load(ctx, node, []schema.Row{
		awsUser("arn:u1", "arn:g1", "arn:g2", "arn:g3"),
		awsUser("arn:u2"),
	}, scope))

	is.Equal(env.count(t, fmt.Sprintf("MATCH (:%s {id: 'arn:u1'})-[r:MEMBER_OF]->() RETURN count(r)", env.labels.user), nil), int64(3))
	is.Equal(env.count(t, fmt.Sprintf("MATCH (:%s {id: 'arn:u2'})-[r:MEMBER_OF]->() RETURN count(r)", env.labels.user), nil), int64(0))

	// missing groups become stubs, the existing one is reused
	is.Equal(env.count(t, fmt.Sprintf("MATCH (g:%s) RETURN count(g)", env.labels.group), nil), int64(3))
	is.Equal(env.count(t, fmt.Sprintf("MATCH (g:%s) WHERE g._stub = true RETURN count(g)", env.labels.group), nil), int64(2))
}

func TestEngine_CleanupMatchLink_keepsNodes(t *testing.T) {
	is := is.New(t)
	ctx := context.Background()

	env := newIntegrationEnv(t)
	env.createAccounts(t, "111111111111")

	node := env.labels.userSchema()
	is.NoErr(env.engine.Load(ctx, node, []schema.Row{awsUser("arn:u1"), awsUser("arn:u2")},
		graph.NewScope(1).With("AWS_ID", "111111111111")))

	env.exec(t, fmt.Sprintf("CREATE (:%s {id: 'arn:r1'})", env.labels.role), nil)

	rel := env.labels.trustLink()
	trust := func(role, user string) schema.Row {
		return schema.NewRow(
			schema.Field{Name: "RoleArn", Value: schema.String(role)},
			schema.Field{Name: "UserArn", Value: schema.String(user)},
		)
	}

	is.NoErr(env.engine.LoadMatchLinks(ctx, rel, []schema.Row{
		trust("arn:r1", "arn:u1"),
		trust("arn:r1", "arn:u2"),
		trust("arn:r1", "arn:missing"),
	}, graph.NewScope(1).WithSubResource(env.labels.account, "111111111111")))

	// endpoints that do not exist are skipped
	is.Equal(env.count(t, "MATCH ()-[r:TRUSTS]->() WHERE r._sub_resource_id = '111111111111' RETURN count(r)", nil), int64(2))

	is.NoErr(env.engine.LoadMatchLinks(ctx, rel, []schema.Row{trust("arn:r1", "arn:u1")},
		graph.NewScope(2).WithSubResource(env.labels.account, "111111111111")))
	is.NoErr(env.engine.CleanupMatchLink(ctx, rel, env.labels.account, "111111111111", 2))

	is.Equal(env.count(t, "MATCH ()-[r:TRUSTS]->() WHERE r._sub_resource_id = '111111111111' RETURN count(r)", nil), int64(1))
	is.Equal(env.users(t), int64(2))
	is.Equal(env.count(t, fmt.Sprintf("MATCH (r:%s) RETURN count(r)", env.labels.role), nil), int64(1))
}

func TestEngine_twoAccountSync(t *testing.T) {
	is := is.New(t)
	ctx := context.Background()

	env := newIntegrationEnv(t)
	env.createAccounts(t, "111111111111", "222222222222")

	node := env.labels.userSchema()

	sync := func(tag int64, account string, rows []schema.Row) {
		scope := graph.NewScope(tag).With("AWS_ID", account)

		is.NoErr(env.engine.Load(ctx, node, rows, scope))
		is.NoErr(env.engine.Cleanup(ctx, node, scope))
	}

	sync(1, "111111111111", []schema.Row{awsUser("arn:a1"), awsUser("arn:a2")})
	sync(1, "222222222222", []schema.Row{awsUser("arn:b1")})

	sync(2, "111111111111", []schema.Row{awsUser("arn:a2"), awsUser("arn:a3")})
	sync(2, "222222222222", []schema.Row{awsUser("arn:b1"), awsUser("arn:b2")})

	is.Equal(env.usersOf(t, "111111111111"), int64(2))
	is.Equal(env.usersOf(t, "222222222222"), int64(2))
	is.Equal(env.count(t, fmt.Sprintf("MATCH (u:%s {id: 'arn:a1'}) RETURN count(u)", env.labels.user), nil), int64(0))
}
