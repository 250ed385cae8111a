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

// Package config implements the graph store connection settings shared between the connector and the CLI.
package config

import (
	"errors"
	"time"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	neo4jconfig "github.com/neo4j/neo4j-go-driver/v5/neo4j/config"
)

// ErrEmptyURI occurs when the connection URI is not set.
var ErrEmptyURI = errors.New("empty connection uri")

const (
	// KeyURI is a config field name for a connection URI.
	KeyURI = "uri"
	// KeyDatabase is a config field name for a database.
	KeyDatabase = "database"
	// KeyAuthUsername is a config field name for a basic auth username.
	KeyAuthUsername = "auth.username"
	// KeyAuthPassword is a config field name for a basic auth password.
	KeyAuthPassword = "auth.password"
	// KeyAuthRealm is a config field name for a basic auth realm.
	KeyAuthRealm = "auth.realm"
	// KeyMaxConnectionPoolSize is a config field name for the driver connection pool size.
	KeyMaxConnectionPoolSize = "maxConnectionPoolSize"
	// KeyConnectTimeout is a config field name for the socket connect timeout.
	KeyConnectTimeout = "connectTimeout"
)

// Config holds the graph store connection values shared between the destination and the CLI.
type Config struct {
	// The connection URI pointed to a Neo4j instance.
	URI string `json:"uri" validate:"required"`
	// The name of a database the connector should work with.
	Database string `json:"database" default:"neo4j"`
	// Auth holds auth-specific configurable values.
	Auth AuthConfig `json:"auth"`
	// The maximum number of connections the driver keeps per host.
	MaxConnectionPoolSize int `json:"maxConnectionPoolSize" default:"100"`
	// How long to wait for a socket connection to the graph store.
	ConnectTimeout time.Duration `json:"connectTimeout" default:"5s"`
}

// Validate reports whether the values are enough to connect.
func (c Config) Validate() error {
	if c.URI == "" {
		return ErrEmptyURI
	}

	return nil
}

// DriverConfig applies the pool and timeout values to the driver configuration.
// Zero values keep the driver defaults.
func (c Config) DriverConfig(conf *neo4jconfig.Config) {
	if c.MaxConnectionPoolSize > 0 {
		conf.MaxConnectionPoolSize = c.MaxConnectionPoolSize
	}

	if c.ConnectTimeout > 0 {
		conf.SocketConnectTimeout = c.ConnectTimeout
	}
}

// AuthConfig holds auth-specific configurable values.
type AuthConfig struct {
	// The username to use when performing basic auth.
	Username string `json:"username"`
	// The password to use when performing basic auth.
	Password string `json:"password"`
	// The realm to use when performing basic auth.
	Realm string `json:"realm"`
}

// AuthToken returns [neo4j.AuthToken] based on the [AuthConfig] values.
func (c AuthConfig) AuthToken() neo4j.AuthToken {
	if c.Username != "" || c.Password != "" || c.Realm != "" {
		return neo4j.BasicAuth(c.Username, c.Password, c.Realm)
	}

	return neo4j.NoAuth()
}
