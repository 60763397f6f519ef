// Copyright 2025 Blink Labs Software
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

package postgres

import (
	"testing"

	"github.com/blinklabs-io/langjourney/database/plugin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDsnDefaults(t *testing.T) {
	db, err := NewWithOptions()
	require.NoError(t, err)
	assert.Equal(
		t,
		"host=localhost user=postgres password= dbname=postgres port=5432 sslmode=disable TimeZone=UTC",
		db.Dsn(),
	)
}

func TestDsnFromConnection(t *testing.T) {
	dsn := BuildDsn(ConnectionConfig{
		Host:     "db.internal",
		Port:     6543,
		User:     "journey",
		Password: "secret",
		Database: "langjourney",
		SSLMode:  "require",
	})
	assert.Equal(
		t,
		"host=db.internal user=journey password=secret dbname=langjourney port=6543 sslmode=require TimeZone=UTC",
		dsn,
	)
}

func TestDsnOverride(t *testing.T) {
	db, err := NewWithOptions(
		WithHost("ignored"),
		WithDSN("  postgres://u:p@h:5432/d?sslmode=disable "),
	)
	require.NoError(t, err)
	assert.Equal(t, "postgres://u:p@h:5432/d?sslmode=disable", db.Dsn())
}

func TestCloseBeforeStart(t *testing.T) {
	db, err := NewWithOptions()
	require.NoError(t, err)
	assert.NoError(t, db.Close())
}

func TestPluginRegistered(t *testing.T) {
	p := plugin.GetPlugin(
		plugin.PluginTypeMetadata,
		PluginName,
		plugin.Options{Dsn: "host=example"},
	)
	require.NotNil(t, p)
	db, ok := p.(*MetadataStorePostgres)
	require.True(t, ok)
	assert.Equal(t, "host=example", db.Dsn())
}
