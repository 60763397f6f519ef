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

package mysql

import (
	"strings"
	"testing"

	"github.com/blinklabs-io/langjourney/database/plugin"
	"github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDsnDefaults(t *testing.T) {
	db, err := NewWithOptions()
	require.NoError(t, err)
	cfg, err := mysql.ParseDSN(db.Dsn())
	require.NoError(t, err)
	assert.Equal(t, "root", cfg.User)
	assert.Equal(t, "tcp", cfg.Net)
	assert.Equal(t, "localhost:3306", cfg.Addr)
	assert.Equal(t, "langjourney", cfg.DBName)
	assert.True(t, cfg.ParseTime)
	assert.Empty(t, cfg.TLSConfig)
}

func TestDsnFromConnection(t *testing.T) {
	dsn := BuildDsn(ConnectionConfig{
		Host:     "db.internal",
		Port:     3307,
		User:     "journey",
		Password: "secret",
		Database: "journeys",
		TLSMode:  "skip-verify",
	})
	assert.True(t, strings.HasPrefix(dsn, "journey:secret@tcp(db.internal:3307)/journeys?"), dsn)
	cfg, err := mysql.ParseDSN(dsn)
	require.NoError(t, err)
	assert.Equal(t, "skip-verify", cfg.TLSConfig)
	assert.Equal(t, "journeys", databaseFromDsn(dsn))
}

func TestDsnOverride(t *testing.T) {
	db, err := NewWithOptions(
		WithHost("ignored"),
		WithDSN("  u:p@tcp(h:3306)/d "),
	)
	require.NoError(t, err)
	assert.Equal(t, "u:p@tcp(h:3306)/d", db.Dsn())
	assert.Equal(t, "d", databaseFromDsn(db.Dsn()))
	assert.Empty(t, databaseFromDsn("not a dsn"))
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
		plugin.Options{Dsn: "u:p@tcp(example:3306)/lj"},
	)
	require.NotNil(t, p)
	db, ok := p.(*MetadataStoreMysql)
	require.True(t, ok)
	assert.Equal(t, "u:p@tcp(example:3306)/lj", db.Dsn())
}
