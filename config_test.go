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


package langjourney

import (
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewConfigDefaults(t *testing.T) {
	cfg := NewConfig()
	assert.NotNil(t, cfg.logger)
	assert.Equal(t, DefaultShutdownTimeout, cfg.shutdownTimeout)
	assert.Empty(t, cfg.dataDir)
	assert.Empty(t, cfg.apiListenAddress)
	assert.False(t, cfg.tracing)
}

func TestConfigOptions(t *testing.T) {
	owner := common.HexToAddress("0x00000000000000000000000000000000000000aa")
	contract := common.HexToAddress("0x00000000000000000000000000000000000000bb")
	cfg := NewConfig(
		WithDatabasePath("/tmp/langjourney"),
		WithBlobPlugin("badger"),
		WithMetadataPlugin("postgres"),
		WithMetadataDsn("host=localhost"),
		WithOwner(owner),
		WithContractAddress(contract),
		WithChainId(11155111),
		WithMaxTaskID(12),
		WithRequireApprovedSubmissions(true),
		WithApiListenAddress("127.0.0.1:3000"),
		WithApiMaxConnections(32),
		WithTlsCertFilePath("cert.pem"),
		WithTlsKeyFilePath("key.pem"),
		WithTracing(true),
		WithTracingStdout(true),
		WithShutdownTimeout(5*time.Second),
	)
	assert.Equal(t, "/tmp/langjourney", cfg.dataDir)
	assert.Equal(t, "badger", cfg.blobPlugin)
	assert.Equal(t, "postgres", cfg.metadataPlugin)
	assert.Equal(t, "host=localhost", cfg.metadataDsn)
	assert.Equal(t, owner, cfg.owner)
	assert.Equal(t, contract, cfg.contractAddress)
	assert.Equal(t, uint64(11155111), cfg.chainId)
	assert.Equal(t, uint64(12), cfg.maxTaskID)
	assert.True(t, cfg.requireApprovedSubmissions)
	assert.Equal(t, "127.0.0.1:3000", cfg.apiListenAddress)
	assert.Equal(t, 32, cfg.apiMaxConnections)
	assert.Equal(t, "cert.pem", cfg.tlsCertFilePath)
	assert.Equal(t, "key.pem", cfg.tlsKeyFilePath)
	assert.True(t, cfg.tracing)
	assert.True(t, cfg.tracingStdout)
	assert.Equal(t, 5*time.Second, cfg.shutdownTimeout)
}

func TestConfigOptionsIgnoreEmpty(t *testing.T) {
	cfg := NewConfig(
		WithLogger(nil),
		WithShutdownTimeout(0),
		WithApiMaxConnections(-1),
	)
	assert.NotNil(t, cfg.logger)
	assert.Equal(t, DefaultShutdownTimeout, cfg.shutdownTimeout)
	assert.Zero(t, cfg.apiMaxConnections)
}

func TestConfigValidate(t *testing.T) {
	owner := common.HexToAddress("0x00000000000000000000000000000000000000aa")
	tests := []struct {
		name    string
		opts    []ConfigOptionFunc
		wantErr string
	}{
		{
			name:    "missing owner",
			wantErr: "no owner address configured",
		},
		{
			name: "cert without key",
			opts: []ConfigOptionFunc{
				WithOwner(owner),
				WithTlsCertFilePath("cert.pem"),
			},
			wantErr: "TLS requires both",
		},
		{
			name: "valid",
			opts: []ConfigOptionFunc{WithOwner(owner)},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n, err := New(NewConfig(tt.opts...))
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			require.NotNil(t, n)
		})
	}
}
