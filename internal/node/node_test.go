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


package node_test

import (
	"context"
	"testing"

	"github.com/blinklabs-io/langjourney/internal/config"
	"github.com/blinklabs-io/langjourney/internal/node"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testOwner = "0x00000000000000000000000000000000000000a1"

func TestConfigOptionsRequiresOwner(t *testing.T) {
	cfg := config.DefaultConfig()
	_, err := node.ConfigOptions(cfg, nil)
	require.ErrorIs(t, err, node.ErrNoOwner)
}

func TestConfigOptionsShutdownTimeout(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Owner = testOwner
	cfg.ShutdownTimeout = "soon"
	_, err := node.ConfigOptions(cfg, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid shutdown timeout")
}

func TestOpen(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Owner = testOwner
	cfg.DatabasePath = t.TempDir()
	cfg.MaxTaskId = 10
	n, err := node.Open(context.Background(), cfg, nil)
	require.NoError(t, err)
	defer n.Stop()
	assert.Equal(t, cfg.OwnerAddress(), n.Ledger().Owner())
	// Open never starts the API
	assert.Nil(t, n.ApiAddr())
	next, err := n.Ledger().NextPathID(context.Background())
	require.NoError(t, err)
	assert.Equal(t, uint64(1), next)
}
