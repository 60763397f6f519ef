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

package blob

import (
	"errors"
	"fmt"
	"time"

	"github.com/blinklabs-io/langjourney/database/plugin"
	_ "github.com/blinklabs-io/langjourney/database/plugin/blob/badger"
	"github.com/blinklabs-io/langjourney/database/types"
)

const DefaultPluginName = "badger"

type BlobStore interface {
	Close() error
	NewTransaction(bool) types.Txn
	Get(types.Txn, []byte) ([]byte, error)
	Set(types.Txn, []byte, []byte) error
	SetWithTTL(types.Txn, []byte, []byte, time.Duration) error
	Delete(types.Txn, []byte) error

	GetCommitTimestamp() (int64, error)
	SetCommitTimestamp(int64, types.Txn) error
}

// New returns the started blob plugin selected by name
func New(pluginName string, opts plugin.Options) (BlobStore, error) {
	if pluginName == "" {
		pluginName = DefaultPluginName
	}
	p, err := plugin.StartPlugin(plugin.PluginTypeBlob, pluginName, opts)
	if err != nil {
		return nil, err
	}
	blobStore, ok := p.(BlobStore)
	if !ok {
		return nil, errors.Join(
			fmt.Errorf(
				"plugin '%s' does not implement BlobStore interface",
				pluginName,
			),
			p.Stop(),
		)
	}
	return blobStore, nil
}
