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

package decrypt

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/blinklabs-io/langjourney/database"
	"github.com/blinklabs-io/langjourney/database/types"
)

// ErrItemNotFound is returned by Storage.GetItem for missing keys
var ErrItemNotFound = errors.New("item not found")

// Storage persists encoded grants between sessions
type Storage interface {
	GetItem(ctx context.Context, key string) ([]byte, error)
	// SetItem stores value. A positive ttl allows the storage to forget it
	// after that long.
	SetItem(ctx context.Context, key string, value []byte, ttl time.Duration) error
	RemoveItem(ctx context.Context, key string) error
}

// MemoryStorage keeps grants for the life of the process
type MemoryStorage struct {
	items map[string][]byte
	mu    sync.RWMutex
}

func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{
		items: make(map[string][]byte),
	}
}

func (m *MemoryStorage) GetItem(_ context.Context, key string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	value, ok := m.items[key]
	if !ok {
		return nil, ErrItemNotFound
	}
	return value, nil
}

// SetItem stores value. Expiry is left to the grant itself.
func (m *MemoryStorage) SetItem(
	_ context.Context,
	key string,
	value []byte,
	_ time.Duration,
) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.items[key] = value
	return nil
}

func (m *MemoryStorage) RemoveItem(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.items, key)
	return nil
}

// BadgerStorage keeps grants in the blob store of a database
type BadgerStorage struct {
	db *database.Database
}

func NewBadgerStorage(db *database.Database) *BadgerStorage {
	return &BadgerStorage{db: db}
}

func (b *BadgerStorage) GetItem(ctx context.Context, key string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	value, err := b.db.GetGrant(key, nil)
	if err != nil {
		if errors.Is(err, types.ErrBlobKeyNotFound) {
			return nil, ErrItemNotFound
		}
		return nil, err
	}
	return value, nil
}

func (b *BadgerStorage) SetItem(
	ctx context.Context,
	key string,
	value []byte,
	ttl time.Duration,
) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return b.db.SetGrant(key, value, ttl, nil)
}

func (b *BadgerStorage) RemoveItem(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return b.db.DeleteGrant(key, nil)
}
