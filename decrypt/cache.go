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

// Package decrypt obtains and caches decryption grants and uses them to turn
// handles into plaintexts
package decrypt

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/blinklabs-io/langjourney/fhe"
	"github.com/blinklabs-io/langjourney/handle"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/signer/core/apitypes"
	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/sync/singleflight"
)

// Signer approves grant requests on behalf of a user. SignTypedData may block
// while a human decides.
type Signer interface {
	Address() common.Address
	SignTypedData(ctx context.Context, data apitypes.TypedData) ([]byte, error)
}

// GrantSource is the part of fhe.Instance needed to create a grant
type GrantSource interface {
	fhe.KeyGenerator
	fhe.TypedDataBuilder
}

// Cache hands out decryption grants, asking the signer only when no valid
// grant is stored
type Cache struct {
	storage      Storage
	logger       *slog.Logger
	promRegistry prometheus.Registerer
	clock        func() time.Time
	metrics      cacheMetrics
	group        singleflight.Group
	durationDays uint32
}

func NewCache(opts ...CacheOptionFunc) *Cache {
	c := &Cache{
		clock:        time.Now,
		durationDays: DefaultDurationDays,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.storage == nil {
		c.storage = NewMemoryStorage()
	}
	if c.logger == nil {
		// Create logger to throw away logs
		// We do this so we don't have to add guards around every log operation
		c.logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}
	c.metrics.init(c.promRegistry)
	return c
}

// DurationDays returns the lifetime given to new grants
func (c *Cache) DurationDays() uint32 {
	return c.durationDays
}

// LoadOrSign returns a valid grant of signer for contracts, creating and
// storing one when needed. Concurrent calls for the same signer and
// contracts share a single signature request.
//
// A failed or declined signature yields an error matching
// ErrGrantUnavailable. Nothing is retried.
func (c *Cache) LoadOrSign(
	ctx context.Context,
	source GrantSource,
	contracts []common.Address,
	signer Signer,
) (*Grant, error) {
	if len(contracts) == 0 {
		return nil, fmt.Errorf("%w: no contracts", ErrGrantUnavailable)
	}
	key := GrantKey(signer.Address(), contracts)
	if grant := c.load(ctx, key, signer.Address()); grant != nil {
		c.metrics.grantCacheHits.Inc()
		return grant, nil
	}
	ret, err, shared := c.group.Do(key, func() (any, error) {
		// Another flight may have finished while we were queued
		if grant := c.load(ctx, key, signer.Address()); grant != nil {
			return grant, nil
		}
		c.metrics.grantCacheMisses.Inc()
		return c.sign(ctx, key, source, contracts, signer)
	})
	if err != nil {
		return nil, err
	}
	if shared {
		c.logger.Debug(
			"shared in-flight grant request",
			"component", "decrypt",
			"user", signer.Address().Hex(),
		)
	}
	return ret.(*Grant), nil
}

// load returns the stored grant for key if it is still usable by user
func (c *Cache) load(ctx context.Context, key string, user common.Address) *Grant {
	data, err := c.storage.GetItem(ctx, key)
	if err != nil {
		if !errors.Is(err, ErrItemNotFound) {
			c.logger.Warn(
				"failed to read stored grant",
				"component", "decrypt",
				"error", err,
			)
		}
		return nil
	}
	grant := &Grant{}
	if err := json.Unmarshal(data, grant); err != nil {
		c.logger.Warn(
			"discarding unreadable stored grant",
			"component", "decrypt",
			"error", err,
		)
		_ = c.storage.RemoveItem(ctx, key)
		return nil
	}
	if grant.UserAddress != user || !grant.IsValid(c.clock()) {
		return nil
	}
	return grant
}

func (c *Cache) sign(
	ctx context.Context,
	key string,
	source GrantSource,
	contracts []common.Address,
	signer Signer,
) (*Grant, error) {
	keyPair, err := source.GenerateKeypair()
	if err != nil {
		return nil, fmt.Errorf("generate grant key pair: %w", err)
	}
	contracts = normalizeContracts(contracts)
	start := c.clock().Unix()
	typedData, err := source.CreateEIP712(fhe.GrantRequest{
		PublicKey:         keyPair.PublicKey,
		ContractAddresses: contracts,
		StartTimestamp:    start,
		DurationDays:      c.durationDays,
	})
	if err != nil {
		return nil, fmt.Errorf("build grant request: %w", err)
	}
	sig, err := signer.SignTypedData(ctx, typedData)
	if err != nil {
		c.logger.Info(
			"grant signature not obtained",
			"component", "decrypt",
			"user", signer.Address().Hex(),
			"error", err,
		)
		return nil, fmt.Errorf("%w: %w", ErrGrantUnavailable, err)
	}
	grant := &Grant{
		PrivateKey:        keyPair.PrivateKey,
		PublicKey:         keyPair.PublicKey,
		Signature:         sig,
		ContractAddresses: contracts,
		UserAddress:       signer.Address(),
		StartTimestamp:    start,
		DurationDays:      c.durationDays,
	}
	data, err := json.Marshal(grant)
	if err != nil {
		return nil, err
	}
	// A grant that can't be stored is still good for this call
	ttl := grant.Expiry().Sub(c.clock())
	if err := c.storage.SetItem(ctx, key, data, ttl); err != nil {
		c.logger.Warn(
			"failed to store grant",
			"component", "decrypt",
			"error", err,
		)
	}
	c.logger.Debug(
		"signed new grant",
		"component", "decrypt",
		"user", signer.Address().Hex(),
		"contracts", len(contracts),
		"expires", grant.Expiry().UTC(),
	)
	return grant, nil
}

// Forget drops the stored grant of user for contracts
func (c *Cache) Forget(
	ctx context.Context,
	user common.Address,
	contracts []common.Address,
) error {
	return c.storage.RemoveItem(ctx, GrantKey(user, contracts))
}

// UserDecrypt decrypts every pair in a single call to the decryptor. Pairs the
// grant doesn't cover fail the call with the decryptor's
// *fhe.AuthorizationMismatchError, unchanged.
func (c *Cache) UserDecrypt(
	ctx context.Context,
	decryptor fhe.Decryptor,
	grant *Grant,
	pairs []fhe.HandleContractPair,
) (map[handle.Handle]uint64, error) {
	if !grant.IsValid(c.clock()) {
		return nil, ErrGrantExpired
	}
	if len(pairs) == 0 {
		return map[handle.Handle]uint64{}, nil
	}
	c.metrics.decryptRequests.Inc()
	ret, err := decryptor.UserDecrypt(ctx, grant.request(pairs))
	if err != nil {
		c.metrics.decryptFailures.Inc()
		return nil, err
	}
	return ret, nil
}
