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

// Package keystore manages the secp256k1 account keys that sign ledger calls
// and decryption grants.
package keystore

import (
	"context"
	"crypto/ecdsa"
	"errors"
	"fmt"

	"github.com/blinklabs-io/langjourney/fhe"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/signer/core/apitypes"
)

var (
	ErrKeyNotLoaded     = errors.New("key not loaded")
	ErrKeyFileExists    = errors.New("key file already exists")
	ErrInsecureFileMode = errors.New("insecure file permissions")
)

// Key is an account signing key
type Key struct {
	privateKey *ecdsa.PrivateKey
	address    common.Address
}

// NewKey wraps an existing private key
func NewKey(privateKey *ecdsa.PrivateKey) (*Key, error) {
	if privateKey == nil {
		return nil, ErrKeyNotLoaded
	}
	return &Key{
		privateKey: privateKey,
		address:    crypto.PubkeyToAddress(privateKey.PublicKey),
	}, nil
}

// GenerateKey creates a fresh random key
func GenerateKey() (*Key, error) {
	privateKey, err := crypto.GenerateKey()
	if err != nil {
		return nil, fmt.Errorf("failed to generate key: %w", err)
	}
	return NewKey(privateKey)
}

// Address returns the account address of the key
func (k *Key) Address() common.Address {
	return k.address
}

// PublicKey returns the uncompressed public key
func (k *Key) PublicKey() []byte {
	return crypto.FromECDSAPub(&k.privateKey.PublicKey)
}

// SignHash signs a 32-byte digest. The recovery id is returned as 27 or 28
// in the last byte, the way wallets return it.
func (k *Key) SignHash(hash []byte) ([]byte, error) {
	sig, err := crypto.Sign(hash, k.privateKey)
	if err != nil {
		return nil, err
	}
	sig[crypto.RecoveryIDOffset] += 27
	return sig, nil
}

// SignTypedData signs an EIP-712 payload
func (k *Key) SignTypedData(
	ctx context.Context,
	data apitypes.TypedData,
) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	hash, err := fhe.TypedDataHash(data)
	if err != nil {
		return nil, err
	}
	return k.SignHash(hash)
}

func (k *Key) bytes() []byte {
	return crypto.FromECDSA(k.privateKey)
}
