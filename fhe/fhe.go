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

// Package fhe defines the encryption and decryption capabilities consumed by
// the ledger and its clients. The cryptosystem itself lives behind these
// interfaces.
package fhe

import (
	"context"

	"github.com/blinklabs-io/langjourney/handle"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/signer/core/apitypes"
)

// Value is a plaintext integer tagged with the encrypted type it should be
// committed as
type Value struct {
	Type  handle.Type
	Value uint64
}

func Uint32(v uint32) Value {
	return Value{Type: handle.TypeEUint32, Value: uint64(v)}
}

func Uint64(v uint64) Value {
	return Value{Type: handle.TypeEUint64, Value: v}
}

// EncryptedInput is the output of an encryption request. The proof covers
// every handle in the batch.
type EncryptedInput struct {
	Handles []handle.Handle
	Proof   []byte
}

// KeyPair is an ephemeral key pair used to receive re-encrypted plaintexts
type KeyPair struct {
	PublicKey  []byte
	PrivateKey []byte
}

// GrantRequest is the content a user signs to permit decryption of handles
// scoped to a set of contracts
type GrantRequest struct {
	PublicKey         []byte
	ContractAddresses []common.Address
	StartTimestamp    int64
	DurationDays      uint32
}

// HandleContractPair names a handle together with the contract it is bound
// to
type HandleContractPair struct {
	Handle          handle.Handle
	ContractAddress common.Address
}

// UserDecryptRequest carries a batch of handles and the signed grant that
// covers them
type UserDecryptRequest struct {
	Pairs             []HandleContractPair
	PrivateKey        []byte
	PublicKey         []byte
	Signature         []byte
	ContractAddresses []common.Address
	UserAddress       common.Address
	StartTimestamp    int64
	DurationDays      uint32
}

// Encryptor commits plaintext values to a (contract, user) pair
type Encryptor interface {
	Encrypt(
		ctx context.Context,
		contract common.Address,
		user common.Address,
		values ...Value,
	) (*EncryptedInput, error)
}

type KeyGenerator interface {
	GenerateKeypair() (*KeyPair, error)
}

// TypedDataBuilder produces the EIP-712 payload a user signs for a grant
type TypedDataBuilder interface {
	CreateEIP712(req GrantRequest) (apitypes.TypedData, error)
}

// Decryptor returns plaintexts for a batch of handles. Handles not covered by
// the grant produce an *AuthorizationMismatchError.
type Decryptor interface {
	UserDecrypt(
		ctx context.Context,
		req UserDecryptRequest,
	) (map[handle.Handle]uint64, error)
}

// Instance is the full client-side capability set
type Instance interface {
	Encryptor
	KeyGenerator
	TypedDataBuilder
	Decryptor
}

// InputVerifier checks that a handle and proof were produced for the given
// contract and user
type InputVerifier interface {
	VerifyInput(
		ctx context.Context,
		h handle.Handle,
		proof []byte,
		contract common.Address,
		user common.Address,
		expectedType handle.Type,
	) error
}

// ACL reports whether an account may decrypt a handle
type ACL interface {
	IsAllowed(
		ctx context.Context,
		h handle.Handle,
		account common.Address,
	) (bool, error)
}
